package devserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister handles POST /auth/register.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[registerRequest](w, r)
	if !ok {
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Validation error", "username, email and password are required")
		return
	}
	if _, err := s.store.UserByEmail(req.Email); err == nil {
		writeError(w, http.StatusConflict, "Conflict", "Email already exists")
		return
	}
	if _, err := s.store.UserByUsername(req.Username); err == nil {
		writeError(w, http.StatusConflict, "Conflict", "Username already exists")
		return
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to create account")
		return
	}
	user := &UserRecord{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         roleUser,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.PutUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to persist account")
		return
	}

	s.log.Info("user registered", slog.String("email", user.Email))
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "User registered successfully",
		"userId":  user.ID,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin handles POST /auth/login. A TOTP-enabled account gets a
// challenge id instead of a token; the token is only issued once the
// challenge is answered.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[loginRequest](w, r)
	if !ok {
		return
	}
	user, err := s.store.UserByEmail(req.Email)
	if err != nil || !verifyPassword(req.Password, user.PasswordHash) {
		writeUnauthorized(w, "Invalid email or password")
		return
	}

	if user.TOTPEnabled {
		cid := uuid.NewString()
		s.challenges.put(cid, user.Email, s.now().Add(challengeTTL))
		writeJSON(w, http.StatusOK, map[string]any{
			"requireTOTP": true,
			"cid":         cid,
			"message":     "TOTP verification required",
		})
		return
	}

	s.issueSession(w, user)
}

type totpLoginRequest struct {
	CID  string `json:"cid"`
	Code string `json:"code"`
}

// handleLoginTOTP handles POST /auth/login/totp.
func (s *Server) handleLoginTOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[totpLoginRequest](w, r)
	if !ok {
		return
	}
	if req.CID == "" || req.Code == "" {
		writeError(w, http.StatusBadRequest, "Validation error", "cid and code are required")
		return
	}
	email, ok := s.challenges.get(req.CID, s.now())
	if !ok {
		writeUnauthorized(w, "Login session expired. Please restart the login flow.")
		return
	}
	user, err := s.store.UserByEmail(email)
	if err != nil || user.TOTPSecret == "" {
		writeUnauthorized(w, "Login session expired. Please restart the login flow.")
		return
	}
	if !verifyTOTPCode(user.TOTPSecret, req.Code, s.now()) {
		writeUnauthorized(w, "Invalid or expired TOTP code")
		return
	}
	s.challenges.delete(req.CID)
	s.issueSession(w, user)
}

// issueSession signs an access token for user and writes the login response.
func (s *Server) issueSession(w http.ResponseWriter, user *UserRecord) {
	token, _, err := s.signer.sign(user, s.now())
	if err != nil {
		s.log.Error("signing access token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to create session")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken": token,
		"user":        viewOf(user),
		"message":     "Login successful",
	})
}

// handleLogout handles POST /auth/logout by revoking the presented token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "No token found")
		return
	}
	if claims, err := s.signer.parse(bearerToken(r)); err == nil {
		s.revoked.revoke(claims.ID, claims.ExpiresAt.Time)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "User logged out"})
}

type totpSetupResponse struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
}

// handleTOTPSetup handles POST /auth/totp/setup. The secret stays pending
// until a code derived from it is verified.
func (s *Server) handleTOTPSetup(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "Bearer token is required")
		return
	}
	secret, err := generateTOTPSecret()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to generate TOTP secret")
		return
	}
	s.pendingTOTP.put(user.Email, secret, s.now().Add(totpSetupTTL))

	writeJSON(w, http.StatusOK, map[string]any{
		"totpSetup": totpSetupResponse{
			Secret:     secret,
			OtpauthURL: otpAuthURL(secret, user.Email),
		},
		"message": "TOTP secret generated",
	})
}

type totpCodeRequest struct {
	Code string `json:"code"`
}

// handleTOTPVerify handles POST /auth/totp/verify, confirming 2FA enablement.
func (s *Server) handleTOTPVerify(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "Bearer token is required")
		return
	}
	req, ok := decodeJSON[totpCodeRequest](w, r)
	if !ok {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Validation error", "code is required")
		return
	}
	secret, ok := s.pendingTOTP.get(user.Email, s.now())
	if !ok {
		writeError(w, http.StatusBadRequest, "Validation error", "TOTP setup expired; start setup again")
		return
	}
	if !verifyTOTPCode(secret, req.Code, s.now()) {
		writeError(w, http.StatusBadRequest, "Invalid TOTP code", "The provided code is incorrect or expired")
		return
	}

	user.TOTPEnabled = true
	user.TOTPSecret = secret
	if err := s.store.PutUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to enable TOTP")
		return
	}
	s.pendingTOTP.delete(user.Email)

	s.log.Info("totp enabled", slog.String("email", user.Email))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "TOTP verified successfully",
		"totpEnabled": true,
	})
}

// handleTOTPDisable handles POST /auth/totp/disable; requires a currently
// valid code.
func (s *Server) handleTOTPDisable(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "Bearer token is required")
		return
	}
	req, ok := decodeJSON[totpCodeRequest](w, r)
	if !ok {
		return
	}
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "Validation error", "code is required")
		return
	}
	if !user.TOTPEnabled {
		writeError(w, http.StatusBadRequest, "Validation error", "TOTP not enabled for this account")
		return
	}
	if !verifyTOTPCode(user.TOTPSecret, req.Code, s.now()) {
		writeError(w, http.StatusBadRequest, "Invalid TOTP code", "The provided code is incorrect or expired")
		return
	}

	user.TOTPEnabled = false
	user.TOTPSecret = ""
	if err := s.store.PutUser(user); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to disable TOTP")
		return
	}

	s.log.Info("totp disabled", slog.String("email", user.Email))
	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "TOTP disabled",
		"totpEnabled": false,
	})
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return ""
	}
	return strings.TrimSpace(auth[len(prefix):])
}
