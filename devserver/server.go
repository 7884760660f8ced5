// Package devserver implements the SecureShare backend surface the client
// talks to: password + TOTP login, file sharing with availability windows,
// and the admin policy/cleanup endpoints. It exists so the CLI and the test
// suite have a faithful in-process server to develop against.
package devserver

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
)

const challengeTTL = 5 * time.Minute

// Server holds the dependencies of the REST handlers.
type Server struct {
	store       Store
	signer      *tokenSigner
	revoked     *revocationList
	challenges  *challengeStore
	pendingTOTP *pendingSecrets
	log         *slog.Logger
	now         func() time.Time
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the structured logger. Defaults to JSON on stderr.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.log = logger }
}

// WithClock overrides the time source, letting tests move files through their
// availability windows.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithSigningKey pins the access-token signing key instead of generating a
// random one per process. The slice is wiped.
func WithSigningKey(secret []byte) Option {
	return func(s *Server) { s.signer = newTokenSigner(secret) }
}

// New creates a Server on top of store.
func New(store Store, opts ...Option) (*Server, error) {
	s := &Server{
		store:       store,
		revoked:     newRevocationList(),
		challenges:  newChallengeStore(),
		pendingTOTP: newPendingSecrets(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if s.signer == nil {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generating signing key: %w", err)
		}
		s.signer = newTokenSigner(secret)
	}
	return s, nil
}

// Router returns the API routes. Callers typically mount it under /api.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/login/totp", s.handleLoginTOTP)
	r.Post("/auth/logout", s.handleLogout)
	r.Post("/auth/totp/setup", s.handleTOTPSetup)
	r.Post("/auth/totp/verify", s.handleTOTPVerify)
	r.Post("/auth/totp/disable", s.handleTOTPDisable)

	r.Get("/user", s.handleProfile)

	r.Get("/files/my", s.handleMyFiles)
	r.Get("/files/available", s.handleAvailableFiles)
	r.Post("/files/upload", s.handleUpload)
	r.Get("/files/info/{fileID}", s.handleFileDetails)
	r.Delete("/files/info/{fileID}", s.handleDeleteFile)
	r.Get("/files/stats/{fileID}", s.handleFileStats)
	r.Get("/files/download-history/{fileID}", s.handleDownloadHistory)
	r.Get("/files/{shareToken}", s.handleFileInfo)
	r.Get("/files/{shareToken}/download", s.handleDownload)
	r.Get("/files/{shareToken}/preview", s.handlePreview)

	r.Route("/admin", func(r chi.Router) {
		r.Get("/policy", s.handleGetPolicy)
		r.With(s.requireAdmin).Patch("/policy", s.handleUpdatePolicy)
		r.With(s.requireAdmin).Post("/cleanup", s.handleCleanup)
	})

	return r
}

// currentUser resolves the bearer token to a user record, or nil when the
// request is unauthenticated, the token is invalid/revoked, or the account no
// longer exists.
func (s *Server) currentUser(r *http.Request) *UserRecord {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		return nil
	}
	claims, err := s.signer.parse(strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")))
	if err != nil {
		return nil
	}
	if s.revoked.isRevoked(claims.ID, s.now()) {
		return nil
	}
	user, err := s.store.UserByEmail(claims.Email)
	if err != nil {
		return nil
	}
	return user
}

// requireAdmin gates admin mutations behind the admin role.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil || user.Role != roleAdmin {
			writeError(w, http.StatusForbidden, "Forbidden", "You don't have permission to perform this action")
			return
		}
		next.ServeHTTP(w, r)
	})
}

const (
	roleUser  = "user"
	roleAdmin = "admin"
)

// userView is the serialized user shape shared by login and profile
// responses.
type userView struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	TOTPEnabled bool   `json:"totpEnabled"`
}

func viewOf(u *UserRecord) userView {
	return userView{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Role:        u.Role,
		TOTPEnabled: u.TOTPEnabled,
	}
}

// File availability states.
const (
	statusActive  = "active"
	statusPending = "pending"
	statusExpired = "expired"
)

// fileStatus derives a file's state from its availability window.
func (s *Server) fileStatus(f *FileRecord) string {
	now := s.now()
	if !f.AvailableFrom.IsZero() && now.Before(f.AvailableFrom) {
		return statusPending
	}
	if !f.AvailableTo.IsZero() && now.After(f.AvailableTo) {
		return statusExpired
	}
	return statusActive
}

// challengeStore holds password-verified login attempts awaiting their TOTP
// step. Challenges are ephemeral; they never touch the Store.
type challengeStore struct {
	mu   sync.Mutex
	data map[string]loginChallenge
}

type loginChallenge struct {
	Email     string
	ExpiresAt time.Time
}

func newChallengeStore() *challengeStore {
	return &challengeStore{data: make(map[string]loginChallenge)}
}

func (c *challengeStore) put(cid, email string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[cid] = loginChallenge{Email: email, ExpiresAt: expiresAt}
}

// get looks up a challenge. Expired entries are dropped on access; the
// caller deletes the challenge once it has been answered successfully.
func (c *challengeStore) get(cid string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.data[cid]
	if !ok {
		return "", false
	}
	if now.After(ch.ExpiresAt) {
		delete(c.data, cid)
		return "", false
	}
	return ch.Email, true
}

func (c *challengeStore) delete(cid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, cid)
}

// pendingSecrets tracks TOTP secrets issued by setup but not yet confirmed,
// keyed by account email. A fresh setup replaces a previous pending secret.
type pendingSecrets struct {
	mu   sync.Mutex
	data map[string]pendingSecret
}

type pendingSecret struct {
	Secret    string
	ExpiresAt time.Time
}

func newPendingSecrets() *pendingSecrets {
	return &pendingSecrets{data: make(map[string]pendingSecret)}
}

func (p *pendingSecrets) put(email, secret string, expiresAt time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.data[email] = pendingSecret{Secret: secret, ExpiresAt: expiresAt}
}

func (p *pendingSecrets) get(email string, now time.Time) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	ps, ok := p.data[email]
	if !ok {
		return "", false
	}
	if now.After(ps.ExpiresAt) {
		delete(p.data, email)
		return "", false
	}
	return ps.Secret, true
}

func (p *pendingSecrets) delete(email string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.data, email)
}
