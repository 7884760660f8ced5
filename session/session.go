// Package session holds the client-side proof of authentication: an access
// token, the current user record, and the id of an in-flight login challenge
// awaiting its TOTP step. The three values live under independent keys in a
// Store; no atomicity across them is provided or needed.
package session

import "encoding/json"

const (
	accessTokenKey = "access_token"
	userKey        = "user"
	challengeKey   = "login_cid"
)

// RoleAdmin is the role value that unlocks the admin surface.
const RoleAdmin = "admin"

// User mirrors the server's user record as returned by login and profile
// endpoints.
type User struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	TOTPEnabled bool   `json:"totpEnabled"`
}

// Store is the persistence boundary for session state. Implementations must
// be safe to call unconditionally: a store without a usable backing location
// degrades to no-ops rather than failing.
type Store interface {
	// Get returns the stored value for key, or "" when absent.
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

// Session provides typed access to the three session keys.
type Session struct {
	store Store
}

func New(store Store) *Session {
	return &Session{store: store}
}

func (s *Session) AccessToken() string {
	return s.store.Get(accessTokenKey)
}

func (s *Session) SetAccessToken(token string) {
	s.store.Set(accessTokenKey, token)
}

// CurrentUser returns the stored user record. A missing or corrupt record is
// treated as absent, never as an error.
func (s *Session) CurrentUser() *User {
	raw := s.store.Get(userKey)
	if raw == "" {
		return nil
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil
	}
	return &u
}

func (s *Session) SetCurrentUser(u *User) {
	raw, err := json.Marshal(u)
	if err != nil {
		return
	}
	s.store.Set(userKey, string(raw))
}

func (s *Session) LoginChallengeID() string {
	return s.store.Get(challengeKey)
}

func (s *Session) SetLoginChallengeID(cid string) {
	s.store.Set(challengeKey, cid)
}

// ClearLoginChallengeID removes only the challenge id. Token and user are
// left untouched so an abandoned mid-login challenge does not log the user
// out of an existing session.
func (s *Session) ClearLoginChallengeID() {
	s.store.Delete(challengeKey)
}

// ClearAuth removes the token, the user record and any outstanding challenge.
func (s *Session) ClearAuth() {
	s.store.Delete(accessTokenKey)
	s.store.Delete(userKey)
	s.store.Delete(challengeKey)
}

// LoggedIn reports whether an access token is present.
func (s *Session) LoggedIn() bool {
	return s.AccessToken() != ""
}

func (s *Session) IsAdmin() bool {
	u := s.CurrentUser()
	return u != nil && u.Role == RoleAdmin
}
