package devserver

import (
	"fmt"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const accessTokenTTL = 24 * time.Hour

// accessClaims is the payload of an issued access token.
type accessClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// tokenSigner issues and verifies HS256 access tokens. The signing key lives
// in a memguard enclave and is only held in plain memory for the duration of
// a sign or verify call.
type tokenSigner struct {
	key *memguard.Enclave
}

func newTokenSigner(secret []byte) *tokenSigner {
	// NewEnclave wipes the source slice.
	return &tokenSigner{key: memguard.NewEnclave(secret)}
}

func (s *tokenSigner) sign(u *UserRecord, now time.Time) (token, jti string, err error) {
	buf, err := s.key.Open()
	if err != nil {
		return "", "", fmt.Errorf("opening signing key: %w", err)
	}
	defer buf.Destroy()

	jti = uuid.NewString()
	claims := accessClaims{
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(buf.Bytes())
	if err != nil {
		return "", "", fmt.Errorf("signing token: %w", err)
	}
	return signed, jti, nil
}

func (s *tokenSigner) parse(raw string) (*accessClaims, error) {
	buf, err := s.key.Open()
	if err != nil {
		return nil, fmt.Errorf("opening signing key: %w", err)
	}
	defer buf.Destroy()

	// The verification key must outlive the parse call below, so copy it out
	// of the locked buffer before destroying it.
	key := make([]byte, len(buf.Bytes()))
	copy(key, buf.Bytes())

	token, err := jwt.ParseWithClaims(raw, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*accessClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// revocationList tracks the jti of tokens invalidated by logout until their
// natural expiry.
type revocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newRevocationList() *revocationList {
	return &revocationList{revoked: make(map[string]time.Time)}
}

func (l *revocationList) revoke(jti string, expiresAt time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = expiresAt
}

func (l *revocationList) isRevoked(jti string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	expiresAt, ok := l.revoked[jti]
	if !ok {
		return false
	}
	if now.After(expiresAt) {
		// The token itself has expired; no need to remember it any longer.
		delete(l.revoked, jti)
		return false
	}
	return true
}
