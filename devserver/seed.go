package devserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SeedAdmin ensures an admin account exists. An existing user with the same
// email is promoted; otherwise a fresh account is created with the given
// password. Used by the dev server at startup so a freshly created store is
// immediately administerable.
func SeedAdmin(store Store, username, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("admin email and password are required")
	}

	existing, err := store.UserByEmail(email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		if existing.Role == roleAdmin {
			return nil
		}
		existing.Role = roleAdmin
		return store.PutUser(existing)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if username == "" {
		username = "admin"
	}
	return store.PutUser(&UserRecord{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         roleAdmin,
		CreatedAt:    time.Now().UTC(),
	})
}
