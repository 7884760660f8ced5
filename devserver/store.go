package devserver

import (
	"errors"
	"time"
)

// ErrNotFound is returned by lookups for records that do not exist.
var ErrNotFound = errors.New("record not found")

// UserRecord is a stored account.
type UserRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	TOTPEnabled  bool      `json:"totp_enabled"`
	TOTPSecret   string    `json:"totp_secret,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FileRecord is a stored shared file together with its sharing rules.
// PasswordHash empty means the file is not password protected.
type FileRecord struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	Size          int64     `json:"size"`
	MimeType      string    `json:"mime_type"`
	ShareToken    string    `json:"share_token"`
	OwnerEmail    string    `json:"owner_email"`
	IsPublic      bool      `json:"is_public"`
	PasswordHash  string    `json:"password_hash,omitempty"`
	AvailableFrom time.Time `json:"available_from"`
	AvailableTo   time.Time `json:"available_to"`
	SharedWith    []string  `json:"shared_with,omitempty"`
	ShareLink     string    `json:"share_link"`
	Content       []byte    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`

	// Download statistics. UniqueDownloaders holds the distinct emails of
	// authenticated downloaders; anonymous downloads only bump the count.
	DownloadCount     int             `json:"download_count"`
	LastDownloadedAt  time.Time       `json:"last_downloaded_at,omitzero"`
	UniqueDownloaders []string        `json:"unique_downloaders,omitempty"`
	History           []DownloadEvent `json:"history,omitempty"`
}

// DownloadEvent is one completed download of a file, newest first in
// FileRecord.History. DownloaderUsername and DownloaderEmail are empty for
// anonymous downloads.
type DownloadEvent struct {
	ID                 string    `json:"id"`
	DownloaderUsername string    `json:"downloader_username,omitempty"`
	DownloaderEmail    string    `json:"downloader_email,omitempty"`
	DownloadedAt       time.Time `json:"downloaded_at"`
}

// PolicyRecord is the single system policy object.
type PolicyRecord struct {
	ID                       int `json:"id"`
	MaxFileSizeMB            int `json:"maxFileSizeMB"`
	MinValidityHours         int `json:"minValidityHours"`
	MaxValidityDays          int `json:"maxValidityDays"`
	DefaultValidityDays      int `json:"defaultValidityDays"`
	RequirePasswordMinLength int `json:"requirePasswordMinLength"`
}

// defaultPolicy matches the values the system boots with before an admin
// edits anything.
func defaultPolicy() *PolicyRecord {
	return &PolicyRecord{
		ID:                       1,
		MaxFileSizeMB:            50,
		MinValidityHours:         1,
		MaxValidityDays:          30,
		DefaultValidityDays:      7,
		RequirePasswordMinLength: 6,
	}
}

// Store abstracts dev server persistence so tests run in memory and the
// server command runs on bbolt.
type Store interface {
	UserByEmail(email string) (*UserRecord, error)
	UserByUsername(username string) (*UserRecord, error)
	PutUser(u *UserRecord) error

	FileByID(id string) (*FileRecord, error)
	FileByShareToken(token string) (*FileRecord, error)
	Files() ([]*FileRecord, error)
	PutFile(f *FileRecord) error
	DeleteFile(id string) error

	Policy() (*PolicyRecord, error)
	PutPolicy(p *PolicyRecord) error

	Close() error
}
