package client

import "github.com/dath-251-thuanle/secureshare/session"

// LoginResultKind discriminates the two successful login outcomes. The
// discrimination happens once, inside Login, instead of every caller
// re-inspecting the response shape.
type LoginResultKind int

const (
	// LoginOutcomeUnknown marks a 2xx TOTP verification response that carried
	// no access token. Callers treat it as invalid credentials.
	LoginOutcomeUnknown LoginResultKind = iota
	// LoginSucceeded means the server issued an access token directly.
	LoginSucceeded
	// LoginTOTPRequired means the password was accepted but a TOTP challenge
	// must be answered before a token is issued.
	LoginTOTPRequired
)

// LoginResult is the tagged outcome of a login or TOTP-login call.
type LoginResult struct {
	Kind        LoginResultKind
	AccessToken string
	User        *session.User
	ChallengeID string
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type totpLoginRequest struct {
	CID  string `json:"cid"`
	Code string `json:"code"`
}

type loginResponse struct {
	AccessToken string        `json:"accessToken"`
	User        *session.User `json:"user"`
	RequireTOTP bool          `json:"requireTOTP"`
	CID         string        `json:"cid"`
	Message     string        `json:"message"`
}

// RegisterResponse is returned from POST /auth/register.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

// TOTPSetup holds the secret issued by POST /auth/totp/setup along with its
// otpauth provisioning URL.
type TOTPSetup struct {
	Secret     string `json:"secret"`
	OtpauthURL string `json:"otpauthUrl"`
}

// FileSummary is one row of the dashboard file table.
type FileSummary struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	ShareToken string `json:"shareToken"`
}

// FileCounts are the aggregate counts shown above the file table.
type FileCounts struct {
	ActiveFiles  int `json:"activeFiles"`
	PendingFiles int `json:"pendingFiles"`
	ExpiredFiles int `json:"expiredFiles"`
	DeletedFiles int `json:"deletedFiles"`
}

// UserProfile embeds the user record plus the file list and summary counts,
// as returned by GET /user.
type UserProfile struct {
	User    session.User  `json:"user"`
	Files   []FileSummary `json:"files"`
	Summary FileCounts    `json:"summary"`
}

// Pagination describes one page of a file listing.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalFiles  int `json:"totalFiles"`
	Limit       int `json:"limit"`
}

// FileList is returned from GET /files/my.
type FileList struct {
	Files      []FileSummary `json:"files"`
	Pagination Pagination    `json:"pagination"`
	Summary    FileCounts    `json:"summary"`
}

// AvailableFile is one publicly listed file.
type AvailableFile struct {
	FileID      string `json:"fileid"`
	FileName    string `json:"filename"`
	Owner       string `json:"owner"`
	HasPassword bool   `json:"haspassword"`
	ShareToken  string `json:"sharetoken"`
}

// AvailableList is returned from GET /files/available.
type AvailableList struct {
	Files      []AvailableFile `json:"files"`
	Pagination Pagination      `json:"pagination"`
}

// FileInfo is the public view of a shared file, keyed by share token.
type FileInfo struct {
	ID            string `json:"id"`
	FileName      string `json:"fileName"`
	ShareToken    string `json:"shareToken"`
	Status        string `json:"status"`
	IsPublic      bool   `json:"isPublic"`
	HasPassword   bool   `json:"hasPassword"`
	FileSize      int64  `json:"fileSize"`
	MimeType      string `json:"mimeType"`
	AvailableFrom string `json:"availableFrom"`
	AvailableTo   string `json:"availableTo"`
}

// UploadedFile is the file record returned from a successful upload.
type UploadedFile struct {
	ID            string `json:"id"`
	FileName      string `json:"filename"`
	Size          int64  `json:"size"`
	ShareToken    string `json:"shareToken"`
	ShareLink     string `json:"shareLink"`
	IsPublic      bool   `json:"isPublic"`
	AvailableFrom string `json:"availableFrom"`
	AvailableTo   string `json:"availableTo"`
	CreatedAt     string `json:"createdAt"`
}

// SystemPolicy is the admin-editable system policy object.
type SystemPolicy struct {
	ID                       int `json:"id"`
	MaxFileSizeMB            int `json:"maxFileSizeMB"`
	MinValidityHours         int `json:"minValidityHours"`
	MaxValidityDays          int `json:"maxValidityDays"`
	DefaultValidityDays      int `json:"defaultValidityDays"`
	RequirePasswordMinLength int `json:"requirePasswordMinLength"`
}

// SystemPolicyUpdate is a partial policy update; nil fields are left as-is by
// the server.
type SystemPolicyUpdate struct {
	MaxFileSizeMB            *int `json:"maxFileSizeMB,omitempty"`
	MinValidityHours         *int `json:"minValidityHours,omitempty"`
	MaxValidityDays          *int `json:"maxValidityDays,omitempty"`
	DefaultValidityDays      *int `json:"defaultValidityDays,omitempty"`
	RequirePasswordMinLength *int `json:"requirePasswordMinLength,omitempty"`
}

// CleanupResponse is returned from POST /admin/cleanup.
type CleanupResponse struct {
	Message      string `json:"message"`
	DeletedFiles int    `json:"deletedFiles"`
	Timestamp    string `json:"timestamp"`
}
