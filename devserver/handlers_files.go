package devserver

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/segmentio/ksuid"
)

const defaultPageLimit = 20

// fileView is one row of a file listing.
type fileView struct {
	ID         string `json:"id"`
	FileName   string `json:"fileName"`
	Status     string `json:"status"`
	CreatedAt  string `json:"createdAt"`
	ShareToken string `json:"shareToken"`
}

type fileCounts struct {
	ActiveFiles  int `json:"activeFiles"`
	PendingFiles int `json:"pendingFiles"`
	ExpiredFiles int `json:"expiredFiles"`
	DeletedFiles int `json:"deletedFiles"`
}

type pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	TotalFiles  int `json:"totalFiles"`
	Limit       int `json:"limit"`
}

// handleProfile handles GET /user: the user record plus the file list and
// summary the dashboard renders.
func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "Unauthorized")
		return
	}
	files, summary, err := s.userFiles(user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":    viewOf(user),
		"files":   files,
		"summary": summary,
	})
}

// userFiles returns all of a user's files as views (newest first) plus the
// per-status counts.
func (s *Server) userFiles(email string) ([]fileView, fileCounts, error) {
	all, err := s.store.Files()
	if err != nil {
		return nil, fileCounts{}, err
	}
	var owned []*FileRecord
	for _, f := range all {
		if f.OwnerEmail == email {
			owned = append(owned, f)
		}
	}
	sort.Slice(owned, func(i, j int) bool { return owned[i].CreatedAt.After(owned[j].CreatedAt) })

	views := make([]fileView, 0, len(owned))
	var counts fileCounts
	for _, f := range owned {
		status := s.fileStatus(f)
		switch status {
		case statusActive:
			counts.ActiveFiles++
		case statusPending:
			counts.PendingFiles++
		case statusExpired:
			counts.ExpiredFiles++
		}
		views = append(views, fileView{
			ID:         f.ID,
			FileName:   f.FileName,
			Status:     status,
			CreatedAt:  f.CreatedAt.UTC().Format(time.RFC3339),
			ShareToken: f.ShareToken,
		})
	}
	return views, counts, nil
}

// handleMyFiles handles GET /files/my with status filter, sorting and
// pagination. The summary counts always cover the full (unfiltered) set.
func (s *Server) handleMyFiles(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "Unauthorized")
		return
	}
	views, counts, err := s.userFiles(user.Email)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to list files")
		return
	}

	q := r.URL.Query()
	if status := q.Get("status"); status != "" && status != "all" {
		filtered := views[:0]
		for _, v := range views {
			if v.Status == status {
				filtered = append(filtered, v)
			}
		}
		views = filtered
	}
	// Default order is descending on the chosen sort key.
	asc := q.Get("order") == "asc"
	if q.Get("sortBy") == "fileName" {
		sort.SliceStable(views, func(i, j int) bool {
			return strings.ToLower(views[i].FileName) < strings.ToLower(views[j].FileName)
		})
		if !asc {
			slices.Reverse(views)
		}
	} else if asc {
		// userFiles returns newest first; ascending wants oldest first.
		slices.Reverse(views)
	}

	page, limit := pageParams(q.Get("page"), q.Get("limit"), defaultPageLimit)
	paged, pg := paginate(views, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"files":      paged,
		"pagination": pg,
		"summary":    counts,
	})
}

// handleAvailableFiles handles GET /files/available: all currently active
// files, newest first.
func (s *Server) handleAvailableFiles(w http.ResponseWriter, r *http.Request) {
	all, err := s.store.Files()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to list files")
		return
	}
	var active []*FileRecord
	for _, f := range all {
		if s.fileStatus(f) == statusActive {
			active = append(active, f)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].CreatedAt.After(active[j].CreatedAt) })

	type availableView struct {
		FileID      string `json:"fileid"`
		FileName    string `json:"filename"`
		Owner       string `json:"owner"`
		HasPassword bool   `json:"haspassword"`
		ShareToken  string `json:"sharetoken"`
	}
	views := make([]availableView, 0, len(active))
	for _, f := range active {
		views = append(views, availableView{
			FileID:      f.ID,
			FileName:    f.FileName,
			Owner:       f.OwnerEmail,
			HasPassword: f.PasswordHash != "",
			ShareToken:  f.ShareToken,
		})
	}

	page, limit := pageParams(r.URL.Query().Get("page"), r.URL.Query().Get("limit"), 10)
	paged, pg := paginate(views, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"files":      paged,
		"pagination": pg,
	})
}

// handleUpload handles POST /files/upload. Size, password and validity
// window are validated against the current system policy.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	policy, err := s.store.Policy()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to load policy")
		return
	}

	maxBytes := int64(policy.MaxFileSizeMB) * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+maxBodySize)
	if err := r.ParseMultipartForm(maxBodySize); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Payload too large", "File size exceeds the system limit")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation error", "File is required")
		return
	}
	defer part.Close()
	content, err := io.ReadAll(io.LimitReader(part, maxBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation error", "failed to read file")
		return
	}
	if int64(len(content)) > maxBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "Payload too large", "File size exceeds the system limit")
		return
	}

	isPublic := parseBool(r.FormValue("isPublic"))
	sharedWith := r.MultipartForm.Value["sharedWith"]
	if !isPublic && user == nil {
		writeUnauthorized(w, "Private uploads require authentication")
		return
	}

	password := r.FormValue("password")
	if password != "" && len(password) < policy.RequirePasswordMinLength {
		writeError(w, http.StatusBadRequest, "Validation error", "Password too short")
		return
	}
	var passwordHash string
	if password != "" {
		if passwordHash, err = hashPassword(password); err != nil {
			writeError(w, http.StatusInternalServerError, "Internal error", "failed to protect file")
			return
		}
	}

	from, to, err := s.validityWindow(r.FormValue("availableFrom"), r.FormValue("availableTo"), policy)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation error", err.Error())
		return
	}

	name := filepath.Base(header.Filename)
	if name == "" || name == "." || name == "/" {
		name = "upload-" + uuid.NewString()
	}
	ownerEmail := ""
	if user != nil {
		ownerEmail = user.Email
	}

	file := &FileRecord{
		ID:            uuid.NewString(),
		FileName:      name,
		Size:          int64(len(content)),
		MimeType:      "application/octet-stream",
		ShareToken:    ksuid.New().String(),
		OwnerEmail:    ownerEmail,
		IsPublic:      isPublic,
		PasswordHash:  passwordHash,
		AvailableFrom: from,
		AvailableTo:   to,
		SharedWith:    sharedWith,
		Content:       content,
		CreatedAt:     s.now().UTC(),
	}
	file.ShareLink = "/f/" + file.ShareToken
	if err := s.store.PutFile(file); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to store file")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "File uploaded successfully",
		"file": map[string]any{
			"id":            file.ID,
			"filename":      file.FileName,
			"size":          file.Size,
			"mimeType":      file.MimeType,
			"shareToken":    file.ShareToken,
			"shareLink":     file.ShareLink,
			"isPublic":      file.IsPublic,
			"availableFrom": file.AvailableFrom.Format(time.RFC3339),
			"availableTo":   file.AvailableTo.Format(time.RFC3339),
			"createdAt":     file.CreatedAt.Format(time.RFC3339),
		},
	})
}

// validityWindow resolves the availability window from the upload form,
// applying policy defaults and bounds.
func (s *Server) validityWindow(fromRaw, toRaw string, policy *PolicyRecord) (time.Time, time.Time, error) {
	now := s.now().UTC()
	from := now
	if fromRaw != "" {
		parsed, err := time.Parse(time.RFC3339, fromRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("Invalid datetime format, use ISO format")
		}
		from = parsed.UTC()
	}
	to := from.AddDate(0, 0, policy.DefaultValidityDays)
	if toRaw != "" {
		parsed, err := time.Parse(time.RFC3339, toRaw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("Invalid datetime format, use ISO format")
		}
		to = parsed.UTC()
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, fmt.Errorf("availableFrom must be before availableTo")
	}
	if to.Sub(from) < time.Duration(policy.MinValidityHours)*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("validity window shorter than the policy minimum")
	}
	if to.Sub(from) > time.Duration(policy.MaxValidityDays)*24*time.Hour {
		return time.Time{}, time.Time{}, fmt.Errorf("validity window longer than the policy maximum")
	}
	return from, to, nil
}

// handleFileInfo handles GET /files/{shareToken}: the public metadata view.
func (s *Server) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	file, err := s.store.FileByShareToken(chi.URLParam(r, "shareToken"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found", "File not found")
		return
	}
	status := s.fileStatus(file)
	if status == statusExpired {
		writeError(w, http.StatusGone, "File expired", "File has expired")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file": map[string]any{
			"id":            file.ID,
			"fileName":      file.FileName,
			"shareToken":    file.ShareToken,
			"status":        status,
			"isPublic":      file.IsPublic,
			"hasPassword":   file.PasswordHash != "",
			"fileSize":      file.Size,
			"mimeType":      file.MimeType,
			"availableFrom": file.AvailableFrom.Format(time.RFC3339),
			"availableTo":   file.AvailableTo.Format(time.RFC3339),
		},
	})
}

// handleDownload handles GET /files/{shareToken}/download, enforcing the
// window, visibility and password rules before streaming content.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	file, err := s.store.FileByShareToken(chi.URLParam(r, "shareToken"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found", "File not found")
		return
	}
	user := s.currentUser(r)
	if !s.authorizeDownload(w, file, user, r.Header.Get("X-File-Password")) {
		return
	}

	s.recordDownload(file, user)
	if err := s.store.PutFile(file); err != nil {
		s.log.Warn("recording download", "file", file.ID, "error", err)
	}

	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

// recordDownload updates the file's statistics and prepends a history entry.
// Only authenticated downloaders count toward UniqueDownloaders.
func (s *Server) recordDownload(file *FileRecord, user *UserRecord) {
	now := s.now().UTC()
	file.DownloadCount++
	file.LastDownloadedAt = now
	event := DownloadEvent{
		ID:           uuid.NewString(),
		DownloadedAt: now,
	}
	if user != nil {
		event.DownloaderUsername = user.Username
		event.DownloaderEmail = user.Email
		if !slices.Contains(file.UniqueDownloaders, user.Email) {
			file.UniqueDownloaders = append(file.UniqueDownloaders, user.Email)
		}
	}
	file.History = append([]DownloadEvent{event}, file.History...)
}

// handlePreview handles GET /files/{shareToken}/preview: the same access
// rules as a download, but the content is served inline and no download is
// recorded.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	file, err := s.store.FileByShareToken(chi.URLParam(r, "shareToken"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found", "File not found")
		return
	}
	user := s.currentUser(r)
	if !s.authorizeDownload(w, file, user, r.Header.Get("X-File-Password")) {
		return
	}
	w.Header().Set("Content-Type", file.MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.FileName))
	w.Header().Set("Content-Length", strconv.FormatInt(file.Size, 10))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Content)
}

// authorizeDownload applies the access rules. Expired beats everything;
// pending is only visible to the owner; a shared list restricts a private
// file beyond the owner; the password check comes last.
func (s *Server) authorizeDownload(w http.ResponseWriter, file *FileRecord, user *UserRecord, password string) bool {
	status := s.fileStatus(file)
	isOwner := user != nil && user.Email == file.OwnerEmail

	if status == statusExpired {
		writeError(w, http.StatusGone, "File expired", "File has expired")
		return false
	}
	if status == statusPending && !isOwner {
		writeError(w, http.StatusLocked, "File not yet available", "File not yet available")
		return false
	}
	if !file.IsPublic || len(file.SharedWith) > 0 {
		if user == nil {
			writeUnauthorized(w, "Authentication required for private file")
			return false
		}
		if len(file.SharedWith) > 0 {
			if !isOwner && !slices.Contains(file.SharedWith, user.Email) {
				writeError(w, http.StatusForbidden, "Access denied", "You are not in the shared list")
				return false
			}
		} else if !isOwner {
			writeError(w, http.StatusForbidden, "Access denied", "Private file")
			return false
		}
	}
	if file.PasswordHash != "" {
		if password == "" {
			writeError(w, http.StatusForbidden, "Password required", "This file is password-protected. Please provide the password")
			return false
		}
		if !verifyPassword(password, file.PasswordHash) {
			writeError(w, http.StatusForbidden, "Incorrect password", "The file password is incorrect")
			return false
		}
	}
	return true
}

// handleDeleteFile handles DELETE /files/info/{fileID}. Owners may delete
// their own files; admins may delete any.
func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "Unauthorized")
		return
	}
	fileID := chi.URLParam(r, "fileID")
	file, err := s.store.FileByID(fileID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found", "File not found")
		return
	}
	if file.OwnerEmail != user.Email && user.Role != roleAdmin {
		writeError(w, http.StatusForbidden, "Forbidden", "You may only delete your own files")
		return
	}
	if err := s.store.DeleteFile(fileID); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to delete file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "File deleted successfully",
		"fileId":  fileID,
	})
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func pageParams(pageRaw, limitRaw string, defaultLimit int) (int, int) {
	page, _ := strconv.Atoi(pageRaw)
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(limitRaw)
	if limit < 1 {
		limit = defaultLimit
	}
	return page, limit
}

// paginate slices one page out of items.
func paginate[T any](items []T, page, limit int) ([]T, pagination) {
	total := len(items)
	totalPages := (total + limit - 1) / limit
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalFiles:  total,
		Limit:       limit,
	}
}
