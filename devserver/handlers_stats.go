package devserver

import (
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 50

// ownedFile loads a file by ID and enforces the owner-or-admin rule shared
// by the detailed info, statistics and history endpoints. On failure it
// writes the error response and returns nil.
func (s *Server) ownedFile(w http.ResponseWriter, r *http.Request) *FileRecord {
	user := s.currentUser(r)
	if user == nil {
		writeUnauthorized(w, "Unauthorized")
		return nil
	}
	file, err := s.store.FileByID(chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Not found", "File not found")
		return nil
	}
	if file.OwnerEmail != user.Email && user.Role != roleAdmin {
		writeError(w, http.StatusForbidden, "Forbidden", "You may only view your own files")
		return nil
	}
	return file
}

// handleFileDetails handles GET /files/info/{fileID}: the owner's detailed
// view of a file, including its remaining availability.
func (s *Server) handleFileDetails(w http.ResponseWriter, r *http.Request) {
	file := s.ownedFile(w, r)
	if file == nil {
		return
	}
	hoursRemaining := file.AvailableTo.Sub(s.now().UTC()).Hours()
	if hoursRemaining < 0 {
		hoursRemaining = 0
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file": map[string]any{
			"id":             file.ID,
			"fileName":       file.FileName,
			"fileSize":       file.Size,
			"mimeType":       file.MimeType,
			"shareToken":     file.ShareToken,
			"shareLink":      file.ShareLink,
			"status":         s.fileStatus(file),
			"isPublic":       file.IsPublic,
			"hasPassword":    file.PasswordHash != "",
			"sharedWith":     file.SharedWith,
			"availableFrom":  file.AvailableFrom.Format(time.RFC3339),
			"availableTo":    file.AvailableTo.Format(time.RFC3339),
			"createdAt":      file.CreatedAt.Format(time.RFC3339),
			"downloadCount":  file.DownloadCount,
			"hoursRemaining": math.Round(hoursRemaining*10) / 10,
		},
	})
}

// handleFileStats handles GET /files/stats/{fileID}. Anonymous uploads keep
// no statistics, so they report not found.
func (s *Server) handleFileStats(w http.ResponseWriter, r *http.Request) {
	file := s.ownedFile(w, r)
	if file == nil {
		return
	}
	if file.OwnerEmail == "" {
		writeError(w, http.StatusNotFound, "Not found", "Statistics not available for anonymous uploads")
		return
	}
	stats := map[string]any{
		"downloadCount":     file.DownloadCount,
		"uniqueDownloaders": len(file.UniqueDownloaders),
		"lastDownloadedAt":  nil,
		"createdAt":         file.CreatedAt.Format(time.RFC3339),
	}
	if !file.LastDownloadedAt.IsZero() {
		stats["lastDownloadedAt"] = file.LastDownloadedAt.Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fileId":     file.ID,
		"fileName":   file.FileName,
		"statistics": stats,
	})
}

// handleDownloadHistory handles GET /files/download-history/{fileID}:
// completed downloads, newest first, paginated.
func (s *Server) handleDownloadHistory(w http.ResponseWriter, r *http.Request) {
	file := s.ownedFile(w, r)
	if file == nil {
		return
	}
	type historyView struct {
		ID                string         `json:"id"`
		Downloader        map[string]any `json:"downloader"`
		DownloadedAt      string         `json:"downloadedAt"`
		DownloadCompleted bool           `json:"downloadCompleted"`
	}
	views := make([]historyView, 0, len(file.History))
	for _, e := range file.History {
		v := historyView{
			ID:                e.ID,
			DownloadedAt:      e.DownloadedAt.Format(time.RFC3339),
			DownloadCompleted: true,
		}
		if e.DownloaderEmail != "" {
			v.Downloader = map[string]any{
				"username": e.DownloaderUsername,
				"email":    e.DownloaderEmail,
			}
		}
		views = append(views, v)
	}

	q := r.URL.Query()
	page, limit := pageParams(q.Get("page"), q.Get("limit"), defaultHistoryLimit)
	paged, pg := paginate(views, page, limit)
	writeJSON(w, http.StatusOK, map[string]any{
		"fileId":   file.ID,
		"fileName": file.FileName,
		"history":  paged,
		"pagination": map[string]int{
			"currentPage":  pg.CurrentPage,
			"totalPages":   pg.TotalPages,
			"totalRecords": pg.TotalFiles,
			"limit":        pg.Limit,
		},
	})
}
