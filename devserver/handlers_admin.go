package devserver

import (
	"log/slog"
	"net/http"
	"time"
)

// handleGetPolicy handles GET /admin/policy. Reads are open so the upload
// form can show the current limits; only mutation requires the admin role.
func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := s.store.Policy()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to load policy")
		return
	}
	writeJSON(w, http.StatusOK, policy)
}

// policyUpdate is a partial update; absent fields keep their current value.
type policyUpdate struct {
	MaxFileSizeMB            *int `json:"maxFileSizeMB"`
	MinValidityHours         *int `json:"minValidityHours"`
	MaxValidityDays          *int `json:"maxValidityDays"`
	DefaultValidityDays      *int `json:"defaultValidityDays"`
	RequirePasswordMinLength *int `json:"requirePasswordMinLength"`
}

// handleUpdatePolicy handles PATCH /admin/policy and returns the canonical
// policy after the merge.
func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[policyUpdate](w, r)
	if !ok {
		return
	}
	policy, err := s.store.Policy()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to load policy")
		return
	}
	if req.MaxFileSizeMB != nil {
		policy.MaxFileSizeMB = *req.MaxFileSizeMB
	}
	if req.MinValidityHours != nil {
		policy.MinValidityHours = *req.MinValidityHours
	}
	if req.MaxValidityDays != nil {
		policy.MaxValidityDays = *req.MaxValidityDays
	}
	if req.DefaultValidityDays != nil {
		policy.DefaultValidityDays = *req.DefaultValidityDays
	}
	if req.RequirePasswordMinLength != nil {
		policy.RequirePasswordMinLength = *req.RequirePasswordMinLength
	}
	if err := s.store.PutPolicy(policy); err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "failed to save policy")
		return
	}

	s.log.Info("policy updated")
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Policy updated",
		"policy":  policy,
	})
}

// handleCleanup handles POST /admin/cleanup: an immediate purge of expired
// files, reporting what was removed.
func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	deleted, err := s.purgeExpired()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal error", "cleanup failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Expired files removed",
		"deletedFiles": deleted,
		"timestamp":    s.now().UTC().Format(time.RFC3339),
	})
}

// purgeExpired removes every file past its availability window and returns
// the number removed. Shared by the manual endpoint and the janitor.
func (s *Server) purgeExpired() (int, error) {
	files, err := s.store.Files()
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, f := range files {
		if s.fileStatus(f) != statusExpired {
			continue
		}
		if err := s.store.DeleteFile(f.ID); err != nil {
			s.log.Warn("purging expired file", slog.String("file", f.ID), slog.String("error", err.Error()))
			continue
		}
		deleted++
	}
	return deleted, nil
}
