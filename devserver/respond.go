package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

const maxBodySize = 1 << 20

// errorBody is the error shape the web client's message extraction expects:
// a short machine-ish "error" plus a human "message".
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorBody{Error: code, Message: msg})
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusUnauthorized, "Unauthorized", msg)
}

// decodeJSON decodes a JSON request body into T, writing a 400 and returning
// ok=false on malformed input. An empty body decodes to the zero value, which
// lets handlers do their own field-presence validation.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, true
		}
		writeError(w, http.StatusBadRequest, "Validation error", "invalid JSON body")
		return v, false
	}
	return v, true
}
