package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/models"
)

// maxBodyBytes bounds JSON request bodies. Entry content is markdown text.
const maxBodyBytes = 1 << 20

// MessageResponse is the envelope every JSON answer shares.
type MessageResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Success: status < 400, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// writeServiceError maps service errors onto status codes. Unexpected errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, MessageResponse{
			Success: false,
			Message: "Validation failed",
			Errors:  verr.Fields,
		})
	case errors.Is(err, models.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, models.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "You do not have access to this entry")
	case errors.Is(err, models.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Entry not found")
	default:
		log.Error().Stack().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// APINotFound answers unknown API paths with JSON instead of a page.
func APINotFound(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusNotFound, "Not found")
}

func APIMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
}
