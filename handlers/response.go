package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"daybook/middleware"
	"daybook/models"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the models error taxonomy onto HTTP statuses. Store
// failures are logged and answered without internal detail.
func writeDomainError(w http.ResponseWriter, logger *log.Logger, message string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, models.ErrStaleReference):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusNotFound, message, err)
	default:
		logger.Error(message, "err", err)
		writeError(w, http.StatusInternalServerError, message, nil)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

func requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || identity.UserID == "" {
		writeError(w, http.StatusUnauthorized, "Authentication required", nil)
		return "", false
	}
	return identity.UserID, true
}
