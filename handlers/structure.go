package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"daybook/models"
	"daybook/structure"
)

type StructureHandler struct {
	registry *structure.Registry
	logger   *log.Logger
}

func NewStructureHandler(registry *structure.Registry, logger *log.Logger) *StructureHandler {
	return &StructureHandler{registry: registry, logger: logger}
}

// SaveStructureRequest is the body of POST /structure.
type SaveStructureRequest struct {
	Groups          []models.Group `json:"groups"`
	DeletedElements []string       `json:"deletedElements,omitempty"`
	CurrentDate     string         `json:"currentDate"`
}

// Save creates, updates or forks the caller's structure.
func (h *StructureHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SaveStructureRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Groups == nil || req.CurrentDate == "" {
		writeError(w, http.StatusBadRequest, "groups and currentDate are required", nil)
		return
	}

	version, err := h.registry.Save(r.Context(), userID, req.Groups, req.DeletedElements, req.CurrentDate)
	if err != nil {
		writeDomainError(w, h.logger, "Failed to save structure", err)
		return
	}

	h.logger.Info("saved structure", "user", userID, "structure", version.StructureID,
		"effectiveFrom", version.EffectiveFrom, "deletions", structure.HasDeletions(req.DeletedElements))
	writeJSON(w, http.StatusOK, version)
}

// Active returns the caller's active structure.
func (h *StructureHandler) Active(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	version, err := h.registry.Active(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, "No structure found", err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// ForDate returns the structure governing the {date} path parameter.
func (h *StructureHandler) ForDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	version, err := h.registry.ForDate(r.Context(), userID, chi.URLParam(r, "date"))
	if err != nil {
		writeDomainError(w, h.logger, "No structure found", err)
		return
	}
	writeJSON(w, http.StatusOK, version)
}

// Versions lists every structure version of the caller.
func (h *StructureHandler) Versions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	versions, err := h.registry.Versions(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, "Failed to list structure versions", err)
		return
	}
	writeJSON(w, http.StatusOK, versions)
}
