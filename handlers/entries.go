package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"daybook/entries"
	"daybook/models"
	"daybook/structure"
)

type EntryHandler struct {
	entries    *entries.Store
	structures *structure.Registry
	logger     *log.Logger
}

func NewEntryHandler(store *entries.Store, structures *structure.Registry, logger *log.Logger) *EntryHandler {
	return &EntryHandler{entries: store, structures: structures, logger: logger}
}

// SaveEntryRequest is the body of POST /entries.
type SaveEntryRequest struct {
	Date   string              `json:"date"`
	Values []models.FieldValue `json:"values"`
}

// DateRequest is the body of POST /entries/quick-fill.
type DateRequest struct {
	Date string `json:"date"`
}

// EntryResponse is an entry plus whether it exists in the store yet.
type EntryResponse struct {
	*models.JournalEntry
	IsNew bool `json:"isNew"`
}

// FirstEntryDateResponse carries a null date when the journal is empty.
type FirstEntryDateResponse struct {
	Date *string `json:"date"`
}

// Save records the values of one day.
func (h *EntryHandler) Save(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SaveEntryRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Date == "" || req.Values == nil {
		writeError(w, http.StatusBadRequest, "date and values are required", nil)
		return
	}
	if _, err := models.ParseDate(req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}

	version, err := h.structures.ForDate(r.Context(), userID, req.Date)
	if err != nil {
		writeDomainError(w, h.logger, "Create a structure before recording entries", err)
		return
	}

	entry, err := h.entries.Save(r.Context(), userID, req.Date, req.Values, version.StructureID)
	if err != nil {
		writeDomainError(w, h.logger, "Failed to save entry", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Get returns the entry for {date}, or an empty template.
func (h *EntryHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	entry, isNew, err := h.entries.GetOrCreate(r.Context(), userID, chi.URLParam(r, "date"))
	if err != nil {
		writeDomainError(w, h.logger, "Failed to load entry", err)
		return
	}
	writeJSON(w, http.StatusOK, EntryResponse{JournalEntry: entry, IsNew: isNew})
}

// FirstEntryDate returns the date of the caller's earliest entry.
func (h *EntryHandler) FirstEntryDate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	date, found, err := h.entries.FirstEntryDate(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, "Failed to find first entry", err)
		return
	}
	resp := FirstEntryDateResponse{}
	if found {
		resp.Date = &date
	}
	writeJSON(w, http.StatusOK, resp)
}

// QuickFill copies yesterday's values into the requested date.
func (h *EntryHandler) QuickFill(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req DateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Date == "" {
		writeError(w, http.StatusBadRequest, "date is required", nil)
		return
	}

	entry, err := h.entries.QuickFill(r.Context(), userID, req.Date)
	if err != nil {
		writeDomainError(w, h.logger, "Failed to quick-fill entry", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
