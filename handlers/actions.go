package handlers

import (
	"net/http"

	"github.com/charmbracelet/log"

	"daybook/actions"
	"daybook/models"
)

type ActionHandler struct {
	engine *actions.Engine
	logger *log.Logger
}

func NewActionHandler(engine *actions.Engine, logger *log.Logger) *ActionHandler {
	return &ActionHandler{engine: engine, logger: logger}
}

type AddActionRequest struct {
	Name          string                `json:"name"`
	Description   string                `json:"description"`
	FieldID       string                `json:"fieldId"`
	Options       []models.ActionOption `json:"options"`
	IsDailyAction bool                  `json:"isDailyAction"`
}

type ActionIDRequest struct {
	ActionID string `json:"actionId"`
}

type RegisterActionRequest struct {
	ActionID string `json:"actionId"`
	Value    any    `json:"value"`
}

type ReorderActionsRequest struct {
	ActionIDs []string `json:"actionIds"`
}

// List returns the caller's usable actions.
func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	list, err := h.engine.List(r.Context(), userID)
	if err != nil {
		writeDomainError(w, h.logger, "Failed to load actions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *ActionHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AddActionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	action, err := h.engine.Add(r.Context(), userID, actions.NewAction{
		Name:          req.Name,
		Description:   req.Description,
		FieldID:       req.FieldID,
		Options:       req.Options,
		IsDailyAction: req.IsDailyAction,
	})
	if err != nil {
		writeDomainError(w, h.logger, "Failed to add action", err)
		return
	}
	writeJSON(w, http.StatusCreated, action)
}

func (h *ActionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ActionIDRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ActionID == "" {
		writeError(w, http.StatusBadRequest, "actionId is required", nil)
		return
	}

	if err := h.engine.Remove(r.Context(), userID, req.ActionID); err != nil {
		writeDomainError(w, h.logger, "Failed to remove action", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Action removed"})
}

// Register applies one tap of an action to today's entry.
func (h *ActionHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req RegisterActionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.ActionID == "" {
		writeError(w, http.StatusBadRequest, "actionId is required", nil)
		return
	}

	entry, err := h.engine.Register(r.Context(), userID, actions.Registration{
		ActionID: req.ActionID,
		Value:    req.Value,
	})
	if err != nil {
		writeDomainError(w, h.logger, "Failed to register action", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *ActionHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ReorderActionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.ActionIDs) == 0 {
		writeError(w, http.StatusBadRequest, "actionIds is required", nil)
		return
	}

	list, err := h.engine.Reorder(r.Context(), userID, req.ActionIDs)
	if err != nil {
		writeDomainError(w, h.logger, "Failed to reorder actions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}
