package api

import (
	"errors"
	"net/http"

	"github.com/okian/greenhorn/internal/domain/threshold"
)

type thresholdRequest struct {
	Threshold *int `json:"threshold"`
}

type thresholdResponse struct {
	Threshold int `json:"threshold"`
}

// AdminHandler handles threshold administration.
type AdminHandler struct {
	deps AdminDependencies
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(deps AdminDependencies) *AdminHandler {
	return &AdminHandler{deps: deps}
}

// HandleGet handles GET /v1/threshold.
func (h *AdminHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, thresholdResponse{Threshold: h.deps.Threshold()})
}

// HandleSet handles PUT /v1/threshold.
func (h *AdminHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	var req thresholdRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if req.Threshold == nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest(errors.New("missing threshold")))
		return
	}
	if err := h.deps.SetThreshold(r.Context(), *req.Threshold); err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdResponse{Threshold: h.deps.Threshold()})
}

// HandleDefault handles POST /v1/threshold/default.
func (h *AdminHandler) HandleDefault(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.ResetThreshold(r.Context())
	if err != nil {
		writeAdminError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdResponse{Threshold: v})
}

// HandleReload handles POST /v1/threshold/reload.
func (h *AdminHandler) HandleReload(w http.ResponseWriter, r *http.Request) {
	v, err := h.deps.Reload(r.Context())
	if err != nil {
		// The previous threshold stays active; report why the reload failed.
		writeError(w, http.StatusUnprocessableEntity, "reload_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, thresholdResponse{Threshold: v})
}

func writeAdminError(w http.ResponseWriter, err error) {
	if errors.Is(err, threshold.ErrInvalidConfiguration) {
		writeError(w, http.StatusBadRequest, "invalid_configuration", err)
		return
	}
	writeError(w, http.StatusInternalServerError, "internal_error", err)
}
