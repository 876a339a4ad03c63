package api

import (
	"fmt"
	"net/http"
	"strconv"
)

type capacityResponse struct {
	Override bool `json:"override"`
	Capacity int  `json:"capacity,omitempty"`
}

type appliedValueResponse struct {
	Value int `json:"value"`
}

// OverrideHandler answers capacity and applied-value questions.
type OverrideHandler struct {
	deps OverrideDependencies
}

// NewOverrideHandler creates a new override handler.
func NewOverrideHandler(deps OverrideDependencies) *OverrideHandler {
	return &OverrideHandler{deps: deps}
}

// HandleCapacity handles GET /v1/override/capacity?level=N.
func (h *OverrideHandler) HandleCapacity(w http.ResponseWriter, r *http.Request) {
	level, err := intQuery(r, "level")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	v, ok := h.deps.Capacity(r.Context(), level)
	writeJSON(w, http.StatusOK, capacityResponse{Override: ok, Capacity: v})
}

// HandleAppliedValue handles GET /v1/override/applied?level=N&value=V.
func (h *OverrideHandler) HandleAppliedValue(w http.ResponseWriter, r *http.Request) {
	level, err := intQuery(r, "level")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	value, err := intQuery(r, "value")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	writeJSON(w, http.StatusOK, appliedValueResponse{Value: h.deps.AppliedValue(r.Context(), level, value)})
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", ErrBadRequest, name)
	}
	return v, nil
}
