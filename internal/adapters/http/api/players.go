package api

import (
	"errors"
	"net/http"

	"github.com/okian/greenhorn/internal/domain/model"
)

// levelRequest is the body of level-change and login calls.
type levelRequest struct {
	Level *int `json:"level"`
}

// observationResponse reports whether a call produced a crossing.
type observationResponse struct {
	Crossed  bool            `json:"crossed"`
	Crossing *model.Crossing `json:"crossing,omitempty"`
}

type messagesResponse struct {
	Messages []model.Warning `json:"messages"`
}

// PlayersHandler handles session and level-change requests.
type PlayersHandler struct {
	deps PlayerDependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerDependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleLevelChange handles POST /v1/players/{id}/level.
func (h *PlayersHandler) HandleLevelChange(w http.ResponseWriter, r *http.Request) {
	id, level, ok := readObservation(w, r)
	if !ok {
		return
	}
	c, crossed, err := h.deps.LevelChanged(r.Context(), id, level)
	writeObservation(w, c, crossed, err)
}

// HandleLogin handles POST /v1/players/{id}/login.
func (h *PlayersHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	id, level, ok := readObservation(w, r)
	if !ok {
		return
	}
	c, crossed, err := h.deps.Login(r.Context(), id, level)
	writeObservation(w, c, crossed, err)
}

// HandleLogout handles POST /v1/players/{id}/logout.
func (h *PlayersHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(r.PathValue("id"))
	if err := h.deps.Logout(r.Context(), id); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleMessages handles GET /v1/players/{id}/messages.
func (h *PlayersHandler) HandleMessages(w http.ResponseWriter, r *http.Request) {
	id := model.PlayerID(r.PathValue("id"))
	msgs, err := h.deps.Messages(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest(err))
		return
	}
	if msgs == nil {
		msgs = []model.Warning{}
	}
	writeJSON(w, http.StatusOK, messagesResponse{Messages: msgs})
}

func readObservation(w http.ResponseWriter, r *http.Request) (model.PlayerID, int, bool) {
	id := model.PlayerID(r.PathValue("id"))
	if !id.Valid() {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest(errors.New("missing player id")))
		return "", 0, false
	}
	var req levelRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return "", 0, false
	}
	if req.Level == nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest(errors.New("missing level")))
		return "", 0, false
	}
	return id, *req.Level, true
}

func writeObservation(w http.ResponseWriter, c model.Crossing, crossed bool, err error) {
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", badRequest(err))
		return
	}
	resp := observationResponse{Crossed: crossed}
	if crossed {
		resp.Crossing = &c
	}
	writeJSON(w, http.StatusOK, resp)
}
