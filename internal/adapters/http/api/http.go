// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/okian/greenhorn/internal/domain/model"
)

// Default admin throttling.
const (
	defaultAdminRate  = 5
	defaultAdminBurst = 10
)

// PlayerDependencies covers the session and level-change operations.
type PlayerDependencies interface {
	LevelChanged(ctx context.Context, id model.PlayerID, level int) (model.Crossing, bool, error)
	Login(ctx context.Context, id model.PlayerID, level int) (model.Crossing, bool, error)
	Logout(ctx context.Context, id model.PlayerID) error
	Messages(ctx context.Context, id model.PlayerID) ([]model.Warning, error)
}

// OverrideDependencies covers the hot-path override questions.
type OverrideDependencies interface {
	Capacity(ctx context.Context, level int) (int, bool)
	AppliedValue(ctx context.Context, level, proposed int) int
}

// AdminDependencies covers threshold administration.
type AdminDependencies interface {
	Threshold() int
	SetThreshold(ctx context.Context, t int) error
	ResetThreshold(ctx context.Context) (int, error)
	Reload(ctx context.Context) (int, error)
}

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PlayerDependencies
	OverrideDependencies
	AdminDependencies
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	playersHandler  *PlayersHandler
	overrideHandler *OverrideHandler
	adminHandler    *AdminHandler

	adminLimiter *rate.Limiter
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAdminRateLimit throttles threshold mutations to r per second with the
// given burst.
func WithAdminRateLimit(r float64, burst int) Option {
	return func(s *Server) {
		if r > 0 && burst > 0 {
			s.adminLimiter = rate.NewLimiter(rate.Limit(r), burst)
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		playersHandler:  NewPlayersHandler(deps),
		overrideHandler: NewOverrideHandler(deps),
		adminHandler:    NewAdminHandler(deps),
		adminLimiter:    rate.NewLimiter(defaultAdminRate, defaultAdminBurst),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("POST /v1/players/{id}/level", MetricsMiddleware(s.playersHandler.HandleLevelChange, "level"))
	mux.HandleFunc("POST /v1/players/{id}/login", MetricsMiddleware(s.playersHandler.HandleLogin, "login"))
	mux.HandleFunc("POST /v1/players/{id}/logout", MetricsMiddleware(s.playersHandler.HandleLogout, "logout"))
	mux.HandleFunc("GET /v1/players/{id}/messages", MetricsMiddleware(s.playersHandler.HandleMessages, "messages"))

	mux.HandleFunc("GET /v1/override/capacity", MetricsMiddleware(s.overrideHandler.HandleCapacity, "capacity"))
	mux.HandleFunc("GET /v1/override/applied", MetricsMiddleware(s.overrideHandler.HandleAppliedValue, "applied"))

	mux.HandleFunc("GET /v1/threshold", MetricsMiddleware(s.adminHandler.HandleGet, "threshold"))
	mux.HandleFunc("PUT /v1/threshold",
		MetricsMiddleware(RateLimitMiddleware(s.adminLimiter, s.adminHandler.HandleSet), "threshold"))
	mux.HandleFunc("POST /v1/threshold/default",
		MetricsMiddleware(RateLimitMiddleware(s.adminLimiter, s.adminHandler.HandleDefault), "threshold_default"))
	mux.HandleFunc("POST /v1/threshold/reload",
		MetricsMiddleware(RateLimitMiddleware(s.adminLimiter, s.adminHandler.HandleReload), "threshold_reload"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// decodeJSON reads a JSON body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return nil
}

// badRequest wraps err as ErrBadRequest unless it already is one.
func badRequest(err error) error {
	if errors.Is(err, ErrBadRequest) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrBadRequest, err)
}
