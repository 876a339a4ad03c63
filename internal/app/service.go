// Package service wires the threshold store, crossing detector, override
// evaluator and notification delivery into the operations exposed to the
// host.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/greenhorn/internal/adapters/ledger"
	"github.com/okian/greenhorn/internal/adapters/notify"
	"github.com/okian/greenhorn/internal/config"
	"github.com/okian/greenhorn/internal/domain/crossing"
	"github.com/okian/greenhorn/internal/domain/model"
	"github.com/okian/greenhorn/internal/domain/override"
	"github.com/okian/greenhorn/internal/domain/threshold"
	"github.com/okian/greenhorn/pkg/logger"
	"github.com/okian/greenhorn/pkg/metrics"
)

// Reconfiguration sources reported in logs and metrics.
const (
	SourceStartup = "startup"
	SourceAdmin   = "admin"
	SourceDefault = "default"
	SourceReload  = "reload"
	SourceFile    = "file"
)

// Level event kinds.
const (
	kindLevelChange = "level_change"
	kindLogin       = "login"
	kindLogout      = "logout"
)

// Service implements the API dependencies for the override plugin.
type Service struct {
	mu sync.RWMutex

	// Core components
	threshold *threshold.Store
	detector  *crossing.Detector
	evaluator *override.Evaluator
	sink      notify.Sink
	mailbox   *notify.Mailbox
	ledger    *ledger.TTLLedger

	// Configuration
	initialThreshold int
	defaultThreshold int
	configPath       string
	watchConfig      bool
	mailboxTTL       time.Duration
	offlineRetention time.Duration

	// State
	started   bool
	stopWatch func() error
	watching  atomic.Bool

	// Logging
	logger logger.Logger
}

// New constructs a Service. Components are usable immediately; Start runs
// the background expiry loops and the config watcher.
func New(opts ...Option) *Service {
	s := &Service{
		initialThreshold: config.DefaultThreshold,
		defaultThreshold: config.DefaultThreshold,
		mailboxTTL:       10 * time.Minute,
		offlineRetention: 30 * 24 * time.Hour,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	// initialThreshold is never negative here; options filter it.
	s.threshold, _ = threshold.NewStore(s.initialThreshold)
	s.ledger = ledger.NewTTLLedger(s.offlineRetention)
	s.mailbox = notify.NewMailbox(s.mailboxTTL)
	s.detector = crossing.NewDetector(s.threshold,
		crossing.WithLedger(s.ledger),
		crossing.WithLogger(s.logger.Named("crossing")),
	)
	s.evaluator = override.NewEvaluator(s.threshold)
	if s.sink == nil {
		s.sink = notify.NewRouter(s.mailbox, s.logger.Named("notify"))
	}

	metrics.UpdateThreshold(s.threshold.Get())
	return s
}

// Start launches the expiry loops and, if enabled, the config file watcher.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.logger.Info(ctx, "starting override service...")

	go s.ledger.Start()
	go s.mailbox.Start()

	if s.watchConfig && s.configPath != "" {
		stop, err := config.Watch(ctx, s.configPath,
			func(cfg *config.Config) { s.applyThreshold(ctx, cfg.Threshold, SourceFile) },
			func(err error) {
				if errors.Is(err, config.ErrWatchStopped) {
					s.watching.Store(false)
					metrics.RecordConfigReload(SourceFile, "watch_stopped")
					s.logger.Error(ctx, "config watcher stopped; file changes are no longer applied",
						logger.String("path", s.configPath),
						logger.Int("threshold", s.threshold.Get()),
						logger.Error(err),
					)
					return
				}
				metrics.RecordConfigReload(SourceFile, "rejected")
				s.logger.Warn(ctx, "config change rejected; keeping current threshold",
					logger.String("path", s.configPath),
					logger.Int("threshold", s.threshold.Get()),
					logger.Error(err),
				)
			},
		)
		if err != nil {
			s.ledger.Stop()
			s.mailbox.Stop()
			return fmt.Errorf("start config watcher: %w", err)
		}
		s.stopWatch = stop
		s.watching.Store(true)
	}

	s.started = true
	s.logger.Info(ctx, "override service started",
		logger.Int("threshold", s.threshold.Get()),
		logger.Bool("watch_config", s.watching.Load()),
		logger.String("config_path", s.configPath),
	)
	return nil
}

// Stop ends the background loops and the config watcher.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping override service...")

	if s.stopWatch != nil {
		if err := s.stopWatch(); err != nil {
			s.logger.Warn(ctx, "failed to stop config watcher", logger.Error(err))
		}
		s.stopWatch = nil
		s.watching.Store(false)
	}
	s.ledger.Stop()
	s.mailbox.Stop()

	s.started = false
	s.logger.Info(ctx, "override service stopped")
}

// LevelChanged handles a level change for id and delivers a warning when the
// character crossed the threshold.
func (s *Service) LevelChanged(ctx context.Context, id model.PlayerID, level int) (model.Crossing, bool, error) {
	if err := validate(id, level); err != nil {
		return model.Crossing{}, false, err
	}
	metrics.RecordLevelEvent(kindLevelChange)
	c, crossed := s.detector.OnLevelChange(ctx, id, level)
	s.afterObservation(ctx, c, crossed)
	return c, crossed, nil
}

// Login opens id's session and evaluates the level it loaded with, catching
// levels gained while offline.
func (s *Service) Login(ctx context.Context, id model.PlayerID, level int) (model.Crossing, bool, error) {
	if err := validate(id, level); err != nil {
		return model.Crossing{}, false, err
	}
	metrics.RecordLevelEvent(kindLogin)
	s.mailbox.Open(id)
	c, crossed := s.detector.OnLogin(ctx, id, level)
	s.afterObservation(ctx, c, crossed)
	return c, crossed, nil
}

// Logout closes id's session. Logging out twice is harmless.
func (s *Service) Logout(ctx context.Context, id model.PlayerID) error {
	if !id.Valid() {
		return ErrInvalidPlayer
	}
	metrics.RecordLevelEvent(kindLogout)
	s.detector.OnLogout(ctx, id)
	s.mailbox.Close(id)
	metrics.UpdateTrackedPlayers(s.detector.Tracked())
	return nil
}

// Messages drains the warnings waiting for id.
func (s *Service) Messages(_ context.Context, id model.PlayerID) ([]model.Warning, error) {
	if !id.Valid() {
		return nil, ErrInvalidPlayer
	}
	return s.mailbox.Drain(id), nil
}

// Capacity returns (override.Unlimited, true) for characters below the
// threshold; otherwise the host keeps its own capacity.
func (s *Service) Capacity(_ context.Context, level int) (int, bool) {
	v, ok := s.evaluator.Capacity(level)
	metrics.RecordOverride("capacity", ok)
	return v, ok
}

// AppliedValue returns 0 for characters below the threshold and proposed
// otherwise.
func (s *Service) AppliedValue(_ context.Context, level, proposed int) int {
	applied := s.evaluator.Applies(level)
	metrics.RecordOverride("applied_value", applied)
	return s.evaluator.AppliedValue(level, proposed)
}

// Threshold returns the active threshold.
func (s *Service) Threshold() int {
	return s.threshold.Get()
}

// SetThreshold replaces the threshold; it is the administrative "limit"
// command. Negative values are rejected and the previous value kept.
func (s *Service) SetThreshold(ctx context.Context, t int) error {
	return s.applyThreshold(ctx, t, SourceAdmin)
}

// ResetThreshold restores the configured default threshold.
func (s *Service) ResetThreshold(ctx context.Context) (int, error) {
	if err := s.applyThreshold(ctx, s.defaultThreshold, SourceDefault); err != nil {
		return s.threshold.Get(), err
	}
	return s.defaultThreshold, nil
}

// Reload re-reads the config file and applies its threshold. On any failure
// the active threshold is left untouched.
func (s *Service) Reload(ctx context.Context) (int, error) {
	if s.configPath == "" {
		metrics.RecordConfigReload(SourceReload, "rejected")
		return s.threshold.Get(), ErrNoConfigFile
	}
	cfg, err := config.LoadFrom(ctx, s.configPath)
	if err != nil {
		metrics.RecordConfigReload(SourceReload, "rejected")
		s.logger.Warn(ctx, "reload failed; keeping current threshold",
			logger.String("path", s.configPath),
			logger.Error(err),
		)
		return s.threshold.Get(), err
	}
	if err := s.applyThreshold(ctx, cfg.Threshold, SourceReload); err != nil {
		return s.threshold.Get(), err
	}
	return cfg.Threshold, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tracked := s.detector.Tracked()
	metrics.UpdateTrackedPlayers(tracked)

	return map[string]interface{}{
		"started":           s.started,
		"threshold":         s.threshold.Get(),
		"defaultThreshold":  s.defaultThreshold,
		"trackedPlayers":    tracked,
		"rememberedOffline": s.ledger.Len(),
		"onlinePlayers":     s.mailbox.Online(),
		"watchingConfig":    s.watching.Load(),
	}
}

func (s *Service) applyThreshold(ctx context.Context, t int, source string) error {
	prev := s.threshold.Get()
	if err := s.threshold.Set(t); err != nil {
		metrics.RecordConfigReload(source, "rejected")
		s.logger.Warn(ctx, "threshold rejected",
			logger.String("origin", source),
			logger.Int("requested", t),
			logger.Int("threshold", prev),
			logger.Error(err),
		)
		return err
	}
	metrics.RecordConfigReload(source, "ok")
	metrics.UpdateThreshold(t)
	if prev != t {
		s.logger.Info(ctx, "threshold changed",
			logger.String("origin", source),
			logger.Int("previous", prev),
			logger.Int("threshold", t),
		)
	}
	return nil
}

// afterObservation runs outside the detector's lock.
func (s *Service) afterObservation(ctx context.Context, c model.Crossing, crossed bool) {
	if crossed {
		metrics.RecordCrossing()
		s.sink.Notify(ctx, c)
	}
	metrics.UpdateTrackedPlayers(s.detector.Tracked())
}

func validate(id model.PlayerID, level int) error {
	if !id.Valid() {
		return ErrInvalidPlayer
	}
	if level < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidLevel, level)
	}
	return nil
}

// IsInvalidInput reports whether err was caused by caller input.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidPlayer) ||
		errors.Is(err, ErrInvalidLevel) ||
		errors.Is(err, threshold.ErrInvalidConfiguration)
}
