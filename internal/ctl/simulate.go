package ctl

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/greenhorn/pkg/logger"
)

// Simulation defaults.
const (
	DefaultPlayers      = 100
	workersPerCPU       = 2
	progressInterval    = time.Second
	maxReportedFailures = 10
)

// SimulationConfig controls a simulation run.
type SimulationConfig struct {
	Players int // synthetic characters to drive
	Workers int // concurrent players in flight
	// Offline makes every other character cross the threshold while logged
	// out, so the crossing must be reported at login.
	Offline bool
}

// Report summarises a simulation run.
type Report struct {
	Threshold int
	Players   int
	Crossings int64
	Warnings  int64
	Failed    int64
	Failures  []string
	Duration  time.Duration
}

// player scripts one synthetic character.
type player struct {
	id      string
	offline bool
}

// Simulate drives cfg.Players synthetic characters through the service:
// each logs in below the threshold, reaches it, keeps leveling and logs
// out. Every character must produce exactly one crossing. It returns
// ErrVerification when any character does not.
func Simulate(ctx context.Context, c *Client, cfg SimulationConfig) (Report, error) {
	start := time.Now()
	if cfg.Players <= 0 {
		cfg.Players = DefaultPlayers
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU() * workersPerCPU
	}
	if cfg.Workers > cfg.Players {
		cfg.Workers = cfg.Players
	}

	t, err := c.Threshold(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read threshold: %w", err)
	}
	if t == 0 {
		return Report{}, ErrNothingToSimulate
	}

	report := Report{Threshold: t, Players: cfg.Players}
	logger.Get().Info(ctx, "starting simulation",
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Int("threshold", t),
		logger.Bool("offline", cfg.Offline))

	var (
		crossings, warnings, failed, done int64
		mu                                sync.Mutex
		lastReport                        atomic.Int64
	)

	work := make(chan player, cfg.Workers*workersPerCPU)
	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range work {
				n, w, err := runPlayer(ctx, c, p, t)
				atomic.AddInt64(&crossings, int64(n))
				atomic.AddInt64(&warnings, int64(w))
				if err != nil {
					atomic.AddInt64(&failed, 1)
					mu.Lock()
					if len(report.Failures) < maxReportedFailures {
						report.Failures = append(report.Failures, err.Error())
					}
					mu.Unlock()
				}

				total := atomic.AddInt64(&done, 1)
				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(progressInterval) && lastReport.CompareAndSwap(last, now) {
					logger.Get().Info(ctx, "simulation progress",
						logger.Int64("done", total),
						logger.Int("players", cfg.Players),
						logger.Int64("failed", atomic.LoadInt64(&failed)))
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for i := 0; i < cfg.Players; i++ {
			p := player{id: uuid.NewString(), offline: cfg.Offline && i%2 == 1}
			select {
			case <-ctx.Done():
				return
			case work <- p:
			}
		}
	}()

	wg.Wait()

	report.Crossings = atomic.LoadInt64(&crossings)
	report.Warnings = atomic.LoadInt64(&warnings)
	report.Failed = atomic.LoadInt64(&failed)
	report.Duration = time.Since(start)

	logger.Get().Info(ctx, "simulation finished",
		logger.Int("players", report.Players),
		logger.Int64("crossings", report.Crossings),
		logger.Int64("warnings", report.Warnings),
		logger.Int64("failed", report.Failed),
		logger.String("duration", report.Duration.String()))

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("simulation interrupted: %w", err)
	}
	return report, verify(report)
}

func verify(r Report) error {
	if r.Failed > 0 {
		return fmt.Errorf("%w: %d of %d players misbehaved", ErrVerification, r.Failed, r.Players)
	}
	if r.Crossings != int64(r.Players) {
		return fmt.Errorf("%w: %d crossings for %d players", ErrVerification, r.Crossings, r.Players)
	}
	return nil
}

// runPlayer scripts one character and returns how many crossings and
// warnings it saw. A character starts one level below t.
func runPlayer(ctx context.Context, c *Client, p player, t int) (int, int, error) {
	var crossed, warned int
	count := func(o Observation, err error) error {
		if err != nil {
			return err
		}
		if o.Crossed {
			crossed++
		}
		return nil
	}

	if err := count(c.Login(ctx, p.id, t-1)); err != nil {
		return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
	}

	if p.offline {
		if err := c.Logout(ctx, p.id); err != nil {
			return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
		}
		if err := count(c.Login(ctx, p.id, t+1)); err != nil {
			return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
		}
	} else {
		for _, lvl := range []int{t, t + 1} {
			if err := count(c.LevelChanged(ctx, p.id, lvl)); err != nil {
				return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
			}
		}
	}

	msgs, err := c.Messages(ctx, p.id)
	if err != nil {
		return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
	}
	warned = len(msgs)

	// A re-login at or above the threshold must stay silent.
	if err := c.Logout(ctx, p.id); err != nil {
		return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
	}
	if err := count(c.Login(ctx, p.id, t+2)); err != nil {
		return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
	}
	if err := c.Logout(ctx, p.id); err != nil {
		return crossed, warned, fmt.Errorf("player %s: %w", p.id, err)
	}

	switch {
	case crossed != 1:
		return crossed, warned, fmt.Errorf("player %s: %w: %d crossings", p.id, ErrVerification, crossed)
	case warned != 1:
		return crossed, warned, fmt.Errorf("player %s: %w: %d warnings", p.id, ErrVerification, warned)
	}
	return crossed, warned, nil
}

// IsVerificationFailure reports whether err came from a failed check rather
// than a transport problem.
func IsVerificationFailure(err error) bool {
	return errors.Is(err, ErrVerification)
}
