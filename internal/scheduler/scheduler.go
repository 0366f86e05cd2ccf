// Package scheduler runs the one background goroutine the engine needs: a
// periodic sweep that drives clock-driven prediction transitions
// (Trading -> WaitingForDecision, WaitingForDecision -> Refunded) for any
// prediction nobody has touched through add_bet/check_bet/make_decision
// since its deadline passed. Grounded on the teacher's resolutionLoop: same
// ticker-plus-recover shape, generalized from "resolve expired markets" to
// "sweep lazy transitions".
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/evetabi/prediction/internal/engine"
)

const sweepInterval = 10 * time.Second

// Scheduler drives Engine.SweepLazyTransitions on a ticker. Call Start(ctx)
// once from main(); cancel the context to shut it down gracefully.
type Scheduler struct {
	eng    *engine.Engine
	logger *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(eng *engine.Engine, logger *slog.Logger) *Scheduler {
	return &Scheduler{eng: eng, logger: logger}
}

// Start launches the sweep loop. It returns immediately; the loop runs
// until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.sweepLoop(ctx)
	s.logger.Info("scheduler started", "sweep_interval", sweepInterval)
}

// sweepLoop calls Engine.SweepLazyTransitions every sweepInterval.
func (s *Scheduler) sweepLoop(ctx context.Context) {
	defer s.recoverAndLog("sweepLoop")

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweepLoop: shutting down")
			return
		case <-ticker.C:
			if err := s.eng.SweepLazyTransitions(ctx); err != nil {
				s.logger.Error("sweepLoop: SweepLazyTransitions", "err", err)
			}
		}
	}
}

// recoverAndLog is deferred inside the loop to catch unexpected panics, log
// them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
