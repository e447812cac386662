// Package scheduler manages the background goroutines around the pool
// ledger:
//  1. poolBroadcastLoop – pushes current pool summaries to WS clients on a
//     fixed interval, so late joiners converge without waiting for a trade.
//  2. auditLoop         – re-checks every pool's reserve/share invariant and
//     logs loudly if persistence and memory ever diverge.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/evetabi/amm/internal/config"
	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/ledger"
)

// ──────────────────────────────────────────────────────────────────────────────
// WsHub interface — minimally required from the Hub
// ──────────────────────────────────────────────────────────────────────────────

// WsHub defines the broadcast operations the Scheduler needs from the
// WebSocket hub.  Declared here so the scheduler package does not import the
// ws/hub.go implementation and cause a circular dependency.
type WsHub interface {
	BroadcastPoolUpdate(summary domain.PoolSummary)
	ConnectedCount() int
}

// ──────────────────────────────────────────────────────────────────────────────
// Scheduler
// ──────────────────────────────────────────────────────────────────────────────

// Scheduler runs the periodic broadcast and audit goroutines.  Call
// Start(ctx) once from main(); cancel the context to shut it down
// gracefully.
type Scheduler struct {
	ledger *ledger.Ledger
	hub    WsHub
	cfg    *config.Config
	logger *slog.Logger
}

// NewScheduler creates a Scheduler.
func NewScheduler(ldg *ledger.Ledger, hub WsHub, cfg *config.Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		ledger: ldg,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
	}
}

// Start launches the background goroutines.  It returns immediately; all
// loops run until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.poolBroadcastLoop(ctx)
	go s.auditLoop(ctx)
	s.logger.Info("scheduler started",
		"broadcast_interval", s.cfg.AMM.BroadcastInterval,
		"audit_interval", s.cfg.AMM.AuditInterval)
}

// ──────────────────────────────────────────────────────────────────────────────
// poolBroadcastLoop
// ──────────────────────────────────────────────────────────────────────────────

// poolBroadcastLoop pushes every pool's summary to connected WS clients on
// each tick.  Skips the work entirely when nobody is listening.
func (s *Scheduler) poolBroadcastLoop(ctx context.Context) {
	defer s.recoverAndLog("poolBroadcastLoop")

	ticker := time.NewTicker(s.cfg.AMM.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poolBroadcastLoop: shutting down")
			return
		case <-ticker.C:
			if s.hub == nil || s.hub.ConnectedCount() == 0 {
				continue
			}
			for _, pool := range s.ledger.Pools() {
				s.hub.BroadcastPoolUpdate(pool.ToSummary())
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// auditLoop
// ──────────────────────────────────────────────────────────────────────────────

// auditLoop verifies the reserve/share coupling of every pool.  A violation
// can only mean a bug in the staged-commit path, so it is logged as an error
// every tick until fixed.
func (s *Scheduler) auditLoop(ctx context.Context) {
	defer s.recoverAndLog("auditLoop")

	ticker := time.NewTicker(s.cfg.AMM.AuditInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("auditLoop: shutting down")
			return
		case <-ticker.C:
			for _, pool := range s.ledger.Pools() {
				if !pool.CheckInvariant() {
					s.logger.Error("pool invariant violated",
						"pair", pool.Key.String(),
						"reserve_low", pool.ReserveLow,
						"reserve_high", pool.ReserveHigh,
						"total_shares", pool.TotalShares)
				}
			}
		}
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Panic recovery
// ──────────────────────────────────────────────────────────────────────────────

// recoverAndLog is deferred inside each goroutine to catch unexpected panics,
// log them, and allow the scheduler to continue running.
func (s *Scheduler) recoverAndLog(loop string) {
	if r := recover(); r != nil {
		s.logger.Error("PANIC recovered in scheduler loop",
			"loop", loop, "panic", r)
	}
}
