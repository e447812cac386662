package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/ledger"
	"github.com/evetabi/amm/internal/repository"
)

// Broadcaster is the minimal interface the services need from the WS hub.
// Implemented by ws.Hub.
type Broadcaster interface {
	BroadcastEvents(events []domain.Event)
	BroadcastPoolUpdate(summary domain.PoolSummary)
}

// ──────────────────────────────────────────────────────────────────────────────
// PoolService
// ──────────────────────────────────────────────────────────────────────────────

// PoolService handles pair registration and all read-only pool queries.
type PoolService struct {
	db          *sqlx.DB
	ledger      *ledger.Ledger
	poolRepo    *repository.PoolRepository
	eventRepo   *repository.EventRepository
	broadcaster Broadcaster // injected after the WS hub is built
	log         *slog.Logger
}

// NewPoolService creates a PoolService.
func NewPoolService(
	db *sqlx.DB,
	ldg *ledger.Ledger,
	poolRepo *repository.PoolRepository,
	eventRepo *repository.EventRepository,
	log *slog.Logger,
) *PoolService {
	return &PoolService{
		db:        db,
		ledger:    ldg,
		poolRepo:  poolRepo,
		eventRepo: eventRepo,
		log:       log,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *PoolService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// Restore rebuilds the in-memory ledger from the persisted snapshots.
// Called once at boot, before the HTTP server starts.  defaultFeeBps is the
// configured fee used when no fee override has ever been committed.
func (s *PoolService) Restore(ctx context.Context, defaultFeeBps int64) error {
	pools, err := s.poolRepo.LoadPools(ctx)
	if err != nil {
		return fmt.Errorf("pool_service.Restore: %w", err)
	}
	positions, err := s.poolRepo.LoadPositions(ctx)
	if err != nil {
		return fmt.Errorf("pool_service.Restore: %w", err)
	}
	feeBps, ok, err := s.poolRepo.LoadFeeBps(ctx)
	if err != nil {
		return fmt.Errorf("pool_service.Restore: %w", err)
	}
	if !ok {
		feeBps = defaultFeeBps
	}
	s.ledger.Restore(pools, positions, feeBps)
	s.log.Info("ledger restored", "pools", len(pools), "positions", len(positions))
	return nil
}

// CreatePair registers a new canonical pair with empty reserves.
// The pool row and the pair_created event are written in one transaction;
// the ledger is updated only after the commit succeeds.
func (s *PoolService) CreatePair(ctx context.Context, assetA, assetB domain.AssetID) (*domain.Pool, error) {
	release, err := s.ledger.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	plan, err := s.ledger.PlanCreatePair(assetA, assetB)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("pool_service.CreatePair: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.poolRepo.UpsertPool(ctx, tx, plan.Pool); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.Append(ctx, tx, plan.Events)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("pool_service.CreatePair: commit: %w", err)
	}

	s.ledger.Apply(plan.Commit())
	s.notify(events, plan.Pool)
	return plan.Pool.Clone(), nil
}

// GetPool returns the current state of one pool, addressed in either asset
// order.
func (s *PoolService) GetPool(assetA, assetB domain.AssetID) (*domain.Pool, error) {
	key, err := domain.NewPairKey(assetA, assetB)
	if err != nil {
		return nil, err
	}
	return s.ledger.Pool(key)
}

// ListPools returns every pool ordered by canonical key.
func (s *PoolService) ListPools() []*domain.Pool {
	return s.ledger.Pools()
}

// GetPosition returns a depositor's position in a pool.  Unknown depositors
// hold a zero position.
func (s *PoolService) GetPosition(assetA, assetB domain.AssetID, depositor uuid.UUID) (*domain.Position, error) {
	key, err := domain.NewPairKey(assetA, assetB)
	if err != nil {
		return nil, err
	}
	return s.ledger.Position(key, depositor)
}

// ListPositions returns every position in a pool.
func (s *PoolService) ListPositions(assetA, assetB domain.AssetID) ([]*domain.Position, error) {
	key, err := domain.NewPairKey(assetA, assetB)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.Pool(key); err != nil {
		return nil, err
	}
	return s.ledger.Positions(key), nil
}

// ListEvents returns committed events with seq strictly after the given
// cursor, for polling observers.
func (s *PoolService) ListEvents(ctx context.Context, after int64, limit int) ([]domain.Event, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.eventRepo.ListSince(ctx, after, limit)
}

// ListPairEvents returns the most recent events for one pair.
func (s *PoolService) ListPairEvents(ctx context.Context, assetA, assetB domain.AssetID, limit int) ([]domain.Event, error) {
	key, err := domain.NewPairKey(assetA, assetB)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.eventRepo.ListByPair(ctx, key, limit)
}

// notify pushes committed events and the updated pool over the WS hub.
// Runs after commit; delivery is best-effort.
func (s *PoolService) notify(events []domain.Event, pools ...*domain.Pool) {
	if s.broadcaster == nil {
		return
	}
	go func() {
		s.broadcaster.BroadcastEvents(events)
		for _, p := range pools {
			s.broadcaster.BroadcastPoolUpdate(p.ToSummary())
		}
	}()
}
