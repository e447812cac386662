package service

import (
	"context"
	"fmt"
	"log/slog"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/ledger"
	"github.com/evetabi/amm/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// LiquidityService
// ──────────────────────────────────────────────────────────────────────────────

// LiquidityService orchestrates deposits and withdrawals.  Each operation
// holds the ledger's single-writer guard end to end: the staged plan, the
// balance transfers, and the snapshot writes either all commit or all
// vanish.
type LiquidityService struct {
	db          *sqlx.DB
	ledger      *ledger.Ledger
	poolRepo    *repository.PoolRepository
	balanceRepo *repository.BalanceRepository
	eventRepo   *repository.EventRepository
	broadcaster Broadcaster
	log         *slog.Logger
}

// NewLiquidityService creates a LiquidityService.
func NewLiquidityService(
	db *sqlx.DB,
	ldg *ledger.Ledger,
	poolRepo *repository.PoolRepository,
	balanceRepo *repository.BalanceRepository,
	eventRepo *repository.EventRepository,
	log *slog.Logger,
) *LiquidityService {
	return &LiquidityService{
		db:          db,
		ledger:      ldg,
		poolRepo:    poolRepo,
		balanceRepo: balanceRepo,
		eventRepo:   eventRepo,
		log:         log,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *LiquidityService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// AddLiquidityResult reports the actual committed deposit.
type AddLiquidityResult struct {
	Pair     string          `json:"pair"`
	AmountA  sdkmath.Int     `json:"amount_a"`
	AmountB  sdkmath.Int     `json:"amount_b"`
	Shares   sdkmath.Int     `json:"shares"`
	Position domain.Position `json:"position"`
}

// AddLiquidity deposits assets into a pool.
//
// The depositor's assets are pulled into custody, the pool and position
// snapshots written through, and the liquidity_added event appended, all in
// one transaction.  The in-memory ledger is updated only after the commit.
func (s *LiquidityService) AddLiquidity(ctx context.Context, p ledger.AddLiquidityParams) (*AddLiquidityResult, error) {
	release, err := s.ledger.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	plan, err := s.ledger.PlanAddLiquidity(p)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("liquidity_service.AddLiquidity: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	holder := p.Depositor.String()
	if err = s.balanceRepo.Pull(ctx, tx, holder, plan.AssetA, plan.AmountA); err != nil {
		return nil, err
	}
	if err = s.balanceRepo.Pull(ctx, tx, holder, plan.AssetB, plan.AmountB); err != nil {
		return nil, err
	}
	if err = s.poolRepo.UpsertPool(ctx, tx, plan.Pool); err != nil {
		return nil, err
	}
	if err = s.poolRepo.UpsertPosition(ctx, tx, plan.Position); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.Append(ctx, tx, plan.Events)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("liquidity_service.AddLiquidity: commit: %w", err)
	}

	s.ledger.Apply(plan.Commit())
	s.notify(events, plan.Pool)

	return &AddLiquidityResult{
		Pair:     plan.Key.String(),
		AmountA:  plan.AmountA,
		AmountB:  plan.AmountB,
		Shares:   plan.Shares,
		Position: *plan.Position,
	}, nil
}

// RemoveLiquidityResult reports the actual committed withdrawal.
type RemoveLiquidityResult struct {
	Pair     string          `json:"pair"`
	AmountA  sdkmath.Int     `json:"amount_a"`
	AmountB  sdkmath.Int     `json:"amount_b"`
	Shares   sdkmath.Int     `json:"shares"`
	Position domain.Position `json:"position"`
}

// RemoveLiquidity burns shares and pays out the proportional reserve amounts
// from custody to the depositor.
func (s *LiquidityService) RemoveLiquidity(ctx context.Context, p ledger.RemoveLiquidityParams) (*RemoveLiquidityResult, error) {
	release, err := s.ledger.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	plan, err := s.ledger.PlanRemoveLiquidity(p)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("liquidity_service.RemoveLiquidity: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	holder := p.Depositor.String()
	if err = s.balanceRepo.Push(ctx, tx, holder, plan.AssetA, plan.AmountA); err != nil {
		return nil, err
	}
	if err = s.balanceRepo.Push(ctx, tx, holder, plan.AssetB, plan.AmountB); err != nil {
		return nil, err
	}
	if err = s.poolRepo.UpsertPool(ctx, tx, plan.Pool); err != nil {
		return nil, err
	}
	if err = s.poolRepo.UpsertPosition(ctx, tx, plan.Position); err != nil {
		return nil, err
	}
	events, err := s.eventRepo.Append(ctx, tx, plan.Events)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("liquidity_service.RemoveLiquidity: commit: %w", err)
	}

	s.ledger.Apply(plan.Commit())
	s.notify(events, plan.Pool)

	return &RemoveLiquidityResult{
		Pair:     plan.Key.String(),
		AmountA:  plan.AmountA,
		AmountB:  plan.AmountB,
		Shares:   plan.Shares,
		Position: *plan.Position,
	}, nil
}

// GetBalance returns one (holder, asset) balance.
func (s *LiquidityService) GetBalance(ctx context.Context, holder uuid.UUID, asset domain.AssetID) (*domain.Balance, error) {
	if err := asset.Validate(); err != nil {
		return nil, err
	}
	return s.balanceRepo.Get(ctx, holder.String(), asset)
}

// ListBalances returns every balance the holder owns.
func (s *LiquidityService) ListBalances(ctx context.Context, holder uuid.UUID) ([]*domain.Balance, error) {
	return s.balanceRepo.ListByHolder(ctx, holder.String())
}

func (s *LiquidityService) notify(events []domain.Event, pools ...*domain.Pool) {
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
