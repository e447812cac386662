package service

import (
	"context"
	"fmt"
	"log/slog"

	sdkmath "cosmossdk.io/math"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/ledger"
	"github.com/evetabi/amm/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// SwapService
// ──────────────────────────────────────────────────────────────────────────────

// SwapService executes multi-hop swaps and answers quote queries.  Quotes are
// read-only: they price against committed snapshots without taking the
// single-writer guard, so they never block trading and never move state.
type SwapService struct {
	db          *sqlx.DB
	ledger      *ledger.Ledger
	poolRepo    *repository.PoolRepository
	balanceRepo *repository.BalanceRepository
	eventRepo   *repository.EventRepository
	broadcaster Broadcaster
	log         *slog.Logger
}

// NewSwapService creates a SwapService.
func NewSwapService(
	db *sqlx.DB,
	ldg *ledger.Ledger,
	poolRepo *repository.PoolRepository,
	balanceRepo *repository.BalanceRepository,
	eventRepo *repository.EventRepository,
	log *slog.Logger,
) *SwapService {
	return &SwapService{
		db:          db,
		ledger:      ldg,
		poolRepo:    poolRepo,
		balanceRepo: balanceRepo,
		eventRepo:   eventRepo,
		log:         log,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *SwapService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// SwapResult reports a committed swap chain.
type SwapResult struct {
	AssetIn   domain.AssetID   `json:"asset_in"`
	AssetOut  domain.AssetID   `json:"asset_out"`
	AmountIn  sdkmath.Int      `json:"amount_in"`
	AmountOut sdkmath.Int      `json:"amount_out"`
	Hops      []ledger.SwapHop `json:"hops"`
}

// Swap executes a multi-hop swap.  The trader's input is pulled into custody
// and the final output pushed to the recipient in the same transaction as the
// pool snapshot writes and the per-hop events; a failure at any hop discards
// the entire chain.
func (s *SwapService) Swap(ctx context.Context, p ledger.SwapParams) (*SwapResult, error) {
	release, err := s.ledger.Begin()
	if err != nil {
		return nil, err
	}
	defer release()

	plan, err := s.ledger.PlanSwap(p)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("swap_service.Swap: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.balanceRepo.Pull(ctx, tx, p.Trader.String(), plan.AssetIn, plan.AmountIn); err != nil {
		return nil, err
	}
	if err = s.balanceRepo.Push(ctx, tx, p.Recipient.String(), plan.AssetOut, plan.AmountOut); err != nil {
		return nil, err
	}
	for _, pool := range plan.Pools {
		if err = s.poolRepo.UpsertPool(ctx, tx, pool); err != nil {
			return nil, err
		}
	}
	events, err := s.eventRepo.Append(ctx, tx, plan.Events)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("swap_service.Swap: commit: %w", err)
	}

	s.ledger.Apply(plan.Commit())
	s.notify(events, plan.Pools...)

	return &SwapResult{
		AssetIn:   plan.AssetIn,
		AssetOut:  plan.AssetOut,
		AmountIn:  plan.AmountIn,
		AmountOut: plan.AmountOut,
		Hops:      plan.Hops,
	}, nil
}

// QuoteResult prices a hypothetical trade against committed reserves.
type QuoteResult struct {
	Path      []domain.AssetID `json:"path"`
	AmountIn  sdkmath.Int      `json:"amount_in"`
	AmountOut sdkmath.Int      `json:"amount_out"`
	FeeBps    int64            `json:"fee_bps"`
}

// QuoteExactIn simulates a multi-hop swap of amountIn along path without
// touching any state.
func (s *SwapService) QuoteExactIn(path []domain.AssetID, amountIn sdkmath.Int) (*QuoteResult, error) {
	if len(path) < 2 {
		return nil, domain.ErrInvalidPath
	}
	if !amountIn.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	feeBps := s.ledger.FeeBps()

	hopIn := amountIn
	for i := 0; i+1 < len(path); i++ {
		key, err := domain.NewPairKey(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		pool, err := s.ledger.Pool(key)
		if err != nil {
			return nil, err
		}
		reserveIn, reserveOut, err := pool.Reserves(path[i])
		if err != nil {
			return nil, err
		}
		hopIn, err = domain.SwapOutput(hopIn, reserveIn, reserveOut, feeBps)
		if err != nil {
			return nil, err
		}
		if !hopIn.IsPositive() {
			return nil, domain.ErrInsufficientLiquidity
		}
	}

	return &QuoteResult{
		Path:      path,
		AmountIn:  amountIn,
		AmountOut: hopIn,
		FeeBps:    feeBps,
	}, nil
}

// QuoteExactOut computes the input required to receive exactly amountOut
// along path, walking the hops backwards with round-up division at every
// step.
func (s *SwapService) QuoteExactOut(path []domain.AssetID, amountOut sdkmath.Int) (*QuoteResult, error) {
	if len(path) < 2 {
		return nil, domain.ErrInvalidPath
	}
	if !amountOut.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	feeBps := s.ledger.FeeBps()

	hopOut := amountOut
	for i := len(path) - 1; i > 0; i-- {
		key, err := domain.NewPairKey(path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		pool, err := s.ledger.Pool(key)
		if err != nil {
			return nil, err
		}
		reserveIn, reserveOut, err := pool.Reserves(path[i-1])
		if err != nil {
			return nil, err
		}
		hopOut, err = domain.SwapInput(hopOut, reserveIn, reserveOut, feeBps)
		if err != nil {
			return nil, err
		}
	}

	return &QuoteResult{
		Path:      path,
		AmountIn:  hopOut,
		AmountOut: amountOut,
		FeeBps:    feeBps,
	}, nil
}

// SpotQuote prices amountIn at the pool's current ratio with no fee, the
// reference price a deposit must match.
func (s *SwapService) SpotQuote(assetIn, assetOut domain.AssetID, amountIn sdkmath.Int) (sdkmath.Int, error) {
	key, err := domain.NewPairKey(assetIn, assetOut)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	pool, err := s.ledger.Pool(key)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	reserveIn, reserveOut, err := pool.Reserves(assetIn)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return domain.Quote(amountIn, reserveIn, reserveOut)
}

func (s *SwapService) notify(events []domain.Event, pools ...*domain.Pool) {
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
