package ledger

import (
	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/evetabi/amm/internal/domain"
)

func zeroInt() sdkmath.Int { return sdkmath.ZeroInt() }

// ──────────────────────────────────────────────────────────────────────────────
// Staged plans
//
// Every mutating operation is planned first: all deltas are computed into
// plan-local copies and validated, and only then — after external transfers
// and persistence succeed — does the caller install the plan with Apply.
// Planning methods require the operation guard to be held so the snapshot
// they read cannot move underneath them.
// ──────────────────────────────────────────────────────────────────────────────

// CreatePairPlan stages the registration of a new canonical pair.
type CreatePairPlan struct {
	Pool   *domain.Pool
	Events []domain.Event
}

// Commit returns the records Apply installs for this plan.
func (p *CreatePairPlan) Commit() Commit {
	return Commit{Pools: []*domain.Pool{p.Pool}}
}

// PlanCreatePair validates and stages createPair(assetA, assetB).
// Fails with ErrIdenticalAssets / ErrNullAsset on a malformed pair and with
// ErrPairExists when the canonical pair is already registered.
func (l *Ledger) PlanCreatePair(assetA, assetB domain.AssetID) (*CreatePairPlan, error) {
	key, err := domain.NewPairKey(assetA, assetB)
	if err != nil {
		return nil, err
	}
	if _, ok := l.snapshotPool(key); ok {
		return nil, domain.ErrPairExists
	}
	return &CreatePairPlan{
		Pool:   domain.NewPool(key, nowUTC()),
		Events: []domain.Event{domain.NewPairCreatedEvent(key)},
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Liquidity
// ──────────────────────────────────────────────────────────────────────────────

// AddLiquidityParams carries an addLiquidity request in the caller's asset
// order: DesiredA/MinA refer to AssetA, DesiredB/MinB to AssetB.
type AddLiquidityParams struct {
	AssetA, AssetB     domain.AssetID
	DesiredA, DesiredB sdkmath.Int
	MinA, MinB         sdkmath.Int
	Depositor          uuid.UUID
}

// LiquidityPlan stages a deposit or withdrawal.  AmountA/AmountB are the
// actual transfer amounts in the caller's asset order; the staged Pool and
// Position are post-state copies.
type LiquidityPlan struct {
	Key              domain.PairKey
	AssetA, AssetB   domain.AssetID
	AmountA, AmountB sdkmath.Int
	Shares           sdkmath.Int
	Pool             *domain.Pool
	Position         *domain.Position
	Events           []domain.Event
}

// Commit returns the records Apply installs for this plan.
func (p *LiquidityPlan) Commit() Commit {
	return Commit{
		Pools:     []*domain.Pool{p.Pool},
		Positions: []*domain.Position{p.Position},
	}
}

// PlanAddLiquidity validates and stages addLiquidity per the constant-product
// deposit rules:
//
//   - Empty pool: the desired amounts are accepted as-is and the depositor
//     receives floor(sqrt(amountA*amountB)) − MinimumLiquidityLock shares;
//     the lock stays in the share supply forever.  A first deposit too small
//     to clear the lock is rejected explicitly with
//     ErrInsufficientLiquidityMinted, never wrapped around.
//   - Funded pool: the second amount is derived from the first via Quote so
//     the deposit preserves the current price, holding DesiredA fixed when
//     possible and otherwise holding DesiredB fixed.  The caller's Min bounds
//     guard against price movement (ErrInsufficientAmount / ErrExcessiveInput).
func (l *Ledger) PlanAddLiquidity(p AddLiquidityParams) (*LiquidityPlan, error) {
	key, err := domain.NewPairKey(p.AssetA, p.AssetB)
	if err != nil {
		return nil, err
	}
	if !p.DesiredA.IsPositive() || !p.DesiredB.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if p.MinA.IsNegative() || p.MinB.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	pool, ok := l.snapshotPool(key)
	if !ok {
		return nil, domain.ErrPairNotFound
	}

	var amountA, amountB, shares sdkmath.Int
	if pool.IsEmpty() {
		amountA, amountB = p.DesiredA, p.DesiredB
		supply := domain.InitialShares(amountA, amountB)
		lock := sdkmath.NewInt(domain.MinimumLiquidityLock)
		if supply.LTE(lock) {
			return nil, domain.ErrInsufficientLiquidityMinted
		}
		shares = supply.Sub(lock)
		pool.TotalShares = supply
	} else {
		reserveA, reserveB, rerr := pool.Reserves(p.AssetA)
		if rerr != nil {
			return nil, rerr
		}
		amountA, amountB, err = optimalDeposit(p, reserveA, reserveB)
		if err != nil {
			return nil, err
		}
		shares = domain.ProportionalShares(amountA, amountB, reserveA, reserveB, pool.TotalShares)
		if !shares.IsPositive() {
			return nil, domain.ErrInsufficientLiquidityMinted
		}
		pool.TotalShares = pool.TotalShares.Add(shares)
	}

	amountLow, amountHigh := orientToKey(key, p.AssetA, amountA, amountB)
	pool.ReserveLow = pool.ReserveLow.Add(amountLow)
	pool.ReserveHigh = pool.ReserveHigh.Add(amountHigh)
	pool.UpdatedAt = nowUTC()

	pos := l.snapshotPosition(key, p.Depositor)
	pos.ShareAmount = pos.ShareAmount.Add(shares)
	pos.RecomputeRatio(pool.TotalShares)
	pos.UpdatedAt = pool.UpdatedAt

	return &LiquidityPlan{
		Key:      key,
		AssetA:   p.AssetA,
		AssetB:   p.AssetB,
		AmountA:  amountA,
		AmountB:  amountB,
		Shares:   shares,
		Pool:     pool,
		Position: pos,
		Events: []domain.Event{
			domain.NewLiquidityAddedEvent(key, p.Depositor, amountLow, amountHigh, shares),
		},
	}, nil
}

// optimalDeposit picks the deposit amounts that preserve the pool price,
// preferring to hold DesiredA fixed.
func optimalDeposit(p AddLiquidityParams, reserveA, reserveB sdkmath.Int) (amountA, amountB sdkmath.Int, err error) {
	optimalB, err := domain.Quote(p.DesiredA, reserveA, reserveB)
	if err != nil {
		return zeroInt(), zeroInt(), err
	}
	if optimalB.LTE(p.DesiredB) {
		if optimalB.LT(p.MinB) {
			return zeroInt(), zeroInt(), domain.ErrInsufficientAmount
		}
		return p.DesiredA, optimalB, nil
	}
	optimalA, err := domain.Quote(p.DesiredB, reserveB, reserveA)
	if err != nil {
		return zeroInt(), zeroInt(), err
	}
	if optimalA.GT(p.DesiredA) {
		return zeroInt(), zeroInt(), domain.ErrExcessiveInput
	}
	if optimalA.LT(p.MinA) {
		return zeroInt(), zeroInt(), domain.ErrInsufficientAmount
	}
	return optimalA, p.DesiredB, nil
}

// RemoveLiquidityParams carries a removeLiquidity request in the caller's
// asset order: MinA refers to AssetA, MinB to AssetB.
type RemoveLiquidityParams struct {
	AssetA, AssetB domain.AssetID
	Shares         sdkmath.Int
	MinA, MinB     sdkmath.Int
	Depositor      uuid.UUID
}

// PlanRemoveLiquidity validates and stages removeLiquidity: the withdrawal is
// strictly proportional to the depositor's live ShareAmount against the live
// share supply — the cached ShareRatio is never consulted.
func (l *Ledger) PlanRemoveLiquidity(p RemoveLiquidityParams) (*LiquidityPlan, error) {
	key, err := domain.NewPairKey(p.AssetA, p.AssetB)
	if err != nil {
		return nil, err
	}
	if !p.Shares.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if p.MinA.IsNegative() || p.MinB.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	pool, ok := l.snapshotPool(key)
	if !ok {
		return nil, domain.ErrPairNotFound
	}
	if pool.IsEmpty() {
		return nil, domain.ErrInsufficientLiquidity
	}

	pos := l.snapshotPosition(key, p.Depositor)
	if pos.ShareAmount.LT(p.Shares) {
		return nil, domain.ErrInsufficientShares
	}

	amountLow := p.Shares.Mul(pool.ReserveLow).Quo(pool.TotalShares)
	amountHigh := p.Shares.Mul(pool.ReserveHigh).Quo(pool.TotalShares)
	amountA, amountB := orientToCaller(key, p.AssetA, amountLow, amountHigh)
	if amountA.LT(p.MinA) || amountB.LT(p.MinB) {
		return nil, domain.ErrInsufficientAmount
	}

	pool.ReserveLow = pool.ReserveLow.Sub(amountLow)
	pool.ReserveHigh = pool.ReserveHigh.Sub(amountHigh)
	pool.TotalShares = pool.TotalShares.Sub(p.Shares)
	pool.UpdatedAt = nowUTC()

	pos.ShareAmount = pos.ShareAmount.Sub(p.Shares)
	pos.RecomputeRatio(pool.TotalShares)
	pos.UpdatedAt = pool.UpdatedAt

	return &LiquidityPlan{
		Key:      key,
		AssetA:   p.AssetA,
		AssetB:   p.AssetB,
		AmountA:  amountA,
		AmountB:  amountB,
		Shares:   p.Shares,
		Pool:     pool,
		Position: pos,
		Events: []domain.Event{
			domain.NewLiquidityRemovedEvent(key, p.Depositor, amountLow, amountHigh, p.Shares),
		},
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Multi-hop swap
// ──────────────────────────────────────────────────────────────────────────────

// SwapParams carries a multi-hop swap request.  Path lists ≥2 distinct asset
// identifiers; each consecutive pair addresses one pool.
type SwapParams struct {
	AmountIn     sdkmath.Int
	AmountOutMin sdkmath.Int
	Path         []domain.AssetID
	Trader       uuid.UUID
	Recipient    uuid.UUID
}

// SwapHop is one executed leg of a swap path.
type SwapHop struct {
	Key                domain.PairKey
	AssetIn, AssetOut  domain.AssetID
	AmountIn, AmountOut sdkmath.Int
}

// SwapPlan stages a whole swap chain.  Pools holds the post-state copy of
// every pool the path touches; if the plan is discarded none of the hops
// leave any trace.
type SwapPlan struct {
	AssetIn, AssetOut   domain.AssetID
	AmountIn, AmountOut sdkmath.Int
	Hops                []SwapHop
	Pools               []*domain.Pool
	Events              []domain.Event
}

// Commit returns the records Apply installs for this plan.
func (p *SwapPlan) Commit() Commit {
	return Commit{Pools: p.Pools}
}

// PlanSwap validates and stages swap(amountIn, amountOutMin, path, recipient).
// Each hop prices against the staged reserves left by the previous hop, so
// the whole chain is computed against one consistent snapshot.  The final
// output must meet AmountOutMin or the entire chain is discarded with
// ErrInsufficientOutputAmount.
func (l *Ledger) PlanSwap(p SwapParams) (*SwapPlan, error) {
	if len(p.Path) < 2 {
		return nil, domain.ErrInvalidPath
	}
	seen := make(map[domain.AssetID]bool, len(p.Path))
	for _, a := range p.Path {
		if err := a.Validate(); err != nil {
			return nil, err
		}
		if seen[a] {
			return nil, domain.ErrInvalidPath
		}
		seen[a] = true
	}
	if !p.AmountIn.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if p.AmountOutMin.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	feeBps := l.FeeBps()
	staged := make(map[domain.PairKey]*domain.Pool, len(p.Path)-1)
	plan := &SwapPlan{
		AssetIn:  p.Path[0],
		AssetOut: p.Path[len(p.Path)-1],
		AmountIn: p.AmountIn,
	}

	hopIn := p.AmountIn
	for i := 0; i+1 < len(p.Path); i++ {
		assetIn, assetOut := p.Path[i], p.Path[i+1]
		key, err := domain.NewPairKey(assetIn, assetOut)
		if err != nil {
			return nil, err
		}

		pool, ok := staged[key]
		if !ok {
			pool, ok = l.snapshotPool(key)
			if !ok {
				return nil, domain.ErrPairNotFound
			}
			staged[key] = pool
			plan.Pools = append(plan.Pools, pool)
		}

		reserveIn, reserveOut, err := pool.Reserves(assetIn)
		if err != nil {
			return nil, err
		}
		hopOut, err := domain.SwapOutput(hopIn, reserveIn, reserveOut, feeBps)
		if err != nil {
			return nil, err
		}
		if !hopOut.IsPositive() {
			return nil, domain.ErrInsufficientLiquidity
		}

		// The full input amount, fee included, stays in the pool.
		oldK := pool.ReserveLow.Mul(pool.ReserveHigh)
		if assetIn == key.Low {
			pool.ReserveLow = pool.ReserveLow.Add(hopIn)
			pool.ReserveHigh = pool.ReserveHigh.Sub(hopOut)
		} else {
			pool.ReserveHigh = pool.ReserveHigh.Add(hopIn)
			pool.ReserveLow = pool.ReserveLow.Sub(hopOut)
		}
		pool.UpdatedAt = nowUTC()
		if pool.ReserveLow.Mul(pool.ReserveHigh).LT(oldK) {
			return nil, domain.ErrInsufficientLiquidity
		}

		plan.Hops = append(plan.Hops, SwapHop{
			Key:       key,
			AssetIn:   assetIn,
			AssetOut:  assetOut,
			AmountIn:  hopIn,
			AmountOut: hopOut,
		})
		plan.Events = append(plan.Events,
			domain.NewSwapEvent(key, p.Trader, p.Recipient, assetIn, assetOut, hopIn, hopOut))
		hopIn = hopOut
	}

	plan.AmountOut = hopIn
	if plan.AmountOut.LT(p.AmountOutMin) {
		return nil, domain.ErrInsufficientOutputAmount
	}
	return plan, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Fee governance
// ──────────────────────────────────────────────────────────────────────────────

// FeePlan stages a fee-rate change.
type FeePlan struct {
	OldBps, NewBps int64
	Events         []domain.Event
}

// Commit returns the records Apply installs for this plan.
func (p *FeePlan) Commit() Commit {
	newBps := p.NewBps
	return Commit{FeeBps: &newBps}
}

// PlanSetFee validates and stages setFeeRate(newBps).  Authorization is the
// caller's responsibility; the ledger enforces only the numeric bounds.
func (l *Ledger) PlanSetFee(newBps int64, by uuid.UUID) (*FeePlan, error) {
	if newBps < 0 {
		return nil, domain.ErrInvalidAmount
	}
	if newBps > domain.MaxFeeBps {
		return nil, domain.ErrFeeTooHigh
	}
	old := l.FeeBps()
	return &FeePlan{
		OldBps: old,
		NewBps: newBps,
		Events: []domain.Event{domain.NewFeeUpdatedEvent(old, newBps, by)},
	}, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Orientation helpers
// ──────────────────────────────────────────────────────────────────────────────

// orientToKey maps caller-order amounts (for assetA) onto canonical
// (low, high) order.
func orientToKey(key domain.PairKey, assetA domain.AssetID, amountA, amountB sdkmath.Int) (low, high sdkmath.Int) {
	if assetA == key.Low {
		return amountA, amountB
	}
	return amountB, amountA
}

// orientToCaller maps canonical (low, high) amounts back onto the caller's
// asset order.
func orientToCaller(key domain.PairKey, assetA domain.AssetID, amountLow, amountHigh sdkmath.Int) (amountA, amountB sdkmath.Int) {
	if assetA == key.Low {
		return amountLow, amountHigh
	}
	return amountHigh, amountLow
}
