package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ──────────────────────────────────────────────────────────────────────────────
// Pool
// ──────────────────────────────────────────────────────────────────────────────

// Pool holds the reserve and share state of one canonical asset pair.
// Pools are created by createPair and never deleted; reserves may return to
// zero only while no shares are outstanding.
//
// Invariant: ReserveLow == 0 && ReserveHigh == 0  iff  TotalShares == 0;
// both reserves are strictly positive whenever TotalShares > 0.
type Pool struct {
	Key         PairKey     `json:"key"`
	ReserveLow  sdkmath.Int `json:"reserve_low"`  // pooled balance of Key.Low
	ReserveHigh sdkmath.Int `json:"reserve_high"` // pooled balance of Key.High
	TotalShares sdkmath.Int `json:"total_shares"` // sum of all depositor shares plus the lock
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewPool returns a zeroed pool for the given canonical key.
func NewPool(key PairKey, now time.Time) *Pool {
	return &Pool{
		Key:         key,
		ReserveLow:  sdkmath.ZeroInt(),
		ReserveHigh: sdkmath.ZeroInt(),
		TotalShares: sdkmath.ZeroInt(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsEmpty reports whether the pool has no outstanding shares.
func (p *Pool) IsEmpty() bool {
	return p.TotalShares.IsZero()
}

// Reserves returns (reserveIn, reserveOut) oriented for a swap that pays in
// the given asset.  Fails with ErrPairNotFound when assetIn is not a member
// of the pair.
func (p *Pool) Reserves(assetIn AssetID) (reserveIn, reserveOut sdkmath.Int, err error) {
	switch assetIn {
	case p.Key.Low:
		return p.ReserveLow, p.ReserveHigh, nil
	case p.Key.High:
		return p.ReserveHigh, p.ReserveLow, nil
	}
	return sdkmath.ZeroInt(), sdkmath.ZeroInt(), ErrPairNotFound
}

// CheckInvariant verifies the zero-coupling rule between reserves and shares.
func (p *Pool) CheckInvariant() bool {
	if p.TotalShares.IsZero() {
		return p.ReserveLow.IsZero() && p.ReserveHigh.IsZero()
	}
	return p.ReserveLow.IsPositive() && p.ReserveHigh.IsPositive()
}

// Clone returns a deep copy safe to mutate in a staged plan.
func (p *Pool) Clone() *Pool {
	cp := *p
	return &cp
}

// ──────────────────────────────────────────────────────────────────────────────
// Position
// ──────────────────────────────────────────────────────────────────────────────

// Position records one depositor's ownership of one pool.
//
// ShareRatio is the depositor's fraction of TotalShares scaled by
// ShareRatioDenominator, recomputed only when this depositor's own
// ShareAmount changes.  It drifts stale when other depositors move
// TotalShares, so it is informational metadata only: withdrawal math always
// uses the live ShareAmount against the live pool state, never this cache.
type Position struct {
	Key         PairKey     `json:"key"`
	Depositor   uuid.UUID   `json:"depositor"`
	ShareAmount sdkmath.Int `json:"share_amount"`
	ShareRatio  sdkmath.Int `json:"share_ratio"` // scaled by ShareRatioDenominator
	UpdatedAt   time.Time   `json:"updated_at"`
}

// RecomputeRatio refreshes the cached ShareRatio against the given share
// supply.  A zeroed position always carries a zero ratio.
func (pos *Position) RecomputeRatio(totalShares sdkmath.Int) {
	if pos.ShareAmount.IsZero() || totalShares.IsZero() {
		pos.ShareRatio = sdkmath.ZeroInt()
		return
	}
	pos.ShareRatio = pos.ShareAmount.Mul(sdkmath.NewInt(ShareRatioDenominator)).Quo(totalShares)
}

// Clone returns a deep copy safe to mutate in a staged plan.
func (pos *Position) Clone() *Position {
	cp := *pos
	return &cp
}

// SharePercent renders the cached ratio as a human-readable percentage.
func (pos *Position) SharePercent() decimal.Decimal {
	return decimal.NewFromBigInt(pos.ShareRatio.BigInt(), 0).
		Div(decimal.NewFromInt(ShareRatioDenominator)).
		Mul(decimal.NewFromInt(100))
}

// ──────────────────────────────────────────────────────────────────────────────
// PoolSummary — lightweight read model for WS broadcasts and list endpoints
// ──────────────────────────────────────────────────────────────────────────────

// PoolSummary is a derived, read-only view of a Pool used for broadcasting.
type PoolSummary struct {
	Pair         string          `json:"pair"`
	AssetLow     AssetID         `json:"asset_low"`
	AssetHigh    AssetID         `json:"asset_high"`
	ReserveLow   sdkmath.Int     `json:"reserve_low"`
	ReserveHigh  sdkmath.Int     `json:"reserve_high"`
	TotalShares  sdkmath.Int     `json:"total_shares"`
	SpotPriceLow decimal.Decimal `json:"spot_price_low"` // high units per one low unit
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ToSummary builds a PoolSummary with a decimal spot price for display.
// The spot price is zero while the pool is empty.
func (p *Pool) ToSummary() PoolSummary {
	s := PoolSummary{
		Pair:        p.Key.String(),
		AssetLow:    p.Key.Low,
		AssetHigh:   p.Key.High,
		ReserveLow:  p.ReserveLow,
		ReserveHigh: p.ReserveHigh,
		TotalShares: p.TotalShares,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.ReserveLow.IsPositive() {
		s.SpotPriceLow = decimal.NewFromBigInt(p.ReserveHigh.BigInt(), 0).
			Div(decimal.NewFromBigInt(p.ReserveLow.BigInt(), 0)).
			Round(8)
	} else {
		s.SpotPriceLow = decimal.Zero
	}
	return s
}
