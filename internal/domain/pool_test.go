package domain

import (
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

func fundedPool(t *testing.T, low, high, shares int64) *Pool {
	t.Helper()
	key, err := NewPairKey("atom", "usdc")
	if err != nil {
		t.Fatalf("NewPairKey: %v", err)
	}
	now := time.Now().UTC()
	return &Pool{
		Key:         key,
		ReserveLow:  sdkmath.NewInt(low),
		ReserveHigh: sdkmath.NewInt(high),
		TotalShares: sdkmath.NewInt(shares),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestPoolReservesOrientation(t *testing.T) {
	p := fundedPool(t, 1000, 2000, 1000)

	in, out, err := p.Reserves("atom")
	if err != nil {
		t.Fatalf("Reserves: %v", err)
	}
	if !in.Equal(sdkmath.NewInt(1000)) || !out.Equal(sdkmath.NewInt(2000)) {
		t.Fatalf("low side: %s/%s", in, out)
	}

	in, out, err = p.Reserves("usdc")
	if err != nil {
		t.Fatalf("Reserves: %v", err)
	}
	if !in.Equal(sdkmath.NewInt(2000)) || !out.Equal(sdkmath.NewInt(1000)) {
		t.Fatalf("high side: %s/%s", in, out)
	}

	if _, _, err := p.Reserves("btc"); !errors.Is(err, ErrPairNotFound) {
		t.Fatalf("non-member: got %v", err)
	}
}

func TestPoolInvariant(t *testing.T) {
	empty := NewPool(PairKey{Low: "atom", High: "usdc"}, time.Now().UTC())
	if !empty.CheckInvariant() || !empty.IsEmpty() {
		t.Fatal("fresh pool should be empty and valid")
	}

	if !fundedPool(t, 1000, 2000, 1000).CheckInvariant() {
		t.Fatal("funded pool should be valid")
	}
	// Shares without reserves, or reserves without shares, are both invalid.
	if fundedPool(t, 0, 0, 1000).CheckInvariant() {
		t.Fatal("shares with no reserves must fail")
	}
	if fundedPool(t, 1000, 1000, 0).CheckInvariant() {
		t.Fatal("reserves with no shares must fail")
	}
}

func TestPoolCloneIsolation(t *testing.T) {
	p := fundedPool(t, 1000, 2000, 1000)
	c := p.Clone()
	c.ReserveLow = c.ReserveLow.Add(sdkmath.NewInt(500))
	if !p.ReserveLow.Equal(sdkmath.NewInt(1000)) {
		t.Fatalf("clone mutated original: %s", p.ReserveLow)
	}
}

func TestPositionRecomputeRatio(t *testing.T) {
	pos := &Position{
		Key:         PairKey{Low: "atom", High: "usdc"},
		Depositor:   uuid.New(),
		ShareAmount: sdkmath.NewInt(250),
	}
	pos.RecomputeRatio(sdkmath.NewInt(1000))
	if want := sdkmath.NewInt(250_000); !pos.ShareRatio.Equal(want) {
		t.Fatalf("ratio = %s, want %s", pos.ShareRatio, want)
	}
	if got := pos.SharePercent().String(); got != "25" {
		t.Fatalf("percent = %s, want 25", got)
	}

	pos.ShareAmount = sdkmath.ZeroInt()
	pos.RecomputeRatio(sdkmath.NewInt(1000))
	if !pos.ShareRatio.IsZero() {
		t.Fatalf("zeroed position ratio = %s", pos.ShareRatio)
	}
}

func TestPoolToSummary(t *testing.T) {
	p := fundedPool(t, 1000, 2500, 1000)
	s := p.ToSummary()
	if s.Pair != "atom/usdc" {
		t.Fatalf("pair = %q", s.Pair)
	}
	if s.SpotPriceLow.String() != "2.5" {
		t.Fatalf("spot price = %s, want 2.5", s.SpotPriceLow)
	}

	empty := NewPool(p.Key, time.Now().UTC())
	if !empty.ToSummary().SpotPriceLow.IsZero() {
		t.Fatal("empty pool should have zero spot price")
	}
}
