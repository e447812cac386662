package ledger

import (
	"errors"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"

	"github.com/evetabi/amm/internal/domain"
)

func newInt(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

// seedPool installs a funded pool directly, bypassing the deposit path, so
// pricing scenarios can pin exact reserves.
func seedPool(t *testing.T, l *Ledger, a, b domain.AssetID, rA, rB, shares int64) domain.PairKey {
	t.Helper()
	key, err := domain.NewPairKey(a, b)
	if err != nil {
		t.Fatalf("NewPairKey: %v", err)
	}
	low, high := orientToKey(key, a, newInt(rA), newInt(rB))
	now := time.Now().UTC()
	l.Restore([]*domain.Pool{{
		Key:         key,
		ReserveLow:  low,
		ReserveHigh: high,
		TotalShares: newInt(shares),
		CreatedAt:   now,
		UpdatedAt:   now,
	}}, nil, 0)
	return key
}

func TestCreatePairCanonicalOrdering(t *testing.T) {
	l := New()

	plan, err := l.PlanCreatePair("usdc", "atom")
	if err != nil {
		t.Fatalf("PlanCreatePair: %v", err)
	}
	if plan.Pool.Key.Low != "atom" || plan.Pool.Key.High != "usdc" {
		t.Fatalf("key not canonical: %+v", plan.Pool.Key)
	}
	l.Apply(plan.Commit())

	// Both argument orders address the same pair.
	if _, err := l.PlanCreatePair("atom", "usdc"); !errors.Is(err, domain.ErrPairExists) {
		t.Fatalf("want ErrPairExists, got %v", err)
	}
	if _, err := l.PlanCreatePair("usdc", "atom"); !errors.Is(err, domain.ErrPairExists) {
		t.Fatalf("want ErrPairExists, got %v", err)
	}
}

func TestCreatePairRejectsMalformed(t *testing.T) {
	l := New()
	if _, err := l.PlanCreatePair("atom", "atom"); !errors.Is(err, domain.ErrIdenticalAssets) {
		t.Fatalf("identical: got %v", err)
	}
	if _, err := l.PlanCreatePair("", "atom"); !errors.Is(err, domain.ErrNullAsset) {
		t.Fatalf("null: got %v", err)
	}
	if _, err := l.PlanCreatePair("ATOM!", "usdc"); !errors.Is(err, domain.ErrInvalidAsset) {
		t.Fatalf("invalid: got %v", err)
	}
}

func TestAddLiquidityFirstDepositLock(t *testing.T) {
	l := New()
	plan, err := l.PlanCreatePair("atom", "usdc")
	if err != nil {
		t.Fatalf("PlanCreatePair: %v", err)
	}
	l.Apply(plan.Commit())

	dep := uuid.New()

	// sqrt(1000*1000) = 1000 does not clear the permanent lock.
	_, err = l.PlanAddLiquidity(AddLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		DesiredA: newInt(1000), DesiredB: newInt(1000),
		MinA: newInt(0), MinB: newInt(0),
		Depositor: dep,
	})
	if !errors.Is(err, domain.ErrInsufficientLiquidityMinted) {
		t.Fatalf("want ErrInsufficientLiquidityMinted, got %v", err)
	}

	// A deposit that clears the lock mints sqrt(a*b) - lock shares.
	lp, err := l.PlanAddLiquidity(AddLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		DesiredA: newInt(2_000_000), DesiredB: newInt(2_000_000),
		MinA: newInt(0), MinB: newInt(0),
		Depositor: dep,
	})
	if err != nil {
		t.Fatalf("PlanAddLiquidity: %v", err)
	}
	if want := newInt(1_999_000); !lp.Shares.Equal(want) {
		t.Fatalf("shares = %s, want %s", lp.Shares, want)
	}
	if want := newInt(2_000_000); !lp.Pool.TotalShares.Equal(want) {
		t.Fatalf("total shares = %s, want %s", lp.Pool.TotalShares, want)
	}
	l.Apply(lp.Commit())

	pos, err := l.Position(lp.Key, dep)
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if !pos.ShareAmount.Equal(newInt(1_999_000)) {
		t.Fatalf("position shares = %s", pos.ShareAmount)
	}
}

func TestAddLiquidityOptimalAmounts(t *testing.T) {
	l := New()
	seedPool(t, l, "atom", "usdc", 1_000_000, 2_000_000, 1_000_000)
	dep := uuid.New()

	// Pool price is 1 atom : 2 usdc, so only half the desired usdc is taken.
	lp, err := l.PlanAddLiquidity(AddLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		DesiredA: newInt(10_000), DesiredB: newInt(40_000),
		MinA: newInt(0), MinB: newInt(0),
		Depositor: dep,
	})
	if err != nil {
		t.Fatalf("PlanAddLiquidity: %v", err)
	}
	if !lp.AmountA.Equal(newInt(10_000)) || !lp.AmountB.Equal(newInt(20_000)) {
		t.Fatalf("amounts = %s/%s, want 10000/20000", lp.AmountA, lp.AmountB)
	}

	// MinB above the quoted amount rejects the deposit.
	_, err = l.PlanAddLiquidity(AddLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		DesiredA: newInt(10_000), DesiredB: newInt(40_000),
		MinA: newInt(0), MinB: newInt(20_001),
		Depositor: dep,
	})
	if !errors.Is(err, domain.ErrInsufficientAmount) {
		t.Fatalf("want ErrInsufficientAmount, got %v", err)
	}

	// Desired amounts on the other side of the price: A is scaled down.
	lp, err = l.PlanAddLiquidity(AddLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		DesiredA: newInt(10_000), DesiredB: newInt(10_000),
		MinA: newInt(0), MinB: newInt(0),
		Depositor: dep,
	})
	if err != nil {
		t.Fatalf("PlanAddLiquidity: %v", err)
	}
	if !lp.AmountA.Equal(newInt(5_000)) || !lp.AmountB.Equal(newInt(10_000)) {
		t.Fatalf("amounts = %s/%s, want 5000/10000", lp.AmountA, lp.AmountB)
	}
}

func TestRemoveLiquidityConservation(t *testing.T) {
	l := New()
	cp, err := l.PlanCreatePair("atom", "usdc")
	if err != nil {
		t.Fatalf("PlanCreatePair: %v", err)
	}
	l.Apply(cp.Commit())

	dep := uuid.New()
	add, err := l.PlanAddLiquidity(AddLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		DesiredA: newInt(2_000_000), DesiredB: newInt(2_000_000),
		MinA: newInt(0), MinB: newInt(0),
		Depositor: dep,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	l.Apply(add.Commit())

	rm, err := l.PlanRemoveLiquidity(RemoveLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		Shares: add.Shares,
		MinA:   newInt(0), MinB: newInt(0),
		Depositor: dep,
	})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	// Withdrawal never exceeds the deposit: the locked shares keep a residue.
	if rm.AmountA.GT(add.AmountA) || rm.AmountB.GT(add.AmountB) {
		t.Fatalf("withdrew %s/%s, deposited %s/%s", rm.AmountA, rm.AmountB, add.AmountA, add.AmountB)
	}
	l.Apply(rm.Commit())

	pool, err := l.Pool(rm.Key)
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if !pool.TotalShares.Equal(newInt(domain.MinimumLiquidityLock)) {
		t.Fatalf("residual shares = %s, want %d", pool.TotalShares, domain.MinimumLiquidityLock)
	}
	if !pool.CheckInvariant() {
		t.Fatalf("invariant broken: %+v", pool)
	}
}

func TestRemoveLiquidityInsufficientShares(t *testing.T) {
	l := New()
	seedPool(t, l, "atom", "usdc", 1_000_000, 1_000_000, 1_000_000)

	_, err := l.PlanRemoveLiquidity(RemoveLiquidityParams{
		AssetA: "atom", AssetB: "usdc",
		Shares: newInt(1),
		MinA:   newInt(0), MinB: newInt(0),
		Depositor: uuid.New(),
	})
	if !errors.Is(err, domain.ErrInsufficientShares) {
		t.Fatalf("want ErrInsufficientShares, got %v", err)
	}
}

func TestSwapKnownScenario(t *testing.T) {
	l := New()
	seedPool(t, l, "atom", "usdc", 1000, 1000, 1000)

	plan, err := l.PlanSwap(SwapParams{
		AmountIn:     newInt(100),
		AmountOutMin: newInt(0),
		Path:         []domain.AssetID{"atom", "usdc"},
		Trader:       uuid.New(),
		Recipient:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("PlanSwap: %v", err)
	}
	// floor(100*9970*1000 / (1000*10000 + 100*9970)) = 90
	if !plan.AmountOut.Equal(newInt(90)) {
		t.Fatalf("amountOut = %s, want 90", plan.AmountOut)
	}
	l.Apply(plan.Commit())

	pool, err := l.Pool(plan.Hops[0].Key)
	if err != nil {
		t.Fatalf("Pool: %v", err)
	}
	if !pool.ReserveLow.Equal(newInt(1100)) || !pool.ReserveHigh.Equal(newInt(910)) {
		t.Fatalf("reserves = %s/%s, want 1100/910", pool.ReserveLow, pool.ReserveHigh)
	}
	// The fee leaves k strictly higher than before.
	if k := pool.ReserveLow.Mul(pool.ReserveHigh); !k.GT(newInt(1_000_000)) {
		t.Fatalf("k = %s, want > 1000000", k)
	}
}

func TestSwapInputRoundTrip(t *testing.T) {
	reserveIn, reserveOut := newInt(1000), newInt(1000)

	out, err := domain.SwapOutput(newInt(100), reserveIn, reserveOut, 30)
	if err != nil {
		t.Fatalf("SwapOutput: %v", err)
	}
	in, err := domain.SwapInput(out, reserveIn, reserveOut, 30)
	if err != nil {
		t.Fatalf("SwapInput: %v", err)
	}
	// The round-up inverse never asks for less than an input that yields out.
	got, err := domain.SwapOutput(in, reserveIn, reserveOut, 30)
	if err != nil {
		t.Fatalf("SwapOutput: %v", err)
	}
	if got.LT(out) {
		t.Fatalf("SwapOutput(SwapInput(%s)) = %s, want >= %s", out, got, out)
	}
}

func TestSwapMultiHop(t *testing.T) {
	l := New()
	now := time.Now().UTC()
	var pools []*domain.Pool
	for _, pair := range [][2]domain.AssetID{{"atom", "btc"}, {"btc", "usdc"}, {"eth", "usdc"}} {
		key, err := domain.NewPairKey(pair[0], pair[1])
		if err != nil {
			t.Fatalf("NewPairKey: %v", err)
		}
		pools = append(pools, &domain.Pool{
			Key:         key,
			ReserveLow:  newInt(1_000_000),
			ReserveHigh: newInt(1_000_000),
			TotalShares: newInt(1_000_000),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	l.Restore(pools, nil, 0)

	path := []domain.AssetID{"atom", "btc", "usdc", "eth"}
	plan, err := l.PlanSwap(SwapParams{
		AmountIn:     newInt(1000),
		AmountOutMin: newInt(0),
		Path:         path,
		Trader:       uuid.New(),
		Recipient:    uuid.New(),
	})
	if err != nil {
		t.Fatalf("PlanSwap: %v", err)
	}
	if len(plan.Hops) != 3 {
		t.Fatalf("hops = %d, want 3", len(plan.Hops))
	}
	// Each hop feeds the next; fees shrink the amount at every leg.
	prev := newInt(1000)
	for i, hop := range plan.Hops {
		if !hop.AmountIn.Equal(prev) {
			t.Fatalf("hop %d in = %s, want %s", i, hop.AmountIn, prev)
		}
		if !hop.AmountOut.IsPositive() || hop.AmountOut.GTE(hop.AmountIn) {
			t.Fatalf("hop %d out = %s for in %s", i, hop.AmountOut, hop.AmountIn)
		}
		prev = hop.AmountOut
	}
	if !plan.AmountOut.Equal(prev) {
		t.Fatalf("plan out = %s, want %s", plan.AmountOut, prev)
	}
	l.Apply(plan.Commit())
	for _, hop := range plan.Hops {
		pool, err := l.Pool(hop.Key)
		if err != nil {
			t.Fatalf("Pool: %v", err)
		}
		if pool.ReserveLow.Equal(newInt(1_000_000)) && pool.ReserveHigh.Equal(newInt(1_000_000)) {
			t.Fatalf("pool %s untouched after applied swap", hop.Key)
		}
	}
}

func TestSwapChainDiscardedAtomically(t *testing.T) {
	l := New()
	now := time.Now().UTC()
	var pools []*domain.Pool
	for _, pair := range [][2]domain.AssetID{{"atom", "btc"}, {"btc", "usdc"}} {
		key, _ := domain.NewPairKey(pair[0], pair[1])
		pools = append(pools, &domain.Pool{
			Key:         key,
			ReserveLow:  newInt(1_000_000),
			ReserveHigh: newInt(1_000_000),
			TotalShares: newInt(1_000_000),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	l.Restore(pools, nil, 0)

	// Final hop misses the minimum: the whole chain must leave no trace.
	_, err := l.PlanSwap(SwapParams{
		AmountIn:     newInt(1000),
		AmountOutMin: newInt(1_000_000),
		Path:         []domain.AssetID{"atom", "btc", "usdc"},
		Trader:       uuid.New(),
		Recipient:    uuid.New(),
	})
	if !errors.Is(err, domain.ErrInsufficientOutputAmount) {
		t.Fatalf("want ErrInsufficientOutputAmount, got %v", err)
	}
	for _, p := range pools {
		got, err := l.Pool(p.Key)
		if err != nil {
			t.Fatalf("Pool: %v", err)
		}
		if !got.ReserveLow.Equal(newInt(1_000_000)) || !got.ReserveHigh.Equal(newInt(1_000_000)) {
			t.Fatalf("pool %s mutated by discarded plan: %s/%s", p.Key, got.ReserveLow, got.ReserveHigh)
		}
	}
}

func TestSwapPathValidation(t *testing.T) {
	l := New()
	seedPool(t, l, "atom", "usdc", 1_000_000, 1_000_000, 1_000_000)

	cases := []struct {
		name string
		path []domain.AssetID
		want error
	}{
		{"single asset", []domain.AssetID{"atom"}, domain.ErrInvalidPath},
		{"empty", nil, domain.ErrInvalidPath},
		{"repeated asset", []domain.AssetID{"atom", "usdc", "atom"}, domain.ErrInvalidPath},
		{"unknown pair", []domain.AssetID{"atom", "btc"}, domain.ErrPairNotFound},
		{"invalid asset", []domain.AssetID{"atom", "USDC"}, domain.ErrInvalidAsset},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.PlanSwap(SwapParams{
				AmountIn:     newInt(100),
				AmountOutMin: newInt(0),
				Path:         tc.path,
				Trader:       uuid.New(),
				Recipient:    uuid.New(),
			})
			if !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSetFeeBounds(t *testing.T) {
	l := New()
	admin := uuid.New()

	if _, err := l.PlanSetFee(-1, admin); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("negative: got %v", err)
	}
	if _, err := l.PlanSetFee(domain.MaxFeeBps+1, admin); !errors.Is(err, domain.ErrFeeTooHigh) {
		t.Fatalf("too high: got %v", err)
	}

	plan, err := l.PlanSetFee(100, admin)
	if err != nil {
		t.Fatalf("PlanSetFee: %v", err)
	}
	if plan.OldBps != domain.DefaultFeeBps || plan.NewBps != 100 {
		t.Fatalf("plan = %+v", plan)
	}
	if len(plan.Events) != 1 {
		t.Fatalf("events = %d, want 1", len(plan.Events))
	}
	ev := plan.Events[0]
	if ev.Type != domain.EventFeeUpdated {
		t.Fatalf("event type = %q", ev.Type)
	}
	if ev.Attributes[domain.AttrActor] != admin.String() {
		t.Fatalf("actor = %q, want %q", ev.Attributes[domain.AttrActor], admin)
	}
	if ev.Attributes[domain.AttrNewFeeBps] != "100" {
		t.Fatalf("new_fee_bps = %q", ev.Attributes[domain.AttrNewFeeBps])
	}
	l.Apply(plan.Commit())
	if got := l.FeeBps(); got != 100 {
		t.Fatalf("FeeBps = %d, want 100", got)
	}

	// Zero disables the fee entirely.
	plan, err = l.PlanSetFee(0, admin)
	if err != nil {
		t.Fatalf("PlanSetFee(0): %v", err)
	}
	l.Apply(plan.Commit())
	if got := l.FeeBps(); got != 0 {
		t.Fatalf("FeeBps = %d, want 0", got)
	}
}

func TestOperationGuard(t *testing.T) {
	l := New()

	release, err := l.Begin()
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := l.Begin(); !errors.Is(err, domain.ErrReentrantCall) {
		t.Fatalf("overlapping Begin: got %v", err)
	}
	release()
	release2, err := l.Begin()
	if err != nil {
		t.Fatalf("Begin after release: %v", err)
	}
	release2()
}

func TestPositionZeroForUnknownDepositor(t *testing.T) {
	l := New()
	key := seedPool(t, l, "atom", "usdc", 1_000_000, 1_000_000, 1_000_000)

	pos, err := l.Position(key, uuid.New())
	if err != nil {
		t.Fatalf("Position: %v", err)
	}
	if !pos.ShareAmount.IsZero() || !pos.ShareRatio.IsZero() {
		t.Fatalf("expected zero position, got %+v", pos)
	}

	other, _ := domain.NewPairKey("btc", "eth")
	if _, err := l.Position(other, uuid.New()); !errors.Is(err, domain.ErrPairNotFound) {
		t.Fatalf("unknown pair: got %v", err)
	}
}
