package domain

import (
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
)

func i(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

func TestQuote(t *testing.T) {
	got, err := Quote(i(100), i(1000), i(2000))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !got.Equal(i(200)) {
		t.Fatalf("got %s, want 200", got)
	}

	// Truncation: 1 * 2 / 3 = 0.
	got, err = Quote(i(1), i(3), i(2))
	if err != nil {
		t.Fatalf("Quote: %v", err)
	}
	if !got.IsZero() {
		t.Fatalf("got %s, want 0", got)
	}

	if _, err := Quote(i(0), i(1000), i(1000)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero input: got %v", err)
	}
	if _, err := Quote(i(100), i(0), i(1000)); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("empty reserve: got %v", err)
	}
}

func TestSwapOutput(t *testing.T) {
	// Reference scenario: 1000/1000 reserves, 30 bps fee, 100 in.
	got, err := SwapOutput(i(100), i(1000), i(1000), 30)
	if err != nil {
		t.Fatalf("SwapOutput: %v", err)
	}
	if !got.Equal(i(90)) {
		t.Fatalf("got %s, want 90", got)
	}

	// Zero fee follows the bare constant-product curve:
	// floor(100*1000/1100) = 90 still, but a larger trade shows the difference.
	withFee, _ := SwapOutput(i(500), i(1000), i(1000), 30)
	noFee, err := SwapOutput(i(500), i(1000), i(1000), 0)
	if err != nil {
		t.Fatalf("SwapOutput: %v", err)
	}
	if !noFee.GT(withFee) {
		t.Fatalf("fee did not reduce output: %s vs %s", noFee, withFee)
	}
	if !noFee.Equal(i(333)) { // floor(500*1000/1500)
		t.Fatalf("no-fee output = %s, want 333", noFee)
	}

	// Output is always strictly below the output reserve.
	huge, err := SwapOutput(i(1_000_000_000), i(1000), i(1000), 30)
	if err != nil {
		t.Fatalf("SwapOutput: %v", err)
	}
	if !huge.LT(i(1000)) {
		t.Fatalf("output %s not below reserve", huge)
	}

	if _, err := SwapOutput(i(-5), i(1000), i(1000), 30); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("negative input: got %v", err)
	}
	if _, err := SwapOutput(i(100), i(1000), i(0), 30); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("empty reserve: got %v", err)
	}
}

func TestSwapInput(t *testing.T) {
	got, err := SwapInput(i(90), i(1000), i(1000), 30)
	if err != nil {
		t.Fatalf("SwapInput: %v", err)
	}
	// floor(1000*90*10000 / (910*9970)) + 1 = 99 + 1 = 100
	if !got.Equal(i(100)) {
		t.Fatalf("got %s, want 100", got)
	}

	if _, err := SwapInput(i(1000), i(1000), i(1000), 30); !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("drain reserve: got %v", err)
	}
	if _, err := SwapInput(i(0), i(1000), i(1000), 30); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero output: got %v", err)
	}
}

func TestSwapRoundingNeverFavorsTrader(t *testing.T) {
	reserveIn, reserveOut := i(123_457), i(987_653)
	for _, out := range []int64{1, 7, 999, 50_000, 123_456} {
		in, err := SwapInput(i(out), reserveIn, reserveOut, 30)
		if err != nil {
			t.Fatalf("SwapInput(%d): %v", out, err)
		}
		got, err := SwapOutput(in, reserveIn, reserveOut, 30)
		if err != nil {
			t.Fatalf("SwapOutput: %v", err)
		}
		if got.LT(i(out)) {
			t.Fatalf("input %s yields %s, want >= %d", in, got, out)
		}
	}
}

func TestInitialShares(t *testing.T) {
	if got := InitialShares(i(4), i(9)); !got.Equal(i(6)) {
		t.Fatalf("sqrt(36) = %s, want 6", got)
	}
	// floor on non-perfect squares.
	if got := InitialShares(i(2), i(3)); !got.Equal(i(2)) {
		t.Fatalf("floor(sqrt(6)) = %s, want 2", got)
	}
	// Large values stay exact through big.Int.
	big := sdkmath.NewIntWithDecimal(1, 18)
	if got := InitialShares(big, big); !got.Equal(big) {
		t.Fatalf("sqrt(1e36) = %s, want 1e18", got)
	}
}

func TestProportionalShares(t *testing.T) {
	// Balanced deposit mints proportionally.
	got := ProportionalShares(i(100), i(200), i(1000), i(2000), i(500))
	if !got.Equal(i(50)) {
		t.Fatalf("got %s, want 50", got)
	}
	// Unbalanced deposit is clamped to the lesser side.
	got = ProportionalShares(i(100), i(100), i(1000), i(2000), i(500))
	if !got.Equal(i(25)) {
		t.Fatalf("got %s, want 25", got)
	}
}
