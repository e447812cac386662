package domain

import (
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// ──────────────────────────────────────────────────────────────────────────────
// Pricing constants
// ──────────────────────────────────────────────────────────────────────────────

const (
	// FeeDenominatorBps is the fixed basis-point denominator for all fee math.
	FeeDenominatorBps = 10_000

	// DefaultFeeBps is the swap fee applied when no override is configured (0.3%).
	DefaultFeeBps = 30

	// MaxFeeBps is the ceiling a fee update may never exceed (5%).
	MaxFeeBps = 500

	// MinimumLiquidityLock is the number of shares permanently withheld from the
	// first depositor of a pool, deterring share-price manipulation via tiny
	// first deposits.
	MinimumLiquidityLock = 1_000

	// ShareRatioDenominator scales a depositor's cached share ratio
	// (shareAmount/totalShares) into an integer.
	ShareRatioDenominator = 1_000_000
)

// ──────────────────────────────────────────────────────────────────────────────
// Pricing engine — pure integer math
//
// All amounts are non-negative integers in the asset's smallest unit.  Every
// division truncates toward zero, and the truncation direction always favors
// the pool over the trader so rounding can never leak value out of a pool.
// ──────────────────────────────────────────────────────────────────────────────

// Quote prices amountIn of the reserveIn asset in units of the reserveOut
// asset at the pool's current ratio, without any fee:
//
//	amountOut = floor(amountIn * reserveOut / reserveIn)
//
// Fails with ErrInvalidAmount when amountIn is zero or negative and with
// ErrInsufficientLiquidity when either reserve is zero.
func Quote(amountIn, reserveIn, reserveOut sdkmath.Int) (sdkmath.Int, error) {
	if !amountIn.IsPositive() {
		return sdkmath.ZeroInt(), ErrInvalidAmount
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return sdkmath.ZeroInt(), ErrInsufficientLiquidity
	}
	return amountIn.Mul(reserveOut).Quo(reserveIn), nil
}

// SwapOutput computes the output amount of a swap under the constant-product
// rule (x+Δx)(y−Δy) ≥ xy, with the fee deducted from the input:
//
//	ai        = amountIn * (FeeDenominatorBps − feeBps)
//	amountOut = floor(ai * reserveOut / (reserveIn * FeeDenominatorBps + ai))
//
// Fails with ErrInvalidAmount / ErrInsufficientLiquidity as Quote does.
func SwapOutput(amountIn, reserveIn, reserveOut sdkmath.Int, feeBps int64) (sdkmath.Int, error) {
	if !amountIn.IsPositive() {
		return sdkmath.ZeroInt(), ErrInvalidAmount
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return sdkmath.ZeroInt(), ErrInsufficientLiquidity
	}
	ai := amountIn.Mul(sdkmath.NewInt(FeeDenominatorBps - feeBps))
	numerator := ai.Mul(reserveOut)
	denominator := reserveIn.Mul(sdkmath.NewInt(FeeDenominatorBps)).Add(ai)
	return numerator.Quo(denominator), nil
}

// SwapInput computes the input amount required to receive exactly amountOut,
// the inverse of SwapOutput.  The result is rounded up by adding one after the
// truncating division so the pool never under-collects:
//
//	amountIn = floor(reserveIn * amountOut * FeeDenominatorBps /
//	                 ((reserveOut − amountOut) * (FeeDenominatorBps − feeBps))) + 1
//
// Fails with ErrInvalidAmount when amountOut is zero or negative, and with
// ErrInsufficientLiquidity when either reserve is zero or amountOut would
// drain the output reserve (amountOut >= reserveOut).
func SwapInput(amountOut, reserveIn, reserveOut sdkmath.Int, feeBps int64) (sdkmath.Int, error) {
	if !amountOut.IsPositive() {
		return sdkmath.ZeroInt(), ErrInvalidAmount
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return sdkmath.ZeroInt(), ErrInsufficientLiquidity
	}
	if amountOut.GTE(reserveOut) {
		return sdkmath.ZeroInt(), ErrInsufficientLiquidity
	}
	numerator := reserveIn.Mul(amountOut).Mul(sdkmath.NewInt(FeeDenominatorBps))
	denominator := reserveOut.Sub(amountOut).Mul(sdkmath.NewInt(FeeDenominatorBps - feeBps))
	return numerator.Quo(denominator).Add(sdkmath.OneInt()), nil
}

// InitialShares computes the share supply created by the first deposit into an
// empty pool: floor(sqrt(amountA*amountB)).  The depositor receives this minus
// MinimumLiquidityLock; the lock stays in totalShares forever.
func InitialShares(amountA, amountB sdkmath.Int) sdkmath.Int {
	product := new(big.Int).Mul(amountA.BigInt(), amountB.BigInt())
	return sdkmath.NewIntFromBigInt(new(big.Int).Sqrt(product))
}

// ProportionalShares computes the shares minted for a follow-up deposit:
//
//	min(amountA * totalShares / reserveA, amountB * totalShares / reserveB)
//
// Both divisions truncate, so the depositor can only be rounded down.
func ProportionalShares(amountA, amountB, reserveA, reserveB, totalShares sdkmath.Int) sdkmath.Int {
	sharesA := amountA.Mul(totalShares).Quo(reserveA)
	sharesB := amountB.Mul(totalShares).Quo(reserveB)
	return sdkmath.MinInt(sharesA, sharesB)
}
