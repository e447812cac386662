package domain

import (
	"errors"
)

// ──────────────────────────────────────────────────────────────────────────────
// Sentinel errors — compare with errors.Is()
// ──────────────────────────────────────────────────────────────────────────────

// Pair / pool errors
var (
	// ErrIdenticalAssets is returned when both sides of a pair are the same asset.
	ErrIdenticalAssets = errors.New("pair assets must be distinct")

	// ErrNullAsset is returned when the null (empty) asset appears in a pair.
	ErrNullAsset = errors.New("pair may not contain the null asset")

	// ErrInvalidAsset is returned when an asset identifier is malformed.
	ErrInvalidAsset = errors.New("invalid asset identifier")

	// ErrPairExists is returned by createPair when the canonical pair is already
	// registered.
	ErrPairExists = errors.New("pair already exists")

	// ErrPairNotFound is returned when no pool exists for the canonical pair.
	ErrPairNotFound = errors.New("pair does not exist")
)

// Pricing / liquidity errors
var (
	// ErrInvalidAmount is returned when an amount is zero or negative where a
	// strictly positive amount is required.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrInsufficientLiquidity is returned when a pool reserve is zero (or would
	// be fully drained) and therefore cannot price the request.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity in pool")

	// ErrInsufficientLiquidityMinted is returned when an addLiquidity would mint
	// zero or fewer shares, including a first deposit too small to clear the
	// minimum liquidity lock.
	ErrInsufficientLiquidityMinted = errors.New("insufficient liquidity minted")

	// ErrInsufficientAmount is returned when a computed amount falls below the
	// caller's slippage minimum.
	ErrInsufficientAmount = errors.New("amount below caller minimum")

	// ErrExcessiveInput is returned when the optimal deposit for one side
	// exceeds both desired amounts.
	ErrExcessiveInput = errors.New("required input exceeds desired amount")

	// ErrInsufficientShares is returned when a depositor tries to redeem more
	// shares than their recorded position holds.
	ErrInsufficientShares = errors.New("insufficient liquidity shares")
)

// Swap errors
var (
	// ErrInvalidPath is returned when a swap path has fewer than two assets or
	// repeats an asset.
	ErrInvalidPath = errors.New("swap path must list at least two distinct assets")

	// ErrInsufficientOutputAmount is returned when the final hop's output falls
	// below the caller's amountOutMin bound.
	ErrInsufficientOutputAmount = errors.New("output amount below minimum")
)

// Administration errors
var (
	// ErrFeeTooHigh is returned when a fee update exceeds the fixed ceiling.
	ErrFeeTooHigh = errors.New("fee rate exceeds ceiling")
)

// Concurrency errors
var (
	// ErrReentrantCall is returned when a state-mutating operation is invoked
	// while another is still in flight.
	ErrReentrantCall = errors.New("reentrant call: another operation is in flight")
)

// Transfer collaborator errors
var (
	// ErrTransferFailed is returned when the asset transfer service cannot
	// complete a pull or push.  The underlying cause is wrapped.
	ErrTransferFailed = errors.New("asset transfer failed")

	// ErrInsufficientBalance is returned when a holder's balance is too low to
	// cover a pull or withdrawal.
	ErrInsufficientBalance = errors.New("insufficient asset balance")

	// ErrAccountNotFound is returned when no account matches the given criteria.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEmailTaken is returned on registration when the email already exists.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrUsernameTaken is returned on registration when the username is in use.
	ErrUsernameTaken = errors.New("username is already taken")
)

// Auth errors
var (
	// ErrUnauthorized is returned when a valid token is not present.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller lacks the required role.
	ErrForbidden = errors.New("forbidden: insufficient permissions")

	// ErrInvalidCredentials is returned when login credentials are wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountInactive is returned when a suspended account attempts an action.
	ErrAccountInactive = errors.New("account is inactive")

	// ErrTokenInvalid is returned when a token cannot be parsed or its signature
	// does not match.
	ErrTokenInvalid = errors.New("token is invalid")
)

// ──────────────────────────────────────────────────────────────────────────────
// Helper predicates
// ──────────────────────────────────────────────────────────────────────────────

// notFoundErrors collects all "entity not found" sentinel errors so that
// IsNotFound can stay in sync automatically.
var notFoundErrors = []error{
	ErrPairNotFound,
	ErrAccountNotFound,
}

// IsNotFound returns true when err (or any error in its chain) is one of the
// domain "not found" errors.  Use this when translating domain errors to
// HTTP 404 responses.
func IsNotFound(err error) bool {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsValidation returns true for input-validation failures detected before any
// state mutation.
func IsValidation(err error) bool {
	validationErrors := []error{
		ErrIdenticalAssets,
		ErrNullAsset,
		ErrInvalidAsset,
		ErrInvalidAmount,
		ErrInvalidPath,
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsConflict returns true for errors that represent a state conflict between
// the request and the current ledger (the caller may retry with fresh inputs).
func IsConflict(err error) bool {
	conflictErrors := []error{
		ErrPairExists,
		ErrInsufficientLiquidity,
		ErrInsufficientLiquidityMinted,
		ErrInsufficientAmount,
		ErrExcessiveInput,
		ErrInsufficientShares,
		ErrInsufficientOutputAmount,
		ErrReentrantCall,
	}
	for _, target := range conflictErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsAuthError returns true for authentication/authorisation errors.
func IsAuthError(err error) bool {
	authErrors := []error{
		ErrUnauthorized,
		ErrForbidden,
		ErrInvalidCredentials,
		ErrTokenInvalid,
		ErrAccountInactive,
	}
	for _, target := range authErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
