package domain

import (
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
)

// ──────────────────────────────────────────────────────────────────────────────
// Roles
// ──────────────────────────────────────────────────────────────────────────────

// Role is the authorisation tier of an account.
type Role string

const (
	// RoleTrader is the default tier: liquidity and swap operations.
	RoleTrader Role = "trader"
	// RoleAdmin may change the fee parameter and credit deposits.
	RoleAdmin Role = "admin"
)

// ──────────────────────────────────────────────────────────────────────────────
// Account
// ──────────────────────────────────────────────────────────────────────────────

// Account is an external holder of assets: a depositor or trader identity.
type Account struct {
	ID           uuid.UUID `json:"id"            db:"id"`
	Email        string    `json:"email"         db:"email"`
	Username     string    `json:"username"      db:"username"`
	PasswordHash string    `json:"-"             db:"password_hash"`
	Role         Role      `json:"role"          db:"role"`
	IsActive     bool      `json:"is_active"     db:"is_active"`
	CreatedAt    time.Time `json:"created_at"    db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"    db:"updated_at"`
}

// ──────────────────────────────────────────────────────────────────────────────
// Balance
// ──────────────────────────────────────────────────────────────────────────────

// HolderCustody marks balance rows held by the venue itself (pooled reserves).
// Account rows use the holder's account UUID.
const HolderCustody = "custody"

// Balance is one (holder, asset) row in the asset transfer ledger.
// Holder is either an account UUID string or HolderCustody.
type Balance struct {
	Holder    string      `json:"holder"     db:"holder"`
	Asset     AssetID     `json:"asset"      db:"asset"`
	Amount    sdkmath.Int `json:"amount"     db:"-"` // scanned via text column
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}
