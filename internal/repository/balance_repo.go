package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/amm/internal/domain"
)

// BalanceRepository is the asset transfer service: it debits and credits
// (holder, asset) rows in the balances table.  Pool reserves live under the
// custody holder; every pull pairs a holder debit with a custody credit and
// every push the reverse, so total supply per asset is conserved by
// construction.
type BalanceRepository struct {
	db *sqlx.DB
}

// NewBalanceRepository creates a new BalanceRepository.
func NewBalanceRepository(db *sqlx.DB) *BalanceRepository {
	return &BalanceRepository{db: db}
}

// balanceRow mirrors one balances row; the amount travels as text because
// NUMERIC(78,0) exceeds every native integer type.
type balanceRow struct {
	Holder    string    `db:"holder"`
	Asset     string    `db:"asset"`
	Amount    string    `db:"amount"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row balanceRow) toDomain() (*domain.Balance, error) {
	amount, ok := sdkmath.NewIntFromString(row.Amount)
	if !ok {
		return nil, fmt.Errorf("balance_repo: corrupt amount %q for %s/%s", row.Amount, row.Holder, row.Asset)
	}
	return &domain.Balance{
		Holder:    row.Holder,
		Asset:     domain.AssetID(row.Asset),
		Amount:    amount,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

// Get fetches one (holder, asset) balance.  A missing row is a zero balance,
// not an error.
func (r *BalanceRepository) Get(ctx context.Context, holder string, asset domain.AssetID) (*domain.Balance, error) {
	var row balanceRow
	err := r.db.GetContext(ctx, &row,
		`SELECT holder, asset, amount::text AS amount, updated_at FROM balances WHERE holder = $1 AND asset = $2`,
		holder, string(asset))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.Balance{
				Holder: holder,
				Asset:  asset,
				Amount: sdkmath.ZeroInt(),
			}, nil
		}
		return nil, fmt.Errorf("balance_repo.Get: %w", err)
	}
	return row.toDomain()
}

// ListByHolder returns every balance row the holder owns, ordered by asset.
func (r *BalanceRepository) ListByHolder(ctx context.Context, holder string) ([]*domain.Balance, error) {
	var rows []balanceRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT holder, asset, amount::text AS amount, updated_at FROM balances WHERE holder = $1 ORDER BY asset`,
		holder)
	if err != nil {
		return nil, fmt.Errorf("balance_repo.ListByHolder: %w", err)
	}
	out := make([]*domain.Balance, 0, len(rows))
	for _, row := range rows {
		b, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Pull moves amount of asset from the holder into custody inside a
// transaction.  Uses FOR UPDATE to prevent concurrent over-draws; returns
// ErrInsufficientBalance when the holder cannot cover the amount.
func (r *BalanceRepository) Pull(ctx context.Context, tx *sqlx.Tx, holder string, asset domain.AssetID, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	var current string
	err := tx.GetContext(ctx, &current,
		`SELECT amount::text FROM balances WHERE holder = $1 AND asset = $2 FOR UPDATE`,
		holder, string(asset))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrInsufficientBalance
		}
		return fmt.Errorf("balance_repo.Pull lock: %w", err)
	}
	available, ok := sdkmath.NewIntFromString(current)
	if !ok {
		return fmt.Errorf("balance_repo.Pull: corrupt amount %q for %s/%s", current, holder, asset)
	}
	if available.LT(amount) {
		return domain.ErrInsufficientBalance
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE balances SET amount = amount - $1::numeric, updated_at = now() WHERE holder = $2 AND asset = $3`,
		amount.String(), holder, string(asset))
	if err != nil {
		return fmt.Errorf("balance_repo.Pull debit: %w", err)
	}
	if err := r.credit(ctx, tx, domain.HolderCustody, asset, amount); err != nil {
		return fmt.Errorf("balance_repo.Pull custody credit: %w", err)
	}
	return nil
}

// Push moves amount of asset out of custody to the holder inside a
// transaction.  A custody shortfall means the reserve accounting has diverged
// from the balances table and surfaces as ErrTransferFailed.
func (r *BalanceRepository) Push(ctx context.Context, tx *sqlx.Tx, holder string, asset domain.AssetID, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	var current string
	err := tx.GetContext(ctx, &current,
		`SELECT amount::text FROM balances WHERE holder = $1 AND asset = $2 FOR UPDATE`,
		domain.HolderCustody, string(asset))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTransferFailed
		}
		return fmt.Errorf("balance_repo.Push lock: %w", err)
	}
	available, ok := sdkmath.NewIntFromString(current)
	if !ok {
		return fmt.Errorf("balance_repo.Push: corrupt custody amount %q for %s", current, asset)
	}
	if available.LT(amount) {
		return domain.ErrTransferFailed
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE balances SET amount = amount - $1::numeric, updated_at = now() WHERE holder = $2 AND asset = $3`,
		amount.String(), domain.HolderCustody, string(asset))
	if err != nil {
		return fmt.Errorf("balance_repo.Push debit: %w", err)
	}
	if err := r.credit(ctx, tx, holder, asset, amount); err != nil {
		return fmt.Errorf("balance_repo.Push credit: %w", err)
	}
	return nil
}

// Deposit credits amount of asset to a holder outside the swap path (faucet
// or admin funding).
func (r *BalanceRepository) Deposit(ctx context.Context, holder string, asset domain.AssetID, amount sdkmath.Int) error {
	if !amount.IsPositive() {
		return domain.ErrInvalidAmount
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO balances (holder, asset, amount, updated_at)
		VALUES ($1, $2, $3::numeric, now())
		ON CONFLICT (holder, asset)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = now()`,
		holder, string(asset), amount.String())
	if err != nil {
		return fmt.Errorf("balance_repo.Deposit: %w", err)
	}
	return nil
}

// credit upserts a positive delta onto a (holder, asset) row.
func (r *BalanceRepository) credit(ctx context.Context, tx *sqlx.Tx, holder string, asset domain.AssetID, amount sdkmath.Int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO balances (holder, asset, amount, updated_at)
		VALUES ($1, $2, $3::numeric, now())
		ON CONFLICT (holder, asset)
		DO UPDATE SET amount = balances.amount + EXCLUDED.amount, updated_at = now()`,
		holder, string(asset), amount.String())
	return err
}
