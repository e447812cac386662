package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/amm/internal/domain"
)

// PoolRepository persists pool and position snapshots plus the global fee
// parameter.  The in-memory ledger is authoritative at runtime; these tables
// are the write-through copy that rebuilds it at boot, so every write is an
// upsert of the full post-state row.
type PoolRepository struct {
	db *sqlx.DB
}

// NewPoolRepository creates a new PoolRepository.
func NewPoolRepository(db *sqlx.DB) *PoolRepository {
	return &PoolRepository{db: db}
}

type poolRow struct {
	AssetLow    string    `db:"asset_low"`
	AssetHigh   string    `db:"asset_high"`
	ReserveLow  string    `db:"reserve_low"`
	ReserveHigh string    `db:"reserve_high"`
	TotalShares string    `db:"total_shares"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row poolRow) toDomain() (*domain.Pool, error) {
	reserveLow, ok1 := sdkmath.NewIntFromString(row.ReserveLow)
	reserveHigh, ok2 := sdkmath.NewIntFromString(row.ReserveHigh)
	totalShares, ok3 := sdkmath.NewIntFromString(row.TotalShares)
	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("pool_repo: corrupt row for %s/%s", row.AssetLow, row.AssetHigh)
	}
	return &domain.Pool{
		Key:         domain.PairKey{Low: domain.AssetID(row.AssetLow), High: domain.AssetID(row.AssetHigh)},
		ReserveLow:  reserveLow,
		ReserveHigh: reserveHigh,
		TotalShares: totalShares,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

type positionRow struct {
	AssetLow    string    `db:"asset_low"`
	AssetHigh   string    `db:"asset_high"`
	Depositor   uuid.UUID `db:"depositor"`
	ShareAmount string    `db:"share_amount"`
	ShareRatio  string    `db:"share_ratio"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row positionRow) toDomain() (*domain.Position, error) {
	shareAmount, ok1 := sdkmath.NewIntFromString(row.ShareAmount)
	shareRatio, ok2 := sdkmath.NewIntFromString(row.ShareRatio)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("pool_repo: corrupt position for %s/%s depositor %s",
			row.AssetLow, row.AssetHigh, row.Depositor)
	}
	return &domain.Position{
		Key:         domain.PairKey{Low: domain.AssetID(row.AssetLow), High: domain.AssetID(row.AssetHigh)},
		Depositor:   row.Depositor,
		ShareAmount: shareAmount,
		ShareRatio:  shareRatio,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

// UpsertPool writes a pool's full post-state inside a transaction.
func (r *PoolRepository) UpsertPool(ctx context.Context, tx *sqlx.Tx, p *domain.Pool) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO pools (asset_low, asset_high, reserve_low, reserve_high, total_shares, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6, $7)
		ON CONFLICT (asset_low, asset_high)
		DO UPDATE SET reserve_low  = EXCLUDED.reserve_low,
		              reserve_high = EXCLUDED.reserve_high,
		              total_shares = EXCLUDED.total_shares,
		              updated_at   = EXCLUDED.updated_at`,
		string(p.Key.Low), string(p.Key.High),
		p.ReserveLow.String(), p.ReserveHigh.String(), p.TotalShares.String(),
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pool_repo.UpsertPool: %w", err)
	}
	return nil
}

// UpsertPosition writes a position's full post-state inside a transaction.
func (r *PoolRepository) UpsertPosition(ctx context.Context, tx *sqlx.Tx, pos *domain.Position) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO positions (asset_low, asset_high, depositor, share_amount, share_ratio, updated_at)
		VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6)
		ON CONFLICT (asset_low, asset_high, depositor)
		DO UPDATE SET share_amount = EXCLUDED.share_amount,
		              share_ratio  = EXCLUDED.share_ratio,
		              updated_at   = EXCLUDED.updated_at`,
		string(pos.Key.Low), string(pos.Key.High), pos.Depositor,
		pos.ShareAmount.String(), pos.ShareRatio.String(), pos.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pool_repo.UpsertPosition: %w", err)
	}
	return nil
}

// LoadPools returns every persisted pool, ordered by canonical key.
func (r *PoolRepository) LoadPools(ctx context.Context) ([]*domain.Pool, error) {
	var rows []poolRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT asset_low, asset_high,
		       reserve_low::text AS reserve_low,
		       reserve_high::text AS reserve_high,
		       total_shares::text AS total_shares,
		       created_at, updated_at
		FROM pools ORDER BY asset_low, asset_high`)
	if err != nil {
		return nil, fmt.Errorf("pool_repo.LoadPools: %w", err)
	}
	out := make([]*domain.Pool, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// LoadPositions returns every persisted position.
func (r *PoolRepository) LoadPositions(ctx context.Context) ([]*domain.Position, error) {
	var rows []positionRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT asset_low, asset_high, depositor,
		       share_amount::text AS share_amount,
		       share_ratio::text AS share_ratio,
		       updated_at
		FROM positions ORDER BY asset_low, asset_high, depositor`)
	if err != nil {
		return nil, fmt.Errorf("pool_repo.LoadPositions: %w", err)
	}
	out := make([]*domain.Position, 0, len(rows))
	for _, row := range rows {
		pos, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, pos)
	}
	return out, nil
}

// SetFeeBps writes the global fee parameter inside a transaction.
func (r *PoolRepository) SetFeeBps(ctx context.Context, tx *sqlx.Tx, feeBps int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO params (key, value, updated_at)
		VALUES ('fee_bps', $1, now())
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		strconv.FormatInt(feeBps, 10))
	if err != nil {
		return fmt.Errorf("pool_repo.SetFeeBps: %w", err)
	}
	return nil
}

// LoadFeeBps reads the persisted fee parameter.  Returns (0, false, nil) when
// no override has ever been written.
func (r *PoolRepository) LoadFeeBps(ctx context.Context) (int64, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value, `SELECT value FROM params WHERE key = 'fee_bps'`)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("pool_repo.LoadFeeBps: %w", err)
	}
	feeBps, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("pool_repo.LoadFeeBps parse: %w", err)
	}
	return feeBps, true, nil
}
