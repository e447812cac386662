package service

import (
	"context"
	"fmt"
	"log/slog"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/evetabi/amm/internal/domain"
	"github.com/evetabi/amm/internal/ledger"
	"github.com/evetabi/amm/internal/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// AdminService
// ──────────────────────────────────────────────────────────────────────────────

// AdminService handles fee governance and account funding.  Every entry
// point takes the caller's role and rejects non-admins before touching any
// state; the HTTP layer performs the same check again at the routing level.
type AdminService struct {
	db          *sqlx.DB
	ledger      *ledger.Ledger
	poolRepo    *repository.PoolRepository
	balanceRepo *repository.BalanceRepository
	eventRepo   *repository.EventRepository
	accountRepo *repository.AccountRepository
	broadcaster Broadcaster
	log         *slog.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(
	db *sqlx.DB,
	ldg *ledger.Ledger,
	poolRepo *repository.PoolRepository,
	balanceRepo *repository.BalanceRepository,
	eventRepo *repository.EventRepository,
	accountRepo *repository.AccountRepository,
	log *slog.Logger,
) *AdminService {
	return &AdminService{
		db:          db,
		ledger:      ldg,
		poolRepo:    poolRepo,
		balanceRepo: balanceRepo,
		eventRepo:   eventRepo,
		accountRepo: accountRepo,
		log:         log,
	}
}

// SetBroadcaster injects the WS hub dependency post-construction.
func (s *AdminService) SetBroadcaster(b Broadcaster) { s.broadcaster = b }

// GetFeeBps returns the current global swap fee.
func (s *AdminService) GetFeeBps() int64 {
	return s.ledger.FeeBps()
}

// SetFeeBps changes the global swap fee.  The caller must hold the admin
// role; the change takes effect for the next operation and never reprices
// trades already committed.
func (s *AdminService) SetFeeBps(ctx context.Context, callerRole string, callerID uuid.UUID, newBps int64) (int64, error) {
	if err := RequireRole(callerRole, domain.RoleAdmin); err != nil {
		return 0, err
	}

	release, err := s.ledger.Begin()
	if err != nil {
		return 0, err
	}
	defer release()

	plan, err := s.ledger.PlanSetFee(newBps, callerID)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("admin_service.SetFeeBps: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.poolRepo.SetFeeBps(ctx, tx, plan.NewBps); err != nil {
		return 0, err
	}
	events, err := s.eventRepo.Append(ctx, tx, plan.Events)
	if err != nil {
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("admin_service.SetFeeBps: commit: %w", err)
	}

	s.ledger.Apply(plan.Commit())
	s.log.Info("fee updated", "old_bps", plan.OldBps, "new_bps", plan.NewBps, "by", callerID)

	if s.broadcaster != nil {
		go s.broadcaster.BroadcastEvents(events)
	}
	return plan.NewBps, nil
}

// Deposit credits an account with an asset amount outside the trading path.
func (s *AdminService) Deposit(ctx context.Context, callerRole string, accountID uuid.UUID, asset domain.AssetID, amount sdkmath.Int) error {
	if err := RequireRole(callerRole, domain.RoleAdmin); err != nil {
		return err
	}
	if err := asset.Validate(); err != nil {
		return err
	}
	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return err
	}
	if err := s.balanceRepo.Deposit(ctx, accountID.String(), asset, amount); err != nil {
		return err
	}
	s.log.Info("balance deposited", "account", accountID, "asset", asset, "amount", amount)
	return nil
}

// ListAccounts returns a page of accounts for the admin view.
func (s *AdminService) ListAccounts(ctx context.Context, callerRole string, limit, offset int) ([]*domain.Account, int, error) {
	if err := RequireRole(callerRole, domain.RoleAdmin); err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.accountRepo.List(ctx, limit, offset)
}

// SetAccountRole promotes or demotes an account.
func (s *AdminService) SetAccountRole(ctx context.Context, callerRole string, accountID uuid.UUID, role domain.Role) error {
	if err := RequireRole(callerRole, domain.RoleAdmin); err != nil {
		return err
	}
	if role != domain.RoleTrader && role != domain.RoleAdmin {
		return domain.ErrInvalidAmount
	}
	return s.accountRepo.UpdateRole(ctx, accountID, role)
}

// SetAccountActive activates or deactivates an account.
func (s *AdminService) SetAccountActive(ctx context.Context, callerRole string, accountID uuid.UUID, active bool) error {
	if err := RequireRole(callerRole, domain.RoleAdmin); err != nil {
		return err
	}
	return s.accountRepo.SetActive(ctx, accountID, active)
}
