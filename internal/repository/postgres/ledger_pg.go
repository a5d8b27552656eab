// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"fmt"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
)

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
type LedgerRepository struct{}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository() repository.LedgerRepository {
	return &LedgerRepository{}
}

// CreateEntry appends a journal row.
func (r *LedgerRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, e *domain.BalanceEntry) error {
	query := `INSERT INTO balance_entries (id, user_id, actor_id, kind, reference, amount, balance_before, balance_after, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := q.ExecContext(ctx, query, e.ID, e.UserID, e.ActorID, e.Kind, e.Reference,
		e.Amount, e.BalanceBefore, e.BalanceAfter, e.CreatedAt)
	return mapErr(err, util.ErrNotFound, fmt.Sprintf("failed to create %s entry %s", e.Kind, e.Reference))
}

// ListEntriesByUser returns a page of the user's journal, newest first, plus the total count.
func (r *LedgerRepository) ListEntriesByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.BalanceEntry, int64, error) {
	entries := []domain.BalanceEntry{}
	query := `SELECT id, user_id, actor_id, kind, reference, amount, balance_before, balance_after, created_at
              FROM balance_entries
              WHERE user_id = $1
              ORDER BY created_at DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &entries, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch balance entries for user %s: %w", userID, err)
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM balance_entries WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count balance entries for user %s: %w", userID, err)
	}
	return entries, total, nil
}

// IncomeRepository implements repository.IncomeRepository for PostgreSQL.
type IncomeRepository struct{}

// NewIncomeRepository creates a new IncomeRepository.
func NewIncomeRepository() repository.IncomeRepository {
	return &IncomeRepository{}
}

func (r *IncomeRepository) CreateIncomeRecord(ctx context.Context, q repository.DBExecutor, rec *domain.IncomeRecord) error {
	query := `INSERT INTO income_records (id, user_id, device_id, device_name, amount, window_start, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.ExecContext(ctx, query, rec.ID, rec.UserID, rec.DeviceID, rec.DeviceName, rec.Amount, rec.WindowStart, rec.CreatedAt)
	return mapErr(err, util.ErrNotFound, fmt.Sprintf("failed to create income record for device %s", rec.DeviceID))
}

func (r *IncomeRepository) ListIncomeByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.IncomeRecord, int64, error) {
	records := []domain.IncomeRecord{}
	query := `SELECT id, user_id, device_id, device_name, amount, window_start, created_at
              FROM income_records
              WHERE user_id = $1
              ORDER BY created_at DESC
              LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &records, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to fetch income records for user %s: %w", userID, err)
	}

	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM income_records WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count income records for user %s: %w", userID, err)
	}
	return records, total, nil
}

func (r *IncomeRepository) ListIncomeByDevice(ctx context.Context, q repository.DBExecutor, deviceID uuid.UUID) ([]domain.IncomeRecord, error) {
	records := []domain.IncomeRecord{}
	query := `SELECT id, user_id, device_id, device_name, amount, window_start, created_at
              FROM income_records
              WHERE device_id = $1
              ORDER BY created_at`
	if err := q.SelectContext(ctx, &records, query, deviceID); err != nil {
		return nil, fmt.Errorf("failed to fetch income records for device %s: %w", deviceID, err)
	}
	return records, nil
}
