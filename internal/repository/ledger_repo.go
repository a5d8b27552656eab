// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"rewardvault/internal/domain"

	"github.com/google/uuid"
)

// LedgerRepository stores the balance journal.
type LedgerRepository interface {
	// CreateEntry appends a journal row. A repeated (kind, reference) yields util.ErrDuplicateEntry.
	CreateEntry(ctx context.Context, q DBExecutor, entry *domain.BalanceEntry) error
	ListEntriesByUser(ctx context.Context, q DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.BalanceEntry, int64, error)
}

// IncomeRepository stores device payout records.
type IncomeRepository interface {
	// CreateIncomeRecord appends a payout. A second payout for the same
	// (device, window_start) yields util.ErrDuplicateEntry.
	CreateIncomeRecord(ctx context.Context, q DBExecutor, record *domain.IncomeRecord) error
	ListIncomeByUser(ctx context.Context, q DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.IncomeRecord, int64, error)
	ListIncomeByDevice(ctx context.Context, q DBExecutor, deviceID uuid.UUID) ([]domain.IncomeRecord, error)
}
