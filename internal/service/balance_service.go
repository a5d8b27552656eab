// internal/service/balance_service.go
package service

import (
	"context"
	"fmt"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mutation describes one signed balance change.
type Mutation struct {
	UserID    uuid.UUID
	Amount    decimal.Decimal // positive credits, negative debits
	Kind      domain.EntryKind
	Reference string     // idempotency key, unique per Kind
	ActorID   *uuid.UUID // nil for system-initiated changes
}

// BalanceService is the only code path that changes users.balance.
type BalanceService interface {
	// Apply performs m inside the caller's transaction.
	Apply(ctx context.Context, q repository.DBExecutor, m Mutation) (*domain.BalanceEntry, error)
	// Mutate performs m in its own transaction.
	Mutate(ctx context.Context, m Mutation) (*domain.BalanceEntry, error)
	GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.BalanceEntry, int64, error)
}

type balanceService struct {
	dbExecutor repository.DBExecutor
	tx         *TxRunner
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(
	dbExecutor repository.DBExecutor,
	tx *TxRunner,
	userRepo repository.UserRepository,
	ledgerRepo repository.LedgerRepository,
) BalanceService {
	return &balanceService{
		dbExecutor: dbExecutor,
		tx:         tx,
		userRepo:   userRepo,
		ledgerRepo: ledgerRepo,
	}
}

func (s *balanceService) Apply(ctx context.Context, q repository.DBExecutor, m Mutation) (*domain.BalanceEntry, error) {
	if m.Amount.IsZero() || !domain.IsCents(m.Amount) || m.Reference == "" || !m.Kind.Valid() {
		return nil, fmt.Errorf("apply %s: %w", m.Kind, util.ErrInvalidInput)
	}

	user, err := s.userRepo.GetUserForUpdate(ctx, q, m.UserID)
	if err != nil {
		return nil, fmt.Errorf("apply %s: failed to lock user %s: %w", m.Kind, m.UserID, err)
	}

	entry := domain.NewBalanceEntry(user.ID, m.ActorID, m.Kind, m.Reference, m.Amount, user.Balance)
	if entry.BalanceAfter.IsNegative() {
		return nil, util.ErrInsufficientFunds
	}

	if err := s.ledgerRepo.CreateEntry(ctx, q, entry); err != nil {
		return nil, fmt.Errorf("apply %s: %w", m.Kind, err)
	}
	if err := s.userRepo.UpdateUserBalance(ctx, q, user.ID, entry.BalanceAfter); err != nil {
		return nil, fmt.Errorf("apply %s: %w", m.Kind, err)
	}
	return entry, nil
}

func (s *balanceService) Mutate(ctx context.Context, m Mutation) (*domain.BalanceEntry, error) {
	var entry *domain.BalanceEntry
	err := s.tx.InTx(ctx, "mutate balance", func(q repository.DBExecutor) error {
		var err error
		entry, err = s.Apply(ctx, q, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *balanceService) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance: %w", err)
	}
	return user.Balance, nil
}

func (s *balanceService) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.BalanceEntry, int64, error) {
	entries, total, err := s.ledgerRepo.ListEntriesByUser(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("balance history: %w", err)
	}
	return entries, total, nil
}
