// internal/service/withdrawal_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// WithdrawalPolicy holds the configurable withdrawal limits.
type WithdrawalPolicy struct {
	Minimum decimal.Decimal
	FeeRate decimal.Decimal
}

// WithdrawalService handles withdrawal requests, their settlement and payout accounts.
type WithdrawalService interface {
	RequestWithdrawal(ctx context.Context, userID, accountID uuid.UUID, amount decimal.Decimal) (*domain.WithdrawRecord, error)
	// CompleteWithdrawal marks a pending withdrawal as paid out. The balance is untouched.
	CompleteWithdrawal(ctx context.Context, adminID, recordID uuid.UUID) (*domain.WithdrawRecord, error)
	// DeclineWithdrawal marks a pending withdrawal as failed and refunds the debit.
	DeclineWithdrawal(ctx context.Context, adminID, recordID uuid.UUID) (*domain.WithdrawRecord, error)
	ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WithdrawRecord, int64, error)
	ListWithdrawalsByStatus(ctx context.Context, status domain.RecordStatus, limit, offset int) ([]domain.WithdrawRecord, int64, error)

	AddAccount(ctx context.Context, userID uuid.UUID, name, number, provider string) (*domain.WithdrawalAccount, error)
	ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.WithdrawalAccount, error)
	DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error
}

type withdrawalService struct {
	dbExecutor   repository.DBExecutor
	tx           *TxRunner
	balance      BalanceService
	userRepo     repository.UserRepository
	withdrawRepo repository.WithdrawRepository
	accountRepo  repository.WithdrawalAccountRepository
	policy       WithdrawalPolicy
	logger       *slog.Logger
}

// NewWithdrawalService creates a new WithdrawalService.
func NewWithdrawalService(
	dbExecutor repository.DBExecutor,
	tx *TxRunner,
	balance BalanceService,
	userRepo repository.UserRepository,
	withdrawRepo repository.WithdrawRepository,
	accountRepo repository.WithdrawalAccountRepository,
	policy WithdrawalPolicy,
	logger *slog.Logger,
) WithdrawalService {
	return &withdrawalService{
		dbExecutor:   dbExecutor,
		tx:           tx,
		balance:      balance,
		userRepo:     userRepo,
		withdrawRepo: withdrawRepo,
		accountRepo:  accountRepo,
		policy:       policy,
		logger:       logger.With("component", "withdrawals"),
	}
}

func (s *withdrawalService) RequestWithdrawal(ctx context.Context, userID, accountID uuid.UUID, amount decimal.Decimal) (*domain.WithdrawRecord, error) {
	if !amount.IsPositive() || !domain.IsCents(amount) {
		return nil, util.ErrInvalidInput
	}
	if amount.LessThan(s.policy.Minimum) {
		return nil, util.ErrBelowMinimum
	}

	var record *domain.WithdrawRecord
	err := s.tx.InTx(ctx, "request withdrawal", func(q repository.DBExecutor) error {
		account, err := s.accountRepo.GetAccountByID(ctx, q, accountID)
		if err != nil {
			return err
		}
		if account.UserID != userID {
			return util.ErrAccountNotFound
		}

		user, err := s.userRepo.GetUserForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		if user.IsBlocked {
			return util.ErrUserBlocked
		}

		record = domain.NewWithdrawRecord(userID, accountID, amount, s.policy.FeeRate)
		if _, err := s.balance.Apply(ctx, q, Mutation{
			UserID:    userID,
			Amount:    amount.Neg(),
			Kind:      domain.EntryWithdraw,
			Reference: record.ID.String(),
		}); err != nil {
			return err
		}
		return s.withdrawRepo.CreateWithdraw(ctx, q, record)
	})
	if err != nil {
		return nil, fmt.Errorf("request withdrawal: %w", err)
	}

	s.logger.Info("Withdrawal requested", "user_id", userID, "record_id", record.ID, "amount", amount)
	return record, nil
}

func (s *withdrawalService) CompleteWithdrawal(ctx context.Context, adminID, recordID uuid.UUID) (*domain.WithdrawRecord, error) {
	return s.settle(ctx, adminID, recordID, domain.StatusSuccessful)
}

func (s *withdrawalService) DeclineWithdrawal(ctx context.Context, adminID, recordID uuid.UUID) (*domain.WithdrawRecord, error) {
	return s.settle(ctx, adminID, recordID, domain.StatusFailed)
}

func (s *withdrawalService) settle(ctx context.Context, adminID, recordID uuid.UUID, status domain.RecordStatus) (*domain.WithdrawRecord, error) {
	var record *domain.WithdrawRecord
	err := s.tx.InTx(ctx, "settle withdrawal", func(q repository.DBExecutor) error {
		var err error
		record, err = s.withdrawRepo.GetWithdrawForUpdate(ctx, q, recordID)
		if err != nil {
			return err
		}
		if record.Status != domain.StatusPending {
			return util.ErrAlreadyProcessed
		}

		if status == domain.StatusFailed {
			if _, err := s.balance.Apply(ctx, q, Mutation{
				UserID:    record.UserID,
				Amount:    record.Amount,
				Kind:      domain.EntryWithdrawRefund,
				Reference: record.ID.String(),
				ActorID:   &adminID,
			}); err != nil {
				return err
			}
		}

		record.Status = status
		record.ReviewedBy = &adminID
		return s.withdrawRepo.UpdateWithdrawStatus(ctx, q, record)
	})
	if err != nil {
		return nil, fmt.Errorf("settle withdrawal %s: %w", recordID, err)
	}

	s.logger.Info("Withdrawal settled", "record_id", recordID, "status", status, "admin_id", adminID)
	return record, nil
}

func (s *withdrawalService) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	records, total, err := s.withdrawRepo.ListWithdrawsByUser(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawals: %w", err)
	}
	return records, total, nil
}

func (s *withdrawalService) ListWithdrawalsByStatus(ctx context.Context, status domain.RecordStatus, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	if !status.Valid() {
		return nil, 0, util.ErrInvalidInput
	}
	records, total, err := s.withdrawRepo.ListWithdrawsByStatus(ctx, s.dbExecutor, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list withdrawals by status: %w", err)
	}
	return records, total, nil
}

func (s *withdrawalService) AddAccount(ctx context.Context, userID uuid.UUID, name, number, provider string) (*domain.WithdrawalAccount, error) {
	name, number, provider = strings.TrimSpace(name), strings.TrimSpace(number), strings.TrimSpace(provider)
	if name == "" || number == "" || provider == "" {
		return nil, util.ErrInvalidInput
	}
	account := domain.NewWithdrawalAccount(userID, name, number, provider)
	if err := s.accountRepo.CreateAccount(ctx, s.dbExecutor, account); err != nil {
		return nil, fmt.Errorf("add withdrawal account: %w", err)
	}
	return account, nil
}

func (s *withdrawalService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]domain.WithdrawalAccount, error) {
	accounts, err := s.accountRepo.ListAccountsByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("list withdrawal accounts: %w", err)
	}
	return accounts, nil
}

func (s *withdrawalService) DeleteAccount(ctx context.Context, userID, accountID uuid.UUID) error {
	if err := s.accountRepo.DeleteAccount(ctx, s.dbExecutor, accountID, userID); err != nil {
		return fmt.Errorf("delete withdrawal account: %w", err)
	}
	return nil
}
