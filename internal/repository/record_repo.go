// internal/repository/record_repo.go
package repository

import (
	"context"

	"rewardvault/internal/domain"

	"github.com/google/uuid"
)

// RechargeRepository stores user-reported deposits.
type RechargeRepository interface {
	CreateRecharge(ctx context.Context, q DBExecutor, record *domain.RechargeRecord) error
	GetRechargeForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.RechargeRecord, error)
	// UpdateRecharge persists amount, balance snapshots, status and reviewer.
	UpdateRecharge(ctx context.Context, q DBExecutor, record *domain.RechargeRecord) error
	ListRechargesByUser(ctx context.Context, q DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.RechargeRecord, int64, error)
	ListRechargesByStatus(ctx context.Context, q DBExecutor, status domain.RecordStatus, limit, offset int) ([]domain.RechargeRecord, int64, error)
}

// WithdrawRepository stores withdrawal requests.
type WithdrawRepository interface {
	CreateWithdraw(ctx context.Context, q DBExecutor, record *domain.WithdrawRecord) error
	GetWithdrawForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.WithdrawRecord, error)
	UpdateWithdrawStatus(ctx context.Context, q DBExecutor, record *domain.WithdrawRecord) error
	ListWithdrawsByUser(ctx context.Context, q DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.WithdrawRecord, int64, error)
	ListWithdrawsByStatus(ctx context.Context, q DBExecutor, status domain.RecordStatus, limit, offset int) ([]domain.WithdrawRecord, int64, error)
}

// WithdrawalAccountRepository stores payout destinations.
type WithdrawalAccountRepository interface {
	CreateAccount(ctx context.Context, q DBExecutor, account *domain.WithdrawalAccount) error
	GetAccountByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.WithdrawalAccount, error)
	ListAccountsByUser(ctx context.Context, q DBExecutor, userID uuid.UUID) ([]domain.WithdrawalAccount, error)
	// DeleteAccount removes an account owned by userID; util.ErrAccountNotFound otherwise.
	DeleteAccount(ctx context.Context, q DBExecutor, id, userID uuid.UUID) error
}
