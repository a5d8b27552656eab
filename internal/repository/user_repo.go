// internal/repository/user_repo.go
package repository

import (
	"context"
	"time"

	"rewardvault/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// CreateUser inserts a user. A taken phone or unique code yields util.ErrDuplicateEntry.
	CreateUser(ctx context.Context, q DBExecutor, user *domain.User) error
	GetUserByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.User, error)
	// GetUserForUpdate reads the user and holds its row lock until the transaction ends.
	GetUserForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.User, error)
	GetUserByPhone(ctx context.Context, q DBExecutor, phone string) (*domain.User, error)
	GetUserByUniqueCode(ctx context.Context, q DBExecutor, code string) (*domain.User, error)
	// UpdateUserBalance overwrites the balance. Callers must hold the row lock.
	UpdateUserBalance(ctx context.Context, q DBExecutor, id uuid.UUID, balance decimal.Decimal) error
	UpdateLastCheckin(ctx context.Context, q DBExecutor, id uuid.UUID, at time.Time) error
	SetBlocked(ctx context.Context, q DBExecutor, id uuid.UUID, blocked bool) error
	// CountReferrals counts users whose invitation_code equals code.
	CountReferrals(ctx context.Context, q DBExecutor, code string) (int64, error)
	GetPlatformStats(ctx context.Context, q DBExecutor) (*domain.PlatformStats, error)
}
