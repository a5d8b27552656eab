// internal/repository/postgres/user_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"
	"rewardvault/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// uniqueCodeConstraint is the index Postgres names for users.unique_code UNIQUE.
const uniqueCodeConstraint = "users_unique_code_key"

const userColumns = `id, phone, email, unique_code, invitation_code, balance, is_blocked, is_admin,
       last_checkin_at, created_at, updated_at`

// UserRepository implements repository.UserRepository for PostgreSQL.
type UserRepository struct{}

// NewUserRepository creates a new UserRepository.
func NewUserRepository() repository.UserRepository {
	return &UserRepository{}
}

// CreateUser inserts a new user using the provided DBExecutor.
func (r *UserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	query := `INSERT INTO users (id, phone, email, unique_code, invitation_code, balance, is_blocked, is_admin, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.ExecContext(ctx, query,
		user.ID, user.Phone, user.Email, user.UniqueCode, user.InvitationCode,
		user.Balance, user.IsBlocked, user.IsAdmin, user.CreatedAt, user.UpdatedAt)
	if db.IsUniqueViolation(err) && db.ConstraintName(err) == uniqueCodeConstraint {
		return fmt.Errorf("failed to create user: %w", util.ErrCodeTaken)
	}
	return mapErr(err, util.ErrUserNotFound, "failed to create user")
}

// GetUserByID retrieves a user by ID.
func (r *UserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserForUpdate retrieves a user by ID and locks the row for the current transaction.
func (r *UserRepository) GetUserForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE id = $1 FOR UPDATE`, id)
}

// GetUserByPhone retrieves a user by phone number.
func (r *UserRepository) GetUserByPhone(ctx context.Context, q repository.DBExecutor, phone string) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
}

// GetUserByUniqueCode retrieves the user owning a referral code.
func (r *UserRepository) GetUserByUniqueCode(ctx context.Context, q repository.DBExecutor, code string) (*domain.User, error) {
	return r.getOne(ctx, q, `SELECT `+userColumns+` FROM users WHERE unique_code = $1`, code)
}

func (r *UserRepository) getOne(ctx context.Context, q repository.DBExecutor, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	if err := q.GetContext(ctx, &user, query, arg); err != nil {
		return nil, mapErr(err, util.ErrUserNotFound, fmt.Sprintf("failed to get user %v", arg))
	}
	return &user, nil
}

// UpdateUserBalance sets the balance of a locked user row.
func (r *UserRepository) UpdateUserBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, balance decimal.Decimal) error {
	query := `UPDATE users SET balance = $1, updated_at = $2 WHERE id = $3`
	res, err := q.ExecContext(ctx, query, balance, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update balance for user %s: %w", id, err)
	}
	return expectOneRow(res, util.ErrUserNotFound, "update balance")
}

// UpdateLastCheckin records the time of the latest check-in bonus.
func (r *UserRepository) UpdateLastCheckin(ctx context.Context, q repository.DBExecutor, id uuid.UUID, at time.Time) error {
	query := `UPDATE users SET last_checkin_at = $1, updated_at = $2 WHERE id = $3`
	res, err := q.ExecContext(ctx, query, at, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update last check-in for user %s: %w", id, err)
	}
	return expectOneRow(res, util.ErrUserNotFound, "update last check-in")
}

// SetBlocked toggles the blocked flag.
func (r *UserRepository) SetBlocked(ctx context.Context, q repository.DBExecutor, id uuid.UUID, blocked bool) error {
	query := `UPDATE users SET is_blocked = $1, updated_at = $2 WHERE id = $3`
	res, err := q.ExecContext(ctx, query, blocked, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set blocked for user %s: %w", id, err)
	}
	return expectOneRow(res, util.ErrUserNotFound, "set blocked")
}

// CountReferrals counts users invited with the given code.
func (r *UserRepository) CountReferrals(ctx context.Context, q repository.DBExecutor, code string) (int64, error) {
	var n int64
	if err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM users WHERE invitation_code = $1`, code); err != nil {
		return 0, fmt.Errorf("failed to count referrals for code %s: %w", code, err)
	}
	return n, nil
}

// GetPlatformStats aggregates users, balances and devices.
func (r *UserRepository) GetPlatformStats(ctx context.Context, q repository.DBExecutor) (*domain.PlatformStats, error) {
	var stats domain.PlatformStats
	query := `SELECT
                (SELECT COUNT(*) FROM users) AS total_users,
                (SELECT COALESCE(SUM(balance), 0) FROM users) AS total_balance,
                (SELECT COUNT(*) FROM user_devices) AS total_devices`
	if err := q.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to get platform stats: %w", err)
	}
	return &stats, nil
}
