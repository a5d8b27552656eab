// internal/repository/postgres/record_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
)

const rechargeColumns = `id, user_id, amount, previous_balance, new_balance, transaction_id, e_wallet_number,
       status, reviewed_by, created_at, updated_at`

// RechargeRepository implements repository.RechargeRepository for PostgreSQL.
type RechargeRepository struct{}

// NewRechargeRepository creates a new RechargeRepository.
func NewRechargeRepository() repository.RechargeRepository {
	return &RechargeRepository{}
}

func (r *RechargeRepository) CreateRecharge(ctx context.Context, q repository.DBExecutor, rec *domain.RechargeRecord) error {
	query := `INSERT INTO recharge_records (id, user_id, amount, previous_balance, new_balance, transaction_id,
                  e_wallet_number, status, reviewed_by, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q.ExecContext(ctx, query, rec.ID, rec.UserID, rec.Amount, rec.PreviousBalance, rec.NewBalance,
		rec.TransactionID, rec.EWalletNumber, rec.Status, rec.ReviewedBy, rec.CreatedAt, rec.UpdatedAt)
	return mapErr(err, util.ErrNotFound, "failed to create recharge record")
}

func (r *RechargeRepository) GetRechargeForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.RechargeRecord, error) {
	var rec domain.RechargeRecord
	query := `SELECT ` + rechargeColumns + ` FROM recharge_records WHERE id = $1 FOR UPDATE`
	if err := q.GetContext(ctx, &rec, query, id); err != nil {
		return nil, mapErr(err, util.ErrNotFound, fmt.Sprintf("failed to get recharge record %s", id))
	}
	return &rec, nil
}

func (r *RechargeRepository) UpdateRecharge(ctx context.Context, q repository.DBExecutor, rec *domain.RechargeRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	query := `UPDATE recharge_records
              SET amount = $1, previous_balance = $2, new_balance = $3, status = $4, reviewed_by = $5, updated_at = $6
              WHERE id = $7`
	res, err := q.ExecContext(ctx, query, rec.Amount, rec.PreviousBalance, rec.NewBalance, rec.Status,
		rec.ReviewedBy, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update recharge record %s: %w", rec.ID, err)
	}
	return expectOneRow(res, util.ErrNotFound, "update recharge record")
}

func (r *RechargeRepository) ListRechargesByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	return r.list(ctx, q, "user_id = $1", userID, limit, offset)
}

func (r *RechargeRepository) ListRechargesByStatus(ctx context.Context, q repository.DBExecutor, status domain.RecordStatus, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	return r.list(ctx, q, "status = $1", status, limit, offset)
}

func (r *RechargeRepository) list(ctx context.Context, q repository.DBExecutor, where string, arg interface{}, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	records := []domain.RechargeRecord{}
	query := `SELECT ` + rechargeColumns + ` FROM recharge_records WHERE ` + where + ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &records, query, arg, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list recharge records: %w", err)
	}
	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM recharge_records WHERE `+where, arg); err != nil {
		return nil, 0, fmt.Errorf("failed to count recharge records: %w", err)
	}
	return records, total, nil
}

const withdrawColumns = `id, user_id, account_id, amount, fee, amount_received, status, reviewed_by, created_at, updated_at`

// WithdrawRepository implements repository.WithdrawRepository for PostgreSQL.
type WithdrawRepository struct{}

// NewWithdrawRepository creates a new WithdrawRepository.
func NewWithdrawRepository() repository.WithdrawRepository {
	return &WithdrawRepository{}
}

func (r *WithdrawRepository) CreateWithdraw(ctx context.Context, q repository.DBExecutor, rec *domain.WithdrawRecord) error {
	query := `INSERT INTO withdraw_records (id, user_id, account_id, amount, fee, amount_received, status,
                  reviewed_by, created_at, updated_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := q.ExecContext(ctx, query, rec.ID, rec.UserID, rec.AccountID, rec.Amount, rec.Fee,
		rec.AmountReceived, rec.Status, rec.ReviewedBy, rec.CreatedAt, rec.UpdatedAt)
	return mapErr(err, util.ErrNotFound, "failed to create withdraw record")
}

func (r *WithdrawRepository) GetWithdrawForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.WithdrawRecord, error) {
	var rec domain.WithdrawRecord
	query := `SELECT ` + withdrawColumns + ` FROM withdraw_records WHERE id = $1 FOR UPDATE`
	if err := q.GetContext(ctx, &rec, query, id); err != nil {
		return nil, mapErr(err, util.ErrNotFound, fmt.Sprintf("failed to get withdraw record %s", id))
	}
	return &rec, nil
}

func (r *WithdrawRepository) UpdateWithdrawStatus(ctx context.Context, q repository.DBExecutor, rec *domain.WithdrawRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	query := `UPDATE withdraw_records SET status = $1, reviewed_by = $2, updated_at = $3 WHERE id = $4`
	res, err := q.ExecContext(ctx, query, rec.Status, rec.ReviewedBy, rec.UpdatedAt, rec.ID)
	if err != nil {
		return fmt.Errorf("failed to update withdraw record %s: %w", rec.ID, err)
	}
	return expectOneRow(res, util.ErrNotFound, "update withdraw record")
}

func (r *WithdrawRepository) ListWithdrawsByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	return r.list(ctx, q, "user_id = $1", userID, limit, offset)
}

func (r *WithdrawRepository) ListWithdrawsByStatus(ctx context.Context, q repository.DBExecutor, status domain.RecordStatus, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	return r.list(ctx, q, "status = $1", status, limit, offset)
}

func (r *WithdrawRepository) list(ctx context.Context, q repository.DBExecutor, where string, arg interface{}, limit, offset int) ([]domain.WithdrawRecord, int64, error) {
	records := []domain.WithdrawRecord{}
	query := `SELECT ` + withdrawColumns + ` FROM withdraw_records WHERE ` + where + ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	if err := q.SelectContext(ctx, &records, query, arg, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list withdraw records: %w", err)
	}
	var total int64
	if err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM withdraw_records WHERE `+where, arg); err != nil {
		return nil, 0, fmt.Errorf("failed to count withdraw records: %w", err)
	}
	return records, total, nil
}

// WithdrawalAccountRepository implements repository.WithdrawalAccountRepository for PostgreSQL.
type WithdrawalAccountRepository struct{}

// NewWithdrawalAccountRepository creates a new WithdrawalAccountRepository.
func NewWithdrawalAccountRepository() repository.WithdrawalAccountRepository {
	return &WithdrawalAccountRepository{}
}

func (r *WithdrawalAccountRepository) CreateAccount(ctx context.Context, q repository.DBExecutor, a *domain.WithdrawalAccount) error {
	query := `INSERT INTO withdrawal_accounts (id, user_id, account_name, account_number, provider, created_at)
              VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := q.ExecContext(ctx, query, a.ID, a.UserID, a.AccountName, a.AccountNumber, a.Provider, a.CreatedAt)
	return mapErr(err, util.ErrAccountNotFound, "failed to create withdrawal account")
}

func (r *WithdrawalAccountRepository) GetAccountByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.WithdrawalAccount, error) {
	var a domain.WithdrawalAccount
	query := `SELECT id, user_id, account_name, account_number, provider, created_at FROM withdrawal_accounts WHERE id = $1`
	if err := q.GetContext(ctx, &a, query, id); err != nil {
		return nil, mapErr(err, util.ErrAccountNotFound, fmt.Sprintf("failed to get withdrawal account %s", id))
	}
	return &a, nil
}

func (r *WithdrawalAccountRepository) ListAccountsByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) ([]domain.WithdrawalAccount, error) {
	accounts := []domain.WithdrawalAccount{}
	query := `SELECT id, user_id, account_name, account_number, provider, created_at
              FROM withdrawal_accounts WHERE user_id = $1 ORDER BY created_at`
	if err := q.SelectContext(ctx, &accounts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list withdrawal accounts for user %s: %w", userID, err)
	}
	return accounts, nil
}

func (r *WithdrawalAccountRepository) DeleteAccount(ctx context.Context, q repository.DBExecutor, id, userID uuid.UUID) error {
	res, err := q.ExecContext(ctx, `DELETE FROM withdrawal_accounts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete withdrawal account %s: %w", id, err)
	}
	return expectOneRow(res, util.ErrAccountNotFound, "delete withdrawal account")
}
