// internal/service/mocks_test.go
package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/pkg/db"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockDBExecutor is a mock implementation of repository.DBExecutor.
type MockDBExecutor struct {
	mock.Mock
}

func (m *MockDBExecutor) GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error {
	argsCalled := m.Called(ctx, dest, query, args)
	return argsCalled.Error(0)
}

func (m *MockDBExecutor) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	argsCalled := m.Called(ctx, query, args)
	return argsCalled.Get(0).(sql.Result), argsCalled.Error(1)
}

func (m *MockDBExecutor) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	m.Called(ctx, query, args)
	return &sql.Row{}
}

// MockTxController is a mock implementation of db.TxController.
// Embedding MockDBExecutor lets it pass as a repository.DBExecutor.
type MockTxController struct {
	mock.Mock
	MockDBExecutor
}

func (m *MockTxController) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockTxController) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

// mockRunner wires a TxRunner to a MockTxController the way the services see it.
func mockRunner(txc *MockTxController) *TxRunner {
	return NewTxRunner(
		nil,
		func(ctx context.Context, dbConn db.DBTxBeginner) (db.TxController, error) {
			return txc, nil
		},
		func(tx db.TxController) error {
			return txc.Commit()
		},
		func(tx db.TxController) {
			_ = txc.Rollback()
		},
		1,
		discardLogger(),
	)
}

// MockUserRepository is a mock implementation of repository.UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) userResult(args mock.Arguments) (*domain.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) CreateUser(ctx context.Context, q repository.DBExecutor, user *domain.User) error {
	return m.Called(ctx, q, user).Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	return m.userResult(m.Called(ctx, q, id))
}

func (m *MockUserRepository) GetUserForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.User, error) {
	return m.userResult(m.Called(ctx, q, id))
}

func (m *MockUserRepository) GetUserByPhone(ctx context.Context, q repository.DBExecutor, phone string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, q, phone))
}

func (m *MockUserRepository) GetUserByUniqueCode(ctx context.Context, q repository.DBExecutor, code string) (*domain.User, error) {
	return m.userResult(m.Called(ctx, q, code))
}

func (m *MockUserRepository) UpdateUserBalance(ctx context.Context, q repository.DBExecutor, id uuid.UUID, balance decimal.Decimal) error {
	return m.Called(ctx, q, id, balance).Error(0)
}

func (m *MockUserRepository) UpdateLastCheckin(ctx context.Context, q repository.DBExecutor, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, q, id, at).Error(0)
}

func (m *MockUserRepository) SetBlocked(ctx context.Context, q repository.DBExecutor, id uuid.UUID, blocked bool) error {
	return m.Called(ctx, q, id, blocked).Error(0)
}

func (m *MockUserRepository) CountReferrals(ctx context.Context, q repository.DBExecutor, code string) (int64, error) {
	args := m.Called(ctx, q, code)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetPlatformStats(ctx context.Context, q repository.DBExecutor) (*domain.PlatformStats, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PlatformStats), args.Error(1)
}

// MockLedgerRepository is a mock implementation of repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) CreateEntry(ctx context.Context, q repository.DBExecutor, entry *domain.BalanceEntry) error {
	return m.Called(ctx, q, entry).Error(0)
}

func (m *MockLedgerRepository) ListEntriesByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID, limit, offset int) ([]domain.BalanceEntry, int64, error) {
	args := m.Called(ctx, q, userID, limit, offset)
	return args.Get(0).([]domain.BalanceEntry), args.Get(1).(int64), args.Error(2)
}
