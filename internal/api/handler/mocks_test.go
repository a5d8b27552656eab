// internal/api/handler/mocks_test.go
package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"rewardvault/internal/domain"
	"rewardvault/internal/service"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// MockDeviceService is a mock implementation of service.DeviceService.
type MockDeviceService struct {
	mock.Mock
}

func (m *MockDeviceService) Catalog() []domain.DeviceTemplate {
	return m.Called().Get(0).([]domain.DeviceTemplate)
}

func (m *MockDeviceService) Purchase(ctx context.Context, userID uuid.UUID, deviceNumber int) (*service.PurchaseResult, error) {
	args := m.Called(ctx, userID, deviceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PurchaseResult), args.Error(1)
}

func (m *MockDeviceService) ListDevices(ctx context.Context, userID uuid.UUID) ([]domain.DeviceStatus, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.DeviceStatus), args.Error(1)
}

func (m *MockDeviceService) IncomeHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.IncomeRecord, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.IncomeRecord), args.Get(1).(int64), args.Error(2)
}

// MockAccrualService is a mock implementation of service.AccrualService.
type MockAccrualService struct {
	mock.Mock
}

func (m *MockAccrualService) creditResult(args mock.Arguments) (*service.CreditResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreditResult), args.Error(1)
}

func (m *MockAccrualService) CreditIfEligible(ctx context.Context, deviceID uuid.UUID) (*service.CreditResult, error) {
	return m.creditResult(m.Called(ctx, deviceID))
}

func (m *MockAccrualService) CreditForOwner(ctx context.Context, userID, deviceID uuid.UUID) (*service.CreditResult, error) {
	return m.creditResult(m.Called(ctx, userID, deviceID))
}

func (m *MockAccrualService) ScanAndCredit(ctx context.Context) (*service.SweepSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SweepSummary), args.Error(1)
}

// MockRechargeService is a mock implementation of service.RechargeService.
type MockRechargeService struct {
	mock.Mock
}

func (m *MockRechargeService) record(args mock.Arguments) (*domain.RechargeRecord, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RechargeRecord), args.Error(1)
}

func (m *MockRechargeService) RequestRecharge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, transactionID, eWalletNumber string) (*domain.RechargeRecord, error) {
	return m.record(m.Called(ctx, userID, amount, transactionID, eWalletNumber))
}

func (m *MockRechargeService) ApproveRecharge(ctx context.Context, adminID, recordID uuid.UUID, amount decimal.Decimal) (*domain.RechargeRecord, error) {
	return m.record(m.Called(ctx, adminID, recordID, amount))
}

func (m *MockRechargeService) DeclineRecharge(ctx context.Context, adminID, recordID uuid.UUID) (*domain.RechargeRecord, error) {
	return m.record(m.Called(ctx, adminID, recordID))
}

func (m *MockRechargeService) CreditUser(ctx context.Context, adminID, userID uuid.UUID, amount decimal.Decimal) (*service.AdminCreditResult, error) {
	args := m.Called(ctx, adminID, userID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AdminCreditResult), args.Error(1)
}

func (m *MockRechargeService) ListRecharges(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.RechargeRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockRechargeService) ListRechargesByStatus(ctx context.Context, status domain.RecordStatus, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	args := m.Called(ctx, status, limit, offset)
	return args.Get(0).([]domain.RechargeRecord), args.Get(1).(int64), args.Error(2)
}

// MockSweepRunner is a mock implementation of SweepRunner.
type MockSweepRunner struct {
	mock.Mock
}

func (m *MockSweepRunner) RunOnce(ctx context.Context) (*service.SweepSummary, bool, error) {
	args := m.Called(ctx)
	var summary *service.SweepSummary
	if args.Get(0) != nil {
		summary = args.Get(0).(*service.SweepSummary)
	}
	return summary, args.Bool(1), args.Error(2)
}
