// internal/service/device_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseResult is a newly bought device and the buyer's balance afterwards.
type PurchaseResult struct {
	Device     *domain.Device  `json:"device"`
	Charged    decimal.Decimal `json:"charged"`
	Clawback   decimal.Decimal `json:"signup_bonus_clawback"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// DeviceService handles the device catalog, purchases and device listings.
type DeviceService interface {
	Catalog() []domain.DeviceTemplate
	Purchase(ctx context.Context, userID uuid.UUID, deviceNumber int) (*PurchaseResult, error)
	ListDevices(ctx context.Context, userID uuid.UUID) ([]domain.DeviceStatus, error)
	IncomeHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.IncomeRecord, int64, error)
}

type deviceService struct {
	dbExecutor  repository.DBExecutor
	tx          *TxRunner
	balance     BalanceService
	userRepo    repository.UserRepository
	deviceRepo  repository.DeviceRepository
	incomeRepo  repository.IncomeRepository
	signupBonus decimal.Decimal
	now         func() time.Time
	logger      *slog.Logger
}

// NewDeviceService creates a new DeviceService. signupBonus is clawed back on
// a user's first purchase.
func NewDeviceService(
	dbExecutor repository.DBExecutor,
	tx *TxRunner,
	balance BalanceService,
	userRepo repository.UserRepository,
	deviceRepo repository.DeviceRepository,
	incomeRepo repository.IncomeRepository,
	signupBonus decimal.Decimal,
	now func() time.Time,
	logger *slog.Logger,
) DeviceService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &deviceService{
		dbExecutor:  dbExecutor,
		tx:          tx,
		balance:     balance,
		userRepo:    userRepo,
		deviceRepo:  deviceRepo,
		incomeRepo:  incomeRepo,
		signupBonus: signupBonus,
		now:         now,
		logger:      logger.With("component", "devices"),
	}
}

func (s *deviceService) Catalog() []domain.DeviceTemplate {
	return domain.Catalog()
}

func (s *deviceService) Purchase(ctx context.Context, userID uuid.UUID, deviceNumber int) (*PurchaseResult, error) {
	tpl, ok := domain.TemplateByNumber(deviceNumber)
	if !ok {
		return nil, fmt.Errorf("purchase: unknown device number %d: %w", deviceNumber, util.ErrInvalidInput)
	}

	var result *PurchaseResult
	err := s.tx.InTx(ctx, "purchase device", func(q repository.DBExecutor) error {
		user, err := s.userRepo.GetUserForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		if user.IsBlocked {
			return util.ErrUserBlocked
		}

		owned, err := s.deviceRepo.CountDevicesByUser(ctx, q, userID)
		if err != nil {
			return err
		}

		device := domain.NewDevice(userID, tpl, s.now())
		entry, err := s.balance.Apply(ctx, q, Mutation{
			UserID:    userID,
			Amount:    tpl.Price.Neg(),
			Kind:      domain.EntryPurchase,
			Reference: "purchase:" + device.ID.String(),
		})
		if err != nil {
			return err
		}

		clawback := decimal.Zero
		if owned == 0 && s.signupBonus.IsPositive() {
			clawback = s.signupBonus
			// One clawback per user, enforced by the reference.
			entry, err = s.balance.Apply(ctx, q, Mutation{
				UserID:    userID,
				Amount:    clawback.Neg(),
				Kind:      domain.EntryBonus,
				Reference: "clawback:" + userID.String(),
			})
			if err != nil {
				return err
			}
		}

		if err := s.deviceRepo.CreateDevice(ctx, q, device); err != nil {
			return err
		}

		result = &PurchaseResult{
			Device:     device,
			Charged:    tpl.Price.Add(clawback),
			Clawback:   clawback,
			NewBalance: entry.BalanceAfter,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purchase device %d: %w", deviceNumber, err)
	}

	s.logger.Info("Device purchased", "user_id", userID, "device_id", result.Device.ID, "charged", result.Charged)
	return result, nil
}

func (s *deviceService) ListDevices(ctx context.Context, userID uuid.UUID) ([]domain.DeviceStatus, error) {
	devices, err := s.deviceRepo.ListDevicesByUser(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	now := s.now()
	out := make([]domain.DeviceStatus, 0, len(devices))
	for i := range devices {
		out = append(out, devices[i].Status(now))
	}
	return out, nil
}

func (s *deviceService) IncomeHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.IncomeRecord, int64, error) {
	records, total, err := s.incomeRepo.ListIncomeByUser(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("income history: %w", err)
	}
	return records, total, nil
}
