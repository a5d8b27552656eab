// internal/service/accrual_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReasonNotEligible is reported when a device's window has not elapsed yet.
const ReasonNotEligible = "not yet eligible"

const defaultSweepBatch = 200

// CreditResult is the outcome of one credit-if-eligible call.
type CreditResult struct {
	DeviceID       uuid.UUID       `json:"device_id"`
	Credited       bool            `json:"success"`
	AmountCredited decimal.Decimal `json:"amount_credited"`
	Reason         string          `json:"reason,omitempty"`
	NewBalance     decimal.Decimal `json:"new_balance"`
	NextPayoutAt   time.Time       `json:"next_payout_at"`
}

// SweepSummary reports one scan-and-credit pass.
type SweepSummary struct {
	Processed     int             `json:"processed_count"`
	Skipped       int             `json:"skipped_count"`
	Errors        int             `json:"error_count"`
	ErrorDetails  []string        `json:"error_details"`
	TotalCredited decimal.Decimal `json:"total_credited"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
}

// AccrualService credits device income once per accrual window.
type AccrualService interface {
	// CreditIfEligible credits the device if its window has elapsed and is a no-op otherwise.
	CreditIfEligible(ctx context.Context, deviceID uuid.UUID) (*CreditResult, error)
	// CreditForOwner is CreditIfEligible restricted to devices owned by userID.
	CreditForOwner(ctx context.Context, userID, deviceID uuid.UUID) (*CreditResult, error)
	// ScanAndCredit credits every eligible device, isolating per-device failures.
	ScanAndCredit(ctx context.Context) (*SweepSummary, error)
}

type accrualService struct {
	dbExecutor repository.DBExecutor
	tx         *TxRunner
	balance    BalanceService
	deviceRepo repository.DeviceRepository
	incomeRepo repository.IncomeRepository
	batchSize  int
	now        func() time.Time
	logger     *slog.Logger
}

// NewAccrualService creates a new AccrualService. now defaults to the UTC wall clock.
func NewAccrualService(
	dbExecutor repository.DBExecutor,
	tx *TxRunner,
	balance BalanceService,
	deviceRepo repository.DeviceRepository,
	incomeRepo repository.IncomeRepository,
	batchSize int,
	now func() time.Time,
	logger *slog.Logger,
) AccrualService {
	if batchSize <= 0 {
		batchSize = defaultSweepBatch
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &accrualService{
		dbExecutor: dbExecutor,
		tx:         tx,
		balance:    balance,
		deviceRepo: deviceRepo,
		incomeRepo: incomeRepo,
		batchSize:  batchSize,
		now:        now,
		logger:     logger.With("component", "accrual"),
	}
}

func (s *accrualService) CreditIfEligible(ctx context.Context, deviceID uuid.UUID) (*CreditResult, error) {
	var result *CreditResult
	err := s.tx.InTx(ctx, "credit device", func(q repository.DBExecutor) error {
		device, err := s.deviceRepo.GetDeviceForUpdate(ctx, q, deviceID)
		if err != nil {
			return err
		}

		// Eligibility is decided here, under the row lock, not by whoever scheduled the call.
		now := s.now()
		if !device.IsEligible(now) {
			result = &CreditResult{
				DeviceID:     device.ID,
				Reason:       ReasonNotEligible,
				NextPayoutAt: device.NextPayoutAt(),
			}
			return nil
		}

		windowStart := device.LastPayoutAt
		entry, err := s.balance.Apply(ctx, q, Mutation{
			UserID:    device.UserID,
			Amount:    device.DailyIncome,
			Kind:      domain.EntryIncome,
			Reference: fmt.Sprintf("%s:%d", device.ID, windowStart.Unix()),
		})
		if err != nil {
			return err
		}

		if err := s.incomeRepo.CreateIncomeRecord(ctx, q, domain.NewIncomeRecord(device, now)); err != nil {
			return err
		}

		// Missed windows are forfeited: the clock restarts at now.
		if err := s.deviceRepo.AdvancePayout(ctx, q, device.ID, windowStart, now); err != nil {
			return err
		}

		result = &CreditResult{
			DeviceID:       device.ID,
			Credited:       true,
			AmountCredited: device.DailyIncome,
			NewBalance:     entry.BalanceAfter,
			NextPayoutAt:   now.Add(domain.AccrualWindow),
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("credit device %s: %w", deviceID, err)
	}

	if result.Credited {
		s.logger.Info("Device income credited", "device_id", deviceID, "amount", result.AmountCredited)
	}
	return result, nil
}

func (s *accrualService) CreditForOwner(ctx context.Context, userID, deviceID uuid.UUID) (*CreditResult, error) {
	device, err := s.deviceRepo.GetDeviceByID(ctx, s.dbExecutor, deviceID)
	if err != nil {
		return nil, fmt.Errorf("credit device %s: %w", deviceID, err)
	}
	if device.UserID != userID {
		return nil, util.ErrDeviceNotFound
	}
	return s.CreditIfEligible(ctx, deviceID)
}

func (s *accrualService) ScanAndCredit(ctx context.Context) (*SweepSummary, error) {
	startedAt := s.now()
	summary := &SweepSummary{
		ErrorDetails:  []string{},
		TotalCredited: decimal.Zero,
		StartedAt:     startedAt,
	}
	cutoff := startedAt.Add(-domain.AccrualWindow)
	cursor := uuid.Nil

	s.logger.Info("Starting income sweep", "cutoff", cutoff)
	defer func() { summary.FinishedAt = s.now() }()

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		ids, err := s.deviceRepo.ListEligibleDeviceIDs(ctx, s.dbExecutor, cutoff, cursor, s.batchSize)
		if err != nil {
			return summary, fmt.Errorf("scan and credit: %w", err)
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			cursor = id

			res, err := s.CreditIfEligible(ctx, id)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return summary, err
				}
				summary.Errors++
				summary.ErrorDetails = append(summary.ErrorDetails, fmt.Sprintf("Device %s: %v", id, err))
				s.logger.Error("Failed to credit device", "device_id", id, "error", err)
				continue
			}
			if !res.Credited {
				summary.Skipped++
				continue
			}
			summary.Processed++
			summary.TotalCredited = summary.TotalCredited.Add(res.AmountCredited)
		}

		if len(ids) < s.batchSize {
			break
		}
	}

	s.logger.Info("Income sweep finished",
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"total_credited", summary.TotalCredited,
	)
	return summary, nil
}
