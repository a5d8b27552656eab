// internal/service/recharge_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mobile money transaction ids are 11 or 16 digits.
var transactionIDPattern = regexp.MustCompile(`^(\d{11}|\d{16})$`)

// AdminCreditResult is the outcome of a direct admin credit.
type AdminCreditResult struct {
	Success    bool                   `json:"success"`
	NewBalance decimal.Decimal        `json:"new_balance"`
	Entry      *domain.BalanceEntry   `json:"entry"`
	Record     *domain.RechargeRecord `json:"record"`
}

// RechargeService handles user-reported deposits and admin credits.
type RechargeService interface {
	RequestRecharge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, transactionID, eWalletNumber string) (*domain.RechargeRecord, error)
	// ApproveRecharge credits a pending recharge exactly once. A zero amount keeps the requested amount.
	ApproveRecharge(ctx context.Context, adminID, recordID uuid.UUID, amount decimal.Decimal) (*domain.RechargeRecord, error)
	DeclineRecharge(ctx context.Context, adminID, recordID uuid.UUID) (*domain.RechargeRecord, error)
	// CreditUser adds funds directly and records them as a successful recharge.
	CreditUser(ctx context.Context, adminID, userID uuid.UUID, amount decimal.Decimal) (*AdminCreditResult, error)
	ListRecharges(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.RechargeRecord, int64, error)
	ListRechargesByStatus(ctx context.Context, status domain.RecordStatus, limit, offset int) ([]domain.RechargeRecord, int64, error)
}

type rechargeService struct {
	dbExecutor   repository.DBExecutor
	tx           *TxRunner
	balance      BalanceService
	userRepo     repository.UserRepository
	rechargeRepo repository.RechargeRepository
	now          func() time.Time
	logger       *slog.Logger
}

// NewRechargeService creates a new RechargeService.
func NewRechargeService(
	dbExecutor repository.DBExecutor,
	tx *TxRunner,
	balance BalanceService,
	userRepo repository.UserRepository,
	rechargeRepo repository.RechargeRepository,
	now func() time.Time,
	logger *slog.Logger,
) RechargeService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &rechargeService{
		dbExecutor:   dbExecutor,
		tx:           tx,
		balance:      balance,
		userRepo:     userRepo,
		rechargeRepo: rechargeRepo,
		now:          now,
		logger:       logger.With("component", "recharges"),
	}
}

func (s *rechargeService) RequestRecharge(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, transactionID, eWalletNumber string) (*domain.RechargeRecord, error) {
	transactionID = strings.TrimSpace(transactionID)
	eWalletNumber = strings.TrimSpace(eWalletNumber)
	if !amount.IsPositive() || !domain.IsCents(amount) || !transactionIDPattern.MatchString(transactionID) || eWalletNumber == "" {
		return nil, util.ErrInvalidInput
	}

	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("request recharge: %w", err)
	}
	if user.IsBlocked {
		return nil, util.ErrUserBlocked
	}

	record := domain.NewRechargeRecord(userID, amount, user.Balance, transactionID, eWalletNumber)
	if err := s.rechargeRepo.CreateRecharge(ctx, s.dbExecutor, record); err != nil {
		return nil, fmt.Errorf("request recharge: %w", err)
	}

	s.logger.Info("Recharge requested", "user_id", userID, "record_id", record.ID, "amount", amount)
	return record, nil
}

func (s *rechargeService) ApproveRecharge(ctx context.Context, adminID, recordID uuid.UUID, amount decimal.Decimal) (*domain.RechargeRecord, error) {
	if amount.IsNegative() || !domain.IsCents(amount) {
		return nil, util.ErrInvalidInput
	}

	var record *domain.RechargeRecord
	err := s.tx.InTx(ctx, "approve recharge", func(q repository.DBExecutor) error {
		var err error
		record, err = s.rechargeRepo.GetRechargeForUpdate(ctx, q, recordID)
		if err != nil {
			return err
		}
		if record.Status != domain.StatusPending {
			return util.ErrAlreadyProcessed
		}
		if amount.IsPositive() {
			record.Amount = amount
		}

		entry, err := s.balance.Apply(ctx, q, Mutation{
			UserID:    record.UserID,
			Amount:    record.Amount,
			Kind:      domain.EntryRecharge,
			Reference: record.ID.String(),
			ActorID:   &adminID,
		})
		if err != nil {
			return err
		}

		record.PreviousBalance = entry.BalanceBefore
		record.NewBalance = entry.BalanceAfter
		record.Status = domain.StatusSuccessful
		record.ReviewedBy = &adminID
		return s.rechargeRepo.UpdateRecharge(ctx, q, record)
	})
	if err != nil {
		return nil, fmt.Errorf("approve recharge %s: %w", recordID, err)
	}

	s.logger.Info("Recharge approved", "record_id", recordID, "amount", record.Amount, "admin_id", adminID)
	return record, nil
}

func (s *rechargeService) DeclineRecharge(ctx context.Context, adminID, recordID uuid.UUID) (*domain.RechargeRecord, error) {
	var record *domain.RechargeRecord
	err := s.tx.InTx(ctx, "decline recharge", func(q repository.DBExecutor) error {
		var err error
		record, err = s.rechargeRepo.GetRechargeForUpdate(ctx, q, recordID)
		if err != nil {
			return err
		}
		if record.Status != domain.StatusPending {
			return util.ErrAlreadyProcessed
		}
		record.Status = domain.StatusFailed
		record.ReviewedBy = &adminID
		return s.rechargeRepo.UpdateRecharge(ctx, q, record)
	})
	if err != nil {
		return nil, fmt.Errorf("decline recharge %s: %w", recordID, err)
	}
	return record, nil
}

func (s *rechargeService) CreditUser(ctx context.Context, adminID, userID uuid.UUID, amount decimal.Decimal) (*AdminCreditResult, error) {
	if !amount.IsPositive() || !domain.IsCents(amount) {
		return nil, util.ErrInvalidInput
	}

	result := &AdminCreditResult{}
	err := s.tx.InTx(ctx, "admin credit", func(q repository.DBExecutor) error {
		reference := fmt.Sprintf("ADMIN-%d", s.now().UnixNano())
		entry, err := s.balance.Apply(ctx, q, Mutation{
			UserID:    userID,
			Amount:    amount,
			Kind:      domain.EntryAdminCredit,
			Reference: reference,
			ActorID:   &adminID,
		})
		if err != nil {
			return err
		}

		record := domain.NewRechargeRecord(userID, amount, entry.BalanceBefore, reference, "N/A")
		record.NewBalance = entry.BalanceAfter
		record.Status = domain.StatusSuccessful
		record.ReviewedBy = &adminID
		if err := s.rechargeRepo.CreateRecharge(ctx, q, record); err != nil {
			return err
		}

		result.Success = true
		result.NewBalance = entry.BalanceAfter
		result.Entry = entry
		result.Record = record
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("admin credit for user %s: %w", userID, err)
	}

	s.logger.Info("Admin credit applied", "user_id", userID, "amount", amount, "admin_id", adminID)
	return result, nil
}

func (s *rechargeService) ListRecharges(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	records, total, err := s.rechargeRepo.ListRechargesByUser(ctx, s.dbExecutor, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list recharges: %w", err)
	}
	return records, total, nil
}

func (s *rechargeService) ListRechargesByStatus(ctx context.Context, status domain.RecordStatus, limit, offset int) ([]domain.RechargeRecord, int64, error) {
	if !status.Valid() {
		return nil, 0, util.ErrInvalidInput
	}
	records, total, err := s.rechargeRepo.ListRechargesByStatus(ctx, s.dbExecutor, status, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list recharges by status: %w", err)
	}
	return records, total, nil
}
