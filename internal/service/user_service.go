// internal/service/user_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const codeAttempts = 10

// PhonePattern matches a 10-digit Ghanaian mobile number.
var PhonePattern = regexp.MustCompile(`^0(20|24|25|26|27|50|54|55|56|59)\d{7}$`)

var invitationCodePattern = regexp.MustCompile(`^\d{5}$`)

// RegisterInput carries the profile fields for a new account.
type RegisterInput struct {
	ID             uuid.UUID
	Phone          string
	Email          string
	InvitationCode string
}

// UserConfig holds the configurable bonuses.
type UserConfig struct {
	SignupBonus  decimal.Decimal
	CheckinBonus decimal.Decimal
}

// TeamSummary is the referral view of a user.
type TeamSummary struct {
	UniqueCode    string              `json:"unique_code"`
	ReferralCount int64               `json:"referral_count"`
	Tiers         []domain.RebateTier `json:"tiers"`
}

// UserService handles account provisioning and account-level bonuses.
type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error)
	// CheckIn credits the daily bonus; util.ErrNotEligibleYet inside the 24h window.
	CheckIn(ctx context.Context, userID uuid.UUID) (*domain.BalanceEntry, error)
	SetBlocked(ctx context.Context, userID uuid.UUID, blocked bool) (*domain.User, error)
	Team(ctx context.Context, userID uuid.UUID) (*TeamSummary, error)
	Stats(ctx context.Context) (*domain.PlatformStats, error)
}

type userService struct {
	dbExecutor repository.DBExecutor
	tx         *TxRunner
	balance    BalanceService
	userRepo   repository.UserRepository
	cfg        UserConfig
	now        func() time.Time
	newCode    func() string
	logger     *slog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(
	dbExecutor repository.DBExecutor,
	tx *TxRunner,
	balance BalanceService,
	userRepo repository.UserRepository,
	cfg UserConfig,
	now func() time.Time,
	logger *slog.Logger,
) UserService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &userService{
		dbExecutor: dbExecutor,
		tx:         tx,
		balance:    balance,
		userRepo:   userRepo,
		cfg:        cfg,
		now:        now,
		newCode:    randomCode,
		logger:     logger.With("component", "users"),
	}
}

func randomCode() string {
	return strconv.Itoa(10000 + rand.Intn(90000))
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	in.Phone = strings.TrimSpace(in.Phone)
	in.InvitationCode = strings.TrimSpace(in.InvitationCode)
	if in.ID == uuid.Nil || !PhonePattern.MatchString(in.Phone) {
		return nil, util.ErrInvalidInput
	}
	if in.InvitationCode != "" && !invitationCodePattern.MatchString(in.InvitationCode) {
		return nil, util.ErrInvalidInput
	}

	// freeCode reads before inserting, so a concurrent registration can claim
	// the same code in between. Such a registration is replayed with a new code.
	for attempt := 1; ; attempt++ {
		user, err := s.createUser(ctx, in)
		if errors.Is(err, util.ErrCodeTaken) && attempt < codeAttempts {
			s.logger.Warn("Referral code taken concurrently, retrying", "user_id", in.ID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("register user: %w", err)
		}
		s.logger.Info("User registered", "user_id", user.ID, "unique_code", user.UniqueCode)
		return user, nil
	}
}

func (s *userService) createUser(ctx context.Context, in RegisterInput) (*domain.User, error) {
	var user *domain.User
	err := s.tx.InTx(ctx, "register user", func(q repository.DBExecutor) error {
		if _, err := s.userRepo.GetUserByID(ctx, q, in.ID); err == nil {
			return util.ErrDuplicateEntry
		} else if !errors.Is(err, util.ErrUserNotFound) {
			return err
		}
		if _, err := s.userRepo.GetUserByPhone(ctx, q, in.Phone); err == nil {
			return util.ErrDuplicateEntry
		} else if !errors.Is(err, util.ErrUserNotFound) {
			return err
		}

		var invitation *string
		if in.InvitationCode != "" {
			if _, err := s.userRepo.GetUserByUniqueCode(ctx, q, in.InvitationCode); err != nil {
				if errors.Is(err, util.ErrUserNotFound) {
					return fmt.Errorf("unknown invitation code: %w", util.ErrInvalidInput)
				}
				return err
			}
			code := in.InvitationCode
			invitation = &code
		}

		code, err := s.freeCode(ctx, q)
		if err != nil {
			return err
		}

		user = domain.NewUser(in.ID, in.Phone, strings.TrimSpace(in.Email), code, invitation)
		if err := s.userRepo.CreateUser(ctx, q, user); err != nil {
			return err
		}

		if s.cfg.SignupBonus.IsPositive() {
			entry, err := s.balance.Apply(ctx, q, Mutation{
				UserID:    user.ID,
				Amount:    s.cfg.SignupBonus,
				Kind:      domain.EntryBonus,
				Reference: "signup:" + user.ID.String(),
			})
			if err != nil {
				return err
			}
			user.Balance = entry.BalanceAfter
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) freeCode(ctx context.Context, q repository.DBExecutor) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := s.newCode()
		_, err := s.userRepo.GetUserByUniqueCode(ctx, q, code)
		if errors.Is(err, util.ErrUserNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free referral code after %d attempts: %w", codeAttempts, util.ErrDuplicateEntry)
}

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return user, nil
}

func (s *userService) IsAdmin(ctx context.Context, userID uuid.UUID) (bool, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin, nil
}

func (s *userService) CheckIn(ctx context.Context, userID uuid.UUID) (*domain.BalanceEntry, error) {
	var entry *domain.BalanceEntry
	err := s.tx.InTx(ctx, "daily check-in", func(q repository.DBExecutor) error {
		user, err := s.userRepo.GetUserForUpdate(ctx, q, userID)
		if err != nil {
			return err
		}
		if user.IsBlocked {
			return util.ErrUserBlocked
		}
		now := s.now()
		if !user.CanCheckIn(now) {
			return util.ErrNotEligibleYet
		}

		entry, err = s.balance.Apply(ctx, q, Mutation{
			UserID:    userID,
			Amount:    s.cfg.CheckinBonus,
			Kind:      domain.EntryBonus,
			Reference: fmt.Sprintf("checkin:%s:%d", userID, now.Unix()),
		})
		if err != nil {
			return err
		}
		return s.userRepo.UpdateLastCheckin(ctx, q, userID, now)
	})
	if err != nil {
		return nil, fmt.Errorf("check-in: %w", err)
	}
	return entry, nil
}

func (s *userService) SetBlocked(ctx context.Context, userID uuid.UUID, blocked bool) (*domain.User, error) {
	if err := s.userRepo.SetBlocked(ctx, s.dbExecutor, userID, blocked); err != nil {
		return nil, fmt.Errorf("set blocked: %w", err)
	}
	s.logger.Info("User block flag changed", "user_id", userID, "blocked", blocked)
	return s.GetProfile(ctx, userID)
}

func (s *userService) Team(ctx context.Context, userID uuid.UUID) (*TeamSummary, error) {
	user, err := s.userRepo.GetUserByID(ctx, s.dbExecutor, userID)
	if err != nil {
		return nil, fmt.Errorf("team: %w", err)
	}
	n, err := s.userRepo.CountReferrals(ctx, s.dbExecutor, user.UniqueCode)
	if err != nil {
		return nil, fmt.Errorf("team: %w", err)
	}
	return &TeamSummary{
		UniqueCode:    user.UniqueCode,
		ReferralCount: n,
		Tiers:         domain.RebateTiers,
	}, nil
}

func (s *userService) Stats(ctx context.Context) (*domain.PlatformStats, error) {
	stats, err := s.userRepo.GetPlatformStats(ctx, s.dbExecutor)
	if err != nil {
		return nil, fmt.Errorf("platform stats: %w", err)
	}
	return stats, nil
}
