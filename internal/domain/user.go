// internal/domain/user.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckinWindow is the minimum gap between two daily check-in bonuses.
const CheckinWindow = 24 * time.Hour

// User is an account holder. ID is the subject issued by the identity provider.
type User struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	Phone          string          `db:"phone" json:"phone"`
	Email          string          `db:"email" json:"email,omitempty"`
	UniqueCode     string          `db:"unique_code" json:"unique_code"`         // code this user hands out to referrals
	InvitationCode *string         `db:"invitation_code" json:"invitation_code"` // referrer's unique_code
	Balance        decimal.Decimal `db:"balance" json:"balance"`                 // NUMERIC(20, 2), never negative
	IsBlocked      bool            `db:"is_blocked" json:"is_blocked"`
	IsAdmin        bool            `db:"is_admin" json:"is_admin"`
	LastCheckinAt  *time.Time      `db:"last_checkin_at" json:"last_checkin_at"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// NewUser creates a User with a zero balance. Signup bonuses are credited
// separately so they show up in the balance journal.
func NewUser(id uuid.UUID, phone, email, uniqueCode string, invitationCode *string) *User {
	now := time.Now().UTC()
	return &User{
		ID:             id,
		Phone:          phone,
		Email:          email,
		UniqueCode:     uniqueCode,
		InvitationCode: invitationCode,
		Balance:        decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CanCheckIn reports whether the daily check-in bonus is available at now.
func (u *User) CanCheckIn(now time.Time) bool {
	if u.LastCheckinAt == nil {
		return true
	}
	return !now.Before(u.LastCheckinAt.Add(CheckinWindow))
}

// PlatformStats is the admin dashboard summary.
type PlatformStats struct {
	TotalUsers   int64           `db:"total_users" json:"total_users"`
	TotalBalance decimal.Decimal `db:"total_balance" json:"total_balance"`
	TotalDevices int64           `db:"total_devices" json:"total_devices"`
}

// RebateTier describes one level of the referral team table.
type RebateTier struct {
	Level   int             `json:"level"`
	Percent decimal.Decimal `json:"percent"`
}

// RebateTiers is informational only; commissions are not credited automatically.
var RebateTiers = []RebateTier{
	{Level: 1, Percent: decimal.NewFromInt(30)},
	{Level: 2, Percent: decimal.NewFromInt(5)},
	{Level: 3, Percent: decimal.NewFromInt(3)},
}
