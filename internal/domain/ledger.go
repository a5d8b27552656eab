// internal/domain/ledger.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryKind tags what caused a balance change.
type EntryKind string

const (
	EntryIncome         EntryKind = "income"
	EntryRecharge       EntryKind = "recharge"
	EntryWithdraw       EntryKind = "withdraw"
	EntryWithdrawRefund EntryKind = "withdraw_refund"
	EntryAdminCredit    EntryKind = "admin_credit"
	EntryBonus          EntryKind = "bonus"
	EntryPurchase       EntryKind = "purchase"
)

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryIncome, EntryRecharge, EntryWithdraw, EntryWithdrawRefund,
		EntryAdminCredit, EntryBonus, EntryPurchase:
		return true
	}
	return false
}

// MoneyScale is the number of decimal places stored for every amount.
const MoneyScale = 2

// IsCents reports whether d fits in MoneyScale decimal places without rounding.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(MoneyScale))
}

// BalanceEntry is the immutable journal row written with every balance change.
// (Kind, Reference) is unique, which makes every mutation idempotent.
type BalanceEntry struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	ActorID       *uuid.UUID      `db:"actor_id" json:"actor_id"` // nil means system
	Kind          EntryKind       `db:"kind" json:"kind"`
	Reference     string          `db:"reference" json:"reference"`
	Amount        decimal.Decimal `db:"amount" json:"amount"` // signed
	BalanceBefore decimal.Decimal `db:"balance_before" json:"balance_before"`
	BalanceAfter  decimal.Decimal `db:"balance_after" json:"balance_after"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// NewBalanceEntry builds a journal row for a change from before by amount.
func NewBalanceEntry(userID uuid.UUID, actorID *uuid.UUID, kind EntryKind, reference string, amount, before decimal.Decimal) *BalanceEntry {
	return &BalanceEntry{
		ID:            uuid.New(),
		UserID:        userID,
		ActorID:       actorID,
		Kind:          kind,
		Reference:     reference,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  before.Add(amount),
		CreatedAt:     time.Now().UTC(),
	}
}

// IncomeRecord documents one accrual payout for a device.
type IncomeRecord struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	UserID      uuid.UUID       `db:"user_id" json:"user_id"`
	DeviceID    uuid.UUID       `db:"device_id" json:"device_id"`
	DeviceName  string          `db:"device_name" json:"device_name"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	WindowStart time.Time       `db:"window_start" json:"window_start"` // last_payout_at consumed by this payout
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// NewIncomeRecord records a payout of the device's daily income at now.
func NewIncomeRecord(d *Device, now time.Time) *IncomeRecord {
	return &IncomeRecord{
		ID:          uuid.New(),
		UserID:      d.UserID,
		DeviceID:    d.ID,
		DeviceName:  d.DeviceName,
		Amount:      d.DailyIncome,
		WindowStart: d.LastPayoutAt,
		CreatedAt:   now.UTC(),
	}
}
