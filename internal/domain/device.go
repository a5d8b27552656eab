// internal/domain/device.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccrualWindow is the fixed interval after which a device earns its next payout.
const AccrualWindow = 24 * time.Hour

// DeviceState is the accrual state of a device at a given instant.
type DeviceState string

const (
	DeviceAwaiting DeviceState = "AWAITING"
	DeviceEligible DeviceState = "ELIGIBLE"
)

// Device is a purchased unit that pays DailyIncome to its owner once per window.
type Device struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	DeviceNumber int             `db:"device_number" json:"device_number"`
	DeviceName   string          `db:"device_name" json:"device_name"`
	ProductPrice decimal.Decimal `db:"product_price" json:"product_price"`
	DailyIncome  decimal.Decimal `db:"daily_income" json:"daily_income"`
	TotalIncome  decimal.Decimal `db:"total_income" json:"total_income"` // informational, not a cap
	PurchasedAt  time.Time       `db:"purchased_at" json:"purchased_at"`
	LastPayoutAt time.Time       `db:"last_payout_at" json:"last_payout_at"`
}

// NewDevice instantiates a catalog template for a user. The first window
// starts at purchase time.
func NewDevice(userID uuid.UUID, tpl DeviceTemplate, now time.Time) *Device {
	now = now.UTC()
	return &Device{
		ID:           uuid.New(),
		UserID:       userID,
		DeviceNumber: tpl.Number,
		DeviceName:   tpl.Name,
		ProductPrice: tpl.Price,
		DailyIncome:  tpl.DailyIncome,
		TotalIncome:  tpl.TotalIncome,
		PurchasedAt:  now,
		LastPayoutAt: now,
	}
}

// NextPayoutAt is the earliest instant the device becomes eligible again.
func (d *Device) NextPayoutAt() time.Time {
	return d.LastPayoutAt.Add(AccrualWindow)
}

// IsEligible reports whether now >= last_payout_at + 24h.
func (d *Device) IsEligible(now time.Time) bool {
	return !now.Before(d.NextPayoutAt())
}

// State returns the accrual state at now.
func (d *Device) State(now time.Time) DeviceState {
	if d.IsEligible(now) {
		return DeviceEligible
	}
	return DeviceAwaiting
}

// DeviceStatus is a device together with its countdown as seen at a given instant.
type DeviceStatus struct {
	Device
	State            DeviceState `json:"state"`
	NextPayoutAt     time.Time   `json:"next_payout_at"`
	SecondsRemaining int64       `json:"seconds_remaining"`
}

// Status snapshots the device countdown at now.
func (d *Device) Status(now time.Time) DeviceStatus {
	next := d.NextPayoutAt()
	remaining := int64(0)
	if now.Before(next) {
		remaining = int64(next.Sub(now).Seconds())
	}
	return DeviceStatus{
		Device:           *d,
		State:            d.State(now),
		NextPayoutAt:     next,
		SecondsRemaining: remaining,
	}
}
