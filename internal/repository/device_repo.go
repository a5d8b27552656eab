// internal/repository/device_repo.go
package repository

import (
	"context"
	"time"

	"rewardvault/internal/domain"

	"github.com/google/uuid"
)

// DeviceRepository defines the interface for device data operations.
type DeviceRepository interface {
	CreateDevice(ctx context.Context, q DBExecutor, device *domain.Device) error
	GetDeviceByID(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Device, error)
	// GetDeviceForUpdate reads the device and holds its row lock until the transaction ends.
	GetDeviceForUpdate(ctx context.Context, q DBExecutor, id uuid.UUID) (*domain.Device, error)
	ListDevicesByUser(ctx context.Context, q DBExecutor, userID uuid.UUID) ([]domain.Device, error)
	CountDevicesByUser(ctx context.Context, q DBExecutor, userID uuid.UUID) (int64, error)
	// ListEligibleDeviceIDs pages through devices with last_payout_at <= cutoff,
	// ordered by id and starting strictly after the given cursor.
	ListEligibleDeviceIDs(ctx context.Context, q DBExecutor, cutoff time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error)
	// AdvancePayout moves last_payout_at from expected to next. It returns
	// util.ErrConcurrentModification when the stored value is no longer expected.
	AdvancePayout(ctx context.Context, q DBExecutor, id uuid.UUID, expected, next time.Time) error
}
