// internal/repository/postgres/device_pg.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"rewardvault/internal/domain"
	"rewardvault/internal/repository"
	"rewardvault/internal/util"

	"github.com/google/uuid"
)

const deviceColumns = `id, user_id, device_number, device_name, product_price, daily_income, total_income,
       purchased_at, last_payout_at`

// DeviceRepository implements repository.DeviceRepository for PostgreSQL.
type DeviceRepository struct{}

// NewDeviceRepository creates a new DeviceRepository.
func NewDeviceRepository() repository.DeviceRepository {
	return &DeviceRepository{}
}

func (r *DeviceRepository) CreateDevice(ctx context.Context, q repository.DBExecutor, d *domain.Device) error {
	query := `INSERT INTO user_devices (id, user_id, device_number, device_name, product_price, daily_income,
                  total_income, purchased_at, last_payout_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := q.ExecContext(ctx, query, d.ID, d.UserID, d.DeviceNumber, d.DeviceName, d.ProductPrice,
		d.DailyIncome, d.TotalIncome, d.PurchasedAt, d.LastPayoutAt)
	return mapErr(err, util.ErrDeviceNotFound, "failed to create device")
}

func (r *DeviceRepository) GetDeviceByID(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Device, error) {
	return r.getOne(ctx, q, `SELECT `+deviceColumns+` FROM user_devices WHERE id = $1`, id)
}

func (r *DeviceRepository) GetDeviceForUpdate(ctx context.Context, q repository.DBExecutor, id uuid.UUID) (*domain.Device, error) {
	return r.getOne(ctx, q, `SELECT `+deviceColumns+` FROM user_devices WHERE id = $1 FOR UPDATE`, id)
}

func (r *DeviceRepository) getOne(ctx context.Context, q repository.DBExecutor, query string, id uuid.UUID) (*domain.Device, error) {
	var d domain.Device
	if err := q.GetContext(ctx, &d, query, id); err != nil {
		return nil, mapErr(err, util.ErrDeviceNotFound, fmt.Sprintf("failed to get device %s", id))
	}
	return &d, nil
}

func (r *DeviceRepository) ListDevicesByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) ([]domain.Device, error) {
	devices := []domain.Device{}
	query := `SELECT ` + deviceColumns + ` FROM user_devices WHERE user_id = $1 ORDER BY purchased_at DESC`
	if err := q.SelectContext(ctx, &devices, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list devices for user %s: %w", userID, err)
	}
	return devices, nil
}

func (r *DeviceRepository) CountDevicesByUser(ctx context.Context, q repository.DBExecutor, userID uuid.UUID) (int64, error) {
	var n int64
	if err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM user_devices WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("failed to count devices for user %s: %w", userID, err)
	}
	return n, nil
}

func (r *DeviceRepository) ListEligibleDeviceIDs(ctx context.Context, q repository.DBExecutor, cutoff time.Time, after uuid.UUID, limit int) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	query := `SELECT id FROM user_devices
              WHERE last_payout_at <= $1 AND id > $2
              ORDER BY id
              LIMIT $3`
	if err := q.SelectContext(ctx, &ids, query, cutoff, after, limit); err != nil {
		return nil, fmt.Errorf("failed to list eligible devices: %w", err)
	}
	return ids, nil
}

func (r *DeviceRepository) AdvancePayout(ctx context.Context, q repository.DBExecutor, id uuid.UUID, expected, next time.Time) error {
	query := `UPDATE user_devices SET last_payout_at = $1 WHERE id = $2 AND last_payout_at = $3`
	res, err := q.ExecContext(ctx, query, next, id, expected)
	if err != nil {
		return fmt.Errorf("failed to advance payout clock for device %s: %w", id, err)
	}
	return expectOneRow(res, util.ErrConcurrentModification, "advance payout clock")
}
