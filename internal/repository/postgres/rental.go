package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository"
)

type rentalRepository struct {
	db DBTX
}

func NewRentalRepository(db DBTX) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, renter_id, owner_id, vehicle_id, start_date, end_date, duration_days, currency,
	price_per_day, delivery_fee, insurance_fee, discount_amount, total_price, deposit_price,
	platform_fee_ratio, platform_fee, owner_earning, fee_settings_id, status,
	start_odometer, end_odometer, COALESCE(cancel_reason, ''), completed_at, created_at, updated_at`

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	query := `INSERT INTO rentals (renter_id, owner_id, vehicle_id, start_date, end_date, duration_days, currency,
	            price_per_day, delivery_fee, insurance_fee, discount_amount, total_price, deposit_price,
	            platform_fee_ratio, platform_fee, owner_earning, fee_settings_id, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	          RETURNING id, created_at, updated_at`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		rt.RenterID, rt.OwnerID, rt.VehicleID, rt.StartDate, rt.EndDate, rt.DurationDays, rt.Currency,
		rt.PricePerDay, rt.DeliveryFee, rt.InsuranceFee, rt.DiscountAmount, rt.TotalPrice, rt.DepositPrice,
		rt.PlatformFeeRatio, rt.PlatformFee, rt.OwnerEarning, rt.FeeSettingsID, rt.Status, now, now,
	).Scan(&rt.ID, &rt.CreatedAt, &rt.UpdatedAt)
}

func (r *rentalRepository) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.get(ctx, id, false)
}

func (r *rentalRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	return r.get(ctx, id, true)
}

func (r *rentalRepository) get(ctx context.Context, id int64, forUpdate bool) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	rt := &domain.Rental{}
	err := scanRental(r.db.QueryRowContext(ctx, query, id), rt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("rental %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *rentalRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.RentalStatus) error {
	query := `UPDATE rentals SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("rental %d status %s -> %s: %w", id, from, to, domain.ErrTransitionConflict)
	}
	return nil
}

func (r *rentalRepository) UpdateLifecycleFields(ctx context.Context, rt *domain.Rental) error {
	query := `UPDATE rentals SET start_odometer = $1, end_odometer = $2, cancel_reason = $3, completed_at = $4, updated_at = $5 WHERE id = $6`
	_, err := r.db.ExecContext(ctx, query, rt.StartOdometer, rt.EndOdometer, rt.CancelReason, rt.CompletedAt, time.Now(), rt.ID)
	return err
}

func (r *rentalRepository) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(ctx, "renter_id", renterID, status, page, pageSize)
}

func (r *rentalRepository) ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	return r.list(ctx, "owner_id", ownerID, status, page, pageSize)
}

func (r *rentalRepository) list(ctx context.Context, column string, userID int64, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	offset := (page - 1) * pageSize
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE ` + column + ` = $1`

	args := []interface{}{userID}
	argIdx := 2
	if status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, status)
		argIdx++
	}

	var count int32
	countQuery := "SELECT count(*) FROM (" + query + ") AS sub"
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&count); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := scanRental(rows, &rt); err != nil {
			return nil, 0, err
		}
		rentals = append(rentals, rt)
	}
	return rentals, count, rows.Err()
}

func (r *rentalRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = $1 AND created_at < $2 ORDER BY created_at LIMIT $3`
	rows, err := r.db.QueryContext(ctx, query, domain.RentalStatusPendingPayment, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rentals []domain.Rental
	for rows.Next() {
		var rt domain.Rental
		if err := scanRental(rows, &rt); err != nil {
			return nil, err
		}
		rentals = append(rentals, rt)
	}
	return rentals, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRental(row rowScanner, rt *domain.Rental) error {
	return row.Scan(
		&rt.ID, &rt.RenterID, &rt.OwnerID, &rt.VehicleID, &rt.StartDate, &rt.EndDate, &rt.DurationDays, &rt.Currency,
		&rt.PricePerDay, &rt.DeliveryFee, &rt.InsuranceFee, &rt.DiscountAmount, &rt.TotalPrice, &rt.DepositPrice,
		&rt.PlatformFeeRatio, &rt.PlatformFee, &rt.OwnerEarning, &rt.FeeSettingsID, &rt.Status,
		&rt.StartOdometer, &rt.EndOdometer, &rt.CancelReason, &rt.CompletedAt, &rt.CreatedAt, &rt.UpdatedAt,
	)
}
