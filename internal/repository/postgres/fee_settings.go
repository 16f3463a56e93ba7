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

type feeSettingsRepository struct {
	db DBTX
}

func NewFeeSettingsRepository(db DBTX) repository.FeeSettingsRepository {
	return &feeSettingsRepository{db: db}
}

func (r *feeSettingsRepository) GetActive(ctx context.Context) (*domain.FeeSettings, error) {
	fs := &domain.FeeSettings{}
	query := `SELECT id, delivery_fee_per_km, insurance_tier_a, insurance_tier_b, insurance_tier_c, insurance_tier_d,
	            insurance_tier_default, insurance_commission_ratio, platform_fee_ratio, active, created_at, updated_at
	          FROM fee_settings WHERE active = TRUE`
	err := r.db.QueryRowContext(ctx, query).Scan(
		&fs.ID, &fs.DeliveryFeePerKm, &fs.InsuranceTierA, &fs.InsuranceTierB, &fs.InsuranceTierC, &fs.InsuranceTierD,
		&fs.InsuranceTierDefault, &fs.InsuranceCommissionRatio, &fs.PlatformFeeRatio, &fs.Active, &fs.CreatedAt, &fs.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active fee settings: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// Activate retires the current active row and inserts the new one as active.
// Historical rows are never deleted; rentals reference them by id.
func (r *feeSettingsRepository) Activate(ctx context.Context, fs *domain.FeeSettings) error {
	now := time.Now()
	if _, err := r.db.ExecContext(ctx,
		`UPDATE fee_settings SET active = FALSE, updated_at = $1 WHERE active = TRUE`, now); err != nil {
		return err
	}

	query := `INSERT INTO fee_settings (delivery_fee_per_km, insurance_tier_a, insurance_tier_b, insurance_tier_c,
	            insurance_tier_d, insurance_tier_default, insurance_commission_ratio, platform_fee_ratio, active,
	            created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9, $9) RETURNING id`
	if err := r.db.QueryRowContext(ctx, query,
		fs.DeliveryFeePerKm, fs.InsuranceTierA, fs.InsuranceTierB, fs.InsuranceTierC,
		fs.InsuranceTierD, fs.InsuranceTierDefault, fs.InsuranceCommissionRatio, fs.PlatformFeeRatio, now,
	).Scan(&fs.ID); err != nil {
		return err
	}
	fs.Active = true
	fs.CreatedAt = now
	fs.UpdatedAt = now
	return nil
}
