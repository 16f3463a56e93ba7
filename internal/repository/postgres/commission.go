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

type commissionRepository struct {
	db DBTX
}

func NewCommissionRepository(db DBTX) repository.CommissionRepository {
	return &commissionRepository{db: db}
}

const commissionColumns = `id, owner_id, week_start_date, week_end_date, total_earning, commission_rate,
	commission_amount, rental_count, payment_status, paid_at, created_at, updated_at`

func (r *commissionRepository) GetByID(ctx context.Context, id int64) (*domain.OwnerCommission, error) {
	c := &domain.OwnerCommission{}
	query := `SELECT ` + commissionColumns + ` FROM owner_commissions WHERE id = $1`
	err := scanCommission(r.db.QueryRowContext(ctx, query, id), c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("commission %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *commissionRepository) GetByOwnerWeek(ctx context.Context, ownerID int64, weekStart time.Time) (*domain.OwnerCommission, error) {
	c := &domain.OwnerCommission{}
	query := `SELECT ` + commissionColumns + ` FROM owner_commissions WHERE owner_id = $1 AND week_start_date = $2`
	err := scanCommission(r.db.QueryRowContext(ctx, query, ownerID, weekStart), c)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("commission for owner %d week %s: %w", ownerID, weekStart.Format("2006-01-02"), domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *commissionRepository) Upsert(ctx context.Context, c *domain.OwnerCommission) error {
	// Update-in-place is only legal while the row is PENDING and no payment
	// submission exists against it; the service checks for payment rows first,
	// and the guards here back it up.
	query := `INSERT INTO owner_commissions (owner_id, week_start_date, week_end_date, total_earning, commission_rate,
	            commission_amount, rental_count, payment_status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
	          ON CONFLICT (owner_id, week_start_date) DO UPDATE
	            SET total_earning = EXCLUDED.total_earning,
	                commission_rate = EXCLUDED.commission_rate,
	                commission_amount = EXCLUDED.commission_amount,
	                rental_count = EXCLUDED.rental_count,
	                updated_at = EXCLUDED.updated_at
	            WHERE owner_commissions.payment_status = 'PENDING'
	              AND NOT EXISTS (SELECT 1 FROM commission_payments
	                              WHERE commission_payments.commission_id = owner_commissions.id)
	          RETURNING id, created_at, updated_at`
	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		c.OwnerID, c.WeekStartDate, c.WeekEndDate, c.TotalEarning, c.CommissionRate,
		c.CommissionAmount, c.RentalCount, c.PaymentStatus, now,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict row exists but is paid or has a submission on file.
		return fmt.Errorf("commission for owner %d week %s: %w",
			c.OwnerID, c.WeekStartDate.Format("2006-01-02"), domain.ErrSettlementLocked)
	}
	return err
}

func (r *commissionRepository) MarkPaid(ctx context.Context, id int64, paidAt time.Time) error {
	query := `UPDATE owner_commissions SET payment_status = $1, paid_at = $2, updated_at = $3
	          WHERE id = $4 AND payment_status = $5`
	res, err := r.db.ExecContext(ctx, query,
		domain.CommissionStatusPaid, paidAt, time.Now(), id, domain.CommissionStatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("commission %d: %w", id, domain.ErrTransitionConflict)
	}
	return nil
}

func (r *commissionRepository) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.OwnerCommission, int32, error) {
	offset := (page - 1) * pageSize

	var count int32
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM owner_commissions WHERE owner_id = $1`, ownerID).Scan(&count); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + commissionColumns + ` FROM owner_commissions WHERE owner_id = $1
	          ORDER BY week_start_date DESC LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, ownerID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var commissions []domain.OwnerCommission
	for rows.Next() {
		var c domain.OwnerCommission
		if err := scanCommission(rows, &c); err != nil {
			return nil, 0, err
		}
		commissions = append(commissions, c)
	}
	return commissions, count, rows.Err()
}

func (r *commissionRepository) HasPayments(ctx context.Context, commissionID int64) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM commission_payments WHERE commission_id = $1)`
	err := r.db.QueryRowContext(ctx, query, commissionID).Scan(&exists)
	return exists, err
}

func (r *commissionRepository) CreatePayment(ctx context.Context, p *domain.CommissionPayment) error {
	query := `INSERT INTO commission_payments (commission_id, invoice_ref, invoice_url, status, created_at)
	          VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`
	return r.db.QueryRowContext(ctx, query,
		p.CommissionID, p.InvoiceRef, p.InvoiceURL, p.Status, time.Now(),
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *commissionRepository) GetPaymentByID(ctx context.Context, id int64) (*domain.CommissionPayment, error) {
	p := &domain.CommissionPayment{}
	query := `SELECT id, commission_id, invoice_ref, COALESCE(invoice_url, ''), status, COALESCE(admin_notes, ''),
	            reviewed_by, reviewed_at, created_at
	          FROM commission_payments WHERE id = $1`
	err := scanPayment(r.db.QueryRowContext(ctx, query, id), p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("commission payment %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *commissionRepository) GetPendingPayment(ctx context.Context, commissionID int64) (*domain.CommissionPayment, error) {
	p := &domain.CommissionPayment{}
	query := `SELECT id, commission_id, invoice_ref, COALESCE(invoice_url, ''), status, COALESCE(admin_notes, ''),
	            reviewed_by, reviewed_at, created_at
	          FROM commission_payments WHERE commission_id = $1 AND status = $2`
	err := scanPayment(r.db.QueryRowContext(ctx, query, commissionID, domain.CommissionPaymentStatusPending), p)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pending payment for commission %d: %w", commissionID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *commissionRepository) ReviewPayment(ctx context.Context, p *domain.CommissionPayment) error {
	query := `UPDATE commission_payments SET status = $1, admin_notes = $2, reviewed_by = $3, reviewed_at = $4
	          WHERE id = $5 AND status = $6`
	res, err := r.db.ExecContext(ctx, query,
		p.Status, p.AdminNotes, p.ReviewedBy, p.ReviewedAt, p.ID, domain.CommissionPaymentStatusPending)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("commission payment %d: %w", p.ID, domain.ErrTransitionConflict)
	}
	return nil
}

func (r *commissionRepository) ListPayments(ctx context.Context, commissionID int64) ([]domain.CommissionPayment, error) {
	query := `SELECT id, commission_id, invoice_ref, COALESCE(invoice_url, ''), status, COALESCE(admin_notes, ''),
	            reviewed_by, reviewed_at, created_at
	          FROM commission_payments WHERE commission_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, commissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.CommissionPayment
	for rows.Next() {
		var p domain.CommissionPayment
		if err := scanPayment(rows, &p); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func scanCommission(row rowScanner, c *domain.OwnerCommission) error {
	return row.Scan(&c.ID, &c.OwnerID, &c.WeekStartDate, &c.WeekEndDate, &c.TotalEarning, &c.CommissionRate,
		&c.CommissionAmount, &c.RentalCount, &c.PaymentStatus, &c.PaidAt, &c.CreatedAt, &c.UpdatedAt)
}

func scanPayment(row rowScanner, p *domain.CommissionPayment) error {
	return row.Scan(&p.ID, &p.CommissionID, &p.InvoiceRef, &p.InvoiceURL, &p.Status, &p.AdminNotes,
		&p.ReviewedBy, &p.ReviewedAt, &p.CreatedAt)
}
