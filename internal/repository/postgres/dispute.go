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

type disputeRepository struct {
	db DBTX
}

func NewDisputeRepository(db DBTX) repository.DisputeRepository {
	return &disputeRepository{db: db}
}

const disputeColumns = `id, rental_id, opened_by, reason, COALESCE(description, ''), status,
	COALESCE(admin_notes, ''), resolved_by, resolved_at, created_at, updated_at`

func (r *disputeRepository) Create(ctx context.Context, d *domain.RentalDispute) error {
	query := `INSERT INTO rental_disputes (rental_id, opened_by, reason, description, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	now := time.Now()
	return r.db.QueryRowContext(ctx, query,
		d.RentalID, d.OpenedBy, d.Reason, d.Description, d.Status, now, now,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *disputeRepository) GetByID(ctx context.Context, id int64) (*domain.RentalDispute, error) {
	d := &domain.RentalDispute{}
	query := `SELECT ` + disputeColumns + ` FROM rental_disputes WHERE id = $1`
	err := scanDispute(r.db.QueryRowContext(ctx, query, id), d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("dispute %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *disputeRepository) GetOpenByRental(ctx context.Context, rentalID int64) (*domain.RentalDispute, error) {
	d := &domain.RentalDispute{}
	query := `SELECT ` + disputeColumns + ` FROM rental_disputes
	          WHERE rental_id = $1 AND status IN ($2, $3)`
	err := scanDispute(r.db.QueryRowContext(ctx, query, rentalID,
		domain.DisputeStatusOpen, domain.DisputeStatusUnderReview), d)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("open dispute for rental %d: %w", rentalID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *disputeRepository) UpdateStatus(ctx context.Context, d *domain.RentalDispute, from domain.DisputeStatus) error {
	query := `UPDATE rental_disputes SET status = $1, admin_notes = $2, resolved_by = $3, resolved_at = $4, updated_at = $5
	          WHERE id = $6 AND status = $7`
	res, err := r.db.ExecContext(ctx, query,
		d.Status, d.AdminNotes, d.ResolvedBy, d.ResolvedAt, time.Now(), d.ID, from)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("dispute %d status %s -> %s: %w", d.ID, from, d.Status, domain.ErrTransitionConflict)
	}
	return nil
}

func (r *disputeRepository) AddEvidence(ctx context.Context, e *domain.RentalEvidence) error {
	// sort_order is assigned from the current max so display order follows
	// submission order deterministically.
	query := `INSERT INTO rental_evidence (rental_id, dispute_id, uploaded_by, type, file_url, description, sort_order, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6,
	            (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM rental_evidence WHERE rental_id = $1),
	            $7)
	          RETURNING id, sort_order, created_at`
	return r.db.QueryRowContext(ctx, query,
		e.RentalID, e.DisputeID, e.UploadedBy, e.Type, e.FileURL, e.Description, time.Now(),
	).Scan(&e.ID, &e.SortOrder, &e.CreatedAt)
}

func (r *disputeRepository) ListEvidence(ctx context.Context, rentalID int64) ([]domain.RentalEvidence, error) {
	query := `SELECT id, rental_id, dispute_id, uploaded_by, type, file_url, COALESCE(description, ''), sort_order, created_at
	          FROM rental_evidence WHERE rental_id = $1 ORDER BY sort_order`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var evidence []domain.RentalEvidence
	for rows.Next() {
		var e domain.RentalEvidence
		if err := rows.Scan(&e.ID, &e.RentalID, &e.DisputeID, &e.UploadedBy, &e.Type, &e.FileURL,
			&e.Description, &e.SortOrder, &e.CreatedAt); err != nil {
			return nil, err
		}
		evidence = append(evidence, e)
	}
	return evidence, rows.Err()
}

func scanDispute(row rowScanner, d *domain.RentalDispute) error {
	return row.Scan(&d.ID, &d.RentalID, &d.OpenedBy, &d.Reason, &d.Description, &d.Status,
		&d.AdminNotes, &d.ResolvedBy, &d.ResolvedAt, &d.CreatedAt, &d.UpdatedAt)
}
