package postgres

import (
	"context"
	"fmt"
	"time"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository"

	"github.com/lib/pq"
)

type ledgerRepository struct {
	db DBTX
}

func NewLedgerRepository(db DBTX) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

func (r *ledgerRepository) CreateTransaction(ctx context.Context, tx *domain.RentalTransaction) error {
	query := `INSERT INTO rental_transactions (rental_id, user_id, type, amount, currency, status, description,
	            idempotency_key, external_ref, charged_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`
	now := time.Now()
	if tx.ChargedAt.IsZero() {
		tx.ChargedAt = now
	}
	err := r.db.QueryRowContext(ctx, query,
		tx.RentalID, tx.UserID, tx.Type, tx.Amount, tx.Currency, tx.Status, tx.Description,
		tx.IdempotencyKey, tx.ExternalRef, tx.ChargedAt, now,
	).Scan(&tx.ID)
	if err != nil {
		// Unique violation on idempotency_key means the entry exists already.
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("ledger entry %q: %w", tx.IdempotencyKey, domain.ErrDuplicateLedgerEntry)
		}
		return err
	}
	tx.CreatedAt = now
	return nil
}

func (r *ledgerRepository) HasTransaction(ctx context.Context, rentalID int64, idempotencyKey string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM rental_transactions WHERE rental_id = $1 AND idempotency_key = $2)`
	err := r.db.QueryRowContext(ctx, query, rentalID, idempotencyKey).Scan(&exists)
	return exists, err
}

func (r *ledgerRepository) ListByRental(ctx context.Context, rentalID int64) ([]domain.RentalTransaction, error) {
	query := `SELECT id, rental_id, user_id, type, amount, currency, status, COALESCE(description, ''),
	            idempotency_key, COALESCE(external_ref, ''), charged_at, created_at
	          FROM rental_transactions WHERE rental_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []domain.RentalTransaction
	for rows.Next() {
		var tx domain.RentalTransaction
		if err := rows.Scan(&tx.ID, &tx.RentalID, &tx.UserID, &tx.Type, &tx.Amount, &tx.Currency, &tx.Status,
			&tx.Description, &tx.IdempotencyKey, &tx.ExternalRef, &tx.ChargedAt, &tx.CreatedAt); err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// payoutNotReversed excludes payouts whose rental carries an owner-side
// reversal entry (a dispute resolved with a refund nets the earning to zero,
// so the week must not tax it). The reversal counts only once committed
// before the batch snapshot, same as every other entry. batchStartArg is the
// positional parameter holding the snapshot bound.
func payoutNotReversed(batchStartArg int) string {
	return fmt.Sprintf(`NOT EXISTS (
	            SELECT 1 FROM rental_transactions rev
	            WHERE rev.rental_id = rental_transactions.rental_id
	              AND rev.user_id = rental_transactions.user_id
	              AND rev.type = 'REFUND' AND rev.amount < 0
	              AND rev.created_at < $%d)`, batchStartArg)
}

func (r *ledgerRepository) WeeklyPayoutOwners(ctx context.Context, weekStart, weekEnd, batchStart time.Time) ([]int64, error) {
	// The created_at < batchStart bound gives the settlement batch a
	// consistent snapshot: a rental completing mid-batch is excluded whole.
	query := `SELECT DISTINCT user_id FROM rental_transactions
	          WHERE type = $1 AND status = $2
	            AND charged_at >= $3 AND charged_at < $4
	            AND created_at < $5
	            AND ` + payoutNotReversed(5) + `
	          ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query,
		domain.TransactionTypePayout, domain.TransactionStatusSettled, weekStart, weekEnd, batchStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

func (r *ledgerRepository) SumOwnerPayouts(ctx context.Context, ownerID int64, weekStart, weekEnd, batchStart time.Time) (int64, int32, error) {
	var total int64
	var count int32
	query := `SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM rental_transactions
	          WHERE user_id = $1 AND type = $2 AND status = $3
	            AND charged_at >= $4 AND charged_at < $5
	            AND created_at < $6
	            AND ` + payoutNotReversed(6)
	err := r.db.QueryRowContext(ctx, query,
		ownerID, domain.TransactionTypePayout, domain.TransactionStatusSettled, weekStart, weekEnd, batchStart,
	).Scan(&total, &count)
	return total, count, err
}

func (r *ledgerRepository) GetOwnerSummary(ctx context.Context, ownerID int64) (*domain.LedgerSummary, error) {
	summary := &domain.LedgerSummary{
		RentalsByState: make(map[string]int32),
	}

	query := `SELECT
	            COALESCE(SUM(CASE WHEN type = 'PAYOUT' THEN amount ELSE 0 END), 0),
	            COALESCE(SUM(CASE WHEN type = 'REFUND' AND amount < 0 THEN -amount ELSE 0 END), 0),
	            COUNT(CASE WHEN type = 'PAYOUT' THEN 1 END)
	          FROM rental_transactions WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, ownerID).Scan(
		&summary.TotalEarned, &summary.TotalRefunded, &summary.PayoutCount); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT status, count(*) FROM rentals WHERE owner_id = $1 GROUP BY status`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int32
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		summary.RentalsByState[status] = count
	}
	return summary, rows.Err()
}
