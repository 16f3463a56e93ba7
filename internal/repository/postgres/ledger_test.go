package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"motorent-backend/internal/domain"
)

func TestLedgerRepository_CreateTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()

	entry := func() *domain.RentalTransaction {
		return &domain.RentalTransaction{
			RentalID:       42,
			UserID:         9,
			Type:           domain.TransactionTypePayout,
			Amount:         204000,
			Currency:       "VND",
			Status:         domain.TransactionStatusSettled,
			Description:    "owner earning payout on completion",
			IdempotencyKey: "42-completion-payout",
		}
	}

	t.Run("Success", func(t *testing.T) {
		tx := entry()
		mock.ExpectQuery("INSERT INTO rental_transactions").
			WithArgs(tx.RentalID, tx.UserID, tx.Type, tx.Amount, tx.Currency, tx.Status, tx.Description,
				tx.IdempotencyKey, tx.ExternalRef, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(101))

		err := repo.CreateTransaction(ctx, tx)
		assert.NoError(t, err)
		assert.Equal(t, int64(101), tx.ID)
		assert.False(t, tx.ChargedAt.IsZero())
	})

	t.Run("DuplicateIdempotencyKey", func(t *testing.T) {
		tx := entry()
		mock.ExpectQuery("INSERT INTO rental_transactions").
			WithArgs(tx.RentalID, tx.UserID, tx.Type, tx.Amount, tx.Currency, tx.Status, tx.Description,
				tx.IdempotencyKey, tx.ExternalRef, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "rental_transactions_idempotency_key_key"})

		err := repo.CreateTransaction(ctx, tx)
		assert.ErrorIs(t, err, domain.ErrDuplicateLedgerEntry)
	})
}

func TestLedgerRepository_HasTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(int64(42), "42-completion-payout").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.HasTransaction(ctx, 42, "42-completion-payout")
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestLedgerRepository_WeeklySnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("error opening mock database: %v", err)
	}
	defer db.Close()

	repo := NewLedgerRepository(db)
	ctx := context.Background()

	weekStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	weekEnd := weekStart.AddDate(0, 0, 7)
	batchStart := time.Date(2026, 3, 9, 0, 0, 5, 0, time.UTC)

	// The weekly aggregates must carry the reversal exclusion: a payout whose
	// rental was later refunded through a dispute contributes nothing.
	t.Run("WeeklyPayoutOwnersExcludesReversed", func(t *testing.T) {
		mock.ExpectQuery(`(?s)SELECT DISTINCT user_id FROM rental_transactions.*NOT EXISTS.*rev\.type = 'REFUND' AND rev\.amount < 0`).
			WithArgs(domain.TransactionTypePayout, domain.TransactionStatusSettled, weekStart, weekEnd, batchStart).
			WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(9).AddRow(11))

		owners, err := repo.WeeklyPayoutOwners(ctx, weekStart, weekEnd, batchStart)
		assert.NoError(t, err)
		assert.Equal(t, []int64{9, 11}, owners)
	})

	t.Run("SumOwnerPayoutsExcludesReversed", func(t *testing.T) {
		mock.ExpectQuery(`(?s)SELECT COALESCE\(SUM\(amount\), 0\), COUNT\(\*\) FROM rental_transactions.*NOT EXISTS.*rev\.type = 'REFUND' AND rev\.amount < 0`).
			WithArgs(int64(9), domain.TransactionTypePayout, domain.TransactionStatusSettled, weekStart, weekEnd, batchStart).
			WillReturnRows(sqlmock.NewRows([]string{"sum", "count"}).AddRow(408000, 2))

		total, count, err := repo.SumOwnerPayouts(ctx, 9, weekStart, weekEnd, batchStart)
		assert.NoError(t, err)
		assert.Equal(t, int64(408000), total)
		assert.Equal(t, int32(2), count)
	})
}
