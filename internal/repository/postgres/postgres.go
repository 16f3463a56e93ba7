package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"motorent-backend/internal/repository"

	_ "github.com/lib/pq"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so the same repository code
// runs standalone or inside a store transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

type Store struct {
	db  *sql.DB
	dbx DBTX

	users         repository.UserRepository
	vehicles      repository.VehicleRepository
	rentals       repository.RentalRepository
	ledger        repository.LedgerRepository
	disputes      repository.DisputeRepository
	feeSettings   repository.FeeSettingsRepository
	commissions   repository.CommissionRepository
	notifications repository.NotificationRepository
}

func NewStore(db *sql.DB) *Store {
	return newStoreWith(db, db)
}

func newStoreWith(db *sql.DB, dbx DBTX) *Store {
	return &Store{
		db:            db,
		dbx:           dbx,
		users:         NewUserRepository(dbx),
		vehicles:      NewVehicleRepository(dbx),
		rentals:       NewRentalRepository(dbx),
		ledger:        NewLedgerRepository(dbx),
		disputes:      NewDisputeRepository(dbx),
		feeSettings:   NewFeeSettingsRepository(dbx),
		commissions:   NewCommissionRepository(dbx),
		notifications: NewNotificationRepository(dbx),
	}
}

func (s *Store) Users() repository.UserRepository                 { return s.users }
func (s *Store) Vehicles() repository.VehicleRepository           { return s.vehicles }
func (s *Store) Rentals() repository.RentalRepository             { return s.rentals }
func (s *Store) Ledger() repository.LedgerRepository              { return s.ledger }
func (s *Store) Disputes() repository.DisputeRepository           { return s.disputes }
func (s *Store) FeeSettings() repository.FeeSettingsRepository    { return s.feeSettings }
func (s *Store) Commissions() repository.CommissionRepository     { return s.commissions }
func (s *Store) Notifications() repository.NotificationRepository { return s.notifications }

// ExecTx runs fn inside a database transaction. Nested calls reuse the
// current transaction rather than opening a second one.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	if _, alreadyTx := s.dbx.(*sql.Tx); alreadyTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	txStore := newStoreWith(s.db, tx)
	if err := fn(txStore); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}
