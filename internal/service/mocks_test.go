package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/repository"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// MockVehicleRepo
type MockVehicleRepo struct {
	mock.Mock
}

func (m *MockVehicleRepo) Create(ctx context.Context, v *domain.Vehicle) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}
func (m *MockVehicleRepo) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Vehicle), args.Error(1)
}
func (m *MockVehicleRepo) Update(ctx context.Context, v *domain.Vehicle) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}
func (m *MockVehicleRepo) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.Vehicle, int32, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]domain.Vehicle), args.Get(1).(int32), args.Error(2)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rt *domain.Rental) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id int64) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.RentalStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}
func (m *MockRentalRepo) UpdateLifecycleFields(ctx context.Context, rt *domain.Rental) error {
	args := m.Called(ctx, rt)
	return args.Error(0)
}
func (m *MockRentalRepo) ListByRenter(ctx context.Context, renterID int64, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, renterID, status, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRepo) ListByOwner(ctx context.Context, ownerID int64, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, ownerID, status, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRepo) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]domain.Rental, error) {
	args := m.Called(ctx, cutoff, limit)
	return args.Get(0).([]domain.Rental), args.Error(1)
}

// MockLedgerRepo
type MockLedgerRepo struct {
	mock.Mock
}

func (m *MockLedgerRepo) CreateTransaction(ctx context.Context, tx *domain.RentalTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}
func (m *MockLedgerRepo) HasTransaction(ctx context.Context, rentalID int64, idempotencyKey string) (bool, error) {
	args := m.Called(ctx, rentalID, idempotencyKey)
	return args.Bool(0), args.Error(1)
}
func (m *MockLedgerRepo) ListByRental(ctx context.Context, rentalID int64) ([]domain.RentalTransaction, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.RentalTransaction), args.Error(1)
}
func (m *MockLedgerRepo) WeeklyPayoutOwners(ctx context.Context, weekStart, weekEnd, batchStart time.Time) ([]int64, error) {
	args := m.Called(ctx, weekStart, weekEnd, batchStart)
	return args.Get(0).([]int64), args.Error(1)
}
func (m *MockLedgerRepo) SumOwnerPayouts(ctx context.Context, ownerID int64, weekStart, weekEnd, batchStart time.Time) (int64, int32, error) {
	args := m.Called(ctx, ownerID, weekStart, weekEnd, batchStart)
	return args.Get(0).(int64), args.Get(1).(int32), args.Error(2)
}
func (m *MockLedgerRepo) GetOwnerSummary(ctx context.Context, ownerID int64) (*domain.LedgerSummary, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LedgerSummary), args.Error(1)
}

// MockDisputeRepo
type MockDisputeRepo struct {
	mock.Mock
}

func (m *MockDisputeRepo) Create(ctx context.Context, d *domain.RentalDispute) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}
func (m *MockDisputeRepo) GetByID(ctx context.Context, id int64) (*domain.RentalDispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalDispute), args.Error(1)
}
func (m *MockDisputeRepo) GetOpenByRental(ctx context.Context, rentalID int64) (*domain.RentalDispute, error) {
	args := m.Called(ctx, rentalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RentalDispute), args.Error(1)
}
func (m *MockDisputeRepo) UpdateStatus(ctx context.Context, d *domain.RentalDispute, from domain.DisputeStatus) error {
	args := m.Called(ctx, d, from)
	return args.Error(0)
}
func (m *MockDisputeRepo) AddEvidence(ctx context.Context, e *domain.RentalEvidence) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockDisputeRepo) ListEvidence(ctx context.Context, rentalID int64) ([]domain.RentalEvidence, error) {
	args := m.Called(ctx, rentalID)
	return args.Get(0).([]domain.RentalEvidence), args.Error(1)
}

// MockFeeSettingsRepo
type MockFeeSettingsRepo struct {
	mock.Mock
}

func (m *MockFeeSettingsRepo) GetActive(ctx context.Context) (*domain.FeeSettings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FeeSettings), args.Error(1)
}
func (m *MockFeeSettingsRepo) Activate(ctx context.Context, fs *domain.FeeSettings) error {
	args := m.Called(ctx, fs)
	return args.Error(0)
}

// MockCommissionRepo
type MockCommissionRepo struct {
	mock.Mock
}

func (m *MockCommissionRepo) GetByID(ctx context.Context, id int64) (*domain.OwnerCommission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OwnerCommission), args.Error(1)
}
func (m *MockCommissionRepo) GetByOwnerWeek(ctx context.Context, ownerID int64, weekStart time.Time) (*domain.OwnerCommission, error) {
	args := m.Called(ctx, ownerID, weekStart)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.OwnerCommission), args.Error(1)
}
func (m *MockCommissionRepo) Upsert(ctx context.Context, c *domain.OwnerCommission) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCommissionRepo) MarkPaid(ctx context.Context, id int64, paidAt time.Time) error {
	args := m.Called(ctx, id, paidAt)
	return args.Error(0)
}
func (m *MockCommissionRepo) ListByOwner(ctx context.Context, ownerID int64, page, pageSize int32) ([]domain.OwnerCommission, int32, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]domain.OwnerCommission), args.Get(1).(int32), args.Error(2)
}
func (m *MockCommissionRepo) HasPayments(ctx context.Context, commissionID int64) (bool, error) {
	args := m.Called(ctx, commissionID)
	return args.Bool(0), args.Error(1)
}
func (m *MockCommissionRepo) CreatePayment(ctx context.Context, p *domain.CommissionPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockCommissionRepo) GetPaymentByID(ctx context.Context, id int64) (*domain.CommissionPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionPayment), args.Error(1)
}
func (m *MockCommissionRepo) GetPendingPayment(ctx context.Context, commissionID int64) (*domain.CommissionPayment, error) {
	args := m.Called(ctx, commissionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CommissionPayment), args.Error(1)
}
func (m *MockCommissionRepo) ReviewPayment(ctx context.Context, p *domain.CommissionPayment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}
func (m *MockCommissionRepo) ListPayments(ctx context.Context, commissionID int64) ([]domain.CommissionPayment, error) {
	args := m.Called(ctx, commissionID)
	return args.Get(0).([]domain.CommissionPayment), args.Error(1)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int64, limit, offset int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

// mockStore wires the mock repositories behind the Store interface. ExecTx
// runs the callback against the same store, mirroring the postgres store's
// reuse of an open transaction.
type mockStore struct {
	users         *MockUserRepo
	vehicles      *MockVehicleRepo
	rentals       *MockRentalRepo
	ledger        *MockLedgerRepo
	disputes      *MockDisputeRepo
	feeSettings   *MockFeeSettingsRepo
	commissions   *MockCommissionRepo
	notifications *MockNotificationRepo
}

func newMockStore() *mockStore {
	return &mockStore{
		users:         new(MockUserRepo),
		vehicles:      new(MockVehicleRepo),
		rentals:       new(MockRentalRepo),
		ledger:        new(MockLedgerRepo),
		disputes:      new(MockDisputeRepo),
		feeSettings:   new(MockFeeSettingsRepo),
		commissions:   new(MockCommissionRepo),
		notifications: new(MockNotificationRepo),
	}
}

func (s *mockStore) Users() repository.UserRepository                 { return s.users }
func (s *mockStore) Vehicles() repository.VehicleRepository           { return s.vehicles }
func (s *mockStore) Rentals() repository.RentalRepository             { return s.rentals }
func (s *mockStore) Ledger() repository.LedgerRepository              { return s.ledger }
func (s *mockStore) Disputes() repository.DisputeRepository           { return s.disputes }
func (s *mockStore) FeeSettings() repository.FeeSettingsRepository    { return s.feeSettings }
func (s *mockStore) Commissions() repository.CommissionRepository     { return s.commissions }
func (s *mockStore) Notifications() repository.NotificationRepository { return s.notifications }

func (s *mockStore) ExecTx(ctx context.Context, fn func(repository.Store) error) error {
	return fn(s)
}

// MockGateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Capture(ctx context.Context, rentalID, renterID, amount int64, currency string) (string, error) {
	args := m.Called(ctx, rentalID, renterID, amount, currency)
	return args.String(0), args.Error(1)
}
func (m *MockGateway) Refund(ctx context.Context, rentalID, renterID, amount int64, currency string) (string, error) {
	args := m.Called(ctx, rentalID, renterID, amount, currency)
	return args.String(0), args.Error(1)
}

// stubEmailService records nothing and never fails. Transition notifications
// are fire-and-forget, so the tests only need them to not explode.
type stubEmailService struct{}

func (stubEmailService) SendBookingRequestNotification(context.Context, string, string, string) error {
	return nil
}
func (stubEmailService) SendBookingConfirmedNotification(context.Context, string, string) error {
	return nil
}
func (stubEmailService) SendCancellationNotification(context.Context, string, string, string) error {
	return nil
}
func (stubEmailService) SendCompletionNotification(context.Context, string, string, int64) error {
	return nil
}
func (stubEmailService) SendDisputeOpenedNotification(context.Context, string, string, string) error {
	return nil
}
func (stubEmailService) SendDisputeResolvedNotification(context.Context, string, string, string) error {
	return nil
}
func (stubEmailService) SendCommissionStatementNotification(context.Context, string, time.Time, int64) error {
	return nil
}

type stubPushService struct{}

func (stubPushService) Send(context.Context, string, string, string, map[string]string) error {
	return nil
}
