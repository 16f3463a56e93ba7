package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"motorent-backend/internal/security"
	"motorent-backend/internal/service"
	"motorent-backend/internal/storage"
)

// Services bundles everything the router needs.
type Services struct {
	Auth          service.AuthService
	Rentals       service.RentalService
	Disputes      service.DisputeService
	Settlements   service.SettlementService
	Ledger        service.LedgerService
	Fees          service.FeeService
	Vehicles      service.VehicleService
	Notifications service.NotificationService
}

// NewRouter wires all HTTP routes. Everything except auth, public vehicle
// lookup, the mock storage endpoints and the health check sits behind the JWT
// middleware; admin review endpoints additionally require the admin role.
func NewRouter(svcs Services, tokens security.TokenManager, mockStorage *storage.MockStorageService) *mux.Router {
	r := mux.NewRouter()
	r.Use(LoggingMiddleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	authHandler := NewAuthHandler(svcs.Auth)
	r.HandleFunc("/api/auth/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/auth/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/auth/refresh", authHandler.Refresh).Methods("POST")

	if mockStorage != nil {
		RegisterMockStorageRoutes(r, mockStorage)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(AuthMiddleware(tokens))

	rentalHandler := NewRentalHandler(svcs.Rentals, svcs.Ledger)
	api.HandleFunc("/rentals", rentalHandler.Create).Methods("POST")
	api.HandleFunc("/rentals", rentalHandler.List).Methods("GET")
	api.HandleFunc("/rentals/quote", NewFeeHandler(svcs.Fees).Quote).Methods("POST")
	api.HandleFunc("/rentals/{id:[0-9]+}", rentalHandler.Get).Methods("GET")
	api.HandleFunc("/rentals/{id:[0-9]+}/transition", rentalHandler.Transition).Methods("POST")
	api.HandleFunc("/rentals/{id:[0-9]+}/transactions", rentalHandler.Transactions).Methods("GET")

	disputeHandler := NewDisputeHandler(svcs.Disputes)
	api.HandleFunc("/rentals/{id:[0-9]+}/disputes", disputeHandler.Open).Methods("POST")
	api.HandleFunc("/rentals/{id:[0-9]+}/evidence", disputeHandler.AttachRentalEvidence).Methods("POST")
	api.HandleFunc("/rentals/{id:[0-9]+}/evidence", disputeHandler.ListEvidence).Methods("GET")
	api.HandleFunc("/disputes/{id:[0-9]+}", disputeHandler.Get).Methods("GET")
	api.HandleFunc("/disputes/{id:[0-9]+}/evidence", disputeHandler.AttachEvidence).Methods("POST")
	api.HandleFunc("/disputes/{id:[0-9]+}/review", RequireAdmin(disputeHandler.StartReview)).Methods("POST")
	api.HandleFunc("/disputes/{id:[0-9]+}/resolve", RequireAdmin(disputeHandler.Resolve)).Methods("POST")

	settlementHandler := NewSettlementHandler(svcs.Settlements, svcs.Ledger)
	api.HandleFunc("/owners/{id:[0-9]+}/commissions", settlementHandler.ListOwnerCommissions).Methods("GET")
	api.HandleFunc("/owners/{id:[0-9]+}/ledger-summary", settlementHandler.OwnerSummary).Methods("GET")
	api.HandleFunc("/commissions/{id:[0-9]+}", settlementHandler.GetCommission).Methods("GET")
	api.HandleFunc("/commissions/{id:[0-9]+}/payments", settlementHandler.SubmitPayment).Methods("POST")
	api.HandleFunc("/commission-payments/{id:[0-9]+}/review", RequireAdmin(settlementHandler.ReviewPayment)).Methods("POST")

	feeHandler := NewFeeHandler(svcs.Fees)
	api.HandleFunc("/admin/fee-settings", RequireAdmin(feeHandler.GetActive)).Methods("GET")
	api.HandleFunc("/admin/fee-settings", RequireAdmin(feeHandler.Update)).Methods("PUT")

	vehicleHandler := NewVehicleHandler(svcs.Vehicles)
	api.HandleFunc("/vehicles", vehicleHandler.Add).Methods("POST")
	api.HandleFunc("/vehicles", vehicleHandler.ListMine).Methods("GET")
	api.HandleFunc("/vehicles/{id:[0-9]+}", vehicleHandler.Get).Methods("GET")
	api.HandleFunc("/vehicles/{id:[0-9]+}", vehicleHandler.Update).Methods("PUT")

	noteHandler := NewNotificationHandler(svcs.Notifications)
	api.HandleFunc("/notifications", noteHandler.List).Methods("GET")
	api.HandleFunc("/notifications/{id:[0-9]+}/read", noteHandler.MarkAsRead).Methods("POST")

	return r
}
