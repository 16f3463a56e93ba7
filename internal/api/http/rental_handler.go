package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

type RentalHandler struct {
	rentals service.RentalService
	ledger  service.LedgerService
}

func NewRentalHandler(rentals service.RentalService, ledger service.LedgerService) *RentalHandler {
	return &RentalHandler{rentals: rentals, ledger: ledger}
}

type createRentalRequest struct {
	VehicleID      int64     `json:"vehicle_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Delivery       bool      `json:"delivery"`
	DeliveryKm     float64   `json:"delivery_km"`
	DiscountAmount int64     `json:"discount_amount"`
}

func (h *RentalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRentalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, _ := actorFrom(r)

	rental, err := h.rentals.CreateRental(r.Context(), service.CreateRentalInput{
		RenterID:       actorID,
		VehicleID:      req.VehicleID,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		Delivery:       req.Delivery,
		DeliveryKm:     req.DeliveryKm,
		DiscountAmount: req.DiscountAmount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rental)
}

type transitionRequest struct {
	Target   string `json:"target"`
	Reason   string `json:"reason,omitempty"`
	Odometer *int32 `json:"odometer,omitempty"`
}

func (h *RentalHandler) Transition(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, role := actorFrom(r)

	rental, err := h.rentals.Transition(r.Context(), service.TransitionInput{
		RentalID:  rentalID,
		ActorID:   actorID,
		ActorRole: role,
		Target:    domain.RentalStatus(req.Target),
		Reason:    req.Reason,
		Odometer:  req.Odometer,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) Get(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	actorID, role := actorFrom(r)

	rental, err := h.rentals.GetRental(r.Context(), actorID, role, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rental)
}

func (h *RentalHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, _ := actorFrom(r)
	asOwner := r.URL.Query().Get("as") == "owner"
	status := r.URL.Query().Get("status")
	page, pageSize := paging(r)

	rentals, total, err := h.rentals.ListRentals(r.Context(), actorID, asOwner, status, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Items: rentals, TotalCount: total, Page: page, PageSize: pageSize})
}

func (h *RentalHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	actorID, role := actorFrom(r)

	txns, err := h.ledger.ListRentalTransactions(r.Context(), actorID, role, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, txns)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

func paging(r *http.Request) (int32, int32) {
	page := int32(1)
	pageSize := int32(20)
	if v, err := strconv.ParseInt(r.URL.Query().Get("page"), 10, 32); err == nil && v > 0 {
		page = int32(v)
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("page_size"), 10, 32); err == nil && v > 0 && v <= 100 {
		pageSize = int32(v)
	}
	return page, pageSize
}
