package http

import (
	"encoding/json"
	"net/http"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

type FeeHandler struct {
	fees service.FeeService
}

func NewFeeHandler(fees service.FeeService) *FeeHandler {
	return &FeeHandler{fees: fees}
}

func (h *FeeHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	fs, err := h.fees.GetActiveSettings(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fs)
}

func (h *FeeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var fs domain.FeeSettings
	if err := json.NewDecoder(r.Body).Decode(&fs); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, _ := actorFrom(r)

	updated, err := h.fees.UpdateSettings(r.Context(), actorID, &fs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type quoteRequest struct {
	createRentalRequest
}

func (h *FeeHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, _ := actorFrom(r)

	quote, err := h.fees.Quote(r.Context(), service.CreateRentalInput{
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
	writeJSON(w, http.StatusOK, quote)
}
