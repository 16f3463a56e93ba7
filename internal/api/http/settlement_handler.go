package http

import (
	"encoding/json"
	"net/http"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

type SettlementHandler struct {
	settlements service.SettlementService
	ledger      service.LedgerService
}

func NewSettlementHandler(settlements service.SettlementService, ledger service.LedgerService) *SettlementHandler {
	return &SettlementHandler{settlements: settlements, ledger: ledger}
}

func (h *SettlementHandler) ListOwnerCommissions(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid owner id"})
		return
	}
	actorID, role := actorFrom(r)
	if role != domain.UserRoleAdmin && actorID != ownerID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Reason: domain.ErrForbidden.Error()})
		return
	}
	page, pageSize := paging(r)

	commissions, total, err := h.settlements.ListCommissions(r.Context(), ownerID, page, pageSize)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pagedResponse{Items: commissions, TotalCount: total, Page: page, PageSize: pageSize})
}

func (h *SettlementHandler) GetCommission(w http.ResponseWriter, r *http.Request) {
	commissionID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid commission id"})
		return
	}
	actorID, role := actorFrom(r)

	c, err := h.settlements.GetCommission(r.Context(), actorID, role, commissionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type submitPaymentRequest struct {
	InvoiceRef string `json:"invoice_ref"`
	InvoiceURL string `json:"invoice_url,omitempty"`
}

func (h *SettlementHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	commissionID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid commission id"})
		return
	}
	var req submitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, _ := actorFrom(r)

	payment, err := h.settlements.SubmitPayment(r.Context(), actorID, commissionID, req.InvoiceRef, req.InvoiceURL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

type reviewPaymentRequest struct {
	Decision string `json:"decision"` // "APPROVED" or "REJECTED"
	Notes    string `json:"notes,omitempty"`
}

func (h *SettlementHandler) ReviewPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid payment id"})
		return
	}
	var req reviewPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	var approve bool
	switch req.Decision {
	case string(domain.CommissionPaymentStatusApproved):
		approve = true
	case string(domain.CommissionPaymentStatusRejected):
		approve = false
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "decision must be APPROVED or REJECTED", Reason: domain.ErrValidation.Error()})
		return
	}
	actorID, _ := actorFrom(r)

	payment, err := h.settlements.ReviewPayment(r.Context(), actorID, paymentID, approve, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *SettlementHandler) OwnerSummary(w http.ResponseWriter, r *http.Request) {
	ownerID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid owner id"})
		return
	}
	actorID, role := actorFrom(r)
	if role != domain.UserRoleAdmin && actorID != ownerID {
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Reason: domain.ErrForbidden.Error()})
		return
	}

	summary, err := h.ledger.GetOwnerSummary(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
