package http

import (
	"encoding/json"
	"net/http"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/service"
)

type DisputeHandler struct {
	disputes service.DisputeService
}

func NewDisputeHandler(disputes service.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputes: disputes}
}

type openDisputeRequest struct {
	Reason      string `json:"reason"`
	Description string `json:"description,omitempty"`
}

func (h *DisputeHandler) Open(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	var req openDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, role := actorFrom(r)

	dispute, err := h.disputes.OpenDispute(r.Context(), service.OpenDisputeInput{
		RentalID:    rentalID,
		OpenedBy:    actorID,
		ActorRole:   role,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, dispute)
}

func (h *DisputeHandler) Get(w http.ResponseWriter, r *http.Request) {
	disputeID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid dispute id"})
		return
	}
	actorID, role := actorFrom(r)

	dispute, err := h.disputes.GetDispute(r.Context(), actorID, role, disputeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

func (h *DisputeHandler) StartReview(w http.ResponseWriter, r *http.Request) {
	disputeID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid dispute id"})
		return
	}
	actorID, _ := actorFrom(r)

	dispute, err := h.disputes.StartReview(r.Context(), actorID, disputeID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

type resolveDisputeRequest struct {
	Outcome      string `json:"outcome"`
	AdminNotes   string `json:"admin_notes,omitempty"`
	RefundAmount int64  `json:"refund_amount,omitempty"`
}

func (h *DisputeHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	disputeID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid dispute id"})
		return
	}
	var req resolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, _ := actorFrom(r)

	dispute, err := h.disputes.Resolve(r.Context(), service.ResolveDisputeInput{
		DisputeID:    disputeID,
		AdminID:      actorID,
		Outcome:      domain.DisputeStatus(req.Outcome),
		AdminNotes:   req.AdminNotes,
		RefundAmount: req.RefundAmount,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

type attachEvidenceRequest struct {
	Type        string `json:"type"`
	FileURL     string `json:"file_url"`
	Description string `json:"description,omitempty"`
}

// AttachEvidence attaches a file to the dispute in the path. Evidence on the
// rental itself (pickup/return condition photos) goes through AttachRentalEvidence.
func (h *DisputeHandler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	disputeID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid dispute id"})
		return
	}
	var req attachEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, role := actorFrom(r)

	evidence, err := h.disputes.AttachEvidence(r.Context(), service.AttachEvidenceInput{
		DisputeID:   &disputeID,
		UploadedBy:  actorID,
		ActorRole:   role,
		Type:        domain.EvidenceType(req.Type),
		FileURL:     req.FileURL,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, evidence)
}

// AttachRentalEvidence attaches condition photos directly to a rental, with
// no dispute involved.
func (h *DisputeHandler) AttachRentalEvidence(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	var req attachEvidenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	actorID, role := actorFrom(r)

	evidence, err := h.disputes.AttachEvidence(r.Context(), service.AttachEvidenceInput{
		RentalID:    rentalID,
		UploadedBy:  actorID,
		ActorRole:   role,
		Type:        domain.EvidenceType(req.Type),
		FileURL:     req.FileURL,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, evidence)
}

func (h *DisputeHandler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	rentalID, err := pathID(r, "id")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rental id"})
		return
	}
	actorID, role := actorFrom(r)

	evidence, err := h.disputes.ListEvidence(r.Context(), actorID, role, rentalID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evidence)
}
