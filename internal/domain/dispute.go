package domain

import "time"

type DisputeStatus string

const (
	DisputeStatusOpen             DisputeStatus = "OPEN"
	DisputeStatusUnderReview      DisputeStatus = "UNDER_REVIEW"
	DisputeStatusResolvedRefund   DisputeStatus = "RESOLVED_REFUND"
	DisputeStatusResolvedNoRefund DisputeStatus = "RESOLVED_NO_REFUND"
	DisputeStatusCancelled        DisputeStatus = "CANCELLED"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeStatusOpen:        {DisputeStatusUnderReview, DisputeStatusCancelled},
	DisputeStatusUnderReview: {DisputeStatusResolvedRefund, DisputeStatusResolvedNoRefund, DisputeStatusCancelled},
}

func (s DisputeStatus) CanTransitionTo(target DisputeStatus) bool {
	for _, allowed := range disputeTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s DisputeStatus) IsTerminal() bool {
	return s == DisputeStatusResolvedRefund || s == DisputeStatusResolvedNoRefund || s == DisputeStatusCancelled
}

// RentalDispute references its rental by id only; it never owns the rental.
// At most one non-terminal dispute may exist per rental.
type RentalDispute struct {
	ID          int64         `json:"id"`
	RentalID    int64         `json:"rental_id"`
	OpenedBy    int64         `json:"opened_by"`
	Reason      string        `json:"reason"`
	Description string        `json:"description"`
	Status      DisputeStatus `json:"status"`
	AdminNotes  string        `json:"admin_notes,omitempty"`
	ResolvedBy  *int64        `json:"resolved_by,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type EvidenceType string

const (
	EvidenceTypePickupCondition EvidenceType = "PICKUP_CONDITION"
	EvidenceTypeReturnCondition EvidenceType = "RETURN_CONDITION"
	EvidenceTypeDamage          EvidenceType = "DAMAGE"
	EvidenceTypeDocument        EvidenceType = "DOCUMENT"
)

func (t EvidenceType) Valid() bool {
	switch t {
	case EvidenceTypePickupCondition, EvidenceTypeReturnCondition, EvidenceTypeDamage, EvidenceTypeDocument:
		return true
	}
	return false
}

// RentalEvidence rows are append-only: added, never edited. SortOrder gives a
// deterministic display order independent of insert timing.
type RentalEvidence struct {
	ID          int64        `json:"id"`
	RentalID    int64        `json:"rental_id"`
	DisputeID   *int64       `json:"dispute_id,omitempty"`
	UploadedBy  int64        `json:"uploaded_by"`
	Type        EvidenceType `json:"type"`
	FileURL     string       `json:"file_url"`
	Description string       `json:"description,omitempty"`
	SortOrder   int32        `json:"sort_order"`
	CreatedAt   time.Time    `json:"created_at"`
}
