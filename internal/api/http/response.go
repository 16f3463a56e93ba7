package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"motorent-backend/internal/domain"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/security"
	"motorent-backend/internal/service"
)

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("failed to encode response", "error", err)
		}
	}
}

// writeError maps the error taxonomy to HTTP. Validation and conflict errors
// carry their reason code; dependency failures and invariant violations return
// a generic internal error without leaking detail.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found", Reason: domain.ErrNotFound.Error()})
	case errors.Is(err, domain.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "forbidden", Reason: domain.ErrForbidden.Error()})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Reason: domain.ErrValidation.Error()})
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrTransitionConflict),
		errors.Is(err, domain.ErrDisputeExists),
		errors.Is(err, domain.ErrDisputeWindowOver),
		errors.Is(err, domain.ErrSettlementLocked),
		errors.Is(err, domain.ErrOwnerNotVerified):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Reason: reasonCode(err)})
	case errors.Is(err, domain.ErrPaymentDeclined):
		writeJSON(w, http.StatusPaymentRequired, errorResponse{Error: "payment declined", Reason: domain.ErrPaymentDeclined.Error()})
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrExpiredToken):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "unauthorized"})
	default:
		logger.Error("internal error", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func reasonCode(err error) string {
	for _, sentinel := range []error{
		domain.ErrInvalidTransition,
		domain.ErrTransitionConflict,
		domain.ErrDisputeExists,
		domain.ErrDisputeWindowOver,
		domain.ErrSettlementLocked,
		domain.ErrOwnerNotVerified,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ""
}

type pagedResponse struct {
	Items      any   `json:"items"`
	TotalCount int32 `json:"total_count"`
	Page       int32 `json:"page"`
	PageSize   int32 `json:"page_size"`
}
