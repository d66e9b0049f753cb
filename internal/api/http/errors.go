package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"nftrental-backend/internal/domain"
	"nftrental-backend/internal/logger"
)

type errorBody struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Entity  string `json:"entity,omitempty"`
	ID      string `json:"id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// statusFor maps an error kind to the HTTP status of the response. A pending
// settlement is 202: the change is committed, its ledger effect is not.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.ErrorKindValidation:
		return http.StatusBadRequest
	case domain.ErrorKindNotFound:
		return http.StatusNotFound
	case domain.ErrorKindAuthorization:
		return http.StatusForbidden
	case domain.ErrorKindInvalidState:
		return http.StatusConflict
	case domain.ErrorKindSettlementPending:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.KindOf(err)
	body := errorBody{Kind: string(kind), Message: err.Error()}

	var (
		validation *domain.ValidationError
		notFound   *domain.NotFoundError
		authz      *domain.AuthorizationError
		invalid    *domain.InvalidStateError
		pending    *domain.SettlementPendingError
	)
	switch {
	case errors.As(err, &validation):
		body.Field = validation.Field
	case errors.As(err, &notFound):
		body.Entity, body.ID = notFound.Entity, notFound.ID
	case errors.As(err, &authz):
		body.Entity, body.ID = authz.Entity, authz.ID
	case errors.As(err, &invalid):
		body.Entity, body.ID = invalid.Entity, invalid.ID
	case errors.As(err, &pending):
		body.Entity, body.ID = "settlement", pending.SettlementID
	default:
		logger.ErrorContext(r.Context(), "HTTP request failed", "path", r.URL.Path, "error", err)
		body.Kind = "INTERNAL"
		body.Message = "internal error"
	}

	writeJSON(w, statusFor(kind), errorResponse{Error: body})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}
