package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cimillas/asset-reservations/internal/domain"
	"github.com/cimillas/asset-reservations/internal/identity"
	"go.uber.org/zap"
)

const (
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeValidationFailed     = "validation_failed"
	codeUnauthenticated      = "unauthenticated"
	codeForbidden            = "forbidden"
	codeInsufficientCapacity = "insufficient_capacity"
	codeInvalidTransition    = "invalid_transition"
	codeAlreadyPaid          = "already_paid"
	codeAlreadySubmitted     = "already_submitted"
	codeInvalidState         = "invalid_state"
	codeStorageUnavailable   = "storage_unavailable"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Remaining *int   `json:"remaining,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeErrorResponse(w, status, errorResponse{Error: msg, Code: code})
}

func writeErrorResponse(w http.ResponseWriter, status int, resp errorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(resp)
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeServiceError maps a service error onto a status and code. Unexpected
// errors are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		verr   *domain.ValidationError
		capErr *domain.InsufficientCapacityError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, codeValidationFailed, verr.Error())
	case errors.As(err, &capErr):
		remaining := capErr.Remaining
		writeErrorResponse(w, http.StatusConflict, errorResponse{
			Error:     capErr.Error(),
			Code:      codeInsufficientCapacity,
			Remaining: &remaining,
		})
	case errors.Is(err, identity.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "authentication required")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, codeAlreadyPaid, err.Error())
	case errors.Is(err, domain.ErrAlreadySubmitted):
		writeError(w, http.StatusConflict, codeAlreadySubmitted, err.Error())
	case errors.Is(err, domain.ErrInvalidState):
		writeError(w, http.StatusConflict, codeInvalidState, err.Error())
	case errors.Is(err, domain.ErrStorageUnavailable):
		loggerFrom(r.Context()).Error("storage unavailable", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, codeStorageUnavailable, "storage unavailable")
	default:
		loggerFrom(r.Context()).Error("unhandled service error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
