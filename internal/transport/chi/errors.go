package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/querystate/internal/domain"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

// Error codes returned in ErrorResponse.Code.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeViewNotFound     ErrorCode = "view_not_found"
	ErrorCodeSavedNotFound    ErrorCode = "saved_search_not_found"
	ErrorCodeInvalidName      ErrorCode = "invalid_name"
	ErrorCodeLimitExceeded    ErrorCode = "limit_exceeded"
	ErrorCodeNotImplemented   ErrorCode = "not_implemented"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	// ErrUnknownView before ErrNotFound: both map to 404 with different codes.
	return []errorHandler{
		sentinelHandler(domain.ErrUnknownView, http.StatusNotFound, ErrorCodeViewNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeSavedNotFound),
		sentinelHandler(domain.ErrInvalidName, http.StatusBadRequest, ErrorCodeInvalidName),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrLimitExceeded, http.StatusConflict, ErrorCodeLimitExceeded),
	}
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// safeDomainMessage exposes the full message for client errors and hides
// everything else behind "internal error".
func safeDomainMessage(err error) string {
	clientErrors := []error{
		domain.ErrUnknownView,
		domain.ErrNotFound,
		domain.ErrInvalidName,
		domain.ErrInvalidRequest,
		domain.ErrLimitExceeded,
	}
	for _, s := range clientErrors {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Debug("client error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}
