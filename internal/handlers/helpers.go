package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/zamapay/wallet/internal/service"
)

const maxRequestBytes = 1 << 16

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // Best effort response writing
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body")
		return false
	}
	return true
}

// serviceErrorStatus maps service error codes to HTTP status codes.
func serviceErrorStatus(code string) int {
	switch code {
	case service.ErrCodeInvalidAmount, service.ErrCodeInvalidPhone, service.ErrCodeSelfTransfer:
		return http.StatusBadRequest
	case service.ErrCodeInvalidPin:
		return http.StatusForbidden
	case service.ErrCodeInsufficientFunds:
		return http.StatusPaymentRequired
	case service.ErrCodeAccountNotFound, service.ErrCodeRecipientNotFound, service.ErrCodeTransactionNotFound:
		return http.StatusNotFound
	case service.ErrCodeDuplicateReference:
		return http.StatusConflict
	case service.ErrCodeGatewayRejected:
		return http.StatusUnprocessableEntity
	case service.ErrCodeGatewayUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes the mapped error response, logging anything
// that is not a business error.
func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	var svcErr *service.ServiceError
	if !errors.As(err, &svcErr) {
		h.logger.Error("unexpected handler error", "error", err)
		writeError(w, http.StatusInternalServerError, service.ErrCodeInternalError, "internal error")
		return
	}

	status := serviceErrorStatus(svcErr.Code)
	if status == http.StatusInternalServerError {
		h.logger.Error("service error", "code", svcErr.Code, "error", err)
		writeError(w, status, service.ErrCodeInternalError, "internal error")
		return
	}
	writeError(w, status, svcErr.Code, svcErr.Message)
}
