package handlers

import (
	"errors"
	"net/http"

	"github.com/zamapay/wallet/internal/models"
)

// GatewayWebhook handles POST /api/v1/webhooks/gateway. The gateway calls
// this when an operation resolves, which usually beats the polling schedule.
func (h *Handler) GatewayWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Reference == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "reference is required")
		return
	}

	txn, err := h.resolver.ResolveExternal(r.Context(), req.Reference, req.Status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Unknown reference: acknowledge anyway so the gateway stops
			// redelivering, but keep a trace
			h.logger.Warn("webhook for unknown external reference", "external_reference", req.Reference)
			w.WriteHeader(http.StatusOK)
			return
		}
		h.logger.Error("failed to resolve webhook", "external_reference", req.Reference, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
		return
	}

	writeJSON(w, http.StatusOK, newTransactionResponse(txn))
}
