package handlers

import (
	"net/http"

	"github.com/google/uuid"
)

// GetTransaction handles GET /api/v1/transactions/{reference}
func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.transactionService.GetByReference(r.Context(), r.PathValue("reference"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionResponse(txn))
}

// RefreshTransaction handles POST /api/v1/transactions/{reference}/refresh
func (h *Handler) RefreshTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.transactionService.RefreshStatus(r.Context(), r.PathValue("reference"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newTransactionResponse(txn))
}

// ListAccountTransactions handles GET /api/v1/accounts/{accountId}/transactions
func (h *Handler) ListAccountTransactions(w http.ResponseWriter, r *http.Request) {
	accountID, err := uuid.Parse(r.PathValue("accountId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid account ID")
		return
	}

	txns, err := h.transactionService.ListByAccount(r.Context(), accountID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	responses := make([]transactionResponse, 0, len(txns))
	for i := range txns {
		responses = append(responses, newTransactionResponse(&txns[i]))
	}
	writeJSON(w, http.StatusOK, map[string][]transactionResponse{"transactions": responses})
}
