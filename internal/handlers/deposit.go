package handlers

import "net/http"

// CreateDeposit handles POST /api/v1/deposits
func (h *Handler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.depositService.Deposit(r.Context(), req.AccountID, req.Amount, req.Description)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	// 202: the money has not moved yet, the settlement monitor decides
	writeJSON(w, http.StatusAccepted, newTransactionResponse(txn))
}
