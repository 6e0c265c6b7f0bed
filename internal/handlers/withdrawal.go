package handlers

import "net/http"

// CreateWithdrawal handles POST /api/v1/withdrawals
func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req withdrawalRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.withdrawalService.Withdraw(r.Context(), req.AccountID, req.Pin, req.Amount, req.Description)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, newTransactionResponse(txn))
}
