package handlers

import "net/http"

// CreateTransfer handles POST /api/v1/transfers
func (h *Handler) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	txn, err := h.transferService.Transfer(r.Context(), req.AccountID, req.RecipientPhone, req.Pin, req.Amount, req.Description)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, newTransactionResponse(txn))
}
