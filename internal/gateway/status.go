package gateway

import (
	"log/slog"
	"strings"

	"github.com/zamapay/wallet/internal/models"
)

// MapStatus translates the gateway's status vocabulary into the internal
// transaction status. The mapping lives here and only here; call sites must
// not re-implement it. Anything unrecognized maps to PROCESSING and is logged
// so a vocabulary change at the gateway degrades to continued polling rather
// than a wrong terminal state.
func MapStatus(raw string, logger *slog.Logger) models.TransactionStatus {
	switch strings.ToUpper(raw) {
	case "SUCCESSFUL", "SUCCESS", "COMPLETED":
		return models.TransactionStatusCompleted
	case "PENDING", "":
		return models.TransactionStatusPending
	case "FAILED", "FAILURE":
		return models.TransactionStatusFailed
	case "PROCESSING":
		return models.TransactionStatusProcessing
	default:
		logger.Warn("unknown gateway status", "status", raw)
		return models.TransactionStatusProcessing
	}
}
