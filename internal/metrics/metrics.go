// Package metrics registers the Prometheus collectors shared across the
// wallet service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GatewayRequestsTotal counts calls to the mobile-money gateway by
	// operation and final outcome (success or the error kind).
	GatewayRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_gateway_requests_total",
		Help: "Total gateway requests, labeled by operation and outcome",
	}, []string{"operation", "outcome"})

	// GatewayRetriesTotal counts individual retry attempts against the gateway.
	GatewayRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_gateway_retries_total",
		Help: "Total gateway retry attempts, labeled by operation",
	}, []string{"operation"})

	// TokenRefreshesTotal counts authentication calls made to refresh the
	// cached gateway token.
	TokenRefreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wallet_gateway_token_refreshes_total",
		Help: "Total gateway token refreshes",
	})

	// SettlementsTotal counts settled transactions by type and terminal status.
	SettlementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_settlements_total",
		Help: "Total settled transactions, labeled by type and terminal status",
	}, []string{"type", "status"})

	// TransfersTotal counts synchronous wallet-to-wallet transfers by result.
	TransfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wallet_transfers_total",
		Help: "Total wallet-to-wallet transfers, labeled by result",
	}, []string{"result"})
)
