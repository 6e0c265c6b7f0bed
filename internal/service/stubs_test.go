package service

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/zamapay/wallet/internal/gateway"
	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/notify"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Notification
}

func (r *recordingNotifier) Notify(_ context.Context, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, n)
}

func (r *recordingNotifier) byEvent(event notify.Event) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, n := range r.events {
		if n.Event == event {
			out = append(out, n)
		}
	}
	return out
}

// stubGateway returns a canned acknowledgement or error for every submission.
type stubGateway struct {
	ack   *gateway.Ack
	err   error
	calls int
}

func (s *stubGateway) SubmitCollection(context.Context, decimal.Decimal, string, string, string) (*gateway.Ack, error) {
	s.calls++
	return s.ack, s.err
}

func (s *stubGateway) SubmitDisbursement(context.Context, decimal.Decimal, string, string, string) (*gateway.Ack, error) {
	s.calls++
	return s.ack, s.err
}

// stubMonitor records watches and applies settle requests verbatim.
type stubMonitor struct {
	watched []*models.Transaction
	settled []models.TransactionStatus
}

func (s *stubMonitor) Watch(txn *models.Transaction) {
	s.watched = append(s.watched, txn)
}

func (s *stubMonitor) Settle(_ context.Context, txn *models.Transaction, mapped models.TransactionStatus) (models.TransactionStatus, error) {
	s.settled = append(s.settled, mapped)
	if mapped == txn.Status || !txn.Status.CanTransitionTo(mapped) {
		return txn.Status, nil
	}
	return mapped, nil
}

func (s *stubMonitor) Refresh(context.Context, string) (*models.Transaction, error) {
	return nil, models.ErrNotFound
}
