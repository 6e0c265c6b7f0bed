// Package settlement drives asynchronous deposit/withdrawal transactions to
// a terminal status: polling the gateway on a progressive schedule, applying
// the terminal transition and its balance delta exactly once, and accepting
// out-of-band webhook resolutions through the same settle path.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/zamapay/wallet/internal/gateway"
	"github.com/zamapay/wallet/internal/metrics"
	"github.com/zamapay/wallet/internal/models"
	"github.com/zamapay/wallet/internal/notify"
	"github.com/zamapay/wallet/internal/repository"
)

// Gateway is the slice of the gateway client the monitor needs.
type Gateway interface {
	QueryStatus(ctx context.Context, externalRef string) (*gateway.StatusResult, error)
}

// DefaultSchedule is the progressive delay between polling attempts. The
// last value repeats if attempts exceed the schedule length.
var DefaultSchedule = []time.Duration{
	5 * time.Second,
	10 * time.Second,
	15 * time.Second,
	30 * time.Second,
	60 * time.Second,
	120 * time.Second,
	300 * time.Second,
	600 * time.Second,
	900 * time.Second,
	1800 * time.Second,
}

// Monitor owns the polling tasks for in-flight transactions. One watch
// goroutine runs per transaction; watches of different transactions are
// independent and unordered.
type Monitor struct {
	transactions repository.TransactionRepository
	accounts     repository.AccountRepository
	gw           Gateway
	notifier     notify.Notifier
	logger       *slog.Logger
	schedule     []time.Duration
	maxAttempts  int

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	active map[string]context.CancelFunc
}

// NewMonitor creates a settlement monitor. maxAttempts bounds polling per
// transaction; schedule may be nil to use DefaultSchedule.
func NewMonitor(
	transactions repository.TransactionRepository,
	accounts repository.AccountRepository,
	gw Gateway,
	notifier notify.Notifier,
	logger *slog.Logger,
	maxAttempts int,
	schedule []time.Duration,
) *Monitor {
	if len(schedule) == 0 {
		schedule = DefaultSchedule
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		transactions: transactions,
		accounts:     accounts,
		gw:           gw,
		notifier:     notifier,
		logger:       logger,
		schedule:     schedule,
		maxAttempts:  maxAttempts,
		baseCtx:      ctx,
		stop:         cancel,
		active:       make(map[string]context.CancelFunc),
	}
}

// Close cancels all active watches and waits for them to finish.
func (m *Monitor) Close() {
	m.stop()
	m.wg.Wait()
}

// Watch schedules a polling task for a transaction. It is a no-op for
// transactions that are already terminal, carry no external reference, or
// are already being watched.
func (m *Monitor) Watch(txn *models.Transaction) {
	if txn.Status.IsTerminal() || txn.ExternalReference == nil {
		return
	}

	m.mu.Lock()
	if _, ok := m.active[txn.Reference]; ok {
		m.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(m.baseCtx)
	m.active[txn.Reference] = cancel
	m.mu.Unlock()

	m.logger.Info("starting settlement monitoring", "reference", txn.Reference)

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.release(txn.Reference)
		m.run(ctx, txn.Reference)
	}()
}

// release removes a watch from the registry and cancels its context.
func (m *Monitor) release(reference string) {
	m.mu.Lock()
	cancel, ok := m.active[reference]
	delete(m.active, reference)
	m.mu.Unlock()
	if ok {
		cancel()
	}
}

// run is the polling loop for one transaction.
func (m *Monitor) run(ctx context.Context, reference string) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		if attempt > 1 {
			timer.Reset(m.delay(attempt - 2))
		}
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		m.logger.Debug("settlement attempt", "reference", reference, "attempt", attempt)

		txn, err := m.transactions.FindByReference(ctx, reference)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				m.logger.Warn("monitored transaction missing from ledger", "reference", reference)
				return
			}
			m.logger.Error("failed to re-read monitored transaction", "reference", reference, "error", err)
			continue
		}

		// A webhook or another monitor may have resolved it already.
		if txn.Status.IsTerminal() {
			m.logger.Info("transaction already settled", "reference", reference, "status", txn.Status)
			return
		}
		if txn.ExternalReference == nil {
			m.logger.Warn("monitored transaction has no external reference", "reference", reference)
			return
		}

		result, err := m.gw.QueryStatus(ctx, *txn.ExternalReference)
		if err != nil {
			m.logger.Error("gateway status check failed",
				"reference", reference,
				"attempt", attempt,
				"error", err,
			)
			continue
		}

		mapped := gateway.MapStatus(result.Status, m.logger)
		if mapped == txn.Status {
			continue
		}

		m.logger.Info("gateway status changed",
			"reference", reference,
			"from", txn.Status,
			"to", mapped,
		)

		status, err := m.Settle(ctx, txn, mapped)
		if err != nil {
			m.logger.Error("failed to settle transaction", "reference", reference, "error", err)
			continue
		}
		if status.IsTerminal() {
			return
		}
	}

	m.giveUp(reference)
}

// giveUp forces a transaction to FAILED after exhausting all attempts, so it
// can never remain PENDING forever.
func (m *Monitor) giveUp(reference string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	m.ForceFail(ctx, reference, "settlement attempts exhausted")
}

// ForceFail resolves a transaction that can no longer settle to FAILED. The
// CAS transition guarantees the failure notification fires at most once even
// if a webhook races this.
func (m *Monitor) ForceFail(ctx context.Context, reference, reason string) {
	txn, err := m.transactions.FindByReference(ctx, reference)
	if err != nil {
		m.logger.Error("failed to load transaction for forced failure", "reference", reference, "error", err)
		return
	}
	if txn.Status.IsTerminal() {
		return
	}

	applied, err := m.transactions.TransitionStatus(ctx, reference, txn.Status, models.TransactionStatusFailed)
	if err != nil {
		m.logger.Error("failed to force-fail transaction", "reference", reference, "error", err)
		return
	}
	if !applied {
		return
	}

	m.logger.Warn("transaction force-failed",
		"reference", reference,
		"reason", reason,
	)
	metrics.SettlementsTotal.WithLabelValues(string(txn.Type), string(models.TransactionStatusFailed)).Inc()
	m.notifyOutcome(ctx, txn, notify.FailureEvent(txn.Type))
}

// Settle applies a mapped gateway status to a transaction. The balance delta
// and notifications are gated on the compare-and-swap transition actually
// applying, which makes the mutation exactly-once no matter how many
// monitors, webhooks, or manual refreshes race on the same transaction. The
// returned status is the transaction's status after the call.
func (m *Monitor) Settle(ctx context.Context, txn *models.Transaction, mapped models.TransactionStatus) (models.TransactionStatus, error) {
	if mapped == txn.Status {
		return txn.Status, nil
	}

	applied, err := m.transactions.TransitionStatus(ctx, txn.Reference, txn.Status, mapped)
	if err != nil {
		return txn.Status, err
	}
	if !applied {
		// Lost the race; report what is stored now without mutating anything.
		current, err := m.transactions.FindByReference(ctx, txn.Reference)
		if err != nil {
			return txn.Status, err
		}
		return current.Status, nil
	}

	switch mapped {
	case models.TransactionStatusCompleted:
		if err := m.applyBalance(ctx, txn); err != nil {
			return mapped, err
		}
		metrics.SettlementsTotal.WithLabelValues(string(txn.Type), string(mapped)).Inc()
		m.notifyOutcome(ctx, txn, notify.CompletionEvent(txn.Type))
	case models.TransactionStatusFailed:
		metrics.SettlementsTotal.WithLabelValues(string(txn.Type), string(mapped)).Inc()
		m.notifyOutcome(ctx, txn, notify.FailureEvent(txn.Type))
	}

	return mapped, nil
}

const (
	balanceApplyAttempts   = 3
	balanceApplyRetryDelay = 100 * time.Millisecond
)

// applyBalance credits a completed deposit or debits a completed withdrawal.
// It runs after the terminal CAS has already applied, so a later poll will
// never replay this delta; transient adjustment failures are retried here
// before giving up to manual reconciliation.
func (m *Monitor) applyBalance(ctx context.Context, txn *models.Transaction) error {
	delta := txn.Amount
	switch txn.Type {
	case models.TransactionTypeWithdrawal:
		delta = delta.Neg()
	case models.TransactionTypeDeposit:
	default:
		return fmt.Errorf("settlement cannot apply balance for transaction type %q", txn.Type)
	}

	var err error
	for attempt := 1; attempt <= balanceApplyAttempts; attempt++ {
		err = m.accounts.AdjustBalance(ctx, txn.AccountID, delta)
		if err == nil {
			break
		}
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrInsufficientFunds) {
			break
		}
		if attempt == balanceApplyAttempts {
			break
		}
		m.logger.Warn("balance adjustment failed, retrying",
			"reference", txn.Reference,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return fmt.Errorf("failed to apply settlement balance delta: %w", ctx.Err())
		case <-time.After(balanceApplyRetryDelay):
		}
	}
	if err != nil {
		m.logger.Error("balance delta lost, needs manual reconciliation",
			"reference", txn.Reference,
			"account_id", txn.AccountID,
			"delta", delta,
			"error", err,
		)
		return fmt.Errorf("failed to apply settlement balance delta: %w", err)
	}

	account, err := m.accounts.FindByID(ctx, txn.AccountID)
	if err != nil {
		m.logger.Error("failed to load account for balance notification", "account_id", txn.AccountID, "error", err)
		return nil
	}
	m.notifier.Notify(ctx, notify.Notification{
		Event:       notify.EventBalanceUpdate,
		PhoneNumber: account.PhoneNumber,
		Reference:   txn.Reference,
		Amount:      account.Balance,
	})
	return nil
}

// notifyOutcome emits the terminal-outcome notification for a transaction.
func (m *Monitor) notifyOutcome(ctx context.Context, txn *models.Transaction, event notify.Event) {
	account, err := m.accounts.FindByID(ctx, txn.AccountID)
	if err != nil {
		m.logger.Error("failed to load account for notification", "account_id", txn.AccountID, "error", err)
		return
	}
	m.notifier.Notify(ctx, notify.Notification{
		Event:       event,
		PhoneNumber: account.PhoneNumber,
		Reference:   txn.Reference,
		Amount:      txn.Amount,
	})
}

// ResolveExternal handles a status reported out-of-band (webhook) for an
// external reference. It drives the same settle path as polling and is
// idempotent against a monitor having already resolved the transaction.
func (m *Monitor) ResolveExternal(ctx context.Context, externalRef, rawStatus string) (*models.Transaction, error) {
	txn, err := m.transactions.FindByExternalReference(ctx, externalRef)
	if err != nil {
		return nil, err
	}

	mapped := gateway.MapStatus(rawStatus, m.logger)
	status, err := m.Settle(ctx, txn, mapped)
	if err != nil {
		return nil, err
	}

	if status.IsTerminal() {
		m.release(txn.Reference)
	}

	txn.Status = status
	return txn, nil
}

// Refresh re-queries the gateway for a transaction looked up by internal or
// external reference and settles any status change immediately.
func (m *Monitor) Refresh(ctx context.Context, reference string) (*models.Transaction, error) {
	txn, err := m.transactions.FindByReference(ctx, reference)
	if errors.Is(err, models.ErrNotFound) {
		txn, err = m.transactions.FindByExternalReference(ctx, reference)
	}
	if err != nil {
		return nil, err
	}

	if txn.Status.IsTerminal() || txn.ExternalReference == nil {
		return txn, nil
	}

	result, err := m.gw.QueryStatus(ctx, *txn.ExternalReference)
	if err != nil {
		return nil, err
	}

	mapped := gateway.MapStatus(result.Status, m.logger)
	status, err := m.Settle(ctx, txn, mapped)
	if err != nil {
		return nil, err
	}
	if status.IsTerminal() {
		m.release(txn.Reference)
	}

	txn.Status = status
	return txn, nil
}

// delay returns the scheduled wait before a given zero-based retry index,
// repeating the last schedule entry when attempts outrun it.
func (m *Monitor) delay(i int) time.Duration {
	if i >= len(m.schedule) {
		i = len(m.schedule) - 1
	}
	return m.schedule[i]
}
