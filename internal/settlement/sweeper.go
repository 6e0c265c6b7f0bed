package settlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zamapay/wallet/internal/repository"
)

// Sweeper periodically re-attaches monitoring to unsettled transactions.
// Watches live only in memory, so anything that was in flight when the
// process restarted would otherwise stay PENDING until someone asked.
type Sweeper struct {
	transactions repository.TransactionRepository
	monitor      *Monitor
	logger       *slog.Logger
	cron         *cron.Cron
}

func NewSweeper(transactions repository.TransactionRepository, monitor *Monitor, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		transactions: transactions,
		monitor:      monitor,
		logger:       logger,
		cron:         cron.New(),
	}
}

// Start runs one sweep immediately, then repeats on the given cron spec
// (e.g. "@every 15m").
func (s *Sweeper) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.Sweep); err != nil {
		return err
	}
	s.Sweep()
	s.cron.Start()
	return nil
}

// Stop stops scheduling further sweeps. A sweep already running completes.
func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// abandonAfter is how long a non-terminal transaction may sit without an
// external reference before the sweep resolves it to FAILED. It must outlast
// a full submission including gateway retries.
const abandonAfter = 5 * time.Minute

// Sweep finds transactions stuck in a non-terminal status with an external
// reference and starts a watch for each. Watch deduplicates, so sweeping a
// transaction that is already monitored is harmless. Rows that never received
// an external reference (crash mid-submission, lost acknowledgement) cannot
// be polled or matched by a webhook, so past the abandonment window they are
// force-failed instead.
func (s *Sweeper) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Leave a grace window so requests still in the submit path are not
	// picked up before their monitors attach.
	txns, err := s.transactions.ListUnsettled(ctx, time.Now().Add(-time.Minute))
	if err != nil {
		s.logger.Error("failed to list unsettled transactions", "error", err)
		return
	}
	if len(txns) > 0 {
		s.logger.Info("re-attaching settlement monitoring", "count", len(txns))
		for i := range txns {
			s.monitor.Watch(&txns[i])
		}
	}

	abandoned, err := s.transactions.ListAbandoned(ctx, time.Now().Add(-abandonAfter))
	if err != nil {
		s.logger.Error("failed to list abandoned transactions", "error", err)
		return
	}
	for i := range abandoned {
		s.monitor.ForceFail(ctx, abandoned[i].Reference, "no external reference")
	}
}
