package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/watchdog/config"
	"github.com/fiffu/watchdog/lib/prober"
	"github.com/fiffu/watchdog/lib/store"
	"github.com/fiffu/watchdog/senders"
)

// Serializes cycles within the process; the scan interval is expected to
// exceed the worst-case cycle duration, but accidental overlap must not
// corrupt bookkeeping.
var mu sync.Mutex

// Monitor is the recurring scan driver: it enumerates every monitored
// website, probes each one, records transitions, and notifies subscribers
// subject to their remaining quota.
type Monitor struct {
	cfg        *config.Config
	log        *zap.Logger
	websites   store.Websites
	ledger     store.Ledger
	users      store.Users
	prober     prober.Prober
	dispatcher *senders.Dispatcher

	concurrency int
	interval    time.Duration
	lease       *scanLease
	cancel      context.CancelFunc
}

func NewMonitor(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	websites store.Websites,
	ledger store.Ledger,
	users store.Users,
	prober prober.Prober,
	dispatcher *senders.Dispatcher,
) *Monitor {
	m := &Monitor{
		cfg:         cfg,
		log:         log,
		websites:    websites,
		ledger:      ledger,
		users:       users,
		prober:      prober,
		dispatcher:  dispatcher,
		concurrency: cfg.Monitor.Concurrency,
		interval:    cfg.ScanInterval(),
	}
	if m.concurrency < 1 {
		m.concurrency = 1
	}
	if cfg.RedisAddr != "" {
		m.lease = newScanLease(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}), m.interval)
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go m.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Sugar().Info("Trying to stop monitor")
			m.Stop()
			return nil
		},
	})

	return m
}

// Start runs one cycle immediately, then one per tick until Stop.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.runScheduled(ctx)

	for {
		select {
		case <-ctx.Done():
			// Wait for the in-flight cycle to finish before reporting stopped
			mu.Lock()
			defer mu.Unlock()
			m.log.Sugar().Info("Monitor stopped")
			return

		case <-ticker.C:
			m.runScheduled(ctx)
		}
	}
}

func (m *Monitor) Stop() {
	if m.cancel != nil {
		m.cancel()
	}
}

func (m *Monitor) runScheduled(ctx context.Context) {
	mu.Lock()
	defer mu.Unlock()

	if m.lease != nil {
		acquired, err := m.lease.Acquire(ctx)
		if err != nil {
			m.log.Sugar().Warnw("Scan lease check failed, skipping cycle", "err", err)
			return
		}
		if !acquired {
			m.log.Sugar().Info("Scan lease held elsewhere, skipping cycle")
			return
		}
		defer m.lease.Release(ctx)
	}

	if err := m.RunCycle(ctx); err != nil {
		m.log.Sugar().Errorw("Scan cycle aborted", "err", err)
	}
}
