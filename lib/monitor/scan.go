package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fiffu/watchdog/lib/models"
)

// RunCycle performs one full scan over every monitored website. Only a
// failure to enumerate the websites aborts the cycle; every other failure is
// confined to the website or subscriber it occurred on.
func (m *Monitor) RunCycle(ctx context.Context) error {
	cycleStart := time.Now().UTC()
	log := m.log.Sugar().With("cycle_id", uuid.NewString())

	websites, err := m.websites.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(websites) == 0 {
		log.Info("No websites to scan")
		return nil
	}

	metrics := &scanMetrics{totalChecked: len(websites)}
	sem := newSemaphore(m.concurrency)
	var wg sync.WaitGroup

	for i := range websites {
		website := websites[i]
		wg.Add(1)

		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					metrics.add(func(m *scanMetrics) { m.errored++ })
					log.Errorw("Panic while checking website", "website", website.URL, "panic", r)
				}
			}()
			sem.acquire()
			defer sem.release()

			m.checkWebsite(ctx, log, &website, metrics)
		}()
	}
	wg.Wait()

	elapsed := time.Now().UTC().Sub(cycleStart)
	args := append(metrics.fields(), "checked", metrics.totalChecked, "elapsed_msecs", int(elapsed.Milliseconds()))
	log.Infow("Scan cycle completed", args...)
	return nil
}

// checkWebsite runs the probe → record → notify sequence for one website.
// Steps happen in order for this website; nothing here may abort the cycle.
func (m *Monitor) checkWebsite(ctx context.Context, log *zap.SugaredLogger, website *models.Website, metrics *scanMetrics) {
	result := m.prober.Probe(ctx, website.URL)

	changed, err := m.websites.RecordCheck(ctx, website.ID, result.Online, time.Now().UTC())
	if err != nil {
		metrics.add(func(m *scanMetrics) { m.errored++ })
		log.Errorw("Failed to record check", "website", website.URL, "err", err)
		return
	}

	if !changed {
		metrics.add(func(m *scanMetrics) { m.unchanged++ })
		return
	}

	metrics.add(func(m *scanMetrics) { m.transitions++ })
	log.Infow("Website status changed", "website", website.URL, "online", result.Online, "detail", result.Detail)

	m.notifySubscribers(ctx, log, website, result.Online, metrics)
}

// notifySubscribers walks the ledger for one website and dispatches to each
// subscriber with quota remaining. The quota decrement and the dedup
// timestamp are tied to the dispatch attempt, not its outcome; a failed
// delivery to one subscriber never blocks the next.
func (m *Monitor) notifySubscribers(ctx context.Context, log *zap.SugaredLogger, website *models.Website, online bool, metrics *scanMetrics) {
	subscribers, err := m.ledger.SubscribersOf(ctx, website.ID)
	if err != nil {
		metrics.add(func(m *scanMetrics) { m.errored++ })
		log.Errorw("Failed to fetch subscribers", "website", website.URL, "err", err)
		return
	}

	now := time.Now().UTC()
	for i := range subscribers {
		user := subscribers[i]

		// Self-heal: repair a missing ledger row rather than treating it
		// as new subscription intent.
		sub, err := m.ledger.Ensure(ctx, user.ID, website.ID)
		if err != nil {
			metrics.add(func(m *scanMetrics) { m.errored++ })
			log.Errorw("Failed to ensure subscription", "user", user.Email, "website", website.URL, "err", err)
			continue
		}

		if !user.HasRemainingNotifications() {
			metrics.add(func(m *scanMetrics) { m.skippedQuota++ })
			continue
		}

		if err := m.dispatcher.Notify(ctx, user.Email, website.URL, online); err != nil {
			// Already logged by the dispatcher; bookkeeping proceeds anyway.
			metrics.add(func(m *scanMetrics) { m.errored++ })
		}

		if err := m.users.DecrementNotifications(ctx, user.ID); err != nil {
			metrics.add(func(m *scanMetrics) { m.errored++ })
			log.Errorw("Failed to decrement quota", "user", user.Email, "err", err)
			continue
		}
		if err := m.ledger.MarkNotified(ctx, sub.ID, now); err != nil {
			metrics.add(func(m *scanMetrics) { m.errored++ })
			log.Errorw("Failed to mark notified", "user", user.Email, "website", website.URL, "err", err)
			continue
		}
		metrics.add(func(m *scanMetrics) { m.notified++ })
	}
}
