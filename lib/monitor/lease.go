package monitor

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaseKey = "watchdog:scan-lease"

// scanLease is a best-effort cross-process mutual exclusion for scan cycles,
// held for at most the scan interval. Single-process deployments run without
// one; the in-process mutex already serializes their cycles.
type scanLease struct {
	client *redis.Client
	ttl    time.Duration
}

func newScanLease(client *redis.Client, ttl time.Duration) *scanLease {
	return &scanLease{client: client, ttl: ttl}
}

func (l *scanLease) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, leaseKey, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

func (l *scanLease) Release(ctx context.Context) {
	l.client.Del(ctx, leaseKey)
}
