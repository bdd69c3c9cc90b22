package monitor

import "sync"

type scanMetrics struct {
	mu sync.Mutex

	totalChecked int
	transitions  int
	unchanged    int
	notified     int
	skippedQuota int
	errored      int
}

func (m *scanMetrics) add(fn func(*scanMetrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

func (m *scanMetrics) fields() []any {
	m.mu.Lock()
	defer m.mu.Unlock()

	args := make([]any, 0)
	if m.transitions != 0 {
		args = append(args, "transitions", m.transitions)
	}
	if m.unchanged != 0 {
		args = append(args, "unchanged", m.unchanged)
	}
	if m.notified != 0 {
		args = append(args, "notified", m.notified)
	}
	if m.skippedQuota != 0 {
		args = append(args, "skipped_quota", m.skippedQuota)
	}
	if m.errored != 0 {
		args = append(args, "errored", m.errored)
	}
	return args
}
