package prober

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/carlmjohnson/requests"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/watchdog/config"
)

const userAgent = "watchdog-prober/1.0"

// Result is the verdict of a single reachability check. Detail is only ever
// logged; it is never surfaced to end users.
type Result struct {
	Online bool
	Detail string
}

// Prober performs a single bounded-timeout reachability check against a URL.
type Prober interface {
	Probe(ctx context.Context, url string) Result
}

type httpProber struct {
	log       *zap.Logger
	transport http.RoundTripper
	timeout   time.Duration
}

func NewProber(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, transport http.RoundTripper) Prober {
	return &httpProber{log: log, transport: transport, timeout: cfg.ProbeTimeout()}
}

// Probe issues one GET and maps the outcome to a Result. Only an HTTP 200
// counts as online; timeouts, DNS failures, transport errors, and any other
// status all normalize to offline. Transport errors never escape to the
// caller -- from the monitoring side, "down" and "unreachable" are the same
// verdict. No retries; retry policy belongs to the caller.
func (p *httpProber) Probe(ctx context.Context, url string) Result {
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	err := requests.URL(url).
		UserAgent(userAgent).
		Transport(p.transport).
		CheckStatus(http.StatusOK).
		Fetch(ctx)
	if err != nil {
		p.log.Sugar().Infow("Probe failed", "url", url, "err", err)
		return Result{Online: false, Detail: err.Error()}
	}
	return Result{Online: true}
}
