package lib

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fiffu/watchdog/config"
	"github.com/fiffu/watchdog/lib/store"
)

// Service is the web-facing surface: account management and subscription
// CRUD. It reads website status for display and writes the ledger; it never
// runs probes itself.
type Service struct {
	cfg *config.Config
	log *zap.Logger

	*accounts
	*subscriptions
}

func NewService(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, users store.Users, websites store.Websites, ledger store.Ledger) *Service {
	return &Service{
		cfg, log,
		&accounts{cfg, log, users},
		&subscriptions{cfg, log, websites, ledger},
	}
}
