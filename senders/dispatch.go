package senders

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Dispatcher composes and sends a single status-change notification to one
// recipient. A failed delivery is returned to the caller, never propagated
// further -- one recipient's failure must not abort the caller's loop.
type Dispatcher struct {
	log      *zap.Logger
	registry Registry
}

func NewDispatcher(lc fx.Lifecycle, log *zap.Logger, registry Registry) *Dispatcher {
	return &Dispatcher{log, registry}
}

func (d *Dispatcher) Notify(ctx context.Context, recipient, websiteURL string, online bool) error {
	format := &statusEmailFormat{websiteURL: websiteURL, online: online}

	sender, ok := d.registry["email"]
	if !ok {
		return fmt.Errorf("no sender registered for platform: email")
	}

	id, err := sender.Send(ctx, format.Subject(), format.Body(), recipient)
	if err != nil {
		d.log.Sugar().Infow("Failed to send status notification",
			"recipient", recipient, "website", websiteURL, "err", err)
		return err
	}
	d.log.Sugar().Infow("Sent status notification",
		"recipient", recipient, "website", websiteURL, "online", online, "message_id", id)
	return nil
}

// SendTest delivers one test message, bypassing scan and quota bookkeeping.
func (d *Dispatcher) SendTest(ctx context.Context, recipient string) error {
	format := &testEmailFormat{}

	sender, ok := d.registry["email"]
	if !ok {
		return fmt.Errorf("no sender registered for platform: email")
	}

	_, err := sender.Send(ctx, format.Subject(), format.Body(), recipient)
	return err
}
