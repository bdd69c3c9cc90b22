package lib

import (
	"context"

	"go.uber.org/zap"

	"github.com/fiffu/watchdog/config"
	"github.com/fiffu/watchdog/lib/models"
	"github.com/fiffu/watchdog/lib/store"
)

type subscriptions struct {
	cfg      *config.Config
	log      *zap.Logger
	websites store.Websites
	ledger   store.Ledger
}

// Subscribe registers the user's interest in a host, creating the website
// record on first sight. Subscribing twice to the same host is a no-op that
// reuses the existing subscription.
func (svc *subscriptions) Subscribe(ctx context.Context, userID uint, rawURL string) (*models.Subscription, error) {
	normalized, err := models.NormalizeURL(rawURL)
	if err != nil {
		return nil, err
	}

	website, err := svc.websites.Ensure(ctx, normalized)
	if err != nil {
		return nil, err
	}

	sub, err := svc.ledger.Ensure(ctx, userID, website.ID)
	if err != nil {
		return nil, err
	}
	svc.log.Sugar().Infof("Subscribed user %v to %s (subscription id:%v)", userID, normalized, sub.ID)
	return sub, nil
}

// Unsubscribe removes the subscription, cascading website deletion when the
// user was its last subscriber.
func (svc *subscriptions) Unsubscribe(ctx context.Context, userID, websiteID uint) error {
	if err := svc.ledger.Remove(ctx, userID, websiteID); err != nil {
		return err
	}
	svc.log.Sugar().Infof("Unsubscribed user %v from website %v", userID, websiteID)
	return nil
}

func (svc *subscriptions) ListWebsites(ctx context.Context, userID uint) (models.Websites, error) {
	return svc.ledger.WebsitesOf(ctx, userID)
}
