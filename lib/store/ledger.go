package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiffu/watchdog/lib/models"
)

// Ledger holds the user↔website subscription relation. All traversal between
// users and websites goes through these operations; callers never walk the
// entity graph directly.
type Ledger interface {
	SubscribersOf(ctx context.Context, websiteID uint) (models.Users, error)
	WebsitesOf(ctx context.Context, userID uint) (models.Websites, error)
	Find(ctx context.Context, userID, websiteID uint) (*models.Subscription, error)

	// Ensure returns the existing subscription for the pair, creating one
	// only if absent. At most one row per (user, website) pair ever exists.
	Ensure(ctx context.Context, userID, websiteID uint) (*models.Subscription, error)

	// Remove deletes the subscription and, when it was the website's last
	// subscriber, the website itself. No orphan websites are retained.
	Remove(ctx context.Context, userID, websiteID uint) error

	MarkNotified(ctx context.Context, subscriptionID uint, at time.Time) error
}

type ledgerStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewLedger(lc fx.Lifecycle, db *gorm.DB, log *zap.Logger) Ledger {
	return &ledgerStore{db, log}
}

func (s *ledgerStore) SubscribersOf(ctx context.Context, websiteID uint) (models.Users, error) {
	var users models.Users
	tx := s.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.user_id = users.id").
		Where("subscriptions.website_id = ?", websiteID).
		Find(&users)
	return users, tx.Error
}

func (s *ledgerStore) WebsitesOf(ctx context.Context, userID uint) (models.Websites, error) {
	var websites models.Websites
	tx := s.db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.website_id = websites.id").
		Where("subscriptions.user_id = ?", userID).
		Find(&websites)
	return websites, tx.Error
}

func (s *ledgerStore) Find(ctx context.Context, userID, websiteID uint) (*models.Subscription, error) {
	sub := &models.Subscription{}
	tx := s.db.WithContext(ctx).
		Where("user_id = ? AND website_id = ?", userID, websiteID).
		First(sub)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *ledgerStore) Ensure(ctx context.Context, userID, websiteID uint) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND website_id = ?", userID, websiteID).First(sub)
		if err := res.Error; errors.Is(err, gorm.ErrRecordNotFound) {
			sub.UserID = userID
			sub.WebsiteID = websiteID
			return tx.Create(sub).Error
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *ledgerStore) Remove(ctx context.Context, userID, websiteID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().
			Where("user_id = ? AND website_id = ?", userID, websiteID).
			Delete(&models.Subscription{})
		if err := res.Error; err != nil {
			return err
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		var remaining int64
		res = tx.Model(&models.Subscription{}).Where("website_id = ?", websiteID).Count(&remaining)
		if err := res.Error; err != nil {
			return err
		}
		if remaining == 0 {
			return tx.Unscoped().Delete(&models.Website{}, websiteID).Error
		}
		return nil
	})
}

func (s *ledgerStore) MarkNotified(ctx context.Context, subscriptionID uint, at time.Time) error {
	tx := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", subscriptionID).
		Update("last_notified_at", sql.NullTime{Time: at, Valid: true})
	return tx.Error
}
