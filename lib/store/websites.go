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

// Websites is the durable record of each monitored site's last-known status.
type Websites interface {
	ListAll(ctx context.Context) (models.Websites, error)
	Find(ctx context.Context, websiteID uint) (*models.Website, error)
	Ensure(ctx context.Context, normalizedURL string) (*models.Website, error)

	// RecordCheck unconditionally refreshes last_checked and flips status
	// only when the observed value differs from the stored one. It reports
	// whether a transition occurred; repeated calls with an equal status
	// never report a transition.
	RecordCheck(ctx context.Context, websiteID uint, observed bool, at time.Time) (changed bool, err error)
}

type websiteStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewWebsites(lc fx.Lifecycle, db *gorm.DB, log *zap.Logger) Websites {
	return &websiteStore{db, log}
}

func (s *websiteStore) ListAll(ctx context.Context) (models.Websites, error) {
	var websites models.Websites
	tx := s.db.WithContext(ctx).Find(&websites)
	return websites, tx.Error
}

func (s *websiteStore) Find(ctx context.Context, websiteID uint) (*models.Website, error) {
	website := &models.Website{}
	tx := s.db.WithContext(ctx).First(website, websiteID)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return website, nil
}

func (s *websiteStore) Ensure(ctx context.Context, normalizedURL string) (*models.Website, error) {
	website := &models.Website{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("url = ?", normalizedURL).First(website)
		if err := res.Error; errors.Is(err, gorm.ErrRecordNotFound) {
			website.URL = normalizedURL
			return tx.Create(website).Error
		} else if err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return website, nil
}

func (s *websiteStore) RecordCheck(ctx context.Context, websiteID uint, observed bool, at time.Time) (bool, error) {
	var changed bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		website := &models.Website{}
		if err := tx.First(website, websiteID).Error; err != nil {
			return err
		}

		updates := map[string]any{
			"last_checked": sql.NullTime{Time: at, Valid: true},
		}
		if website.Status != observed {
			changed = true
			updates["status"] = observed
		}
		return tx.Model(website).Updates(updates).Error
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}
