package store

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fiffu/watchdog/lib/models"
)

type Users interface {
	Create(ctx context.Context, user *models.User) error
	Find(ctx context.Context, userID uint) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLogin(ctx context.Context, userID uint, at time.Time) error

	// DecrementNotifications burns one unit of the user's quota. The quota
	// never goes below zero; decrementing an exhausted user is a no-op.
	DecrementNotifications(ctx context.Context, userID uint) error

	SetQuota(ctx context.Context, userID uint, quota int) error
	SetAdmin(ctx context.Context, userID uint, isAdmin bool) error
}

type userStore struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewUsers(lc fx.Lifecycle, db *gorm.DB, log *zap.Logger) Users {
	return &userStore{db, log}
}

func (s *userStore) Create(ctx context.Context, user *models.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *userStore) Find(ctx context.Context, userID uint) (*models.User, error) {
	user := &models.User{}
	if err := s.db.WithContext(ctx).First(user, userID).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	tx := s.db.WithContext(ctx).Where("email = ?", email).First(user)
	if err := tx.Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userStore) TouchLogin(ctx context.Context, userID uint, at time.Time) error {
	tx := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("last_login_at", sql.NullTime{Time: at, Valid: true})
	return tx.Error
}

func (s *userStore) DecrementNotifications(ctx context.Context, userID uint) error {
	tx := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND remaining_notifications > 0", userID).
		Update("remaining_notifications", gorm.Expr("remaining_notifications - 1"))
	return tx.Error
}

func (s *userStore) SetQuota(ctx context.Context, userID uint, quota int) error {
	tx := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("remaining_notifications", quota)
	return tx.Error
}

func (s *userStore) SetAdmin(ctx context.Context, userID uint, isAdmin bool) error {
	tx := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_admin", isAdmin)
	return tx.Error
}
