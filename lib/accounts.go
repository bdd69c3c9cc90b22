package lib

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/fiffu/watchdog/config"
	"github.com/fiffu/watchdog/lib/models"
	"github.com/fiffu/watchdog/lib/store"
)

var (
	ErrEmailTaken         = errors.New("an account already exists with that email")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type accounts struct {
	cfg   *config.Config
	log   *zap.Logger
	users store.Users
}

// Register creates a regular account with the configured default quota.
func (svc *accounts) Register(ctx context.Context, email, password string) (*models.User, error) {
	return svc.CreateUser(ctx, email, password, false)
}

// CreateUser backs the operator create-user and create-admin commands.
func (svc *accounts) CreateUser(ctx context.Context, email, password string, isAdmin bool) (*models.User, error) {
	if _, err := svc.users.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:                  email,
		PasswordHash:           string(hash),
		IsAdmin:                isAdmin,
		RemainingNotifications: svc.cfg.DefaultNotificationQuota,
	}
	if err := svc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	svc.log.Sugar().Infof("Created user %v (%s), admin: %v", user.ID, email, isAdmin)
	return user, nil
}

// Authenticate verifies credentials and records the login time.
func (svc *accounts) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := svc.users.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCredentials
	} else if err != nil {
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	if err := svc.users.TouchLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		svc.log.Sugar().Warnw("Failed to record login time", "user", email, "err", err)
	}
	return user, nil
}

// ReplenishQuota is the operator path for topping up a user's notifications.
func (svc *accounts) ReplenishQuota(ctx context.Context, userID uint, quota int) error {
	if quota < 0 {
		return errors.New("quota must not be negative")
	}
	return svc.users.SetQuota(ctx, userID, quota)
}

func (svc *accounts) SetAdmin(ctx context.Context, userID uint, isAdmin bool) error {
	return svc.users.SetAdmin(ctx, userID, isAdmin)
}
