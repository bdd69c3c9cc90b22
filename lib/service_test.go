package lib

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fiffu/watchdog/config"
	"github.com/fiffu/watchdog/lib/models"
	"github.com/fiffu/watchdog/lib/store"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Website{}, &models.Subscription{}))

	log := zap.NewNop()
	cfg := &config.Config{DefaultNotificationQuota: 30}

	svc := NewService(nil, cfg, log,
		store.NewUsers(nil, db, log),
		store.NewWebsites(nil, db, log),
		store.NewLedger(nil, db, log),
	)
	return svc, db
}

func TestRegister_AssignsDefaultQuota(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "u1@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, 30, user.RemainingNotifications)
	assert.False(t, user.IsAdmin)
	assert.NotEqual(t, "hunter2", user.PasswordHash)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "u1@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "u1@example.com", "other")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestCreateUser_Admin(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.CreateUser(context.Background(), "admin@example.com", "hunter2", true)
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)
}

func TestAuthenticate(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "u1@example.com", "hunter2")
	require.NoError(t, err)

	user, err := svc.Authenticate(ctx, "u1@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1@example.com", user.Email)

	got := &models.User{}
	require.NoError(t, db.First(got, user.ID).Error)
	assert.True(t, got.LastLoginAt.Valid, "login time is recorded")

	_, err = svc.Authenticate(ctx, "u1@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, "missing@example.com", "hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestSubscribe_NormalizesAndDedups(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "u1@example.com", "hunter2")
	require.NoError(t, err)

	first, err := svc.Subscribe(ctx, user.ID, "Example.com/pricing")
	require.NoError(t, err)

	// Same host through a different raw URL reuses both rows
	second, err := svc.Subscribe(ctx, user.ID, "https://example.com/about")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var websiteCount, subCount int64
	require.NoError(t, db.Model(&models.Website{}).Count(&websiteCount).Error)
	require.NoError(t, db.Model(&models.Subscription{}).Count(&subCount).Error)
	assert.EqualValues(t, 1, websiteCount)
	assert.EqualValues(t, 1, subCount)

	websites, err := svc.ListWebsites(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, websites, 1)
	assert.Equal(t, "https://example.com", websites[0].URL)
}

func TestSubscribe_RejectsInvalidURL(t *testing.T) {
	svc, _ := newTestService(t)

	user, err := svc.Register(context.Background(), "u1@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.Subscribe(context.Background(), user.ID, "   ")
	assert.Error(t, err)
}

func TestUnsubscribe_CascadesLastSubscriber(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	u1, err := svc.Register(ctx, "u1@example.com", "hunter2")
	require.NoError(t, err)
	u2, err := svc.Register(ctx, "u2@example.com", "hunter2")
	require.NoError(t, err)

	sub, err := svc.Subscribe(ctx, u1.ID, "example.com")
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, u2.ID, "example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Unsubscribe(ctx, u1.ID, sub.WebsiteID))
	var count int64
	require.NoError(t, db.Model(&models.Website{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "website stays while a subscriber remains")

	require.NoError(t, svc.Unsubscribe(ctx, u2.ID, sub.WebsiteID))
	require.NoError(t, db.Model(&models.Website{}).Count(&count).Error)
	assert.EqualValues(t, 0, count, "last unsubscribe removes the website")
}

func TestReplenishQuota(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "u1@example.com", "hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.ReplenishQuota(ctx, user.ID, 100))
	got := &models.User{}
	require.NoError(t, db.First(got, user.ID).Error)
	assert.Equal(t, 100, got.RemainingNotifications)

	assert.Error(t, svc.ReplenishQuota(ctx, user.ID, -1))
}
