package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fiffu/watchdog/lib/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Website{}, &models.Subscription{}))
	return db
}

func newTestStores(t *testing.T) (Websites, Ledger, Users, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := zap.NewNop()
	return NewWebsites(nil, db, log), NewLedger(nil, db, log), NewUsers(nil, db, log), db
}

func seedUser(t *testing.T, db *gorm.DB, email string, quota int) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "x", RemainingNotifications: quota}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedWebsite(t *testing.T, db *gorm.DB, url string, status bool) *models.Website {
	t.Helper()
	website := &models.Website{URL: url, Status: status}
	require.NoError(t, db.Create(website).Error)
	return website
}

func subscribe(t *testing.T, db *gorm.DB, userID, websiteID uint) *models.Subscription {
	t.Helper()
	sub := &models.Subscription{UserID: userID, WebsiteID: websiteID}
	require.NoError(t, db.Create(sub).Error)
	return sub
}
