package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fiffu/watchdog/lib/models"
)

func TestEnsureSubscription_NeverCreatesDuplicate(t *testing.T) {
	_, ledger, _, db := newTestStores(t)
	ctx := context.Background()

	user := seedUser(t, db, "u1@example.com", 5)
	website := seedWebsite(t, db, "https://example.com", false)

	first, err := ledger.Ensure(ctx, user.ID, website.ID)
	require.NoError(t, err)

	second, err := ledger.Ensure(ctx, user.ID, website.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Subscription{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRemove_CascadesWebsiteDeletionForLastSubscriber(t *testing.T) {
	_, ledger, _, db := newTestStores(t)
	ctx := context.Background()

	u1 := seedUser(t, db, "u1@example.com", 5)
	u2 := seedUser(t, db, "u2@example.com", 5)
	website := seedWebsite(t, db, "https://example.com", false)
	subscribe(t, db, u1.ID, website.ID)
	subscribe(t, db, u2.ID, website.ID)

	// Removing a non-last subscription leaves the website intact
	require.NoError(t, ledger.Remove(ctx, u1.ID, website.ID))
	var count int64
	require.NoError(t, db.Model(&models.Website{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Removing the last one deletes the website too
	require.NoError(t, ledger.Remove(ctx, u2.ID, website.ID))
	require.NoError(t, db.Model(&models.Website{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRemove_UnknownSubscription(t *testing.T) {
	_, ledger, _, db := newTestStores(t)

	user := seedUser(t, db, "u1@example.com", 5)
	website := seedWebsite(t, db, "https://example.com", false)

	err := ledger.Remove(context.Background(), user.ID, website.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestSubscribersOf(t *testing.T) {
	_, ledger, _, db := newTestStores(t)
	ctx := context.Background()

	u1 := seedUser(t, db, "u1@example.com", 5)
	u2 := seedUser(t, db, "u2@example.com", 0)
	other := seedUser(t, db, "other@example.com", 5)

	website := seedWebsite(t, db, "https://example.com", false)
	unrelated := seedWebsite(t, db, "https://unrelated.example.com", true)
	subscribe(t, db, u1.ID, website.ID)
	subscribe(t, db, u2.ID, website.ID)
	subscribe(t, db, other.ID, unrelated.ID)

	subscribers, err := ledger.SubscribersOf(ctx, website.ID)
	require.NoError(t, err)
	require.Len(t, subscribers, 2)

	emails := []string{subscribers[0].Email, subscribers[1].Email}
	assert.ElementsMatch(t, []string{"u1@example.com", "u2@example.com"}, emails)
}

func TestWebsitesOf(t *testing.T) {
	_, ledger, _, db := newTestStores(t)

	user := seedUser(t, db, "u1@example.com", 5)
	a := seedWebsite(t, db, "https://a.example.com", true)
	seedWebsite(t, db, "https://b.example.com", false)
	subscribe(t, db, user.ID, a.ID)

	websites, err := ledger.WebsitesOf(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, websites, 1)
	assert.Equal(t, "https://a.example.com", websites[0].URL)
}

func TestMarkNotified(t *testing.T) {
	_, ledger, _, db := newTestStores(t)

	user := seedUser(t, db, "u1@example.com", 5)
	website := seedWebsite(t, db, "https://example.com", false)
	sub := subscribe(t, db, user.ID, website.ID)
	require.False(t, sub.LastNotifiedAt.Valid)

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.MarkNotified(context.Background(), sub.ID, at))

	got := &models.Subscription{}
	require.NoError(t, db.First(got, sub.ID).Error)
	require.True(t, got.LastNotifiedAt.Valid)
	assert.Equal(t, at, got.LastNotifiedAt.Time.UTC())
}
