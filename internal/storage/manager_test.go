package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestStorage(t *testing.T) *Manager {
	t.Helper()

	manager, err := NewManager(t.TempDir(), zap.NewNop().Sugar())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return manager
}

func TestNewManagerInitializesSchema(t *testing.T) {
	m := setupTestStorage(t)

	version, err := m.db.GetSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint64(CurrentSchemaVersion), version)
	assert.NoError(t, m.Ping())
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	logger := zap.NewNop().Sugar()

	m, err := NewManager(dir, logger)
	require.NoError(t, err)
	_, err = m.UpsertUser("user_1", "Ada", "ada@example.com")
	require.NoError(t, err)
	require.NoError(t, m.Close())
	assert.Error(t, m.Ping())

	m, err = NewManager(dir, logger)
	require.NoError(t, err)
	defer m.Close()

	user, err := m.GetUser("user_1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.Name)
}

func TestUpsertUser(t *testing.T) {
	m := setupTestStorage(t)

	first, err := m.UpsertUser("user_1", "Ada", "ada@example.com")
	require.NoError(t, err)
	assert.False(t, first.Created.IsZero())

	same, err := m.UpsertUser("user_1", "Ada", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.Updated, same.Updated, "unchanged user is not rewritten")

	changed, err := m.UpsertUser("user_1", "Ada L.", "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.Created, changed.Created)
	assert.Equal(t, "Ada L.", changed.Name)

	_, err = m.UpsertUser("", "x", "y")
	assert.Error(t, err)

	_, err = m.GetUser("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscriptionLookup(t *testing.T) {
	m := setupTestStorage(t)

	end := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	sub := &SubscriptionRecord{
		ID:               "sub_1",
		UserID:           "user_1",
		CustomerID:       "cus_1",
		Status:           StatusActive,
		Amount:           1500,
		Currency:         "usd",
		Interval:         "month",
		CurrentPeriodEnd: &end,
	}
	require.NoError(t, m.SaveSubscription(sub))

	got, err := m.GetSubscriptionByUser("user_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", got.ID)
	assert.Equal(t, int64(1500), got.Amount)
	require.NotNil(t, got.CurrentPeriodEnd)
	assert.True(t, end.Equal(*got.CurrentPeriodEnd))

	byCustomer, err := m.FindSubscriptionByCustomer("cus_1")
	require.NoError(t, err)
	assert.Equal(t, "sub_1", byCustomer.ID)

	_, err = m.FindSubscriptionByCustomer("cus_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetSubscription("sub_missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, m.SaveSubscription(&SubscriptionRecord{}))
}

func TestHasActiveSubscription(t *testing.T) {
	m := setupTestStorage(t)

	active, err := m.HasActiveSubscription("nobody")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, m.SaveSubscription(&SubscriptionRecord{ID: "sub_1", UserID: "user_1", Status: StatusActive}))
	active, err = m.HasActiveSubscription("user_1")
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, m.SaveSubscription(&SubscriptionRecord{ID: "sub_1", UserID: "user_1", Status: StatusCanceled}))
	active, err = m.HasActiveSubscription("user_1")
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, m.SaveSubscription(&SubscriptionRecord{ID: "sub_2", UserID: "user_1", Status: StatusActive}))
	active, err = m.HasActiveSubscription("user_1")
	require.NoError(t, err)
	assert.True(t, active, "latest subscription wins")
}

func TestEmailEventsNewestFirst(t *testing.T) {
	m := setupTestStorage(t)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.SaveEmailEvent(&EmailEventRecord{
			Type:     "email.delivered",
			EmailID:  fmt.Sprintf("em_%d", i),
			Received: base.Add(time.Duration(i) * time.Minute),
			Payload:  json.RawMessage(`{"type":"email.delivered"}`),
		}))
	}

	events, err := m.ListEmailEvents(3)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "em_4", events[0].EmailID)
	assert.Equal(t, "em_2", events[2].EmailID)
	assert.NotEmpty(t, events[0].ID)
	assert.JSONEq(t, `{"type":"email.delivered"}`, string(events[0].Payload))

	all, err := m.ListEmailEvents(0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestPruneEmailEvents(t *testing.T) {
	m := setupTestStorage(t)

	require.NoError(t, m.SaveEmailEvent(&EmailEventRecord{Type: "email.sent", Received: time.Now().UTC().Add(-48 * time.Hour)}))
	require.NoError(t, m.SaveEmailEvent(&EmailEventRecord{Type: "email.sent"}))

	deleted, err := m.PruneEmailEvents(24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	events, err := m.ListEmailEvents(0)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSubscriptionIsActive(t *testing.T) {
	var nilSub *SubscriptionRecord
	assert.False(t, nilSub.IsActive())
	assert.False(t, (&SubscriptionRecord{Status: StatusTrialing}).IsActive())
	assert.True(t, (&SubscriptionRecord{Status: StatusActive}).IsActive())
}

func TestManagerBackup(t *testing.T) {
	m := setupTestStorage(t)
	_, err := m.UpsertUser("user_1", "Ada", "ada@example.com")
	require.NoError(t, err)

	destDir := t.TempDir()
	require.NoError(t, m.Backup(filepath.Join(destDir, DatabaseFile)))

	copied, err := NewManager(destDir, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer copied.Close()
	user, err := copied.GetUser("user_1")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)

	require.NoError(t, m.Close())
	assert.Error(t, m.Backup(filepath.Join(t.TempDir(), DatabaseFile)))
}
