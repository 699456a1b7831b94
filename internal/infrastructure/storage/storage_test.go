package storage

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	tmpDB := createTempDB(t)
	t.Cleanup(func() { os.Remove(tmpDB) })

	store, err := NewStorage(tmpDB)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUser(t *testing.T, store *Storage, username string) *User {
	t.Helper()
	user := &User{Username: username, CreatedAt: baseTime, LastLogin: baseTime}
	profile := &FinancialProfile{UpdatedAt: baseTime}
	settings := &NotificationSettings{Frequency: "weekly", Channel: "app", Enabled: true, UpdatedAt: baseTime}
	require.NoError(t, store.CreateUser(t.Context(), user, profile, settings))
	return user
}

func seedPurchase(t *testing.T, store *Storage, userID, name, category string, until time.Time) *Purchase {
	t.Helper()
	p := &Purchase{
		UserID:       userID,
		Name:         name,
		Price:        1000,
		Category:     category,
		CoolingUntil: until,
		CreatedAt:    until.Add(-24 * time.Hour),
	}
	require.NoError(t, store.CreatePurchase(t.Context(), p))
	return p
}

func TestStorage_CreateUser(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()

	user := seedUser(t, store, "alice")
	require.NotEmpty(t, user.ID)

	t.Run("by id and username", func(t *testing.T) {
		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.True(t, got.CreatedAt.Equal(baseTime))

		got, err = store.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("default profile and settings created", func(t *testing.T) {
		profile, err := store.GetProfile(ctx, user.ID)
		require.NoError(t, err)
		assert.Zero(t, profile.MonthlySalary)
		assert.False(t, profile.ConsiderSavings)

		settings, err := store.GetNotificationSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "weekly", settings.Frequency)
		assert.True(t, settings.Enabled)
		assert.Empty(t, settings.ExcludeCategories)
		assert.Nil(t, settings.LastNotificationSent)
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		err := store.CreateUser(ctx, &User{Username: "alice"}, &FinancialProfile{}, &NotificationSettings{Frequency: "weekly", Channel: "app"})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := store.GetUser(ctx, "nope")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.TouchLogin(ctx, "nope", baseTime), ErrNotFound)
	})

	t.Run("touch login", func(t *testing.T) {
		later := baseTime.Add(time.Hour)
		require.NoError(t, store.TouchLogin(ctx, user.ID, later))
		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, got.LastLogin.Equal(later))
	})
}

func TestStorage_SaveProfile(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "bob")

	err := store.SaveProfile(ctx, &FinancialProfile{
		UserID:          user.ID,
		MonthlySalary:   120000,
		MonthlySavings:  20000,
		CurrentBalance:  350000,
		ConsiderSavings: true,
		UpdatedAt:       baseTime,
	})
	require.NoError(t, err)

	got, err := store.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 120000.0, got.MonthlySalary)
	assert.Equal(t, 350000.0, got.CurrentBalance)
	assert.True(t, got.ConsiderSavings)
}

func TestStorage_Ranges(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "carol")

	max1 := 1000.0
	require.NoError(t, store.AddRange(ctx, &CoolingRange{UserID: user.ID, MinAmount: 5000, CoolingDays: 30, CreatedAt: baseTime}))
	require.NoError(t, store.AddRange(ctx, &CoolingRange{UserID: user.ID, MinAmount: 0, MaxAmount: &max1, CoolingDays: 1, CreatedAt: baseTime}))
	first := &CoolingRange{UserID: user.ID, MinAmount: 1000, CoolingDays: 7, CreatedAt: baseTime}
	require.NoError(t, store.AddRange(ctx, first))
	require.NoError(t, store.AddRange(ctx, &CoolingRange{UserID: user.ID, MinAmount: 1000, CoolingDays: 14, CreatedAt: baseTime}))

	ranges, err := store.ListRanges(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, ranges, 4)

	days := make([]int, len(ranges))
	for i, r := range ranges {
		days[i] = r.CoolingDays
	}
	assert.Equal(t, []int{1, 7, 14, 30}, days, "ordered by min_amount then insertion")

	require.NotNil(t, ranges[0].MaxAmount)
	assert.Equal(t, 1000.0, *ranges[0].MaxAmount)
	assert.Nil(t, ranges[3].MaxAmount)

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.DeleteRange(ctx, user.ID, first.ID))
		assert.ErrorIs(t, store.DeleteRange(ctx, user.ID, first.ID), ErrNotFound)

		ranges, err := store.ListRanges(ctx, user.ID)
		require.NoError(t, err)
		assert.Len(t, ranges, 3)
	})

	t.Run("other user cannot delete", func(t *testing.T) {
		other := seedUser(t, store, "mallory")
		assert.ErrorIs(t, store.DeleteRange(ctx, other.ID, ranges[0].ID), ErrNotFound)
	})
}

func TestStorage_Blacklist(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "dave")

	for _, name := range []string{"Видеоигры", "Одежда", "Кофе"} {
		require.NoError(t, store.AddBlacklistEntry(ctx, &BlacklistEntry{UserID: user.ID, CategoryName: name, CreatedAt: baseTime}))
	}

	entries, err := store.ListBlacklist(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Видеоигры", "Одежда", "Кофе"}, CategoryNames(entries))

	require.NoError(t, store.DeleteBlacklistEntry(ctx, user.ID, entries[1].ID))
	entries, err = store.ListBlacklist(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Видеоигры", "Кофе"}, CategoryNames(entries))
}

func TestStorage_Purchases(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "erin")

	old := seedPurchase(t, store, user.ID, "Headphones", "Electronics", baseTime)
	recent := seedPurchase(t, store, user.ID, "Console", "Games", baseTime.Add(48*time.Hour))

	t.Run("get", func(t *testing.T) {
		got, err := store.GetPurchase(ctx, user.ID, old.ID)
		require.NoError(t, err)
		assert.Equal(t, "Headphones", got.Name)
		assert.Equal(t, StatusPending, got.Status)
		assert.True(t, got.CoolingUntil.Equal(baseTime))
		assert.Nil(t, got.CompletedAt)
	})

	t.Run("get scoped to user", func(t *testing.T) {
		_, err := store.GetPurchase(ctx, "someone-else", old.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list newest first", func(t *testing.T) {
		list, err := store.ListPurchases(ctx, user.ID, StatusPending, StatusCooled)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, recent.ID, list[0].ID)
		assert.Equal(t, old.ID, list[1].ID)
	})

	t.Run("due purchases", func(t *testing.T) {
		due, err := store.ListDuePurchases(ctx, baseTime)
		require.NoError(t, err)
		require.Len(t, due, 1, "cooling_until equal to now is due")
		assert.Equal(t, old.ID, due[0].ID)
		assert.Equal(t, "erin", due[0].Username)

		due, err = store.ListDuePurchases(ctx, baseTime.Add(-time.Nanosecond))
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestStorage_CompletePurchase(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "frank")
	p := seedPurchase(t, store, user.ID, "Jacket", "Clothing", baseTime)

	doneAt := baseTime.Add(time.Hour)
	entry := &HistoryEntry{UserID: user.ID, PurchaseID: &p.ID, Action: StatusCancelled, Notes: "changed my mind", CreatedAt: doneAt}
	require.NoError(t, store.CompletePurchase(ctx, entry))

	got, err := store.GetPurchase(ctx, user.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(doneAt))

	t.Run("second completion rejected", func(t *testing.T) {
		again := &HistoryEntry{UserID: user.ID, PurchaseID: &p.ID, Action: StatusPurchased, CreatedAt: doneAt}
		assert.ErrorIs(t, store.CompletePurchase(ctx, again), ErrNotFound)
	})

	t.Run("history joined with purchase", func(t *testing.T) {
		items, err := store.ListHistory(ctx, user.ID, "")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "changed my mind", items[0].Notes)
		require.NotNil(t, items[0].Purchase)
		assert.Equal(t, "Jacket", items[0].Purchase.Name)

		items, err = store.ListHistory(ctx, user.ID, StatusPurchased)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestStorage_DeletePurchase(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "gina")
	other := seedUser(t, store, "hank")
	done := seedPurchase(t, store, user.ID, "Lamp", "Home", baseTime)
	pending := seedPurchase(t, store, user.ID, "Desk", "Home", baseTime)

	entry := &HistoryEntry{UserID: user.ID, PurchaseID: &done.ID, Action: StatusPurchased, CreatedAt: baseTime}
	require.NoError(t, store.CompletePurchase(ctx, entry))

	t.Run("other user cannot delete", func(t *testing.T) {
		assert.ErrorIs(t, store.DeletePurchase(ctx, other.ID, pending.ID), ErrNotFound)
		_, err := store.GetPurchase(ctx, user.ID, pending.ID)
		assert.NoError(t, err)
	})

	t.Run("pending purchase removed", func(t *testing.T) {
		require.NoError(t, store.DeletePurchase(ctx, user.ID, pending.ID))
		_, err := store.GetPurchase(ctx, user.ID, pending.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("history survives completed purchase deletion", func(t *testing.T) {
		require.NoError(t, store.DeletePurchase(ctx, user.ID, done.ID))

		items, err := store.ListHistory(ctx, user.ID, "")
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].PurchaseID)
		assert.Nil(t, items[0].Purchase)
		assert.Equal(t, StatusPurchased, items[0].Action)
	})

	t.Run("second delete not found", func(t *testing.T) {
		assert.ErrorIs(t, store.DeletePurchase(ctx, user.ID, done.ID), ErrNotFound)
	})
}

func TestStorage_NotificationSettings(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "grace")

	sent := baseTime.Add(-72 * time.Hour)
	err := store.SaveNotificationSettings(ctx, &NotificationSettings{
		UserID:               user.ID,
		Frequency:            "daily",
		Channel:              "email",
		Enabled:              false,
		ExcludeCategories:    []string{"Кофе", "Games"},
		LastNotificationSent: &sent,
		UpdatedAt:            baseTime,
	})
	require.NoError(t, err)

	got, err := store.GetNotificationSettings(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "daily", got.Frequency)
	assert.Equal(t, "email", got.Channel)
	assert.False(t, got.Enabled)
	assert.Equal(t, []string{"Кофе", "Games"}, got.ExcludeCategories)
	require.NotNil(t, got.LastNotificationSent)
	assert.True(t, got.LastNotificationSent.Equal(sent))
	assert.True(t, got.Excludes("Games"))
	assert.False(t, got.Excludes("games"))
}

func TestStorage_MarkNotified(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()
	user := seedUser(t, store, "heidi")
	p := seedPurchase(t, store, user.ID, "Bike", "Transport", baseTime)

	ok, err := store.MarkNotified(ctx, user.ID, p.ID, baseTime)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := store.GetPurchase(ctx, user.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCooled, got.Status)

	settings, err := store.GetNotificationSettings(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, settings.LastNotificationSent)
	assert.True(t, settings.LastNotificationSent.Equal(baseTime))

	t.Run("already cooled is a no-op", func(t *testing.T) {
		ok, err := store.MarkNotified(ctx, user.ID, p.ID, baseTime.Add(time.Hour))
		require.NoError(t, err)
		assert.False(t, ok)

		settings, err := store.GetNotificationSettings(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, settings.LastNotificationSent.Equal(baseTime))
	})

	t.Run("no longer due", func(t *testing.T) {
		due, err := store.ListDuePurchases(ctx, baseTime.Add(time.Hour))
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}

func TestStorage_SweepRuns(t *testing.T) {
	store := newTestStorage(t)
	ctx := t.Context()

	first, err := store.StartSweepRun(ctx, baseTime)
	require.NoError(t, err)
	require.NoError(t, store.CompleteSweepRun(ctx, first, 3, 2, 1, nil))

	second, err := store.StartSweepRun(ctx, baseTime.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, store.CompleteSweepRun(ctx, second, 0, 0, 0, errors.New("database is locked")))

	run, err := store.GetSweepRun(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, SweepCompleted, run.Status)
	assert.Equal(t, 3, run.PurchasesDue)
	assert.Equal(t, 2, run.NotificationsSent)
	assert.Equal(t, 1, run.Skipped)
	assert.NotNil(t, run.CompletedAt)

	runs, err := store.ListSweepRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second, runs[0].ID)
	assert.Equal(t, SweepFailed, runs[0].Status)
	assert.Equal(t, "database is locked", runs[0].ErrorMessage)

	_, err = store.GetSweepRun(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
