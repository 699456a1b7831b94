package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps and slices, making tests fast and isolated.
type MockRepository struct {
	mu sync.Mutex

	users     map[string]*User
	profiles  map[string]*FinancialProfile
	ranges    []CoolingRange
	blacklist []BlacklistEntry
	purchases map[string]*Purchase
	history   []HistoryEntry
	settings  map[string]*NotificationSettings
	sweepRuns map[int64]*SweepRun
	nextRunID int64

	// Hooks for test assertions
	CreatePurchaseCalled bool
	LastCreatedPurchase  *Purchase
	MarkNotifiedCalls    int

	// Error injection for testing error paths
	CreateUserErr       error
	GetUserErr          error
	GetProfileErr       error
	CreatePurchaseErr   error
	ListRangesErr       error
	ListBlacklistErr    error
	ListDueErr          error
	CompletePurchaseErr error
	DeletePurchaseErr   error
	GetSettingsErr      error
	MarkNotifiedErr     error
	StartSweepRunErr    error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		users:     make(map[string]*User),
		profiles:  make(map[string]*FinancialProfile),
		purchases: make(map[string]*Purchase),
		settings:  make(map[string]*NotificationSettings),
		sweepRuns: make(map[int64]*SweepRun),
		nextRunID: 1,
	}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// Close does nothing for mock
func (m *MockRepository) Close() error {
	return nil
}

// ================================================================
// USERS
// ================================================================

func (m *MockRepository) CreateUser(_ context.Context, user *User, profile *FinancialProfile, settings *NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateUserErr != nil {
		return m.CreateUserErr
	}
	for _, u := range m.users {
		if u.Username == user.Username {
			return fmt.Errorf("%w: username %q taken", ErrConflict, user.Username)
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	profile.UserID = user.ID
	settings.UserID = user.ID

	u, p, s := *user, *profile, *settings
	s.ExcludeCategories = slices.Clone(settings.ExcludeCategories)
	m.users[u.ID] = &u
	m.profiles[u.ID] = &p
	m.settings[u.ID] = &s
	return nil
}

func (m *MockRepository) GetUser(_ context.Context, id string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetUserErr != nil {
		return nil, m.GetUserErr
	}
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (m *MockRepository) GetUserByUsername(_ context.Context, username string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MockRepository) TouchLogin(_ context.Context, userID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.LastLogin = at
	return nil
}

func (m *MockRepository) GetProfile(_ context.Context, userID string) (*FinancialProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetProfileErr != nil {
		return nil, m.GetProfileErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockRepository) SaveProfile(_ context.Context, profile *FinancialProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *profile
	m.profiles[profile.UserID] = &copied
	return nil
}

// ================================================================
// RANGES AND BLACKLIST
// ================================================================

func (m *MockRepository) AddRange(_ context.Context, r *CoolingRange) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	m.ranges = append(m.ranges, *r)
	return nil
}

func (m *MockRepository) ListRanges(_ context.Context, userID string) ([]CoolingRange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListRangesErr != nil {
		return nil, m.ListRangesErr
	}
	out := make([]CoolingRange, 0)
	for _, r := range m.ranges {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	// Stable sort keeps insertion order among equal minimums
	sort.SliceStable(out, func(i, j int) bool { return out[i].MinAmount < out[j].MinAmount })
	return out, nil
}

func (m *MockRepository) DeleteRange(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.ranges {
		if r.ID == id && r.UserID == userID {
			m.ranges = slices.Delete(m.ranges, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MockRepository) AddBlacklistEntry(_ context.Context, e *BlacklistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	m.blacklist = append(m.blacklist, *e)
	return nil
}

func (m *MockRepository) ListBlacklist(_ context.Context, userID string) ([]BlacklistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListBlacklistErr != nil {
		return nil, m.ListBlacklistErr
	}
	out := make([]BlacklistEntry, 0)
	for _, e := range m.blacklist {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockRepository) DeleteBlacklistEntry(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, e := range m.blacklist {
		if e.ID == id && e.UserID == userID {
			m.blacklist = slices.Delete(m.blacklist, i, i+1)
			return nil
		}
	}
	return ErrNotFound
}

// ================================================================
// PURCHASES
// ================================================================

func (m *MockRepository) CreatePurchase(_ context.Context, p *Purchase) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreatePurchaseCalled = true
	m.LastCreatedPurchase = p
	if m.CreatePurchaseErr != nil {
		return m.CreatePurchaseErr
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = StatusPending
	}
	copied := *p
	m.purchases[p.ID] = &copied
	return nil
}

func (m *MockRepository) GetPurchase(_ context.Context, userID, id string) (*Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.purchases[id]
	if !ok || p.UserID != userID {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (m *MockRepository) ListPurchases(_ context.Context, userID string, statuses ...string) ([]Purchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Purchase, 0)
	for _, p := range m.purchases {
		if p.UserID != userID {
			continue
		}
		if len(statuses) > 0 && !slices.Contains(statuses, p.Status) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockRepository) ListDuePurchases(_ context.Context, now time.Time) ([]DuePurchase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListDueErr != nil {
		return nil, m.ListDueErr
	}
	out := make([]DuePurchase, 0)
	for _, p := range m.purchases {
		if p.Status != StatusPending || p.CoolingUntil.After(now) {
			continue
		}
		d := DuePurchase{Purchase: *p}
		if u, ok := m.users[p.UserID]; ok {
			d.Username = u.Username
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CoolingUntil.Equal(out[j].CoolingUntil) {
			return out[i].CoolingUntil.Before(out[j].CoolingUntil)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MockRepository) CompletePurchase(_ context.Context, entry *HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CompletePurchaseErr != nil {
		return m.CompletePurchaseErr
	}
	if entry.PurchaseID == nil {
		return fmt.Errorf("history entry has no purchase")
	}
	p, ok := m.purchases[*entry.PurchaseID]
	if !ok || p.UserID != entry.UserID || (p.Status != StatusPending && p.Status != StatusCooled) {
		return ErrNotFound
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	at := entry.CreatedAt
	p.Status = entry.Action
	p.CompletedAt = &at
	m.history = append(m.history, *entry)
	return nil
}

func (m *MockRepository) DeletePurchase(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeletePurchaseErr != nil {
		return m.DeletePurchaseErr
	}
	p, ok := m.purchases[id]
	if !ok || p.UserID != userID {
		return ErrNotFound
	}
	delete(m.purchases, id)
	for i := range m.history {
		if h := m.history[i].PurchaseID; h != nil && *h == id {
			m.history[i].PurchaseID = nil
		}
	}
	return nil
}

func (m *MockRepository) ListHistory(_ context.Context, userID, action string) ([]HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]HistoryItem, 0)
	// Walk backwards so equal timestamps come out newest-inserted first
	for i := len(m.history) - 1; i >= 0; i-- {
		e := m.history[i]
		if e.UserID != userID || (action != "" && e.Action != action) {
			continue
		}
		item := HistoryItem{HistoryEntry: e}
		if e.PurchaseID != nil {
			if p, ok := m.purchases[*e.PurchaseID]; ok {
				copied := *p
				item.Purchase = &copied
			}
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ================================================================
// NOTIFICATION SETTINGS
// ================================================================

func (m *MockRepository) GetNotificationSettings(_ context.Context, userID string) (*NotificationSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.GetSettingsErr != nil {
		return nil, m.GetSettingsErr
	}
	s, ok := m.settings[userID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *s
	copied.ExcludeCategories = slices.Clone(s.ExcludeCategories)
	if s.LastNotificationSent != nil {
		t := *s.LastNotificationSent
		copied.LastNotificationSent = &t
	}
	return &copied, nil
}

func (m *MockRepository) SaveNotificationSettings(_ context.Context, s *NotificationSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := *s
	copied.ExcludeCategories = slices.Clone(s.ExcludeCategories)
	m.settings[s.UserID] = &copied
	return nil
}

func (m *MockRepository) MarkNotified(_ context.Context, userID, purchaseID string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.MarkNotifiedCalls++
	if m.MarkNotifiedErr != nil {
		return false, m.MarkNotifiedErr
	}
	p, ok := m.purchases[purchaseID]
	if !ok || p.UserID != userID || p.Status != StatusPending {
		return false, nil
	}
	s, ok := m.settings[userID]
	if !ok {
		return false, ErrNotFound
	}
	p.Status = StatusCooled
	sent := at
	s.LastNotificationSent = &sent
	return true, nil
}

// ================================================================
// SWEEP RUNS
// ================================================================

func (m *MockRepository) StartSweepRun(_ context.Context, startedAt time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartSweepRunErr != nil {
		return 0, m.StartSweepRunErr
	}
	id := m.nextRunID
	m.nextRunID++
	m.sweepRuns[id] = &SweepRun{ID: id, StartedAt: startedAt, Status: SweepRunning}
	return id, nil
}

func (m *MockRepository) CompleteSweepRun(_ context.Context, runID int64, due, sent, skipped int, runErr error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.sweepRuns[runID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	run.CompletedAt = &now
	run.PurchasesDue = due
	run.NotificationsSent = sent
	run.Skipped = skipped
	run.Status = SweepCompleted
	if runErr != nil {
		run.Status = SweepFailed
		run.ErrorMessage = runErr.Error()
	}
	return nil
}

func (m *MockRepository) ListSweepRuns(_ context.Context, limit int) ([]SweepRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if limit <= 0 {
		limit = 20
	}
	out := make([]SweepRun, 0)
	for id := m.nextRunID - 1; id >= 1 && len(out) < limit; id-- {
		if run, ok := m.sweepRuns[id]; ok {
			out = append(out, *run)
		}
	}
	return out, nil
}

func (m *MockRepository) GetSweepRun(_ context.Context, runID int64) (*SweepRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.sweepRuns[runID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *run
	return &copied, nil
}
