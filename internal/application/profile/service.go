package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/eshaffer321/coolingoff/internal/domain/notify"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidRange    = errors.New("invalid cooling range")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidProfile  = errors.New("invalid financial profile")
	ErrInvalidSettings = errors.New("invalid notification settings")
)

// DefaultChannel is the delivery channel given to new users
const DefaultChannel = "app"

// Channels lists the accepted notification channels
var Channels = []string{"app", "email", "telegram"}

// Service manages accounts, cooling ranges, blacklists and settings
type Service struct {
	storage storage.Repository
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a profile service
func NewService(store storage.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{storage: store, logger: logger, now: time.Now}
}

// WithClock replaces the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Login returns the user for username, creating it with defaults on first login.
// The bool reports whether the user was created.
func (s *Service) Login(ctx context.Context, username string) (*storage.User, bool, error) {
	name := strings.ToLower(strings.TrimSpace(username))
	if name == "" {
		return nil, false, fmt.Errorf("%w: username is required", ErrInvalidUsername)
	}
	now := s.now()

	user, err := s.storage.GetUserByUsername(ctx, name)
	if err == nil {
		if err := s.storage.TouchLogin(ctx, user.ID, now); err != nil {
			return nil, false, fmt.Errorf("failed to update last login: %w", err)
		}
		user.LastLogin = now
		return user, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	user = &storage.User{Username: name, CreatedAt: now, LastLogin: now}
	profile := &storage.FinancialProfile{UpdatedAt: now}
	settings := &storage.NotificationSettings{
		Frequency:         string(notify.DefaultFrequency),
		Channel:           DefaultChannel,
		Enabled:           true,
		ExcludeCategories: []string{},
		UpdatedAt:         now,
	}
	if err := s.storage.CreateUser(ctx, user, profile, settings); err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "username", name)
	return user, true, nil
}

// ================================================================
// FINANCIAL PROFILE
// ================================================================

// GetProfile returns the user's financial profile
func (s *Service) GetProfile(ctx context.Context, userID string) (*storage.FinancialProfile, error) {
	return s.storage.GetProfile(ctx, userID)
}

// UpdateProfile replaces the user's financial profile
func (s *Service) UpdateProfile(ctx context.Context, p storage.FinancialProfile) (*storage.FinancialProfile, error) {
	for _, v := range []float64{p.MonthlySalary, p.MonthlySavings, p.CurrentBalance} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return nil, fmt.Errorf("%w: amounts must be non-negative numbers", ErrInvalidProfile)
		}
	}
	if _, err := s.storage.GetUser(ctx, p.UserID); err != nil {
		return nil, err
	}

	p.UpdatedAt = s.now()
	if err := s.storage.SaveProfile(ctx, &p); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return &p, nil
}

// ================================================================
// COOLING RANGES
// ================================================================

// ValidateRange checks a range's bounds and cooling days
func ValidateRange(minAmount float64, maxAmount *float64, days int) error {
	switch {
	case math.IsNaN(minAmount) || math.IsInf(minAmount, 0) || minAmount < 0:
		return fmt.Errorf("%w: min_amount must be a non-negative number", ErrInvalidRange)
	case maxAmount != nil && (math.IsNaN(*maxAmount) || *maxAmount < minAmount):
		return fmt.Errorf("%w: max_amount must not be below min_amount", ErrInvalidRange)
	case days < 1:
		return fmt.Errorf("%w: cooling_days must be at least 1", ErrInvalidRange)
	}
	return nil
}

// AddRange validates and stores a cooling range
func (s *Service) AddRange(ctx context.Context, userID string, minAmount float64, maxAmount *float64, days int) (*storage.CoolingRange, error) {
	if err := ValidateRange(minAmount, maxAmount, days); err != nil {
		return nil, err
	}
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	r := &storage.CoolingRange{
		UserID:      userID,
		MinAmount:   minAmount,
		MaxAmount:   maxAmount,
		CoolingDays: days,
		CreatedAt:   s.now(),
	}
	if err := s.storage.AddRange(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to save range: %w", err)
	}
	return r, nil
}

// ListRanges returns the user's ranges in resolution order
func (s *Service) ListRanges(ctx context.Context, userID string) ([]storage.CoolingRange, error) {
	return s.storage.ListRanges(ctx, userID)
}

// DeleteRange removes one of the user's ranges
func (s *Service) DeleteRange(ctx context.Context, userID, rangeID string) error {
	return s.storage.DeleteRange(ctx, userID, rangeID)
}

// ================================================================
// BLACKLIST
// ================================================================

// AddBlacklistEntry stores a trimmed, non-empty category name
func (s *Service) AddBlacklistEntry(ctx context.Context, userID, category string) (*storage.BlacklistEntry, error) {
	name := strings.TrimSpace(category)
	if name == "" {
		return nil, fmt.Errorf("%w: category_name is required", ErrInvalidCategory)
	}
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, err
	}

	e := &storage.BlacklistEntry{UserID: userID, CategoryName: name, CreatedAt: s.now()}
	if err := s.storage.AddBlacklistEntry(ctx, e); err != nil {
		return nil, fmt.Errorf("failed to save blacklist entry: %w", err)
	}
	return e, nil
}

// ListBlacklist returns the user's blacklisted categories
func (s *Service) ListBlacklist(ctx context.Context, userID string) ([]storage.BlacklistEntry, error) {
	return s.storage.ListBlacklist(ctx, userID)
}

// DeleteBlacklistEntry removes one of the user's blacklist entries
func (s *Service) DeleteBlacklistEntry(ctx context.Context, userID, entryID string) error {
	return s.storage.DeleteBlacklistEntry(ctx, userID, entryID)
}

// ================================================================
// NOTIFICATION SETTINGS
// ================================================================

// SettingsUpdate carries the fields a client may change. Nil fields are left as they are.
type SettingsUpdate struct {
	Frequency         *string
	Channel           *string
	Enabled           *bool
	ExcludeCategories []string
}

// GetSettings returns the user's notification settings
func (s *Service) GetSettings(ctx context.Context, userID string) (*storage.NotificationSettings, error) {
	return s.storage.GetNotificationSettings(ctx, userID)
}

// UpdateSettings applies u to the stored settings. last_notification_sent is never changed here.
func (s *Service) UpdateSettings(ctx context.Context, userID string, u SettingsUpdate) (*storage.NotificationSettings, error) {
	current, err := s.storage.GetNotificationSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	if u.Frequency != nil {
		f, ok := notify.ParseFrequency(*u.Frequency)
		if !ok {
			return nil, fmt.Errorf("%w: unknown frequency %q", ErrInvalidSettings, *u.Frequency)
		}
		current.Frequency = string(f)
	}
	if u.Channel != nil {
		ch := strings.ToLower(strings.TrimSpace(*u.Channel))
		if !slices.Contains(Channels, ch) {
			return nil, fmt.Errorf("%w: unknown channel %q", ErrInvalidSettings, *u.Channel)
		}
		current.Channel = ch
	}
	if u.Enabled != nil {
		current.Enabled = *u.Enabled
	}
	if u.ExcludeCategories != nil {
		current.ExcludeCategories = cleanCategories(u.ExcludeCategories)
	}
	current.UpdatedAt = s.now()

	if err := s.storage.SaveNotificationSettings(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save notification settings: %w", err)
	}
	return current, nil
}

// cleanCategories trims names and drops blanks and duplicates, keeping order
func cleanCategories(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
