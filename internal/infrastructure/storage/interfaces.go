package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint
	ErrConflict = errors.New("conflict")
)

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, in-memory mock)
// and makes testing with mocks straightforward.
type Repository interface {
	UserRepository
	RangeRepository
	BlacklistRepository
	PurchaseRepository
	NotificationRepository
	SweepRunRepository
	Close() error
}

// UserRepository handles accounts and financial profiles
type UserRepository interface {
	// CreateUser inserts the user together with its profile and notification settings
	CreateUser(ctx context.Context, user *User, profile *FinancialProfile, settings *NotificationSettings) error

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// TouchLogin updates the last login time
	TouchLogin(ctx context.Context, userID string, at time.Time) error

	// GetProfile retrieves the user's financial profile
	GetProfile(ctx context.Context, userID string) (*FinancialProfile, error)

	// SaveProfile updates the user's financial profile
	SaveProfile(ctx context.Context, profile *FinancialProfile) error
}

// RangeRepository handles cooling ranges
type RangeRepository interface {
	AddRange(ctx context.Context, r *CoolingRange) error

	// ListRanges returns ranges ordered by min_amount, then insertion order
	ListRanges(ctx context.Context, userID string) ([]CoolingRange, error)

	DeleteRange(ctx context.Context, userID, id string) error
}

// BlacklistRepository handles blacklisted categories
type BlacklistRepository interface {
	AddBlacklistEntry(ctx context.Context, e *BlacklistEntry) error

	// ListBlacklist returns entries in insertion order
	ListBlacklist(ctx context.Context, userID string) ([]BlacklistEntry, error)

	DeleteBlacklistEntry(ctx context.Context, userID, id string) error
}

// PurchaseRepository handles purchases and their history
type PurchaseRepository interface {
	CreatePurchase(ctx context.Context, p *Purchase) error

	GetPurchase(ctx context.Context, userID, id string) (*Purchase, error)

	// ListPurchases returns the user's purchases in the given statuses, newest first.
	// An empty status list matches every status.
	ListPurchases(ctx context.Context, userID string, statuses ...string) ([]Purchase, error)

	// DeletePurchase removes one of the user's purchases in any status.
	// History entries survive with a null purchase reference.
	DeletePurchase(ctx context.Context, userID, id string) error

	// ListDuePurchases returns pending purchases with cooling_until <= now, oldest deadline first
	ListDuePurchases(ctx context.Context, now time.Time) ([]DuePurchase, error)

	// CompletePurchase sets the purchase status to entry.Action and appends entry to history
	CompletePurchase(ctx context.Context, entry *HistoryEntry) error

	// ListHistory returns the user's history, newest first, optionally filtered by action
	ListHistory(ctx context.Context, userID, action string) ([]HistoryItem, error)
}

// NotificationRepository handles notification settings
type NotificationRepository interface {
	GetNotificationSettings(ctx context.Context, userID string) (*NotificationSettings, error)

	SaveNotificationSettings(ctx context.Context, s *NotificationSettings) error

	// MarkNotified advances last_notification_sent and moves the purchase from
	// pending to cooled. It reports false when the purchase was no longer pending.
	MarkNotified(ctx context.Context, userID, purchaseID string, at time.Time) (bool, error)
}

// SweepRunRepository handles sweep run tracking
type SweepRunRepository interface {
	// StartSweepRun records the start of a sweep and returns the run ID
	StartSweepRun(ctx context.Context, startedAt time.Time) (int64, error)

	// CompleteSweepRun records the outcome of a sweep
	CompleteSweepRun(ctx context.Context, runID int64, due, sent, skipped int, runErr error) error

	// ListSweepRuns returns recent sweep runs, newest first
	ListSweepRuns(ctx context.Context, limit int) ([]SweepRun, error)

	// GetSweepRun retrieves a sweep run by ID
	GetSweepRun(ctx context.Context, runID int64) (*SweepRun, error)
}
