package storage

import (
	"time"

	"github.com/eshaffer321/coolingoff/internal/domain/cooling"
)

// Purchase statuses
const (
	StatusPending   = "pending"
	StatusCooled    = "cooled"
	StatusPurchased = "purchased"
	StatusCancelled = "cancelled"
)

// User is an account identified by a lower-cased username
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	LastLogin time.Time `json:"last_login"`
}

// FinancialProfile holds the user's self-reported finances
type FinancialProfile struct {
	UserID          string    `json:"user_id"`
	MonthlySalary   float64   `json:"monthly_salary"`
	MonthlySavings  float64   `json:"monthly_savings"`
	CurrentBalance  float64   `json:"current_balance"`
	ConsiderSavings bool      `json:"consider_savings"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CoolingRange is a persisted amount band owned by a user
type CoolingRange struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	MinAmount   float64   `json:"min_amount"`
	MaxAmount   *float64  `json:"max_amount"`
	CoolingDays int       `json:"cooling_days"`
	CreatedAt   time.Time `json:"created_at"`
}

// Band converts the stored range into the resolver's type
func (r CoolingRange) Band() cooling.Range {
	return cooling.Range{
		MinAmount:   r.MinAmount,
		MaxAmount:   r.MaxAmount,
		CoolingDays: r.CoolingDays,
	}
}

// Bands converts stored ranges, keeping their order
func Bands(ranges []CoolingRange) []cooling.Range {
	out := make([]cooling.Range, len(ranges))
	for i, r := range ranges {
		out[i] = r.Band()
	}
	return out
}

// BlacklistEntry is a category the user wants to be warned about
type BlacklistEntry struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	CategoryName string    `json:"category_name"`
	CreatedAt    time.Time `json:"created_at"`
}

// CategoryNames extracts the category names, keeping their order
func CategoryNames(entries []BlacklistEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.CategoryName
	}
	return out
}

// Purchase is a wishlist item waiting out its cooling period
type Purchase struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	Name         string     `json:"name"`
	Price        float64    `json:"price"`
	Category     string     `json:"category"`
	URL          string     `json:"url,omitempty"`
	CoolingUntil time.Time  `json:"cooling_until"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
}

// DuePurchase is a pending purchase whose cooling period has ended,
// joined with its owner's username
type DuePurchase struct {
	Purchase
	Username string `json:"username"`
}

// HistoryEntry records a finished purchase decision
type HistoryEntry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PurchaseID *string   `json:"purchase_id"`
	Action     string    `json:"action"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HistoryItem is a history entry with the purchase it refers to, if any
type HistoryItem struct {
	HistoryEntry
	Purchase *Purchase `json:"purchase"`
}

// NotificationSettings controls reminder delivery for a user
type NotificationSettings struct {
	UserID               string     `json:"user_id"`
	Frequency            string     `json:"frequency"`
	Channel              string     `json:"channel"`
	Enabled              bool       `json:"enabled"`
	ExcludeCategories    []string   `json:"exclude_categories"`
	LastNotificationSent *time.Time `json:"last_notification_sent"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Excludes reports whether reminders for category are suppressed.
// Comparison is exact, matching how categories were excluded.
func (s *NotificationSettings) Excludes(category string) bool {
	for _, c := range s.ExcludeCategories {
		if c == category {
			return true
		}
	}
	return false
}

// SweepRun records one execution of the notification sweep
type SweepRun struct {
	ID                int64      `json:"id"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	PurchasesDue      int        `json:"purchases_due"`
	NotificationsSent int        `json:"notifications_sent"`
	Skipped           int        `json:"skipped"`
	Status            string     `json:"status"`
	ErrorMessage      string     `json:"error_message,omitempty"`
}

// Sweep run statuses
const (
	SweepRunning   = "running"
	SweepCompleted = "completed"
	SweepFailed    = "failed"
)
