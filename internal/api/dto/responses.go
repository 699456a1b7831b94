package dto

import (
	"time"

	"github.com/eshaffer321/coolingoff/internal/application/purchase"
	"github.com/eshaffer321/coolingoff/internal/application/sweep"
	"github.com/eshaffer321/coolingoff/internal/domain/budget"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// MatchResponse is one blacklist entry's similarity to a category.
// Reason holds the localized text; ReasonCode is stable across languages.
type MatchResponse struct {
	BlacklistedCategory string `json:"blacklisted_category"`
	SimilarityScore     int    `json:"similarity_score"`
	Reason              string `json:"reason"`
	ReasonCode          string `json:"reason_code"`
	Tier                string `json:"tier"`
}

// CategoryMatchResponse is returned by POST /api/categories/match.
type CategoryMatchResponse struct {
	ProductCategory string          `json:"productCategory"`
	Matches         []MatchResponse `json:"matches"`
	HighestMatch    *MatchResponse  `json:"highestMatch"`
}

// SynonymsResponse is returned by GET /api/categories/synonyms.
type SynonymsResponse struct {
	Groups map[string][]string `json:"groups"`
}

// NotificationSettingsResponse is returned by the notification settings endpoints.
// NextAllowed is nil when a reminder may go out now or, with RemindersBlocked,
// when none will go out again.
type NotificationSettingsResponse struct {
	*storage.NotificationSettings
	MinIntervalDays  float64    `json:"min_interval_days"`
	NextAllowed      *time.Time `json:"next_allowed"`
	RemindersBlocked bool       `json:"reminders_blocked"`
}

// ResolveResponse is returned by POST /api/cooling/resolve.
type ResolveResponse struct {
	CoolingDays  int       `json:"coolingDays"`
	CoolingUntil time.Time `json:"coolingUntil"`
}

// SweepResponse is returned by POST /api/notifications/sweep.
type SweepResponse struct {
	Success           bool                 `json:"success"`
	RunID             int64                `json:"runId"`
	NotificationsSent int                  `json:"notificationsSent"`
	Notifications     []sweep.Notification `json:"notifications"`
}

// SweepRunListResponse is returned when listing sweep runs.
type SweepRunListResponse struct {
	Runs  []storage.SweepRun `json:"runs"`
	Count int                `json:"count"`
}

// LoginResponse is returned by POST /api/login.
type LoginResponse struct {
	User    *storage.User `json:"user"`
	Created bool          `json:"created"`
}

// RangeListResponse is returned when listing cooling ranges.
type RangeListResponse struct {
	Ranges []storage.CoolingRange `json:"ranges"`
	Count  int                    `json:"count"`
}

// BlacklistResponse is returned when listing blacklisted categories.
type BlacklistResponse struct {
	Categories []storage.BlacklistEntry `json:"categories"`
	Count      int                      `json:"count"`
}

// PurchaseResponse is returned when a purchase is created or previewed.
type PurchaseResponse struct {
	Purchase     *storage.Purchase `json:"purchase,omitempty"`
	CoolingDays  int               `json:"cooling_days"`
	CoolingUntil time.Time         `json:"cooling_until"`
	Warnings     []MatchResponse   `json:"warnings"`
	HighestMatch *MatchResponse    `json:"highest_match"`
	Finance      *FinanceResponse  `json:"finance"`
}

// FinanceResponse is the advisory financial analysis of a purchase. It is
// null when the user has not filled in a financial profile.
type FinanceResponse struct {
	CanAfford    bool                `json:"can_afford"`
	Shortage     float64             `json:"shortage"`
	BalanceAfter float64             `json:"balance_after"`
	SalaryRatio  float64             `json:"salary_ratio"`
	ExtraDays    int                 `json:"extra_days"`
	SavingsPlan  *budget.SavingsPlan `json:"savings_plan"`
	Warnings     []FinanceWarning    `json:"warnings"`
}

// FinanceWarning pairs a stable code with localized text.
type FinanceWarning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PurchaseListResponse is returned when listing active purchases.
type PurchaseListResponse struct {
	Purchases []purchase.Active `json:"purchases"`
	Count     int               `json:"count"`
}

// HistoryResponse is returned when listing purchase history.
type HistoryResponse struct {
	Items   []storage.HistoryItem `json:"items"`
	Count   int                   `json:"count"`
	Summary purchase.Summary      `json:"summary"`
}
