// Package purchase manages wishlist items through their cooling-off period:
// creation with a price-derived deadline and blacklist warnings, completion,
// and history with spent/saved totals.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/eshaffer321/coolingoff/internal/domain/budget"
	"github.com/eshaffer321/coolingoff/internal/domain/cooling"
	"github.com/eshaffer321/coolingoff/internal/domain/similarity"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

var (
	// ErrInvalidDraft is returned when a new purchase fails validation
	ErrInvalidDraft = errors.New("invalid purchase")

	// ErrInvalidAction is returned when a completion action is not purchased or cancelled
	ErrInvalidAction = errors.New("invalid completion action")

	// ErrNotCompletable is returned when the purchase is missing or already finished
	ErrNotCompletable = errors.New("purchase cannot be completed")
)

// Draft is a purchase the user wants to make
type Draft struct {
	Name     string
	Price    float64
	Category string
	URL      string
}

// Validate checks the draft fields
func (d Draft) Validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidDraft)
	case strings.TrimSpace(d.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidDraft)
	case math.IsNaN(d.Price) || math.IsInf(d.Price, 0) || d.Price <= 0:
		return fmt.Errorf("%w: price must be a positive number", ErrInvalidDraft)
	}
	return nil
}

// Outcome is a created (or previewed) purchase together with its blacklist
// warnings and, when the user has a financial profile, an advisory analysis
type Outcome struct {
	Purchase *storage.Purchase
	Decision cooling.Decision
	Warnings similarity.Result
	Finance  *budget.Analysis
}

// Active is a pending or cooled purchase with its countdown
type Active struct {
	storage.Purchase
	DaysRemaining int  `json:"days_remaining"`
	Cooled        bool `json:"cooled"`
}

// Summary totals finished decisions
type Summary struct {
	Purchased  int     `json:"purchased"`
	Cancelled  int     `json:"cancelled"`
	TotalSpent float64 `json:"total_spent"`
	TotalSaved float64 `json:"total_saved"`
}

// Stats counts the user's purchases by status
type Stats struct {
	Total     int     `json:"total"`
	Pending   int     `json:"pending"`
	Cooled    int     `json:"cooled"`
	Purchased int     `json:"purchased"`
	Cancelled int     `json:"cancelled"`
	Spent     float64 `json:"total_spent"`
	Saved     float64 `json:"total_saved"`
}

// Service coordinates purchase operations
type Service struct {
	storage storage.Repository
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a purchase service
func NewService(store storage.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage: store,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock replaces the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Preview computes the cooling decision, blacklist warnings and financial
// analysis without saving
func (s *Service) Preview(ctx context.Context, userID string, price float64, category string) (*Outcome, error) {
	return s.evaluate(ctx, userID, price, category)
}

// Create validates the draft, resolves its cooling period and saves it as pending
func (s *Service) Create(ctx context.Context, userID string, draft Draft) (*Outcome, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	out, err := s.evaluate(ctx, userID, draft.Price, draft.Category)
	if err != nil {
		return nil, err
	}

	p := &storage.Purchase{
		UserID:       userID,
		Name:         strings.TrimSpace(draft.Name),
		Price:        draft.Price,
		Category:     strings.TrimSpace(draft.Category),
		URL:          strings.TrimSpace(draft.URL),
		CoolingUntil: out.Decision.CoolingUntil,
		Status:       storage.StatusPending,
		CreatedAt:    s.now(),
	}
	if err := s.storage.CreatePurchase(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}
	out.Purchase = p

	s.logger.Info("Purchase created",
		"user_id", userID,
		"purchase_id", p.ID,
		"price", p.Price,
		"cooling_days", out.Decision.CoolingDays,
		"warnings", len(out.Warnings.Matches),
	)

	return out, nil
}

func (s *Service) evaluate(ctx context.Context, userID string, price float64, category string) (*Outcome, error) {
	if _, err := s.storage.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to load user %s: %w", userID, err)
	}

	ranges, err := s.storage.ListRanges(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cooling ranges: %w", err)
	}

	blacklist, err := s.storage.ListBlacklist(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load blacklist: %w", err)
	}

	now := s.now()
	finance, err := s.analyze(ctx, userID, now, price)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Decision: cooling.Decide(now, price, storage.Bands(ranges)),
		Warnings: similarity.MatchAll(category, storage.CategoryNames(blacklist)),
		Finance:  finance,
	}, nil
}

// analyze returns nil when the user has no profile or left it empty
func (s *Service) analyze(ctx context.Context, userID string, now time.Time, price float64) (*budget.Analysis, error) {
	profile, err := s.storage.GetProfile(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load financial profile: %w", err)
	}

	p := budget.Profile{
		MonthlySalary:   profile.MonthlySalary,
		MonthlySavings:  profile.MonthlySavings,
		CurrentBalance:  profile.CurrentBalance,
		ConsiderSavings: profile.ConsiderSavings,
	}
	if p.IsZero() {
		return nil, nil
	}
	a := budget.Analyze(now, price, p)
	return &a, nil
}

// Complete records the final decision for a pending or cooled purchase
func (s *Service) Complete(ctx context.Context, userID, purchaseID, action, notes string) (*storage.Purchase, error) {
	if action != storage.StatusPurchased && action != storage.StatusCancelled {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	entry := &storage.HistoryEntry{
		UserID:     userID,
		PurchaseID: &purchaseID,
		Action:     action,
		Notes:      strings.TrimSpace(notes),
		CreatedAt:  s.now(),
	}
	if err := s.storage.CompletePurchase(ctx, entry); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotCompletable, purchaseID)
		}
		return nil, fmt.Errorf("failed to complete purchase: %w", err)
	}

	s.logger.Info("Purchase completed", "user_id", userID, "purchase_id", purchaseID, "action", action)

	return s.storage.GetPurchase(ctx, userID, purchaseID)
}

// Delete removes one of the user's purchases in any status
func (s *Service) Delete(ctx context.Context, userID, purchaseID string) error {
	if err := s.storage.DeletePurchase(ctx, userID, purchaseID); err != nil {
		return fmt.Errorf("failed to delete purchase %s: %w", purchaseID, err)
	}
	s.logger.Info("Purchase deleted", "user_id", userID, "purchase_id", purchaseID)
	return nil
}

// ListActive returns pending and cooled purchases, newest first
func (s *Service) ListActive(ctx context.Context, userID string) ([]Active, error) {
	purchases, err := s.storage.ListPurchases(ctx, userID, storage.StatusPending, storage.StatusCooled)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}

	now := s.now()
	active := make([]Active, len(purchases))
	for i, p := range purchases {
		active[i] = Active{
			Purchase:      p,
			DaysRemaining: max(cooling.DaysRemaining(now, p.CoolingUntil), 0),
			Cooled:        cooling.IsCooled(now, p.CoolingUntil),
		}
	}
	return active, nil
}

// History returns finished decisions, optionally filtered by action, with totals
func (s *Service) History(ctx context.Context, userID, action string) ([]storage.HistoryItem, Summary, error) {
	if action != "" && action != storage.StatusPurchased && action != storage.StatusCancelled {
		return nil, Summary{}, fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}

	items, err := s.storage.ListHistory(ctx, userID, action)
	if err != nil {
		return nil, Summary{}, fmt.Errorf("failed to list history: %w", err)
	}

	var sum Summary
	for _, item := range items {
		price := 0.0
		if item.Purchase != nil {
			price = item.Purchase.Price
		}
		switch item.Action {
		case storage.StatusPurchased:
			sum.Purchased++
			sum.TotalSpent += price
		case storage.StatusCancelled:
			sum.Cancelled++
			sum.TotalSaved += price
		}
	}

	return items, sum, nil
}

// Stats counts all of the user's purchases by status
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	purchases, err := s.storage.ListPurchases(ctx, userID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to list purchases: %w", err)
	}

	st := Stats{Total: len(purchases)}
	for _, p := range purchases {
		switch p.Status {
		case storage.StatusPending:
			st.Pending++
		case storage.StatusCooled:
			st.Cooled++
		case storage.StatusPurchased:
			st.Purchased++
			st.Spent += p.Price
		case storage.StatusCancelled:
			st.Cancelled++
			st.Saved += p.Price
		}
	}
	return st, nil
}
