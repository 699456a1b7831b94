package dto

// MatchRequest is the body of POST /api/categories/match.
// Pointer and nil-slice fields distinguish missing values from empty ones.
type MatchRequest struct {
	ProductCategory       *string  `json:"productCategory"`
	BlacklistedCategories []string `json:"blacklistedCategories"`
}

// RangeRequest describes one amount band.
type RangeRequest struct {
	MinAmount   float64  `json:"min_amount"`
	MaxAmount   *float64 `json:"max_amount"`
	CoolingDays int      `json:"cooling_days"`
}

// ResolveRequest is the body of POST /api/cooling/resolve.
type ResolveRequest struct {
	Price  *float64       `json:"price"`
	Ranges []RangeRequest `json:"ranges"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Username string `json:"username"`
}

// ProfileRequest is the body of PUT /api/users/:userID/profile.
type ProfileRequest struct {
	MonthlySalary   float64 `json:"monthly_salary"`
	MonthlySavings  float64 `json:"monthly_savings"`
	CurrentBalance  float64 `json:"current_balance"`
	ConsiderSavings bool    `json:"consider_savings"`
}

// BlacklistRequest is the body of POST /api/users/:userID/blacklist.
type BlacklistRequest struct {
	CategoryName string `json:"category_name"`
}

// NotificationSettingsRequest is the body of PUT /api/users/:userID/notifications.
// Omitted fields keep their stored values.
type NotificationSettingsRequest struct {
	Frequency         *string  `json:"frequency"`
	Channel           *string  `json:"channel"`
	Enabled           *bool    `json:"enabled"`
	ExcludeCategories []string `json:"exclude_categories"`
}

// PurchaseRequest is the body of POST /api/users/:userID/purchases.
type PurchaseRequest struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	URL      string  `json:"url"`
}

// PreviewRequest is the body of POST /api/users/:userID/purchases/preview.
type PreviewRequest struct {
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

// CompleteRequest is the body of POST /api/users/:userID/purchases/:id/complete.
type CompleteRequest struct {
	Action string `json:"action"`
	Notes  string `json:"notes"`
}
