package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/coolingoff/internal/api"
	"github.com/eshaffer321/coolingoff/internal/api/dto"
	"github.com/eshaffer321/coolingoff/internal/application/profile"
	"github.com/eshaffer321/coolingoff/internal/application/purchase"
	"github.com/eshaffer321/coolingoff/internal/application/sweep"
	"github.com/eshaffer321/coolingoff/internal/domain/budget"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/lock"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testServer struct {
	server *api.Server
	repo   *storage.MockRepository
	locker *lock.Local
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := storage.NewMockRepository()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := func() time.Time { return fixedNow }
	locker := lock.NewLocal()

	services := api.Services{
		Purchases: purchase.NewService(repo, logger).WithClock(clock),
		Profiles:  profile.NewService(repo, logger).WithClock(clock),
		Sweeper:   sweep.NewSweeper(repo, nil, locker, logger).WithClock(clock),
	}
	cfg := api.DefaultConfig()
	cfg.RateLimitRPS = 0

	return &testServer{
		server: api.NewServer(cfg, services, logger),
		repo:   repo,
		locker: locker,
	}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func (ts *testServer) login(t *testing.T, username string) string {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/login", map[string]string{"username": username})
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, rec.Code)
	return decode[dto.LoginResponse](t, rec).User.ID
}

func TestServer_HealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[dto.HealthResponse](t, rec).Status)
}

func TestServer_CategoryMatch(t *testing.T) {
	ts := newTestServer(t)

	t.Run("ranks matches", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/categories/match", map[string]any{
			"productCategory":       "Игры",
			"blacklistedCategories": []string{"xyz", "Видеоигры", "игры"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[dto.CategoryMatchResponse](t, rec)
		assert.Equal(t, "Игры", resp.ProductCategory)
		require.Len(t, resp.Matches, 2)
		assert.Equal(t, "игры", resp.Matches[0].BlacklistedCategory)
		assert.Equal(t, 100, resp.Matches[0].SimilarityScore)
		assert.Equal(t, "Категории практически идентичны", resp.Matches[0].Reason)
		assert.Equal(t, 85, resp.Matches[1].SimilarityScore)
		require.NotNil(t, resp.HighestMatch)
		assert.Equal(t, "игры", resp.HighestMatch.BlacklistedCategory)
	})

	t.Run("english reasons", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/categories/match?lang=en", map[string]any{
			"productCategory":       "техника",
			"blacklistedCategories": []string{"гаджеты"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[dto.CategoryMatchResponse](t, rec)
		require.Len(t, resp.Matches, 1)
		assert.Equal(t, 75, resp.Matches[0].SimilarityScore)
		assert.Equal(t, "very similar", resp.Matches[0].Reason)
		assert.Equal(t, "very_similar", resp.Matches[0].ReasonCode)
		assert.Equal(t, "synonym", resp.Matches[0].Tier)
	})

	t.Run("empty blacklist has no highest match", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/categories/match", map[string]any{
			"productCategory":       "Игры",
			"blacklistedCategories": []string{},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"highestMatch":null`)
		assert.Contains(t, rec.Body.String(), `"matches":[]`)
	})

	missing := []struct {
		name string
		body map[string]any
	}{
		{"no category", map[string]any{"blacklistedCategories": []string{"a"}}},
		{"empty category", map[string]any{"productCategory": "", "blacklistedCategories": []string{"a"}}},
		{"no blacklist", map[string]any{"productCategory": "Игры"}},
	}
	for _, tt := range missing {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/categories/match", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, dto.ErrCodeBadRequest, decode[dto.APIError](t, rec).Code)
		})
	}
}

func TestServer_CoolingResolve(t *testing.T) {
	ts := newTestServer(t)

	t.Run("first matching range", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/cooling/resolve", map[string]any{
			"price": 1500,
			"ranges": []map[string]any{
				{"min_amount": 0, "max_amount": 1000, "cooling_days": 1},
				{"min_amount": 1000, "max_amount": nil, "cooling_days": 7},
			},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 7, decode[dto.ResolveResponse](t, rec).CoolingDays)
	})

	t.Run("no ranges uses default", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/cooling/resolve", map[string]any{"price": 10})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[dto.ResolveResponse](t, rec).CoolingDays)
	})

	t.Run("missing price", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/cooling/resolve", map[string]any{"ranges": []any{}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_UserFlow(t *testing.T) {
	ts := newTestServer(t)
	userID := ts.login(t, "Alice")
	base := "/api/users/" + userID

	t.Run("second login returns 200", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/login", map[string]string{"username": "alice"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, decode[dto.LoginResponse](t, rec).Created)
	})

	t.Run("empty username", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/login", map[string]string{"username": " "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("ranges", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/ranges", map[string]any{"min_amount": 0, "max_amount": 1000, "cooling_days": 2})
		require.Equal(t, http.StatusCreated, rec.Code)
		rec = ts.do(t, http.MethodPost, base+"/ranges", map[string]any{"min_amount": 1000, "cooling_days": 14})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = ts.do(t, http.MethodPost, base+"/ranges", map[string]any{"min_amount": 100, "max_amount": 50, "cooling_days": 1})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.do(t, http.MethodGet, base+"/ranges", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, decode[dto.RangeListResponse](t, rec).Count)
	})

	t.Run("blacklist", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/blacklist", map[string]any{"category_name": "Видеоигры"})
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = ts.do(t, http.MethodGet, base+"/blacklist", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[dto.BlacklistResponse](t, rec).Count)
	})

	var purchaseID string
	t.Run("create purchase", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/purchases", map[string]any{"name": "Console", "price": 30000, "category": "Игры"})
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decode[dto.PurchaseResponse](t, rec)
		require.NotNil(t, resp.Purchase)
		purchaseID = resp.Purchase.ID
		assert.Equal(t, 14, resp.CoolingDays)
		assert.True(t, fixedNow.AddDate(0, 0, 14).Equal(resp.CoolingUntil))
		require.NotNil(t, resp.HighestMatch)
		assert.Equal(t, "Видеоигры", resp.HighestMatch.BlacklistedCategory)
	})

	t.Run("invalid purchase", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/purchases", map[string]any{"name": "Nothing", "price": -1, "category": "Игры"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, dto.ErrCodeValidation, decode[dto.APIError](t, rec).Code)
	})

	t.Run("preview does not save", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/purchases/preview", map[string]any{"price": 500, "category": "Еда"})
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.PurchaseResponse](t, rec)
		assert.Nil(t, resp.Purchase)
		assert.Equal(t, 2, resp.CoolingDays)

		rec = ts.do(t, http.MethodGet, base+"/purchases", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[dto.PurchaseListResponse](t, rec).Count)
	})

	t.Run("complete and history", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/purchases/"+purchaseID+"/complete", map[string]any{"action": "cancelled"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodPost, base+"/purchases/"+purchaseID+"/complete", map[string]any{"action": "purchased"})
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = ts.do(t, http.MethodGet, base+"/history", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		hist := decode[dto.HistoryResponse](t, rec)
		assert.Equal(t, 1, hist.Count)
		assert.Equal(t, 30000.0, hist.Summary.TotalSaved)

		rec = ts.do(t, http.MethodGet, base+"/history?action=bogus", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("stats", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, base+"/stats", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		st := decode[purchase.Stats](t, rec)
		assert.Equal(t, 1, st.Cancelled)
	})

	t.Run("notification settings", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, base+"/notifications", map[string]any{"frequency": "daily", "exclude_categories": []string{"Еда"}})
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[dto.NotificationSettingsResponse](t, rec)
		require.NotNil(t, got.NotificationSettings)
		assert.Equal(t, "daily", got.Frequency)
		assert.Equal(t, []string{"Еда"}, got.ExcludeCategories)
		assert.Equal(t, 1.0, got.MinIntervalDays)
		assert.Nil(t, got.NextAllowed)
		assert.False(t, got.RemindersBlocked)

		rec = ts.do(t, http.MethodPut, base+"/notifications", map[string]any{"frequency": "yearly"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("profile", func(t *testing.T) {
		rec := ts.do(t, http.MethodPut, base+"/profile", map[string]any{"monthly_salary": 100000, "consider_savings": true})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = ts.do(t, http.MethodGet, base+"/profile", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 100000.0, decode[storage.FinancialProfile](t, rec).MonthlySalary)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/users/ghost/profile", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode[dto.APIError](t, rec).Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, base+"/purchases", bytes.NewBufferString("{"))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		ts.server.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_CategorySynonyms(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/categories/synonyms", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[dto.SynonymsResponse](t, rec)
	require.NotEmpty(t, resp.Groups)
	assert.Contains(t, resp.Groups, "игры")
	assert.Contains(t, resp.Groups["игры"], "видеоигры")
}

func TestServer_PurchaseFinanceAndDelete(t *testing.T) {
	ts := newTestServer(t)
	userID := ts.login(t, "carol")
	base := "/api/users/" + userID

	t.Run("new user settings", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, base+"/notifications", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		got := decode[dto.NotificationSettingsResponse](t, rec)
		assert.Equal(t, "weekly", got.Frequency)
		assert.Equal(t, 7.0, got.MinIntervalDays)
		assert.Nil(t, got.NextAllowed)
		assert.False(t, got.RemindersBlocked)
	})

	t.Run("no finance without profile", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/purchases/preview", map[string]any{"price": 500, "category": "Еда"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, decode[dto.PurchaseResponse](t, rec).Finance)
	})

	rec := ts.do(t, http.MethodPut, base+"/profile", map[string]any{
		"monthly_salary":   50000,
		"monthly_savings":  30000,
		"consider_savings": true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var purchaseID string
	t.Run("create includes savings plan", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, base+"/purchases?lang=en", map[string]any{"name": "Camera", "price": 60000, "category": "Фото"})
		require.Equal(t, http.StatusCreated, rec.Code)

		resp := decode[dto.PurchaseResponse](t, rec)
		require.NotNil(t, resp.Purchase)
		purchaseID = resp.Purchase.ID
		assert.Equal(t, 1, resp.CoolingDays)

		require.NotNil(t, resp.Finance)
		assert.False(t, resp.Finance.CanAfford)
		assert.Equal(t, 60000.0, resp.Finance.Shortage)
		assert.Equal(t, 14, resp.Finance.ExtraDays)
		require.NotNil(t, resp.Finance.SavingsPlan)
		assert.Equal(t, 61, resp.Finance.SavingsPlan.DaysNeeded)
		require.NotEmpty(t, resp.Finance.Warnings)
		assert.Equal(t, string(budget.WarningExceedsSalary), resp.Finance.Warnings[0].Code)
		assert.Equal(t, budget.WarningExceedsSalary.Text("en"), resp.Finance.Warnings[0].Message)
	})

	t.Run("delete purchase", func(t *testing.T) {
		rec := ts.do(t, http.MethodDelete, base+"/purchases/"+purchaseID, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = ts.do(t, http.MethodGet, base+"/purchases", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, decode[dto.PurchaseListResponse](t, rec).Count)

		rec = ts.do(t, http.MethodDelete, base+"/purchases/"+purchaseID, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decode[dto.APIError](t, rec).Code)
	})
}

func TestServer_Sweep(t *testing.T) {
	ts := newTestServer(t)
	userID := ts.login(t, "bob")
	ctx := context.Background()

	require.NoError(t, ts.repo.CreatePurchase(ctx, &storage.Purchase{
		UserID:       userID,
		Name:         "Bike",
		Price:        25000,
		Category:     "Транспорт",
		CoolingUntil: fixedNow.Add(-time.Hour),
		CreatedAt:    fixedNow.AddDate(0, 0, -7),
	}))

	t.Run("sends due notifications", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/notifications/sweep", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[dto.SweepResponse](t, rec)
		assert.True(t, resp.Success)
		assert.Equal(t, 1, resp.NotificationsSent)
		require.Len(t, resp.Notifications, 1)
		assert.Equal(t, "bob", resp.Notifications[0].Username)
		assert.Equal(t, "Bike", resp.Notifications[0].PurchaseName)
	})

	t.Run("second sweep sends nothing", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/notifications/sweep", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, decode[dto.SweepResponse](t, rec).NotificationsSent)
	})

	t.Run("conflict while another sweep runs", func(t *testing.T) {
		release, ok, err := ts.locker.TryAcquire(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		defer release()

		rec := ts.do(t, http.MethodPost, "/api/notifications/sweep", nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, dto.ErrCodeConflict, decode[dto.APIError](t, rec).Code)
	})

	t.Run("lists runs", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/sweeps?limit=1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[dto.SweepRunListResponse](t, rec)
		require.Equal(t, 1, resp.Count)

		rec = ts.do(t, http.MethodGet, "/api/sweeps/1", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[storage.SweepRun](t, rec).NotificationsSent)

		rec = ts.do(t, http.MethodGet, "/api/sweeps/abc", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = ts.do(t, http.MethodGet, "/api/sweeps/99", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_RateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := api.DefaultConfig()
	cfg.RateLimitRPS = 0.001
	cfg.RateLimitBurst = 1
	server := api.NewServer(cfg, api.Services{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/cooling/resolve", bytes.NewBufferString(`{"price": 10}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send())
	assert.Equal(t, http.StatusTooManyRequests, send())

	t.Run("health is not limited", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
