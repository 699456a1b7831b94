package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/coolingoff/internal/api/dto"
	"github.com/eshaffer321/coolingoff/internal/application/profile"
	"github.com/eshaffer321/coolingoff/internal/domain/notify"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

// UsersHandler handles accounts, financial profiles, ranges, blacklist and
// notification settings.
type UsersHandler struct {
	*Base
	profiles *profile.Service
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(profiles *profile.Service, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{Base: NewBase(logger), profiles: profiles}
}

// Login handles POST /api/login.
func (h *UsersHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, created, err := h.profiles.Login(c.Request.Context(), req.Username)
	if err != nil {
		h.WriteServiceError(c, err, "user")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.WriteJSON(c, status, dto.LoginResponse{User: user, Created: created})
}

// GetProfile handles GET /api/users/:userID/profile.
func (h *UsersHandler) GetProfile(c *gin.Context) {
	p, err := h.profiles.GetProfile(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.WriteServiceError(c, err, "profile")
		return
	}
	h.WriteJSON(c, http.StatusOK, p)
}

// UpdateProfile handles PUT /api/users/:userID/profile.
func (h *UsersHandler) UpdateProfile(c *gin.Context) {
	var req dto.ProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.profiles.UpdateProfile(c.Request.Context(), storage.FinancialProfile{
		UserID:          c.Param("userID"),
		MonthlySalary:   req.MonthlySalary,
		MonthlySavings:  req.MonthlySavings,
		CurrentBalance:  req.CurrentBalance,
		ConsiderSavings: req.ConsiderSavings,
	})
	if err != nil {
		h.WriteServiceError(c, err, "user")
		return
	}
	h.WriteJSON(c, http.StatusOK, p)
}

// ListRanges handles GET /api/users/:userID/ranges.
func (h *UsersHandler) ListRanges(c *gin.Context) {
	ranges, err := h.profiles.ListRanges(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.WriteServiceError(c, err, "ranges")
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.RangeListResponse{Ranges: ranges, Count: len(ranges)})
}

// AddRange handles POST /api/users/:userID/ranges.
func (h *UsersHandler) AddRange(c *gin.Context) {
	var req dto.RangeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	r, err := h.profiles.AddRange(c.Request.Context(), c.Param("userID"), req.MinAmount, req.MaxAmount, req.CoolingDays)
	if err != nil {
		h.WriteServiceError(c, err, "user")
		return
	}
	h.WriteJSON(c, http.StatusCreated, r)
}

// DeleteRange handles DELETE /api/users/:userID/ranges/:id.
func (h *UsersHandler) DeleteRange(c *gin.Context) {
	if err := h.profiles.DeleteRange(c.Request.Context(), c.Param("userID"), c.Param("id")); err != nil {
		h.WriteServiceError(c, err, "range")
		return
	}
	c.Status(http.StatusNoContent)
}

// ListBlacklist handles GET /api/users/:userID/blacklist.
func (h *UsersHandler) ListBlacklist(c *gin.Context) {
	entries, err := h.profiles.ListBlacklist(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.WriteServiceError(c, err, "blacklist")
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.BlacklistResponse{Categories: entries, Count: len(entries)})
}

// AddBlacklistEntry handles POST /api/users/:userID/blacklist.
func (h *UsersHandler) AddBlacklistEntry(c *gin.Context) {
	var req dto.BlacklistRequest
	if !h.BindJSON(c, &req) {
		return
	}

	e, err := h.profiles.AddBlacklistEntry(c.Request.Context(), c.Param("userID"), req.CategoryName)
	if err != nil {
		h.WriteServiceError(c, err, "user")
		return
	}
	h.WriteJSON(c, http.StatusCreated, e)
}

// DeleteBlacklistEntry handles DELETE /api/users/:userID/blacklist/:id.
func (h *UsersHandler) DeleteBlacklistEntry(c *gin.Context) {
	if err := h.profiles.DeleteBlacklistEntry(c.Request.Context(), c.Param("userID"), c.Param("id")); err != nil {
		h.WriteServiceError(c, err, "blacklist entry")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetNotifications handles GET /api/users/:userID/notifications.
func (h *UsersHandler) GetNotifications(c *gin.Context) {
	s, err := h.profiles.GetSettings(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.WriteServiceError(c, err, "notification settings")
		return
	}
	h.WriteJSON(c, http.StatusOK, toSettingsResponse(s))
}

// UpdateNotifications handles PUT /api/users/:userID/notifications.
func (h *UsersHandler) UpdateNotifications(c *gin.Context) {
	var req dto.NotificationSettingsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.profiles.UpdateSettings(c.Request.Context(), c.Param("userID"), profile.SettingsUpdate{
		Frequency:         req.Frequency,
		Channel:           req.Channel,
		Enabled:           req.Enabled,
		ExcludeCategories: req.ExcludeCategories,
	})
	if err != nil {
		h.WriteServiceError(c, err, "notification settings")
		return
	}
	h.WriteJSON(c, http.StatusOK, toSettingsResponse(s))
}

func toSettingsResponse(s *storage.NotificationSettings) dto.NotificationSettingsResponse {
	f := notify.Frequency(s.Frequency)
	resp := dto.NotificationSettingsResponse{NotificationSettings: s, MinIntervalDays: f.MinDays()}

	next, ok := notify.NextAllowed(s.LastNotificationSent, f)
	switch {
	case !ok:
		resp.RemindersBlocked = true
	case !next.IsZero():
		resp.NextAllowed = &next
	}
	return resp
}
