package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/coolingoff/internal/api/dto"
	"github.com/eshaffer321/coolingoff/internal/application/sweep"
)

// SweepHandler triggers and reports notification sweeps.
type SweepHandler struct {
	*Base
	sweeper *sweep.Sweeper
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(sweeper *sweep.Sweeper, logger *slog.Logger) *SweepHandler {
	return &SweepHandler{Base: NewBase(logger), sweeper: sweeper}
}

// Run handles POST /api/notifications/sweep.
func (h *SweepHandler) Run(c *gin.Context) {
	report, err := h.sweeper.Run(c.Request.Context())
	if errors.Is(err, sweep.ErrSweepInProgress) {
		h.WriteError(c, http.StatusConflict, dto.ConflictError(err.Error()))
		return
	}
	if err != nil {
		h.WriteServiceError(c, err, "sweep")
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.SweepResponse{
		Success:           true,
		RunID:             report.RunID,
		NotificationsSent: report.NotificationsSent,
		Notifications:     report.Notifications,
	})
}

// List handles GET /api/sweeps - returns recent sweep runs.
func (h *SweepHandler) List(c *gin.Context) {
	runs, err := h.sweeper.Runs(c.Request.Context(), ParseIntParam(c, "limit", 20))
	if err != nil {
		h.WriteServiceError(c, err, "sweep runs")
		return
	}

	h.WriteJSON(c, http.StatusOK, dto.SweepRunListResponse{Runs: runs, Count: len(runs)})
}

// Get handles GET /api/sweeps/:id - returns a single sweep run.
func (h *SweepHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid sweep run ID"))
		return
	}

	run, err := h.sweeper.GetRun(c.Request.Context(), id)
	if err != nil {
		h.WriteServiceError(c, err, "sweep run")
		return
	}

	h.WriteJSON(c, http.StatusOK, run)
}
