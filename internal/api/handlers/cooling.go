package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/coolingoff/internal/api/dto"
	"github.com/eshaffer321/coolingoff/internal/domain/cooling"
)

// CoolingHandler resolves cooling periods for ad-hoc range lists.
type CoolingHandler struct {
	*Base
	now func() time.Time
}

// NewCoolingHandler creates a new cooling handler.
func NewCoolingHandler(logger *slog.Logger, now func() time.Time) *CoolingHandler {
	if now == nil {
		now = time.Now
	}
	return &CoolingHandler{Base: NewBase(logger), now: now}
}

// Resolve handles POST /api/cooling/resolve.
func (h *CoolingHandler) Resolve(c *gin.Context) {
	var req dto.ResolveRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.Price == nil || math.IsNaN(*req.Price) {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("price is required"))
		return
	}

	ranges := make([]cooling.Range, len(req.Ranges))
	for i, r := range req.Ranges {
		ranges[i] = cooling.Range{MinAmount: r.MinAmount, MaxAmount: r.MaxAmount, CoolingDays: r.CoolingDays}
	}

	decision := cooling.Decide(h.now(), *req.Price, ranges)
	h.WriteJSON(c, http.StatusOK, dto.ResolveResponse{
		CoolingDays:  decision.CoolingDays,
		CoolingUntil: decision.CoolingUntil,
	})
}
