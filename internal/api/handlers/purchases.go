package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/coolingoff/internal/api/dto"
	"github.com/eshaffer321/coolingoff/internal/application/purchase"
	"github.com/eshaffer321/coolingoff/internal/domain/budget"
)

// PurchasesHandler handles wishlist purchases and their history.
type PurchasesHandler struct {
	*Base
	purchases *purchase.Service
}

// NewPurchasesHandler creates a new purchases handler.
func NewPurchasesHandler(purchases *purchase.Service, logger *slog.Logger) *PurchasesHandler {
	return &PurchasesHandler{Base: NewBase(logger), purchases: purchases}
}

// List handles GET /api/users/:userID/purchases - returns pending and cooled purchases.
func (h *PurchasesHandler) List(c *gin.Context) {
	active, err := h.purchases.ListActive(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.WriteServiceError(c, err, "purchases")
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.PurchaseListResponse{Purchases: active, Count: len(active)})
}

// Create handles POST /api/users/:userID/purchases.
func (h *PurchasesHandler) Create(c *gin.Context) {
	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	out, err := h.purchases.Create(c.Request.Context(), c.Param("userID"), purchase.Draft{
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		URL:      req.URL,
	})
	if err != nil {
		h.WriteServiceError(c, err, "user")
		return
	}
	h.WriteJSON(c, http.StatusCreated, toPurchaseResponse(out, Lang(c)))
}

// Preview handles POST /api/users/:userID/purchases/preview.
func (h *PurchasesHandler) Preview(c *gin.Context) {
	var req dto.PreviewRequest
	if !h.BindJSON(c, &req) {
		return
	}

	out, err := h.purchases.Preview(c.Request.Context(), c.Param("userID"), req.Price, req.Category)
	if err != nil {
		h.WriteServiceError(c, err, "user")
		return
	}
	h.WriteJSON(c, http.StatusOK, toPurchaseResponse(out, Lang(c)))
}

// Complete handles POST /api/users/:userID/purchases/:id/complete.
func (h *PurchasesHandler) Complete(c *gin.Context) {
	var req dto.CompleteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.purchases.Complete(c.Request.Context(), c.Param("userID"), c.Param("id"), req.Action, req.Notes)
	if err != nil {
		h.WriteServiceError(c, err, "active purchase")
		return
	}
	h.WriteJSON(c, http.StatusOK, p)
}

// Delete handles DELETE /api/users/:userID/purchases/:id.
func (h *PurchasesHandler) Delete(c *gin.Context) {
	if err := h.purchases.Delete(c.Request.Context(), c.Param("userID"), c.Param("id")); err != nil {
		h.WriteServiceError(c, err, "purchase")
		return
	}
	c.Status(http.StatusNoContent)
}

// History handles GET /api/users/:userID/history?action=.
func (h *PurchasesHandler) History(c *gin.Context) {
	items, sum, err := h.purchases.History(c.Request.Context(), c.Param("userID"), c.Query("action"))
	if err != nil {
		h.WriteServiceError(c, err, "history")
		return
	}
	h.WriteJSON(c, http.StatusOK, dto.HistoryResponse{Items: items, Count: len(items), Summary: sum})
}

// Stats handles GET /api/users/:userID/stats.
func (h *PurchasesHandler) Stats(c *gin.Context) {
	st, err := h.purchases.Stats(c.Request.Context(), c.Param("userID"))
	if err != nil {
		h.WriteServiceError(c, err, "stats")
		return
	}
	h.WriteJSON(c, http.StatusOK, st)
}

func toPurchaseResponse(out *purchase.Outcome, lang string) dto.PurchaseResponse {
	warnings, best := toMatchResponses(out.Warnings, lang)
	return dto.PurchaseResponse{
		Purchase:     out.Purchase,
		CoolingDays:  out.Decision.CoolingDays,
		CoolingUntil: out.Decision.CoolingUntil,
		Warnings:     warnings,
		HighestMatch: best,
		Finance:      toFinanceResponse(out.Finance, lang),
	}
}

func toFinanceResponse(a *budget.Analysis, lang string) *dto.FinanceResponse {
	if a == nil {
		return nil
	}
	warnings := make([]dto.FinanceWarning, len(a.Warnings))
	for i, w := range a.Warnings {
		warnings[i] = dto.FinanceWarning{Code: string(w), Message: w.Text(lang)}
	}
	return &dto.FinanceResponse{
		CanAfford:    a.CanAfford,
		Shortage:     a.Shortage,
		BalanceAfter: a.BalanceAfter,
		SalaryRatio:  a.SalaryRatio,
		ExtraDays:    a.ExtraDays,
		SavingsPlan:  a.SavingsPlan,
		Warnings:     warnings,
	}
}
