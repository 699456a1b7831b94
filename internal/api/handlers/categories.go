package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/coolingoff/internal/api/dto"
	"github.com/eshaffer321/coolingoff/internal/domain/similarity"
)

// CategoriesHandler scores categories against a blacklist.
type CategoriesHandler struct {
	*Base
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(logger *slog.Logger) *CategoriesHandler {
	return &CategoriesHandler{Base: NewBase(logger)}
}

// Match handles POST /api/categories/match.
func (h *CategoriesHandler) Match(c *gin.Context) {
	var req dto.MatchRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if req.ProductCategory == nil || *req.ProductCategory == "" || req.BlacklistedCategories == nil {
		h.WriteError(c, http.StatusBadRequest, dto.BadRequestError("productCategory and blacklistedCategories are required"))
		return
	}

	result := similarity.MatchAll(*req.ProductCategory, req.BlacklistedCategories)
	matches, best := toMatchResponses(result, Lang(c))

	h.WriteJSON(c, http.StatusOK, dto.CategoryMatchResponse{
		ProductCategory: *req.ProductCategory,
		Matches:         matches,
		HighestMatch:    best,
	})
}

// Synonyms handles GET /api/categories/synonyms - returns the synonym groups
// used by the matcher, keyed by canonical category.
func (h *CategoriesHandler) Synonyms(c *gin.Context) {
	h.WriteJSON(c, http.StatusOK, dto.SynonymsResponse{Groups: similarity.SynonymGroups()})
}
