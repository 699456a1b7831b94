package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/eshaffer321/coolingoff/internal/api/dto"
	"github.com/eshaffer321/coolingoff/internal/application/profile"
	"github.com/eshaffer321/coolingoff/internal/application/purchase"
	"github.com/eshaffer321/coolingoff/internal/domain/similarity"
	"github.com/eshaffer321/coolingoff/internal/infrastructure/storage"
)

// validationErrors are service errors caused by bad client input.
var validationErrors = []error{
	purchase.ErrInvalidDraft,
	purchase.ErrInvalidAction,
	profile.ErrInvalidUsername,
	profile.ErrInvalidRange,
	profile.ErrInvalidCategory,
	profile.ErrInvalidProfile,
	profile.ErrInvalidSettings,
}

// Base provides shared functionality for all handlers.
type Base struct {
	logger *slog.Logger
}

// NewBase creates a new base handler.
func NewBase(logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{logger: logger}
}

// WriteJSON writes a JSON response with the given status code.
func (b *Base) WriteJSON(c *gin.Context, status int, data any) {
	c.JSON(status, data)
}

// WriteError writes an error response with the given status code.
func (b *Base) WriteError(c *gin.Context, status int, err dto.APIError) {
	c.AbortWithStatusJSON(status, err)
}

// WriteServiceError maps a service or storage error onto an API error.
// resource names the thing that was looked up, for not found messages.
func (b *Base) WriteServiceError(c *gin.Context, err error, resource string) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			b.WriteError(c, http.StatusBadRequest, dto.ValidationError(err.Error()))
			return
		}
	}

	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, purchase.ErrNotCompletable):
		b.WriteError(c, http.StatusNotFound, dto.NotFoundError(resource))
	case errors.Is(err, storage.ErrConflict):
		b.WriteError(c, http.StatusConflict, dto.ConflictError(resource+" already exists"))
	default:
		b.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		b.WriteError(c, http.StatusInternalServerError, dto.InternalError())
	}
}

// BindJSON decodes the request body, writing a 400 on failure.
func (b *Base) BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		b.WriteError(c, http.StatusBadRequest, dto.BadRequestError("invalid JSON body: "+err.Error()))
		return false
	}
	return true
}

// ParseIntParam parses an integer query parameter with a default value.
func ParseIntParam(c *gin.Context, name string, defaultVal int) int {
	val := c.Query(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// Lang returns the requested reason language; Russian unless ?lang= says otherwise.
func Lang(c *gin.Context) string {
	if lang := c.Query("lang"); lang != "" {
		return lang
	}
	return "ru"
}

// toMatchResponse converts a similarity match for the given language.
func toMatchResponse(m similarity.Match, lang string) dto.MatchResponse {
	return dto.MatchResponse{
		BlacklistedCategory: m.BlacklistedCategory,
		SimilarityScore:     m.SimilarityScore,
		Reason:              m.Reason.Text(lang),
		ReasonCode:          string(m.Reason),
		Tier:                string(m.Tier),
	}
}

// toMatchResponses converts a result, returning the ranked list and the best match.
func toMatchResponses(r similarity.Result, lang string) ([]dto.MatchResponse, *dto.MatchResponse) {
	matches := make([]dto.MatchResponse, 0, len(r.Matches))
	for _, m := range r.Matches {
		matches = append(matches, toMatchResponse(m, lang))
	}
	if r.Best == nil {
		return matches, nil
	}
	best := toMatchResponse(*r.Best, lang)
	return matches, &best
}
