package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/grocerymatch/backend/internal/domain"
	"github.com/grocerymatch/backend/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog *usecase.CatalogService
	logger  zerolog.Logger
}

// NewHandler creates a new HTTP handler. A nil catalog makes the engine endpoints answer 503.
func NewHandler(catalog *usecase.CatalogService, logger zerolog.Logger) *Handler {
	return &Handler{
		catalog: catalog,
		logger:  logger.With().Str("component", "http").Logger(),
	}
}

type similarRequest struct {
	Target     domain.Product   `json:"target"`
	Candidates []domain.Product `json:"candidates" binding:"required,max=2000"`
}

type scoreRequest struct {
	Product1 domain.Product `json:"product1"`
	Product2 domain.Product `json:"product2"`
}

type analyzeRequest struct {
	Product domain.Product `json:"product"`
}

// Batch endpoints cap the list length; duplicate detection is quadratic in it.
type batchRequest struct {
	Products []domain.Product `json:"products" binding:"required,max=2000"`
}

// convertRequest converts between two units when ToUnit is set, otherwise into the
// standard unit of the family found in Name or FromUnit.
type convertRequest struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	FromUnit string          `json:"fromUnit"`
	ToUnit   string          `json:"toUnit"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "grocerymatch-backend",
		"version": "1.0.0",
	})
}

// FindSimilar ranks candidate listings against a target product.
func (h *Handler) FindSimilar(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req similarRequest
	if !h.bind(c, &req) {
		return
	}

	matches, err := h.catalog.FindSimilar(c.Request.Context(), req.Target, req.Candidates)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"matches": matches,
		"count":   len(matches),
	})
}

// Score returns the composite similarity of two products and the reasons behind it.
func (h *Handler) Score(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req scoreRequest
	if !h.bind(c, &req) {
		return
	}

	score, reasons := h.catalog.Score(req.Product1, req.Product2)
	c.JSON(http.StatusOK, gin.H{
		"score":   score,
		"reasons": reasons,
	})
}

// Analyze returns the keyword analysis of one product.
func (h *Handler) Analyze(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req analyzeRequest
	if !h.bind(c, &req) {
		return
	}

	c.JSON(http.StatusOK, h.catalog.Analyze(req.Product))
}

// Standardize expresses each product's average price per standard unit.
func (h *Handler) Standardize(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req batchRequest
	if !h.bind(c, &req) {
		return
	}

	standardized := h.catalog.Standardize(req.Products)
	c.JSON(http.StatusOK, gin.H{
		"products": standardized,
		"count":    len(standardized),
	})
}

// DetectDuplicates groups listings that denote the same product.
func (h *Handler) DetectDuplicates(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req batchRequest
	if !h.bind(c, &req) {
		return
	}

	groups, err := h.catalog.DetectDuplicates(c.Request.Context(), req.Products)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"groups": groups,
		"count":  len(groups),
	})
}

// MergeDuplicates collapses every duplicate group to its best product.
func (h *Handler) MergeDuplicates(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req batchRequest
	if !h.bind(c, &req) {
		return
	}

	merged, err := h.catalog.MergeDuplicates(c.Request.Context(), req.Products)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": merged,
		"count":    len(merged),
		"removed":  len(req.Products) - len(merged),
	})
}

// DuplicateReport summarizes duplicates in a product list.
func (h *Handler) DuplicateReport(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req batchRequest
	if !h.bind(c, &req) {
		return
	}

	report, err := h.catalog.DuplicateReport(c.Request.Context(), req.Products)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// ConvertUnits converts a price between units of one family.
func (h *Handler) ConvertUnits(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req convertRequest
	if !h.bind(c, &req) {
		return
	}

	if req.ToUnit == "" {
		c.JSON(http.StatusOK, h.catalog.ConvertToStandardUnit(req.Name, req.Price, req.FromUnit))
		return
	}

	if req.FromUnit == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fromUnit is required when toUnit is set"})
		return
	}

	converted, ok := h.catalog.ConvertPrice(req.Price, req.FromUnit, req.ToUnit)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "units are not comparable: " + req.FromUnit + " -> " + req.ToUnit,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"originalPrice":  req.Price,
		"fromUnit":       req.FromUnit,
		"convertedPrice": converted,
		"toUnit":         req.ToUnit,
	})
}

func (h *Handler) ready(c *gin.Context) bool {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Matching service not configured"})
		return false
	}
	return true
}

func (h *Handler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Debug().Err(err).Str("path", c.FullPath()).Msg("rejected request body")
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return false
	}
	return true
}

// handleError maps domain errors to HTTP responses
func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrEmptyGroup):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request timed out"})
	case errors.Is(err, context.Canceled):
		// client went away; nothing useful to send
		c.Status(http.StatusRequestTimeout)
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
