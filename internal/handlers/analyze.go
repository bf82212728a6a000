package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealscope/roi-service/internal/fees"
	"github.com/dealscope/roi-service/internal/gtin"
	"github.com/dealscope/roi-service/internal/identifiers"
	"github.com/dealscope/roi-service/internal/roi"
)

// AnalyzeHandler exposes the fee and ROI calculators over HTTP.
type AnalyzeHandler struct {
	calc             *roi.Calculator
	targetROIPercent float64
}

// NewAnalyzeHandler creates an analyze handler
func NewAnalyzeHandler(calc *roi.Calculator, targetROIPercent float64) *AnalyzeHandler {
	return &AnalyzeHandler{calc: calc, targetROIPercent: targetROIPercent}
}

// AnalyzeRequest represents a single-listing profitability request
type AnalyzeRequest struct {
	CostPrice       float64          `json:"costPrice" binding:"required,gt=0"`
	SellingPrice    float64          `json:"sellingPrice" binding:"required,gt=0"`
	WeightKG        float64          `json:"weightKg" binding:"omitempty,gt=0"`
	Category        string           `json:"category"`
	Dimensions      *fees.Dimensions `json:"dimensions,omitempty"`
	AdditionalCosts float64          `json:"additionalCosts" binding:"omitempty,gte=0"`
	PeakSeason      bool             `json:"peakSeason"`
}

func (r AnalyzeRequest) toInput() roi.Input {
	return roi.Input{
		CostPrice:       r.CostPrice,
		SellingPrice:    r.SellingPrice,
		WeightKG:        r.WeightKG,
		Category:        r.Category,
		Dimensions:      r.Dimensions,
		AdditionalCosts: r.AdditionalCosts,
		PeakSeason:      r.PeakSeason,
	}
}

// Analyze computes the full ROI breakdown for one listing
// POST /api/v1/analyze
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result := h.calc.Compute(req.toInput())
	c.JSON(http.StatusOK, result)
}

// BreakEvenRequest represents a break-even price search request
type BreakEvenRequest struct {
	CostPrice        float64          `json:"costPrice" binding:"required,gt=0"`
	WeightKG         float64          `json:"weightKg" binding:"omitempty,gt=0"`
	Category         string           `json:"category"`
	Dimensions       *fees.Dimensions `json:"dimensions,omitempty"`
	AdditionalCosts  float64          `json:"additionalCosts" binding:"omitempty,gte=0"`
	TargetROIPercent *float64         `json:"targetRoiPercent" binding:"omitempty,gte=0,lte=1000"`
}

// BreakEven searches for the selling price that hits the target ROI
// POST /api/v1/analyze/breakeven
func (h *AnalyzeHandler) BreakEven(c *gin.Context) {
	var req BreakEvenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	target := h.targetROIPercent
	if req.TargetROIPercent != nil {
		target = *req.TargetROIPercent
	}

	result := h.calc.BreakEven(roi.Input{
		CostPrice:       req.CostPrice,
		WeightKG:        req.WeightKG,
		Category:        req.Category,
		Dimensions:      req.Dimensions,
		AdditionalCosts: req.AdditionalCosts,
	}, target)
	c.JSON(http.StatusOK, result)
}

// FeesRequest represents a fee-only breakdown request
type FeesRequest struct {
	SellingPrice float64          `json:"sellingPrice" binding:"required,gt=0"`
	WeightKG     float64          `json:"weightKg" binding:"omitempty,gt=0"`
	Category     string           `json:"category"`
	Dimensions   *fees.Dimensions `json:"dimensions,omitempty"`
	PeakSeason   bool             `json:"peakSeason"`
}

// Fees computes the Amazon fee breakdown without cost-side figures
// POST /api/v1/fees
func (h *AnalyzeHandler) Fees(c *gin.Context) {
	var req FeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	feeCalc := fees.NewCalculator(h.calc.Settings().Fees)
	breakdown := feeCalc.Compute(fees.Input{
		SellingPrice: req.SellingPrice,
		WeightKG:     req.WeightKG,
		Category:     req.Category,
		Dimensions:   req.Dimensions,
		PeakSeason:   req.PeakSeason,
	})
	c.JSON(http.StatusOK, breakdown)
}

// ClassifyIdentifier classifies a product code as GTIN, EAN, UPC or ASIN
// GET /api/v1/identifiers/:code
func ClassifyIdentifier(c *gin.Context) {
	code := c.Param("code")
	id := identifiers.Classify(code)
	result := gtin.Process(code)

	c.JSON(http.StatusOK, gin.H{
		"identifier": id,
		"gtin":       result,
	})
}

// RegisterAnalyzeRoutes registers analysis routes with the Gin router
func RegisterAnalyzeRoutes(r *gin.RouterGroup, calc *roi.Calculator, targetROIPercent float64) {
	handler := NewAnalyzeHandler(calc, targetROIPercent)

	r.POST("/analyze", handler.Analyze)
	r.POST("/analyze/breakeven", handler.BreakEven)
	r.POST("/fees", handler.Fees)
	r.GET("/identifiers/:code", ClassifyIdentifier)
}
