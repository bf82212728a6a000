package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dealscope/roi-service/internal/catalog"
	"github.com/dealscope/roi-service/internal/database"
	"github.com/dealscope/roi-service/internal/export"
	"github.com/dealscope/roi-service/internal/gtin"
	"github.com/dealscope/roi-service/internal/matching"
	"github.com/dealscope/roi-service/internal/roi"
	"github.com/dealscope/roi-service/internal/workers"
)

// ScanStarter starts and cancels background scans.
type ScanStarter interface {
	Start(ctx context.Context, req workers.ScanRequest) (*database.ScanRun, error)
	Cancel(runID string) error
}

// ScanReader reads persisted scan runs and results.
type ScanReader interface {
	GetRun(ctx context.Context, runID string) (*database.ScanRun, error)
	ListRuns(ctx context.Context, limit int) ([]database.ScanRun, error)
	ListResults(ctx context.Context, runID string) ([]database.ScanResult, error)
}

// SingleMatcher matches one wholesale product against Amazon.
type SingleMatcher interface {
	MatchOne(ctx context.Context, product catalog.WholesaleProduct) matching.MatchedProduct
}

// ScansHandler handles scan lifecycle HTTP endpoints
type ScansHandler struct {
	manager ScanStarter
	store   ScanReader
	matcher SingleMatcher

	// baseCtx outlives individual requests so scans survive the
	// request that started them.
	baseCtx        context.Context
	marketplaceURL string
}

// NewScansHandler creates a scans handler
func NewScansHandler(baseCtx context.Context, manager ScanStarter, store ScanReader, matcher SingleMatcher, marketplaceURL string) *ScansHandler {
	return &ScansHandler{
		manager:        manager,
		store:          store,
		matcher:        matcher,
		baseCtx:        baseCtx,
		marketplaceURL: marketplaceURL,
	}
}

// StartScan launches a background catalog scan
// POST /api/v1/scans
func (h *ScansHandler) StartScan(c *gin.Context) {
	var req workers.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	run, err := h.manager.Start(h.baseCtx, req)
	if errors.Is(err, workers.ErrTooManyScans) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many concurrent scans"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to start scan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start scan: " + err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, run)
}

// ListScans returns recent scan runs
// GET /api/v1/scans
func (h *ScansHandler) ListScans(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, err := h.store.ListRuns(c.Request.Context(), limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list scans")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scans"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scans": runs, "count": len(runs)})
}

// GetScan returns one scan run by id
// GET /api/v1/scans/:id
func (h *ScansHandler) GetScan(c *gin.Context) {
	run, err := h.store.GetRun(c.Request.Context(), c.Param("id"))
	if errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to get scan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get scan"})
		return
	}

	c.JSON(http.StatusOK, run)
}

// CancelScan stops a running scan
// DELETE /api/v1/scans/:id
func (h *ScansHandler) CancelScan(c *gin.Context) {
	err := h.manager.Cancel(c.Param("id"))
	if errors.Is(err, workers.ErrScanNotRunning) {
		c.JSON(http.StatusConflict, gin.H{"error": "Scan is not running"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel scan"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Scan cancellation requested"})
}

// ListScanResults returns all persisted results of a run
// GET /api/v1/scans/:id/results
func (h *ScansHandler) ListScanResults(c *gin.Context) {
	runID := c.Param("id")
	if _, err := h.store.GetRun(c.Request.Context(), runID); errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}

	results, err := h.store.ListResults(c.Request.Context(), runID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list scan results")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list scan results"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// ExportScan streams the results of a run as CSV or XLSX
// GET /api/v1/scans/:id/export?format=csv|xlsx
func (h *ScansHandler) ExportScan(c *gin.Context) {
	runID := c.Param("id")
	if _, err := h.store.GetRun(c.Request.Context(), runID); errors.Is(err, database.ErrRunNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Scan not found"})
		return
	}

	rows, err := h.store.ListResults(c.Request.Context(), runID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load scan results for export")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load scan results"})
		return
	}

	results := make([]matching.MatchedProduct, len(rows))
	for i, row := range rows {
		results[i] = h.fromStoredResult(row)
	}

	filename := fmt.Sprintf("%s-%s", runID, time.Now().Format("2006-01-02"))
	switch c.DefaultQuery("format", "csv") {
	case "xlsx":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteXLSX(c.Writer, results); err != nil {
			log.Error().Err(err).Msg("XLSX export failed")
		}
	case "csv":
		c.Header("Content-Disposition", `attachment; filename="`+filename+`.csv"`)
		c.Header("Content-Type", "text/csv")
		if err := export.WriteCSV(c.Writer, results); err != nil {
			log.Error().Err(err).Msg("CSV export failed")
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown export format"})
	}
}

// fromStoredResult rebuilds an export row from a persisted result. GTIN
// classification is recomputed; only the figures shown in exports are
// stored, not the full fee breakdown.
func (h *ScansHandler) fromStoredResult(row database.ScanResult) matching.MatchedProduct {
	result := matching.MatchedProduct{
		Product: catalog.WholesaleProduct{
			GTIN:           row.GTIN,
			Name:           row.ProductName,
			Brand:          row.Brand,
			Category:       row.Category,
			WholesalePrice: row.WholesalePrice,
		},
		AmazonPrice: row.AmazonPrice,
		Status:      matching.Status(row.MatchStatus),
		Confidence:  row.Confidence,
		GTIN:        gtin.Process(row.GTIN),
	}
	if row.ASIN != nil {
		result.ASIN = *row.ASIN
		result.AmazonURL = h.marketplaceURL + *row.ASIN
	}
	if row.SearchAttempts != "" {
		result.SearchAttempts = splitAttempts(row.SearchAttempts)
	}
	if row.Profit != nil && row.ROIPercent != nil {
		result.ROI = &roi.Result{Profit: *row.Profit, ROIPercent: *row.ROIPercent}
	}
	return result
}

func splitAttempts(attempts string) []string {
	return strings.Split(attempts, ",")
}

// MatchProductRequest represents a single product match request
type MatchProductRequest struct {
	GTIN           string  `json:"gtin" binding:"required"`
	Name           string  `json:"name"`
	Brand          string  `json:"brand"`
	Category       string  `json:"category"`
	WholesalePrice float64 `json:"wholesalePrice" binding:"omitempty,gte=0"`
}

// MatchProduct matches one wholesale product against Amazon
// POST /api/v1/match
func (h *ScansHandler) MatchProduct(c *gin.Context) {
	var req MatchProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	result := h.matcher.MatchOne(c.Request.Context(), catalog.WholesaleProduct{
		GTIN:           req.GTIN,
		Name:           req.Name,
		Brand:          req.Brand,
		Category:       req.Category,
		WholesalePrice: req.WholesalePrice,
	})

	c.JSON(http.StatusOK, result)
}

// RegisterScanRoutes registers scan routes with the Gin router
func RegisterScanRoutes(r *gin.RouterGroup, baseCtx context.Context, manager ScanStarter, store ScanReader, matcher SingleMatcher, marketplaceURL string) {
	handler := NewScansHandler(baseCtx, manager, store, matcher, marketplaceURL)

	r.POST("/scans", handler.StartScan)
	r.GET("/scans", handler.ListScans)
	r.GET("/scans/:id", handler.GetScan)
	r.DELETE("/scans/:id", handler.CancelScan)
	r.GET("/scans/:id/results", handler.ListScanResults)
	r.GET("/scans/:id/export", handler.ExportScan)
	r.POST("/match", handler.MatchProduct)
}
