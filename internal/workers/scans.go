// Package workers runs bulk catalog scans in the background. A scan
// downloads a wholesale catalog, matches every product against Amazon
// and persists the results row by row so progress survives restarts.
package workers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/dealscope/roi-service/internal/catalog"
	"github.com/dealscope/roi-service/internal/database"
	"github.com/dealscope/roi-service/internal/matching"
	"github.com/dealscope/roi-service/internal/qogita"
)

var (
	// ErrTooManyScans is returned when the concurrent scan limit is reached.
	ErrTooManyScans = errors.New("too many concurrent scans")
	// ErrScanNotRunning is returned when cancelling a scan that is not active.
	ErrScanNotRunning = errors.New("scan is not running")
)

// CatalogSource provides the wholesale catalog for a scan.
type CatalogSource interface {
	DownloadCatalog(ctx context.Context, filter qogita.CatalogFilter) ([]catalog.WholesaleProduct, error)
}

// ProductMatcher matches wholesale products against Amazon listings.
type ProductMatcher interface {
	MatchAll(ctx context.Context, products []catalog.WholesaleProduct, onProgress func(done, total int, result matching.MatchedProduct)) ([]matching.MatchedProduct, error)
}

// RunStore persists scan runs and results.
type RunStore interface {
	CreateRun(ctx context.Context, brand, category string, totalProducts int) (*database.ScanRun, error)
	SetTotal(ctx context.Context, runID string, total int) error
	UpdateProgress(ctx context.Context, runID string, processed, matched, profitable int) error
	FinishRun(ctx context.Context, runID string, status database.RunStatus, errMsg string) error
	SaveResult(ctx context.Context, runID string, result matching.MatchedProduct) error
}

// ScanRequest describes one catalog scan.
type ScanRequest struct {
	Brand             string `json:"brand,omitempty"`
	Category          string `json:"category,omitempty"`
	StockAvailability string `json:"stockAvailability,omitempty"`
	MaxProducts       int    `json:"maxProducts,omitempty"`
}

// ScanManager starts and tracks background scans. At most maxConcurrent
// scans run at once; extra requests are rejected, not queued.
type ScanManager struct {
	store   RunStore
	source  CatalogSource
	matcher ProductMatcher
	sem     *semaphore.Weighted
	logger  zerolog.Logger

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewScanManager creates a manager with the given concurrency limit.
func NewScanManager(store RunStore, source CatalogSource, matcher ProductMatcher, maxConcurrent int, logger zerolog.Logger) *ScanManager {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &ScanManager{
		store:   store,
		source:  source,
		matcher: matcher,
		sem:     semaphore.NewWeighted(int64(maxConcurrent)),
		logger:  logger.With().Str("component", "scan-manager").Logger(),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start creates a run and launches the scan in the background. The given
// context must outlive the HTTP request, typically the server root context.
func (m *ScanManager) Start(ctx context.Context, req ScanRequest) (*database.ScanRun, error) {
	if !m.sem.TryAcquire(1) {
		return nil, ErrTooManyScans
	}

	run, err := m.store.CreateRun(ctx, req.Brand, req.Category, 0)
	if err != nil {
		m.sem.Release(1)
		return nil, err
	}

	scanCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	m.cancels[run.ID] = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer m.sem.Release(1)
		defer func() {
			m.mu.Lock()
			delete(m.cancels, run.ID)
			m.mu.Unlock()
			cancel()
		}()
		m.runScan(scanCtx, run.ID, req)
	}()

	return run, nil
}

// Cancel stops a running scan. The scan finishes its current product and
// is then marked cancelled.
func (m *ScanManager) Cancel(runID string) error {
	m.mu.Lock()
	cancel, ok := m.cancels[runID]
	m.mu.Unlock()
	if !ok {
		return ErrScanNotRunning
	}
	cancel()
	return nil
}

// Shutdown cancels all scans and waits for them to finish or the context
// to expire.
func (m *ScanManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	for _, cancel := range m.cancels {
		cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *ScanManager) runScan(ctx context.Context, runID string, req ScanRequest) {
	logger := m.logger.With().Str("run_id", runID).Logger()
	logger.Info().
		Str("brand", req.Brand).
		Str("category", req.Category).
		Msg("Scan started")

	products, err := m.source.DownloadCatalog(ctx, qogita.CatalogFilter{
		Brand:             req.Brand,
		Category:          req.Category,
		StockAvailability: req.StockAvailability,
		MaxProducts:       req.MaxProducts,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Catalog download failed")
		m.finish(runID, database.RunFailed, err)
		return
	}
	if err := m.store.SetTotal(ctx, runID, len(products)); err != nil {
		logger.Error().Err(err).Msg("Failed to record catalog size")
		m.finish(runID, database.RunFailed, err)
		return
	}

	var matched, profitable int
	_, err = m.matcher.MatchAll(ctx, products, func(done, total int, result matching.MatchedProduct) {
		if result.Status == matching.StatusMatched || result.Status == matching.StatusMatchedByName {
			matched++
		}
		if result.ROI != nil && result.ROI.IsProfitable {
			profitable++
		}
		if err := m.store.SaveResult(ctx, runID, result); err != nil {
			logger.Error().Err(err).Str("gtin", result.Product.GTIN).Msg("Failed to save result")
		}
		if err := m.store.UpdateProgress(ctx, runID, done, matched, profitable); err != nil {
			logger.Error().Err(err).Msg("Failed to update progress")
		}
	})

	switch {
	case errors.Is(err, context.Canceled):
		logger.Info().Int("matched", matched).Msg("Scan cancelled")
		m.finish(runID, database.RunCancelled, nil)
	case err != nil:
		logger.Error().Err(err).Msg("Scan failed")
		m.finish(runID, database.RunFailed, err)
	default:
		logger.Info().
			Int("total", len(products)).
			Int("matched", matched).
			Int("profitable", profitable).
			Msg("Scan completed")
		m.finish(runID, database.RunCompleted, nil)
	}
}

// finish uses a fresh context so terminal status still lands after cancel.
func (m *ScanManager) finish(runID string, status database.RunStatus, cause error) {
	ctx, cancelTimeout := finishContext()
	defer cancelTimeout()

	errMsg := ""
	if cause != nil {
		errMsg = cause.Error()
	}
	if err := m.store.FinishRun(ctx, runID, status, errMsg); err != nil {
		m.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to finish run")
	}
}

func finishContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
