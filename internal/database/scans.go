package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dealscope/roi-service/internal/matching"
	"github.com/dealscope/roi-service/internal/pkg/cuid2"
)

// ErrRunNotFound indicates an unknown scan run id.
var ErrRunNotFound = errors.New("scan run not found")

// RunStatus is the lifecycle state of a catalog scan.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCancelled RunStatus = "cancelled"
)

// ScanRun is one bulk catalog scan.
type ScanRun struct {
	ID            string    `json:"id"`
	Status        RunStatus `json:"status"`
	Brand         string    `json:"brand,omitempty"`
	Category      string    `json:"category,omitempty"`
	TotalProducts int       `json:"totalProducts"`
	Processed     int       `json:"processed"`
	Matched       int       `json:"matched"`
	Profitable    int       `json:"profitable"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ScanResult is one persisted matched-product row.
type ScanResult struct {
	RunID          string   `json:"runId"`
	GTIN           string   `json:"gtin"`
	ProductName    string   `json:"productName"`
	Brand          string   `json:"brand,omitempty"`
	Category       string   `json:"category,omitempty"`
	WholesalePrice float64  `json:"wholesalePrice"`
	ASIN           *string  `json:"asin,omitempty"`
	AmazonPrice    *float64 `json:"amazonPrice,omitempty"`
	Profit         *float64 `json:"profit,omitempty"`
	ROIPercent     *float64 `json:"roiPercent,omitempty"`
	MatchStatus    string   `json:"matchStatus"`
	Confidence     int      `json:"confidence"`
	SearchAttempts string   `json:"searchAttempts,omitempty"`
}

// ScanStore persists scan runs and their results.
type ScanStore struct {
	db *pgxpool.Pool
}

// NewScanStore creates a store over the given pool.
func NewScanStore(db *pgxpool.Pool) *ScanStore {
	return &ScanStore{db: db}
}

// EnsureSchema creates the scan tables when missing.
func (s *ScanStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS scan_runs (
			id             text PRIMARY KEY,
			status         text NOT NULL,
			brand          text NOT NULL DEFAULT '',
			category       text NOT NULL DEFAULT '',
			total_products int NOT NULL DEFAULT 0,
			processed      int NOT NULL DEFAULT 0,
			matched        int NOT NULL DEFAULT 0,
			profitable     int NOT NULL DEFAULT 0,
			error          text NOT NULL DEFAULT '',
			created_at     timestamptz NOT NULL DEFAULT now(),
			updated_at     timestamptz NOT NULL DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS scan_results (
			id              bigserial PRIMARY KEY,
			run_id          text NOT NULL REFERENCES scan_runs(id) ON DELETE CASCADE,
			gtin            text NOT NULL,
			product_name    text NOT NULL DEFAULT '',
			brand           text NOT NULL DEFAULT '',
			category        text NOT NULL DEFAULT '',
			wholesale_price numeric(12,2) NOT NULL DEFAULT 0,
			asin            text,
			amazon_price    numeric(12,2),
			profit          numeric(12,2),
			roi_percent     numeric(10,2),
			match_status    text NOT NULL,
			confidence      int NOT NULL DEFAULT 0,
			search_attempts text NOT NULL DEFAULT '',
			created_at      timestamptz NOT NULL DEFAULT now()
		);

		CREATE INDEX IF NOT EXISTS idx_scan_results_run ON scan_results (run_id);
	`)
	if err != nil {
		return fmt.Errorf("ensure scan schema: %w", err)
	}
	return nil
}

// CreateRun inserts a pending run and returns it with a fresh id.
func (s *ScanStore) CreateRun(ctx context.Context, brand, category string, totalProducts int) (*ScanRun, error) {
	run := &ScanRun{
		ID:            cuid2.New("scan"),
		Status:        RunPending,
		Brand:         brand,
		Category:      category,
		TotalProducts: totalProducts,
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO scan_runs (id, status, brand, category, total_products)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, run.ID, run.Status, run.Brand, run.Category, run.TotalProducts).
		Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create scan run: %w", err)
	}
	return run, nil
}

// SetTotal records the catalog size once the download finished.
func (s *ScanStore) SetTotal(ctx context.Context, runID string, total int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scan_runs
		SET total_products = $2, updated_at = now()
		WHERE id = $1
	`, runID, total)
	if err != nil {
		return fmt.Errorf("set scan total: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// UpdateProgress records scan counters and flips the run to running.
func (s *ScanStore) UpdateProgress(ctx context.Context, runID string, processed, matched, profitable int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scan_runs
		SET status = $2, processed = $3, matched = $4, profitable = $5, updated_at = now()
		WHERE id = $1
	`, runID, RunRunning, processed, matched, profitable)
	if err != nil {
		return fmt.Errorf("update scan progress: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// FinishRun marks a run terminal with an optional error message.
func (s *ScanStore) FinishRun(ctx context.Context, runID string, status RunStatus, errMsg string) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE scan_runs
		SET status = $2, error = $3, updated_at = now()
		WHERE id = $1
	`, runID, status, errMsg)
	if err != nil {
		return fmt.Errorf("finish scan run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

// MarkInterrupted fails any run left pending or running by a previous
// process. Called once on boot; scans do not resume across restarts.
func (s *ScanStore) MarkInterrupted(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE scan_runs
		SET status = $1, error = 'interrupted by restart', updated_at = now()
		WHERE status IN ($2, $3)
	`, RunFailed, RunPending, RunRunning)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetRun fetches one run by id.
func (s *ScanStore) GetRun(ctx context.Context, runID string) (*ScanRun, error) {
	var run ScanRun
	err := s.db.QueryRow(ctx, `
		SELECT id, status, brand, category, total_products, processed, matched,
		       profitable, error, created_at, updated_at
		FROM scan_runs WHERE id = $1
	`, runID).Scan(
		&run.ID, &run.Status, &run.Brand, &run.Category, &run.TotalProducts,
		&run.Processed, &run.Matched, &run.Profitable, &run.Error,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *ScanStore) ListRuns(ctx context.Context, limit int) ([]ScanRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, `
		SELECT id, status, brand, category, total_products, processed, matched,
		       profitable, error, created_at, updated_at
		FROM scan_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var run ScanRun
		if err := rows.Scan(
			&run.ID, &run.Status, &run.Brand, &run.Category, &run.TotalProducts,
			&run.Processed, &run.Matched, &run.Profitable, &run.Error,
			&run.CreatedAt, &run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// SaveResult persists one matched product under a run.
func (s *ScanStore) SaveResult(ctx context.Context, runID string, result matching.MatchedProduct) error {
	row := toScanResult(runID, result)
	_, err := s.db.Exec(ctx, `
		INSERT INTO scan_results (run_id, gtin, product_name, brand, category,
			wholesale_price, asin, amazon_price, profit, roi_percent,
			match_status, confidence, search_attempts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, row.RunID, row.GTIN, row.ProductName, row.Brand, row.Category,
		row.WholesalePrice, row.ASIN, row.AmazonPrice, row.Profit, row.ROIPercent,
		row.MatchStatus, row.Confidence, row.SearchAttempts)
	if err != nil {
		return fmt.Errorf("save scan result: %w", err)
	}
	return nil
}

// ListResults returns all results of a run in insertion order.
func (s *ScanStore) ListResults(ctx context.Context, runID string) ([]ScanResult, error) {
	rows, err := s.db.Query(ctx, `
		SELECT run_id, gtin, product_name, brand, category, wholesale_price,
		       asin, amazon_price, profit, roi_percent, match_status,
		       confidence, search_attempts
		FROM scan_results
		WHERE run_id = $1
		ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list scan results: %w", err)
	}
	defer rows.Close()

	var results []ScanResult
	for rows.Next() {
		var row ScanResult
		if err := rows.Scan(
			&row.RunID, &row.GTIN, &row.ProductName, &row.Brand, &row.Category,
			&row.WholesalePrice, &row.ASIN, &row.AmazonPrice, &row.Profit,
			&row.ROIPercent, &row.MatchStatus, &row.Confidence, &row.SearchAttempts,
		); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		results = append(results, row)
	}
	return results, rows.Err()
}

func toScanResult(runID string, result matching.MatchedProduct) ScanResult {
	row := ScanResult{
		RunID:          runID,
		GTIN:           result.Product.GTIN,
		ProductName:    result.Product.Name,
		Brand:          result.Product.Brand,
		Category:       result.Product.Category,
		WholesalePrice: result.Product.WholesalePrice,
		AmazonPrice:    result.AmazonPrice,
		MatchStatus:    string(result.Status),
		Confidence:     result.Confidence,
		SearchAttempts: strings.Join(result.SearchAttempts, ","),
	}
	if result.ASIN != "" {
		row.ASIN = &result.ASIN
	}
	if result.ROI != nil {
		profit := result.ROI.Profit
		roiPct := result.ROI.ROIPercent
		row.Profit = &profit
		row.ROIPercent = &roiPct
	}
	return row
}
