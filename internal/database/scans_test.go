package database

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/dealscope/roi-service/internal/catalog"
	"github.com/dealscope/roi-service/internal/matching"
	"github.com/dealscope/roi-service/internal/roi"
)

// setupTestDB starts a throwaway PostgreSQL container for integration testing
func setupTestDB(ctx context.Context, t testing.TB) (*pgxpool.Pool, func(), error) {
	if testing.Short() {
		return nil, func() {}, fmt.Errorf("skipping integration test in short mode")
	}

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("start container: %w", err)
	}

	connString, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, fmt.Errorf("connection string: %w", err)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		container.Terminate(ctx)
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	cleanup := func() {
		pool.Close()
		container.Terminate(ctx)
	}

	return pool, cleanup, nil
}

func TestScanStoreLifecycle(t *testing.T) {
	ctx := context.Background()

	db, cleanup, err := setupTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	store := NewScanStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}
	// Schema creation is idempotent
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema second pass: %v", err)
	}

	run, err := store.CreateRun(ctx, "L'Oreal", "beauty", 120)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if !strings.HasPrefix(run.ID, "scan_") {
		t.Errorf("expected scan_ prefixed id, got %q", run.ID)
	}
	if run.Status != RunPending {
		t.Errorf("expected pending status, got %q", run.Status)
	}
	if run.CreatedAt.IsZero() {
		t.Error("expected created_at to be populated")
	}

	if err := store.UpdateProgress(ctx, run.ID, 40, 25, 10); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	fetched, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if fetched.Status != RunRunning {
		t.Errorf("expected running status, got %q", fetched.Status)
	}
	if fetched.Processed != 40 || fetched.Matched != 25 || fetched.Profitable != 10 {
		t.Errorf("unexpected counters: %+v", fetched)
	}

	// Persist one matched and one invalid result
	price := 12.89
	calc := roi.NewCalculator(roi.DefaultSettings())
	analysis := calc.Compute(roi.Input{CostPrice: 4.20, SellingPrice: price, WeightKG: 0.11, Category: "beauty"})

	matched := matching.MatchedProduct{
		Product: catalog.WholesaleProduct{
			GTIN:           "3600523951369",
			Name:           "Elvive Shampoo",
			Brand:          "L'Oreal",
			Category:       "beauty",
			WholesalePrice: 4.20,
		},
		ASIN:           "B0BQBXBW88",
		AmazonPrice:    &price,
		ROI:            &analysis,
		Status:         matching.StatusMatched,
		Confidence:     95,
		SearchAttempts: []string{"3600523951369"},
	}
	invalid := matching.MatchedProduct{
		Product: catalog.WholesaleProduct{GTIN: "bad-code", Name: "Mystery Item"},
		Status:  matching.StatusGTINInvalid,
	}

	if err := store.SaveResult(ctx, run.ID, matched); err != nil {
		t.Fatalf("save matched result: %v", err)
	}
	if err := store.SaveResult(ctx, run.ID, invalid); err != nil {
		t.Fatalf("save invalid result: %v", err)
	}

	results, err := store.ListResults(ctx, run.ID)
	if err != nil {
		t.Fatalf("list results: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	first := results[0]
	if first.GTIN != "3600523951369" || first.MatchStatus != "matched" {
		t.Errorf("unexpected first result: %+v", first)
	}
	if first.ASIN == nil || *first.ASIN != "B0BQBXBW88" {
		t.Errorf("expected asin to round-trip, got %v", first.ASIN)
	}
	if first.AmazonPrice == nil || *first.AmazonPrice != 12.89 {
		t.Errorf("expected amazon price 12.89, got %v", first.AmazonPrice)
	}
	if first.Profit == nil || first.ROIPercent == nil {
		t.Error("expected profit and roi to be stored for matched result")
	}
	second := results[1]
	if second.ASIN != nil || second.AmazonPrice != nil {
		t.Errorf("expected nulls for unmatched result, got %+v", second)
	}

	if err := store.FinishRun(ctx, run.ID, RunCompleted, ""); err != nil {
		t.Fatalf("finish run: %v", err)
	}
	done, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get finished run: %v", err)
	}
	if done.Status != RunCompleted {
		t.Errorf("expected completed status, got %q", done.Status)
	}

	runs, err := store.ListRuns(ctx, 10)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run, got %d", len(runs))
	}
}

func TestMarkInterrupted(t *testing.T) {
	ctx := context.Background()

	db, cleanup, err := setupTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	store := NewScanStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	pending, err := store.CreateRun(ctx, "", "", 10)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	finished, err := store.CreateRun(ctx, "", "", 10)
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if err := store.FinishRun(ctx, finished.ID, RunCompleted, ""); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	count, err := store.MarkInterrupted(ctx)
	if err != nil {
		t.Fatalf("mark interrupted: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 interrupted run, got %d", count)
	}

	failed, err := store.GetRun(ctx, pending.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if failed.Status != RunFailed || failed.Error == "" {
		t.Errorf("expected failed run with error, got %+v", failed)
	}

	untouched, err := store.GetRun(ctx, finished.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if untouched.Status != RunCompleted {
		t.Errorf("completed run should be untouched, got %q", untouched.Status)
	}
}

func TestScanStoreUnknownRun(t *testing.T) {
	ctx := context.Background()

	db, cleanup, err := setupTestDB(ctx, t)
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
		return
	}
	defer cleanup()

	store := NewScanStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	if _, err := store.GetRun(ctx, "scan_missing"); err != ErrRunNotFound {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.UpdateProgress(ctx, "scan_missing", 1, 1, 1); err != ErrRunNotFound {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
	if err := store.FinishRun(ctx, "scan_missing", RunFailed, "boom"); err != ErrRunNotFound {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}
