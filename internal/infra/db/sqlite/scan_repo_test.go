package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bryanwahyu/medscan/internal/domain/analyst"
	"github.com/bryanwahyu/medscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertScan(t *testing.T, r *ScanRepository, id, owner string, at time.Time) {
	t.Helper()
	err := r.Insert(context.Background(), &domain.Scan{
		ID:        domain.ScanID(id),
		OwnerID:   owner,
		ImageURL:  "http://img/" + id,
		ObjectKey: owner + "/" + id,
		Status:    domain.StatusProcessing,
		CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("insert %s: %v", id, err)
	}
}

func TestScanRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewScanRepository(openTestDB(t))
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	insertScan(t, r, "s1", "u1", base)

	got, err := r.Get(ctx, "u1", "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusProcessing || got.AnalysisResult != nil || got.ConfidenceScore != nil {
		t.Fatalf("unexpected pending row %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, base)
	}

	res := domain.AnalysisResult{
		DetectedConditions: []string{"nodule"},
		ConfidenceScore:    90,
		RiskLevel:          domain.RiskHigh,
		Analysis:           "x",
		Recommendations:    []string{"biopsy"},
	}
	if err := r.MarkCompleted(ctx, "s1", res); err != nil {
		t.Fatalf("mark completed: %v", err)
	}

	got, _ = r.Get(ctx, "u1", "s1")
	if got.Status != domain.StatusCompleted {
		t.Fatalf("status = %s", got.Status)
	}
	if got.AnalysisResult == nil || got.AnalysisResult.RiskLevel != domain.RiskHigh || got.AnalysisResult.Recommendations[0] != "biopsy" {
		t.Errorf("unexpected result %+v", got.AnalysisResult)
	}
	if got.ConfidenceScore == nil || *got.ConfidenceScore != 90 {
		t.Errorf("confidence_score = %v", got.ConfidenceScore)
	}
	if len(got.DetectedConditions) != 1 || got.DetectedConditions[0] != "nodule" {
		t.Errorf("detected_conditions = %v", got.DetectedConditions)
	}

	// terminal rows never move again
	if err := r.MarkFailed(ctx, "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on terminal row, got %v", err)
	}
	if err := r.MarkCompleted(ctx, "s1", res); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound on second completion, got %v", err)
	}
}

func TestScanRepositoryMarkFailed(t *testing.T) {
	ctx := context.Background()
	r := NewScanRepository(openTestDB(t))
	insertScan(t, r, "s1", "u1", time.Now())

	if err := r.MarkFailed(ctx, "s1"); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	got, _ := r.Get(ctx, "u1", "s1")
	if got.Status != domain.StatusFailed || got.AnalysisResult != nil || got.DetectedConditions != nil {
		t.Errorf("unexpected failed row %+v", got)
	}
	if err := r.MarkCompleted(ctx, "s1", domain.FallbackResult("")); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("failed row must not complete, got %v", err)
	}
	if err := r.MarkFailed(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing row, got %v", err)
	}
}

func TestScanRepositoryListOrderingAndIsolation(t *testing.T) {
	ctx := context.Background()
	r := NewScanRepository(openTestDB(t))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	insertScan(t, r, "old", "u1", base)
	insertScan(t, r, "new", "u1", base.Add(time.Hour))
	insertScan(t, r, "same-a", "u1", base.Add(30*time.Minute))
	insertScan(t, r, "same-b", "u1", base.Add(30*time.Minute))
	insertScan(t, r, "other", "u2", base.Add(2*time.Hour))

	list, err := r.List(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []domain.ScanID{"new", "same-b", "same-a", "old"}
	if len(list) != len(want) {
		t.Fatalf("got %d rows, want %d", len(list), len(want))
	}
	for i, id := range want {
		if list[i].ID != id {
			t.Errorf("row %d = %s, want %s", i, list[i].ID, id)
		}
	}

	// no writes in between: same answer
	again, _ := r.List(ctx, "u1", 10)
	for i := range again {
		if again[i].ID != list[i].ID {
			t.Errorf("listing not stable at %d", i)
		}
	}

	limited, _ := r.List(ctx, "u1", 2)
	if len(limited) != 2 {
		t.Errorf("limit ignored: %d rows", len(limited))
	}

	all, _ := r.List(ctx, "", 10)
	if len(all) != 5 || all[0].ID != "other" {
		t.Errorf("unexpected unfiltered listing (%d rows)", len(all))
	}

	if _, err := r.Get(ctx, "u2", "new"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cross-owner get must be not found, got %v", err)
	}

	empty, err := r.List(ctx, "nobody", 10)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil list, got %v %v", empty, err)
	}
}

func TestAuditRepositories(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	an := NewAnalystRepository(db)
	se := NewScanErrorRepository(db)

	a, err := an.LatestByScan(ctx, "u1", "s1")
	if err != nil || a != nil {
		t.Fatalf("expected nil, nil; got %v %v", a, err)
	}

	now := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	_ = an.Save(ctx, &analyst.Analysis{ID: "a1", OwnerID: "u1", ScanID: "s1", Model: "m", Raw: "first", CreatedAt: now})
	_ = an.Save(ctx, &analyst.Analysis{ID: "a2", OwnerID: "u1", ScanID: "s1", Model: "m", Raw: "second", CreatedAt: now.Add(time.Second)})

	a, err = an.LatestByScan(ctx, "u1", "s1")
	if err != nil || a.Raw != "second" {
		t.Fatalf("latest = %+v, %v", a, err)
	}
	if a, _ := an.LatestByScan(ctx, "u2", "s1"); a != nil {
		t.Errorf("completion leaked across owners")
	}

	e := &scanerrors.ScanError{OwnerID: "u1", ScanID: "s1", Phase: scanerrors.PhaseInference, Kind: "rate_limited", Message: "slow", CreatedAt: now}
	if err := se.Save(ctx, e); err != nil {
		t.Fatalf("save error: %v", err)
	}
	if e.ID == 0 {
		t.Errorf("id not assigned")
	}
	list, err := se.ListByScan(ctx, "u1", "s1", 0)
	if err != nil || len(list) != 1 || list[0].Kind != "rate_limited" || list[0].Phase != scanerrors.PhaseInference {
		t.Fatalf("list errors = %+v, %v", list, err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "medscan.db")
	db, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.Close()

	// schema is idempotent
	db, err = Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	db.Close()
}
