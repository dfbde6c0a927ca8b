package scans

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bryanwahyu/medscan/internal/application"
	"github.com/bryanwahyu/medscan/internal/domain/ai"
	"github.com/bryanwahyu/medscan/internal/domain/analyst"
	"github.com/bryanwahyu/medscan/internal/domain/scanerrors"
	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
	"github.com/bryanwahyu/medscan/internal/observability"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// Analyzer is the inference side of the chain: one call, raw text back.
type Analyzer interface {
	Complete(ctx context.Context, img domain.Image) (string, error)
	Model() string
}

// Service implements use-cases untuk Scan
// Service is designed to be used concurrently and is thread-safe
type Service struct {
	Repo   domain.Repository
	Images domain.ImageStore
	AI     Analyzer
	Clock  application.Clock

	// Optional audit sinks; nil disables them.
	Analyses analyst.Repository
	Failures scanerrors.Repository

	// MaxBytes is the upload ceiling; 0 means domain.MaxImageBytes.
	MaxBytes int64

	inflight sync.WaitGroup
}

//
// ==== USE CASES ====
//

// Command untuk upload scan
type SubmitCommand struct {
	OwnerID     string
	FileName    string
	ContentType string
	Data        []byte
}

// Submit validates and stores the image, creates the processing row and
// hands the analysis off to a background goroutine. Only pre-flight errors
// (validation, storage, insert) are returned; the analysis outcome is read
// later from the row's status.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (*domain.Scan, error) {
	if cmd.OwnerID == "" {
		return nil, &domain.ValidationError{Field: "owner", Reason: "User not authenticated"}
	}
	img := domain.Image{FileName: cmd.FileName, ContentType: cmd.ContentType, Data: cmd.Data}
	if err := domain.ValidateImage(img, s.MaxBytes); err != nil {
		observability.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	// lock in the sniffed type so storage and the data URI agree
	img.ContentType = img.MediaType()

	now := s.now()
	key := domain.ObjectKey(cmd.OwnerID, now, cmd.FileName)
	if err := s.Images.Upload(ctx, key, img.Data, img.ContentType); err != nil {
		observability.UploadsTotal.WithLabelValues("storage_error").Inc()
		return nil, fmt.Errorf("%w: %w", domain.ErrStorage, err)
	}

	scan := &domain.Scan{
		ID:        domain.ScanID(uuid.New().String()),
		OwnerID:   cmd.OwnerID,
		ImageURL:  s.Images.PublicURL(key),
		ObjectKey: key,
		Status:    domain.StatusProcessing,
		CreatedAt: now,
	}
	if err := s.Repo.Insert(ctx, scan); err != nil {
		// the stored object is left orphaned
		observability.UploadsTotal.WithLabelValues("persistence_error").Inc()
		slog.Error("insert scan failed", "owner", cmd.OwnerID, "object_key", key, "error", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	observability.UploadsTotal.WithLabelValues("accepted").Inc()
	slog.Info("scan accepted", "scan_id", scan.ID, "owner", scan.OwnerID, "bytes", len(img.Data))

	// 🚀 Jalankan di background; the request context may end before inference does
	bg := *scan
	bgCtx := context.WithoutCancel(ctx)
	s.inflight.Add(1)
	observability.AnalysesInFlight.Inc()
	go func() {
		defer s.inflight.Done()
		defer observability.AnalysesInFlight.Dec()
		s.analyze(bgCtx, &bg, img)
	}()

	return scan, nil
}

// analyze runs encode → infer → parse → finalize for one scan. It never
// returns an error: every failure ends in a failed row.
func (s *Service) analyze(ctx context.Context, scan *domain.Scan, img domain.Image) {
	start := time.Now()
	raw, err := s.AI.Complete(ctx, img)
	observability.InferenceDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.fail(ctx, scan, scanerrors.PhaseInference, ai.Kind(err), err)
		return
	}
	s.saveCompletion(ctx, scan, raw)

	res := domain.ParseAnalysis(raw)
	if err := s.Repo.MarkCompleted(ctx, scan.ID, res); err != nil {
		// the completed write did not land, so the row is still in flight
		s.fail(ctx, scan, scanerrors.PhaseFinalize, "persistence", err)
		return
	}
	scan.Complete(res)
	observability.AnalysesTotal.WithLabelValues(string(domain.StatusCompleted), "").Inc()
	slog.Info("analysis completed",
		"scan_id", scan.ID,
		"owner", scan.OwnerID,
		"risk", res.RiskLevel,
		"confidence", res.ConfidenceScore,
		"duration", time.Since(start).String(),
	)
}

func (s *Service) fail(ctx context.Context, scan *domain.Scan, phase scanerrors.Phase, kind string, cause error) {
	slog.Warn("analysis failed", "scan_id", scan.ID, "owner", scan.OwnerID, "phase", phase, "kind", kind, "error", cause)
	observability.AnalysesTotal.WithLabelValues(string(domain.StatusFailed), kind).Inc()

	if s.Failures != nil {
		rec := &scanerrors.ScanError{
			OwnerID:   scan.OwnerID,
			ScanID:    string(scan.ID),
			Phase:     phase,
			Kind:      kind,
			Message:   cause.Error(),
			CreatedAt: s.now(),
		}
		if err := s.Failures.Save(ctx, rec); err != nil {
			slog.Error("save scan error failed", "scan_id", scan.ID, "error", err)
		}
	}

	if err := s.Repo.MarkFailed(ctx, scan.ID); err != nil {
		slog.Error("mark scan failed failed", "scan_id", scan.ID, "error", err)
		return
	}
	scan.Fail()
}

func (s *Service) saveCompletion(ctx context.Context, scan *domain.Scan, raw string) {
	if s.Analyses == nil {
		return
	}
	a := &analyst.Analysis{
		ID:        analyst.AnalysisID(uuid.New().String()),
		OwnerID:   scan.OwnerID,
		ScanID:    string(scan.ID),
		Model:     s.AI.Model(),
		Raw:       raw,
		CreatedAt: s.now(),
	}
	if err := s.Analyses.Save(ctx, a); err != nil {
		slog.Error("save completion failed", "scan_id", scan.ID, "error", err)
	}
}

// Wait blocks until every dispatched analysis has been finalized.
func (s *Service) Wait() { s.inflight.Wait() }

// Drain is Wait bounded by ctx, for graceful shutdown.
func (s *Service) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List ambil scan terbaru milik owner (newest first)
func (s *Service) List(ctx context.Context, owner string, limit int) ([]*domain.Scan, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.Repo.List(ctx, owner, limit)
}

// Get ambil 1 scan by id
func (s *Service) Get(ctx context.Context, owner string, id domain.ScanID) (*domain.Scan, error) {
	return s.Repo.Get(ctx, owner, id)
}

// Errors returns the failure log of a scan the owner can see.
func (s *Service) Errors(ctx context.Context, owner string, id domain.ScanID) ([]*scanerrors.ScanError, error) {
	if _, err := s.Repo.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	if s.Failures == nil {
		return []*scanerrors.ScanError{}, nil
	}
	return s.Failures.ListByScan(ctx, owner, string(id), 20)
}

// Completion returns the raw model output behind a scan, if any was kept.
func (s *Service) Completion(ctx context.Context, owner string, id domain.ScanID) (*analyst.Analysis, error) {
	if _, err := s.Repo.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	if s.Analyses == nil {
		return nil, domain.ErrNotFound
	}
	a, err := s.Analyses.LatestByScan(ctx, owner, string(id))
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now().UTC()
	}
	return s.Clock.Now()
}
