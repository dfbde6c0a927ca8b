package httpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/medscan/internal/application"
	appai "github.com/bryanwahyu/medscan/internal/application/ai"
	appscans "github.com/bryanwahyu/medscan/internal/application/scans"
	"github.com/bryanwahyu/medscan/internal/domain/ai"
	"github.com/bryanwahyu/medscan/internal/infra/db/sqlite"
	"github.com/bryanwahyu/medscan/internal/infra/storage"
	"github.com/bryanwahyu/medscan/internal/middleware"
)

const completion = `Findings: {"detectedConditions":["nodule"],"confidenceScore":90,"riskLevel":"high","analysis":"x","recommendations":["see a doctor"]} end`

type mockChatter struct {
	mu    sync.Mutex
	out   string
	err   error
	calls []ai.ImageRequest
}

func (m *mockChatter) Complete(_ context.Context, req ai.ImageRequest) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	return m.out, m.err
}

func (m *mockChatter) Model() string { return "mock" }

func (m *mockChatter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

type testServer struct {
	handler http.Handler
	svc     *appscans.Service
	images  *storage.MemoryStore
	chat    *mockChatter
}

func newTestServer(t *testing.T, chat *mockChatter, maxBytes int64) *testServer {
	t.Helper()
	db, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	images := storage.NewMemoryStore("http://img.test/medical-scans")
	svc := &appscans.Service{
		Repo:     sqlite.NewScanRepository(db),
		Images:   images,
		AI:       appai.NewService(chat, time.Second),
		Clock:    application.SystemClock{},
		Analyses: sqlite.NewAnalystRepository(db),
		Failures: sqlite.NewScanErrorRepository(db),
		MaxBytes: maxBytes,
	}
	h := NewRouter(svc, Options{
		APIKeys:  map[string]string{"alice": "key-a", "bob": "key-b"},
		Checkers: map[string]middleware.HealthChecker{"db": &middleware.DatabaseHealthChecker{DB: db}},
		MaxBytes: maxBytes,
	})
	return &testServer{handler: h, svc: svc, images: images, chat: chat}
}

func (ts *testServer) do(t *testing.T, req *http.Request, key string) *httptest.ResponseRecorder {
	t.Helper()
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, name, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="`+name+`"`)
	hdr.Set("Content-Type", contentType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(data)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/scans", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func fakeJPEG(size int) []byte {
	data := make([]byte, size)
	copy(data, []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return data
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return v
}

func TestUploadCompletesEndToEnd(t *testing.T) {
	chat := &mockChatter{out: completion}
	ts := newTestServer(t, chat, 0)
	img := fakeJPEG(2 << 20)

	rec := ts.do(t, uploadRequest(t, "chest.jpg", "image/jpeg", img), "key-a")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}
	accepted := decode[AcceptedView](t, rec)
	if accepted.Status != "processing" {
		t.Errorf("accepted status = %q", accepted.Status)
	}
	ts.svc.Wait()

	if ts.images.Len() != 1 {
		t.Errorf("expected exactly one stored object, got %d", ts.images.Len())
	}
	if chat.callCount() != 1 {
		t.Fatalf("expected one inference call, got %d", chat.callCount())
	}
	sent := chat.calls[0]
	if sent.MediaType != "image/jpeg" || sent.Base64 != base64.StdEncoding.EncodeToString(img) {
		t.Errorf("inference request did not carry the encoded image")
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans/"+accepted.ID, nil), "key-a")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	view := decode[ScanView](t, rec)
	if view.Status != "completed" || view.StatusIcon != "check-circle" {
		t.Errorf("unexpected status %q/%q", view.Status, view.StatusIcon)
	}
	if view.RiskLabel != "High Risk" || view.ConfidenceScore == nil || *view.ConfidenceScore != 90 {
		t.Errorf("unexpected view %+v", view)
	}
	if len(view.DetectedConditions) != 1 || view.DetectedConditions[0] != "nodule" {
		t.Errorf("detected conditions = %v", view.DetectedConditions)
	}
	if view.Disclaimer == "" {
		t.Errorf("completed scans carry the disclaimer")
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans/"+accepted.ID+"/completion", nil), "key-a")
	if rec.Code != http.StatusOK || decode[CompletionView](t, rec).Raw != completion {
		t.Errorf("completion endpoint: %d %s", rec.Code, rec.Body.String())
	}
}

func TestUploadRateLimitedInferenceMarksFailed(t *testing.T) {
	chat := &mockChatter{err: ai.NewInferenceError(http.StatusTooManyRequests, "slow down")}
	ts := newTestServer(t, chat, 0)

	rec := ts.do(t, uploadRequest(t, "a.png", "image/png", []byte("\x89PNG\r\n\x1a\nrest")), "key-a")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("upload status = %d", rec.Code)
	}
	id := decode[AcceptedView](t, rec).ID
	ts.svc.Wait()

	if chat.callCount() != 1 {
		t.Errorf("no retry expected, got %d calls", chat.callCount())
	}
	view := decode[ScanView](t, ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans/"+id, nil), "key-a"))
	if view.Status != "failed" || view.StatusMessage != "Analysis failed. Please try uploading again." || view.RiskLabel != "" {
		t.Errorf("unexpected failed view %+v", view)
	}

	errs := decode[[]ErrorView](t, ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans/"+id+"/errors", nil), "key-a"))
	if len(errs) != 1 || errs[0].Kind != "rate_limited" || errs[0].Message != "Rate limit exceeded. Please try again later." {
		t.Errorf("unexpected failure log %+v", errs)
	}

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans/"+id+"/completion", nil), "key-a")
	if rec.Code != http.StatusNotFound {
		t.Errorf("failed scan has no completion, got %d", rec.Code)
	}
}

func TestUploadValidation(t *testing.T) {
	chat := &mockChatter{out: "{}"}
	ts := newTestServer(t, chat, 1024)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"not an image", uploadRequest(t, "a.pdf", "application/pdf", []byte("%PDF-1.7")), http.StatusBadRequest},
		{"too large", uploadRequest(t, "a.jpg", "image/jpeg", fakeJPEG(4096)), http.StatusRequestEntityTooLarge},
		{"far too large", uploadRequest(t, "a.jpg", "image/jpeg", fakeJPEG(3<<20)), http.StatusRequestEntityTooLarge},
		{"missing field", httptest.NewRequest(http.MethodPost, "/v1/scans", nil), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.req, "key-a")
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	ts.svc.Wait()
	if ts.images.Len() != 0 || chat.callCount() != 0 {
		t.Errorf("rejected uploads must not store or infer")
	}
}

func TestListIsOwnerScopedAndStable(t *testing.T) {
	ts := newTestServer(t, &mockChatter{out: completion}, 0)
	png := []byte("\x89PNG\r\n\x1a\nrest")

	for i := 0; i < 3; i++ {
		if rec := ts.do(t, uploadRequest(t, "a.png", "image/png", png), "key-a"); rec.Code != http.StatusAccepted {
			t.Fatalf("upload %d: %d", i, rec.Code)
		}
	}
	if rec := ts.do(t, uploadRequest(t, "b.png", "image/png", png), "key-b"); rec.Code != http.StatusAccepted {
		t.Fatalf("upload bob: %d", rec.Code)
	}
	ts.svc.Wait()

	first := decode[[]ScanView](t, ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans", nil), "key-a"))
	second := decode[[]ScanView](t, ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans", nil), "key-a"))
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("alice should see 3 scans, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("listing changed between reads at %d", i)
		}
		if i > 0 && first[i].CreatedAt.After(first[i-1].CreatedAt) {
			t.Errorf("not newest first at %d", i)
		}
	}

	limited := decode[[]ScanView](t, ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans?limit=1", nil), "key-a"))
	if len(limited) != 1 {
		t.Errorf("limit ignored: %d", len(limited))
	}

	// bob cannot read alice's scan
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans/"+first[0].ID, nil), "key-b")
	if rec.Code != http.StatusNotFound {
		t.Errorf("cross-owner read = %d", rec.Code)
	}
}

func TestAuthAndProbes(t *testing.T) {
	ts := newTestServer(t, &mockChatter{out: "{}"}, 0)

	if rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans", nil), ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key = %d", rec.Code)
	}
	if rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/v1/scans/not-a-uuid", nil), "key-a"); rec.Code != http.StatusNotFound {
		t.Errorf("malformed id = %d", rec.Code)
	}
	for _, path := range []string{"/health", "/healthz", "/readyz", "/metrics"} {
		if rec := ts.do(t, httptest.NewRequest(http.MethodGet, path, nil), ""); rec.Code != http.StatusOK {
			t.Errorf("%s = %d", path, rec.Code)
		}
	}
}
