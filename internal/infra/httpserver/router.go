package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appscans "github.com/bryanwahyu/medscan/internal/application/scans"
	domain "github.com/bryanwahyu/medscan/internal/domain/scans"
	"github.com/bryanwahyu/medscan/internal/middleware"
)

// multipart envelope allowance on top of the image ceiling
const formOverhead = 1 << 20

type Options struct {
	APIKeys     map[string]string
	CORSOrigins []string
	RateLimiter *middleware.RateLimiter
	// Checkers back /health and /readyz
	Checkers map[string]middleware.HealthChecker
	MaxBytes int64
}

type Router struct {
	scansSvc *appscans.Service
	maxBytes int64
}

func NewRouter(scansSvc *appscans.Service, opts Options) http.Handler {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = domain.MaxImageBytes
	}
	r := &Router{scansSvc: scansSvc, maxBytes: maxBytes}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		MaxAge:         300,
	}))

	mux.Get("/health", middleware.HealthHandler(opts.Checkers))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.HealthHandler(opts.Checkers))
	mux.Handle("/metrics", middleware.MetricsHandler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Use(middleware.APIKeyAuth(opts.APIKeys))
		if opts.RateLimiter != nil {
			rt.Use(middleware.RateLimitMiddleware(opts.RateLimiter))
		}
		rt.Post("/scans", r.wrap(r.handleUpload))
		rt.Get("/scans", r.wrap(r.handleList))
		rt.Get("/scans/{id}", r.wrap(r.handleGet))
		rt.Get("/scans/{id}/errors", r.wrap(r.handleErrors))
		rt.Get("/scans/{id}/completion", r.wrap(r.handleCompletion))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		var verr *domain.ValidationError
		switch {
		case errors.As(err, &verr):
			status := http.StatusBadRequest
			if verr.TooLarge {
				status = http.StatusRequestEntityTooLarge
			}
			writeJSON(w, status, map[string]string{"error": verr.Reason})
		case errors.Is(err, domain.ErrNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		case errors.Is(err, domain.ErrStorage):
			slog.Error("storage failure", "path", req.URL.Path, "error", err)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "Failed to store image"})
		default:
			slog.Error("request failed", "path", req.URL.Path, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
	}
}

// POST /v1/scans  (multipart, field "file")
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	owner := middleware.GetOwnerFromContext(req.Context())

	req.Body = http.MaxBytesReader(w, req.Body, r.maxBytes+formOverhead)
	file, header, err := req.FormFile("file")
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large") {
			return domain.TooLarge(r.maxBytes)
		}
		return &domain.ValidationError{Field: "file", Reason: "multipart field \"file\" is required"}
	}
	defer file.Close()

	// one byte past the ceiling is enough for the size check
	data, err := io.ReadAll(io.LimitReader(file, r.maxBytes+1))
	if err != nil {
		return &domain.ValidationError{Field: "file", Reason: "could not read upload"}
	}

	scan, err := r.scansSvc.Submit(req.Context(), appscans.SubmitCommand{
		OwnerID:     owner,
		FileName:    middleware.SanitizeString(header.Filename),
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusAccepted, AcceptedView{ID: string(scan.ID), Status: string(scan.Status), ImageURL: scan.ImageURL})
	return nil
}

// GET /v1/scans?limit=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	owner := middleware.GetOwnerFromContext(req.Context())
	limit := middleware.ParseLimit(req.URL.Query().Get("limit"))

	list, err := r.scansSvc.List(req.Context(), owner, limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, NewScanViews(list))
	return nil
}

// GET /v1/scans/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	owner, id, err := scanParams(req)
	if err != nil {
		return err
	}
	s, err := r.scansSvc.Get(req.Context(), owner, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, NewScanView(s))
	return nil
}

// GET /v1/scans/{id}/errors
func (r *Router) handleErrors(w http.ResponseWriter, req *http.Request) error {
	owner, id, err := scanParams(req)
	if err != nil {
		return err
	}
	list, err := r.scansSvc.Errors(req.Context(), owner, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, NewErrorViews(list))
	return nil
}

// GET /v1/scans/{id}/completion
func (r *Router) handleCompletion(w http.ResponseWriter, req *http.Request) error {
	owner, id, err := scanParams(req)
	if err != nil {
		return err
	}
	a, err := r.scansSvc.Completion(req.Context(), owner, id)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, NewCompletionView(a))
	return nil
}

func scanParams(req *http.Request) (string, domain.ScanID, error) {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateScanID(id); err != nil {
		// unknown ids and malformed ids look the same to the caller
		return "", "", domain.ErrNotFound
	}
	return middleware.GetOwnerFromContext(req.Context()), domain.ScanID(id), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
