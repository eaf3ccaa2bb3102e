package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	appscans "github.com/bryanwahyu/simtrack/internal/application/scans"
	domain "github.com/bryanwahyu/simtrack/internal/domain/scans"
	"github.com/bryanwahyu/simtrack/internal/logger"
	"github.com/bryanwahyu/simtrack/internal/middleware"
)

type Router struct {
	scansSvc *appscans.Service
}

// Options configures the middleware stack around the scan routes.
type Options struct {
	CORSOrigins []string
	APIKeys     map[string]string // kosong = tanpa auth
	RateLimit   struct {
		Capacity   int
		RefillRate int
	}
	Driver      string // storage driver, reported by /health/ready
	Cap         int
	Checkers    map[string]middleware.HealthChecker
	SlowRequest time.Duration
	Stop        <-chan struct{}
}

func NewRouter(scansSvc *appscans.Service, opts Options) http.Handler {
	r := &Router{scansSvc: scansSvc}
	mux := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux.Use(chimw.RequestID)
	mux.Use(middleware.RequestLogger)
	mux.Use(chimw.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-Id"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware(opts.SlowRequest))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	mux.Use(middleware.RateLimitMiddleware(opts.RateLimit.Capacity, opts.RateLimit.RefillRate, opts.Stop))

	checkers := opts.Checkers
	if checkers == nil {
		checkers = map[string]middleware.HealthChecker{
			"history": &middleware.HistoryHealthChecker{Store: scansSvc},
		}
	}
	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/health/ready", middleware.ReadinessHandler(middleware.StoreInfo{Driver: opts.Driver, Cap: opts.Cap}))
	mux.Get("/health/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/scans", func(rt chi.Router) {
		rt.Post("/", r.wrap(r.handleRecord))
		rt.Get("/", r.wrap(r.handleList))
		rt.Delete("/", r.wrap(r.handleDelete))
		rt.Get("/export.csv", r.wrap(r.handleExportCSV))
		rt.Post("/export", r.wrap(r.handleArchive))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// trackingWriter remembers whether the handler already started its response
type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		err := h(tw, req)
		if err == nil {
			return
		}
		if tw.wrote {
			// status sudah terkirim, cukup dicatat
			logger.C(req.Context()).Warn().Err(err).Str("path", req.URL.Path).Msg("writing response failed")
			return
		}

		var be *BindError
		switch {
		case errors.As(err, &be), errors.Is(err, domain.ErrEmptyCode):
			writeJSON(w, http.StatusBadRequest, failure(err))
		case domain.IsValidation(err):
			middleware.IncrementRejected()
			writeJSON(w, http.StatusBadRequest, failure(err))
		case errors.Is(err, domain.ErrStorageDisabled):
			writeJSON(w, http.StatusServiceUnavailable, failure(err))
		default:
			logger.C(req.Context()).Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
			writeJSON(w, http.StatusInternalServerError, failure(err))
		}
	}
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

func failure(err error) response { return response{Success: false, Message: err.Error()} }

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// POST /scans
// Body: {"code": "<decoded text>"}
type recordRequest struct {
	Code string `json:"code" validate:"required,max=256"`
}

func (r *Router) handleRecord(w http.ResponseWriter, req *http.Request) error {
	body, err := decodeJSON[recordRequest](req)
	if err != nil {
		return err
	}
	if _, err := r.scansSvc.Record(req.Context(), appscans.RecordCommand{Code: body.Code}); err != nil {
		return err
	}
	middleware.IncrementScans()
	return writeJSON(w, http.StatusOK, response{Success: true})
}

// GET /scans
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	entries, err := r.scansSvc.Entries(req.Context())
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, entries)
}

// DELETE /scans
// Body: {"codes": [...]} hapus yang dipilih, selain itu hapus semua
func (r *Router) handleDelete(w http.ResponseWriter, req *http.Request) error {
	res, err := r.scansSvc.Delete(req.Context(), appscans.DeleteCommand{Codes: deleteCodes(req)})
	if err != nil {
		return err
	}
	if res.All {
		middleware.IncrementClears()
	} else {
		middleware.AddDeleted(res.Removed)
	}
	return writeJSON(w, http.StatusOK, response{Success: true, Message: res.Message})
}

// GET /scans/export.csv
func (r *Router) handleExportCSV(w http.ResponseWriter, req *http.Request) error {
	var buf bytes.Buffer
	name, err := r.scansSvc.ExportCSV(req.Context(), &buf)
	if err != nil {
		return err
	}
	middleware.IncrementExports()
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	_, err = buf.WriteTo(w)
	return err
}

// POST /scans/export
func (r *Router) handleArchive(w http.ResponseWriter, req *http.Request) error {
	url, err := r.scansSvc.ArchiveCSV(req.Context())
	if err != nil {
		return err
	}
	middleware.IncrementExports()
	return writeJSON(w, http.StatusOK, response{Success: true, URL: url})
}
