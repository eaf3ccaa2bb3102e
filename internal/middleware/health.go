package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// DatabaseHealthChecker pings the SQL pool behind a history store
type DatabaseHealthChecker struct {
	Driver string
	DB     *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("%s unreachable: %w", d.Driver, err)
	}
	return nil
}

// Counter is the slice of the history store the checker needs
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// HistoryHealthChecker reads the history size; works for every store driver
type HistoryHealthChecker struct {
	Store Counter
}

func (h *HistoryHealthChecker) Check(ctx context.Context) error {
	_, err := h.Store.Count(ctx)
	return err
}

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler creates a health check handler
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckStatus),
		}

		for name, checker := range checkers {
			if err := checker.Check(ctx); err != nil {
				health.Status = "unhealthy"
				health.Checks[name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
			} else {
				health.Checks[name] = CheckStatus{Status: "healthy"}
			}
		}

		statusCode := http.StatusOK
		if health.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}

// StoreInfo describes the history store reported by /health/ready
type StoreInfo struct {
	Driver string `json:"driver"`
	Cap    int    `json:"cap"`
}

// ReadinessHandler reports which store backs the scan history.
// Driver kosong berarti store in-memory.
func ReadinessHandler(info StoreInfo) http.HandlerFunc {
	if info.Driver == "" {
		info.Driver = "memory"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(struct {
			Status string `json:"status"`
			StoreInfo
			Timestamp time.Time `json:"timestamp"`
		}{"ready", info, time.Now().UTC()})
	}
}

// LivenessHandler answers as long as the process serves HTTP
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("alive\n"))
}
