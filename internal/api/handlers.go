package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/customer-intelligence/internal/cache"
	"github.com/ignite/customer-intelligence/internal/dataset"
	"github.com/ignite/customer-intelligence/internal/pkg/httputil"
	"github.com/ignite/customer-intelligence/internal/repository/postgres"
)

// SnapshotReader serves the latest cached pipeline result.
type SnapshotReader interface {
	Latest(ctx context.Context) (*cache.Snapshot, error)
}

// RunLister reads the run ledger.
type RunLister interface {
	List(ctx context.Context, limit int) ([]postgres.Run, error)
	Get(ctx context.Context, id string) (*postgres.Run, error)
}

// Handlers contains the HTTP handlers for the KPI API.
type Handlers struct {
	snapshots SnapshotReader
	runs      RunLister // nil when no run ledger is configured
	startTime time.Time
}

// NewHandlers creates handlers. runs may be nil.
func NewHandlers(snapshots SnapshotReader, runs RunLister) *Handlers {
	return &Handlers{
		snapshots: snapshots,
		runs:      runs,
		startTime: time.Now(),
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(h.startTime).String(),
	})
}

// GetLatestKpis returns the most recent run's full result.
func (h *Handlers) GetLatestKpis(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if errors.Is(err, cache.ErrNoSnapshot) {
		httputil.NotFound(w, "no pipeline run has completed yet")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, snap)
}

// GetLatestTables returns the most recent run rendered as flat tables.
func (h *Handlers) GetLatestTables(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Latest(r.Context())
	if errors.Is(err, cache.ErrNoSnapshot) {
		httputil.NotFound(w, "no pipeline run has completed yet")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{
		"run_id": snap.RunID,
		"tables": dataset.Tables(snap.Result),
	})
}

// ListRuns returns the most recent ledger entries.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httputil.NotFound(w, "run ledger not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httputil.BadRequest(w, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.runs.List(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if runs == nil {
		runs = []postgres.Run{}
	}
	httputil.OK(w, map[string]interface{}{"runs": runs})
}

// GetRun returns one ledger entry.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		httputil.NotFound(w, "run ledger not configured")
		return
	}

	id := chi.URLParam(r, "id")
	run, err := h.runs.Get(r.Context(), id)
	if errors.Is(err, postgres.ErrRunNotFound) {
		httputil.NotFound(w, "run not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, run)
}
