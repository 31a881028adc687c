// Package dataset wraps a built transit graph behind the loaded-flag and
// shared/exclusive lock model spec §5 requires of the request layer: the
// loader takes the exclusive lock to install a new immutable snapshot,
// every query handler takes the shared lock only long enough to read the
// current snapshot (it is released before the query runs), and a failed
// try-shared acquisition (loader in progress) must return without
// blocking rather than wait. This mirrors the Locker / data.loaded pairing
// the teacher's webservice entry point reads before dispatching a request.
package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/antigravity/transitcore/internal/calendar"
	"github.com/antigravity/transitcore/internal/graph"
	"github.com/antigravity/transitcore/internal/transit"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Snapshot is the immutable pair a query needs: the frozen graph and the
// dataset/calendar it was built from (for stop-area lookups and validity
// checks at query time).
type Snapshot struct {
	Graph *graph.Graph
	Data  *transit.Dataset
	Reg   *calendar.Registry
}

// Holder guards a *Snapshot behind a shared/exclusive lock and a
// loaded-flag. The zero value is a valid, not-yet-loaded Holder.
type Holder struct {
	mu     sync.RWMutex
	loaded bool
	snap   *Snapshot
}

// TryAcquireShared returns the current snapshot without blocking. ok is
// false if a reload is in progress (the exclusive lock is held) or no
// dataset has ever loaded successfully; callers must treat false as
// "respond with loading", never as an error.
func (h *Holder) TryAcquireShared() (snap *Snapshot, ok bool) {
	if !h.mu.TryRLock() {
		return nil, false
	}
	defer h.mu.RUnlock()
	if !h.loaded {
		return nil, false
	}
	return h.snap, true
}

// AcquireExclusive blocks until the exclusive lock is free, installs snap,
// and marks the holder loaded. Used by the loader on initial load and on
// every reload.
func (h *Holder) AcquireExclusive(snap *Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snap = snap
	h.loaded = true
}

// Loaded reports whether a dataset has ever been installed.
func (h *Holder) Loaded() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loaded
}

// AuditLog journals a build_graph invocation to Postgres each time Record
// is called (the transitcore commands do not call it): an audit trail of
// reloads, not a live dependency of the query path, so a nil
// *AuditLog (no DB configured) is valid and simply skips journaling.
type AuditLog struct {
	pool *pgxpool.Pool
}

// NewAuditLog wraps an already-connected pool. Schema creation is left to
// migrations; Record degrades to a no-op error on a missing table rather
// than panicking, since the audit trail is bookkeeping, not load-bearing.
func NewAuditLog(pool *pgxpool.Pool) *AuditLog {
	return &AuditLog{pool: pool}
}

// Record appends one row describing a completed build_graph call. It
// never blocks the reload itself on success/failure of the audit write.
func (a *AuditLog) Record(ctx context.Context, source string, vertices, edges int, duration time.Duration, loadErr error) {
	if a == nil || a.pool == nil {
		return
	}
	status := "ok"
	if loadErr != nil {
		status = loadErr.Error()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, _ = a.pool.Exec(ctx, `
		INSERT INTO reload_log (source, vertex_count, edge_count, duration_ms, status, loaded_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, source, vertices, edges, duration.Milliseconds(), status)
}
