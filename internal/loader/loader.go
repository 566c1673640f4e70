package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ellastudio/ella-data/internal/canon"
	"github.com/ellastudio/ella-data/internal/normalize"
	"github.com/ellastudio/ella-data/internal/notice"
	"github.com/ellastudio/ella-data/internal/sheets"
)

// ErrUnknownStream is returned for a stream ID outside the configured set.
var ErrUnknownStream = errors.New("unknown stream")

type memoEntry struct {
	table     canon.Table
	status    StreamStatus
	plan      normalize.Plan
	expiresAt time.Time
}

// loaded is one load outcome, shared between concurrent callers.
type loaded struct {
	table  canon.Table
	status StreamStatus
	plan   normalize.Plan
	err    error
}

// Loader turns tabs into canonical tables. Loads are synchronous and
// sequential within a cycle; concurrent requests for the same stream are
// collapsed into one fetch, and successful results are memoized for the
// configured TTL. A refresh fully replaces the memoized table.
type Loader struct {
	source  sheets.RowSource
	streams []canon.StreamSchema
	notices *notice.Registry
	logger  *slog.Logger
	ttl     time.Duration

	mu     sync.Mutex
	memo   map[string]memoEntry
	flight singleflight.Group
}

// New creates a loader over the given row source and stream set. A zero or
// negative TTL disables memoization.
func New(source sheets.RowSource, streams []canon.StreamSchema, notices *notice.Registry, ttl time.Duration, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if notices == nil {
		notices = notice.NewRegistry(logger)
	}
	return &Loader{
		source:  source,
		streams: streams,
		notices: notices,
		logger:  logger,
		ttl:     ttl,
		memo:    make(map[string]memoEntry),
	}
}

// Streams returns the configured stream set in load order.
func (l *Loader) Streams() []canon.StreamSchema {
	out := make([]canon.StreamSchema, len(l.streams))
	copy(out, l.streams)
	return out
}

// Notices returns the registry collecting this loader's one-time warnings.
func (l *Loader) Notices() *notice.Registry {
	return l.notices
}

// LoadStream loads one stream by ID. On failure the returned table is empty,
// the status carries the cause, and the error is a *StreamError (or
// ErrUnknownStream); the caller decides whether that is fatal. Refresh
// bypasses and replaces the memo.
func (l *Loader) LoadStream(ctx context.Context, id string, refresh bool) (canon.Table, StreamStatus, error) {
	res, err := l.load(ctx, id, refresh)
	if err != nil {
		return canon.Table{}, res.status, err
	}
	return copyTable(res.table), res.status, nil
}

// Plan returns the column plan the stream's current load resolved, loading
// the stream if needed. Used by the mapping introspection surfaces.
func (l *Loader) Plan(ctx context.Context, id string, refresh bool) (normalize.Plan, StreamStatus, error) {
	res, err := l.load(ctx, id, refresh)
	if err != nil {
		return normalize.Plan{}, res.status, err
	}
	return res.plan, res.status, nil
}

// LoadAll loads every configured stream in order and merges the results
// stream-major. A failed stream contributes an empty table and a status
// carrying its cause; sibling streams are unaffected.
func (l *Loader) LoadAll(ctx context.Context, refresh bool) (canon.Table, []StreamStatus) {
	tables := make([]canon.Table, 0, len(l.streams))
	statuses := make([]StreamStatus, 0, len(l.streams))
	for _, s := range l.streams {
		table, status, err := l.LoadStream(ctx, s.ID, refresh)
		if err != nil {
			table = canon.Table{}
		}
		tables = append(tables, table)
		statuses = append(statuses, status)
	}
	return canon.Merge(tables...), statuses
}

func (l *Loader) load(ctx context.Context, id string, refresh bool) (loaded, error) {
	schema, ok := canon.FindStream(l.streams, id)
	if !ok {
		err := fmt.Errorf("%w: %q", ErrUnknownStream, id)
		return loaded{status: StreamStatus{Stream: id, Error: err.Error()}}, err
	}

	if refresh {
		l.dropMemo(id)
	} else if entry, ok := l.memoGet(id); ok {
		status := entry.status
		status.FromMemo = true
		return loaded{table: entry.table, status: status, plan: entry.plan}, nil
	}

	v, _, _ := l.flight.Do(id, func() (interface{}, error) {
		return l.fetchAndStandardize(ctx, schema), nil
	})
	res := v.(loaded)
	return res, res.err
}

// fetchAndStandardize performs one real load. Only successful loads are
// memoized, so a failed stream is retried on the next request.
func (l *Loader) fetchAndStandardize(ctx context.Context, schema canon.StreamSchema) loaded {
	start := time.Now()
	status := StreamStatus{
		Stream:    schema.ID,
		Label:     schema.Label,
		Tab:       schema.Tab,
		FetchedAt: start.UTC(),
	}

	grid, err := l.source.FetchRows(ctx, schema.Tab)
	if err != nil {
		status.Error = err.Error()
		status.DurationMS = time.Since(start).Milliseconds()
		l.notices.LoadError(schema.ID, err.Error())
		l.logger.Error("stream load failed", "stream", schema.ID, "tab", schema.Tab, "error", err)
		return loaded{
			table:  canon.Table{},
			status: status,
			err:    &StreamError{Stream: schema.ID, Tab: schema.Tab, Err: err},
		}
	}

	table, plan := normalize.Standardize(grid, schema)
	for _, gap := range plan.Gaps {
		status.Gaps = append(status.Gaps, string(gap))
		l.notices.SchemaGap(schema.ID, string(gap))
	}
	status.Rows = len(table)
	status.DurationMS = time.Since(start).Milliseconds()

	l.memoSet(schema.ID, memoEntry{
		table:     table,
		status:    status,
		plan:      plan,
		expiresAt: time.Now().Add(l.ttl),
	})

	l.logger.Info("stream loaded",
		"stream", schema.ID, "tab", schema.Tab,
		"rows", status.Rows, "gaps", len(status.Gaps),
		"duration_ms", status.DurationMS)

	return loaded{table: table, status: status, plan: plan}
}

func (l *Loader) memoGet(id string) (memoEntry, bool) {
	if l.ttl <= 0 {
		return memoEntry{}, false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.memo[id]
	if !ok || time.Now().After(entry.expiresAt) {
		return memoEntry{}, false
	}
	return entry, true
}

func (l *Loader) memoSet(id string, entry memoEntry) {
	if l.ttl <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.memo[id] = entry
}

func (l *Loader) dropMemo(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.memo, id)
}

// copyTable shields the memo from callers that sort or slice the result.
func copyTable(t canon.Table) canon.Table {
	out := make(canon.Table, len(t))
	copy(out, t)
	return out
}
