// Package notice collects one-time operational warnings raised during
// stream loads. Schema drift is chronic in the response tabs; surfacing each
// gap once per process keeps it visible without flooding logs or payloads on
// every request.
package notice

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Warning kinds.
const (
	KindSchemaGap = "schema_gap"
	KindLoadError = "load_error"
)

// Notice is one deduplicated warning, shaped for the status payload.
type Notice struct {
	Kind     string    `json:"kind"`
	Stream   string    `json:"stream"`
	Subject  string    `json:"subject"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raised_at"`
}

// Registry deduplicates notices by (kind, stream, subject). First raise
// logs at Warn and is kept, in raise order; repeats are dropped silently.
type Registry struct {
	mu      sync.Mutex
	seen    map[string]bool
	notices []Notice
	logger  *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		seen:   make(map[string]bool),
		logger: logger,
	}
}

// Raise records a notice if its (kind, stream, subject) key has not been
// seen before. Returns true when the notice was newly raised.
func (r *Registry) Raise(kind, stream, subject, message string) bool {
	key := kind + "|" + stream + "|" + subject
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[key] {
		return false
	}
	r.seen[key] = true
	r.notices = append(r.notices, Notice{
		Kind:     kind,
		Stream:   stream,
		Subject:  subject,
		Message:  message,
		RaisedAt: time.Now().UTC(),
	})
	r.logger.Warn("notice raised", "kind", kind, "stream", stream, "subject", subject, "message", message)
	return true
}

// SchemaGap raises a one-time warning that a target field has neither an
// alias match nor a live fallback in the given stream.
func (r *Registry) SchemaGap(stream, field string) bool {
	msg := fmt.Sprintf("field %q has no alias match or fallback position in stream %q; column will be null", field, stream)
	return r.Raise(KindSchemaGap, stream, field, msg)
}

// LoadError raises a one-time warning that a stream's source fetch failed.
func (r *Registry) LoadError(stream, cause string) bool {
	return r.Raise(KindLoadError, stream, "fetch", cause)
}

// List returns a copy of all notices in raise order.
func (r *Registry) List() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Notice, len(r.notices))
	copy(out, r.notices)
	return out
}

// ForStream returns the notices raised for one stream, in raise order.
func (r *Registry) ForStream(stream string) []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Notice
	for _, n := range r.notices {
		if n.Stream == stream {
			out = append(out, n)
		}
	}
	return out
}
