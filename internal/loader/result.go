// Package loader orchestrates stream loads: fetch a tab's raw grid from the
// row source, standardize it into canonical records, isolate failures at
// stream granularity, and memoize the result for a bounded staleness window.
package loader

import (
	"fmt"
	"time"
)

// StreamStatus describes the outcome of one stream load. A failed load
// carries its cause in Error and zero rows; it is shaped for the status
// endpoint and the CLI summary line.
type StreamStatus struct {
	Stream     string    `json:"stream"`
	Label      string    `json:"label"`
	Tab        string    `json:"tab"`
	Rows       int       `json:"rows"`
	Gaps       []string  `json:"gaps,omitempty"`
	Error      string    `json:"error,omitempty"`
	FromMemo   bool      `json:"from_memo"`
	FetchedAt  time.Time `json:"fetched_at"`
	DurationMS int64     `json:"duration_ms"`
}

// Failed reports whether the load produced no usable table.
func (s StreamStatus) Failed() bool {
	return s.Error != ""
}

// Summary returns a one-line summary for CLI output.
func (s StreamStatus) Summary() string {
	state := "fetched"
	if s.FromMemo {
		state = "memo"
	}
	if s.Failed() {
		return fmt.Sprintf("stream=%s tab=%q error=%q", s.Stream, s.Tab, s.Error)
	}
	return fmt.Sprintf("stream=%s tab=%q rows=%d gaps=%d source=%s duration=%dms",
		s.Stream, s.Tab, s.Rows, len(s.Gaps), state, s.DurationMS)
}

// StreamError is the per-stream failure signal handed to callers that load
// a single stream: the failing stream's identifiers and the cause. It never
// crosses stream boundaries.
type StreamError struct {
	Stream string
	Tab    string
	Err    error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream %s (tab %q): %v", e.Stream, e.Tab, e.Err)
}

func (e *StreamError) Unwrap() error {
	return e.Err
}
