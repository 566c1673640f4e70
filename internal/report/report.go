// Package report derives filtered, aggregated views from the canonical
// table. Everything here is pure over its inputs; each function returns a
// new table or rows, never mutating what it was given.
package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ellastudio/ella-data/internal/canon"
)

// --------------------------------------------------------------------------
// Predicates
// --------------------------------------------------------------------------

// Predicates select the records a report covers. Date bounds are inclusive
// and compared at day precision; while either bound is set, records with a
// null Timestamp are excluded. Each categorical predicate is a set of
// accepted values — empty means all, one value is the equality case.
type Predicates struct {
	From      *time.Time `json:"from,omitempty"`
	To        *time.Time `json:"to,omitempty"`
	Streams   []string   `json:"streams,omitempty"`
	Providers []string   `json:"providers,omitempty"`
	Payments  []string   `json:"payments,omitempty"`
}

// Filter returns the records matching every predicate, preserving order.
func Filter(table canon.Table, p Predicates) canon.Table {
	out := make(canon.Table, 0, len(table))
	for _, rec := range table {
		if !matchDate(rec.Timestamp, p.From, p.To) {
			continue
		}
		if !matchSet(rec.Stream, p.Streams) {
			continue
		}
		if !matchSet(rec.ServiceProvider, p.Providers) {
			continue
		}
		if !matchSet(rec.PaymentMode, p.Payments) {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func matchDate(ts, from, to *time.Time) bool {
	if from == nil && to == nil {
		return true
	}
	if ts == nil {
		return false
	}
	day := dateOnly(*ts)
	if from != nil && day.Before(dateOnly(*from)) {
		return false
	}
	if to != nil && day.After(dateOnly(*to)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func matchSet(val string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if val == s {
			return true
		}
	}
	return false
}

// --------------------------------------------------------------------------
// Grouping
// --------------------------------------------------------------------------

// Key names a grouping dimension.
type Key string

const (
	KeyStream   Key = "stream"
	KeyProvider Key = "provider"
	KeyPayment  Key = "payment"
)

// DefaultKeys is the stream × provider grouping the dashboard leads with.
var DefaultKeys = []Key{KeyStream, KeyProvider}

// ParseKeys parses a comma-separated group_by expression. Empty input means
// DefaultKeys; unknown or repeated keys are an error.
func ParseKeys(expr string) ([]Key, error) {
	if strings.TrimSpace(expr) == "" {
		return DefaultKeys, nil
	}
	parts := strings.Split(expr, ",")
	keys := make([]Key, 0, len(parts))
	seen := make(map[Key]bool, len(parts))
	for _, p := range parts {
		k := Key(strings.ToLower(strings.TrimSpace(p)))
		switch k {
		case KeyStream, KeyProvider, KeyPayment:
		default:
			return nil, fmt.Errorf("unknown group key %q", strings.TrimSpace(p))
		}
		if seen[k] {
			return nil, fmt.Errorf("repeated group key %q", k)
		}
		seen[k] = true
		keys = append(keys, k)
	}
	return keys, nil
}

// Group is one aggregate row. Only the grouped dimensions are populated.
// Sums are null-safe: a null Price or Payout adds zero while the row still
// counts toward Jobs.
type Group struct {
	Stream    string  `json:"stream,omitempty"`
	Provider  string  `json:"service_provider,omitempty"`
	Payment   string  `json:"payment_mode,omitempty"`
	Jobs      int     `json:"jobs"`
	SumPrice  float64 `json:"sum_price"`
	SumPayout float64 `json:"sum_payout"`
}

type groupKey struct {
	stream, provider, payment string
}

// Aggregate groups the table by the given key tuple. Rows whose value for
// any grouped dimension is null are dropped. Output is sorted by SumPrice
// descending, then Jobs descending, then key values ascending so equal
// groups order deterministically.
func Aggregate(table canon.Table, keys []Key) []Group {
	acc := make(map[groupKey]*Group)
	order := make([]groupKey, 0)

	for _, rec := range table {
		gk, ok := keyOf(rec, keys)
		if !ok {
			continue
		}
		g, exists := acc[gk]
		if !exists {
			g = &Group{Stream: gk.stream, Provider: gk.provider, Payment: gk.payment}
			acc[gk] = g
			order = append(order, gk)
		}
		g.Jobs++
		if rec.Price != nil {
			g.SumPrice += *rec.Price
		}
		if rec.Payout != nil {
			g.SumPayout += *rec.Payout
		}
	}

	out := make([]Group, 0, len(order))
	for _, gk := range order {
		out = append(out, *acc[gk])
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SumPrice != out[j].SumPrice {
			return out[i].SumPrice > out[j].SumPrice
		}
		if out[i].Jobs != out[j].Jobs {
			return out[i].Jobs > out[j].Jobs
		}
		if out[i].Stream != out[j].Stream {
			return out[i].Stream < out[j].Stream
		}
		if out[i].Provider != out[j].Provider {
			return out[i].Provider < out[j].Provider
		}
		return out[i].Payment < out[j].Payment
	})
	return out
}

// keyOf extracts the group key for a record; ok is false when any grouped
// dimension is null for this record.
func keyOf(rec canon.Record, keys []Key) (groupKey, bool) {
	var gk groupKey
	for _, k := range keys {
		var val string
		switch k {
		case KeyStream:
			val = rec.Stream
		case KeyProvider:
			val = rec.ServiceProvider
		case KeyPayment:
			val = rec.PaymentMode
		}
		if val == "" {
			return groupKey{}, false
		}
		switch k {
		case KeyStream:
			gk.stream = val
		case KeyProvider:
			gk.provider = val
		case KeyPayment:
			gk.payment = val
		}
	}
	return gk, true
}
