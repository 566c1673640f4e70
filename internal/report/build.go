package report

import (
	"github.com/ellastudio/ella-data/internal/canon"
)

// Options tune report assembly.
type Options struct {
	// Limit caps the detailed records included; 0 means no cap. Aggregates
	// and the summary always cover the full filtered set.
	Limit int
	// Commissions maps stream label → commission rate. When present, a
	// record with a null Payout and a non-null Price is presented with
	// Price × rate as its payout. Reporting convenience only; the canonical
	// table is never modified.
	Commissions map[string]float64
}

// Report is the presentation payload: headline metrics, aggregate rows, and
// the detailed records view.
type Report struct {
	Filters      Predicates  `json:"filters"`
	GroupBy      []Key       `json:"group_by"`
	Summary      Summary     `json:"summary"`
	Groups       []Group     `json:"groups"`
	Records      canon.Table `json:"records"`
	TotalRecords int         `json:"total_records"`
}

// Build assembles a report from a merged canonical table: apply the payout
// convenience if configured, filter, aggregate, summarize, and sort the
// detail view newest-first.
func Build(table canon.Table, p Predicates, keys []Key, opts Options) Report {
	if len(keys) == 0 {
		keys = DefaultKeys
	}
	working := table
	if len(opts.Commissions) > 0 {
		working = derivePayouts(table, opts.Commissions)
	}

	filtered := Filter(working, p)
	records := SortRecords(filtered)
	total := len(records)
	if opts.Limit > 0 && len(records) > opts.Limit {
		records = records[:opts.Limit]
	}

	return Report{
		Filters:      p,
		GroupBy:      keys,
		Summary:      Summarize(filtered),
		Groups:       Aggregate(filtered, keys),
		Records:      records,
		TotalRecords: total,
	}
}

func derivePayouts(table canon.Table, rates map[string]float64) canon.Table {
	out := make(canon.Table, len(table))
	copy(out, table)
	for i, rec := range out {
		rate := rates[rec.Stream]
		if rate <= 0 || rec.Payout != nil || rec.Price == nil {
			continue
		}
		derived := *rec.Price * rate
		out[i].Payout = &derived
	}
	return out
}
