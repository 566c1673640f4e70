package report

import (
	"sort"

	"github.com/montanaflynn/stats"

	"github.com/ellastudio/ella-data/internal/canon"
)

// Summary holds the headline metrics for a set of records. Ticket stats are
// computed over non-null prices only and omitted when no record has one.
type Summary struct {
	Rows            int      `json:"rows"`
	TotalSales      float64  `json:"total_sales"`
	TotalPayout     float64  `json:"total_payout"`
	UniqueProviders int      `json:"unique_providers"`
	MeanTicket      *float64 `json:"mean_ticket,omitempty"`
	MedianTicket    *float64 `json:"median_ticket,omitempty"`
}

// Summarize computes headline metrics: row count, null-safe sales and payout
// totals, distinct named providers, and ticket statistics.
func Summarize(table canon.Table) Summary {
	s := Summary{Rows: len(table)}

	prices := make([]float64, 0, len(table))
	payouts := make([]float64, 0, len(table))
	providers := make(map[string]bool)
	for _, rec := range table {
		if rec.Price != nil {
			prices = append(prices, *rec.Price)
		}
		if rec.Payout != nil {
			payouts = append(payouts, *rec.Payout)
		}
		if rec.ServiceProvider != "" {
			providers[rec.ServiceProvider] = true
		}
	}
	s.UniqueProviders = len(providers)

	if total, err := stats.Sum(prices); err == nil {
		s.TotalSales = total
	}
	if total, err := stats.Sum(payouts); err == nil {
		s.TotalPayout = total
	}
	if mean, err := stats.Mean(prices); err == nil {
		s.MeanTicket = &mean
	}
	if median, err := stats.Median(prices); err == nil {
		s.MedianTicket = &median
	}
	return s
}

// SortRecords returns a copy sorted by Timestamp descending with null
// timestamps last, the order the detailed-records view presents. Ties keep
// their canonical (stream-major) order.
func SortRecords(table canon.Table) canon.Table {
	out := make(canon.Table, len(table))
	copy(out, table)
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp, out[j].Timestamp
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
	return out
}
