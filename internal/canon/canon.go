// Package canon defines the canonical data model that every stream is
// normalized into. These types are the contract between the normalization
// pipeline and the report layer — loaders produce them, reports consume them.
//
// Adding a new stream means declaring a StreamSchema; the record shape and
// the report layer never change.
package canon

import (
	"fmt"
	"time"
)

// --------------------------------------------------------------------------
// Target fields
// --------------------------------------------------------------------------

// Field identifies one column of the canonical record shape. The string
// value is the display label used in tabular output.
type Field string

const (
	FieldTimestamp Field = "Timestamp"
	FieldProvider  Field = "Service Provider"
	FieldService   Field = "Service"
	FieldPayment   Field = "Mode of Payment"
	FieldPrice     Field = "Price"
	FieldPayout    Field = "Payout"
	FieldStream    Field = "Stream"
)

// Columns is the canonical column order for tabular output.
var Columns = []Field{
	FieldTimestamp,
	FieldProvider,
	FieldService,
	FieldPayment,
	FieldPrice,
	FieldPayout,
	FieldStream,
}

// DataFields are the fields sourced from sheet columns. Stream is excluded:
// it is injected from stream configuration, never read from a cell.
var DataFields = []Field{
	FieldTimestamp,
	FieldProvider,
	FieldService,
	FieldPayment,
	FieldPrice,
	FieldPayout,
}

// --------------------------------------------------------------------------
// Records and tables
// --------------------------------------------------------------------------

// Record is one normalized row. Every record carries all seven columns;
// absent source data is nil (Timestamp, Price, Payout) or the empty string
// (text fields). Stream is always non-empty.
type Record struct {
	Timestamp       *time.Time `json:"timestamp"`
	ServiceProvider string     `json:"service_provider"`
	Service         string     `json:"service"`
	PaymentMode     string     `json:"payment_mode"`
	Price           *float64   `json:"price"`
	Payout          *float64   `json:"payout"`
	Stream          string     `json:"stream"`
}

// Table is an ordered sequence of records. Order is load order: stream-major
// across a merge, source row order within a stream.
type Table []Record

// Merge concatenates tables in input order. Rows keep their per-table order.
// A stream that failed to load passes an empty table and contributes nothing.
func Merge(tables ...Table) Table {
	total := 0
	for _, t := range tables {
		total += len(t)
	}
	out := make(Table, 0, total)
	for _, t := range tables {
		out = append(out, t...)
	}
	return out
}

// Display formats one field of the record for tabular output. Null values
// render as an empty string.
func (r Record) Display(f Field) string {
	switch f {
	case FieldTimestamp:
		if r.Timestamp == nil {
			return ""
		}
		return r.Timestamp.Format("2006-01-02 15:04:05")
	case FieldProvider:
		return r.ServiceProvider
	case FieldService:
		return r.Service
	case FieldPayment:
		return r.PaymentMode
	case FieldPrice:
		return displayMoney(r.Price)
	case FieldPayout:
		return displayMoney(r.Payout)
	case FieldStream:
		return r.Stream
	default:
		return ""
	}
}

func displayMoney(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}
