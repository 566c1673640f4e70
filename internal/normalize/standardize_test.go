package normalize

import (
	"reflect"
	"testing"
	"time"

	"github.com/ellastudio/ella-data/internal/canon"
)

func TestStandardize(t *testing.T) {
	schema := canon.StreamSchema{
		ID:    "tech",
		Label: "Tech",
		Tab:   "T",
		Aliases: []canon.Alias{
			{Source: "timestamp", Target: canon.FieldTimestamp},
			{Source: "technician", Target: canon.FieldProvider},
			{Source: "service", Target: canon.FieldService},
			{Source: "payment", Target: canon.FieldPayment},
			{Source: "price", Target: canon.FieldPrice},
			{Source: "payout", Target: canon.FieldPayout},
		},
	}

	grid := [][]string{
		{"Timestamp", "Technician", "Service", "Payment", "Price", "Payout"},
		{"13/01/2024 10:00:00", " Jane W. ", "Gel Manicure", "Cash", "KSh 1,500.00", "KSh 450"},
		{"", "", "", "", "", ""},
		{"nonsense date", "Amina", "Pedicure", "M-Pesa", "n/a", "300"},
		{"15/01/2024"},
	}

	got, plan := Standardize(grid, schema)
	if len(plan.Gaps) != 0 {
		t.Fatalf("unexpected gaps: %v", plan.Gaps)
	}

	want := canon.Table{
		{
			Timestamp:       tptr(time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC)),
			ServiceProvider: "Jane W.",
			Service:         "Gel Manicure",
			PaymentMode:     "Cash",
			Price:           f64(1500),
			Payout:          f64(450),
			Stream:          "Tech",
		},
		{
			Timestamp:       nil, // malformed cell nulls the cell, not the row
			ServiceProvider: "Amina",
			Service:         "Pedicure",
			PaymentMode:     "M-Pesa",
			Price:           nil,
			Payout:          f64(300),
			Stream:          "Tech",
		},
		{
			Timestamp:       tptr(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)),
			ServiceProvider: "",
			Service:         "",
			PaymentMode:     "",
			Price:           nil,
			Payout:          nil,
			Stream:          "Tech",
		},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d (blank row must be dropped)", len(got), len(want))
	}
	for i := range want {
		if !recordsEqual(got[i], want[i]) {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestStandardizeSchemaGapNullsColumn(t *testing.T) {
	schema := canon.StreamSchema{
		ID:    "s",
		Label: "S",
		Tab:   "T",
		Aliases: []canon.Alias{
			{Source: "timestamp", Target: canon.FieldTimestamp},
			{Source: "price", Target: canon.FieldPrice},
		},
	}
	grid := [][]string{
		{"Timestamp", "Price"},
		{"13/01/2024", "100"},
		{"14/01/2024", "200"},
	}

	got, plan := Standardize(grid, schema)
	wantGaps := []canon.Field{canon.FieldProvider, canon.FieldService, canon.FieldPayment, canon.FieldPayout}
	if !reflect.DeepEqual(plan.Gaps, wantGaps) {
		t.Fatalf("Gaps = %v, want %v", plan.Gaps, wantGaps)
	}
	for i, rec := range got {
		if rec.ServiceProvider != "" || rec.Service != "" || rec.PaymentMode != "" || rec.Payout != nil {
			t.Errorf("record %d: gap fields not null: %+v", i, rec)
		}
		if rec.Price == nil {
			t.Errorf("record %d: bound field Price unexpectedly null", i)
		}
	}
}

func TestStandardizeEmptyAndHeaderOnlyGrids(t *testing.T) {
	schema := canon.DefaultStreams()[0]

	table, plan := Standardize(nil, schema)
	if len(table) != 0 {
		t.Errorf("empty grid: got %d records, want 0", len(table))
	}
	if !reflect.DeepEqual(plan.Gaps, canon.DataFields) {
		t.Errorf("empty grid gaps = %v, want all data fields", plan.Gaps)
	}

	table, _ = Standardize([][]string{{"Timestamp", "Price"}}, schema)
	if len(table) != 0 {
		t.Errorf("header-only grid: got %d records, want 0", len(table))
	}
}

func TestStandardizeFallbackReadsRaggedRows(t *testing.T) {
	schema := canon.StreamSchema{
		ID:    "s",
		Label: "S",
		Tab:   "T",
		Aliases: []canon.Alias{
			{Source: "timestamp", Target: canon.FieldTimestamp},
		},
		Fallbacks: []canon.Fallback{
			{Column: 3, Target: canon.FieldPrice},
		},
	}
	grid := [][]string{
		{"Timestamp", "A", "B", "Whatever"},
		{"13/01/2024", "x", "y", "750"},
		{"14/01/2024", "x"}, // too short to reach the fallback column
	}

	got, _ := Standardize(grid, schema)
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
	if got[0].Price == nil || *got[0].Price != 750 {
		t.Errorf("record 0 Price = %v, want 750", fmtPtr(got[0].Price))
	}
	if got[1].Price != nil {
		t.Errorf("record 1 Price = %v, want nil for a row shorter than the fallback column", *got[1].Price)
	}
}

func recordsEqual(a, b canon.Record) bool {
	if (a.Timestamp == nil) != (b.Timestamp == nil) {
		return false
	}
	if a.Timestamp != nil && !a.Timestamp.Equal(*b.Timestamp) {
		return false
	}
	if (a.Price == nil) != (b.Price == nil) || (a.Price != nil && *a.Price != *b.Price) {
		return false
	}
	if (a.Payout == nil) != (b.Payout == nil) || (a.Payout != nil && *a.Payout != *b.Payout) {
		return false
	}
	return a.ServiceProvider == b.ServiceProvider &&
		a.Service == b.Service &&
		a.PaymentMode == b.PaymentMode &&
		a.Stream == b.Stream
}
