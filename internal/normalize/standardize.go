package normalize

import (
	"strings"

	"github.com/ellastudio/ella-data/internal/canon"
)

// Standardize turns one stream's raw grid into canonical records. The first
// row is treated as the header row; data rows may be ragged (cells beyond a
// row's length read as empty). Rows whose cells are all blank are dropped.
// Every produced record carries the full target column set: unbound fields
// are null for every row, and a single malformed cell nulls that cell only.
//
// The returned Plan describes how each target field was (or was not) bound,
// so callers can surface schema gaps.
func Standardize(grid [][]string, schema canon.StreamSchema) (canon.Table, Plan) {
	if len(grid) == 0 {
		return canon.Table{}, BuildPlan(nil, schema)
	}

	plan := BuildPlan(grid[0], schema)
	table := make(canon.Table, 0, max(len(grid)-1, 0))
	for _, row := range grid[1:] {
		if rowBlank(row) {
			continue
		}
		rec := canon.Record{Stream: schema.Label}
		if b, ok := plan.Bindings[canon.FieldTimestamp]; ok {
			rec.Timestamp = Timestamp(cellAt(row, b.Column))
		}
		if b, ok := plan.Bindings[canon.FieldProvider]; ok {
			rec.ServiceProvider = Text(cellAt(row, b.Column))
		}
		if b, ok := plan.Bindings[canon.FieldService]; ok {
			rec.Service = Text(cellAt(row, b.Column))
		}
		if b, ok := plan.Bindings[canon.FieldPayment]; ok {
			rec.PaymentMode = Text(cellAt(row, b.Column))
		}
		if b, ok := plan.Bindings[canon.FieldPrice]; ok {
			rec.Price = Money(cellAt(row, b.Column))
		}
		if b, ok := plan.Bindings[canon.FieldPayout]; ok {
			rec.Payout = Money(cellAt(row, b.Column))
		}
		table = append(table, rec)
	}
	return table, plan
}

func cellAt(row []string, col int) string {
	if col >= 0 && col < len(row) {
		return row[col]
	}
	return ""
}

func rowBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
