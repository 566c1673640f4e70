// Package sheets supplies raw row grids from the hosted spreadsheet. The
// rest of the system consumes only the RowSource interface; the Google
// Sheets values-API client and the local workbook reader both satisfy it.
package sheets

import (
	"context"
	"errors"
)

// ErrSourceUnavailable marks a tab the collaborator could not supply rows
// for: missing tab, auth failure, network failure. Callers isolate it at
// stream granularity; it never aborts sibling streams.
var ErrSourceUnavailable = errors.New("row source unavailable")

// RowSource supplies the raw cell grid for one spreadsheet tab. The first
// row is usually, but not guaranteed to be, a header row; grids may be
// empty, header-only, or ragged. Cells are untyped text.
type RowSource interface {
	FetchRows(ctx context.Context, tab string) ([][]string, error)
}
