package sheets

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"
)

// Workbook reads tab grids from a local .xlsx file — typically a manual
// export of the hosted sheet — so reports can be produced offline and test
// fixtures stay realistic. The file is reopened on every fetch; exports are
// small and this keeps the source read-through like the API client.
type Workbook struct {
	path   string
	logger *slog.Logger
}

// NewWorkbook creates a workbook-backed row source for the given path.
func NewWorkbook(path string, logger *slog.Logger) *Workbook {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workbook{path: path, logger: logger}
}

// FetchRows returns the raw grid for one tab. A missing file or missing tab
// wraps ErrSourceUnavailable.
func (w *Workbook) FetchRows(ctx context.Context, tab string) ([][]string, error) {
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %v: %w", w.path, err, ErrSourceUnavailable)
	}
	defer f.Close()

	rows, err := f.GetRows(tab)
	if err != nil {
		return nil, fmt.Errorf("read tab %q from %s: %v: %w", tab, w.path, err, ErrSourceUnavailable)
	}

	w.logger.Debug("read workbook tab", "tab", tab, "rows", len(rows))
	return rows, nil
}
