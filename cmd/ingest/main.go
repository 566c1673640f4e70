// Command ingest is the Ella salon data CLI.
//
// Usage:
//
//	ella-ingest load
//	ella-ingest load --stream waxhub --refresh
//	ella-ingest load --watch --interval 5m
//	ella-ingest report --from 2024-01-01 --to 2024-01-31 --group-by provider
//	ella-ingest report --stream recep --json
//	ella-ingest headers --stream tech
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ellastudio/ella-data/internal/canon"
	"github.com/ellastudio/ella-data/internal/config"
	"github.com/ellastudio/ella-data/internal/loader"
	"github.com/ellastudio/ella-data/internal/normalize"
	"github.com/ellastudio/ella-data/internal/notice"
	"github.com/ellastudio/ella-data/internal/report"
	"github.com/ellastudio/ella-data/internal/sheets"
)

var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// Global flags, applied before config loads.
var (
	flagEnvFile  string
	flagSource   string
	flagWorkbook string
	flagTimeout  time.Duration
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "ella-ingest",
		Short: "Ella salon data CLI",
	}
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "Load environment from this file on top of .env")
	root.PersistentFlags().StringVar(&flagSource, "source", "", "Override SOURCE (sheets or workbook)")
	root.PersistentFlags().StringVar(&flagWorkbook, "workbook", "", "Override WORKBOOK_PATH")
	root.PersistentFlags().DurationVar(&flagTimeout, "timeout", 0, "Abort after this duration; 0 = no limit")

	root.AddCommand(loadCmd())
	root.AddCommand(reportCmd())
	root.AddCommand(headersCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// load command
// --------------------------------------------------------------------------

func loadCmd() *cobra.Command {
	var (
		stream   string
		refresh  bool
		watch    bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load streams and report per-stream outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithLoader(func(ctx context.Context, cfg *config.Config, ld *loader.Loader) error {
				if err := loadOnce(ctx, ld, stream, refresh); err != nil {
					return err
				}
				if !watch {
					return nil
				}

				logger.Info("Watching for changes", "interval", interval)
				ticker := time.NewTicker(interval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						// Each pass replaces the memo so drift shows up.
						if err := loadOnce(ctx, ld, stream, true); err != nil {
							logger.Error("load pass failed", "error", err)
						}
					case <-ctx.Done():
						logger.Info("Watch stopped")
						return nil
					}
				}
			})
		},
	}
	cmd.Flags().StringVar(&stream, "stream", "", "Load a single stream by ID; empty = all")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Bypass the memo and reload from source")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep reloading on an interval until interrupted")
	cmd.Flags().DurationVar(&interval, "interval", 5*time.Minute, "Reload interval for --watch")
	return cmd
}

func loadOnce(ctx context.Context, ld *loader.Loader, stream string, refresh bool) error {
	start := time.Now()

	var statuses []loader.StreamStatus
	if stream != "" {
		_, status, err := ld.LoadStream(ctx, stream, refresh)
		if err != nil {
			logger.Error("load failed", "summary", status.Summary())
			return err
		}
		statuses = []loader.StreamStatus{status}
	} else {
		table, all := ld.LoadAll(ctx, refresh)
		statuses = all
		logger.Info("Load finished",
			"rows", len(table),
			"duration", time.Since(start).Round(time.Millisecond))
	}

	for _, s := range statuses {
		if s.Failed() {
			logger.Error("stream failed", "summary", s.Summary())
		} else {
			logger.Info("stream loaded", "summary", s.Summary())
		}
	}
	for _, n := range ld.Notices().List() {
		logger.Warn("notice", "kind", n.Kind, "stream", n.Stream, "message", n.Message)
	}
	return nil
}

// --------------------------------------------------------------------------
// report command
// --------------------------------------------------------------------------

func reportCmd() *cobra.Command {
	var (
		from, to  string
		streams   []string
		providers []string
		payments  []string
		groupBy   string
		limit     int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a filtered, aggregated report over all streams",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithLoader(func(ctx context.Context, cfg *config.Config, ld *loader.Loader) error {
				preds, err := buildPredicates(ld, from, to, streams, providers, payments)
				if err != nil {
					return err
				}
				keys, err := report.ParseKeys(groupBy)
				if err != nil {
					return err
				}
				commissions, err := cfg.Commissions()
				if err != nil {
					return err
				}

				table, statuses := ld.LoadAll(ctx, false)
				for _, s := range statuses {
					if s.Failed() {
						logger.Error("stream failed", "summary", s.Summary())
					}
				}

				rep := report.Build(table, preds, keys, report.Options{
					Limit:       limit,
					Commissions: commissions,
				})

				if asJSON {
					enc := json.NewEncoder(os.Stdout)
					enc.SetIndent("", "  ")
					return enc.Encode(rep)
				}
				printReport(rep)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringVar(&to, "to", "", "End date (YYYY-MM-DD, inclusive)")
	cmd.Flags().StringSliceVar(&streams, "stream", nil, "Stream ID filter (repeatable)")
	cmd.Flags().StringSliceVar(&providers, "provider", nil, "Service provider filter (repeatable)")
	cmd.Flags().StringSliceVar(&payments, "payment", nil, "Payment mode filter (repeatable)")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "Grouping keys (stream, provider, payment)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max detailed records in JSON output; 0 = all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the full report as JSON")
	return cmd
}

func buildPredicates(ld *loader.Loader, from, to string, streams, providers, payments []string) (report.Predicates, error) {
	var preds report.Predicates
	if from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			return preds, fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
		}
		preds.From = &t
	}
	if to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			return preds, fmt.Errorf("--to must be YYYY-MM-DD: %w", err)
		}
		preds.To = &t
	}
	for _, id := range streams {
		schema, ok := canon.FindStream(ld.Streams(), id)
		if !ok {
			return preds, fmt.Errorf("unknown stream %q", id)
		}
		preds.Streams = append(preds.Streams, schema.Label)
	}
	preds.Providers = providers
	preds.Payments = payments
	return preds, nil
}

func printReport(rep report.Report) {
	fmt.Printf("Rows:             %d\n", rep.Summary.Rows)
	fmt.Printf("Total sales:      %.2f\n", rep.Summary.TotalSales)
	fmt.Printf("Total payout:     %.2f\n", rep.Summary.TotalPayout)
	fmt.Printf("Unique providers: %d\n", rep.Summary.UniqueProviders)
	if rep.Summary.MeanTicket != nil {
		fmt.Printf("Mean ticket:      %.2f\n", *rep.Summary.MeanTicket)
	}
	if rep.Summary.MedianTicket != nil {
		fmt.Printf("Median ticket:    %.2f\n", *rep.Summary.MedianTicket)
	}

	if len(rep.Groups) == 0 {
		return
	}
	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	headers := make([]string, 0, len(rep.GroupBy)+3)
	for _, k := range rep.GroupBy {
		headers = append(headers, strings.ToUpper(string(k)))
	}
	headers = append(headers, "JOBS", "SALES", "PAYOUT")
	fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, g := range rep.Groups {
		cols := make([]string, 0, len(headers))
		for _, k := range rep.GroupBy {
			switch k {
			case report.KeyStream:
				cols = append(cols, g.Stream)
			case report.KeyProvider:
				cols = append(cols, g.Provider)
			case report.KeyPayment:
				cols = append(cols, g.Payment)
			}
		}
		cols = append(cols, fmt.Sprintf("%d", g.Jobs),
			fmt.Sprintf("%.2f", g.SumPrice), fmt.Sprintf("%.2f", g.SumPayout))
		fmt.Fprintln(w, strings.Join(cols, "\t"))
	}
	w.Flush()
}

// --------------------------------------------------------------------------
// headers command
// --------------------------------------------------------------------------

func headersCmd() *cobra.Command {
	var stream string
	cmd := &cobra.Command{
		Use:   "headers",
		Short: "Show how a stream's header row resolves to target fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			if stream == "" {
				return fmt.Errorf("--stream is required")
			}
			return runWithLoader(func(ctx context.Context, cfg *config.Config, ld *loader.Loader) error {
				plan, status, err := ld.Plan(ctx, stream, false)
				if err != nil {
					return err
				}
				logger.Info("stream loaded", "summary", status.Summary())
				printPlan(plan)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&stream, "stream", "", "Stream ID to inspect")
	return cmd
}

func printPlan(plan normalize.Plan) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COL\tHEADER\tCANONICAL\tTARGET\tVIA")

	targetAt := make(map[int]normalize.Binding, len(plan.Bindings))
	for _, b := range plan.Bindings {
		targetAt[b.Column] = b
	}
	for col, h := range plan.Headers {
		target, via := "", ""
		if b, ok := targetAt[col]; ok {
			target, via = string(b.Target), b.Via
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", col, h, plan.Canonical[col], target, via)
	}
	w.Flush()

	if len(plan.Gaps) > 0 {
		gaps := make([]string, len(plan.Gaps))
		for i, g := range plan.Gaps {
			gaps[i] = string(g)
		}
		sort.Strings(gaps)
		fmt.Printf("\nUnmapped fields (columns will be null): %s\n", strings.Join(gaps, ", "))
	}
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// runWithLoader handles flag overrides, config loading, source selection,
// and context cancellation.
func runWithLoader(fn func(ctx context.Context, cfg *config.Config, ld *loader.Loader) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if flagTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, flagTimeout)
		defer tcancel()
	}

	// Flag overrides go through the environment so config validation stays
	// in one place.
	if flagEnvFile != "" {
		if err := godotenv.Overload(flagEnvFile); err != nil {
			return fmt.Errorf("load %s: %w", flagEnvFile, err)
		}
	}
	if flagSource != "" {
		os.Setenv("SOURCE", flagSource)
	}
	if flagWorkbook != "" {
		os.Setenv("SOURCE", config.SourceWorkbook)
		os.Setenv("WORKBOOK_PATH", flagWorkbook)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Debug {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	streams, err := cfg.Streams()
	if err != nil {
		return fmt.Errorf("stream configuration: %w", err)
	}

	var source sheets.RowSource
	if cfg.Source == config.SourceWorkbook {
		source = sheets.NewWorkbook(cfg.WorkbookPath, logger)
	} else {
		source = sheets.NewClient(cfg.SheetsBaseURL, cfg.SheetID, cfg.GoogleAPIKey, cfg.SheetsRateLimit, logger)
	}

	ld := loader.New(source, streams, notice.NewRegistry(logger), cfg.CacheTTL, logger)
	return fn(ctx, cfg, ld)
}
