package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.APIPort != 8000 {
		t.Errorf("APIPort = %d, want 8000", cfg.APIPort)
	}
	if cfg.Source != SourceSheets {
		t.Errorf("Source = %q, want %q", cfg.Source, SourceSheets)
	}
	if cfg.CacheTTL != 300*time.Second {
		t.Errorf("CacheTTL = %v, want 5m", cfg.CacheTTL)
	}
	if !cfg.CacheEnabled {
		t.Error("CacheEnabled should default to true")
	}
	if cfg.DerivePayout {
		t.Error("DerivePayout should default to false")
	}
	if cfg.ReportMaxRecords != 500 {
		t.Errorf("ReportMaxRecords = %d, want 500", cfg.ReportMaxRecords)
	}
	if cfg.IsProduction() {
		t.Error("default environment should not be production")
	}
}

func TestLoadRequiresSheetID(t *testing.T) {
	t.Setenv("SHEET_ID", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when SOURCE=sheets and SHEET_ID is empty")
	}
}

func TestLoadWorkbookSource(t *testing.T) {
	t.Setenv("SOURCE", "workbook")
	t.Setenv("WORKBOOK_PATH", "/data/responses.xlsx")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source != SourceWorkbook {
		t.Errorf("Source = %q, want workbook", cfg.Source)
	}
}

func TestLoadWorkbookRequiresPath(t *testing.T) {
	t.Setenv("SOURCE", "workbook")
	t.Setenv("WORKBOOK_PATH", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when SOURCE=workbook and WORKBOOK_PATH is empty")
	}
}

func TestLoadRejectsUnknownSource(t *testing.T) {
	t.Setenv("SOURCE", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown SOURCE")
	}
}

func TestStreamsTabOverride(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-abc")
	t.Setenv("TAB_RECEP", "Front Desk 2026")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	streams, err := cfg.Streams()
	if err != nil {
		t.Fatalf("Streams: %v", err)
	}

	for _, s := range streams {
		switch s.ID {
		case "recep":
			if s.Tab != "Front Desk 2026" {
				t.Errorf("recep tab = %q, want override", s.Tab)
			}
		case "tech":
			if s.Tab != "Form responses 2" {
				t.Errorf("tech tab = %q, want default", s.Tab)
			}
		}
	}
}

func TestCommissionsDisabledByDefault(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rates, err := cfg.Commissions()
	if err != nil {
		t.Fatalf("Commissions: %v", err)
	}
	if rates != nil {
		t.Errorf("Commissions = %v, want nil when DERIVE_PAYOUT is off", rates)
	}
}

func TestCommissionsFromEnv(t *testing.T) {
	t.Setenv("SHEET_ID", "sheet-abc")
	t.Setenv("DERIVE_PAYOUT", "true")
	t.Setenv("COMMISSION_RATES", "tech=0.4, bogus, recep=oops")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	rates, err := cfg.Commissions()
	if err != nil {
		t.Fatalf("Commissions: %v", err)
	}

	// tech gets the env rate, waxhub keeps its built-in rate, malformed
	// pairs are skipped.
	if rates["Tech"] != 0.4 {
		t.Errorf("Tech rate = %v, want 0.4", rates["Tech"])
	}
	if rates["Wax-Hub"] != 0.35 {
		t.Errorf("Wax-Hub rate = %v, want 0.35", rates["Wax-Hub"])
	}
	if _, ok := rates["Recep"]; ok {
		t.Error("malformed recep rate should be skipped")
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_INT", "17")
	t.Setenv("X_INT_BAD", "seventeen")
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_LIST", "a, b ,,c")

	if got := envInt("X_INT", 5); got != 17 {
		t.Errorf("envInt = %d, want 17", got)
	}
	if got := envInt("X_INT_BAD", 5); got != 5 {
		t.Errorf("envInt bad = %d, want fallback 5", got)
	}
	if got := envInt("X_INT_MISSING", 5); got != 5 {
		t.Errorf("envInt missing = %d, want fallback 5", got)
	}
	if !envBool("X_BOOL", false) {
		t.Error("envBool should parse true")
	}
	got := envList("X_LIST", nil)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("envList = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("envList[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
