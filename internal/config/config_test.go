package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Listen != "127.0.0.1:8080" {
		t.Fatalf("Listen = %q", cfg.Listen)
	}
	if cfg.Grid.DayStartHour != 8 || cfg.Grid.DayEndHour != 22 {
		t.Fatalf("grid hours = %d-%d", cfg.Grid.DayStartHour, cfg.Grid.DayEndHour)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("config perms = %o, want 600", perm)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9090"
	cfg.Database = "postgres://localhost/coursegrid?sslmode=disable"
	cfg.Grid.SlotHeightPx = 48
	cfg.Export.TermStart = "2025-01-06"
	cfg.Export.TermEnd = "2025-04-25"
	cfg.Export.BreakWeeks = []BreakWeek{{Start: "2025-02-16", End: "2025-02-22"}}
	cfg.ShareBaseURL = "https://example.org/s"
	cfg.BasicAuth = &BasicAuthConfig{Username: "u", Password: "p"}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Listen != cfg.Listen || got.Database != cfg.Database {
		t.Fatalf("round trip lost listen/database: %+v", got)
	}
	if got.Grid.SlotHeightPx != 48 {
		t.Fatalf("SlotHeightPx = %d", got.Grid.SlotHeightPx)
	}
	if len(got.Export.BreakWeeks) != 1 || got.Export.BreakWeeks[0].Start != "2025-02-16" {
		t.Fatalf("break weeks = %+v", got.Export.BreakWeeks)
	}
	if got.BasicAuth == nil || got.BasicAuth.Username != "u" {
		t.Fatalf("basic auth = %+v", got.BasicAuth)
	}
}

func TestNormalizeRepairsBadValues(t *testing.T) {
	cfg := &Config{
		Grid: GridConfig{
			DayStartHour: -3,
			DayEndHour:   5, // below repaired start, re-repaired
			SlotHeightPx: 0,
		},
		ShareRetentionDays: -1,
	}
	cfg.Normalize()

	if cfg.Listen == "" {
		t.Fatal("Listen not defaulted")
	}
	if cfg.Grid.DayStartHour != 8 || cfg.Grid.DayEndHour <= cfg.Grid.DayStartHour {
		t.Fatalf("grid hours = %d-%d", cfg.Grid.DayStartHour, cfg.Grid.DayEndHour)
	}
	if cfg.Grid.SlotHeightPx != 60 || cfg.Grid.MinEventHeightPx != 30 {
		t.Fatalf("heights = %d/%d", cfg.Grid.SlotHeightPx, cfg.Grid.MinEventHeightPx)
	}
	if cfg.ShareRetentionDays != 90 {
		t.Fatalf("retention = %d", cfg.ShareRetentionDays)
	}
	if cfg.PurgeCron == "" {
		t.Fatal("purge cron not defaulted")
	}
}
