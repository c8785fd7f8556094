package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GridConfig holds the geometry of the rendered week grid. The layout engine
// is a pure function of these values plus the occurrence times.
type GridConfig struct {
	// DayStartHour / DayEndHour bound the visible hour range (24h clock).
	// Occurrences starting outside the range are not rendered.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// SlotHeightPx is the pixel height of one hour.
	SlotHeightPx int `yaml:"slot_height_px" json:"slot_height_px"`

	// MinEventHeightPx floors the block height so very short (or degenerate)
	// events stay clickable.
	MinEventHeightPx int `yaml:"min_event_height_px" json:"min_event_height_px"`

	// ColumnMarginPct is the horizontal margin, in percent of the day column,
	// trimmed from each block for visual separation.
	ColumnMarginPct float64 `yaml:"column_margin_pct" json:"column_margin_pct"`
}

// BreakWeek is an inclusive civil-date range excluded from recurring-event
// ICS export (reading weeks, holidays).
type BreakWeek struct {
	Start string `yaml:"start" json:"start"` // "YYYY-MM-DD"
	End   string `yaml:"end" json:"end"`
}

// ExportConfig controls ICS export of recurring records.
type ExportConfig struct {
	// TermStart anchors recurring rules, "YYYY-MM-DD". Empty means the
	// current week.
	TermStart string `yaml:"term_start" json:"term_start"`

	// TermEnd is the UNTIL date for recurring rules, "YYYY-MM-DD".
	TermEnd string `yaml:"term_end" json:"term_end"`

	// BreakWeeks emit EXDATEs for occurrences that fall inside them.
	BreakWeeks []BreakWeek `yaml:"break_weeks" json:"break_weeks"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Database is a Postgres DSN. Empty selects the in-memory store.
	Database string `yaml:"database" json:"database"`

	Grid   GridConfig   `yaml:"grid" json:"grid"`
	Export ExportConfig `yaml:"export" json:"export"`

	// ShareRetentionDays is how long shared schedule snapshots are kept.
	ShareRetentionDays int `yaml:"share_retention_days" json:"share_retention_days"`

	// PurgeCron is a cron expression for the share retention sweep.
	PurgeCron string `yaml:"purge_cron" json:"purge_cron"`

	// SnapshotCron is a cron expression for refreshing the PNG preview of
	// the current week. Empty disables periodic capture.
	SnapshotCron string `yaml:"snapshot_cron" json:"snapshot_cron"`

	// ShareBaseURL prefixes share links returned on create,
	// e.g. "https://example.org/schedule".
	ShareBaseURL string `yaml:"share_base_url" json:"share_base_url"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   "127.0.0.1:8080",
		Database: "",
		Grid: GridConfig{
			DayStartHour:     8,
			DayEndHour:       22,
			SlotHeightPx:     60,
			MinEventHeightPx: 30,
			ColumnMarginPct:  1.0,
		},
		Export:             ExportConfig{},
		ShareRetentionDays: 90,
		PurgeCron:          "0 4 * * *",
		SnapshotCron:       "",
		ShareBaseURL:       "",
		BasicAuth:          nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Grid.DayStartHour < 0 || c.Grid.DayStartHour > 23 {
		c.Grid.DayStartHour = 8
	}
	if c.Grid.DayEndHour <= c.Grid.DayStartHour || c.Grid.DayEndHour > 24 {
		c.Grid.DayEndHour = 22
		if c.Grid.DayEndHour <= c.Grid.DayStartHour {
			c.Grid.DayEndHour = 24
		}
	}
	if c.Grid.SlotHeightPx <= 0 {
		c.Grid.SlotHeightPx = 60
	}
	if c.Grid.MinEventHeightPx <= 0 {
		c.Grid.MinEventHeightPx = 30
	}
	if c.Grid.ColumnMarginPct < 0 {
		c.Grid.ColumnMarginPct = 1.0
	}
	if c.ShareRetentionDays <= 0 {
		c.ShareRetentionDays = 90
	}
	if c.PurgeCron == "" {
		c.PurgeCron = "0 4 * * *"
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".coursegrid-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
