// Package config handles configuration loading from files, defaults, and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/javiermolinar/rota/internal/dateutil"
	"github.com/javiermolinar/rota/internal/grid"
	"github.com/javiermolinar/rota/internal/schedule"
	"github.com/javiermolinar/rota/internal/slot"
	"github.com/javiermolinar/rota/internal/workhours"
)

// Config holds the application configuration.
type Config struct {
	WorkingHours WorkingHoursConfig `toml:"working_hours"`
	Grid         GridConfig         `toml:"grid"`
	Region       RegionConfig       `toml:"region"`
	Storage      StorageConfig      `toml:"storage"`
	Log          LogConfig          `toml:"log"`
	UI           UIConfig           `toml:"ui"`
}

// UIConfig holds terminal preview settings.
type UIConfig struct {
	Theme string `toml:"theme"` // "mocha" or "latte"
}

// WorkingHoursConfig restricts the calendar to working hours.
type WorkingHoursConfig struct {
	Enabled  bool     `toml:"enabled"`
	Start    string   `toml:"start"`    // e.g., "09:00"
	End      string   `toml:"end"`      // e.g., "17:00", "24:00" for end of day
	Weekdays []string `toml:"weekdays"` // e.g., ["monday", "tuesday", ...]
}

// GridConfig holds calendar layout settings.
type GridConfig struct {
	DefaultView    string  `toml:"default_view"` // "day", "week" or "month"
	HeaderRows     int     `toml:"header_rows"`
	HeaderColumns  int     `toml:"header_columns"`
	SlotWidthPx    float64 `toml:"slot_width_px"`
	SnapMinutes    int     `toml:"snap_minutes"`
	DayStepMinutes int     `toml:"day_step_minutes"`
}

// RegionConfig holds the time zone records are displayed in.
type RegionConfig struct {
	Timezone string `toml:"timezone"` // IANA name, e.g., "Europe/Madrid"
}

// StorageConfig holds database settings.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "console" or "json"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		WorkingHours: WorkingHoursConfig{
			Enabled:  true,
			Start:    "09:00",
			End:      "17:00",
			Weekdays: []string{"monday", "tuesday", "wednesday", "thursday", "friday"},
		},
		Grid: GridConfig{
			DefaultView:    string(schedule.GranularityWeek),
			HeaderRows:     grid.DefaultHeaderRows,
			HeaderColumns:  grid.DefaultHeaderColumns,
			SlotWidthPx:    slot.DefaultSlotWidthPx,
			SnapMinutes:    slot.DefaultSnapUnitMinutes,
			DayStepMinutes: workhours.DefaultDayStepMinutes,
		},
		Region: RegionConfig{
			Timezone: "UTC",
		},
		Storage: StorageConfig{
			DBPath: defaultDBPath(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		UI: UIConfig{
			Theme: "mocha",
		},
	}
}

// defaultDBPath returns the default database path.
func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "rota.db"
	}
	return filepath.Join(home, ".local", "share", "rota", "rota.db")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "rota", "config.toml")
}

// Load loads configuration from the default path, merging with defaults and env vars.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom loads configuration from the specified path.
// It starts with defaults, overlays file config if it exists, then applies env overrides.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// Try to load from file (not an error if it doesn't exist)
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.DBPath = expandPath(cfg.Storage.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads config from a file if it exists.
func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // File doesn't exist, use defaults
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables take precedence over file config.
func applyEnvOverrides(cfg *Config) error {
	// Working hours overrides
	if v := os.Getenv("ROTA_WORKING_HOURS"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ROTA_WORKING_HOURS: %w", err)
		}
		cfg.WorkingHours.Enabled = enabled
	}
	if v := os.Getenv("ROTA_WORK_START"); v != "" {
		cfg.WorkingHours.Start = v
	}
	if v := os.Getenv("ROTA_WORK_END"); v != "" {
		cfg.WorkingHours.End = v
	}
	if v := os.Getenv("ROTA_WORKDAYS"); v != "" {
		cfg.WorkingHours.Weekdays = strings.Split(v, ",")
	}

	// Grid overrides
	if v := os.Getenv("ROTA_VIEW"); v != "" {
		cfg.Grid.DefaultView = v
	}
	if v := os.Getenv("ROTA_SNAP_MINUTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ROTA_SNAP_MINUTES: %w", err)
		}
		cfg.Grid.SnapMinutes = n
	}

	// Region overrides
	if v := os.Getenv("ROTA_TIMEZONE"); v != "" {
		cfg.Region.Timezone = v
	}

	// Storage overrides
	if v := os.Getenv("ROTA_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
	}

	// Log overrides
	if v := os.Getenv("ROTA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("ROTA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}

	// UI overrides
	if v := os.Getenv("ROTA_UI_THEME"); v != "" {
		cfg.UI.Theme = v
	}
	return nil
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.WorkingHoursFilter(); err != nil {
		return err
	}

	if _, err := schedule.ParseGranularity(c.Grid.DefaultView); err != nil {
		return fmt.Errorf("default_view: %w", err)
	}
	if c.Grid.HeaderRows < 0 || c.Grid.HeaderColumns < 0 {
		return errors.New("header_rows and header_columns cannot be negative")
	}
	if c.Grid.SlotWidthPx <= 0 {
		return fmt.Errorf("slot_width_px must be positive, got %v", c.Grid.SlotWidthPx)
	}
	if c.Grid.SnapMinutes <= 0 {
		return fmt.Errorf("snap_minutes must be positive, got %d", c.Grid.SnapMinutes)
	}
	if c.Grid.DayStepMinutes <= 0 {
		return fmt.Errorf("day_step_minutes must be positive, got %d", c.Grid.DayStepMinutes)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if c.Storage.DBPath == "" {
		return errors.New("db_path must be set")
	}

	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if f := strings.ToLower(c.Log.Format); f != "console" && f != "json" {
		return fmt.Errorf("log format must be 'console' or 'json', got %q", c.Log.Format)
	}
	return nil
}

var validLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseWeekday(day string) (time.Weekday, bool) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(day))]
	return d, ok
}

// WorkingHoursFilter converts the working hours section for the filter.
func (c *Config) WorkingHoursFilter() (workhours.Config, error) {
	wh := c.WorkingHours
	start, err := schedule.ParseTimeOfDay(wh.Start)
	if err != nil {
		return workhours.Config{}, fmt.Errorf("working_hours.start: %w", err)
	}
	end, err := schedule.ParseBound(wh.End)
	if err != nil {
		return workhours.Config{}, fmt.Errorf("working_hours.end: %w", err)
	}

	out := workhours.Config{Enabled: wh.Enabled, Start: start, End: end}
	for _, name := range wh.Weekdays {
		d, ok := parseWeekday(name)
		if !ok {
			return workhours.Config{}, fmt.Errorf("invalid weekday: %s", name)
		}
		out.Weekdays = append(out.Weekdays, d)
	}
	if wh.Enabled && len(out.Weekdays) == 0 {
		return workhours.Config{}, errors.New("at least one weekday must be configured")
	}
	if err := out.Validate(); err != nil {
		return workhours.Config{}, err
	}
	return out, nil
}

// IsWorkday returns true if the given weekday name is a configured workday.
func (c *Config) IsWorkday(weekday string) bool {
	d, ok := parseWeekday(weekday)
	if !ok {
		return false
	}
	for _, name := range c.WorkingHours.Weekdays {
		if w, ok := parseWeekday(name); ok && w == d {
			return true
		}
	}
	return false
}

// View returns the default calendar view, falling back to week.
func (c *Config) View() schedule.Granularity {
	g, err := schedule.ParseGranularity(c.Grid.DefaultView)
	if err != nil {
		return schedule.GranularityWeek
	}
	return g
}

// GridConfig returns the grid mapper settings for view.
func (c *Config) GridConfig(view schedule.Granularity) grid.Config {
	return grid.Config{
		HeaderRows:    c.Grid.HeaderRows,
		HeaderColumns: c.Grid.HeaderColumns,
		Granularity:   view,
	}
}

// FilterOptions returns the column generation options.
func (c *Config) FilterOptions() workhours.Options {
	return workhours.Options{DayStepMinutes: c.Grid.DayStepMinutes}
}

// SlotOptions returns the card geometry options.
func (c *Config) SlotOptions() slot.Options {
	return slot.Options{SlotWidthPx: c.Grid.SlotWidthPx, SnapUnitMinutes: c.Grid.SnapMinutes}
}

// Location loads the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := dateutil.LoadZone(c.Region.Timezone)
	if err != nil {
		return nil, fmt.Errorf("region.timezone: %w", err)
	}
	return loc, nil
}

// Save writes the configuration to the default path.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
