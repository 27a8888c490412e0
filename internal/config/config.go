package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Tiliavir/work-time-tracker/internal/model"
)

// Config is the root configuration for wtt, stored in ~/.wtt/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Work    model.WorkSettings `json:"work"`
	Storage StorageConfig      `json:"storage"`
	Outlook OutlookConfig      `json:"outlook"`
	Server  ServerConfig       `json:"server"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Driver is "files" (one JSON file per day) or "sqlite".
	Driver string `json:"driver"`
	// Path is the data directory (files) or database file (sqlite).
	// Empty selects the default below ~/.wtt.
	Path string `json:"path"`
	// User scopes the rows of a shared SQLite database.
	User string `json:"user"`
}

// OutlookConfig holds Microsoft Graph / Outlook calendar import settings.
type OutlookConfig struct {
	// TenantID is the Azure AD tenant. Use "common" for personal/multi-tenant accounts.
	TenantID string `json:"tenant_id"`
	// ClientID is the Azure app (client) ID for the OAuth2 device code flow.
	ClientID string `json:"client_id"`
	// Timezone is the IANA timezone for event times (e.g. "Europe/Rome"). Empty = UTC.
	Timezone string `json:"timezone"`
}

// ServerConfig configures `wtt serve`.
type ServerConfig struct {
	Addr string `json:"addr"`
}

const (
	// DefaultTenantID is the Microsoft "common" tenant (supports personal and
	// multi-tenant organisational accounts without additional registration).
	DefaultTenantID = "common"
	// DefaultClientID is the well-known public Azure CLI app ID.
	// It supports device code flow without a client secret and requires no
	// app registration. Replace with your own registered app ID for
	// organisational or production deployments.
	DefaultClientID = "04b07795-8542-4c4a-95af-30b2c573d5ab"
	// DefaultAddr is the listen address of the HTTP API.
	DefaultAddr = "127.0.0.1:8087"
	// DefaultDriver is the storage backend used when none is configured.
	DefaultDriver = "files"
)

func hour(h int) *int { return &h }

// Default returns a Config pre-filled with sensible defaults.
func Default() Config {
	return Config{
		Work: model.WorkSettings{
			StandardDayHours:          8,
			NightStartHour:            22,
			NightEndHour:              6,
			TreatHolidayAsOvertime:    true,
			DeductAutoBreak:           false,
			AutoBreakThresholdHours:   6,
			AutoBreakMinutes:          30,
			ExcessRule:                model.ExcessRuleExcess,
			MealVoucherThresholdHours: 6,
			Shifts: []model.Shift{
				{ID: "M", Name: "Morning", StartHour: hour(6), EndHour: hour(14)},
				{ID: "A", Name: "Afternoon", StartHour: hour(14), EndHour: hour(22)},
				{ID: "N", Name: "Night", StartHour: hour(22), EndHour: hour(6)},
				{ID: "R", Name: "Rest"},
			},
		},
		Storage: StorageConfig{Driver: DefaultDriver},
		Outlook: OutlookConfig{
			TenantID: DefaultTenantID,
			ClientID: DefaultClientID,
		},
		Server: ServerConfig{Addr: DefaultAddr},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// wtt configuration – ~/.wtt/config.json
//
// All settings are optional; missing values fall back to the defaults shown
// below. Edit this file to customise how wtt accounts your working time.
{
  // ── Work rules ───────────────────────────────────────────────────────────
  "work": {
    // Ordinary hours owed per working day. Time beyond this is excess or overtime.
    "standard_day_hours": 8,

    // Night window (local hours). May wrap past midnight: 22 → 6 means
    // 22:00 until 06:00. Equal values disable night overtime.
    "night_start_hour": 22,
    "night_end_hour": 6,

    // On leave days (and the night after them) worked time counts as holiday overtime.
    "treat_holiday_as_overtime": true,

    // Deduct an unpaid break once the day's worked time exceeds the threshold.
    "deduct_auto_break": false,
    "auto_break_threshold_hours": 6,
    "auto_break_minutes": 30,

    // Where beyond-standard daytime goes on a normal day:
    // • "excess"   – excess hours (default)
    // • "overtime" – diurnal overtime
    "excess_rule": "excess",

    // A day with at least this much work earns a meal voucher.
    "meal_voucher_threshold_hours": 6,

    // Shift table. Time worked before a planned shift's start is not payable.
    // A shift without start and end hour is a rest day.
    "shifts": [
      { "id": "M", "name": "Morning",   "start_hour": 6,  "end_hour": 14 },
      { "id": "A", "name": "Afternoon", "start_hour": 14, "end_hour": 22 },
      { "id": "N", "name": "Night",     "start_hour": 22, "end_hour": 6 },
      { "id": "R", "name": "Rest",      "start_hour": null, "end_hour": null }
    ]
  },

  // ── Storage ──────────────────────────────────────────────────────────────
  "storage": {
    // • "files"  – one JSON file per day under ~/.wtt/YYYY/MM/DD.json (default)
    // • "sqlite" – a single database, ~/.wtt/wtt.db unless "path" is set
    "driver": "files",
    "path": "",
    // Row owner in a shared SQLite database.
    "user": ""
  },

  // ── Microsoft Graph / Outlook calendar import ────────────────────────────
  "outlook": {
    // Azure AD tenant ID.
    // • "common"  – personal Microsoft accounts and any organisation (default)
    // • Your organisation's tenant GUID, e.g. "xxxxxxxx-xxxx-xxxx-xxxx-xxxxxxxxxxxx"
    "tenant_id": "common",

    // Azure application (client) ID used for the OAuth2 device code flow.
    // The built-in value is the public Azure CLI app – no app registration needed.
    "client_id": "04b07795-8542-4c4a-95af-30b2c573d5ab",

    // IANA timezone for interpreting calendar event times, e.g. "Europe/Rome".
    // Leave empty to use UTC. Can be overridden with: wtt outlook sync --timezone <tz>
    "timezone": ""
  },

  // ── HTTP API (wtt serve) ─────────────────────────────────────────────────
  "server": {
    "addr": "127.0.0.1:8087"
  }
}
`

// FilePath returns the path to ~/.wtt/config.json.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".wtt", "config.json"), nil
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// Load reads ~/.wtt/config.json, creating it with annotated defaults on first
// run.
func Load() (Config, error) {
	path, err := FilePath()
	if err != nil {
		return Default(), err
	}
	return LoadFile(path)
}

// LoadFile reads the config at path, writing the annotated template there if
// it does not exist yet. Lines starting with // are treated as comments and
// stripped before JSON parsing. The result is validated.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			slog.Warn("could not create config file", "path", path, "error", writeErr)
		}
		return Default(), nil
	}
	if err != nil {
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
	}
	return cfg, nil
}

// Parse decodes a commented JSON config on top of Default, so keys missing
// from the file keep their default values, and validates the result. A
// "shifts" list replaces the default shift table as a whole.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	defaultShifts := cfg.Work.Shifts
	cfg.Work.Shifts = nil
	if err := json.Unmarshal(stripLineComments(data), &cfg); err != nil {
		return Config{}, err
	}
	if cfg.Work.Shifts == nil {
		cfg.Work.Shifts = defaultShifts
	}
	fillEmptyStrings(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// fillEmptyStrings treats an explicit "" like a missing key for settings
// that have no meaningful empty value.
func fillEmptyStrings(cfg *Config) {
	def := Default()
	if cfg.Work.ExcessRule == "" {
		cfg.Work.ExcessRule = def.Work.ExcessRule
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = def.Storage.Driver
	}
	if cfg.Outlook.TenantID == "" {
		cfg.Outlook.TenantID = def.Outlook.TenantID
	}
	if cfg.Outlook.ClientID == "" {
		cfg.Outlook.ClientID = def.Outlook.ClientID
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}
