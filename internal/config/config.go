package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"hozur/internal/model"
	"hozur/internal/shifts"
)

const placeholderToken = "YOUR_BOT_TOKEN_HERE"

type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		Debug    bool   `yaml:"debug"`
	} `yaml:"telegram"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Roles struct {
		Managers    []int64 `yaml:"managers"`
		SuperAdmins []int64 `yaml:"super_admins"`
	} `yaml:"roles"`

	Shifts []ShiftConfig `yaml:"shifts"`

	Schedule struct {
		Timezone              string `yaml:"timezone"`
		ReminderMinutesBefore int    `yaml:"reminder_minutes_before_shift"`
		LateAlertMinutesAfter int    `yaml:"late_alert_minutes_after_shift_start"`
		NightlyReportTime     string `yaml:"nightly_report_time"`
		AttachXLSX            bool   `yaml:"attach_xlsx"`
		DisableShiftReminders bool   `yaml:"disable_shift_reminders"`
		DisableLateAlerts     bool   `yaml:"disable_late_alerts"`
		DisableNightlyReport  bool   `yaml:"disable_nightly_report"`
	} `yaml:"schedule"`

	Dialog struct {
		TimeoutMinutes int `yaml:"timeout_minutes"`
	} `yaml:"dialog"`

	Notifications struct {
		RatePerSecond float64 `yaml:"rate_per_second"`
		Burst         int     `yaml:"burst"`
	} `yaml:"notifications"`

	Notes struct {
		RequireAssignment *bool `yaml:"require_assignment"`
	} `yaml:"notes"`

	Locale string `yaml:"locale"`
}

type ShiftConfig struct {
	ID    int    `yaml:"id"`
	Name  string `yaml:"name"`
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Error is a startup configuration problem. It is fatal.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes YAML, applies environment overrides and defaults, and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Monitoring.HealthCheckPort = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Database.Path == "" {
		c.Database.Path = "data/hozur.db"
	}
	if c.Monitoring.HealthCheckPort == 0 {
		c.Monitoring.HealthCheckPort = 10000
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if len(c.Shifts) == 0 {
		for _, s := range shifts.Defaults {
			c.Shifts = append(c.Shifts, ShiftConfig{ID: s.ID, Name: s.Name, Start: s.Start, End: s.End})
		}
	}
	if c.Schedule.ReminderMinutesBefore <= 0 {
		c.Schedule.ReminderMinutesBefore = 30
	}
	if c.Schedule.LateAlertMinutesAfter <= 0 {
		c.Schedule.LateAlertMinutesAfter = 10
	}
	if c.Schedule.NightlyReportTime == "" {
		c.Schedule.NightlyReportTime = "23:50"
	}
	if c.Dialog.TimeoutMinutes <= 0 {
		c.Dialog.TimeoutMinutes = 15
	}
	if c.Notifications.RatePerSecond <= 0 {
		c.Notifications.RatePerSecond = 25
	}
	if c.Notifications.Burst <= 0 {
		c.Notifications.Burst = 5
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
}

// Validate reports the first configuration problem as *Error.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == placeholderToken {
		return &Error{Field: "telegram.bot_token", Reason: "bot credential is required (or set BOT_TOKEN)"}
	}
	if len(c.Roles.Managers) == 0 && len(c.Roles.SuperAdmins) == 0 {
		return &Error{Field: "roles", Reason: "at least one manager or super admin id is required"}
	}
	loc, err := c.Location()
	if err != nil {
		return &Error{Field: "schedule.timezone", Reason: err.Error()}
	}
	if _, err := shifts.NewCatalog(c.ShiftTable(), loc); err != nil {
		return &Error{Field: "shifts", Reason: err.Error()}
	}
	d, err := shifts.ParseClock(c.Schedule.NightlyReportTime)
	if err != nil {
		return &Error{Field: "schedule.nightly_report_time", Reason: err.Error()}
	}
	if d >= 24*time.Hour {
		return &Error{Field: "schedule.nightly_report_time", Reason: "must be before 24:00"}
	}
	return nil
}

// Location returns the scheduling location; empty or "Local" means the server clock.
func (c *Config) Location() (*time.Location, error) {
	if c.Schedule.Timezone == "" || c.Schedule.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Schedule.Timezone)
}

// ShiftTable converts the configured shifts into catalog input.
func (c *Config) ShiftTable() []model.Shift {
	out := make([]model.Shift, 0, len(c.Shifts))
	for _, s := range c.Shifts {
		out = append(out, model.Shift{ID: s.ID, Name: s.Name, Start: s.Start, End: s.End})
	}
	return out
}

func (c *Config) ReminderBefore() time.Duration {
	return time.Duration(c.Schedule.ReminderMinutesBefore) * time.Minute
}

func (c *Config) LateAlertAfter() time.Duration {
	return time.Duration(c.Schedule.LateAlertMinutesAfter) * time.Minute
}

// NightlyReportOffset is the report time as an offset from midnight.
func (c *Config) NightlyReportOffset() time.Duration {
	d, _ := shifts.ParseClock(c.Schedule.NightlyReportTime)
	return d
}

func (c *Config) DialogTimeout() time.Duration {
	return time.Duration(c.Dialog.TimeoutMinutes) * time.Minute
}

// NotesRequireAssignment defaults to true.
func (c *Config) NotesRequireAssignment() bool {
	if c.Notes.RequireAssignment == nil {
		return true
	}
	return *c.Notes.RequireAssignment
}
