// Package config loads the engine configuration from a YAML file, filling in
// defaults for anything the file leaves out.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/velolab/trainsci"
	"github.com/velolab/trainsci/metrics"
	"github.com/velolab/trainsci/power"
	"github.com/velolab/trainsci/stream"
)

// Config is the full engine configuration.
type Config struct {
	Athlete AthleteConfig       `yaml:"athlete"`
	Filter  FilterConfig        `yaml:"filter"`
	Zones   []metrics.ZoneBound `yaml:"zones,omitempty"`
	CP      CPConfig            `yaml:"critical_power"`
	Plan    PlanConfig          `yaml:"plan"`
	History HistoryConfig       `yaml:"history"`
	MQTT    MQTTConfig          `yaml:"mqtt"`
	Remote  RemoteConfig        `yaml:"remote"`
	Goals   []GoalConfig        `yaml:"goals,omitempty"`
}

// AthleteConfig carries the rider's current thresholds.
type AthleteConfig struct {
	FTPWatts              float64 `yaml:"ftp_watts"`
	FTPChangeThresholdPct float64 `yaml:"ftp_change_threshold_pct"`
}

// FilterConfig mirrors the power filter settings.
type FilterConfig struct {
	MinWatts float64 `yaml:"min_watts"`
	MaxWatts float64 `yaml:"max_watts"`
	MaxDelta float64 `yaml:"max_delta_watts"`
}

// CPConfig bounds the model fitting window.
type CPConfig struct {
	MinDurationSecs uint32 `yaml:"min_duration_secs"`
	MaxDurationSecs uint32 `yaml:"max_duration_secs"`
}

// PlanConfig seeds the adaptation model.
type PlanConfig struct {
	OptimalWeeklyTSS float64 `yaml:"optimal_weekly_tss"`
	Distribution     string  `yaml:"distribution"`
}

// HistoryConfig locates the training load archive.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// MQTTConfig carries live sensor broker settings.
type MQTTConfig struct {
	BrokerHost      string `yaml:"broker_host"`
	BrokerPort      int    `yaml:"broker_port"`
	Topic           string `yaml:"topic"`
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	UseTLS          bool   `yaml:"use_tls"`
	InsecureSkipTLS bool   `yaml:"insecure_skip_tls"`
	QueueSize       int    `yaml:"queue_size"`
}

// RemoteConfig points at the optional prediction service. An empty URL
// disables it.
type RemoteConfig struct {
	URL            string `yaml:"url"`
	RequestTimeout string `yaml:"request_timeout"` // e.g. "5s"
}

// Timeout parses the request timeout, falling back to the default on an
// empty value. Validate has already rejected malformed strings.
func (r RemoteConfig) Timeout() time.Duration {
	if r.RequestTimeout == "" {
		return 5 * time.Second
	}
	d, err := time.ParseDuration(r.RequestTimeout)
	if err != nil {
		return 5 * time.Second
	}
	return d
}

// GoalConfig is one training goal as written in the file.
type GoalConfig struct {
	Name       string   `yaml:"name"`
	Type       string   `yaml:"type"`
	Active     bool     `yaml:"active"`
	TargetDate string   `yaml:"target_date,omitempty"` // YYYY-MM-DD
	TargetCTL  *float64 `yaml:"target_ctl,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Athlete: AthleteConfig{FTPChangeThresholdPct: 5},
		Filter:  FilterConfig{MinWatts: 0, MaxWatts: 2000},
		CP:      CPConfig{MinDurationSecs: 120, MaxDurationSecs: 1200},
		Plan:    PlanConfig{OptimalWeeklyTSS: 400, Distribution: "polarized"},
		History: HistoryConfig{Path: "trainsci-history.parquet"},
		MQTT: MQTTConfig{
			BrokerHost: "localhost",
			BrokerPort: 1883,
			Topic:      "sensors/readings",
			QueueSize:  stream.DefaultQueueSize,
		},
		Remote: RemoteConfig{RequestTimeout: "5s"},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.Filter.MaxWatts <= c.Filter.MinWatts {
		return fmt.Errorf("filter: max_watts %.0f must exceed min_watts %.0f", c.Filter.MaxWatts, c.Filter.MinWatts)
	}
	if c.Athlete.FTPWatts < 0 {
		return fmt.Errorf("athlete: ftp_watts must not be negative")
	}
	if c.CP.MinDurationSecs >= c.CP.MaxDurationSecs {
		return fmt.Errorf("critical_power: min_duration_secs must be below max_duration_secs")
	}
	if c.Plan.OptimalWeeklyTSS <= 0 {
		return fmt.Errorf("plan: optimal_weekly_tss must be positive")
	}
	if c.Remote.RequestTimeout != "" {
		if _, err := time.ParseDuration(c.Remote.RequestTimeout); err != nil {
			return fmt.Errorf("remote: parse request_timeout: %w", err)
		}
	}
	for i, bound := range c.Zones {
		if bound.MaxPctFTP <= bound.MinPctFTP {
			return fmt.Errorf("zones[%d] %q: max_pct_ftp must exceed min_pct_ftp", i, bound.Name)
		}
	}
	for i, g := range c.Goals {
		if _, err := g.goal(); err != nil {
			return fmt.Errorf("goals[%d] %q: %w", i, g.Name, err)
		}
	}
	return nil
}

// FilterConfig resolves the power filter settings.
func (c Config) FilterConfig() power.FilterConfig {
	return power.FilterConfig{
		MinWatts: c.Filter.MinWatts,
		MaxWatts: c.Filter.MaxWatts,
		MaxDelta: c.Filter.MaxDelta,
	}
}

// ZoneBounds resolves the zone table, defaulting to the standard seven zones.
func (c Config) ZoneBounds() []metrics.ZoneBound {
	if len(c.Zones) == 0 {
		return metrics.DefaultZoneBounds()
	}
	return c.Zones
}

// StreamConfig resolves the live collector settings.
func (c Config) StreamConfig() stream.Config {
	return stream.Config{
		BrokerHost:      c.MQTT.BrokerHost,
		BrokerPort:      c.MQTT.BrokerPort,
		Topic:           c.MQTT.Topic,
		Username:        c.MQTT.Username,
		Password:        c.MQTT.Password,
		UseTLS:          c.MQTT.UseTLS,
		InsecureSkipTLS: c.MQTT.InsecureSkipTLS,
		QueueSize:       c.MQTT.QueueSize,
	}
}

// TrainingGoals resolves the configured goals.
func (c Config) TrainingGoals() ([]trainsci.Goal, error) {
	goals := make([]trainsci.Goal, 0, len(c.Goals))
	for i, g := range c.Goals {
		goal, err := g.goal()
		if err != nil {
			return nil, fmt.Errorf("goals[%d] %q: %w", i, g.Name, err)
		}
		goals = append(goals, goal)
	}
	return goals, nil
}

func (g GoalConfig) goal() (trainsci.Goal, error) {
	goal := trainsci.Goal{
		Name:      g.Name,
		Active:    g.Active,
		TargetCTL: g.TargetCTL,
	}
	switch g.Type {
	case "vo2max":
		goal.Type = trainsci.GoalVO2Max
	case "endurance":
		goal.Type = trainsci.GoalEndurance
	case "threshold":
		goal.Type = trainsci.GoalThreshold
	case "event":
		goal.Type = trainsci.GoalEvent
	default:
		return goal, fmt.Errorf("unknown goal type %q", g.Type)
	}
	if g.TargetDate != "" {
		date, err := time.Parse("2006-01-02", g.TargetDate)
		if err != nil {
			return goal, fmt.Errorf("parse target_date: %w", err)
		}
		goal.TargetDate = &date
	}
	return goal, nil
}
