package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velolab/trainsci"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trainsci.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 2000.0, cfg.Filter.MaxWatts)
	assert.Equal(t, uint32(120), cfg.CP.MinDurationSecs)
	assert.Equal(t, 400.0, cfg.Plan.OptimalWeeklyTSS)
	assert.Equal(t, "sensors/readings", cfg.MQTT.Topic)
	assert.Len(t, cfg.ZoneBounds(), 7)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
athlete:
  ftp_watts: 265
filter:
  max_watts: 1500
  max_delta_watts: 300
mqtt:
  broker_host: bike.local
  topic: bike/power
remote:
  url: https://predict.example.com
  request_timeout: 3s
goals:
  - name: spring classic
    type: event
    active: true
    target_date: 2026-05-10
    target_ctl: 85
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 265.0, cfg.Athlete.FTPWatts)
	assert.Equal(t, 1500.0, cfg.Filter.MaxWatts)
	assert.Equal(t, 300.0, cfg.FilterConfig().MaxDelta)
	assert.Equal(t, 0.0, cfg.Filter.MinWatts, "unset fields keep their defaults")
	assert.Equal(t, "bike.local", cfg.StreamConfig().BrokerHost)
	assert.Equal(t, 1883, cfg.StreamConfig().BrokerPort)
	assert.Equal(t, "https://predict.example.com", cfg.Remote.URL)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout())

	goals, err := cfg.TrainingGoals()
	require.NoError(t, err)
	require.Len(t, goals, 1)
	assert.Equal(t, trainsci.GoalEvent, goals[0].Type)
	require.NotNil(t, goals[0].TargetDate)
	assert.Equal(t, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), *goals[0].TargetDate)
	require.NotNil(t, goals[0].TargetCTL)
	assert.Equal(t, 85.0, *goals[0].TargetCTL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"inverted filter": "filter:\n  min_watts: 500\n  max_watts: 100\n",
		"inverted cp":     "critical_power:\n  min_duration_secs: 1200\n  max_duration_secs: 120\n",
		"zero plan tss":   "plan:\n  optimal_weekly_tss: 0\n",
		"bad goal type":   "goals:\n  - name: x\n    type: sprinting\n",
		"bad goal date":   "goals:\n  - name: x\n    type: event\n    target_date: May 10\n",
		"bad timeout":     "remote:\n  request_timeout: fast\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestCustomZoneBounds(t *testing.T) {
	path := writeConfig(t, `
zones:
  - name: easy
    min_pct_ftp: 0
    max_pct_ftp: 75
  - name: hard
    min_pct_ftp: 75
    max_pct_ftp: 200
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.ZoneBounds(), 2)
	assert.Equal(t, "hard", cfg.ZoneBounds()[1].Name)
}
