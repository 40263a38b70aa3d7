package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asheshgoplani/caloriesburner/internal/sensor"
	"github.com/asheshgoplani/caloriesburner/internal/sensor/sim"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "caloriesburner-config-")
	if err != nil {
		panic(err)
	}
	os.Setenv(HomeEnv, dir)
	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, sensor.SessionConfig{Activity: sensor.ActivityRunning, Location: sensor.LocationOutdoor}, cfg.SessionConfig())
	assert.Equal(t, sim.DefaultSampleInterval, cfg.Simulator.SampleInterval.Duration)
	require.NotNil(t, cfg.Simulator.MaxBatchesPerSecond)
	assert.Equal(t, sim.DefaultMaxBatchesPerSecond, *cfg.Simulator.MaxBatchesPerSecond)
}

func TestLoad_Overrides(t *testing.T) {
	path := writeConfig(t, `
log_file = "/tmp/workout.log"

[workout]
activity = "cycling"
location = "indoor"

[simulator]
sample_interval = "250ms"
resting_heart_rate = 55.0
peak_heart_rate = 185.0
kcal_per_minute = 14.5
max_batches_per_second = 0.0
seed = 99
fail_begin_collection = true

[ui]
no_color = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/workout.log", cfg.LogFile)
	assert.Equal(t, sensor.SessionConfig{Activity: sensor.ActivityCycling, Location: sensor.LocationIndoor}, cfg.SessionConfig())
	assert.True(t, cfg.UI.NoColor)

	sc := cfg.SimulatorConfig()
	assert.Equal(t, 250*time.Millisecond, sc.SampleInterval)
	assert.Equal(t, 55.0, sc.RestingHeartRate)
	assert.Equal(t, 185.0, sc.PeakHeartRate)
	assert.Equal(t, 14.5, sc.KcalPerMinute)
	assert.Equal(t, 0.0, sc.MaxBatchesPerSecond, "explicit zero disables the cap")
	assert.Equal(t, uint64(99), sc.Seed)
	assert.True(t, sc.FailBeginCollection)
	assert.False(t, sc.DenyAuthorization)
}

func TestLoad_PartialSectionKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
[simulator]
kcal_per_minute = 8.0
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8.0, cfg.Simulator.KcalPerMinute)
	assert.Equal(t, sim.DefaultRestingHeartRate, cfg.Simulator.RestingHeartRate)
	assert.Equal(t, string(sensor.ActivityRunning), cfg.Workout.Activity)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"bad toml", `[workout`},
		{"bad duration", "[simulator]\nsample_interval = \"soon\""},
		{"negative duration", "[simulator]\nsample_interval = \"-1s\""},
		{"unknown activity", "[workout]\nactivity = \"skydiving\""},
		{"peak below resting", "[simulator]\nresting_heart_rate = 90.0\npeak_heart_rate = 80.0"},
		{"negative rate", "[simulator]\nmax_batches_per_second = -2.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDurationRoundTrip(t *testing.T) {
	var settings struct {
		Interval Duration `toml:"interval"`
	}
	_, err := toml.Decode(`interval = "1m30s"`, &settings)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, settings.Interval.Duration)

	text, err := settings.Interval.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(HomeEnv, dir)

	path, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), path)

	logPath, err := Default().LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "debug.log"), logPath)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	cfg := &Config{LogFile: "~/logs/workout.log"}
	logPath, err = cfg.LogPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "logs", "workout.log"), logPath)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "[simulator]\nkcal_per_minute = 5.0\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var reloaded []*Config
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config) {
			mu.Lock()
			reloaded = append(reloaded, cfg)
			mu.Unlock()
		})
	}()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)

	// Invalid content is skipped
	require.NoError(t, os.WriteFile(path, []byte("[workout\n"), 0600))
	time.Sleep(300 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[simulator]\nkcal_per_minute = 12.0\n"), 0600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(reloaded) > 0 && reloaded[len(reloaded)-1].Simulator.KcalPerMinute == 12
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	assert.NoError(t, <-done)
}
