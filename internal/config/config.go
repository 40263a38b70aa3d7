// Package config loads the caloriesburner TOML configuration.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/caloriesburner/internal/sensor"
	"github.com/asheshgoplani/caloriesburner/internal/sensor/sim"
)

// HomeEnv overrides the directory holding config.toml and debug.log.
const HomeEnv = "CALORIESBURNER_HOME"

// Config represents config.toml.
type Config struct {
	// LogFile receives log output while the dashboard owns the terminal
	LogFile string `toml:"log_file"`

	Workout   WorkoutSettings   `toml:"workout"`
	Simulator SimulatorSettings `toml:"simulator"`
	UI        UISettings        `toml:"ui"`
}

// WorkoutSettings is passed to the sensor provider when a session is created.
type WorkoutSettings struct {
	Activity string `toml:"activity"`
	Location string `toml:"location"`
}

// SimulatorSettings tunes the built-in sensor simulator.
type SimulatorSettings struct {
	SampleInterval   Duration `toml:"sample_interval"`
	RestingHeartRate float64  `toml:"resting_heart_rate"`
	PeakHeartRate    float64  `toml:"peak_heart_rate"`
	KcalPerMinute    float64  `toml:"kcal_per_minute"`

	// MaxBatchesPerSecond caps sample deliveries; 0 disables the cap.
	// Pointer so an explicit 0 can be told apart from "not set".
	MaxBatchesPerSecond *float64 `toml:"max_batches_per_second"`

	Seed uint64 `toml:"seed"`

	// Failure injection
	Unavailable         bool `toml:"unavailable"`
	DenyAuthorization   bool `toml:"deny_authorization"`
	FailBeginCollection bool `toml:"fail_begin_collection"`
}

// UISettings controls the dashboard.
type UISettings struct {
	NoColor bool `toml:"no_color"`
}

// Duration decodes TOML strings such as "500ms" or "2s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// HomeDir returns ~/.caloriesburner, or $CALORIESBURNER_HOME when set.
func HomeDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".caloriesburner"), nil
}

// DefaultPath returns the config file location inside HomeDir.
func DefaultPath() (string, error) {
	dir, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path. A missing file is not an error and yields Default().
// Defaults are applied after decoding, so unset keys keep their default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return Parse(string(data), path)
}

// Parse decodes TOML content. source is only used in messages.
func Parse(content, source string) (*Config, error) {
	var cfg Config
	meta, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", source, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		log.Printf("[CONFIG] Warning: unknown keys in %s: %s", source, strings.Join(keys, ", "))
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", source, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Workout.Activity == "" {
		c.Workout.Activity = string(sensor.ActivityRunning)
	}
	if c.Workout.Location == "" {
		c.Workout.Location = string(sensor.LocationOutdoor)
	}
	s := &c.Simulator
	if s.SampleInterval.Duration == 0 {
		s.SampleInterval.Duration = sim.DefaultSampleInterval
	}
	if s.RestingHeartRate == 0 {
		s.RestingHeartRate = sim.DefaultRestingHeartRate
	}
	if s.PeakHeartRate == 0 {
		s.PeakHeartRate = sim.DefaultPeakHeartRate
	}
	if s.KcalPerMinute == 0 {
		s.KcalPerMinute = sim.DefaultKcalPerMinute
	}
	if s.MaxBatchesPerSecond == nil {
		v := sim.DefaultMaxBatchesPerSecond
		s.MaxBatchesPerSecond = &v
	}
}

// Validate rejects settings the provider or simulator cannot use.
func (c *Config) Validate() error {
	if err := c.SessionConfig().Validate(); err != nil {
		return fmt.Errorf("[workout]: %w", err)
	}
	s := c.Simulator
	if s.SampleInterval.Duration < 0 {
		return fmt.Errorf("[simulator] sample_interval must be positive, got %v", s.SampleInterval.Duration)
	}
	if s.RestingHeartRate < 0 || s.PeakHeartRate < 0 || s.KcalPerMinute < 0 {
		return fmt.Errorf("[simulator] heart rates and kcal_per_minute must not be negative")
	}
	if s.PeakHeartRate <= s.RestingHeartRate {
		return fmt.Errorf("[simulator] peak_heart_rate (%.0f) must exceed resting_heart_rate (%.0f)",
			s.PeakHeartRate, s.RestingHeartRate)
	}
	if s.MaxBatchesPerSecond != nil && *s.MaxBatchesPerSecond < 0 {
		return fmt.Errorf("[simulator] max_batches_per_second must not be negative")
	}
	return nil
}

// SessionConfig returns the provider session settings.
func (c *Config) SessionConfig() sensor.SessionConfig {
	return sensor.SessionConfig{
		Activity: sensor.ActivityType(c.Workout.Activity),
		Location: sensor.LocationType(c.Workout.Location),
	}
}

// SimulatorConfig returns the simulator settings.
func (c *Config) SimulatorConfig() sim.Config {
	s := c.Simulator
	cfg := sim.Config{
		SampleInterval:      s.SampleInterval.Duration,
		RestingHeartRate:    s.RestingHeartRate,
		PeakHeartRate:       s.PeakHeartRate,
		KcalPerMinute:       s.KcalPerMinute,
		Seed:                s.Seed,
		Unavailable:         s.Unavailable,
		DenyAuthorization:   s.DenyAuthorization,
		FailBeginCollection: s.FailBeginCollection,
	}
	if s.MaxBatchesPerSecond != nil {
		cfg.MaxBatchesPerSecond = *s.MaxBatchesPerSecond
	}
	return cfg
}

// LogPath returns LogFile with ~ expanded, or debug.log inside HomeDir.
func (c *Config) LogPath() (string, error) {
	if c.LogFile == "" {
		dir, err := HomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, "debug.log"), nil
	}
	if strings.HasPrefix(c.LogFile, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("get home directory: %w", err)
		}
		return filepath.Join(home, c.LogFile[2:]), nil
	}
	return c.LogFile, nil
}
