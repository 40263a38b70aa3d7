// Package sim is a software sensor provider. It grants authorization, runs
// one session at a time and feeds the builder with synthetic heart-rate and
// active-energy samples from a background worker.
package sim

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/asheshgoplani/caloriesburner/internal/sensor"
)

// Default simulator settings
const (
	DefaultSampleInterval      = time.Second
	DefaultRestingHeartRate    = 68.0
	DefaultPeakHeartRate       = 172.0
	DefaultKcalPerMinute       = 11.0
	DefaultMaxBatchesPerSecond = 10.0
)

// Config controls the synthetic signal and lets tests inject failures.
type Config struct {
	SampleInterval      time.Duration
	RestingHeartRate    float64
	PeakHeartRate       float64
	KcalPerMinute       float64
	MaxBatchesPerSecond float64 // <= 0 means unlimited
	Seed                uint64  // 0 picks a time-based seed

	Unavailable         bool
	DenyAuthorization   bool
	FailBeginCollection bool
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		SampleInterval:      DefaultSampleInterval,
		RestingHeartRate:    DefaultRestingHeartRate,
		PeakHeartRate:       DefaultPeakHeartRate,
		KcalPerMinute:       DefaultKcalPerMinute,
		MaxBatchesPerSecond: DefaultMaxBatchesPerSecond,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SampleInterval <= 0 {
		c.SampleInterval = d.SampleInterval
	}
	if c.RestingHeartRate <= 0 {
		c.RestingHeartRate = d.RestingHeartRate
	}
	if c.PeakHeartRate <= c.RestingHeartRate {
		c.PeakHeartRate = c.RestingHeartRate + (d.PeakHeartRate - d.RestingHeartRate)
	}
	if c.KcalPerMinute <= 0 {
		c.KcalPerMinute = d.KcalPerMinute
	}
	return c
}

func limitFor(perSecond float64) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

// Simulator implements sensor.Provider.
type Simulator struct {
	mu         sync.Mutex
	cfg        Config
	authorized bool
	active     *session
	rng        *rand.Rand
	limiter    *rate.Limiter
	logger     *log.Logger
}

var _ sensor.Provider = (*Simulator)(nil)

// New creates a simulator. A nil logger uses log.Default().
func New(cfg Config, logger *log.Logger) *Simulator {
	cfg = cfg.withDefaults()
	if logger == nil {
		logger = log.Default()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Simulator{
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		limiter: rate.NewLimiter(limitFor(cfg.MaxBatchesPerSecond), 1),
		logger:  logger,
	}
}

// Apply replaces the settings. A running session picks up the new sample
// interval and signal parameters on its next tick.
func (s *Simulator) Apply(cfg Config) {
	cfg = cfg.withDefaults()
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.limiter.SetLimit(limitFor(cfg.MaxBatchesPerSecond))
	s.logger.Printf("[SIM] Settings applied: interval=%v resting=%.0f peak=%.0f kcal/min=%.1f",
		cfg.SampleInterval, cfg.RestingHeartRate, cfg.PeakHeartRate, cfg.KcalPerMinute)
}

func (s *Simulator) config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Available reports whether the simulated sensor subsystem exists.
func (s *Simulator) Available() bool {
	return !s.config().Unavailable
}

// RequestAuthorization grants access unless DenyAuthorization is set.
func (s *Simulator) RequestAuthorization(ctx context.Context, share, read []sensor.ObjectType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.DenyAuthorization {
		s.authorized = false
		return fmt.Errorf("share %v, read %v: %w", share, read, sensor.ErrNotAuthorized)
	}
	s.authorized = true
	return nil
}

// CreateSession requires a prior successful authorization and allows one
// live session at a time.
func (s *Simulator) CreateSession(cfg sensor.SessionConfig, sink sensor.EventSink) (sensor.Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sink == nil {
		sink = func(sensor.Event) {}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg.Unavailable {
		return nil, sensor.ErrUnavailable
	}
	if !s.authorized {
		return nil, sensor.ErrNotAuthorized
	}
	if s.active != nil && !s.active.isEnded() {
		return nil, sensor.ErrSessionActive
	}

	sess := &session{sim: s, cfg: cfg, sink: sink, state: sensor.RunStateNotStarted}
	sess.builder = &builder{
		sess:  sess,
		stats: make(map[sensor.ObjectType]sensor.Statistic),
	}
	s.active = sess
	return sess, nil
}

// float64n draws from the shared generator.
func (s *Simulator) float64n() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}
