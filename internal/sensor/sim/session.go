package sim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/asheshgoplani/caloriesburner/internal/sensor"
)

type session struct {
	sim     *Simulator
	cfg     sensor.SessionConfig
	sink    sensor.EventSink
	builder *builder

	mu        sync.Mutex
	state     sensor.RunState
	startedAt time.Time
}

func (s *session) StartActivity(at time.Time) {
	s.mu.Lock()
	if s.state != sensor.RunStateNotStarted {
		s.mu.Unlock()
		return
	}
	s.state = sensor.RunStateRunning
	s.startedAt = at
	s.mu.Unlock()

	s.deliver(sensor.StateChanged{From: sensor.RunStateNotStarted, To: sensor.RunStateRunning, At: at})
}

func (s *session) End() {
	s.mu.Lock()
	if s.state == sensor.RunStateEnded {
		s.mu.Unlock()
		return
	}
	from := s.state
	s.state = sensor.RunStateEnded
	s.mu.Unlock()

	// The activity clock stopped; no further samples
	s.builder.stopWorker()
	s.deliver(sensor.StateChanged{From: from, To: sensor.RunStateEnded, At: time.Now()})
}

func (s *session) Builder() sensor.Builder { return s.builder }

func (s *session) isEnded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == sensor.RunStateEnded
}

func (s *session) elapsed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startedAt.IsZero() {
		return 0
	}
	return now.Sub(s.startedAt)
}

func (s *session) deliver(ev sensor.Event) {
	defer func() {
		if r := recover(); r != nil {
			s.sim.logger.Printf("[SIM] EVENT SINK PANIC (recovered): %v", r)
		}
	}()
	s.sink(ev)
}

// builder collects samples from a worker goroutine while collection runs.
type builder struct {
	sess *session

	mu         sync.Mutex
	stats      map[sensor.ObjectType]sensor.Statistic
	begun      bool
	collecting bool
	finished   bool
	startedAt  time.Time
	endedAt    time.Time
	cancel     context.CancelFunc
	done       chan struct{}
	heartRate  float64
}

func (b *builder) BeginCollection(ctx context.Context, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := b.sess.sim.config()
	if cfg.FailBeginCollection {
		return errors.New("simulated collection start failure")
	}
	if b.sess.isEnded() {
		return errors.New("session already ended")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.begun {
		return errors.New("collection already begun")
	}
	b.begun = true
	b.collecting = true
	b.startedAt = at
	b.heartRate = cfg.RestingHeartRate
	for _, t := range []sensor.ObjectType{sensor.ObjectHeartRate, sensor.ObjectActiveEnergyBurned} {
		b.stats[t] = sensor.NewStatistic(t, at)
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	b.cancel = cancel
	b.done = make(chan struct{})
	go b.collect(workerCtx, b.done)
	return nil
}

func (b *builder) EndCollection(ctx context.Context, at time.Time) error {
	b.mu.Lock()
	begun := b.begun
	b.mu.Unlock()
	if !begun {
		return sensor.ErrNotCollecting
	}

	// Ending the session may already have stopped the worker
	b.stopWorker()

	b.mu.Lock()
	if b.endedAt.IsZero() {
		b.endedAt = at
	}
	b.mu.Unlock()
	return nil
}

func (b *builder) FinishWorkout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished {
		return errors.New("workout already finished")
	}
	if b.endedAt.IsZero() {
		return fmt.Errorf("finish before ending collection: %w", sensor.ErrNotCollecting)
	}
	b.finished = true

	energy := 0.0
	if stat, ok := b.stats[sensor.ObjectActiveEnergyBurned]; ok {
		if q, ok := stat.SumQuantity(); ok {
			energy, _ = q.In(sensor.UnitKilocalorie)
		}
	}
	b.sess.sim.logger.Printf("[SIM] Workout finished: %s %s, %v, %.2f kcal",
		b.sess.cfg.Activity, b.sess.cfg.Location, b.endedAt.Sub(b.startedAt).Round(time.Second), energy)
	return nil
}

func (b *builder) Statistic(t sensor.ObjectType) (sensor.Statistic, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	stat, ok := b.stats[t]
	if !ok {
		return sensor.Statistic{}, false
	}
	return stat.Clone(), true
}

// stopWorker cancels the sampling goroutine and waits for it to exit.
func (b *builder) stopWorker() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.cancel, b.done = nil, nil
	b.collecting = false
	b.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// collect runs until ctx is cancelled, emitting one batch per tick.
func (b *builder) collect(ctx context.Context, done chan struct{}) {
	defer close(done)

	interval := b.sess.sim.config().SampleInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			cfg := b.sess.sim.config()
			if cfg.SampleInterval != interval {
				interval = cfg.SampleInterval
				ticker.Reset(interval)
			}
			if !b.sess.sim.limiter.Allow() {
				continue
			}
			func() {
				defer func() {
					if r := recover(); r != nil {
						b.sess.sim.logger.Printf("[SIM] SAMPLE WORKER PANIC (recovered): %v", r)
					}
				}()
				b.sample(ctx, cfg, now, interval)
			}()
		}
	}
}

// sample adds one heart-rate reading and the energy burned since the last tick.
func (b *builder) sample(ctx context.Context, cfg Config, now time.Time, interval time.Duration) {
	elapsed := b.sess.elapsed(now)
	noise := (b.sess.sim.float64n() - 0.5) * 4

	b.mu.Lock()
	if !b.collecting || ctx.Err() != nil {
		b.mu.Unlock()
		return
	}
	target := targetHeartRate(cfg, elapsed)
	b.heartRate += (target-b.heartRate)*0.2 + noise
	b.heartRate = math.Max(cfg.RestingHeartRate*0.8, math.Min(cfg.PeakHeartRate, b.heartRate))
	bpm := math.Round(b.heartRate)

	intensity := (bpm - cfg.RestingHeartRate) / (cfg.PeakHeartRate - cfg.RestingHeartRate)
	kcal := cfg.KcalPerMinute * interval.Minutes() * (0.3 + 0.7*math.Max(0, intensity))

	hr := b.stats[sensor.ObjectHeartRate]
	hr.Add(sensor.Quantity{Value: bpm, Unit: sensor.UnitCountPerMinute}, now)
	b.stats[sensor.ObjectHeartRate] = hr

	energy := b.stats[sensor.ObjectActiveEnergyBurned]
	energy.Add(sensor.Quantity{Value: kcal, Unit: sensor.UnitKilocalorie}, now)
	b.stats[sensor.ObjectActiveEnergyBurned] = energy
	b.mu.Unlock()

	b.sess.deliver(sensor.SampleBatch{
		Source: b,
		Types:  []sensor.ObjectType{sensor.ObjectHeartRate, sensor.ObjectActiveEnergyBurned},
	})
}

// targetHeartRate ramps from resting to 75% of the reserve over three minutes.
func targetHeartRate(cfg Config, elapsed time.Duration) float64 {
	const rampUp = 3 * time.Minute
	progress := math.Min(1, elapsed.Seconds()/rampUp.Seconds())
	return cfg.RestingHeartRate + 0.75*(cfg.PeakHeartRate-cfg.RestingHeartRate)*progress
}
