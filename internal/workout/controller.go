// Package workout runs a single live workout session: authorization, the
// start/stop state machine, and the live heart-rate and energy readings that
// are published to the UI.
package workout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/asheshgoplani/caloriesburner/internal/sensor"
)

var (
	shareTypes = []sensor.ObjectType{sensor.ObjectWorkout}
	readTypes  = []sensor.ObjectType{sensor.ObjectHeartRate, sensor.ObjectActiveEnergyBurned}
)

// DefaultSessionConfig is used when Options.Session is zero.
var DefaultSessionConfig = sensor.SessionConfig{
	Activity: sensor.ActivityRunning,
	Location: sensor.LocationOutdoor,
}

// Options configures a Controller. The zero value is usable.
type Options struct {
	// Session is passed to the provider when a workout starts
	Session sensor.SessionConfig

	// Publisher receives every snapshot change. Defaults to discarding.
	Publisher Publisher

	// Logger defaults to log.Default()
	Logger *log.Logger

	// OnError is called with every failure after it is logged
	OnError func(error)

	// Now defaults to time.Now
	Now func() time.Time
}

// handle owns one provider session and its builder. released is guarded by
// Controller.mu and set once the handle is no longer current.
type handle struct {
	session  sensor.Session
	builder  sensor.Builder
	released bool
}

// Controller owns the workout state machine. Commands never return errors;
// the outcome is visible through State and the published updates.
type Controller struct {
	provider   sensor.Provider
	session    sensor.SessionConfig
	publisher  Publisher
	logger     *log.Logger
	onError    func(error)
	now        func() time.Time
	aggregator Aggregator

	mu        sync.Mutex
	state     State
	heartRate string
	calories  string
	handle    *handle
	busy      bool // start or stop in flight
	seq       uint64
}

// NewController creates a Controller in NeedsAuthorization.
func NewController(provider sensor.Provider, opts Options) *Controller {
	c := &Controller{
		provider:  provider,
		session:   opts.Session,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		onError:   opts.OnError,
		now:       opts.Now,
		state:     NeedsAuthorization,
	}
	if c.session == (sensor.SessionConfig{}) {
		c.session = DefaultSessionConfig
	}
	if c.publisher == nil {
		c.publisher = discardPublisher{}
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// State returns the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns the controller's own copy of the published values.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:         c.state,
		HeartRateText: c.heartRate,
		CaloriesText:  c.calories,
	}
}

// HasActiveSession reports whether a provider session is currently held.
func (c *Controller) HasActiveSession() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle != nil
}

// RequestAuthorization asks the provider for workout share and heart-rate /
// energy read access. Success moves to NotStarted, failure to
// NeedsAuthorization. While a workout is running the result is logged but the
// state is left alone, since Started must always match a held session.
func (c *Controller) RequestAuthorization(ctx context.Context) {
	err := c.provider.RequestAuthorization(ctx, shareTypes, readTypes)
	if err != nil {
		c.report(fmt.Errorf("%w: %w", ErrAuthorizationDenied, err))
	}

	next := NotStarted
	if err != nil {
		next = NeedsAuthorization
	}

	c.mu.Lock()
	if c.handle != nil {
		c.mu.Unlock()
		c.logger.Printf("[WORKOUT] Authorization result ignored while a workout is running")
		return
	}
	c.state = next
	u := c.stateUpdateLocked()
	c.mu.Unlock()

	c.publisher.Publish(u)
}

// Start begins a workout. It is a no-op while a session is held. The
// authorization result is not consulted here; the provider rejects the
// session if permission is missing.
//
// State becomes Started as soon as BeginCollection returns without error.
// The provider's own running confirmation arrives later as a StateChanged
// event and is only logged.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	if c.handle != nil || c.busy {
		c.mu.Unlock()
		return
	}
	c.busy = true
	c.mu.Unlock()
	defer c.clearBusy()

	if !c.provider.Available() {
		c.report(ErrDeviceUnsupported)
		return
	}

	h := &handle{}
	sess, err := c.provider.CreateSession(c.session, func(ev sensor.Event) {
		c.handleEvent(h, ev)
	})
	if err != nil {
		c.report(fmt.Errorf("%w: %w", ErrSessionCreationFailed, err))
		return
	}
	builder := sess.Builder()
	if builder == nil {
		sess.End()
		c.report(fmt.Errorf("%w: session has no builder", ErrSessionCreationFailed))
		return
	}
	h.session = sess
	h.builder = builder

	sess.StartActivity(c.now())

	if err := builder.BeginCollection(ctx, c.now()); err != nil {
		c.report(fmt.Errorf("%w: %w", ErrCollectionStartFailed, err))
		sess.End()

		c.mu.Lock()
		h.released = true
		c.state = NeedsAuthorization
		u := c.stateUpdateLocked()
		c.mu.Unlock()

		c.publisher.Publish(u)
		return
	}

	c.mu.Lock()
	c.handle = h
	c.state = Started
	u := c.stateUpdateLocked()
	c.mu.Unlock()

	c.publisher.Publish(u)
	c.logger.Printf("[WORKOUT] Workout session started (%s, %s)", c.session.Activity, c.session.Location)
}

// Stop ends the running workout. It is a no-op when no session is held.
// Failures while finalizing are logged and do not prevent the move to Ended.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	h := c.handle
	if h == nil || c.busy {
		c.mu.Unlock()
		return
	}
	c.busy = true
	c.mu.Unlock()
	defer c.clearBusy()

	h.session.End()

	if err := h.builder.EndCollection(ctx, c.now()); err != nil {
		c.report(fmt.Errorf("%w: ending data collection: %w", ErrCollectionFinalizeFailed, err))
	}
	if err := h.builder.FinishWorkout(ctx); err != nil {
		c.report(fmt.Errorf("%w: finishing workout: %w", ErrCollectionFinalizeFailed, err))
	}

	c.mu.Lock()
	c.state = Ended
	u := c.stateUpdateLocked()
	c.handle = nil
	h.released = true
	c.mu.Unlock()

	c.publisher.Publish(u)
	c.logger.Printf("[WORKOUT] Workout session ended")
}

func (c *Controller) clearBusy() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}

// handleEvent is the sink for one session's provider events.
func (c *Controller) handleEvent(h *handle, ev sensor.Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("[WORKOUT] EVENT HANDLER PANIC (recovered): %v", r)
		}
	}()

	switch ev := ev.(type) {
	case sensor.SampleBatch:
		c.handleSampleBatch(h, ev)
	case sensor.StateChanged:
		switch ev.To {
		case sensor.RunStateRunning:
			c.logger.Printf("[WORKOUT] Workout started.")
		case sensor.RunStateEnded:
			c.logger.Printf("[WORKOUT] Workout ended.")
		default:
			c.logger.Printf("[WORKOUT] Workout session state changed to %s.", ev.To)
		}
	case sensor.Failed:
		cause := ev.Err
		if cause == nil {
			cause = errors.New("unknown failure")
		}
		c.report(fmt.Errorf("%w: %w", ErrSessionRuntimeFailure, cause))
	case sensor.EventCollected:
		c.logger.Printf("[WORKOUT] Workout event collected.")
	default:
		c.logger.Printf("[WORKOUT] Ignoring unknown provider event %T", ev)
	}
}

// handleSampleBatch re-reads the running statistic for every metric in the
// batch. Types that are not tracked are skipped.
func (c *Controller) handleSampleBatch(h *handle, batch sensor.SampleBatch) {
	if batch.Source == nil {
		return
	}
	for _, t := range batch.Types {
		m, ok := metricFor(t)
		if !ok {
			continue
		}
		stat, ok := batch.Source.Statistic(t)
		if !ok {
			continue
		}
		text, ok := c.aggregator.Format(m, stat)
		if !ok {
			continue
		}
		switch m {
		case HeartRate:
			c.logger.Printf("[WORKOUT] Heart rate: %s", text)
		case ActiveEnergy:
			c.logger.Printf("[WORKOUT] Active Energy Burned: %s", text)
		}
		c.setMetric(h, m, text)
	}
}

func (c *Controller) setMetric(h *handle, m Metric, text string) {
	c.mu.Lock()
	if h.released {
		c.mu.Unlock()
		return
	}
	c.seq++
	u := Update{Seq: c.seq, Text: text}
	switch m {
	case HeartRate:
		c.heartRate = text
		u.Field = FieldHeartRate
	case ActiveEnergy:
		c.calories = text
		u.Field = FieldCalories
	}
	c.mu.Unlock()

	c.publisher.Publish(u)
}

// stateUpdateLocked must be called with c.mu held, right after c.state changed.
func (c *Controller) stateUpdateLocked() Update {
	c.seq++
	return Update{Seq: c.seq, Field: FieldState, State: c.state}
}

func (c *Controller) report(err error) {
	c.logger.Printf("[WORKOUT] Error: %v", err)
	if c.onError != nil {
		c.onError(err)
	}
}
