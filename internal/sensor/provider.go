// Package sensor describes the biometric sensor provider the workout
// controller talks to: authorization, session creation, live data collection
// and the events the provider reports back.
package sensor

import (
	"context"
	"errors"
	"time"
)

// Provider errors. Implementations wrap these so callers can match with errors.Is.
var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrUnavailable   = errors.New("sensor subsystem unavailable")
	ErrSessionActive = errors.New("a session is already active")
	ErrNotCollecting = errors.New("collection has not begun")
)

// Provider is the sensor/permission capability consumed by the workout
// controller. It is a black box: it grants authorization, creates sessions
// and delivers events asynchronously through the sink given at creation.
type Provider interface {
	// Available reports whether the sensor subsystem exists on this device
	Available() bool

	// RequestAuthorization asks for permission to share and read the given types
	RequestAuthorization(ctx context.Context, share, read []ObjectType) error

	// CreateSession creates a workout session and its data-collection builder.
	// All session and builder events are delivered to sink.
	CreateSession(cfg SessionConfig, sink EventSink) (Session, error)
}

// Session is a provider-side workout session. Its activity clock is driven
// by StartActivity and End.
type Session interface {
	// StartActivity starts the session's activity clock at the given time
	StartActivity(at time.Time)

	// End ends the session's activity. Safe to call more than once.
	End()

	// Builder returns the data-collection builder paired with this session
	Builder() Builder
}

// Builder collects live samples for a session and keeps running statistics.
type Builder interface {
	// BeginCollection starts collecting samples
	BeginCollection(ctx context.Context, at time.Time) error

	// EndCollection stops collecting samples
	EndCollection(ctx context.Context, at time.Time) error

	// FinishWorkout finalizes the collected workout
	FinishWorkout(ctx context.Context) error

	// Statistic returns the running statistic for a quantity type.
	// ok is false when nothing has been collected for it yet.
	Statistic(t ObjectType) (stat Statistic, ok bool)
}

// StatisticSource is the read side of a Builder, passed along with sample
// batches so the receiver can re-query the running statistic.
type StatisticSource interface {
	Statistic(t ObjectType) (Statistic, bool)
}

var _ StatisticSource = Builder(nil)
