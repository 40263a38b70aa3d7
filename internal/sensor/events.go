package sensor

import "time"

// Event is one callback from the provider. The concrete types are
// SampleBatch, StateChanged, Failed and EventCollected.
type Event interface {
	isEvent()
}

// EventSink receives provider events. It may be called from any goroutine.
type EventSink func(Event)

// SampleBatch reports that new samples for Types were collected. Source is
// the builder that collected them and holds the updated statistics.
type SampleBatch struct {
	Source StatisticSource
	Types  []ObjectType
}

// StateChanged reports a provider-side session state transition.
type StateChanged struct {
	From RunState
	To   RunState
	At   time.Time
}

// Failed reports a session-level runtime failure.
type Failed struct {
	Err error
}

// EventCollected reports a workout event (pause marker, lap, ...).
type EventCollected struct{}

func (SampleBatch) isEvent()    {}
func (StateChanged) isEvent()   {}
func (Failed) isEvent()         {}
func (EventCollected) isEvent() {}
