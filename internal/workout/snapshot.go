package workout

import "fmt"

// Snapshot is the UI-facing copy of the session state and the two metrics.
type Snapshot struct {
	State         State
	HeartRateText string
	CaloriesText  string
}

// Field names one member of a Snapshot.
type Field int

const (
	FieldState Field = iota
	FieldHeartRate
	FieldCalories
	fieldCount
)

func (f Field) String() string {
	switch f {
	case FieldState:
		return "state"
	case FieldHeartRate:
		return "heartRate"
	case FieldCalories:
		return "calories"
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// Update carries one changed field from the controller to the UI context.
// Seq increases with every controller mutation, so an update that arrives
// after a newer one for the same field can be recognized and dropped.
type Update struct {
	Seq   uint64
	Field Field
	State State
	Text  string
}

// Publisher receives updates. Publish must not block for long and is
// called from whichever goroutine made the change.
type Publisher interface {
	Publish(u Update)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(Update)

func (f PublisherFunc) Publish(u Update) { f(u) }

type discardPublisher struct{}

func (discardPublisher) Publish(Update) {}

// Projection applies updates in order of Seq to a Snapshot. It is owned by a
// single goroutine and is not safe for concurrent use.
type Projection struct {
	snapshot Snapshot
	seen     [fieldCount]uint64
}

// NewProjection starts from the controller's initial snapshot.
func NewProjection() Projection {
	return Projection{snapshot: Snapshot{State: NeedsAuthorization}}
}

// Apply folds u into the snapshot. It returns false for stale or unknown updates.
func (p *Projection) Apply(u Update) bool {
	if u.Field < 0 || u.Field >= fieldCount {
		return false
	}
	if u.Seq != 0 && u.Seq <= p.seen[u.Field] {
		return false
	}
	p.seen[u.Field] = u.Seq
	switch u.Field {
	case FieldState:
		p.snapshot.State = u.State
	case FieldHeartRate:
		p.snapshot.HeartRateText = u.Text
	case FieldCalories:
		p.snapshot.CaloriesText = u.Text
	}
	return true
}

// Snapshot returns the current projected snapshot.
func (p *Projection) Snapshot() Snapshot {
	return p.snapshot
}
