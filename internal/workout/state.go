package workout

import "fmt"

// State is the workout session lifecycle.
type State int

const (
	NeedsAuthorization State = iota
	NotStarted
	Started
	Ended
)

func (s State) String() string {
	switch s {
	case NeedsAuthorization:
		return "needsAuthorization"
	case NotStarted:
		return "notStarted"
	case Started:
		return "started"
	case Ended:
		return "ended"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// CanStart reports whether a Start command is offered in this state.
// Ended behaves like NotStarted so a workout can be restarted without
// authorizing again.
func (s State) CanStart() bool {
	return s == NotStarted || s == Ended
}

// CanStop reports whether a Stop command is offered in this state.
func (s State) CanStop() bool {
	return s == Started
}
