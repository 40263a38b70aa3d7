package sensor

import "fmt"

// ObjectType identifies a kind of data the provider can share or read.
type ObjectType string

const (
	ObjectWorkout            ObjectType = "workout"
	ObjectHeartRate          ObjectType = "heartRate"
	ObjectActiveEnergyBurned ObjectType = "activeEnergyBurned"
)

// ActivityType is the workout activity category.
type ActivityType string

const (
	ActivityRunning ActivityType = "running"
	ActivityWalking ActivityType = "walking"
	ActivityCycling ActivityType = "cycling"
	ActivityOther   ActivityType = "other"
)

// LocationType tells the provider whether the workout happens indoors.
type LocationType string

const (
	LocationIndoor  LocationType = "indoor"
	LocationOutdoor LocationType = "outdoor"
	LocationUnknown LocationType = "unknown"
)

// SessionConfig is passed to Provider.CreateSession.
type SessionConfig struct {
	Activity ActivityType
	Location LocationType
}

// Validate checks that the activity and location are known values.
func (c SessionConfig) Validate() error {
	switch c.Activity {
	case ActivityRunning, ActivityWalking, ActivityCycling, ActivityOther:
	default:
		return fmt.Errorf("unknown activity type %q", c.Activity)
	}
	switch c.Location {
	case LocationIndoor, LocationOutdoor, LocationUnknown:
	default:
		return fmt.Errorf("unknown location type %q", c.Location)
	}
	return nil
}

// RunState is the provider's own view of a session.
type RunState int

const (
	RunStateNotStarted RunState = iota
	RunStateRunning
	RunStatePaused
	RunStateStopped
	RunStateEnded
)

func (s RunState) String() string {
	switch s {
	case RunStateNotStarted:
		return "notStarted"
	case RunStateRunning:
		return "running"
	case RunStatePaused:
		return "paused"
	case RunStateStopped:
		return "stopped"
	case RunStateEnded:
		return "ended"
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}
