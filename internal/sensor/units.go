package sensor

import "fmt"

// Unit is a measurement unit for a Quantity.
type Unit string

const (
	UnitCountPerMinute Unit = "count/min"
	UnitCountPerSecond Unit = "count/s"
	UnitKilocalorie    Unit = "kcal"
	UnitCalorie        Unit = "cal"
	UnitKilojoule      Unit = "kJ"
)

// dimension groups units that convert into each other. factor scales a
// value in the unit to the dimension's base unit.
type dimension struct {
	name   string
	factor float64
}

var units = map[Unit]dimension{
	UnitCountPerMinute: {"frequency", 1},
	UnitCountPerSecond: {"frequency", 60},
	UnitKilocalorie:    {"energy", 1},
	UnitCalorie:        {"energy", 0.001},
	UnitKilojoule:      {"energy", 1 / 4.184},
}

// Quantity is a value with its unit.
type Quantity struct {
	Value float64
	Unit  Unit
}

// In converts q to the target unit.
func (q Quantity) In(target Unit) (float64, error) {
	from, ok := units[q.Unit]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", q.Unit)
	}
	to, ok := units[target]
	if !ok {
		return 0, fmt.Errorf("unknown unit %q", target)
	}
	if from.name != to.name {
		return 0, fmt.Errorf("cannot convert %s to %s", q.Unit, target)
	}
	if q.Unit == target {
		return q.Value, nil
	}
	return q.Value * from.factor / to.factor, nil
}

func (q Quantity) String() string {
	return fmt.Sprintf("%g %s", q.Value, q.Unit)
}
