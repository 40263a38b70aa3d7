package workout

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/asheshgoplani/caloriesburner/internal/sensor"
)

// Metric is a live quantity shown during a workout.
type Metric int

const (
	HeartRate Metric = iota
	ActiveEnergy
)

func (m Metric) String() string {
	switch m {
	case HeartRate:
		return "heartRate"
	case ActiveEnergy:
		return "activeEnergy"
	}
	return fmt.Sprintf("Metric(%d)", int(m))
}

// metricRule says where a metric comes from and how it is displayed.
type metricRule struct {
	object  sensor.ObjectType
	unit    sensor.Unit
	extract func(sensor.Statistic) (sensor.Quantity, bool)
	format  func(float64) string
}

var metricRules = map[Metric]metricRule{
	HeartRate: {
		object:  sensor.ObjectHeartRate,
		unit:    sensor.UnitCountPerMinute,
		extract: sensor.Statistic.MostRecentQuantity,
		format:  FormatHeartRate,
	},
	ActiveEnergy: {
		object:  sensor.ObjectActiveEnergyBurned,
		unit:    sensor.UnitKilocalorie,
		extract: sensor.Statistic.SumQuantity,
		format:  FormatActiveEnergy,
	},
}

// metricFor maps a provider quantity type to the metric it feeds.
func metricFor(t sensor.ObjectType) (Metric, bool) {
	for m, rule := range metricRules {
		if rule.object == t {
			return m, true
		}
	}
	return 0, false
}

// Aggregator turns running statistics into display strings. It keeps no
// state; the most recent value lives with the caller.
type Aggregator struct{}

// Format renders stat for metric m. ok is false when the statistic has no
// usable value yet, in which case the previous text should be kept.
func (Aggregator) Format(m Metric, stat sensor.Statistic) (text string, ok bool) {
	rule, known := metricRules[m]
	if !known {
		return "", false
	}
	q, ok := rule.extract(stat)
	if !ok {
		return "", false
	}
	v, err := q.In(rule.unit)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}
	return rule.format(v), true
}

// FormatHeartRate renders beats per minute, e.g. "72.0 BPM".
func FormatHeartRate(bpm float64) string {
	s := strconv.FormatFloat(bpm, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + " BPM"
}

// FormatActiveEnergy renders kilocalories with two decimals, e.g. "123.46 kcal".
func FormatActiveEnergy(kcal float64) string {
	return fmt.Sprintf("%.2f kcal", kcal)
}
