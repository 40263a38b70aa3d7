package sensor

import "time"

// Statistic is the running aggregate a Builder keeps for one quantity type.
type Statistic struct {
	Type       ObjectType
	Start      time.Time
	End        time.Time
	mostRecent *Quantity
	sum        *Quantity
}

// NewStatistic returns an empty statistic for t.
func NewStatistic(t ObjectType, start time.Time) Statistic {
	return Statistic{Type: t, Start: start, End: start}
}

// Add folds a sample into the statistic. The sum is kept in the unit of the
// first sample; samples in incompatible units are dropped.
func (s *Statistic) Add(q Quantity, at time.Time) {
	if s.sum == nil {
		sum := q
		s.sum = &sum
	} else {
		v, err := q.In(s.sum.Unit)
		if err != nil {
			return
		}
		s.sum.Value += v
	}
	latest := q
	s.mostRecent = &latest
	if at.After(s.End) {
		s.End = at
	}
}

// MostRecentQuantity returns the last sample added.
func (s Statistic) MostRecentQuantity() (Quantity, bool) {
	if s.mostRecent == nil {
		return Quantity{}, false
	}
	return *s.mostRecent, true
}

// SumQuantity returns the cumulative sum of all samples.
func (s Statistic) SumQuantity() (Quantity, bool) {
	if s.sum == nil {
		return Quantity{}, false
	}
	return *s.sum, true
}

// Clone returns a copy that shares no state with s.
func (s Statistic) Clone() Statistic {
	out := s
	if s.mostRecent != nil {
		q := *s.mostRecent
		out.mostRecent = &q
	}
	if s.sum != nil {
		q := *s.sum
		out.sum = &q
	}
	return out
}
