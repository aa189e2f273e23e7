package timeslot

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a slot's end does not come after its start.
var ErrInvalidRange = errors.New("timeslot: end must be after start")

// Slot is a half-open time interval [Start, End). The end instant is excluded,
// so two back-to-back slots sharing a boundary do not overlap.
type Slot struct {
	Start time.Time
	End   time.Time
}

// New validates the range and returns the slot.
func New(start, end time.Time) (Slot, error) {
	if !end.After(start) {
		return Slot{}, ErrInvalidRange
	}
	return Slot{Start: start, End: end}, nil
}

// Duration returns the width of the slot.
func (s Slot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// Contains reports whether t falls inside the slot. The end instant is
// excluded.
func (s Slot) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// IsZero reports whether both bounds are the zero time.
func (s Slot) IsZero() bool {
	return s.Start.IsZero() && s.End.IsZero()
}

// UTC returns the slot with both bounds converted to UTC. Comparisons between
// slots must only happen after both operands share a zone.
func (s Slot) UTC() Slot {
	return Slot{Start: s.Start.UTC(), End: s.End.UTC()}
}

// In returns the slot with both bounds converted to the provided location.
func (s Slot) In(loc *time.Location) Slot {
	if loc == nil {
		return s
	}
	return Slot{Start: s.Start.In(loc), End: s.End.In(loc)}
}

// Clip intersects the slot with bounds. The second return value reports
// whether any portion remains.
func (s Slot) Clip(bounds Slot) (Slot, bool) {
	clipped := s
	if clipped.Start.Before(bounds.Start) {
		clipped.Start = bounds.Start
	}
	if clipped.End.After(bounds.End) {
		clipped.End = bounds.End
	}
	if !clipped.End.After(clipped.Start) {
		return Slot{}, false
	}
	return clipped, true
}

// String renders the slot in RFC 3339 for logs and error messages.
func (s Slot) String() string {
	return fmt.Sprintf("[%s, %s)", s.Start.Format(time.RFC3339), s.End.Format(time.RFC3339))
}
