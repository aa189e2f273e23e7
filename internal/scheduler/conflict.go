package scheduler

import (
	"sort"

	"github.com/example/booking-engine/internal/timeslot"
)

// Interval pairs a booking identifier with the time range it occupies on a
// resource. Callers pass only bookings whose status still blocks the
// resource; terminal bookings never appear here.
type Interval struct {
	BookingID string
	Slot      timeslot.Slot
}

// Conflicts returns the identifiers of intervals overlapping the candidate
// range, ordered by start time. excludeID skips one booking, which lets an
// edit re-check availability without colliding with itself.
func Conflicts(existing []Interval, candidate timeslot.Slot, excludeID string) []string {
	if len(existing) == 0 {
		return nil
	}

	matched := make([]Interval, 0)
	for _, interval := range existing {
		if excludeID != "" && interval.BookingID == excludeID {
			continue
		}
		if interval.Slot.Overlaps(candidate) {
			matched = append(matched, interval)
		}
	}
	if len(matched) == 0 {
		return nil
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Slot.Start.Equal(matched[j].Slot.Start) {
			return matched[i].BookingID < matched[j].BookingID
		}
		return matched[i].Slot.Start.Before(matched[j].Slot.Start)
	})

	ids := make([]string, 0, len(matched))
	for _, interval := range matched {
		ids = append(ids, interval.BookingID)
	}
	return ids
}
