package scheduler

import (
	"iter"
	"sort"
	"time"

	"github.com/example/booking-engine/internal/timeslot"
)

// FreeSlots returns a lazy, finite, restartable sequence of free ranges on a
// resource: the gaps between the given occupied intervals inside the search
// window, keeping only gaps at least minDuration wide. Gaps are emitted
// nearest to the anchor first; ties break toward the earlier start.
//
// The sequence is backed by an immutable snapshot of the inputs, so ranging
// over it twice yields the same slots.
func FreeSlots(existing []Interval, window timeslot.Slot, minDuration time.Duration, anchor time.Time) iter.Seq[timeslot.Slot] {
	gaps := freeGaps(existing, window, minDuration)
	orderByProximity(gaps, anchor, minDuration)

	return func(yield func(timeslot.Slot) bool) {
		for _, gap := range gaps {
			if !yield(gap) {
				return
			}
		}
	}
}

// CollectFreeSlots materializes at most max slots from FreeSlots. A max of
// zero or less collects every gap.
func CollectFreeSlots(existing []Interval, window timeslot.Slot, minDuration time.Duration, anchor time.Time, max int) []timeslot.Slot {
	slots := make([]timeslot.Slot, 0)
	for slot := range FreeSlots(existing, window, minDuration, anchor) {
		slots = append(slots, slot)
		if max > 0 && len(slots) >= max {
			break
		}
	}
	return slots
}

// freeGaps computes the uncovered portions of the window. Occupied intervals
// are clipped to the window and merged before walking the gaps, so stacked or
// touching bookings never produce phantom free time.
func freeGaps(existing []Interval, window timeslot.Slot, minDuration time.Duration) []timeslot.Slot {
	if minDuration <= 0 {
		minDuration = time.Nanosecond
	}

	occupied := make([]timeslot.Slot, 0, len(existing))
	for _, interval := range existing {
		if clipped, ok := interval.Slot.Clip(window); ok {
			occupied = append(occupied, clipped)
		}
	}
	sort.Slice(occupied, func(i, j int) bool {
		return occupied[i].Start.Before(occupied[j].Start)
	})

	gaps := make([]timeslot.Slot, 0)
	cursor := window.Start
	for _, slot := range occupied {
		if slot.Start.After(cursor) {
			gap := timeslot.Slot{Start: cursor, End: slot.Start}
			if gap.Duration() >= minDuration {
				gaps = append(gaps, gap)
			}
		}
		if slot.End.After(cursor) {
			cursor = slot.End
		}
	}
	if window.End.After(cursor) {
		gap := timeslot.Slot{Start: cursor, End: window.End}
		if gap.Duration() >= minDuration {
			gaps = append(gaps, gap)
		}
	}
	return gaps
}

// orderByProximity sorts gaps by how far a booking of minDuration placed
// inside the gap would have to move from the anchor instant.
func orderByProximity(gaps []timeslot.Slot, anchor time.Time, minDuration time.Duration) {
	sort.SliceStable(gaps, func(i, j int) bool {
		di := anchorDistance(gaps[i], anchor, minDuration)
		dj := anchorDistance(gaps[j], anchor, minDuration)
		if di == dj {
			return gaps[i].Start.Before(gaps[j].Start)
		}
		return di < dj
	})
}

// anchorDistance measures the offset between the anchor and the closest start
// instant inside the gap that still fits minDuration.
func anchorDistance(gap timeslot.Slot, anchor time.Time, minDuration time.Duration) time.Duration {
	latestStart := gap.End.Add(-minDuration)
	candidate := anchor
	if candidate.Before(gap.Start) {
		candidate = gap.Start
	}
	if candidate.After(latestStart) {
		candidate = latestStart
	}
	distance := candidate.Sub(anchor)
	if distance < 0 {
		return -distance
	}
	return distance
}
