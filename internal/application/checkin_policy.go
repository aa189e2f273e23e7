package application

import "time"

// CheckInPolicy decides arrival windows and no-show cutoffs. All comparisons
// take explicit instants so tests can supply fixed times; both operands must
// already share a zone.
type CheckInPolicy struct {
	// EarlyArrival is how long before the start a check-in is accepted.
	EarlyArrival time.Duration
	// EntryGrace is how late a check-in is accepted after the start before
	// the booking is eligible for no-show marking.
	EntryGrace time.Duration
	// ReminderLead is how long before the start the notification
	// collaborator should be signalled. It is never persisted here.
	ReminderLead time.Duration
}

// DefaultCheckInPolicy mirrors the standard workplace configuration.
func DefaultCheckInPolicy() CheckInPolicy {
	return CheckInPolicy{
		EarlyArrival: 15 * time.Minute,
		EntryGrace:   60 * time.Minute,
		ReminderLead: 30 * time.Minute,
	}
}

// WithinCheckInWindow reports whether now falls inside
// [start-EarlyArrival, start+EntryGrace]. Both window edges are inclusive.
func (p CheckInPolicy) WithinCheckInWindow(now, start time.Time) bool {
	earliest := start.Add(-p.EarlyArrival)
	latest := start.Add(p.EntryGrace)
	return !now.Before(earliest) && !now.After(latest)
}

// OverdueForNoShow reports whether the grace cutoff has passed without a
// check-in. The caller still has to verify the booking is Reserved.
func (p CheckInPolicy) OverdueForNoShow(now, start time.Time) bool {
	return now.After(start.Add(p.EntryGrace))
}

// ReminderDue reports whether the reminder signal window has opened.
func (p CheckInPolicy) ReminderDue(now, start time.Time) bool {
	if p.ReminderLead <= 0 {
		return false
	}
	return !now.Before(start.Add(-p.ReminderLead)) && now.Before(start)
}

// NoShowCutoff returns the instant after which a Reserved booking starting
// at start becomes a no-show.
func (p CheckInPolicy) NoShowCutoff(start time.Time) time.Time {
	return start.Add(p.EntryGrace)
}
