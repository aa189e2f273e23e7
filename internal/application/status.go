package application

// Status is the lifecycle state of a booking.
type Status string

const (
	// StatusReserved is the initial state after successful creation.
	StatusReserved Status = "reserved"
	// StatusCheckedIn marks a booking whose user arrived inside the check-in window.
	StatusCheckedIn Status = "checked_in"
	// StatusCompleted marks a finished session. Terminal.
	StatusCompleted Status = "completed"
	// StatusCancelled marks an explicitly cancelled booking. Terminal.
	StatusCancelled Status = "cancelled"
	// StatusNoShow marks a booking whose user never checked in before the
	// grace cutoff. Terminal, applied only by the sweep.
	StatusNoShow Status = "no_show"
)

// transitions is the legal-move table of the lifecycle state machine.
var transitions = map[Status]map[Status]struct{}{
	StatusReserved: {
		StatusCheckedIn: {},
		StatusCancelled: {},
		StatusNoShow:    {},
	},
	StatusCheckedIn: {
		StatusCompleted: {},
		StatusCancelled: {},
	},
}

// activeStatuses are the states that still occupy the resource's time range.
var activeStatuses = []Status{StatusReserved, StatusCheckedIn}

// Valid reports whether the status is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusReserved, StatusCheckedIn, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Blocks reports whether a booking in this status blocks overlapping
// reservations on the same resource.
func (s Status) Blocks() bool {
	return s == StatusReserved || s == StatusCheckedIn
}

// CanTransitionTo reports whether the state machine permits moving to next.
func (s Status) CanTransitionTo(next Status) bool {
	targets, ok := transitions[s]
	if !ok {
		return false
	}
	_, ok = targets[next]
	return ok
}
