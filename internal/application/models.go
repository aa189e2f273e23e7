package application

import (
	"time"

	"github.com/example/booking-engine/internal/timeslot"
)

// Principal represents the authenticated user invoking a service method.
// Identity itself is established by an external collaborator; the engine only
// sees the resolved identifier.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// ResourceType distinguishes bookable unit kinds.
type ResourceType string

const (
	// ResourceRoom is a meeting room.
	ResourceRoom ResourceType = "room"
	// ResourceDesk is a bookable desk.
	ResourceDesk ResourceType = "desk"
)

// Resource is read-only reference data describing one bookable unit. It is
// owned by the resource-management collaborator; the engine never mutates it.
type Resource struct {
	ID               string
	Name             string
	Type             ResourceType
	LocationID       string
	Active           bool
	UnderMaintenance bool
	BlockedFrom      *time.Time
	BlockedUntil     *time.Time
	BlockReason      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BlockedDuring reports whether the resource's block window intersects the
// requested range. An open-ended bound extends the window to infinity on
// that side.
func (r Resource) BlockedDuring(slot timeslot.Slot) bool {
	if r.BlockedFrom == nil && r.BlockedUntil == nil {
		return false
	}
	if r.BlockedFrom != nil && !slot.End.After(*r.BlockedFrom) {
		return false
	}
	if r.BlockedUntil != nil && !r.BlockedUntil.After(slot.Start) {
		return false
	}
	return true
}

// Booking is the central entity of the engine. Times are stored in UTC as a
// half-open interval. Bookings are never deleted; terminal rows stay for
// analytics replay.
type Booking struct {
	ID                 string
	ResourceID         string
	UserID             string
	Start              time.Time
	End                time.Time
	Status             Status
	MeetingName        string
	Purpose            string
	ParticipantCount   int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason string
}

// Slot returns the booked range as a slot value.
func (b Booking) Slot() timeslot.Slot {
	return timeslot.Slot{Start: b.Start, End: b.End}
}

// CheckInRecord is the one-to-one satellite of a booking, created at the
// first check-in attempt and closed at check-out or superseded by no-show
// marking.
type CheckInRecord struct {
	BookingID  string
	CheckInAt  *time.Time
	CheckOutAt *time.Time
	NoShow     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IsCheckedIn reports whether an open check-in exists.
func (r CheckInRecord) IsCheckedIn() bool {
	return r.CheckInAt != nil && r.CheckOutAt == nil && !r.NoShow
}

// IsCheckedOut reports whether the session was closed by a check-out.
func (r CheckInRecord) IsCheckedOut() bool {
	return r.CheckInAt != nil && r.CheckOutAt != nil
}

// Duration returns the attended span, zero while the session is still open.
func (r CheckInRecord) Duration() time.Duration {
	if r.CheckInAt == nil || r.CheckOutAt == nil {
		return 0
	}
	return r.CheckOutAt.Sub(*r.CheckInAt)
}

// BookingInput captures caller provided booking fields. Start and End are
// interpreted according to Origin by the clock normalizer before storage.
type BookingInput struct {
	ResourceID       string
	UserID           string
	Start            time.Time
	End              time.Time
	Origin           timeslot.Origin
	MeetingName      string
	Purpose          string
	ParticipantCount int
}

// CreateBookingParams wraps the data required to create a booking.
type CreateBookingParams struct {
	Principal Principal
	Input     BookingInput
}

// Availability is the outcome of an availability probe. ConflictingIDs is
// populated only when Available is false.
type Availability struct {
	Available      bool
	ConflictingIDs []string
}

// BookingListFilter narrows queries issued to the booking repository.
type BookingListFilter struct {
	ResourceID string
	UserID     string
	Statuses   []Status
	// Overlapping keeps bookings whose range intersects the slot.
	Overlapping *timeslot.Slot
	// StartsBefore keeps bookings with Start strictly before the instant.
	StartsBefore *time.Time
	// EndsAtOrBefore keeps bookings with End at or before the instant.
	EndsAtOrBefore *time.Time
}

// SweepResult lists the bookings moved by one sweep pass.
type SweepResult struct {
	NoShows   []string
	Completed []string
}
