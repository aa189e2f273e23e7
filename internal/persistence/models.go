package persistence

import "time"

// Resource represents a bookable unit catalog entry.
type Resource struct {
	ID               string
	Name             string
	Type             string
	LocationID       string
	Active           bool
	UnderMaintenance bool
	BlockedFrom      *time.Time
	BlockedUntil     *time.Time
	BlockReason      *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Booking represents one reservation row. Start and End are stored in UTC as
// a half-open interval; rows are never deleted.
type Booking struct {
	ID                 string
	ResourceID         string
	UserID             string
	Start              time.Time
	End                time.Time
	Status             string
	MeetingName        *string
	Purpose            *string
	ParticipantCount   int
	CreatedAt          time.Time
	UpdatedAt          time.Time
	CancelledAt        *time.Time
	CancellationReason *string
}

// CheckIn represents the one-to-one attendance satellite of a booking.
type CheckIn struct {
	BookingID  string
	CheckInAt  *time.Time
	CheckOutAt *time.Time
	NoShow     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
