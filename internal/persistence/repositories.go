package persistence

import (
	"context"
	"time"
)

// ResourceRepository exposes catalog operations for bookable resources.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
}

// BookingFilter narrows booking queries. All populated fields are combined
// with AND semantics.
type BookingFilter struct {
	ResourceID string
	UserID     string
	Statuses   []string
	// OverlapStart/OverlapEnd keep bookings intersecting the half-open
	// range. Both must be set together.
	OverlapStart *time.Time
	OverlapEnd   *time.Time
	// StartsBefore keeps bookings with Start strictly before the instant.
	StartsBefore *time.Time
	// EndsAtOrBefore keeps bookings with End at or before the instant.
	EndsAtOrBefore *time.Time
}

// BookingRepository stores booking rows.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	// UpdateBooking applies the update only while the stored status still
	// equals expectedStatus, returning ErrStaleState otherwise.
	UpdateBooking(ctx context.Context, booking Booking, expectedStatus string) (Booking, error)
	ListBookings(ctx context.Context, filter BookingFilter) ([]Booking, error)
}

// CheckInRepository stores the attendance satellites.
type CheckInRepository interface {
	GetCheckIn(ctx context.Context, bookingID string) (CheckIn, error)
	SaveCheckIn(ctx context.Context, record CheckIn) (CheckIn, error)
}
