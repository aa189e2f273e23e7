package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// Storage provides an in-memory persistence layer implementation. It mirrors
// the SQLite repositories' semantics, including the conditional status update,
// and is used by tests and throwaway environments.
type Storage struct {
	mu        sync.RWMutex
	resources map[string]persistence.Resource
	bookings  map[string]persistence.Booking
	checkIns  map[string]persistence.CheckIn
}

// Open returns a new empty Storage instance.
func Open() *Storage {
	return &Storage{
		resources: make(map[string]persistence.Resource),
		bookings:  make(map[string]persistence.Booking),
		checkIns:  make(map[string]persistence.CheckIn),
	}
}

// Close releases resources held by the storage. No-op for the in-memory
// implementation.
func (s *Storage) Close() error {
	return nil
}

// --- ResourceRepository implementation ---

// CreateResource stores a new resource catalog entry.
func (s *Storage) CreateResource(ctx context.Context, resource persistence.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if resource.ID == "" || resource.Name == "" {
		return persistence.ErrConstraintViolation
	}
	if _, ok := s.resources[resource.ID]; ok {
		return persistence.ErrDuplicate
	}

	s.resources[resource.ID] = cloneResource(resource)
	return nil
}

// UpdateResource updates an existing resource.
func (s *Storage) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.resources[resource.ID]; !ok {
		return persistence.ErrNotFound
	}

	s.resources[resource.ID] = cloneResource(resource)
	return nil
}

// GetResource retrieves a resource by ID.
func (s *Storage) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resource, ok := s.resources[id]
	if !ok {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	return cloneResource(resource), nil
}

// ListResources returns all resources ordered by name then ID.
func (s *Storage) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resources := make([]persistence.Resource, 0, len(s.resources))
	for _, resource := range s.resources {
		resources = append(resources, cloneResource(resource))
	}

	sort.Slice(resources, func(i, j int) bool {
		if resources[i].Name == resources[j].Name {
			return resources[i].ID < resources[j].ID
		}
		return resources[i].Name < resources[j].Name
	})

	return resources, nil
}

// --- BookingRepository implementation ---

// CreateBooking stores a new booking row.
func (s *Storage) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if booking.ID == "" || !booking.End.After(booking.Start) {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}
	if _, ok := s.bookings[booking.ID]; ok {
		return persistence.Booking{}, persistence.ErrDuplicate
	}
	if _, ok := s.resources[booking.ResourceID]; !ok {
		return persistence.Booking{}, persistence.ErrForeignKeyViolation
	}

	s.bookings[booking.ID] = cloneBooking(booking)
	return booking, nil
}

// GetBooking retrieves a booking by ID.
func (s *Storage) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	booking, ok := s.bookings[id]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	return cloneBooking(booking), nil
}

// UpdateBooking applies the update only while the stored status still equals
// expectedStatus, returning persistence.ErrStaleState otherwise.
func (s *Storage) UpdateBooking(ctx context.Context, booking persistence.Booking, expectedStatus string) (persistence.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.bookings[booking.ID]
	if !ok {
		return persistence.Booking{}, persistence.ErrNotFound
	}
	if existing.Status != expectedStatus {
		return persistence.Booking{}, persistence.ErrStaleState
	}

	// Identity and time range are immutable after creation.
	booking.ResourceID = existing.ResourceID
	booking.UserID = existing.UserID
	booking.Start = existing.Start
	booking.End = existing.End
	booking.CreatedAt = existing.CreatedAt

	s.bookings[booking.ID] = cloneBooking(booking)
	return booking, nil
}

// ListBookings returns bookings matching the filter ordered by start time
// then ID.
func (s *Storage) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bookings := make([]persistence.Booking, 0)
	for _, booking := range s.bookings {
		if !matchesBookingFilter(booking, filter) {
			continue
		}
		bookings = append(bookings, cloneBooking(booking))
	}

	sort.Slice(bookings, func(i, j int) bool {
		if bookings[i].Start.Equal(bookings[j].Start) {
			return bookings[i].ID < bookings[j].ID
		}
		return bookings[i].Start.Before(bookings[j].Start)
	})

	return bookings, nil
}

// --- CheckInRepository implementation ---

// GetCheckIn retrieves the check-in satellite for a booking.
func (s *Storage) GetCheckIn(ctx context.Context, bookingID string) (persistence.CheckIn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.checkIns[bookingID]
	if !ok {
		return persistence.CheckIn{}, persistence.ErrNotFound
	}

	return cloneCheckIn(record), nil
}

// SaveCheckIn upserts the check-in satellite for a booking.
func (s *Storage) SaveCheckIn(ctx context.Context, record persistence.CheckIn) (persistence.CheckIn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.BookingID == "" {
		return persistence.CheckIn{}, persistence.ErrConstraintViolation
	}
	if _, ok := s.bookings[record.BookingID]; !ok {
		return persistence.CheckIn{}, persistence.ErrForeignKeyViolation
	}

	if existing, ok := s.checkIns[record.BookingID]; ok {
		record.CreatedAt = existing.CreatedAt
	}
	s.checkIns[record.BookingID] = cloneCheckIn(record)
	return record, nil
}

// --- Helpers ---

func cloneResource(resource persistence.Resource) persistence.Resource {
	clone := resource
	clone.BlockedFrom = cloneTimePtr(resource.BlockedFrom)
	clone.BlockedUntil = cloneTimePtr(resource.BlockedUntil)
	clone.BlockReason = cloneStringPtr(resource.BlockReason)
	return clone
}

func cloneBooking(booking persistence.Booking) persistence.Booking {
	clone := booking
	clone.MeetingName = cloneStringPtr(booking.MeetingName)
	clone.Purpose = cloneStringPtr(booking.Purpose)
	clone.CancelledAt = cloneTimePtr(booking.CancelledAt)
	clone.CancellationReason = cloneStringPtr(booking.CancellationReason)
	return clone
}

func cloneCheckIn(record persistence.CheckIn) persistence.CheckIn {
	clone := record
	clone.CheckInAt = cloneTimePtr(record.CheckInAt)
	clone.CheckOutAt = cloneTimePtr(record.CheckOutAt)
	return clone
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	value := *t
	return &value
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	value := *s
	return &value
}

func matchesBookingFilter(booking persistence.Booking, filter persistence.BookingFilter) bool {
	if filter.ResourceID != "" && booking.ResourceID != filter.ResourceID {
		return false
	}
	if filter.UserID != "" && booking.UserID != filter.UserID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if booking.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.OverlapStart != nil && filter.OverlapEnd != nil {
		if !booking.Start.Before(*filter.OverlapEnd) || !booking.End.After(*filter.OverlapStart) {
			return false
		}
	}
	if filter.StartsBefore != nil && !booking.Start.Before(*filter.StartsBefore) {
		return false
	}
	if filter.EndsAtOrBefore != nil && booking.End.After(*filter.EndsAtOrBefore) {
		return false
	}
	return true
}
