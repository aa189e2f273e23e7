package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/booking-engine/internal/persistence"
	"github.com/example/booking-engine/internal/scheduler"
	"github.com/example/booking-engine/internal/timeslot"
)

// BookingRepository captures the persistence interactions needed by the service.
type BookingRepository interface {
	CreateBooking(ctx context.Context, booking Booking) (Booking, error)
	GetBooking(ctx context.Context, id string) (Booking, error)
	// UpdateBooking persists the booking only while the stored status still
	// equals expected, failing with persistence.ErrStaleState otherwise.
	// This compare-and-swap is what makes concurrent transitions resolve
	// deterministically.
	UpdateBooking(ctx context.Context, booking Booking, expected Status) (Booking, error)
	ListBookings(ctx context.Context, filter BookingListFilter) ([]Booking, error)
}

// CheckInRepository stores the check-in satellite records.
type CheckInRepository interface {
	GetCheckIn(ctx context.Context, bookingID string) (CheckInRecord, error)
	SaveCheckIn(ctx context.Context, record CheckInRecord) (CheckInRecord, error)
}

// ResourceDirectory exposes the read-only resource lookup owned by the
// resource-management collaborator.
type ResourceDirectory interface {
	GetResource(ctx context.Context, id string) (Resource, error)
}

// BookingServiceDeps wires the collaborators of a BookingService. Nil entries
// fall back to safe defaults where one exists.
type BookingServiceDeps struct {
	Bookings    BookingRepository
	CheckIns    CheckInRepository
	Resources   ResourceDirectory
	Policy      CheckInPolicy
	Normalizer  *timeslot.Normalizer
	Events      EventSink
	LockTimeout time.Duration
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

/// BookingService owns the booking lifecycle: creation under the per-resource
// exclusion scope, the legal-transition state machine, the no-show sweep and
// alternative-slot discovery.
type BookingService struct {
	bookings    BookingRepository
	checkIns    CheckInRepository
	resources   ResourceDirectory
	policy      CheckInPolicy
	normalizer  *timeslot.Normalizer
	events      EventSink
	locks       *resourceLocks
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewBookingService wires dependencies for booking operations.
func NewBookingService(deps BookingServiceDeps) *BookingService {
	if deps.IDGenerator == nil {
		deps.IDGenerator = func() string { return "" }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Events == nil {
		deps.Events = NopSink{}
	}
	if deps.Normalizer == nil {
		deps.Normalizer = timeslot.NewNormalizer(time.UTC)
	}
	return &BookingService{
		bookings:    deps.Bookings,
		checkIns:    deps.CheckIns,
		resources:   deps.Resources,
		policy:      deps.Policy,
		normalizer:  deps.Normalizer,
		events:      deps.Events,
		locks:       newResourceLocks(deps.LockTimeout),
		idGenerator: deps.IDGenerator,
		now:         deps.Now,
		logger:      defaultLogger(deps.Logger),
	}
}

// CreateBooking validates the request, gates it on the resource state, and
// inserts a Reserved booking. The availability check and the insert run under
// the per-resource lock so two concurrent requests for overlapping ranges
// cannot both succeed.
func (s *BookingService) CreateBooking(ctx context.Context, params CreateBookingParams) (Booking, error) {
	if s == nil || s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	input := params.Input
	principal := params.Principal

	if input.UserID == "" {
		input.UserID = principal.UserID
	}
	if input.UserID != principal.UserID && !principal.IsAdmin {
		return Booking{}, ErrUnauthorized
	}

	slot, vErr := s.normalizeInput(ctx, &input)
	if vErr.HasErrors() {
		return Booking{}, vErr
	}

	resource, err := s.resourceGate(ctx, input.ResourceID, slot)
	if err != nil {
		return Booking{}, err
	}

	release, err := s.locks.Acquire(ctx, resource.ID)
	if err != nil {
		return Booking{}, err
	}
	defer release()

	conflicts, err := s.findConflicts(ctx, resource.ID, slot, "")
	if err != nil {
		return Booking{}, err
	}
	if len(conflicts) > 0 {
		return Booking{}, &ConflictError{ResourceID: resource.ID, ConflictingIDs: conflicts}
	}

	createdAt := s.now()
	booking := Booking{
		ID:               s.idGenerator(),
		ResourceID:       resource.ID,
		UserID:           input.UserID,
		Start:            slot.Start,
		End:              slot.End,
		Status:           StatusReserved,
		MeetingName:      strings.TrimSpace(input.MeetingName),
		Purpose:          strings.TrimSpace(input.Purpose),
		ParticipantCount: input.ParticipantCount,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}

	persisted, err := s.bookings.CreateBooking(ctx, booking)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}

	serviceLogger(ctx, s.logger, "booking", "create").InfoContext(ctx, "booking created",
		"booking_id", persisted.ID,
		"resource_id", persisted.ResourceID,
		"start", persisted.Start,
		"end", persisted.End,
	)
	s.publish(persisted, "", StatusReserved, createdAt)
	return persisted, nil
}

// CheckAvailability reports whether the range is free on the resource,
// returning the conflicting booking identifiers otherwise. excludeBookingID
// lets an edit re-check without colliding with itself.
func (s *BookingService) CheckAvailability(ctx context.Context, resourceID string, slot timeslot.Slot, excludeBookingID string) (Availability, error) {
	if s == nil || s.bookings == nil {
		return Availability{}, fmt.Errorf("booking repository not configured")
	}
	if _, err := timeslot.New(slot.Start, slot.End); err != nil {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return Availability{}, vErr
	}

	if _, err := s.resourceGate(ctx, resourceID, slot); err != nil {
		return Availability{}, err
	}

	conflicts, err := s.findConflicts(ctx, resourceID, slot, excludeBookingID)
	if err != nil {
		return Availability{}, err
	}
	return Availability{Available: len(conflicts) == 0, ConflictingIDs: conflicts}, nil
}

// Cancel moves a Reserved or CheckedIn booking to Cancelled, recording the
// reason. Re-cancelling an already cancelled booking is a no-op success.
func (s *BookingService) Cancel(ctx context.Context, bookingID, reason string, principal Principal) (Booking, error) {
	if s == nil || s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}

	if booking.UserID != principal.UserID && !principal.IsAdmin {
		return Booking{}, ErrUnauthorized
	}

	switch {
	case booking.Status == StatusCancelled:
		return booking, nil
	case booking.Status.CanTransitionTo(StatusCancelled):
	default:
		return Booking{}, &InvalidTransitionError{BookingID: bookingID, From: booking.Status, To: StatusCancelled}
	}

	now := s.now()
	from := booking.Status
	updated := booking
	updated.Status = StatusCancelled
	updated.CancelledAt = &now
	updated.CancellationReason = strings.TrimSpace(reason)
	updated.UpdatedAt = now

	persisted, err := s.bookings.UpdateBooking(ctx, updated, from)
	if err != nil {
		return s.resolveStale(ctx, bookingID, StatusCancelled, err)
	}

	s.publish(persisted, from, StatusCancelled, now)
	return persisted, nil
}

// CheckIn moves a Reserved booking to CheckedIn when the attempt falls inside
// the policy window, creating the check-in satellite. Checking in an already
// checked-in booking is a no-op success.
func (s *BookingService) CheckIn(ctx context.Context, bookingID string, at time.Time) (Booking, error) {
	if s == nil || s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}
	if at.IsZero() {
		at = s.now()
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}

	switch {
	case booking.Status == StatusCheckedIn:
		return booking, nil
	case booking.Status.CanTransitionTo(StatusCheckedIn):
	default:
		return Booking{}, &InvalidTransitionError{BookingID: bookingID, From: booking.Status, To: StatusCheckedIn}
	}

	if !s.policy.WithinCheckInWindow(at, booking.Start) {
		return Booking{}, ErrOutsideCheckInWindow
	}

	from := booking.Status
	updated := booking
	updated.Status = StatusCheckedIn
	updated.UpdatedAt = at

	persisted, err := s.bookings.UpdateBooking(ctx, updated, from)
	if err != nil {
		return s.resolveStale(ctx, bookingID, StatusCheckedIn, err)
	}

	if err := s.saveCheckIn(ctx, bookingID, func(record *CheckInRecord) {
		checkInAt := at
		record.CheckInAt = &checkInAt
		record.CheckOutAt = nil
		record.NoShow = false
	}); err != nil {
		return Booking{}, err
	}

	s.publish(persisted, from, StatusCheckedIn, at)
	return persisted, nil
}

// CheckOut closes a CheckedIn session and moves the booking to Completed.
// Checking out an already completed booking is a no-op success.
func (s *BookingService) CheckOut(ctx context.Context, bookingID string, at time.Time) (Booking, error) {
	if s == nil || s.bookings == nil {
		return Booking{}, fmt.Errorf("booking repository not configured")
	}
	if at.IsZero() {
		at = s.now()
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, mapBookingRepoError(err)
	}

	switch {
	case booking.Status == StatusCompleted:
		return booking, nil
	case booking.Status.CanTransitionTo(StatusCompleted):
	default:
		return Booking{}, &InvalidTransitionError{BookingID: bookingID, From: booking.Status, To: StatusCompleted}
	}

	from := booking.Status
	updated := booking
	updated.Status = StatusCompleted
	updated.UpdatedAt = at

	persisted, err := s.bookings.UpdateBooking(ctx, updated, from)
	if err != nil {
		return s.resolveStale(ctx, bookingID, StatusCompleted, err)
	}

	if err := s.saveCheckIn(ctx, bookingID, func(record *CheckInRecord) {
		checkOutAt := at
		record.CheckOutAt = &checkOutAt
	}); err != nil {
		return Booking{}, err
	}

	s.publish(persisted, from, StatusCompleted, at)
	return persisted, nil
}

// GetBooking returns a booking with its check-in satellite, when one exists.
func (s *BookingService) GetBooking(ctx context.Context, bookingID string) (Booking, *CheckInRecord, error) {
	if s == nil || s.bookings == nil {
		return Booking{}, nil, fmt.Errorf("booking repository not configured")
	}

	booking, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return Booking{}, nil, mapBookingRepoError(err)
	}

	if s.checkIns == nil {
		return booking, nil, nil
	}
	record, err := s.checkIns.GetCheckIn(ctx, bookingID)
	if err != nil {
		if isNotFoundError(err) {
			return booking, nil, nil
		}
		return Booking{}, nil, err
	}
	return booking, &record, nil
}

// AlternativeSlots suggests free ranges of at least the requested duration
// inside the search window, nearest to the requested start first. The
// resource's block window is treated as occupied time.
func (s *BookingService) AlternativeSlots(ctx context.Context, resourceID string, requested, window timeslot.Slot, max int) ([]timeslot.Slot, error) {
	if s == nil || s.bookings == nil {
		return nil, fmt.Errorf("booking repository not configured")
	}
	if _, err := timeslot.New(requested.Start, requested.End); err != nil {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return nil, vErr
	}
	if _, err := timeslot.New(window.Start, window.End); err != nil {
		vErr := &ValidationError{}
		vErr.add("window", "window start must be before window end")
		return nil, vErr
	}

	resource, err := s.resourceState(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	intervals, err := s.activeIntervals(ctx, resourceID, window, "")
	if err != nil {
		return nil, err
	}
	if blocked, ok := blockInterval(resource, window); ok {
		intervals = append(intervals, blocked)
	}

	return scheduler.CollectFreeSlots(intervals, window, requested.Duration(), requested.Start, max), nil
}

// SweepOnce applies the time-based transitions: Reserved bookings past the
// grace cutoff become NoShow, CheckedIn bookings past their end become
// Completed. The sweep is the only actor performing these two moves; losing
// a status race to a user-initiated transition just skips the booking.
func (s *BookingService) SweepOnce(ctx context.Context) (SweepResult, error) {
	if s == nil || s.bookings == nil {
		return SweepResult{}, fmt.Errorf("booking repository not configured")
	}

	now := s.now()
	result := SweepResult{}

	cutoff := now.Add(-s.policy.EntryGrace)
	overdue, err := s.bookings.ListBookings(ctx, BookingListFilter{
		Statuses:     []Status{StatusReserved},
		StartsBefore: &cutoff,
	})
	if err != nil {
		return SweepResult{}, err
	}
	for _, booking := range overdue {
		if !s.policy.OverdueForNoShow(now, booking.Start) {
			continue
		}
		if moved := s.sweepTransition(ctx, booking, StatusNoShow, now); moved {
			result.NoShows = append(result.NoShows, booking.ID)
		}
	}

	ended, err := s.bookings.ListBookings(ctx, BookingListFilter{
		Statuses:       []Status{StatusCheckedIn},
		EndsAtOrBefore: &now,
	})
	if err != nil {
		return SweepResult{}, err
	}
	for _, booking := range ended {
		if moved := s.sweepTransition(ctx, booking, StatusCompleted, now); moved {
			result.Completed = append(result.Completed, booking.ID)
		}
	}

	if len(result.NoShows) > 0 || len(result.Completed) > 0 {
		serviceLogger(ctx, s.logger, "booking", "sweep").InfoContext(ctx, "sweep applied transitions",
			"no_shows", len(result.NoShows),
			"completed", len(result.Completed),
		)
	}
	return result, nil
}

// sweepTransition applies one CAS move for the sweep, treating a lost race
// as a skip rather than an error.
func (s *BookingService) sweepTransition(ctx context.Context, booking Booking, to Status, now time.Time) bool {
	from := booking.Status
	updated := booking
	updated.Status = to
	updated.UpdatedAt = now

	if _, err := s.bookings.UpdateBooking(ctx, updated, from); err != nil {
		if errors.Is(err, persistence.ErrStaleState) || isNotFoundError(err) {
			return false
		}
		s.logger.ErrorContext(ctx, "sweep transition failed",
			"booking_id", booking.ID, "to", string(to), "error", err)
		return false
	}

	var mutate func(*CheckInRecord)
	switch to {
	case StatusNoShow:
		mutate = func(record *CheckInRecord) { record.NoShow = true }
	case StatusCompleted:
		mutate = func(record *CheckInRecord) {
			if record.CheckOutAt == nil {
				end := booking.End
				record.CheckOutAt = &end
			}
		}
	}
	if mutate != nil {
		if err := s.saveCheckIn(ctx, booking.ID, mutate); err != nil {
			s.logger.ErrorContext(ctx, "sweep satellite update failed",
				"booking_id", booking.ID, "error", err)
		}
	}

	s.publish(updated, from, to, now)
	return true
}

// normalizeInput validates caller fields and converts the range to the
// storage zone. Unspecified-origin timestamps are accepted but logged.
func (s *BookingService) normalizeInput(ctx context.Context, input *BookingInput) (timeslot.Slot, *ValidationError) {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.ResourceID) == "" {
		vErr.add("resource_id", "resource is required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		vErr.add("user_id", "user is required")
	}
	if input.ParticipantCount < 0 {
		vErr.add("participant_count", "participant count cannot be negative")
	}
	if input.Start.IsZero() {
		vErr.add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.add("end", "end is required")
	}
	if vErr.HasErrors() {
		return timeslot.Slot{}, vErr
	}

	start, err := s.normalizer.ToStorage(input.Start, input.Origin)
	if errors.Is(err, timeslot.ErrUnspecifiedOrigin) {
		s.logger.WarnContext(ctx, "timestamp origin unspecified, assuming display zone",
			"resource_id", input.ResourceID, "start", input.Start)
	}
	end, err := s.normalizer.ToStorage(input.End, input.Origin)
	_ = err

	slot, slotErr := timeslot.New(start, end)
	if slotErr != nil {
		vErr.add("time", "start must be before end")
		return timeslot.Slot{}, vErr
	}
	return slot, vErr
}

// resourceGate rejects requests on resources that accept no bookings
// regardless of overlap: unknown, inactive, under maintenance, or blocked
// during the requested range.
func (s *BookingService) resourceGate(ctx context.Context, resourceID string, slot timeslot.Slot) (Resource, error) {
	resource, err := s.resourceState(ctx, resourceID)
	if err != nil {
		return Resource{}, err
	}
	if resource.BlockedDuring(slot) {
		return Resource{}, &ResourceUnavailableError{
			ResourceID: resourceID,
			Reason:     UnavailableBlocked,
			Detail:     resource.BlockReason,
		}
	}
	return resource, nil
}

// resourceState checks the time-independent gates only.
func (s *BookingService) resourceState(ctx context.Context, resourceID string) (Resource, error) {
	if s.resources == nil {
		return Resource{}, fmt.Errorf("resource directory not configured")
	}
	resource, err := s.resources.GetResource(ctx, resourceID)
	if err != nil {
		if isNotFoundError(err) {
			return Resource{}, ErrNotFound
		}
		return Resource{}, err
	}
	if !resource.Active {
		return Resource{}, &ResourceUnavailableError{ResourceID: resourceID, Reason: UnavailableInactive}
	}
	if resource.UnderMaintenance {
		return Resource{}, &ResourceUnavailableError{ResourceID: resourceID, Reason: UnavailableMaintenance}
	}
	return resource, nil
}

// findConflicts scans active bookings on the resource overlapping the slot.
func (s *BookingService) findConflicts(ctx context.Context, resourceID string, slot timeslot.Slot, excludeID string) ([]string, error) {
	intervals, err := s.activeIntervals(ctx, resourceID, slot, excludeID)
	if err != nil {
		return nil, err
	}
	return scheduler.Conflicts(intervals, slot, excludeID), nil
}

func (s *BookingService) activeIntervals(ctx context.Context, resourceID string, window timeslot.Slot, excludeID string) ([]scheduler.Interval, error) {
	bookings, err := s.bookings.ListBookings(ctx, BookingListFilter{
		ResourceID:  resourceID,
		Statuses:    activeStatuses,
		Overlapping: &window,
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	intervals := make([]scheduler.Interval, 0, len(bookings))
	for _, booking := range bookings {
		if excludeID != "" && booking.ID == excludeID {
			continue
		}
		intervals = append(intervals, scheduler.Interval{BookingID: booking.ID, Slot: booking.Slot()})
	}
	return intervals, nil
}

// saveCheckIn upserts the satellite, creating it on the first attempt.
func (s *BookingService) saveCheckIn(ctx context.Context, bookingID string, mutate func(*CheckInRecord)) error {
	if s.checkIns == nil {
		return nil
	}

	now := s.now()
	record, err := s.checkIns.GetCheckIn(ctx, bookingID)
	if err != nil {
		if !isNotFoundError(err) {
			return err
		}
		record = CheckInRecord{BookingID: bookingID, CreatedAt: now}
	}
	mutate(&record)
	record.UpdatedAt = now

	_, err = s.checkIns.SaveCheckIn(ctx, record)
	return err
}

// resolveStale turns a lost CAS race into either an idempotent success (the
// booking already reached the intended state) or an InvalidTransitionError.
func (s *BookingService) resolveStale(ctx context.Context, bookingID string, target Status, err error) (Booking, error) {
	if !errors.Is(err, persistence.ErrStaleState) {
		return Booking{}, mapBookingRepoError(err)
	}

	current, getErr := s.bookings.GetBooking(ctx, bookingID)
	if getErr != nil {
		return Booking{}, mapBookingRepoError(getErr)
	}
	if current.Status == target {
		return current, nil
	}
	return Booking{}, &InvalidTransitionError{BookingID: bookingID, From: current.Status, To: target}
}

func (s *BookingService) publish(booking Booking, from, to Status, occurredAt time.Time) {
	if s.events == nil {
		return
	}
	s.events.Publish(StateChangeEvent{
		BookingID:  booking.ID,
		ResourceID: booking.ResourceID,
		UserID:     booking.UserID,
		From:       from,
		To:         to,
		OccurredAt: occurredAt,
	})
}

// blockInterval converts a resource's block window into a pseudo occupied
// interval clipped to the search window.
func blockInterval(resource Resource, window timeslot.Slot) (scheduler.Interval, bool) {
	if resource.BlockedFrom == nil && resource.BlockedUntil == nil {
		return scheduler.Interval{}, false
	}
	start := window.Start
	if resource.BlockedFrom != nil && resource.BlockedFrom.After(start) {
		start = *resource.BlockedFrom
	}
	end := window.End
	if resource.BlockedUntil != nil && resource.BlockedUntil.Before(end) {
		end = *resource.BlockedUntil
	}
	if !end.After(start) {
		return scheduler.Interval{}, false
	}
	return scheduler.Interval{BookingID: "blocked:" + resource.ID, Slot: timeslot.Slot{Start: start, End: end}}, true
}

func mapBookingRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("id", "booking already exists")
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	return err
}

func isNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, persistence.ErrNotFound)
}
