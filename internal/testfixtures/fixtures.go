package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/booking-engine/internal/application"
	"github.com/example/booking-engine/internal/persistence"
)

var (
	resourceCounter uint64
	bookingCounter  uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Resource fixtures ---------------------------

// ResourceFixture represents a deterministic resource record that can be
// materialised for application or persistence tests.
type ResourceFixture struct {
	ID               string
	Name             string
	Type             application.ResourceType
	LocationID       string
	Active           bool
	UnderMaintenance bool
	BlockedFrom      *time.Time
	BlockedUntil     *time.Time
	BlockReason      string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ResourceOption configures the generated resource fixture.
type ResourceOption func(*ResourceFixture)

// NewResourceFixture returns a deterministic resource fixture with optional
// overrides. Fixtures default to an active room with no block window.
func NewResourceFixture(opts ...ResourceOption) ResourceFixture {
	idx := atomic.AddUint64(&resourceCounter, 1)
	id := fmt.Sprintf("resource-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := ResourceFixture{
		ID:         id,
		Name:       fmt.Sprintf("Room %03d", idx),
		Type:       application.ResourceRoom,
		LocationID: "hq-floor-1",
		Active:     true,
		CreatedAt:  created,
		UpdatedAt:  created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithResourceID overrides the generated resource ID.
func WithResourceID(id string) ResourceOption {
	return func(f *ResourceFixture) {
		f.ID = id
	}
}

// WithResourceName overrides the generated name.
func WithResourceName(name string) ResourceOption {
	return func(f *ResourceFixture) {
		f.Name = name
	}
}

// WithResourceType sets the resource type.
func WithResourceType(t application.ResourceType) ResourceOption {
	return func(f *ResourceFixture) {
		f.Type = t
	}
}

// WithResourceLocation sets the location identifier.
func WithResourceLocation(locationID string) ResourceOption {
	return func(f *ResourceFixture) {
		f.LocationID = locationID
	}
}

// WithResourceActive sets the active flag.
func WithResourceActive(active bool) ResourceOption {
	return func(f *ResourceFixture) {
		f.Active = active
	}
}

// WithResourceMaintenance sets the maintenance flag.
func WithResourceMaintenance(under bool) ResourceOption {
	return func(f *ResourceFixture) {
		f.UnderMaintenance = under
	}
}

// WithResourceBlock sets the block window and reason.
func WithResourceBlock(from, until *time.Time, reason string) ResourceOption {
	return func(f *ResourceFixture) {
		f.BlockedFrom = from
		f.BlockedUntil = until
		f.BlockReason = reason
	}
}

// WithResourceTimestamps sets both created and updated timestamps.
func WithResourceTimestamps(created, updated time.Time) ResourceOption {
	return func(f *ResourceFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Resource value.
func (f ResourceFixture) Application() application.Resource {
	return application.Resource{
		ID:               f.ID,
		Name:             f.Name,
		Type:             f.Type,
		LocationID:       f.LocationID,
		Active:           f.Active,
		UnderMaintenance: f.UnderMaintenance,
		BlockedFrom:      f.BlockedFrom,
		BlockedUntil:     f.BlockedUntil,
		BlockReason:      f.BlockReason,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Resource value.
func (f ResourceFixture) Persistence() persistence.Resource {
	var reason *string
	if f.BlockReason != "" {
		value := f.BlockReason
		reason = &value
	}
	return persistence.Resource{
		ID:               f.ID,
		Name:             f.Name,
		Type:             string(f.Type),
		LocationID:       f.LocationID,
		Active:           f.Active,
		UnderMaintenance: f.UnderMaintenance,
		BlockedFrom:      f.BlockedFrom,
		BlockedUntil:     f.BlockedUntil,
		BlockReason:      reason,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// ---------------------------- Booking fixtures ----------------------------

// BookingFixture represents a deterministic booking record.
type BookingFixture struct {
	ID               string
	ResourceID       string
	UserID           string
	Start            time.Time
	End              time.Time
	Status           application.Status
	MeetingName      string
	Purpose          string
	ParticipantCount int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// BookingOption configures the generated booking fixture.
type BookingOption func(*BookingFixture)

// NewBookingFixture returns a deterministic Reserved booking one hour long,
// starting an hour after the reference time, with optional overrides.
func NewBookingFixture(opts ...BookingOption) BookingFixture {
	idx := atomic.AddUint64(&bookingCounter, 1)
	id := fmt.Sprintf("booking-%03d", idx)
	start := referenceTime.Add(time.Hour + time.Duration(idx)*time.Minute)
	fixture := BookingFixture{
		ID:          id,
		ResourceID:  "resource-001",
		UserID:      "user-001",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      application.StatusReserved,
		MeetingName: fmt.Sprintf("Meeting %03d", idx),
		CreatedAt:   referenceTime,
		UpdatedAt:   referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithBookingID overrides the generated booking ID.
func WithBookingID(id string) BookingOption {
	return func(f *BookingFixture) {
		f.ID = id
	}
}

// WithBookingResource sets the resource reference.
func WithBookingResource(resourceID string) BookingOption {
	return func(f *BookingFixture) {
		f.ResourceID = resourceID
	}
}

// WithBookingUser sets the owning user.
func WithBookingUser(userID string) BookingOption {
	return func(f *BookingFixture) {
		f.UserID = userID
	}
}

// WithBookingSlot sets the booked time range.
func WithBookingSlot(start, end time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.Start = start
		f.End = end
	}
}

// WithBookingStatus sets the lifecycle status.
func WithBookingStatus(status application.Status) BookingOption {
	return func(f *BookingFixture) {
		f.Status = status
	}
}

// WithBookingTimestamps sets both created and updated timestamps.
func WithBookingTimestamps(created, updated time.Time) BookingOption {
	return func(f *BookingFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.Booking value.
func (f BookingFixture) Application() application.Booking {
	return application.Booking{
		ID:               f.ID,
		ResourceID:       f.ResourceID,
		UserID:           f.UserID,
		Start:            f.Start,
		End:              f.End,
		Status:           f.Status,
		MeetingName:      f.MeetingName,
		Purpose:          f.Purpose,
		ParticipantCount: f.ParticipantCount,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Booking value.
func (f BookingFixture) Persistence() persistence.Booking {
	var meetingName, purpose *string
	if f.MeetingName != "" {
		value := f.MeetingName
		meetingName = &value
	}
	if f.Purpose != "" {
		value := f.Purpose
		purpose = &value
	}
	return persistence.Booking{
		ID:               f.ID,
		ResourceID:       f.ResourceID,
		UserID:           f.UserID,
		Start:            f.Start,
		End:              f.End,
		Status:           string(f.Status),
		MeetingName:      meetingName,
		Purpose:          purpose,
		ParticipantCount: f.ParticipantCount,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
}
