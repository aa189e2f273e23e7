package persistence_test

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/example/booking-engine/internal/application"
	"github.com/example/booking-engine/internal/persistence"
	"github.com/example/booking-engine/internal/testfixtures"
)

func seedResource(t *testing.T, harness *testfixtures.SQLiteHarness, id string) persistence.Resource {
	t.Helper()

	resource := testfixtures.NewResourceFixture(testfixtures.WithResourceID(id)).Persistence()
	if err := harness.Resources.CreateResource(context.Background(), resource); err != nil {
		t.Fatalf("CreateResource(%s) failed: %v", id, err)
	}
	return resource
}

func TestResourceRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates, reads, updates, and lists resources", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		now := testfixtures.ReferenceTime()
		resource := testfixtures.NewResourceFixture(
			testfixtures.WithResourceID("room-1"),
			testfixtures.WithResourceName("Meeting Room A"),
			testfixtures.WithResourceLocation("hq-floor-3"),
			testfixtures.WithResourceTimestamps(now, now),
		).Persistence()

		if err := harness.Resources.CreateResource(ctx, resource); err != nil {
			t.Fatalf("CreateResource failed: %v", err)
		}

		fetched, err := harness.Resources.GetResource(ctx, resource.ID)
		if err != nil {
			t.Fatalf("GetResource failed: %v", err)
		}
		if fetched.Name != resource.Name || !fetched.Active || fetched.LocationID != "hq-floor-3" {
			t.Fatalf("unexpected resource: %#v", fetched)
		}

		blockedFrom := now.Add(24 * time.Hour)
		blockedUntil := now.Add(48 * time.Hour)
		reason := "floor renovation"
		resource.UnderMaintenance = true
		resource.BlockedFrom = &blockedFrom
		resource.BlockedUntil = &blockedUntil
		resource.BlockReason = &reason
		resource.UpdatedAt = now.Add(time.Hour)
		if err := harness.Resources.UpdateResource(ctx, resource); err != nil {
			t.Fatalf("UpdateResource failed: %v", err)
		}

		fetched, err = harness.Resources.GetResource(ctx, resource.ID)
		if err != nil {
			t.Fatalf("GetResource after update failed: %v", err)
		}
		if !fetched.UnderMaintenance {
			t.Fatalf("expected maintenance flag set: %#v", fetched)
		}
		if fetched.BlockedFrom == nil || !fetched.BlockedFrom.Equal(blockedFrom) {
			t.Fatalf("expected block window persisted, got %#v", fetched.BlockedFrom)
		}
		if fetched.BlockReason == nil || *fetched.BlockReason != reason {
			t.Fatalf("expected block reason persisted, got %#v", fetched.BlockReason)
		}

		resources, err := harness.Resources.ListResources(ctx)
		if err != nil {
			t.Fatalf("ListResources failed: %v", err)
		}
		if len(resources) != 1 || resources[0].ID != resource.ID {
			t.Fatalf("expected single resource, got %#v", resources)
		}
	})

	t.Run("rejects duplicate IDs and invalid types", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-dup")

		duplicate := testfixtures.NewResourceFixture(testfixtures.WithResourceID("room-dup")).Persistence()
		if err := harness.Resources.CreateResource(ctx, duplicate); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected persistence.ErrDuplicate, got %v", err)
		}

		invalid := testfixtures.NewResourceFixture(testfixtures.WithResourceID("bad-type")).Persistence()
		invalid.Type = "parking-spot"
		if err := harness.Resources.CreateResource(ctx, invalid); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected persistence.ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("returns resources in deterministic order", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		names := map[string]string{"res-b": "Desk B", "res-a": "Desk A", "res-a2": "Desk A"}
		for id, name := range names {
			resource := testfixtures.NewResourceFixture(
				testfixtures.WithResourceID(id),
				testfixtures.WithResourceName(name),
			).Persistence()
			if err := harness.Resources.CreateResource(ctx, resource); err != nil {
				t.Fatalf("CreateResource(%s) failed: %v", id, err)
			}
		}

		listed, err := harness.Resources.ListResources(ctx)
		if err != nil {
			t.Fatalf("ListResources failed: %v", err)
		}
		order := []string{listed[0].ID, listed[1].ID, listed[2].ID}
		expected := []string{"res-a", "res-a2", "res-b"}
		if !slices.Equal(order, expected) {
			t.Fatalf("unexpected order: got %v want %v", order, expected)
		}
	})
}

func TestBookingRepository(t *testing.T) {
	t.Parallel()

	t.Run("creates and retrieves bookings with nullable fields", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-1")

		booking := testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("bk-1"),
			testfixtures.WithBookingResource("room-1"),
			testfixtures.WithBookingUser("user-1"),
		).Persistence()

		created, err := harness.Bookings.CreateBooking(ctx, booking)
		if err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}
		if created.ID != booking.ID {
			t.Fatalf("unexpected created booking: %#v", created)
		}

		fetched, err := harness.Bookings.GetBooking(ctx, booking.ID)
		if err != nil {
			t.Fatalf("GetBooking failed: %v", err)
		}
		if fetched.ResourceID != "room-1" || fetched.Status != "reserved" {
			t.Fatalf("unexpected booking: %#v", fetched)
		}
		if fetched.MeetingName == nil || *fetched.MeetingName != *booking.MeetingName {
			t.Fatalf("expected meeting name round-tripped, got %#v", fetched.MeetingName)
		}
		if !fetched.Start.Equal(booking.Start.UTC()) || !fetched.End.Equal(booking.End.UTC()) {
			t.Fatalf("expected times preserved, got %v-%v", fetched.Start, fetched.End)
		}
	})

	t.Run("rejects bookings referencing unknown resources", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		booking := testfixtures.NewBookingFixture(testfixtures.WithBookingResource("missing")).Persistence()
		if _, err := harness.Bookings.CreateBooking(ctx, booking); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected persistence.ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("rejects inverted and empty time ranges", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-1")

		now := testfixtures.ReferenceTime()
		booking := testfixtures.NewBookingFixture(
			testfixtures.WithBookingResource("room-1"),
			testfixtures.WithBookingSlot(now, now),
		).Persistence()
		if _, err := harness.Bookings.CreateBooking(ctx, booking); !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected persistence.ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("conditional update returns stale state on status mismatch", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-1")
		booking := testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("bk-cas"),
			testfixtures.WithBookingResource("room-1"),
		).Persistence()
		if _, err := harness.Bookings.CreateBooking(ctx, booking); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}

		booking.Status = "cancelled"
		booking.UpdatedAt = booking.UpdatedAt.Add(time.Minute)
		if _, err := harness.Bookings.UpdateBooking(ctx, booking, "reserved"); err != nil {
			t.Fatalf("UpdateBooking failed: %v", err)
		}

		booking.Status = "checked_in"
		if _, err := harness.Bookings.UpdateBooking(ctx, booking, "reserved"); !errors.Is(err, persistence.ErrStaleState) {
			t.Fatalf("expected persistence.ErrStaleState, got %v", err)
		}

		missing := testfixtures.NewBookingFixture(testfixtures.WithBookingID("absent")).Persistence()
		if _, err := harness.Bookings.UpdateBooking(ctx, missing, "reserved"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected persistence.ErrNotFound, got %v", err)
		}
	})

	t.Run("filters by resource, status, and overlap window", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-1")
		seedResource(t, harness, "room-2")

		base := testfixtures.ReferenceTime().Add(6 * time.Hour)
		bookings := []struct {
			id       string
			resource string
			start    time.Time
			end      time.Time
			status   string
		}{
			{"bk-a", "room-1", base, base.Add(time.Hour), "reserved"},
			{"bk-b", "room-1", base.Add(2 * time.Hour), base.Add(3 * time.Hour), "cancelled"},
			{"bk-c", "room-2", base, base.Add(time.Hour), "reserved"},
		}
		for _, b := range bookings {
			fixture := testfixtures.NewBookingFixture(
				testfixtures.WithBookingID(b.id),
				testfixtures.WithBookingResource(b.resource),
				testfixtures.WithBookingSlot(b.start, b.end),
				testfixtures.WithBookingStatus(application.Status(b.status)),
			).Persistence()
			if _, err := harness.Bookings.CreateBooking(ctx, fixture); err != nil {
				t.Fatalf("CreateBooking(%s) failed: %v", b.id, err)
			}
		}

		overlapStart := base.Add(30 * time.Minute)
		overlapEnd := base.Add(90 * time.Minute)
		filtered, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{
			ResourceID:   "room-1",
			Statuses:     []string{"reserved"},
			OverlapStart: &overlapStart,
			OverlapEnd:   &overlapEnd,
		})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(filtered) != 1 || filtered[0].ID != "bk-a" {
			t.Fatalf("unexpected bookings: %#v", filtered)
		}
	})

	t.Run("excludes back-to-back bookings from the overlap window", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-1")

		base := testfixtures.ReferenceTime().Add(6 * time.Hour)
		booking := testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("bk-edge"),
			testfixtures.WithBookingResource("room-1"),
			testfixtures.WithBookingSlot(base, base.Add(time.Hour)),
		).Persistence()
		if _, err := harness.Bookings.CreateBooking(ctx, booking); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}

		overlapStart := base.Add(time.Hour)
		overlapEnd := base.Add(2 * time.Hour)
		filtered, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{
			OverlapStart: &overlapStart,
			OverlapEnd:   &overlapEnd,
		})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		if len(filtered) != 0 {
			t.Fatalf("expected no overlap at shared boundary, got %#v", filtered)
		}
	})

	t.Run("orders returned bookings deterministically", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-1")

		base := testfixtures.ReferenceTime().Add(6 * time.Hour)
		slots := []struct {
			id    string
			start time.Time
		}{
			{"bk-2", base.Add(2 * time.Hour)},
			{"bk-1", base},
			{"bk-3", base},
		}
		for _, s := range slots {
			fixture := testfixtures.NewBookingFixture(
				testfixtures.WithBookingID(s.id),
				testfixtures.WithBookingResource("room-1"),
				testfixtures.WithBookingSlot(s.start, s.start.Add(time.Hour)),
			).Persistence()
			if _, err := harness.Bookings.CreateBooking(ctx, fixture); err != nil {
				t.Fatalf("CreateBooking(%s) failed: %v", s.id, err)
			}
		}

		listed, err := harness.Bookings.ListBookings(ctx, persistence.BookingFilter{})
		if err != nil {
			t.Fatalf("ListBookings failed: %v", err)
		}
		order := []string{listed[0].ID, listed[1].ID, listed[2].ID}
		expected := []string{"bk-1", "bk-3", "bk-2"}
		if !slices.Equal(order, expected) {
			t.Fatalf("unexpected order: got %v want %v", order, expected)
		}
	})
}

func TestCheckInRepository(t *testing.T) {
	t.Parallel()

	t.Run("upserts the satellite record", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		seedResource(t, harness, "room-1")
		booking := testfixtures.NewBookingFixture(
			testfixtures.WithBookingID("bk-1"),
			testfixtures.WithBookingResource("room-1"),
		).Persistence()
		if _, err := harness.Bookings.CreateBooking(ctx, booking); err != nil {
			t.Fatalf("CreateBooking failed: %v", err)
		}

		now := testfixtures.ReferenceTime()
		checkInAt := booking.Start.Add(5 * time.Minute)
		record := persistence.CheckIn{BookingID: booking.ID, CheckInAt: &checkInAt, CreatedAt: now, UpdatedAt: now}
		if _, err := harness.CheckIns.SaveCheckIn(ctx, record); err != nil {
			t.Fatalf("SaveCheckIn failed: %v", err)
		}

		checkOutAt := booking.End.Add(-5 * time.Minute)
		record.CheckOutAt = &checkOutAt
		record.UpdatedAt = checkOutAt
		if _, err := harness.CheckIns.SaveCheckIn(ctx, record); err != nil {
			t.Fatalf("SaveCheckIn update failed: %v", err)
		}

		fetched, err := harness.CheckIns.GetCheckIn(ctx, booking.ID)
		if err != nil {
			t.Fatalf("GetCheckIn failed: %v", err)
		}
		if fetched.CheckInAt == nil || !fetched.CheckInAt.Equal(checkInAt.UTC()) {
			t.Fatalf("expected check-in timestamp, got %#v", fetched.CheckInAt)
		}
		if fetched.CheckOutAt == nil || !fetched.CheckOutAt.Equal(checkOutAt.UTC()) {
			t.Fatalf("expected check-out timestamp, got %#v", fetched.CheckOutAt)
		}
		if fetched.NoShow {
			t.Fatalf("expected no-show flag unset, got %#v", fetched)
		}
	})

	t.Run("rejects satellites for unknown bookings", func(t *testing.T) {
		t.Parallel()

		ctx := context.Background()
		harness := testfixtures.NewSQLiteHarness(t)
		defer harness.Close()

		record := persistence.CheckIn{BookingID: "missing", CreatedAt: testfixtures.ReferenceTime(), UpdatedAt: testfixtures.ReferenceTime()}
		if _, err := harness.CheckIns.SaveCheckIn(ctx, record); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected persistence.ErrForeignKeyViolation, got %v", err)
		}
		if _, err := harness.CheckIns.GetCheckIn(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected persistence.ErrNotFound, got %v", err)
		}
	})
}
