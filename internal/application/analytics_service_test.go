package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/booking-engine/internal/timeslot"
)

type staticCatalog struct {
	resources []Resource
}

func (c staticCatalog) ListResources(context.Context) ([]Resource, error) {
	return c.resources, nil
}

func TestAnalyticsService_Report(t *testing.T) {
	t.Parallel()

	t.Run("aggregates the period snapshot", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		periodStart := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

		// Eight one-hour bookings: seven completed, one no-show.
		for i := 0; i < 8; i++ {
			status := StatusCompleted
			if i == 0 {
				status = StatusNoShow
			}
			start := periodStart.Add(time.Duration(i*24) * time.Hour)
			store.addBooking(Booking{
				ID:         fmt.Sprintf("booking-%d", i),
				ResourceID: "room-1",
				UserID:     fmt.Sprintf("user-%d", i%2),
				Start:      start,
				End:        start.Add(time.Hour),
				Status:     status,
			})
		}

		catalog := staticCatalog{resources: []Resource{
			{ID: "room-1", Type: ResourceRoom, LocationID: "hq", Active: true},
		}}
		service := NewAnalyticsService(store, catalog, nil, nil)

		period := timeslot.Slot{Start: periodStart, End: periodStart.AddDate(0, 1, 0)}
		report, err := service.Report(context.Background(), period)
		if err != nil {
			t.Fatalf("Report returned error: %v", err)
		}

		if report.TotalBookings != 8 {
			t.Fatalf("expected 8 bookings, got %d", report.TotalBookings)
		}
		if report.NoShowCount != 1 {
			t.Fatalf("expected 1 no-show, got %d", report.NoShowCount)
		}
		if got := report.NoShowRate.String(); got != "0.125" {
			t.Fatalf("expected no-show rate 0.125, got %s", got)
		}
		if report.ByResource["room-1"] != 8 {
			t.Fatalf("unexpected resource breakdown: %v", report.ByResource)
		}
		if report.ByResourceType["room"] != 8 {
			t.Fatalf("unexpected type breakdown: %v", report.ByResourceType)
		}
	})

	t.Run("excludes bookings outside the period", func(t *testing.T) {
		t.Parallel()

		store := newFakeStore()
		periodStart := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC)

		store.addBooking(Booking{
			ID: "before", ResourceID: "room-1", UserID: "user-1",
			Start: periodStart.Add(-2 * time.Hour), End: periodStart.Add(-time.Hour),
			Status: StatusCompleted,
		})
		store.addBooking(Booking{
			ID: "inside", ResourceID: "room-1", UserID: "user-1",
			Start: periodStart.Add(time.Hour), End: periodStart.Add(2 * time.Hour),
			Status: StatusCompleted,
		})

		service := NewAnalyticsService(store, nil, nil, nil)

		period := timeslot.Slot{Start: periodStart, End: periodStart.AddDate(0, 0, 7)}
		report, err := service.Report(context.Background(), period)
		if err != nil {
			t.Fatalf("Report returned error: %v", err)
		}
		if report.TotalBookings != 1 {
			t.Fatalf("expected 1 booking, got %d", report.TotalBookings)
		}
	})

	t.Run("rejects inverted periods", func(t *testing.T) {
		t.Parallel()

		service := NewAnalyticsService(newFakeStore(), nil, nil, nil)

		period := timeslot.Slot{
			Start: time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
		}
		_, err := service.Report(context.Background(), period)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("empty history reports zero rates", func(t *testing.T) {
		t.Parallel()

		service := NewAnalyticsService(newFakeStore(), nil, nil, nil)

		period := timeslot.Slot{
			Start: time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC),
		}
		report, err := service.Report(context.Background(), period)
		if err != nil {
			t.Fatalf("Report returned error: %v", err)
		}
		if !report.NoShowRate.IsZero() {
			t.Fatalf("expected zero no-show rate, got %s", report.NoShowRate)
		}
		if !report.OverallUtilization.IsZero() {
			t.Fatalf("expected zero utilization, got %s", report.OverallUtilization)
		}
	})
}
