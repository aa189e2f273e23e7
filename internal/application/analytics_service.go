package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/booking-engine/internal/analytics"
	"github.com/example/booking-engine/internal/timeslot"
)

// ResourceCatalog lists the bookable resources for reporting.
type ResourceCatalog interface {
	ListResources(ctx context.Context) ([]Resource, error)
}

// AnalyticsService produces usage reports by replaying persisted bookings
// through the pure aggregation package.
type AnalyticsService struct {
	bookings   BookingRepository
	resources  ResourceCatalog
	normalizer *timeslot.Normalizer
	logger     *slog.Logger
}

// NewAnalyticsService wires dependencies for report generation.
func NewAnalyticsService(bookings BookingRepository, resources ResourceCatalog, normalizer *timeslot.Normalizer, logger *slog.Logger) *AnalyticsService {
	if normalizer == nil {
		normalizer = timeslot.NewNormalizer(time.UTC)
	}
	return &AnalyticsService{
		bookings:   bookings,
		resources:  resources,
		normalizer: normalizer,
		logger:     defaultLogger(logger),
	}
}

// Report aggregates all bookings overlapping the period into counts, rates,
// breakdowns and rankings. Temporal buckets follow the display zone.
func (s *AnalyticsService) Report(ctx context.Context, period timeslot.Slot) (analytics.Report, error) {
	if s == nil || s.bookings == nil {
		return analytics.Report{}, fmt.Errorf("booking repository not configured")
	}
	if _, err := timeslot.New(period.Start, period.End); err != nil {
		vErr := &ValidationError{}
		vErr.add("period", "start must be before end")
		return analytics.Report{}, vErr
	}

	bookings, err := s.bookings.ListBookings(ctx, BookingListFilter{Overlapping: &period})
	if err != nil {
		return analytics.Report{}, mapBookingRepoError(err)
	}

	var resources []analytics.ResourceInfo
	if s.resources != nil {
		listed, err := s.resources.ListResources(ctx)
		if err != nil {
			return analytics.Report{}, err
		}
		resources = make([]analytics.ResourceInfo, 0, len(listed))
		for _, resource := range listed {
			resources = append(resources, analytics.ResourceInfo{
				ID:         resource.ID,
				Type:       string(resource.Type),
				LocationID: resource.LocationID,
			})
		}
	}

	records := make([]analytics.BookingRecord, 0, len(bookings))
	for _, booking := range bookings {
		records = append(records, analytics.BookingRecord{
			ID:         booking.ID,
			ResourceID: booking.ResourceID,
			UserID:     booking.UserID,
			Start:      booking.Start,
			End:        booking.End,
			Status:     string(booking.Status),
		})
	}

	report := analytics.Aggregate(records, resources, analytics.Period{Start: period.Start, End: period.End}, s.normalizer.DisplayZone())

	serviceLogger(ctx, s.logger, "analytics", "report").DebugContext(ctx, "report generated",
		"period_start", period.Start,
		"period_end", period.End,
		"bookings", len(records),
	)
	return report, nil
}
