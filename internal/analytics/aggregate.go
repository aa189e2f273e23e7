// Package analytics rolls booking history up into utilization and
// distribution statistics. Aggregation is a pure function over a snapshot of
// bookings: it never mutates its inputs and takes no locks, so it can run
// against a read replica while reservations continue.
package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/booking-engine/internal/timeslot"
)

// Booking statuses mirrored from the lifecycle manager. The aggregator keeps
// its own copies so it stays a leaf package.
const (
	StatusReserved  = "reserved"
	StatusCheckedIn = "checked_in"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// ratePrecision is the decimal places retained on reported rates.
const ratePrecision = 4

// maxRankEntries caps the top-resources and top-users rankings.
const maxRankEntries = 5

// BookingRecord is the aggregator's view of one historical booking.
type BookingRecord struct {
	ID         string
	ResourceID string
	UserID     string
	Start      time.Time
	End        time.Time
	Status     string
}

// ResourceInfo carries the reference attributes needed for breakdowns.
type ResourceInfo struct {
	ID         string
	Type       string
	LocationID string
}

// Period bounds the utilization computation. Half-open like every other
// range in the engine.
type Period struct {
	Start time.Time
	End   time.Time
}

// Rank is one entry of a top-N listing.
type Rank struct {
	ID    string
	Count int
}

// Report is the aggregated view over a booking history snapshot.
type Report struct {
	TotalBookings  int
	ActiveCount    int
	CompletedCount int
	CancelledCount int
	NoShowCount    int

	// NoShowRate is no-shows over bookings eligible for check-in, i.e.
	// everything that was not cancelled.
	NoShowRate      decimal.Decimal
	AverageDuration time.Duration

	ByResource     map[string]int
	ByResourceType map[string]int
	ByLocation     map[string]int
	ByDay          map[string]int
	ByHour         [24]int
	ByWeekday      [7]int

	// UtilizationByResource is booked minutes over bookable minutes for the
	// requested period, per resource. OverallUtilization averages over every
	// known resource.
	UtilizationByResource map[string]decimal.Decimal
	OverallUtilization    decimal.Decimal

	TopResources []Rank
	TopUsers     []Rank
}

// Aggregate computes the report for a snapshot of bookings. Hour-of-day, day
// and weekday breakdowns are taken in the provided display zone; a nil zone
// falls back to UTC. Every rate with a zero denominator is reported as zero,
// never as an error.
func Aggregate(bookings []BookingRecord, resources []ResourceInfo, period Period, display *time.Location) Report {
	if display == nil {
		display = time.UTC
	}

	report := Report{
		NoShowRate:            decimal.Zero,
		OverallUtilization:    decimal.Zero,
		ByResource:            make(map[string]int),
		ByResourceType:        make(map[string]int),
		ByLocation:            make(map[string]int),
		ByDay:                 make(map[string]int),
		UtilizationByResource: make(map[string]decimal.Decimal),
	}

	resourceInfo := make(map[string]ResourceInfo, len(resources))
	for _, res := range resources {
		resourceInfo[res.ID] = res
		report.UtilizationByResource[res.ID] = decimal.Zero
	}

	bookedMinutes := make(map[string]int64, len(resources))
	userCounts := make(map[string]int)
	var totalDuration time.Duration

	for _, booking := range bookings {
		report.TotalBookings++
		switch booking.Status {
		case StatusReserved, StatusCheckedIn:
			report.ActiveCount++
		case StatusCompleted:
			report.CompletedCount++
		case StatusCancelled:
			report.CancelledCount++
		case StatusNoShow:
			report.NoShowCount++
		}

		totalDuration += booking.End.Sub(booking.Start)

		report.ByResource[booking.ResourceID]++
		if info, ok := resourceInfo[booking.ResourceID]; ok {
			report.ByResourceType[info.Type]++
			report.ByLocation[info.LocationID]++
		}
		if booking.UserID != "" {
			userCounts[booking.UserID]++
		}

		localStart := booking.Start.In(display)
		report.ByHour[localStart.Hour()]++
		report.ByWeekday[int(localStart.Weekday())]++
		report.ByDay[localStart.Format("2006-01-02")]++

		if occupiesResource(booking.Status) {
			bookedMinutes[booking.ResourceID] += clippedMinutes(booking, period)
		}
	}

	report.NoShowRate = ratio(int64(report.NoShowCount), int64(report.TotalBookings-report.CancelledCount))

	if report.TotalBookings > 0 {
		report.AverageDuration = totalDuration / time.Duration(report.TotalBookings)
	}

	bookableMinutes := int64(period.End.Sub(period.Start) / time.Minute)
	var utilizationSum decimal.Decimal
	for id := range resourceInfo {
		utilization := ratio(bookedMinutes[id], bookableMinutes)
		report.UtilizationByResource[id] = utilization
		utilizationSum = utilizationSum.Add(utilization)
	}
	if len(resourceInfo) > 0 {
		report.OverallUtilization = utilizationSum.
			Div(decimal.NewFromInt(int64(len(resourceInfo)))).
			Round(ratePrecision)
	}

	report.TopResources = rank(report.ByResource)
	report.TopUsers = rank(userCounts)

	return report
}

// occupiesResource reports whether a booking's time counted against the
// resource. Cancelled and no-show bookings released their slot, so they do
// not contribute booked minutes.
func occupiesResource(status string) bool {
	switch status {
	case StatusReserved, StatusCheckedIn, StatusCompleted:
		return true
	default:
		return false
	}
}

// clippedMinutes measures how much of the booking falls inside the period.
func clippedMinutes(booking BookingRecord, period Period) int64 {
	slot := timeslot.Slot{Start: booking.Start, End: booking.End}
	bounds := timeslot.Slot{Start: period.Start, End: period.End}
	clipped, ok := slot.Clip(bounds)
	if !ok {
		return 0
	}
	return int64(clipped.Duration() / time.Minute)
}

// ratio divides numerator by denominator as a rounded decimal, reporting
// zero for empty denominators.
func ratio(numerator, denominator int64) decimal.Decimal {
	if denominator <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(numerator).
		Div(decimal.NewFromInt(denominator)).
		Round(ratePrecision)
}

// rank orders count maps descending, ties toward the smaller ID, capped at
// maxRankEntries.
func rank(counts map[string]int) []Rank {
	if len(counts) == 0 {
		return nil
	}
	entries := make([]Rank, 0, len(counts))
	for id, count := range counts {
		entries = append(entries, Rank{ID: id, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count == entries[j].Count {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].Count > entries[j].Count
	})
	if len(entries) > maxRankEntries {
		entries = entries[:maxRankEntries]
	}
	return entries
}
