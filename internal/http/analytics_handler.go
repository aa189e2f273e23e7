package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/booking-engine/internal/analytics"
	"github.com/example/booking-engine/internal/timeslot"
)

type analyticsService interface {
	Report(ctx context.Context, period timeslot.Slot) (analytics.Report, error)
}

type AnalyticsHandler struct {
	service   analyticsService
	responder responder
}

func NewAnalyticsHandler(service analyticsService, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{service: service, responder: newResponder(logger)}
}

func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	period, ok := parseSlot(r.URL.Query(), "from", "to")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
		return
	}

	report, err := h.service.Report(r.Context(), period)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReportDTO(period, report))
}

type reportDTO struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`

	TotalBookings  int `json:"total_bookings"`
	ActiveCount    int `json:"active_count"`
	CompletedCount int `json:"completed_count"`
	CancelledCount int `json:"cancelled_count"`
	NoShowCount    int `json:"no_show_count"`

	NoShowRate             string `json:"no_show_rate"`
	AverageDurationMinutes int64  `json:"average_duration_minutes"`

	ByResource     map[string]int `json:"by_resource,omitempty"`
	ByResourceType map[string]int `json:"by_resource_type,omitempty"`
	ByLocation     map[string]int `json:"by_location,omitempty"`
	ByDay          map[string]int `json:"by_day,omitempty"`
	ByHour         [24]int        `json:"by_hour"`
	ByWeekday      [7]int         `json:"by_weekday"`

	UtilizationByResource map[string]string `json:"utilization_by_resource,omitempty"`
	OverallUtilization    string            `json:"overall_utilization"`

	TopResources []rankDTO `json:"top_resources,omitempty"`
	TopUsers     []rankDTO `json:"top_users,omitempty"`
}

type rankDTO struct {
	ID    string `json:"id"`
	Count int    `json:"count"`
}

func toReportDTO(period timeslot.Slot, report analytics.Report) reportDTO {
	utilization := make(map[string]string, len(report.UtilizationByResource))
	for id, rate := range report.UtilizationByResource {
		utilization[id] = rate.String()
	}

	return reportDTO{
		PeriodStart: period.Start.UTC().Format(time.RFC3339Nano),
		PeriodEnd:   period.End.UTC().Format(time.RFC3339Nano),

		TotalBookings:  report.TotalBookings,
		ActiveCount:    report.ActiveCount,
		CompletedCount: report.CompletedCount,
		CancelledCount: report.CancelledCount,
		NoShowCount:    report.NoShowCount,

		NoShowRate:             report.NoShowRate.String(),
		AverageDurationMinutes: int64(report.AverageDuration / time.Minute),

		ByResource:     report.ByResource,
		ByResourceType: report.ByResourceType,
		ByLocation:     report.ByLocation,
		ByDay:          report.ByDay,
		ByHour:         report.ByHour,
		ByWeekday:      report.ByWeekday,

		UtilizationByResource: utilization,
		OverallUtilization:    report.OverallUtilization.String(),

		TopResources: toRankDTOs(report.TopResources),
		TopUsers:     toRankDTOs(report.TopUsers),
	}
}

func toRankDTOs(ranks []analytics.Rank) []rankDTO {
	if len(ranks) == 0 {
		return nil
	}
	out := make([]rankDTO, 0, len(ranks))
	for _, rank := range ranks {
		out = append(out, rankDTO{ID: rank.ID, Count: rank.Count})
	}
	return out
}
