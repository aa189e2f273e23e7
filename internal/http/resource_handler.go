package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/booking-engine/internal/application"
	"github.com/example/booking-engine/internal/timeslot"
)

// defaultSearchWindow bounds the alternative-slot search when the caller does
// not supply an explicit window.
const defaultSearchWindow = 24 * time.Hour

type availabilityService interface {
	CheckAvailability(ctx context.Context, resourceID string, slot timeslot.Slot, excludeBookingID string) (application.Availability, error)
	AlternativeSlots(ctx context.Context, resourceID string, requested, window timeslot.Slot, max int) ([]timeslot.Slot, error)
}

type ResourceHandler struct {
	service         availabilityService
	responder       responder
	maxAlternatives int
}

func NewResourceHandler(service availabilityService, maxAlternatives int, logger *slog.Logger) *ResourceHandler {
	if maxAlternatives <= 0 {
		maxAlternatives = 5
	}
	return &ResourceHandler{service: service, responder: newResponder(logger), maxAlternatives: maxAlternatives}
}

func (h *ResourceHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := strings.TrimSpace(chi.URLParam(r, "id"))
	if resourceID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	slot, ok := parseSlot(r.URL.Query(), "start", "end")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
		return
	}
	exclude := strings.TrimSpace(r.URL.Query().Get("exclude_booking_id"))

	availability, err := h.service.CheckAvailability(r.Context(), resourceID, slot, exclude)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		ResourceID:     resourceID,
		Start:          slot.Start.UTC().Format(time.RFC3339Nano),
		End:            slot.End.UTC().Format(time.RFC3339Nano),
		Available:      availability.Available,
		ConflictingIDs: availability.ConflictingIDs,
	})
}

func (h *ResourceHandler) Alternatives(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID := strings.TrimSpace(chi.URLParam(r, "id"))
	if resourceID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	query := r.URL.Query()
	requested, ok := parseSlot(query, "start", "end")
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
		return
	}

	window := timeslot.Slot{Start: requested.Start, End: requested.Start.Add(defaultSearchWindow)}
	if query.Get("window_start") != "" || query.Get("window_end") != "" {
		window, ok = parseSlot(query, "window_start", "window_end")
		if !ok {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeRange)
			return
		}
	}

	max := h.maxAlternatives
	if raw := strings.TrimSpace(query.Get("max")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed < max {
			max = parsed
		}
	}

	slots, err := h.service.AlternativeSlots(r.Context(), resourceID, requested, window, max)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, alternativesResponse{
		ResourceID:   resourceID,
		Alternatives: toSlotDTOs(slots),
	})
}

type availabilityResponse struct {
	ResourceID     string   `json:"resource_id"`
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Available      bool     `json:"available"`
	ConflictingIDs []string `json:"conflicting_ids,omitempty"`
}

type alternativesResponse struct {
	ResourceID   string    `json:"resource_id"`
	Alternatives []slotDTO `json:"alternatives"`
}

type slotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func toSlotDTOs(slots []timeslot.Slot) []slotDTO {
	out := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		out = append(out, slotDTO{
			Start: slot.Start.UTC().Format(time.RFC3339Nano),
			End:   slot.End.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}

// parseSlot reads a pair of RFC 3339 query parameters into a slot. The zero
// return reports any missing, malformed or inverted input.
func parseSlot(values url.Values, startKey, endKey string) (timeslot.Slot, bool) {
	start := parseTime(values.Get(startKey))
	end := parseTime(values.Get(endKey))
	if start.IsZero() || end.IsZero() {
		return timeslot.Slot{}, false
	}
	slot, err := timeslot.New(start, end)
	if err != nil {
		return timeslot.Slot{}, false
	}
	return slot, true
}
