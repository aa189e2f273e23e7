package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/booking-engine/internal/application"
	"github.com/example/booking-engine/internal/timeslot"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params application.CreateBookingParams) (application.Booking, error)
	GetBooking(ctx context.Context, bookingID string) (application.Booking, *application.CheckInRecord, error)
	Cancel(ctx context.Context, bookingID, reason string, principal application.Principal) (application.Booking, error)
	CheckIn(ctx context.Context, bookingID string, at time.Time) (application.Booking, error)
	CheckOut(ctx context.Context, bookingID string, at time.Time) (application.Booking, error)
}

type BookingHandler struct {
	service   bookingService
	responder responder
}

func NewBookingHandler(service bookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{service: service, responder: newResponder(logger)}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.CreateBooking(r.Context(), application.CreateBookingParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	booking, record, err := h.service.GetBooking(r.Context(), bookingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	response := bookingResponse{Booking: toBookingDTO(booking)}
	if record != nil {
		dto := toCheckInDTO(*record)
		response.CheckIn = &dto
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, response)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req cancelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	principal, _ := PrincipalFromContext(r.Context())

	booking, err := h.service.Cancel(r.Context(), bookingID, req.Reason, principal)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

func (h *BookingHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.attendance(w, r, func(ctx context.Context, bookingID string, at time.Time) (application.Booking, error) {
		return h.service.CheckIn(ctx, bookingID, at)
	})
}

func (h *BookingHandler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.attendance(w, r, func(ctx context.Context, bookingID string, at time.Time) (application.Booking, error) {
		return h.service.CheckOut(ctx, bookingID, at)
	})
}

// attendance handles the shared shape of check-in and check-out: an optional
// timestamp in the body, defaulting to the server clock.
func (h *BookingHandler) attendance(w http.ResponseWriter, r *http.Request, op func(context.Context, string, time.Time) (application.Booking, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	bookingID := strings.TrimSpace(chi.URLParam(r, "id"))
	if bookingID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidBookingID)
		return
	}

	var req attendanceRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
	}

	booking, err := op(r.Context(), bookingID, parseTime(req.At))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, bookingResponse{Booking: toBookingDTO(booking)})
}

type bookingRequest struct {
	ResourceID       string `json:"resource_id"`
	UserID           string `json:"user_id"`
	Start            string `json:"start"`
	End              string `json:"end"`
	Origin           string `json:"origin"`
	MeetingName      string `json:"meeting_name"`
	Purpose          string `json:"purpose"`
	ParticipantCount int    `json:"participant_count"`
}

func (r bookingRequest) toInput() application.BookingInput {
	return application.BookingInput{
		ResourceID:       strings.TrimSpace(r.ResourceID),
		UserID:           strings.TrimSpace(r.UserID),
		Start:            parseTime(r.Start),
		End:              parseTime(r.End),
		Origin:           parseOrigin(r.Origin),
		MeetingName:      r.MeetingName,
		Purpose:          r.Purpose,
		ParticipantCount: r.ParticipantCount,
	}
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type attendanceRequest struct {
	At string `json:"at"`
}

type bookingResponse struct {
	Booking bookingDTO  `json:"booking"`
	CheckIn *checkInDTO `json:"check_in,omitempty"`
}

type bookingDTO struct {
	ID                 string `json:"id"`
	ResourceID         string `json:"resource_id"`
	UserID             string `json:"user_id"`
	Start              string `json:"start"`
	End                string `json:"end"`
	Status             string `json:"status"`
	MeetingName        string `json:"meeting_name,omitempty"`
	Purpose            string `json:"purpose,omitempty"`
	ParticipantCount   int    `json:"participant_count,omitempty"`
	CreatedAt          string `json:"created_at"`
	UpdatedAt          string `json:"updated_at"`
	CancelledAt        string `json:"cancelled_at,omitempty"`
	CancellationReason string `json:"cancellation_reason,omitempty"`
}

func toBookingDTO(booking application.Booking) bookingDTO {
	dto := bookingDTO{
		ID:                 booking.ID,
		ResourceID:         booking.ResourceID,
		UserID:             booking.UserID,
		Start:              booking.Start.UTC().Format(time.RFC3339Nano),
		End:                booking.End.UTC().Format(time.RFC3339Nano),
		Status:             string(booking.Status),
		MeetingName:        booking.MeetingName,
		Purpose:            booking.Purpose,
		ParticipantCount:   booking.ParticipantCount,
		CreatedAt:          booking.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:          booking.UpdatedAt.UTC().Format(time.RFC3339Nano),
		CancellationReason: booking.CancellationReason,
	}
	if booking.CancelledAt != nil {
		dto.CancelledAt = booking.CancelledAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

type checkInDTO struct {
	BookingID  string `json:"booking_id"`
	CheckInAt  string `json:"check_in_at,omitempty"`
	CheckOutAt string `json:"check_out_at,omitempty"`
	NoShow     bool   `json:"no_show"`
}

func toCheckInDTO(record application.CheckInRecord) checkInDTO {
	dto := checkInDTO{BookingID: record.BookingID, NoShow: record.NoShow}
	if record.CheckInAt != nil {
		dto.CheckInAt = record.CheckInAt.UTC().Format(time.RFC3339Nano)
	}
	if record.CheckOutAt != nil {
		dto.CheckOutAt = record.CheckOutAt.UTC().Format(time.RFC3339Nano)
	}
	return dto
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

func parseOrigin(value string) timeslot.Origin {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "utc":
		return timeslot.OriginUTC
	case "local":
		return timeslot.OriginLocal
	default:
		return timeslot.OriginUnspecified
	}
}
