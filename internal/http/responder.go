package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/example/booking-engine/internal/application"
)

var (
	errBadRequestBody    = errors.New("invalid request body")
	errInvalidBookingID  = errors.New("invalid booking id")
	errInvalidResourceID = errors.New("invalid resource id")
	errInvalidTimeRange  = errors.New("start and end must be valid RFC 3339 timestamps with start before end")
)

// retryAfterSeconds is the hint returned with 503 responses when the
// per-resource lock could not be acquired in time.
const retryAfterSeconds = 1

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates application errors into HTTP responses.
// Conflicts with other bookings, illegal lifecycle moves and resource-level
// rejections all surface as 409 with a distinguishing error code.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
		return
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "NOT_FOUND",
			Message:   "the requested booking or resource does not exist",
		})
		return
	case errors.Is(err, application.ErrBusy):
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
		r.writeJSON(ctx, w, http.StatusServiceUnavailable, errorResponse{
			ErrorCode: "RESOURCE_BUSY",
			Message:   "the resource is busy, retry shortly",
		})
		return
	case errors.Is(err, application.ErrOutsideCheckInWindow):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "OUTSIDE_CHECKIN_WINDOW",
			Message:   "the check-in attempt is outside the allowed arrival window",
		})
		return
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "the request contains invalid fields",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	var conflict *application.ConflictError
	if errors.As(err, &conflict) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode:      "BOOKING_CONFLICT",
			Message:        "the requested range overlaps existing bookings",
			ConflictingIDs: conflict.ConflictingIDs,
		})
		return
	}

	var unavailable *application.ResourceUnavailableError
	if errors.As(err, &unavailable) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "RESOURCE_UNAVAILABLE",
			Message:   unavailable.Error(),
			Reason:    string(unavailable.Reason),
		})
		return
	}

	var transition *application.InvalidTransitionError
	if errors.As(err, &transition) {
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "INVALID_TRANSITION",
			Message:   transition.Error(),
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
		ErrorCode: "INTERNAL",
		Message:   "an internal error occurred",
	})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode      string            `json:"error_code,omitempty"`
	Message        string            `json:"message"`
	Reason         string            `json:"reason,omitempty"`
	ConflictingIDs []string          `json:"conflicting_ids,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
}
