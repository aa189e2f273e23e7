package application

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested booking or resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrBusy is returned when the per-resource reservation lock cannot be
	// acquired promptly. It is transient and safe to retry with backoff.
	ErrBusy = errors.New("application: resource busy")
	// ErrOutsideCheckInWindow is returned when a check-in attempt falls
	// outside the configured arrival window.
	ErrOutsideCheckInWindow = errors.New("application: outside check-in window")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

// UnavailableReason identifies why a resource rejects bookings outright,
// before any overlap check runs.
type UnavailableReason string

const (
	// UnavailableInactive marks a resource removed from service.
	UnavailableInactive UnavailableReason = "inactive"
	// UnavailableMaintenance marks a resource under maintenance.
	UnavailableMaintenance UnavailableReason = "maintenance"
	// UnavailableBlocked marks a request intersecting the resource's block window.
	UnavailableBlocked UnavailableReason = "blocked"
)

// ResourceUnavailableError reports a resource-level rejection, distinct from
// a scheduling conflict with another booking.
type ResourceUnavailableError struct {
	ResourceID string
	Reason     UnavailableReason
	Detail     string
}

// Error implements the error interface.
func (e *ResourceUnavailableError) Error() string {
	if e == nil {
		return ""
	}
	if e.Detail != "" {
		return fmt.Sprintf("resource %s unavailable (%s): %s", e.ResourceID, e.Reason, e.Detail)
	}
	return fmt.Sprintf("resource %s unavailable (%s)", e.ResourceID, e.Reason)
}

// ConflictError reports that the requested range overlaps active bookings.
// The conflicting identifiers seed alternative-slot discovery on the caller
// side.
type ConflictError struct {
	ResourceID     string
	ConflictingIDs []string
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("resource %s already booked by %s", e.ResourceID, strings.Join(e.ConflictingIDs, ", "))
}

// InvalidTransitionError reports an illegal lifecycle move. The booking is
// left exactly as it was.
type InvalidTransitionError struct {
	BookingID string
	From      Status
	To        Status
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("booking %s: cannot transition from %s to %s", e.BookingID, e.From, e.To)
}
