// Package http provides HTTP handlers and middleware for the booking API.
//
// The router exposes the following endpoints under /api:
//   - POST /bookings: creates a Reserved booking. Body: the `bookingRequest`
//     payload defined in booking_handler.go; timestamps are RFC 3339 with an
//     optional "origin" of "utc" or "local".
//   - GET /bookings/{id}: returns the booking together with its check-in
//     record when one exists.
//   - POST /bookings/{id}/cancel: cancels the booking, recording an optional
//     {"reason"}.
//   - POST /bookings/{id}/checkin, POST /bookings/{id}/checkout: attendance
//     transitions with an optional {"at"} timestamp defaulting to the server
//     clock.
//   - GET /resources/{id}/availability: probes a range for conflicts, query
//     parameters start/end plus an optional exclude_booking_id.
//   - GET /resources/{id}/alternatives: suggests free slots near the requested
//     range, query parameters start/end with optional window_start/window_end
//     and max.
//   - GET /analytics/summary: aggregated usage report for the from/to period.
//
// Identity arrives via the X-User-ID and X-User-Admin headers resolved by an
// upstream gateway. Request/response DTOs live alongside their respective
// handlers so tests and documentation share the same ground truth.
package http
