package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite.
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository.
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const bookingColumns = `id, resource_id, user_id, start_time, end_time, status, meeting_name, purpose, participant_count, created_at, updated_at, cancelled_at, cancellation_reason`

// CreateBooking inserts a new booking row.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) (persistence.Booking, error) {
	if booking.ID == "" {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}
	if !booking.End.After(booking.Start) {
		return persistence.Booking{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		booking.ID,
		booking.ResourceID,
		booking.UserID,
		formatTime(booking.Start),
		formatTime(booking.End),
		booking.Status,
		nullString(booking.MeetingName),
		nullString(booking.Purpose),
		booking.ParticipantCount,
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
		nullTime(booking.CancelledAt),
		nullString(booking.CancellationReason),
	)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	return booking, nil
}

// GetBooking retrieves a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	if id == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	row := r.helper.QueryRow(ctx, query, id)

	booking, err := scanBooking(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		return persistence.Booking{}, r.mapper.MapError(err)
	}
	return booking, nil
}

// UpdateBooking applies the update only while the stored status still equals
// expectedStatus. The conditional WHERE clause is what makes concurrent
// transitions resolve to exactly one winner.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking, expectedStatus string) (persistence.Booking, error) {
	if booking.ID == "" {
		return persistence.Booking{}, persistence.ErrNotFound
	}

	query := `
		UPDATE bookings
		SET status = ?, meeting_name = ?, purpose = ?, participant_count = ?, updated_at = ?, cancelled_at = ?, cancellation_reason = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.helper.Exec(ctx, query,
		booking.Status,
		nullString(booking.MeetingName),
		nullString(booking.Purpose),
		booking.ParticipantCount,
		formatTime(booking.UpdatedAt),
		nullTime(booking.CancelledAt),
		nullString(booking.CancellationReason),
		booking.ID,
		expectedStatus,
	)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a missing row from a status mismatch.
		var exists int
		err := r.helper.QueryRow(ctx, `SELECT 1 FROM bookings WHERE id = ?`, booking.ID).Scan(&exists)
		if err == sql.ErrNoRows {
			return persistence.Booking{}, persistence.ErrNotFound
		}
		if err != nil {
			return persistence.Booking{}, r.mapper.MapError(err)
		}
		return persistence.Booking{}, persistence.ErrStaleState
	}

	return booking, nil
}

// ListBookings lists bookings matching the filter ordered by start time then ID.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	query, args := buildBookingListQuery(filter)

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		bookings = append(bookings, booking)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return bookings, nil
}

// buildBookingListQuery builds the SQL query for listing bookings with filters.
func buildBookingListQuery(filter persistence.BookingFilter) (string, []any) {
	query := `SELECT ` + bookingColumns + ` FROM bookings`

	var conditions []string
	var args []any

	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.OverlapStart != nil && filter.OverlapEnd != nil {
		conditions = append(conditions, "start_time < ? AND end_time > ?")
		args = append(args, formatTime(*filter.OverlapEnd), formatTime(*filter.OverlapStart))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if filter.EndsAtOrBefore != nil {
		conditions = append(conditions, "end_time <= ?")
		args = append(args, formatTime(*filter.EndsAtOrBefore))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return query, args
}

// scanBooking reads one booking row through the given scan function.
func scanBooking(scan func(dest ...any) error) (persistence.Booking, error) {
	var booking persistence.Booking
	var startStr, endStr, createdAtStr, updatedAtStr string
	var meetingName, purpose, cancelledAt, cancellationReason sql.NullString

	err := scan(
		&booking.ID,
		&booking.ResourceID,
		&booking.UserID,
		&startStr,
		&endStr,
		&booking.Status,
		&meetingName,
		&purpose,
		&booking.ParticipantCount,
		&createdAtStr,
		&updatedAtStr,
		&cancelledAt,
		&cancellationReason,
	)
	if err != nil {
		return persistence.Booking{}, err
	}

	if meetingName.Valid {
		booking.MeetingName = &meetingName.String
	}
	if purpose.Valid {
		booking.Purpose = &purpose.String
	}
	if cancellationReason.Valid {
		booking.CancellationReason = &cancellationReason.String
	}

	if booking.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if booking.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if booking.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if booking.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Booking{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	if cancelledAt.Valid {
		parsed, err := time.Parse(time.RFC3339, cancelledAt.String)
		if err != nil {
			return persistence.Booking{}, fmt.Errorf("failed to parse cancelled_at: %w", err)
		}
		booking.CancelledAt = &parsed
	}

	return booking, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
