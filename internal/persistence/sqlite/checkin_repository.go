package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/booking-engine/internal/persistence"
)

// CheckInRepository implements persistence.CheckInRepository using SQLite.
type CheckInRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewCheckInRepository creates a new SQLite check-in repository.
func NewCheckInRepository(pool *ConnectionPool) *CheckInRepository {
	return &CheckInRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// GetCheckIn retrieves the check-in satellite for a booking.
func (r *CheckInRepository) GetCheckIn(ctx context.Context, bookingID string) (persistence.CheckIn, error) {
	if bookingID == "" {
		return persistence.CheckIn{}, persistence.ErrNotFound
	}

	query := `
		SELECT booking_id, check_in_at, check_out_at, no_show, created_at, updated_at
		FROM check_ins
		WHERE booking_id = ?
	`

	var record persistence.CheckIn
	var checkInAt, checkOutAt sql.NullString
	var noShow int
	var createdAtStr, updatedAtStr string

	err := r.helper.QueryRow(ctx, query, bookingID).Scan(
		&record.BookingID,
		&checkInAt,
		&checkOutAt,
		&noShow,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return persistence.CheckIn{}, persistence.ErrNotFound
		}
		return persistence.CheckIn{}, r.mapper.MapError(err)
	}

	record.NoShow = noShow != 0
	if checkInAt.Valid {
		parsed, err := time.Parse(time.RFC3339, checkInAt.String)
		if err != nil {
			return persistence.CheckIn{}, fmt.Errorf("failed to parse check_in_at: %w", err)
		}
		record.CheckInAt = &parsed
	}
	if checkOutAt.Valid {
		parsed, err := time.Parse(time.RFC3339, checkOutAt.String)
		if err != nil {
			return persistence.CheckIn{}, fmt.Errorf("failed to parse check_out_at: %w", err)
		}
		record.CheckOutAt = &parsed
	}
	if record.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.CheckIn{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if record.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.CheckIn{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return record, nil
}

// SaveCheckIn upserts the check-in satellite for a booking.
func (r *CheckInRepository) SaveCheckIn(ctx context.Context, record persistence.CheckIn) (persistence.CheckIn, error) {
	if record.BookingID == "" {
		return persistence.CheckIn{}, persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO check_ins (booking_id, check_in_at, check_out_at, no_show, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(booking_id) DO UPDATE SET
			check_in_at = excluded.check_in_at,
			check_out_at = excluded.check_out_at,
			no_show = excluded.no_show,
			updated_at = excluded.updated_at
	`

	_, err := r.helper.Exec(ctx, query,
		record.BookingID,
		nullTime(record.CheckInAt),
		nullTime(record.CheckOutAt),
		boolToInt(record.NoShow),
		formatTime(record.CreatedAt),
		formatTime(record.UpdatedAt),
	)
	if err != nil {
		return persistence.CheckIn{}, r.mapper.MapError(err)
	}

	return record, nil
}
