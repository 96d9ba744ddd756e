package postgres

import (
	"context"
	"fmt"

	"github.com/kozaktomas/servicehub/internal/database"
)

// AttendanceRepository provides PostgreSQL-backed attendance storage
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new PostgreSQL attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// MarkAttendance stores an attendance record
func (r *AttendanceRepository) MarkAttendance(ctx context.Context, record *database.Attendance) error {
	query := `
		INSERT INTO attendances (id, user_id, booking_id, method, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.pool.Exec(ctx, query, record.ID, record.UserID, record.BookingID, record.Method, record.Timestamp)
	if err != nil {
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}

// ListAttendance returns a user's attendance records, newest first
func (r *AttendanceRepository) ListAttendance(ctx context.Context, userID string) ([]database.Attendance, error) {
	query := `
		SELECT id, user_id, booking_id, method, created_at
		FROM attendances
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query attendance: %w", err)
	}
	defer rows.Close()

	var records []database.Attendance
	for rows.Next() {
		var a database.Attendance
		if err := rows.Scan(&a.ID, &a.UserID, &a.BookingID, &a.Method, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan attendance: %w", err)
		}
		records = append(records, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance: %w", err)
	}
	return records, nil
}
