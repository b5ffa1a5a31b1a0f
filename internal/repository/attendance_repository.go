package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/futebagres/pelada-api/internal/models"
)

// AttendanceRepository records which days a player was present at an event.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Mark stores an attendance row. It reports false when the same
// (event, user, day) was already marked.
func (r *AttendanceRepository) Mark(ctx context.Context, record *models.Attendance) (bool, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO event_attendance (id, event_id, user_id, attended_on, marked_by, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (event_id, user_id, attended_on) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, record.ID, record.EventID, record.UserID, record.AttendedOn.Format(models.DateLayout), record.MarkedBy, record.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("mark attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark attendance rows: %w", err)
	}
	return affected > 0, nil
}

// Unmark deletes a marked day. It reports false when nothing was stored.
func (r *AttendanceRepository) Unmark(ctx context.Context, eventID, userID string, day time.Time) (bool, error) {
	const query = `DELETE FROM event_attendance WHERE event_id = $1 AND user_id = $2 AND attended_on = $3`
	res, err := r.db.ExecContext(ctx, query, eventID, userID, day.Format(models.DateLayout))
	if err != nil {
		return false, fmt.Errorf("unmark attendance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unmark attendance rows: %w", err)
	}
	return affected > 0, nil
}

// ListDates returns every distinct day the user was present, newest first.
func (r *AttendanceRepository) ListDates(ctx context.Context, userID string) ([]time.Time, error) {
	const query = `SELECT DISTINCT attended_on FROM event_attendance WHERE user_id = $1 ORDER BY attended_on DESC`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, userID); err != nil {
		return nil, fmt.Errorf("list attendance dates: %w", err)
	}
	return dates, nil
}

// ListDatesBetween returns the distinct days in [from, to], both inclusive.
func (r *AttendanceRepository) ListDatesBetween(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error) {
	const query = `SELECT DISTINCT attended_on FROM event_attendance WHERE user_id = $1 AND attended_on BETWEEN $2 AND $3 ORDER BY attended_on ASC`
	var dates []time.Time
	if err := r.db.SelectContext(ctx, &dates, query, userID, from.Format(models.DateLayout), to.Format(models.DateLayout)); err != nil {
		return nil, fmt.Errorf("list attendance window: %w", err)
	}
	return dates, nil
}

// History joins the user's attendance with event details for export.
func (r *AttendanceRepository) History(ctx context.Context, userID string) ([]models.AttendanceHistoryRow, error) {
	const query = `SELECT a.attended_on, e.id AS event_id, e.title AS event_title, e.code AS event_code, e.location
FROM event_attendance a
JOIN events e ON e.id = a.event_id
WHERE a.user_id = $1
ORDER BY a.attended_on DESC, e.title ASC`
	var rows []models.AttendanceHistoryRow
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("attendance history: %w", err)
	}
	return rows, nil
}
