package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/futebagres/pelada-api/internal/models"
)

const eventSelect = `SELECT e.id, e.owner_id, e.code, e.title, e.location, e.is_private, e.max_players, e.max_goalkeepers, e.field_type, e.duration, e.is_recurring, e.recurrence, e.start_time, e.end_time, e.date, e.price_monthly, e.price_casual, e.created_at, e.updated_at, (SELECT COUNT(*) FROM event_participants ep WHERE ep.event_id = e.id) AS participant_count FROM events e`

// EventRepository stores matches and their participants.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs the repository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the event and enrols its owner. A code that is already taken
// yields ErrDuplicate so the caller can draw a new one.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create event tx: %w", err)
	}

	const eventQuery = `INSERT INTO events (id, owner_id, code, title, location, is_private, max_players, max_goalkeepers, field_type, duration, is_recurring, recurrence, start_time, end_time, date, price_monthly, price_casual, created_at, updated_at)
VALUES (:id, :owner_id, :code, :title, :location, :is_private, :max_players, :max_goalkeepers, :field_type, :duration, :is_recurring, :recurrence, :start_time, :end_time, :date, :price_monthly, :price_casual, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, eventQuery, event); err != nil {
		_ = tx.Rollback()
		if isUniqueViolation(err) {
			return fmt.Errorf("create event: %w", ErrDuplicate)
		}
		return fmt.Errorf("create event: %w", err)
	}

	const ownerQuery = `INSERT INTO event_participants (event_id, user_id, joined_at) VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, ownerQuery, event.ID, event.OwnerID, now); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("enrol event owner: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create event tx: %w", err)
	}
	event.ParticipantCount = 1
	return nil
}

// GetByID returns an event with its participant count.
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.GetContext(ctx, &event, eventSelect+` WHERE e.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	return &event, nil
}

// GetByCode returns the event carrying a join code.
func (r *EventRepository) GetByCode(ctx context.Context, code string) (*models.Event, error) {
	var event models.Event
	if err := r.db.GetContext(ctx, &event, eventSelect+` WHERE UPPER(e.code) = UPPER($1)`, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get event by code: %w", err)
	}
	return &event, nil
}

// ListOwned returns events created by the user, soonest first.
func (r *EventRepository) ListOwned(ctx context.Context, userID string) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, eventSelect+` WHERE e.owner_id = $1 ORDER BY e.date ASC, e.start_time ASC`, userID); err != nil {
		return nil, fmt.Errorf("list owned events: %w", err)
	}
	return events, nil
}

// ListParticipating returns events the user joined but does not own.
func (r *EventRepository) ListParticipating(ctx context.Context, userID string) ([]models.Event, error) {
	query := eventSelect + ` JOIN event_participants p ON p.event_id = e.id WHERE p.user_id = $1 AND e.owner_id <> $1 ORDER BY e.date ASC, e.start_time ASC`
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("list participating events: %w", err)
	}
	return events, nil
}

// IsParticipant reports whether the user is enrolled in the event.
func (r *EventRepository) IsParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM event_participants WHERE event_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, eventID, userID); err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return exists, nil
}

// AddParticipant enrols a user while seats remain. It reports false when the
// event is already at max_players. The event row is locked for the duration
// of the count and insert so concurrent joins cannot overfill it.
func (r *EventRepository) AddParticipant(ctx context.Context, eventID, userID string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin add participant tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var maxPlayers int
	if err := tx.GetContext(ctx, &maxPlayers, `SELECT max_players FROM events WHERE id = $1 FOR UPDATE`, eventID); err != nil {
		if err == sql.ErrNoRows {
			return false, err
		}
		return false, fmt.Errorf("lock event: %w", err)
	}

	var count int
	if err := tx.GetContext(ctx, &count, `SELECT COUNT(*) FROM event_participants WHERE event_id = $1`, eventID); err != nil {
		return false, fmt.Errorf("count participants: %w", err)
	}
	if count >= maxPlayers {
		return false, nil
	}

	const insert = `INSERT INTO event_participants (event_id, user_id, joined_at) VALUES ($1, $2, $3)
ON CONFLICT (event_id, user_id) DO NOTHING`
	if _, err := tx.ExecContext(ctx, insert, eventID, userID, time.Now().UTC()); err != nil {
		return false, fmt.Errorf("add participant: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit add participant tx: %w", err)
	}
	return true, nil
}

// RemoveParticipant drops a user from the event.
func (r *EventRepository) RemoveParticipant(ctx context.Context, eventID, userID string) error {
	const query = `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`
	if _, err := r.db.ExecContext(ctx, query, eventID, userID); err != nil {
		return fmt.Errorf("remove participant: %w", err)
	}
	return nil
}
