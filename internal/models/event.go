package models

import "time"

// FieldType is the pitch surface of a match.
type FieldType string

const (
	FieldTypeSociety FieldType = "society"
	FieldTypeSalao   FieldType = "salao"
	FieldTypeCampo   FieldType = "campo"
)

// Valid reports whether the field type is supported.
func (f FieldType) Valid() bool {
	switch f {
	case FieldTypeSociety, FieldTypeSalao, FieldTypeCampo:
		return true
	default:
		return false
	}
}

// Recurrence is the repeat period of a recurring match.
type Recurrence string

const (
	RecurrenceWeekly   Recurrence = "weekly"
	RecurrenceBiweekly Recurrence = "biweekly"
	RecurrenceMonthly  Recurrence = "monthly"
)

// Valid reports whether the recurrence period is supported.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceWeekly, RecurrenceBiweekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// Event is a scheduled match owned by one user and joined by others.
type Event struct {
	ID               string     `db:"id" json:"id"`
	OwnerID          string     `db:"owner_id" json:"owner_id"`
	Code             string     `db:"code" json:"code"`
	Title            string     `db:"title" json:"title"`
	Location         string     `db:"location" json:"location"`
	IsPrivate        bool       `db:"is_private" json:"is_private"`
	MaxPlayers       int        `db:"max_players" json:"max_players"`
	MaxGoalkeepers   int        `db:"max_goalkeepers" json:"max_goalkeepers"`
	FieldType        FieldType  `db:"field_type" json:"field_type"`
	Duration         int        `db:"duration" json:"duration"`
	IsRecurring      bool       `db:"is_recurring" json:"is_recurring"`
	Recurrence       Recurrence `db:"recurrence" json:"recurrence"`
	StartTime        string     `db:"start_time" json:"start_time"`
	EndTime          string     `db:"end_time" json:"end_time"`
	Date             time.Time  `db:"date" json:"date"`
	PriceMonthly     float64    `db:"price_monthly" json:"price_monthly"`
	PriceCasual      float64    `db:"price_casual" json:"price_casual"`
	ParticipantCount int        `db:"participant_count" json:"participant_count"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at" json:"updated_at"`
}

// EventParticipant links a user to an event they joined.
type EventParticipant struct {
	EventID  string    `db:"event_id" json:"event_id"`
	UserID   string    `db:"user_id" json:"user_id"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// EventSchedule is the derived end time and short code of a new event.
type EventSchedule struct {
	EndTime string `json:"end_time"`
	Code    string `json:"code"`
}

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	EventID string    `json:"event_id"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
}
