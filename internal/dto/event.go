package dto

import (
	"time"

	"github.com/futebagres/pelada-api/internal/models"
)

// Form defaults for a new event.
const (
	DefaultMaxPlayers     = 20
	DefaultMaxGoalkeepers = 2
	DefaultDuration       = 90
)

// EventDraft is the create-event form state. It is what the client submits
// to POST /events and round-trips as JSON without loss.
type EventDraft struct {
	Title          string            `json:"title" validate:"required,max=120"`
	Location       string            `json:"location" validate:"max=200"`
	IsPrivate      bool              `json:"is_private"`
	MaxPlayers     int               `json:"max_players" validate:"min=0,max=200"`
	MaxGoalkeepers *int              `json:"max_goalkeepers,omitempty" validate:"omitempty,min=0,max=20"`
	FieldType      models.FieldType  `json:"field_type" validate:"omitempty,fieldtype"`
	Duration       int               `json:"duration" validate:"min=0,max=1440"`
	IsRecurring    bool              `json:"is_recurring"`
	Recurrence     models.Recurrence `json:"recurrence" validate:"omitempty,recurrence"`
	StartTime      string            `json:"start_time" validate:"required,hhmm"`
	PriceMonthly   float64           `json:"price_monthly" validate:"min=0"`
	PriceCasual    float64           `json:"price_casual" validate:"min=0"`
	Date           string            `json:"date" validate:"required,datetime=2006-01-02"`
}

// NewEventDraft returns an empty form carrying the default values.
func NewEventDraft() EventDraft {
	goalkeepers := DefaultMaxGoalkeepers
	return EventDraft{
		MaxPlayers:     DefaultMaxPlayers,
		MaxGoalkeepers: &goalkeepers,
		FieldType:      models.FieldTypeSociety,
		Duration:       DefaultDuration,
		Recurrence:     models.RecurrenceWeekly,
	}
}

// WithDefaults fills unset numeric and enum fields with the form defaults.
func (d EventDraft) WithDefaults() EventDraft {
	if d.MaxPlayers == 0 {
		d.MaxPlayers = DefaultMaxPlayers
	}
	if d.MaxGoalkeepers == nil {
		goalkeepers := DefaultMaxGoalkeepers
		d.MaxGoalkeepers = &goalkeepers
	}
	if d.FieldType == "" {
		d.FieldType = models.FieldTypeSociety
	}
	if d.Duration == 0 {
		d.Duration = DefaultDuration
	}
	if d.Recurrence == "" {
		d.Recurrence = models.RecurrenceWeekly
	}
	return d
}

// SchedulePreviewRequest asks for the derived end time and a candidate code.
type SchedulePreviewRequest struct {
	StartTime string `json:"start_time"`
	Duration  int    `json:"duration"`
}

// JoinEventRequest joins an event by its short code.
type JoinEventRequest struct {
	Code string `json:"code" validate:"required,min=4,max=12,alphanum"`
}

// EventLists splits the caller's events into the ones they own and the ones
// they joined.
type EventLists struct {
	Owned         []models.Event `json:"owned"`
	Participating []models.Event `json:"participating"`
}

// OccurrenceQuery bounds an occurrence expansion. Dates are YYYY-MM-DD.
type OccurrenceQuery struct {
	From string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `form:"to" validate:"omitempty,datetime=2006-01-02"`
}

// CalendarLink is a signed iCalendar subscription URL.
type CalendarLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
