package models

import (
	"encoding/json"
	"time"
)

// DateLayout is the wire format for day-granularity values.
const DateLayout = "2006-01-02"

// Attendance records that a user was present at an event on a calendar day.
type Attendance struct {
	ID         string    `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	UserID     string    `db:"user_id" json:"user_id"`
	AttendedOn time.Time `db:"attended_on" json:"attended_on"`
	MarkedBy   string    `db:"marked_by" json:"marked_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AttendanceHistoryRow is one attendance entry joined with its event.
type AttendanceHistoryRow struct {
	AttendedOn time.Time `db:"attended_on" json:"attended_on"`
	EventID    string    `db:"event_id" json:"event_id"`
	EventTitle string    `db:"event_title" json:"event_title"`
	EventCode  string    `db:"event_code" json:"event_code"`
	Location   string    `db:"location" json:"location"`
}

// CalendarDay is one cell of the attendance heatmap.
type CalendarDay struct {
	Date    time.Time
	Present bool
}

type calendarDayJSON struct {
	Date    string `json:"date"`
	Present bool   `json:"present"`
}

// MarshalJSON renders the date without a time component.
func (d CalendarDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(calendarDayJSON{Date: d.Date.Format(DateLayout), Present: d.Present})
}

// UnmarshalJSON parses the day-only wire format back into UTC midnight.
func (d *CalendarDay) UnmarshalJSON(b []byte) error {
	var raw calendarDayJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return err
	}
	d.Date = t
	d.Present = raw.Present
	return nil
}
