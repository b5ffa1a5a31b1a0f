package dto

import "github.com/futebagres/pelada-api/internal/models"

// MarkAttendanceRequest marks a participant present. Date defaults to today.
type MarkAttendanceRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// UnmarkAttendanceRequest removes a previously marked day.
type UnmarkAttendanceRequest struct {
	UserID string `json:"user_id" validate:"required,uuid"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
}

// HeatmapResponse is the 31-day strip centred on Today.
type HeatmapResponse struct {
	Today    string               `json:"today"`
	Timezone string               `json:"timezone"`
	Days     []models.CalendarDay `json:"days"`
}

// AttendanceList is the caller's attendance dates, newest first.
type AttendanceList struct {
	Dates []string `json:"dates"`
}
