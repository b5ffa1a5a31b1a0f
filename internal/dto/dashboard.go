package dto

import "github.com/futebagres/pelada-api/internal/models"

// DashboardView is the serializable state of the home screen: the search box,
// the two event lists and the caller's attendance strip.
type DashboardView struct {
	Search        string               `json:"search"`
	Owned         []models.Event       `json:"owned"`
	Participating []models.Event       `json:"participating"`
	Heatmap       []models.CalendarDay `json:"heatmap"`
}
