package service

import (
	"time"

	"github.com/futebagres/pelada-api/internal/models"
)

// HeatmapRadiusDays is how many days the strip extends on each side of today.
const HeatmapRadiusDays = 15

// HeatmapLength is the fixed number of days in the strip.
const HeatmapLength = 2*HeatmapRadiusDays + 1

type dayKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dayKey {
	y, m, d := t.Date()
	return dayKey{y, m, d}
}

// BuildHeatmap returns the 31-day strip centred on today, flagging days found
// in attendance. Days are compared by the calendar date each value carries in
// its own location; callers normalise everything to one timezone first.
func BuildHeatmap(today time.Time, attendance []time.Time) []models.CalendarDay {
	present := make(map[dayKey]struct{}, len(attendance))
	for _, t := range attendance {
		present[keyOf(t)] = struct{}{}
	}

	y, m, d := today.Date()
	days := make([]models.CalendarDay, 0, HeatmapLength)
	for offset := -HeatmapRadiusDays; offset <= HeatmapRadiusDays; offset++ {
		// time.Date normalises day overflow, so month and year boundaries need no special case.
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, today.Location())
		_, ok := present[keyOf(day)]
		days = append(days, models.CalendarDay{Date: day, Present: ok})
	}
	return days
}
