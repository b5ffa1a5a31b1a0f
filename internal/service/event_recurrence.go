package service

import (
	"time"

	"github.com/teambition/rrule-go"

	"github.com/futebagres/pelada-api/internal/models"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
)

// EventStart places an event's civil date and HH:MM start in loc.
func EventStart(event models.Event, loc *time.Location) (time.Time, error) {
	minutes, err := ParseClock(event.StartTime)
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := event.Date.Date()
	return time.Date(y, m, d, minutes/60, minutes%60, 0, 0, loc), nil
}

// RecurrenceOption maps an event's repeat period onto an RFC 5545 rule.
// Biweekly is a weekly rule with interval two.
func RecurrenceOption(recurrence models.Recurrence, dtstart time.Time) (rrule.ROption, error) {
	opt := rrule.ROption{Dtstart: dtstart, Interval: 1}
	switch recurrence {
	case models.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
	case models.RecurrenceBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2
	case models.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
	default:
		return rrule.ROption{}, appErrors.Clone(appErrors.ErrInvalidInput, "unsupported recurrence")
	}
	return opt, nil
}

// ExpandOccurrences lists the instances of event whose start falls in
// [from, to], at most limit of them. A non-recurring event has one instance.
// The returned flag reports whether the list was truncated.
func ExpandOccurrences(event models.Event, loc *time.Location, from, to time.Time, limit int) ([]models.Occurrence, bool, error) {
	start, err := EventStart(event, loc)
	if err != nil {
		return nil, false, err
	}
	length := time.Duration(event.Duration) * time.Minute

	if !event.IsRecurring {
		if start.Before(from) || start.After(to) {
			return []models.Occurrence{}, false, nil
		}
		return []models.Occurrence{{EventID: event.ID, Start: start, End: start.Add(length)}}, false, nil
	}

	opt, err := RecurrenceOption(event.Recurrence, start)
	if err != nil {
		return nil, false, err
	}
	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build recurrence rule")
	}

	starts := rule.Between(from.In(loc), to.In(loc), true)
	truncated := false
	if limit > 0 && len(starts) > limit {
		starts = starts[:limit]
		truncated = true
	}

	out := make([]models.Occurrence, 0, len(starts))
	for _, s := range starts {
		out = append(out, models.Occurrence{EventID: event.ID, Start: s, End: s.Add(length)})
	}
	return out, truncated, nil
}
