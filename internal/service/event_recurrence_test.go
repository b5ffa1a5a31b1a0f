package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/futebagres/pelada-api/internal/models"
)

func recurringEvent(recurrence models.Recurrence) models.Event {
	return models.Event{
		ID:          "e1",
		StartTime:   "19:00",
		Duration:    90,
		Date:        time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
		IsRecurring: true,
		Recurrence:  recurrence,
	}
}

func TestEventStartUsesClubLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	require.NoError(t, err)

	start, err := EventStart(recurringEvent(models.RecurrenceWeekly), loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 5, 2, 19, 0, 0, 0, loc), start)
	assert.Equal(t, 22, start.UTC().Hour())
}

func TestExpandOccurrencesWeekly(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)

	occ, truncated, err := ExpandOccurrences(recurringEvent(models.RecurrenceWeekly), time.UTC, from, to, 500)
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, occ, 5)
	assert.Equal(t, 2, occ[0].Start.Day())
	assert.Equal(t, 30, occ[4].Start.Day())
	assert.Equal(t, 90*time.Minute, occ[0].End.Sub(occ[0].Start))
}

func TestExpandOccurrencesBiweekly(t *testing.T) {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 23, 59, 59, 0, time.UTC)

	occ, _, err := ExpandOccurrences(recurringEvent(models.RecurrenceBiweekly), time.UTC, from, to, 500)
	require.NoError(t, err)
	require.Len(t, occ, 3)
	assert.Equal(t, []int{2, 16, 30}, []int{occ[0].Start.Day(), occ[1].Start.Day(), occ[2].Start.Day()})
}

func TestExpandOccurrencesMonthlyAndCap(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)

	occ, truncated, err := ExpandOccurrences(recurringEvent(models.RecurrenceMonthly), time.UTC, from, to, 4)
	require.NoError(t, err)
	assert.True(t, truncated)
	require.Len(t, occ, 4)
	assert.Equal(t, time.June, occ[1].Start.Month())
}

func TestExpandOccurrencesSingleEvent(t *testing.T) {
	event := recurringEvent(models.RecurrenceWeekly)
	event.IsRecurring = false

	inside, _, err := ExpandOccurrences(event, time.UTC, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC), 500)
	require.NoError(t, err)
	assert.Len(t, inside, 1)

	outside, _, err := ExpandOccurrences(event, time.UTC, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC), 500)
	require.NoError(t, err)
	assert.Empty(t, outside)
}

func TestRecurrenceOptionRejectsUnknown(t *testing.T) {
	_, err := RecurrenceOption(models.Recurrence("daily"), time.Now())
	assert.Error(t, err)
}
