package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	"github.com/futebagres/pelada-api/internal/repository"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
)

type fakeEventRepo struct {
	events       map[string]*models.Event
	participants map[string]map[string]bool
	duplicates   int
	createCalls  int
	codes        []string
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: map[string]*models.Event{}, participants: map[string]map[string]bool{}}
}

func (f *fakeEventRepo) Create(_ context.Context, event *models.Event) error {
	f.createCalls++
	f.codes = append(f.codes, event.Code)
	if f.duplicates > 0 {
		f.duplicates--
		return repository.ErrDuplicate
	}
	event.ID = uuid.NewString()
	event.ParticipantCount = 1
	clone := *event
	f.events[event.ID] = &clone
	f.participants[event.ID] = map[string]bool{event.OwnerID: true}
	return nil
}

func (f *fakeEventRepo) GetByID(_ context.Context, id string) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *e
	clone.ParticipantCount = len(f.participants[id])
	return &clone, nil
}

func (f *fakeEventRepo) GetByCode(ctx context.Context, code string) (*models.Event, error) {
	for id, e := range f.events {
		if strings.EqualFold(e.Code, code) {
			return f.GetByID(ctx, id)
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEventRepo) ListOwned(_ context.Context, userID string) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		if e.OwnerID == userID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListParticipating(_ context.Context, userID string) ([]models.Event, error) {
	var out []models.Event
	for id, e := range f.events {
		if e.OwnerID != userID && f.participants[id][userID] {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) IsParticipant(_ context.Context, eventID, userID string) (bool, error) {
	return f.participants[eventID][userID], nil
}

func (f *fakeEventRepo) AddParticipant(_ context.Context, eventID, userID string) (bool, error) {
	e := f.events[eventID]
	if len(f.participants[eventID]) >= e.MaxPlayers {
		return false, nil
	}
	f.participants[eventID][userID] = true
	return true, nil
}

func (f *fakeEventRepo) RemoveParticipant(_ context.Context, eventID, userID string) error {
	delete(f.participants[eventID], userID)
	return nil
}

func newTestEventService(repo *fakeEventRepo, inv userViewInvalidator) *EventService {
	svc := NewEventService(repo, nil, zap.NewNop(), nil, inv, EventServiceConfig{CodeMaxAttempts: 3})
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validDraft() dto.EventDraft {
	return dto.EventDraft{Title: "Pelada de quinta", StartTime: "23:30", Date: "2024-05-02"}
}

func TestEventServiceCreateAppliesDefaults(t *testing.T) {
	repo := newFakeEventRepo()
	inv := &recordingInvalidator{}
	svc := newTestEventService(repo, inv)

	event, err := svc.Create(context.Background(), "owner", validDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.Equal(t, "01:00", event.EndTime)
	assert.Len(t, event.Code, DefaultCodeLength)
	assert.Equal(t, dto.DefaultMaxPlayers, event.MaxPlayers)
	assert.Equal(t, dto.DefaultMaxGoalkeepers, event.MaxGoalkeepers)
	assert.Equal(t, models.FieldTypeSociety, event.FieldType)
	assert.Equal(t, models.RecurrenceWeekly, event.Recurrence)
	assert.Equal(t, 90, event.Duration)
	assert.Equal(t, "2024-05-02", event.Date.Format(models.DateLayout))
	assert.Equal(t, []string{"owner"}, inv.users)
}

func TestEventServiceCreateValidation(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), nil)

	cases := map[string]func(d *dto.EventDraft){
		"missing title":     func(d *dto.EventDraft) { d.Title = "   " },
		"bad start":         func(d *dto.EventDraft) { d.StartTime = "7pm" },
		"bad field type":    func(d *dto.EventDraft) { d.FieldType = "grass" },
		"bad recurrence":    func(d *dto.EventDraft) { d.Recurrence = "daily" },
		"bad date":          func(d *dto.EventDraft) { d.Date = "02/05/2024" },
		"negative duration": func(d *dto.EventDraft) { d.Duration = -5 },
		"too many keepers": func(d *dto.EventDraft) {
			d.MaxPlayers = 4
			keepers := 5
			d.MaxGoalkeepers = &keepers
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			draft := validDraft()
			mutate(&draft)
			_, err := svc.Create(context.Background(), "owner", draft)
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}
}

func TestEventServiceCreateRegeneratesCodeOnCollision(t *testing.T) {
	repo := newFakeEventRepo()
	repo.duplicates = 2
	svc := newTestEventService(repo, nil)

	event, err := svc.Create(context.Background(), "owner", validDraft())
	require.NoError(t, err)
	assert.Equal(t, 3, repo.createCalls)
	assert.Equal(t, repo.codes[2], event.Code)
}

func TestEventServiceCreateGivesUpAfterMaxAttempts(t *testing.T) {
	repo := newFakeEventRepo()
	repo.duplicates = 10
	svc := newTestEventService(repo, nil)

	_, err := svc.Create(context.Background(), "owner", validDraft())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrCodeExhausted)
	assert.Equal(t, 3, repo.createCalls)
}

func TestEventServicePreview(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), nil)

	schedule, err := svc.Preview(dto.SchedulePreviewRequest{StartTime: "18:45", Duration: 120})
	require.NoError(t, err)
	assert.Equal(t, "20:45", schedule.EndTime)
	assert.Len(t, schedule.Code, DefaultCodeLength)

	_, err = svc.Preview(dto.SchedulePreviewRequest{StartTime: "", Duration: 60})
	assert.ErrorIs(t, err, appErrors.ErrInvalidInput)
}

func TestEventServiceJoinAndLeave(t *testing.T) {
	repo := newFakeEventRepo()
	inv := &recordingInvalidator{}
	svc := newTestEventService(repo, inv)
	ctx := context.Background()

	event, err := svc.Create(ctx, "owner", validDraft())
	require.NoError(t, err)
	inv.users = nil

	joined, err := svc.Join(ctx, "player", dto.JoinEventRequest{Code: strings.ToLower(event.Code)})
	require.NoError(t, err)
	assert.Equal(t, 2, joined.ParticipantCount)
	assert.ElementsMatch(t, []string{"player", "owner"}, inv.users)

	again, err := svc.Join(ctx, "player", dto.JoinEventRequest{Code: event.Code})
	require.NoError(t, err)
	assert.Equal(t, 2, again.ParticipantCount)

	lists, err := svc.List(ctx, "player", "")
	require.NoError(t, err)
	assert.Empty(t, lists.Owned)
	require.Len(t, lists.Participating, 1)

	require.NoError(t, svc.Leave(ctx, "player", event.ID))
	assert.False(t, repo.participants[event.ID]["player"])

	err = svc.Leave(ctx, "player", event.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	err = svc.Leave(ctx, "owner", event.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestEventServiceJoinFullEvent(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestEventService(repo, nil)
	ctx := context.Background()

	draft := validDraft()
	draft.MaxPlayers = 2
	keepers := 1
	draft.MaxGoalkeepers = &keepers
	event, err := svc.Create(ctx, "owner", draft)
	require.NoError(t, err)

	_, err = svc.Join(ctx, "p1", dto.JoinEventRequest{Code: event.Code})
	require.NoError(t, err)

	_, err = svc.Join(ctx, "p2", dto.JoinEventRequest{Code: event.Code})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrEventFull)
}

func TestEventServiceJoinUnknownCode(t *testing.T) {
	svc := newTestEventService(newFakeEventRepo(), nil)

	_, err := svc.Join(context.Background(), "player", dto.JoinEventRequest{Code: "ZZZZZZ"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Join(context.Background(), "player", dto.JoinEventRequest{Code: "no!"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestEventServiceGetHidesPrivateEvents(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestEventService(repo, nil)
	ctx := context.Background()

	draft := validDraft()
	draft.IsPrivate = true
	event, err := svc.Create(ctx, "owner", draft)
	require.NoError(t, err)

	_, err = svc.Get(ctx, "stranger", event.ID)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	got, err := svc.Get(ctx, "owner", event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)

	_, err = svc.Join(ctx, "stranger", dto.JoinEventRequest{Code: event.Code})
	require.NoError(t, err)
	_, err = svc.Get(ctx, "stranger", event.ID)
	assert.NoError(t, err)
}

func TestFilterEvents(t *testing.T) {
	events := []models.Event{
		{Title: "Pelada de Quinta", Code: "AB12CD"},
		{Title: "Futsal", Code: "ZX98QW"},
	}

	assert.Len(t, FilterEvents(events, ""), 2)
	assert.Len(t, FilterEvents(events, "quinta"), 1)
	got := FilterEvents(events, "zx98")
	require.Len(t, got, 1)
	assert.Equal(t, "Futsal", got[0].Title)
	assert.Empty(t, FilterEvents(events, "society"))
}

func TestEventServiceOccurrences(t *testing.T) {
	repo := newFakeEventRepo()
	svc := newTestEventService(repo, nil)
	ctx := context.Background()

	draft := validDraft()
	draft.StartTime = "19:00"
	draft.IsRecurring = true
	draft.Recurrence = models.RecurrenceBiweekly
	event, err := svc.Create(ctx, "owner", draft)
	require.NoError(t, err)

	occ, truncated, err := svc.Occurrences(ctx, "owner", event.ID, dto.OccurrenceQuery{From: "2024-05-01", To: "2024-05-30"})
	require.NoError(t, err)
	assert.False(t, truncated)
	require.Len(t, occ, 3)
	assert.Equal(t, time.Date(2024, 5, 30, 19, 0, 0, 0, time.UTC), occ[2].Start)

	_, _, err = svc.Occurrences(ctx, "owner", event.ID, dto.OccurrenceQuery{From: "2024-06-01", To: "2024-05-01"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	defaults, _, err := svc.Occurrences(ctx, "owner", event.ID, dto.OccurrenceQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, defaults)
	assert.Equal(t, time.Date(2024, 5, 2, 19, 0, 0, 0, time.UTC), defaults[0].Start)
}
