package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	"github.com/futebagres/pelada-api/internal/repository"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
)

type eventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetByCode(ctx context.Context, code string) (*models.Event, error)
	ListOwned(ctx context.Context, userID string) ([]models.Event, error)
	ListParticipating(ctx context.Context, userID string) ([]models.Event, error)
	IsParticipant(ctx context.Context, eventID, userID string) (bool, error)
	AddParticipant(ctx context.Context, eventID, userID string) (bool, error)
	RemoveParticipant(ctx context.Context, eventID, userID string) error
}

// EventServiceConfig tunes event creation and occurrence expansion.
type EventServiceConfig struct {
	CodeLength       int
	CodeMaxAttempts  int
	Location         *time.Location
	MaxOccurrences   int
	OccurrenceWindow time.Duration
}

// EventService manages matches: creation, lookup, joining and leaving.
type EventService struct {
	repo        eventRepository
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	invalidator userViewInvalidator
	scheduler   *EventScheduler
	cfg         EventServiceConfig
	now         func() time.Time
}

// NewEventService constructs the service and registers the hhmm, fieldtype
// and recurrence validation tags on validate.
func NewEventService(repo eventRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, invalidator userViewInvalidator, cfg EventServiceConfig) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = DefaultCodeLength
	}
	if cfg.CodeMaxAttempts <= 0 {
		cfg.CodeMaxAttempts = 3
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.MaxOccurrences <= 0 {
		cfg.MaxOccurrences = 500
	}
	if cfg.OccurrenceWindow <= 0 {
		cfg.OccurrenceWindow = 90 * 24 * time.Hour
	}
	RegisterEventValidators(validate, logger)
	return &EventService{
		repo:        repo,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		invalidator: invalidator,
		scheduler:   NewEventScheduler(cfg.CodeLength, nil),
		cfg:         cfg,
		now:         time.Now,
	}
}

// RegisterEventValidators adds the event form tags to validate.
func RegisterEventValidators(validate *validator.Validate, logger *zap.Logger) {
	rules := map[string]validator.Func{
		"hhmm": func(fl validator.FieldLevel) bool {
			_, err := ParseClock(fl.Field().String())
			return err == nil
		},
		"fieldtype": func(fl validator.FieldLevel) bool {
			return models.FieldType(fl.Field().String()).Valid()
		},
		"recurrence": func(fl validator.FieldLevel) bool {
			return models.Recurrence(fl.Field().String()).Valid()
		},
	}
	for tag, fn := range rules {
		if err := validate.RegisterValidation(tag, fn); err != nil && logger != nil {
			logger.Error("register validation", zap.String("tag", tag), zap.Error(err))
		}
	}
}

// Preview computes the end time and a candidate code without storing anything.
func (s *EventService) Preview(req dto.SchedulePreviewRequest) (*models.EventSchedule, error) {
	return s.scheduler.Compute(req.StartTime, req.Duration)
}

// Create stores a new event owned by ownerID. When the store rejects the
// generated code as taken a new one is drawn, up to CodeMaxAttempts times.
func (s *EventService) Create(ctx context.Context, ownerID string, draft dto.EventDraft) (*models.Event, error) {
	draft = draft.WithDefaults()
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Location = strings.TrimSpace(draft.Location)
	if err := s.validator.Struct(draft); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if *draft.MaxGoalkeepers > draft.MaxPlayers {
		return nil, appErrors.Clone(appErrors.ErrValidation, "max_goalkeepers cannot exceed max_players")
	}

	date, err := time.ParseInLocation(models.DateLayout, draft.Date, s.cfg.Location)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
	}

	schedule, err := s.scheduler.Compute(draft.StartTime, draft.Duration)
	if err != nil {
		return nil, err
	}

	event := &models.Event{
		OwnerID:        ownerID,
		Code:           schedule.Code,
		Title:          draft.Title,
		Location:       draft.Location,
		IsPrivate:      draft.IsPrivate,
		MaxPlayers:     draft.MaxPlayers,
		MaxGoalkeepers: *draft.MaxGoalkeepers,
		FieldType:      draft.FieldType,
		Duration:       draft.Duration,
		IsRecurring:    draft.IsRecurring,
		Recurrence:     draft.Recurrence,
		StartTime:      draft.StartTime,
		EndTime:        schedule.EndTime,
		Date:           date,
		PriceMonthly:   draft.PriceMonthly,
		PriceCasual:    draft.PriceCasual,
	}

	for attempt := 1; ; attempt++ {
		err = s.repo.Create(ctx, event)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
		}
		s.metrics.IncCodeCollision()
		s.logger.Warn("event code collision", zap.String("code", event.Code), zap.Int("attempt", attempt))
		if attempt >= s.cfg.CodeMaxAttempts {
			return nil, appErrors.Clone(appErrors.ErrCodeExhausted, "could not allocate a unique event code, try again")
		}
		code, codeErr := s.scheduler.Code()
		if codeErr != nil {
			return nil, appErrors.Wrap(codeErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate event code")
		}
		event.ID = ""
		event.Code = code
	}

	s.metrics.IncEventsCreated()
	s.invalidate(ctx, ownerID)
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("owner_id", ownerID), zap.String("code", event.Code))
	return event, nil
}

// List returns the caller's owned and joined events matching search.
func (s *EventService) List(ctx context.Context, userID, search string) (*dto.EventLists, error) {
	lists, err := s.lists(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.EventLists{
		Owned:         FilterEvents(lists.Owned, search),
		Participating: FilterEvents(lists.Participating, search),
	}, nil
}

func (s *EventService) lists(ctx context.Context, userID string) (*dto.EventLists, error) {
	owned, err := s.repo.ListOwned(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list owned events")
	}
	participating, err := s.repo.ListParticipating(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list joined events")
	}
	if owned == nil {
		owned = []models.Event{}
	}
	if participating == nil {
		participating = []models.Event{}
	}
	return &dto.EventLists{Owned: owned, Participating: participating}, nil
}

// FilterEvents keeps events whose title or code contains search, ignoring case.
// An empty search keeps everything.
func FilterEvents(events []models.Event, search string) []models.Event {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" {
		return events
	}
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if strings.Contains(strings.ToLower(e.Title), needle) || strings.Contains(strings.ToLower(e.Code), needle) {
			out = append(out, e)
		}
	}
	return out
}

// Get returns an event visible to userID. Private events are only visible to
// their owner and participants; to anyone else they do not exist.
func (s *EventService) Get(ctx context.Context, userID, eventID string) (*models.Event, error) {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsPrivate || event.OwnerID == userID {
		return event, nil
	}
	member, err := s.repo.IsParticipant(ctx, eventID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participation")
	}
	if !member {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return event, nil
}

// Join enrols userID in the event carrying code. Joining twice is a no-op.
func (s *EventService) Join(ctx context.Context, userID string, req dto.JoinEventRequest) (*models.Event, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event code")
	}

	event, err := s.repo.GetByCode(ctx, req.Code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no event with this code")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to find event")
	}

	member, err := s.repo.IsParticipant(ctx, event.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participation")
	}
	if member {
		s.metrics.IncEventJoin("already_member")
		return event, nil
	}

	added, err := s.repo.AddParticipant(ctx, event.ID, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to join event")
	}
	if !added {
		s.metrics.IncEventJoin("full")
		return nil, appErrors.Clone(appErrors.ErrEventFull, "event is full")
	}

	s.metrics.IncEventJoin("joined")
	s.invalidate(ctx, userID, event.OwnerID)

	refreshed, err := s.repo.GetByID(ctx, event.ID)
	if err != nil {
		s.logger.Warn("reload joined event", zap.String("event_id", event.ID), zap.Error(err))
		event.ParticipantCount++
		return event, nil
	}
	return refreshed, nil
}

// Leave removes userID from the event. Owners cannot leave their own event.
func (s *EventService) Leave(ctx context.Context, userID, eventID string) error {
	event, err := s.load(ctx, eventID)
	if err != nil {
		return err
	}
	if event.OwnerID == userID {
		return appErrors.Clone(appErrors.ErrForbidden, "the owner cannot leave their own event")
	}
	member, err := s.repo.IsParticipant(ctx, eventID, userID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participation")
	}
	if !member {
		return appErrors.Clone(appErrors.ErrNotFound, "not a participant of this event")
	}
	if err := s.repo.RemoveParticipant(ctx, eventID, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to leave event")
	}
	s.invalidate(ctx, userID, event.OwnerID)
	return nil
}

// Occurrences expands a visible event between the query dates, inclusive.
// Missing bounds default to today and today plus the occurrence window.
func (s *EventService) Occurrences(ctx context.Context, userID, eventID string, query dto.OccurrenceQuery) ([]models.Occurrence, bool, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occurrence range")
	}
	event, err := s.Get(ctx, userID, eventID)
	if err != nil {
		return nil, false, err
	}

	loc := s.cfg.Location
	now := s.now().In(loc)
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if query.From != "" {
		from, _ = time.ParseInLocation(models.DateLayout, query.From, loc)
	}
	to := from.Add(s.cfg.OccurrenceWindow)
	if query.To != "" {
		to, _ = time.ParseInLocation(models.DateLayout, query.To, loc)
	}
	to = to.AddDate(0, 0, 1).Add(-time.Nanosecond)
	if to.Before(from) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}

	return ExpandOccurrences(*event, loc, from, to, s.cfg.MaxOccurrences)
}

func (s *EventService) load(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.repo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return event, nil
}

func (s *EventService) invalidate(ctx context.Context, userIDs ...string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userIDs...)
	}
}
