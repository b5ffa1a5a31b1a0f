package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"go.uber.org/zap"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
	"github.com/futebagres/pelada-api/pkg/signing"
)

const (
	calendarProductID  = "-//FuteBagres//Pelada API//PT"
	calendarTokenScope = "calendar-feed"
)

type feedLinkSigner interface {
	Generate(subject, scope string) (string, time.Time, error)
	Parse(token, scope string) (string, time.Time, error)
}

type eventFeedSource interface {
	ListOwned(ctx context.Context, userID string) ([]models.Event, error)
	ListParticipating(ctx context.Context, userID string) ([]models.Event, error)
}

// CalendarFeedConfig controls which events reach the feed.
type CalendarFeedConfig struct {
	Location *time.Location
	Horizon  time.Duration
	Name     string
	BaseURL  string
	// FeedURL prefixes subscription tokens, e.g. https://host/api/v1/calendar/.
	FeedURL  string
	Signer   feedLinkSigner
}

// CalendarFeedService renders a user's matches as an iCalendar document.
type CalendarFeedService struct {
	events eventFeedSource
	logger *zap.Logger
	cfg    CalendarFeedConfig
	now    func() time.Time
}

// NewCalendarFeedService constructs the feed service.
func NewCalendarFeedService(events eventFeedSource, logger *zap.Logger, cfg CalendarFeedConfig) *CalendarFeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = 90 * 24 * time.Hour
	}
	if cfg.Name == "" {
		cfg.Name = "FuteBagres"
	}
	return &CalendarFeedService{events: events, logger: logger, cfg: cfg, now: time.Now}
}

// Build returns the feed for userID. One-off events are included when they
// start within the horizon on either side of now; recurring events are
// included once their first match is within the horizon and carry an RRULE.
func (s *CalendarFeedService) Build(ctx context.Context, userID string) (string, error) {
	owned, err := s.events.ListOwned(ctx, userID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list owned events")
	}
	participating, err := s.events.ListParticipating(ctx, userID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list joined events")
	}

	now := s.now().In(s.cfg.Location)
	windowStart := now.Add(-s.cfg.Horizon)
	windowEnd := now.Add(s.cfg.Horizon)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName(s.cfg.Name)
	cal.SetXWRCalName(s.cfg.Name)
	cal.SetXWRTimezone(s.cfg.Location.String())

	seen := make(map[string]struct{}, len(owned)+len(participating))
	for _, event := range append(owned, participating...) {
		if _, dup := seen[event.ID]; dup {
			continue
		}
		seen[event.ID] = struct{}{}

		start, err := EventStart(event, s.cfg.Location)
		if err != nil {
			s.logger.Warn("skip event with bad start time", zap.String("event_id", event.ID), zap.Error(err))
			continue
		}
		if start.After(windowEnd) {
			continue
		}
		if !event.IsRecurring && start.Before(windowStart) {
			continue
		}

		var rrule string
		if event.IsRecurring {
			opt, err := RecurrenceOption(event.Recurrence, start)
			if err != nil {
				s.logger.Warn("skip event with bad recurrence", zap.String("event_id", event.ID), zap.Error(err))
				continue
			}
			rrule = opt.RRuleString()
		}

		ev := cal.AddEvent(event.ID + "@futebagres")
		ev.SetDtStampTime(now)
		if !event.CreatedAt.IsZero() {
			ev.SetCreatedTime(event.CreatedAt)
		}
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(time.Duration(event.Duration) * time.Minute))
		ev.SetSummary(event.Title)
		ev.SetDescription(describeEvent(event))
		if event.Location != "" {
			ev.SetLocation(event.Location)
		}
		if s.cfg.BaseURL != "" {
			ev.SetURL(strings.TrimRight(s.cfg.BaseURL, "/") + "/events/" + event.ID)
		}
		if rrule != "" {
			ev.AddRrule(rrule)
		}
	}

	return cal.Serialize(), nil
}

// SubscriptionLink issues a signed URL serving userID's feed without an
// Authorization header, for calendar apps that poll a plain URL.
func (s *CalendarFeedService) SubscriptionLink(userID string) (*dto.CalendarLink, error) {
	if s.cfg.Signer == nil || s.cfg.FeedURL == "" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar subscriptions are disabled")
	}
	token, expiresAt, err := s.cfg.Signer.Generate(userID, calendarTokenScope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign calendar link")
	}
	return &dto.CalendarLink{
		URL:       strings.TrimRight(s.cfg.FeedURL, "/") + "/" + token + ".ics",
		ExpiresAt: expiresAt,
	}, nil
}

// BuildFromToken resolves a subscription token and renders its owner's feed.
func (s *CalendarFeedService) BuildFromToken(ctx context.Context, token string) (string, error) {
	if s.cfg.Signer == nil {
		return "", appErrors.Clone(appErrors.ErrNotFound, "calendar subscriptions are disabled")
	}
	userID, _, err := s.cfg.Signer.Parse(strings.TrimSuffix(token, ".ics"), calendarTokenScope)
	if err != nil {
		if errors.Is(err, signing.ErrExpired) {
			return "", appErrors.Clone(appErrors.ErrUnauthorized, "calendar link expired")
		}
		return "", appErrors.Clone(appErrors.ErrUnauthorized, "invalid calendar link")
	}
	return s.Build(ctx, userID)
}

func describeEvent(event models.Event) string {
	return fmt.Sprintf("Code %s. %s, %d players max, %s to %s.", event.Code, event.FieldType, event.MaxPlayers, event.StartTime, event.EndTime)
}
