package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
	"github.com/futebagres/pelada-api/pkg/export"
)

type attendanceRepository interface {
	Mark(ctx context.Context, record *models.Attendance) (bool, error)
	Unmark(ctx context.Context, eventID, userID string, day time.Time) (bool, error)
	ListDates(ctx context.Context, userID string) ([]time.Time, error)
	ListDatesBetween(ctx context.Context, userID string, from, to time.Time) ([]time.Time, error)
	History(ctx context.Context, userID string) ([]models.AttendanceHistoryRow, error)
}

type attendanceEventReader interface {
	GetByID(ctx context.Context, id string) (*models.Event, error)
	IsParticipant(ctx context.Context, eventID, userID string) (bool, error)
}

// AttendanceExport is a rendered attendance history file.
type AttendanceExport struct {
	Filename    string
	ContentType string
	Body        []byte
}

// AttendanceService records presence and builds the attendance heatmap.
type AttendanceService struct {
	repo        attendanceRepository
	events      attendanceEventReader
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
	invalidator userViewInvalidator
	loc         *time.Location
	now         func() time.Time
}

// NewAttendanceService constructs the attendance service. All day
// comparisons happen in loc.
func NewAttendanceService(repo attendanceRepository, events attendanceEventReader, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, invalidator userViewInvalidator, loc *time.Location) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AttendanceService{
		repo:        repo,
		events:      events,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
		invalidator: invalidator,
		loc:         loc,
		now:         time.Now,
	}
}

// Location reports the club timezone.
func (s *AttendanceService) Location() *time.Location {
	return s.loc
}

// Today is the current civil date in the club timezone.
func (s *AttendanceService) Today() time.Time {
	n := s.now().In(s.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, s.loc)
}

// Mark records req.UserID present at the event. Only the owner may mark, and
// the target must be a participant. Marking the same day twice is a no-op;
// the returned flag reports whether a new row was stored.
func (s *AttendanceService) Mark(ctx context.Context, actorID, eventID string, req dto.MarkAttendanceRequest) (*models.Attendance, bool, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if err := s.authorize(ctx, actorID, eventID, req.UserID); err != nil {
		return nil, false, err
	}
	day := s.Today()
	if req.Date != "" {
		day = s.parseDay(req.Date)
	}

	record := &models.Attendance{EventID: eventID, UserID: req.UserID, AttendedOn: day, MarkedBy: actorID}
	created, err := s.repo.Mark(ctx, record)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark attendance")
	}
	if created {
		s.metrics.IncAttendanceMarked()
		s.invalidate(ctx, req.UserID)
	}
	return record, created, nil
}

// Unmark removes a marked day. Only the event owner may unmark.
func (s *AttendanceService) Unmark(ctx context.Context, actorID, eventID string, req dto.UnmarkAttendanceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	if err := s.authorize(ctx, actorID, eventID, ""); err != nil {
		return err
	}
	removed, err := s.repo.Unmark(ctx, eventID, req.UserID, s.parseDay(req.Date))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unmark attendance")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "attendance not found")
	}
	s.invalidate(ctx, req.UserID)
	return nil
}

// List returns every day userID was present, newest first.
func (s *AttendanceService) List(ctx context.Context, userID string) (*dto.AttendanceList, error) {
	dates, err := s.repo.ListDates(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	out := &dto.AttendanceList{Dates: make([]string, 0, len(dates))}
	for _, d := range dates {
		out.Dates = append(out.Dates, civilDate(d, s.loc).Format(models.DateLayout))
	}
	return out, nil
}

// Heatmap builds the 31-day strip for userID centred on date ("YYYY-MM-DD");
// an empty date means today in the club timezone.
func (s *AttendanceService) Heatmap(ctx context.Context, userID, date string) (*dto.HeatmapResponse, error) {
	today := s.Today()
	if date != "" {
		parsed, err := time.ParseInLocation(models.DateLayout, date, s.loc)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
		}
		today = parsed
	}
	days, err := s.HeatmapDays(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	return &dto.HeatmapResponse{Today: today.Format(models.DateLayout), Timezone: s.loc.String(), Days: days}, nil
}

// HeatmapDays loads only the attendance inside the window around today and
// hands it to BuildHeatmap.
func (s *AttendanceService) HeatmapDays(ctx context.Context, userID string, today time.Time) ([]models.CalendarDay, error) {
	today = civilDate(today.In(s.loc), s.loc)
	from := today.AddDate(0, 0, -HeatmapRadiusDays)
	to := today.AddDate(0, 0, HeatmapRadiusDays)
	dates, err := s.repo.ListDatesBetween(ctx, userID, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	attended := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		attended = append(attended, civilDate(d, s.loc))
	}
	s.metrics.IncHeatmapBuilds()
	return BuildHeatmap(today, attended), nil
}

// Export renders the caller's attendance history as CSV or PDF.
func (s *AttendanceService) Export(ctx context.Context, userID, format string) (*AttendanceExport, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	rows, err := s.repo.History(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance history")
	}

	data := export.Dataset{
		Title:   "Attendance history",
		Headers: []string{"date", "event", "code", "location"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, map[string]string{
			"date":     civilDate(row.AttendedOn, s.loc).Format(models.DateLayout),
			"event":    row.EventTitle,
			"code":     row.EventCode,
			"location": row.Location,
		})
	}

	body, err := export.For(f).Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render attendance export")
	}
	return &AttendanceExport{
		Filename:    fmt.Sprintf("attendance-%s.%s", s.Today().Format(models.DateLayout), f),
		ContentType: f.ContentType(),
		Body:        body,
	}, nil
}

func (s *AttendanceService) authorize(ctx context.Context, actorID, eventID, targetID string) error {
	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if event.OwnerID != actorID {
		return appErrors.Clone(appErrors.ErrForbidden, "only the event owner can manage attendance")
	}
	if targetID == "" {
		return nil
	}
	member, err := s.events.IsParticipant(ctx, eventID, targetID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check participation")
	}
	if !member {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a participant of this event")
	}
	return nil
}

// parseDay expects an already validated YYYY-MM-DD string.
func (s *AttendanceService) parseDay(value string) time.Time {
	day, _ := time.ParseInLocation(models.DateLayout, value, s.loc)
	return day
}

func (s *AttendanceService) invalidate(ctx context.Context, userIDs ...string) {
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userIDs...)
	}
}

// civilDate keeps the year, month and day a DATE value was stored with and
// places that day at midnight in loc.
func civilDate(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
