package service

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"

	"github.com/futebagres/pelada-api/internal/models"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
)

const (
	codeAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	DefaultCodeLength = 6
	minutesPerDay     = 24 * 60
)

// EventScheduler derives end times and short join codes for new events.
type EventScheduler struct {
	codeLength int
	random     io.Reader
}

// NewEventScheduler builds a scheduler. A nil random source uses crypto/rand.
func NewEventScheduler(codeLength int, random io.Reader) *EventScheduler {
	if codeLength <= 0 {
		codeLength = DefaultCodeLength
	}
	if random == nil {
		random = rand.Reader
	}
	return &EventScheduler{codeLength: codeLength, random: random}
}

var defaultScheduler = NewEventScheduler(DefaultCodeLength, nil)

// ComputeEventSchedule returns the wrapped end time and a fresh code using the
// default scheduler.
func ComputeEventSchedule(startTime string, durationMinutes int) (*models.EventSchedule, error) {
	return defaultScheduler.Compute(startTime, durationMinutes)
}

// GenerateEventCode returns a fresh code from the default scheduler.
func GenerateEventCode() (string, error) {
	return defaultScheduler.Code()
}

// Compute adds durationMinutes to startTime ("HH:MM", 24h) modulo one day and
// attaches a newly generated code.
func (s *EventScheduler) Compute(startTime string, durationMinutes int) (*models.EventSchedule, error) {
	end, err := EndTime(startTime, durationMinutes)
	if err != nil {
		return nil, err
	}
	code, err := s.Code()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate event code")
	}
	return &models.EventSchedule{EndTime: end, Code: code}, nil
}

// EndTime computes the "HH:MM" end of an event, wrapping past midnight.
func EndTime(startTime string, durationMinutes int) (string, error) {
	if durationMinutes < 0 {
		return "", appErrors.Clone(appErrors.ErrInvalidInput, "duration must not be negative")
	}
	startMinutes, err := ParseClock(startTime)
	if err != nil {
		return "", err
	}
	end := (startMinutes + durationMinutes%minutesPerDay) % minutesPerDay
	return FormatClock(end), nil
}

// ParseClock converts "HH:MM" into minutes after midnight.
func ParseClock(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "start time is required")
	}
	hh, mm, ok := strings.Cut(value, ":")
	if !ok || !twoDigits(hh) || !twoDigits(mm) {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "start time must be HH:MM")
	}
	hour, _ := strconv.Atoi(hh)
	if hour > 23 {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "start hour must be between 00 and 23")
	}
	minute, _ := strconv.Atoi(mm)
	if minute > 59 {
		return 0, appErrors.Clone(appErrors.ErrInvalidInput, "start minute must be between 00 and 59")
	}
	return hour*60 + minute, nil
}

func twoDigits(s string) bool {
	return len(s) == 2 && s[0] >= '0' && s[0] <= '9' && s[1] >= '0' && s[1] <= '9'
}

// FormatClock renders minutes after midnight as zero-padded "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// Code draws codeLength characters uniformly from [0-9A-Z].
func (s *EventScheduler) Code() (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	var b strings.Builder
	b.Grow(s.codeLength)
	for i := 0; i < s.codeLength; i++ {
		n, err := rand.Int(s.random, max)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}
