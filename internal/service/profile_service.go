package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/futebagres/pelada-api/internal/dto"
	"github.com/futebagres/pelada-api/internal/models"
	appErrors "github.com/futebagres/pelada-api/pkg/errors"
)

// UnnamedPlayer is shown when a profile has no name, full name or email.
const UnnamedPlayer = "Unnamed player"

type profileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
}

// userViewInvalidator drops cached per-user views after a write.
type userViewInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

// ProfileService reads and edits player profiles.
type ProfileService struct {
	repo        profileRepository
	validator   *validator.Validate
	logger      *zap.Logger
	invalidator userViewInvalidator
	placeholder string
}

// NewProfileService constructs the service. placeholderAvatar is used for
// profiles without an avatar.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger, invalidator userViewInvalidator, placeholderAvatar string) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger, invalidator: invalidator, placeholder: placeholderAvatar}
}

// Get returns the caller's profile with display defaults applied.
func (s *ProfileService) Get(ctx context.Context, userID string) (*dto.ProfileView, error) {
	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := BuildProfileView(profile, s.placeholder)
	return &view, nil
}

// GetByUsername returns another player's public profile.
func (s *ProfileService) GetByUsername(ctx context.Context, username string) (*dto.ProfileView, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "username is required")
	}
	profile, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	view := BuildProfileView(profile, s.placeholder)
	return &view, nil
}

// Update edits avatar, description and ratings. Omitted rating categories
// are stored as zero.
func (s *ProfileService) Update(ctx context.Context, userID string, req dto.UpdateProfileRequest) (*dto.ProfileView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if avatar == "" {
			profile.AvatarURL = nil
		} else {
			profile.AvatarURL = &avatar
		}
	}
	if req.Description != nil {
		profile.Description = strings.TrimSpace(*req.Description)
	}
	if req.Ratings != nil {
		profile.Ratings = *req.Ratings
	}

	if err := s.repo.Update(ctx, profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, userID)
	}

	view := BuildProfileView(profile, s.placeholder)
	return &view, nil
}

func (s *ProfileService) load(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return profile, nil
}

// BuildProfileView resolves display fallbacks: name falls back to the full
// name, then the email, then UnnamedPlayer; username falls back to the email;
// avatar falls back to placeholder.
func BuildProfileView(profile *models.Profile, placeholder string) dto.ProfileView {
	return dto.ProfileView{
		UserID:      profile.UserID,
		Name:        firstNonEmpty(deref(profile.Name), profile.FullName, profile.Email, UnnamedPlayer),
		Username:    firstNonEmpty(deref(profile.Username), profile.Email),
		AvatarURL:   firstNonEmpty(deref(profile.AvatarURL), placeholder),
		Followers:   profile.Followers,
		Following:   profile.Following,
		Description: profile.Description,
		Ratings:     profile.Ratings,
	}
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
