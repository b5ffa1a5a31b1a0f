package dto

import "github.com/futebagres/pelada-api/internal/models"

// ProfileView is a profile with every display fallback already resolved.
type ProfileView struct {
	UserID      string         `json:"user_id"`
	Name        string         `json:"name"`
	Username    string         `json:"username"`
	AvatarURL   string         `json:"avatar_url"`
	Followers   int            `json:"followers"`
	Following   int            `json:"following"`
	Description string         `json:"description"`
	Ratings     models.Ratings `json:"ratings"`
}

// UpdateProfileRequest edits the caller's own profile. Nil fields are left untouched.
type UpdateProfileRequest struct {
	AvatarURL   *string         `json:"avatar_url" validate:"omitempty,url,max=500"`
	Description *string         `json:"description" validate:"omitempty,max=1000"`
	Ratings     *models.Ratings `json:"ratings"`
}
