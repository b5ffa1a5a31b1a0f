package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Rating bounds for every self-assessment category.
const (
	RatingMin = 0
	RatingMax = 5
)

// Ratings is the fixed set of five self-assessment scores. Categories absent
// from stored or submitted JSON decode as zero, so a Ratings value is always
// complete.
type Ratings struct {
	Passing      int `json:"passing" validate:"min=0,max=5"`
	Finishing    int `json:"finishing" validate:"min=0,max=5"`
	Speed        int `json:"speed" validate:"min=0,max=5"`
	Defense      int `json:"defense" validate:"min=0,max=5"`
	Conditioning int `json:"conditioning" validate:"min=0,max=5"`
}

// Value stores ratings as JSONB.
func (r Ratings) Value() (driver.Value, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Scan reads a JSONB column. NULL yields all zeros.
func (r *Ratings) Scan(src interface{}) error {
	*r = Ratings{}
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		if len(v) == 0 {
			return nil
		}
		return json.Unmarshal(v, r)
	case string:
		if v == "" {
			return nil
		}
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("ratings: unsupported scan type %T", src)
	}
}

// Profile is a player's public identity and self-assessment.
type Profile struct {
	UserID      string    `db:"user_id" json:"user_id"`
	Name        *string   `db:"name" json:"name,omitempty"`
	Username    *string   `db:"username" json:"username,omitempty"`
	AvatarURL   *string   `db:"avatar_url" json:"avatar_url,omitempty"`
	Followers   int       `db:"followers" json:"followers"`
	Following   int       `db:"following" json:"following"`
	Description string    `db:"description" json:"description"`
	Ratings     Ratings   `db:"ratings" json:"ratings"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Joined from users for display fallbacks.
	FullName string `db:"full_name" json:"-"`
	Email    string `db:"email" json:"-"`
}
