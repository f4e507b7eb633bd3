package domain

import (
	"time"

	"github.com/google/uuid"
)

// Child is the person whose sleep is tracked. All schedules, sessions and
// transitions are keyed by child.
type Child struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	BirthDate *time.Time `gorm:"type:date" json:"birth_date,omitempty"`
	Timezone  string     `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (Child) TableName() string {
	return "children"
}

// Location returns the child's timezone, falling back to UTC.
func (c *Child) Location() *time.Location {
	if c.Timezone != "" {
		if loc, err := time.LoadLocation(c.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

// CreateChildRequest is the request body for creating a child
// @Description Request payload for registering a child.
type CreateChildRequest struct {
	// Display name
	Name string `json:"name" validate:"required,max=100" example:"Mia"`
	// Optional birth date (YYYY-MM-DD)
	BirthDate *string `json:"birth_date,omitempty" validate:"omitempty,datetime=2006-01-02" example:"2024-02-10"`
	// IANA timezone used for wall-clock schedule times
	Timezone string `json:"timezone" validate:"required,timezone" example:"Europe/Prague"`
}

// ChildResponse is the response body for child endpoints
type ChildResponse struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Timezone  string     `json:"timezone"`
	CreatedAt time.Time  `json:"created_at"`
}

func (c *Child) ToResponse() ChildResponse {
	return ChildResponse{
		ID:        c.ID,
		Name:      c.Name,
		BirthDate: c.BirthDate,
		Timezone:  c.Timezone,
		CreatedAt: c.CreatedAt,
	}
}
