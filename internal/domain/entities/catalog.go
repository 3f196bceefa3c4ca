package entities

import (
	"time"
)

// Service is a bookable lab offering. Catalog records are maintained by admin
// tooling; the scheduling engine only references them.
type Service struct {
	ID                 string    `json:"id" db:"id"`
	Name               string    `json:"name" db:"name"`
	DefaultStepMinutes int       `json:"default_step_minutes" db:"default_step_minutes"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// Location is a physical site where services are offered.
type Location struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
