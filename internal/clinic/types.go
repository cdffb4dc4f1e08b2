// Package clinic holds the clinic and doctor entities plus their thin CRUD
// service. No scheduling or queueing logic lives here; the queue columns on
// clinics are plain attributes surfaced to clients.
package clinic

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("clinic: not found")
	ErrConflict     = errors.New("clinic: already exists")
	ErrInvalidInput = errors.New("clinic: invalid input")
)

// Location places a clinic within Rwanda's administrative hierarchy.
type Location struct {
	Province string `json:"province"`
	District string `json:"district"`
	Sector   string `json:"sector"`
}

// Clinic is a registered care facility.
type Clinic struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Location    Location  `json:"location"`
	Departments []string  `json:"departments"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Doctor practices at a clinic.
type Doctor struct {
	ID         string    `json:"id"`
	ClinicID   string    `json:"clinic_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Speciality string    `json:"speciality"`
	About      string    `json:"about,omitempty"`
	ImageURL   string    `json:"image_url,omitempty"`
	Available  bool      `json:"available"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Filter narrows clinic listings by location.
type Filter struct {
	Province string
	District string
	Sector   string
}
