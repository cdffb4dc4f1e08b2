package clinic

import (
	"context"
	"fmt"
	"strings"
)

// Store describes clinic persistence.
type Store interface {
	CreateClinic(ctx context.Context, c *Clinic) error
	FindClinic(ctx context.Context, id string) (*Clinic, error)
	ListClinics(ctx context.Context, f Filter) ([]*Clinic, error)
	UpdateClinic(ctx context.Context, c *Clinic) error
	DeleteClinic(ctx context.Context, id string) error

	CreateDoctor(ctx context.Context, d *Doctor) error
	FindDoctor(ctx context.Context, id string) (*Doctor, error)
	ListDoctors(ctx context.Context, clinicID string) ([]*Doctor, error)
	UpdateDoctor(ctx context.Context, d *Doctor) error
	DeleteDoctor(ctx context.Context, id string) error
}

// Service is a thin pass-through over the store with input checks. It
// exists so handlers stay free of persistence details, mirroring the auth
// layering.
type Service struct {
	store Store
}

// NewService constructs the clinic service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateClinic validates required fields and persists the clinic.
func (s *Service) CreateClinic(ctx context.Context, c *Clinic) (*Clinic, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	if c.Name == "" || c.Email == "" || c.Phone == "" {
		return nil, fmt.Errorf("%w: name, email and phone are required", ErrInvalidInput)
	}
	if c.Location.Province == "" || c.Location.District == "" || c.Location.Sector == "" {
		return nil, fmt.Errorf("%w: location province, district and sector are required", ErrInvalidInput)
	}
	if len(c.Departments) == 0 {
		return nil, fmt.Errorf("%w: at least one department is required", ErrInvalidInput)
	}
	if err := s.store.CreateClinic(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) FindClinic(ctx context.Context, id string) (*Clinic, error) {
	return s.store.FindClinic(ctx, id)
}

func (s *Service) ListClinics(ctx context.Context, f Filter) ([]*Clinic, error) {
	return s.store.ListClinics(ctx, f)
}

// UpdateClinic applies a partial update to mutable fields.
func (s *Service) UpdateClinic(ctx context.Context, id string, apply func(*Clinic)) (*Clinic, error) {
	c, err := s.store.FindClinic(ctx, id)
	if err != nil {
		return nil, err
	}
	apply(c)
	if c.Name == "" || c.Email == "" || c.Phone == "" {
		return nil, fmt.Errorf("%w: name, email and phone are required", ErrInvalidInput)
	}
	if err := s.store.UpdateClinic(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteClinic(ctx context.Context, id string) error {
	return s.store.DeleteClinic(ctx, id)
}

// CreateDoctor validates required fields and persists the doctor.
func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) (*Doctor, error) {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.Name == "" || d.Email == "" || d.Speciality == "" {
		return nil, fmt.Errorf("%w: name, email and speciality are required", ErrInvalidInput)
	}
	if d.ClinicID == "" {
		return nil, fmt.Errorf("%w: clinic is required", ErrInvalidInput)
	}
	if _, err := s.store.FindClinic(ctx, d.ClinicID); err != nil {
		return nil, err
	}
	if err := s.store.CreateDoctor(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) FindDoctor(ctx context.Context, id string) (*Doctor, error) {
	return s.store.FindDoctor(ctx, id)
}

// UpdateDoctor applies a partial update to mutable fields, including the
// availability flag. The doctor's clinic assignment is fixed at creation.
func (s *Service) UpdateDoctor(ctx context.Context, id string, apply func(*Doctor)) (*Doctor, error) {
	d, err := s.store.FindDoctor(ctx, id)
	if err != nil {
		return nil, err
	}
	clinicID := d.ClinicID
	apply(d)
	d.ClinicID = clinicID
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.Name == "" || d.Email == "" || d.Speciality == "" {
		return nil, fmt.Errorf("%w: name, email and speciality are required", ErrInvalidInput)
	}
	if err := s.store.UpdateDoctor(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	return s.store.DeleteDoctor(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, clinicID string) ([]*Doctor, error) {
	return s.store.ListDoctors(ctx, clinicID)
}
