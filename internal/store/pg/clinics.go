package pg

import (
	"context"
	"database/sql"
	"encoding/json"

	"medqueue.rw/internal/clinic"
	"medqueue.rw/internal/ids"
)

var _ clinic.Store = (*Store)(nil)

func (s *Store) CreateClinic(ctx context.Context, c *clinic.Clinic) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	departments, _ := json.Marshal(c.Departments)
	row := s.db.QueryRowContext(ctx, `
		insert into clinics (id, name, email, phone, province, district, sector, departments, description)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		returning created_at, updated_at
	`, c.ID, c.Name, c.Email, c.Phone, c.Location.Province, c.Location.District,
		c.Location.Sector, departments, c.Description)
	if err := row.Scan(&c.CreatedAt, &c.UpdatedAt); err != nil {
		return mapClinicError(err)
	}
	return nil
}

func (s *Store) FindClinic(ctx context.Context, id string) (*clinic.Clinic, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, name, email, phone, province, district, sector, departments, description, created_at, updated_at
		from clinics where id=$1
	`, id)
	return scanClinic(row)
}

func (s *Store) ListClinics(ctx context.Context, f clinic.Filter) ([]*clinic.Clinic, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, name, email, phone, province, district, sector, departments, description, created_at, updated_at
		from clinics
		where ($1='' or province=$1) and ($2='' or district=$2) and ($3='' or sector=$3)
		order by created_at desc
	`, f.Province, f.District, f.Sector)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clinics []*clinic.Clinic
	for rows.Next() {
		c, err := scanClinic(rows)
		if err != nil {
			return nil, err
		}
		clinics = append(clinics, c)
	}
	return clinics, rows.Err()
}

func (s *Store) UpdateClinic(ctx context.Context, c *clinic.Clinic) error {
	departments, _ := json.Marshal(c.Departments)
	res, err := s.db.ExecContext(ctx, `
		update clinics
		set name=$2, email=$3, phone=$4, province=$5, district=$6, sector=$7,
			departments=$8, description=$9, updated_at=now()
		where id=$1
	`, c.ID, c.Name, c.Email, c.Phone, c.Location.Province, c.Location.District,
		c.Location.Sector, departments, c.Description)
	if err != nil {
		return mapClinicError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return clinic.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteClinic(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from clinics where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return clinic.ErrNotFound
	}
	return nil
}

func (s *Store) CreateDoctor(ctx context.Context, d *clinic.Doctor) error {
	if d.ID == "" {
		d.ID = ids.New()
	}
	row := s.db.QueryRowContext(ctx, `
		insert into doctors (id, clinic_id, name, email, speciality, about, image_url, available)
		values ($1,$2,$3,$4,$5,$6,$7,$8)
		returning created_at, updated_at
	`, d.ID, d.ClinicID, d.Name, d.Email, d.Speciality, d.About, d.ImageURL, d.Available)
	if err := row.Scan(&d.CreatedAt, &d.UpdatedAt); err != nil {
		return mapClinicError(err)
	}
	return nil
}

func (s *Store) FindDoctor(ctx context.Context, id string) (*clinic.Doctor, error) {
	row := s.db.QueryRowContext(ctx, `
		select id, clinic_id, name, email, speciality, about, image_url, available, created_at, updated_at
		from doctors where id=$1
	`, id)
	return scanDoctor(row)
}

func (s *Store) UpdateDoctor(ctx context.Context, d *clinic.Doctor) error {
	res, err := s.db.ExecContext(ctx, `
		update doctors
		set name=$2, email=$3, speciality=$4, about=$5, image_url=$6, available=$7, updated_at=now()
		where id=$1
	`, d.ID, d.Name, d.Email, d.Speciality, d.About, d.ImageURL, d.Available)
	if err != nil {
		return mapClinicError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return clinic.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDoctor(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from doctors where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return clinic.ErrNotFound
	}
	return nil
}

func (s *Store) ListDoctors(ctx context.Context, clinicID string) ([]*clinic.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `
		select id, clinic_id, name, email, speciality, about, image_url, available, created_at, updated_at
		from doctors
		where ($1='' or clinic_id=$1)
		order by name
	`, clinicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []*clinic.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}

func scanClinic(row rowScanner) (*clinic.Clinic, error) {
	var (
		c           clinic.Clinic
		departments []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Location.Province,
		&c.Location.District, &c.Location.Sector, &departments, &c.Description,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, clinic.ErrNotFound
		}
		return nil, err
	}
	_ = json.Unmarshal(departments, &c.Departments)
	return &c, nil
}

func scanDoctor(row rowScanner) (*clinic.Doctor, error) {
	var d clinic.Doctor
	err := row.Scan(&d.ID, &d.ClinicID, &d.Name, &d.Email, &d.Speciality,
		&d.About, &d.ImageURL, &d.Available, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, clinic.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func mapClinicError(err error) error {
	if pgErr, ok := maybePgError(err); ok {
		switch pgErr.Code {
		case pgErrUniqueViolation:
			return clinic.ErrConflict
		case pgErrForeignKeyViolation:
			return clinic.ErrNotFound
		}
	}
	return err
}
