package httpapi

import (
	"net/http"
	"strings"

	"medqueue.rw/internal/auth"
	"medqueue.rw/internal/clinic"
)

type clinicRequest struct {
	Name        string          `json:"name"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Location    clinic.Location `json:"location"`
	Departments []string        `json:"departments"`
	Description string          `json:"description"`
}

func (a *API) handleClinicsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listClinics(w, r)
	case http.MethodPost:
		a.createClinic(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listClinics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	clinics, err := a.clinics.ListClinics(r.Context(), clinic.Filter{
		Province: q.Get("province"),
		District: q.Get("district"),
		Sector:   q.Get("sector"),
	})
	if err != nil {
		handleClinicError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"clinics": clinics,
		"count":   len(clinics),
	})
}

func (a *API) createClinic(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, auth.RoleStaff, auth.RoleAdmin); !ok {
		return
	}
	var req clinicRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	created, err := a.clinics.CreateClinic(r.Context(), &clinic.Clinic{
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Location:    req.Location,
		Departments: req.Departments,
		Description: req.Description,
	})
	if err != nil {
		handleClinicError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"clinic": created})
}

func (a *API) handleClinicResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/clinics/")
	if rest == "" {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	// /v1/clinics/{id}/doctors lists a clinic's roster; anything deeper is
	// not a route.
	if id, found := strings.CutSuffix(rest, "/doctors"); found && !strings.Contains(id, "/") {
		if r.Method != http.MethodGet {
			methodNotAllowed(w, r, http.MethodGet)
			return
		}
		a.listDoctors(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		found, err := a.clinics.FindClinic(r.Context(), rest)
		if err != nil {
			handleClinicError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"clinic": found})
	case http.MethodPatch:
		a.updateClinic(w, r, rest)
	case http.MethodDelete:
		a.deleteClinic(w, r, rest)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

type clinicUpdateRequest struct {
	Name        *string          `json:"name"`
	Email       *string          `json:"email"`
	Phone       *string          `json:"phone"`
	Location    *clinic.Location `json:"location"`
	Departments *[]string        `json:"departments"`
	Description *string          `json:"description"`
}

func (a *API) updateClinic(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireRole(w, r, auth.RoleStaff, auth.RoleAdmin); !ok {
		return
	}
	var req clinicUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.clinics.UpdateClinic(r.Context(), id, func(c *clinic.Clinic) {
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.Email != nil {
			c.Email = *req.Email
		}
		if req.Phone != nil {
			c.Phone = *req.Phone
		}
		if req.Location != nil {
			c.Location = *req.Location
		}
		if req.Departments != nil {
			c.Departments = *req.Departments
		}
		if req.Description != nil {
			c.Description = *req.Description
		}
	})
	if err != nil {
		handleClinicError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clinic": updated})
}

func (a *API) deleteClinic(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	if err := a.clinics.DeleteClinic(r.Context(), id); err != nil {
		handleClinicError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type doctorRequest struct {
	ClinicID   string `json:"clinic_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Speciality string `json:"speciality"`
	About      string `json:"about"`
	ImageURL   string `json:"image_url"`
	Available  *bool  `json:"available"`
}

func (a *API) handleDoctorsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		a.listDoctors(w, r, r.URL.Query().Get("clinic_id"))
	case http.MethodPost:
		a.createDoctor(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) listDoctors(w http.ResponseWriter, r *http.Request, clinicID string) {
	doctors, err := a.clinics.ListDoctors(r.Context(), clinicID)
	if err != nil {
		handleClinicError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"doctors": doctors,
		"count":   len(doctors),
	})
}

func (a *API) createDoctor(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireRole(w, r, auth.RoleStaff, auth.RoleAdmin); !ok {
		return
	}
	var req doctorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	available := true
	if req.Available != nil {
		available = *req.Available
	}
	created, err := a.clinics.CreateDoctor(r.Context(), &clinic.Doctor{
		ClinicID:   req.ClinicID,
		Name:       req.Name,
		Email:      req.Email,
		Speciality: req.Speciality,
		About:      req.About,
		ImageURL:   req.ImageURL,
		Available:  available,
	})
	if err != nil {
		handleClinicError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"doctor": created})
}

func (a *API) handleDoctorResource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/doctors/")
	if rest == "" || strings.Contains(rest, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	switch r.Method {
	case http.MethodGet:
		found, err := a.clinics.FindDoctor(r.Context(), rest)
		if err != nil {
			handleClinicError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"doctor": found})
	case http.MethodPatch:
		a.updateDoctor(w, r, rest)
	case http.MethodDelete:
		a.deleteDoctor(w, r, rest)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPatch, http.MethodDelete)
	}
}

type doctorUpdateRequest struct {
	Name       *string `json:"name"`
	Email      *string `json:"email"`
	Speciality *string `json:"speciality"`
	About      *string `json:"about"`
	ImageURL   *string `json:"image_url"`
	Available  *bool   `json:"available"`
}

func (a *API) updateDoctor(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireRole(w, r, auth.RoleStaff, auth.RoleAdmin); !ok {
		return
	}
	var req doctorUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	updated, err := a.clinics.UpdateDoctor(r.Context(), id, func(d *clinic.Doctor) {
		if req.Name != nil {
			d.Name = *req.Name
		}
		if req.Email != nil {
			d.Email = *req.Email
		}
		if req.Speciality != nil {
			d.Speciality = *req.Speciality
		}
		if req.About != nil {
			d.About = *req.About
		}
		if req.ImageURL != nil {
			d.ImageURL = *req.ImageURL
		}
		if req.Available != nil {
			d.Available = *req.Available
		}
	})
	if err != nil {
		handleClinicError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doctor": updated})
}

func (a *API) deleteDoctor(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := a.requireRole(w, r, auth.RoleAdmin); !ok {
		return
	}
	if err := a.clinics.DeleteDoctor(r.Context(), id); err != nil {
		handleClinicError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
