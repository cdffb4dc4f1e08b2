package pg

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"medqueue.rw/internal/clinic"
)

func TestUpdateDoctorPersistsAvailability(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	d := &clinic.Doctor{
		ID:         "doc-1",
		ClinicID:   "clinic-1",
		Name:       "Dr. Habimana",
		Email:      "habimana@khc.rw",
		Speciality: "pediatrics",
		Available:  false,
	}

	mock.ExpectExec("update doctors").
		WithArgs("doc-1", "Dr. Habimana", "habimana@khc.rw", "pediatrics", "", "", false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.UpdateDoctor(context.Background(), d); err != nil {
		t.Fatalf("UpdateDoctor: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateDoctorUnknownID(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("update doctors").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateDoctor(context.Background(), &clinic.Doctor{ID: "ghost", Name: "x", Email: "x", Speciality: "x"})
	if !errors.Is(err, clinic.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteDoctor(t *testing.T) {
	store, mock, done := newMockStore(t)
	defer done()

	mock.ExpectExec("delete from doctors where id=").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from doctors where id=").
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteDoctor(context.Background(), "doc-1"); err != nil {
		t.Fatalf("DeleteDoctor: %v", err)
	}
	if err := store.DeleteDoctor(context.Background(), "doc-1"); !errors.Is(err, clinic.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
