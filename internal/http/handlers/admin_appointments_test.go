package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orentclinic/booking-bot/internal/appointments"
)

type stubRepo struct {
	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listed    []appointments.Appointment
	lastApt   appointments.Appointment
}

func (s *stubRepo) Create(_ context.Context, apt appointments.Appointment) (appointments.Appointment, error) {
	if s.createErr != nil {
		return appointments.Appointment{}, s.createErr
	}
	apt.ID = uuid.New()
	s.lastApt = apt
	return apt, nil
}

func (s *stubRepo) List(_ context.Context, _ appointments.Filter) ([]appointments.Appointment, error) {
	return s.listed, nil
}

func (s *stubRepo) GetByID(_ context.Context, id uuid.UUID) (appointments.Appointment, error) {
	if s.getErr != nil {
		return appointments.Appointment{}, s.getErr
	}
	return appointments.Appointment{ID: id}, nil
}

func (s *stubRepo) Update(_ context.Context, apt appointments.Appointment) (appointments.Appointment, error) {
	if s.updateErr != nil {
		return appointments.Appointment{}, s.updateErr
	}
	s.lastApt = apt
	return apt, nil
}

func (s *stubRepo) Delete(_ context.Context, _ uuid.UUID) error {
	return s.deleteErr
}

func adminRouter(repo AppointmentRepository) http.Handler {
	h := NewAdminAppointmentsHandler(repo, nil)
	r := chi.NewRouter()
	r.Post("/appointments", h.Create)
	r.Get("/appointments", h.List)
	r.Get("/appointments/{id}", h.Get)
	r.Put("/appointments/{id}", h.Update)
	r.Delete("/appointments/{id}", h.Delete)
	return r
}

const validBody = `{
	"date": "2026-09-02",
	"timeSlot": "10:30",
	"patientName": "John Doe",
	"department": "Ortho",
	"patientPhone": "9876543210"
}`

func TestAdminCreateAppointment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		repo := &stubRepo{}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(validBody))
		adminRouter(repo).ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var created appointments.Appointment
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, "Ortho", repo.lastApt.Department)
	})

	t.Run("duplicate slot returns 409", func(t *testing.T) {
		repo := &stubRepo{createErr: appointments.ErrDuplicateSlot}
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(validBody))
		adminRouter(repo).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("validation errors return 400", func(t *testing.T) {
		bad := []string{
			`{"date": "02/09/2026", "timeSlot": "10:30", "patientName": "John Doe", "department": "Ortho", "patientPhone": "9876543210"}`,
			`{"date": "2026-09-02", "timeSlot": "09:00", "patientName": "John Doe", "department": "Ortho", "patientPhone": "9876543210"}`,
			`{"date": "2026-09-02", "timeSlot": "10:30", "patientName": "John Doe", "department": "Cardio", "patientPhone": "9876543210"}`,
			`{"date": "2026-09-02", "timeSlot": "10:30", "patientName": "J", "department": "Ortho", "patientPhone": "9876543210"}`,
			`{"date": "2026-09-02", "timeSlot": "10:30", "patientName": "John Doe", "department": "Ortho", "patientPhone": "12345"}`,
		}
		for _, body := range bad {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(body))
			adminRouter(&stubRepo{}).ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		}
	})
}

func TestAdminListAppointments(t *testing.T) {
	repo := &stubRepo{listed: []appointments.Appointment{{PatientName: "John Doe"}}}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/appointments?department=Ortho", nil)
	adminRouter(repo).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result []appointments.Appointment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Len(t, result, 1)
}

func TestAdminListAppointmentsEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	adminRouter(&stubRepo{}).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestAdminGetAppointment(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		id := uuid.New()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/appointments/"+id.String(), nil)
		adminRouter(&stubRepo{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/appointments/"+uuid.NewString(), nil)
		adminRouter(&stubRepo{getErr: appointments.ErrNotFound}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/appointments/not-a-uuid", nil)
		adminRouter(&stubRepo{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminUpdateAppointment(t *testing.T) {
	t.Run("conflict on occupied slot", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/appointments/"+uuid.NewString(), strings.NewReader(validBody))
		adminRouter(&stubRepo{updateErr: appointments.ErrDuplicateSlot}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		repo := &stubRepo{}
		id := uuid.New()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/appointments/"+id.String(), strings.NewReader(validBody))
		adminRouter(repo).ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, id, repo.lastApt.ID)
	})
}

func TestAdminDeleteAppointment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/appointments/"+uuid.NewString(), nil)
		adminRouter(&stubRepo{}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodDelete, "/appointments/"+uuid.NewString(), nil)
		adminRouter(&stubRepo{deleteErr: appointments.ErrNotFound}).ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
