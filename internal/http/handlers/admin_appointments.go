package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/orentclinic/booking-bot/internal/appointments"
	"github.com/orentclinic/booking-bot/internal/booking"
	"github.com/orentclinic/booking-bot/pkg/logging"
)

// AppointmentRepository is the persistence surface the admin handler needs.
type AppointmentRepository interface {
	Create(ctx context.Context, apt appointments.Appointment) (appointments.Appointment, error)
	List(ctx context.Context, filter appointments.Filter) ([]appointments.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (appointments.Appointment, error)
	Update(ctx context.Context, apt appointments.Appointment) (appointments.Appointment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// AdminAppointmentsHandler exposes CRUD endpoints for clinic staff.
type AdminAppointmentsHandler struct {
	repo   AppointmentRepository
	logger *logging.Logger
}

func NewAdminAppointmentsHandler(repo AppointmentRepository, logger *logging.Logger) *AdminAppointmentsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{repo: repo, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

type appointmentInput struct {
	Date         string `json:"date"`
	TimeSlot     string `json:"timeSlot"`
	PatientName  string `json:"patientName"`
	Department   string `json:"department"`
	PatientPhone string `json:"patientPhone"`
}

func (in appointmentInput) validate() (appointments.Appointment, string) {
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return appointments.Appointment{}, "date must be yyyy-mm-dd"
	}
	slot := booking.NormalizeSlot(in.TimeSlot)
	if !isCanonical(slot) {
		return appointments.Appointment{}, "timeSlot is not a bookable clinic slot"
	}
	department, ok := booking.ParseDepartment(in.Department)
	if !ok {
		return appointments.Appointment{}, "department must be Ortho or ENT"
	}
	if len(strings.TrimSpace(in.PatientName)) < 2 {
		return appointments.Appointment{}, "patientName must be at least 2 characters"
	}
	if len(booking.NormalizePhoneDigits(in.PatientPhone)) < 10 {
		return appointments.Appointment{}, "patientPhone must contain at least 10 digits"
	}
	return appointments.Appointment{
		Date:         in.Date,
		TimeSlot:     slot,
		PatientName:  strings.TrimSpace(in.PatientName),
		Department:   string(department),
		PatientPhone: strings.TrimSpace(in.PatientPhone),
	}, ""
}

func isCanonical(slot string) bool {
	for _, s := range booking.CanonicalSlots {
		if s == slot {
			return true
		}
	}
	return false
}

// Create books an appointment on behalf of clinic staff.
// Route: POST /appointments
func (h *AdminAppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in appointmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	apt, problem := in.validate()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	created, err := h.repo.Create(r.Context(), apt)
	if errors.Is(err, appointments.ErrDuplicateSlot) {
		writeError(w, http.StatusConflict, "slot already booked for this department")
		return
	}
	if err != nil {
		h.logger.Error("admin create appointment failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create appointment")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List returns appointments, optionally filtered by date, department or phone.
// Route: GET /appointments?date=&department=&phone=
func (h *AdminAppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := appointments.Filter{
		Date:       r.URL.Query().Get("date"),
		Department: r.URL.Query().Get("department"),
		Phone:      booking.NormalizePhoneDigits(r.URL.Query().Get("phone")),
	}
	result, err := h.repo.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("admin list appointments failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}
	if result == nil {
		result = []appointments.Appointment{}
	}
	writeJSON(w, http.StatusOK, result)
}

// Get returns one appointment.
// Route: GET /appointments/{id}
func (h *AdminAppointmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	apt, err := h.repo.GetByID(r.Context(), id)
	if errors.Is(err, appointments.ErrNotFound) {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.logger.Error("admin get appointment failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	writeJSON(w, http.StatusOK, apt)
}

// Update rewrites an appointment.
// Route: PUT /appointments/{id}
func (h *AdminAppointmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	var in appointmentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	apt, problem := in.validate()
	if problem != "" {
		writeError(w, http.StatusBadRequest, problem)
		return
	}
	apt.ID = id
	updated, err := h.repo.Update(r.Context(), apt)
	switch {
	case errors.Is(err, appointments.ErrNotFound):
		writeError(w, http.StatusNotFound, "appointment not found")
	case errors.Is(err, appointments.ErrDuplicateSlot):
		writeError(w, http.StatusConflict, "slot already booked for this department")
	case err != nil:
		h.logger.Error("admin update appointment failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to update appointment")
	default:
		writeJSON(w, http.StatusOK, updated)
	}
}

// Delete removes an appointment.
// Route: DELETE /appointments/{id}
func (h *AdminAppointmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "id must be a UUID")
		return
	}
	err = h.repo.Delete(r.Context(), id)
	if errors.Is(err, appointments.ErrNotFound) {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.logger.Error("admin delete appointment failed", "error", err, "id", id)
		writeError(w, http.StatusInternalServerError, "failed to delete appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
