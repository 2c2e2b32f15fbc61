package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Appointment is a persisted clinic appointment.
type Appointment struct {
	ID           uuid.UUID `json:"id"`
	Date         string    `json:"date"`     // yyyy-mm-dd
	TimeSlot     string    `json:"timeSlot"` // HH:MM
	PatientName  string    `json:"patientName"`
	Department   string    `json:"department"`
	PatientPhone string    `json:"patientPhone"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Filter narrows List results. Zero-valued fields are ignored; set fields
// combine conjunctively.
type Filter struct {
	Date       string
	Department string
	Phone      string
}
