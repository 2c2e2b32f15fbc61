package booking

import (
	"context"
	"errors"
	"strings"
)

// Department is the clinical specialty for an appointment.
type Department string

const (
	DepartmentOrtho Department = "Ortho"
	DepartmentENT   Department = "ENT"
)

// DisplayName returns the user-facing department name.
func (d Department) DisplayName() string {
	if d == DepartmentOrtho {
		return "Orthopedics"
	}
	return string(d)
}

// ParseDepartment maps menu input ("1"/"ortho", "2"/"ent") to a department.
func ParseDepartment(input string) (Department, bool) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "ortho":
		return DepartmentOrtho, true
	case "2", "ent":
		return DepartmentENT, true
	default:
		return "", false
	}
}

// Step identifies the user's position in the booking conversation.
type Step string

const (
	StepIdle                 Step = "idle"
	StepAwaitingConfirmation Step = "awaiting_confirmation"
	StepAwaitingDepartment   Step = "awaiting_department"
	StepAwaitingDate         Step = "awaiting_date"
	StepAwaitingSlot         Step = "awaiting_slot"
	StepAwaitingDetails      Step = "awaiting_details"
)

// ErrSlotTaken is returned by an AppointmentStore when the durable uniqueness
// constraint on (date, time_slot, department) rejects an insert.
var ErrSlotTaken = errors.New("booking: slot already booked")

// AppointmentRequest carries the fields required to persist an appointment.
type AppointmentRequest struct {
	Date         string // yyyy-mm-dd
	TimeSlot     string // HH:MM
	PatientName  string
	PatientPhone string
	Department   Department
}

// AppointmentRecord is a persisted appointment as seen by the booking flow.
type AppointmentRecord struct {
	Date         string
	TimeSlot     string
	PatientName  string
	PatientPhone string
	Department   Department
}

// AppointmentStore is the durable-store port consumed by the booking flow.
// The store's uniqueness constraint is the final authority on double booking;
// Create must map its violation to ErrSlotTaken.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, req AppointmentRequest) error
	BookedSlots(ctx context.Context, date string, department Department) ([]string, error)
	AppointmentsByPhone(ctx context.Context, phoneDigits string) ([]AppointmentRecord, error)
}

// NormalizeSlot reduces a stored time value to HH:MM, stripping seconds if the
// store returns HH:MM:SS.
func NormalizeSlot(value string) string {
	value = strings.TrimSpace(value)
	if len(value) >= 5 {
		return value[:5]
	}
	return value
}

// NormalizePhoneDigits strips non-digits and keeps the last 10 digits so local
// numbers compare equal regardless of country-code prefixes.
func NormalizePhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > 10 {
		return digits[len(digits)-10:]
	}
	return digits
}
