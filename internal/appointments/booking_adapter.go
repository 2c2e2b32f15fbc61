package appointments

import (
	"context"
	"errors"

	"github.com/orentclinic/booking-bot/internal/booking"
)

// BookingStore adapts the repository to the port the booking flow consumes.
type BookingStore struct {
	repo *Repository
}

// NewBookingStore wraps a repository for the booking flow.
func NewBookingStore(repo *Repository) *BookingStore {
	return &BookingStore{repo: repo}
}

var _ booking.AppointmentStore = (*BookingStore)(nil)

func (s *BookingStore) CreateAppointment(ctx context.Context, req booking.AppointmentRequest) error {
	_, err := s.repo.Create(ctx, Appointment{
		Date:         req.Date,
		TimeSlot:     req.TimeSlot,
		PatientName:  req.PatientName,
		Department:   string(req.Department),
		PatientPhone: req.PatientPhone,
	})
	if errors.Is(err, ErrDuplicateSlot) {
		return booking.ErrSlotTaken
	}
	return err
}

func (s *BookingStore) BookedSlots(ctx context.Context, date string, department booking.Department) ([]string, error) {
	return s.repo.BookedSlots(ctx, date, string(department))
}

func (s *BookingStore) AppointmentsByPhone(ctx context.Context, phoneDigits string) ([]booking.AppointmentRecord, error) {
	rows, err := s.repo.ListByPhone(ctx, phoneDigits)
	if err != nil {
		return nil, err
	}
	records := make([]booking.AppointmentRecord, 0, len(rows))
	for _, apt := range rows {
		records = append(records, booking.AppointmentRecord{
			Date:         apt.Date,
			TimeSlot:     apt.TimeSlot,
			PatientName:  apt.PatientName,
			PatientPhone: apt.PatientPhone,
			Department:   booking.Department(apt.Department),
		})
	}
	return records, nil
}
