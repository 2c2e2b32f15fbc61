package booking

import (
	"context"
	"sync"
)

type fakeAppointmentStore struct {
	mu       sync.Mutex
	booked   map[string][]string // "date|dept" -> slots
	byPhone  map[string][]AppointmentRecord
	created  []AppointmentRequest
	createFn func(req AppointmentRequest) error
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{
		booked:  make(map[string][]string),
		byPhone: make(map[string][]AppointmentRecord),
	}
}

func bookedKey(date string, department Department) string {
	return date + "|" + string(department)
}

func (f *fakeAppointmentStore) addBooked(date string, department Department, slots ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := bookedKey(date, department)
	f.booked[k] = append(f.booked[k], slots...)
}

func (f *fakeAppointmentStore) CreateAppointment(_ context.Context, req AppointmentRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createFn != nil {
		if err := f.createFn(req); err != nil {
			return err
		}
	}
	for _, s := range f.booked[bookedKey(req.Date, req.Department)] {
		if NormalizeSlot(s) == req.TimeSlot {
			return ErrSlotTaken
		}
	}
	f.created = append(f.created, req)
	k := bookedKey(req.Date, req.Department)
	f.booked[k] = append(f.booked[k], req.TimeSlot)
	return nil
}

func (f *fakeAppointmentStore) BookedSlots(_ context.Context, date string, department Department) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.booked[bookedKey(date, department)]...), nil
}

func (f *fakeAppointmentStore) AppointmentsByPhone(_ context.Context, phoneDigits string) ([]AppointmentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AppointmentRecord(nil), f.byPhone[phoneDigits]...), nil
}

type fakeMessenger struct {
	mu   sync.Mutex
	sent []OutboundMessage
}

func (f *fakeMessenger) Send(_ context.Context, msg OutboundMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMessenger) last() OutboundMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.sent) == 0 {
		return OutboundMessage{}
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeMessenger) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}
