package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"
)

// CanonicalSlots is the fixed list of bookable times per clinic day, shared by
// both departments.
var CanonicalSlots = []string{
	"10:30", "10:45", "11:15", "11:30", "12:00",
	"12:15", "12:30", "13:00", "13:30", "13:45",
}

// DefaultAdvanceWeekdays is the advance-booking horizon in weekdays.
const DefaultAdvanceWeekdays = 7

// Date validation errors surfaced to the flow, which converts them to
// user-facing text.
var (
	ErrDateFormat = errors.New("booking: date must be in dd/mm/yyyy format")
	ErrWeekend    = errors.New("booking: appointments are weekdays only")
	ErrPastDate   = errors.New("booking: date is in the past")
)

// HorizonError reports a date beyond the advance-booking window, naming the
// latest bookable date.
type HorizonError struct {
	Latest time.Time
}

func (e *HorizonError) Error() string {
	return fmt.Sprintf("booking: date beyond advance horizon, latest bookable is %s", e.Latest.Format("02/01/2006"))
}

// ParseDateInput parses strict dd/mm/yyyy user input into a calendar date.
func ParseDateInput(input string) (time.Time, error) {
	d, err := time.ParseInLocation("02/01/2006", input, time.Local)
	if err != nil {
		return time.Time{}, ErrDateFormat
	}
	return d, nil
}

func isWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// MaxAdvanceDate walks forward day by day from tomorrow, counting only
// weekdays, until weekdaysAhead have been counted. The resulting date is the
// latest bookable date.
func MaxAdvanceDate(now time.Time, weekdaysAhead int) time.Time {
	d := startOfDay(now)
	counted := 0
	for counted < weekdaysAhead {
		d = d.AddDate(0, 0, 1)
		if !isWeekend(d) {
			counted++
		}
	}
	return d
}

// Availability is the result of a slot-availability computation.
type Availability struct {
	Available []string
	Booked    []string
	Reserved  []string
}

// Calculator computes bookable slots for a date and department, subtracting
// persisted appointments and live in-flight reservations.
type Calculator struct {
	store           AppointmentStore
	reservations    ReservationStore
	horizonWeekdays int
	now             func() time.Time
}

// NewCalculator creates an availability calculator. A non-positive horizon
// falls back to DefaultAdvanceWeekdays.
func NewCalculator(store AppointmentStore, reservations ReservationStore, horizonWeekdays int) *Calculator {
	if horizonWeekdays <= 0 {
		horizonWeekdays = DefaultAdvanceWeekdays
	}
	return &Calculator{
		store:           store,
		reservations:    reservations,
		horizonWeekdays: horizonWeekdays,
		now:             time.Now,
	}
}

// WithClock injects a clock for tests and returns the calculator.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	if now != nil {
		c.now = now
	}
	return c
}

// ValidateDate applies the business date rules: weekday only, not in the past,
// within the advance-booking horizon.
func (c *Calculator) ValidateDate(date time.Time) error {
	if isWeekend(date) {
		return ErrWeekend
	}
	today := startOfDay(c.now())
	if startOfDay(date).Before(today) {
		return ErrPastDate
	}
	latest := MaxAdvanceDate(c.now(), c.horizonWeekdays)
	if startOfDay(date).After(latest) {
		return &HorizonError{Latest: latest}
	}
	return nil
}

// LatestBookableDate returns the furthest date a user may currently book.
func (c *Calculator) LatestBookableDate() time.Time {
	return MaxAdvanceDate(c.now(), c.horizonWeekdays)
}

// AvailableSlots returns the canonical slot list minus persisted appointments
// and minus slots held by in-flight reservations for the given date and
// department. The date must already have passed ValidateDate.
func (c *Calculator) AvailableSlots(ctx context.Context, date time.Time, department Department) (Availability, error) {
	if err := c.ValidateDate(date); err != nil {
		return Availability{}, err
	}
	isoDate := date.Format("2006-01-02")

	stored, err := c.store.BookedSlots(ctx, isoDate, department)
	if err != nil {
		return Availability{}, fmt.Errorf("booking: load booked slots: %w", err)
	}
	booked := make(map[string]bool, len(stored))
	for _, s := range stored {
		booked[NormalizeSlot(s)] = true
	}

	held, err := c.reservations.HeldSlots(ctx, isoDate, department)
	if err != nil {
		return Availability{}, fmt.Errorf("booking: load held slots: %w", err)
	}
	reserved := make(map[string]bool, len(held))
	for _, s := range held {
		reserved[s] = true
	}

	result := Availability{}
	for _, slot := range CanonicalSlots {
		switch {
		case booked[slot]:
			result.Booked = append(result.Booked, slot)
		case reserved[slot]:
			result.Reserved = append(result.Reserved, slot)
		default:
			result.Available = append(result.Available, slot)
		}
	}
	sort.Strings(result.Booked)
	return result, nil
}
