package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/orentclinic/booking-bot/internal/observability/metrics"
	"github.com/orentclinic/booking-bot/pkg/logging"
)

// Flow drives the step-by-step booking conversation. One instance serves all
// users; per-user state lives in the session store.
type Flow struct {
	sessions     SessionStore
	reservations ReservationStore
	store        AppointmentStore
	calc         *Calculator
	messenger    Messenger
	metrics      *metrics.BookingMetrics
	logger       *logging.Logger
	clinicPhone  string
	now          func() time.Time
}

// FlowConfig collects the collaborators a Flow needs.
type FlowConfig struct {
	Sessions     SessionStore
	Reservations ReservationStore
	Store        AppointmentStore
	Calculator   *Calculator
	Messenger    Messenger
	Metrics      *metrics.BookingMetrics
	Logger       *logging.Logger
	ClinicPhone  string
}

// NewFlow wires up a booking flow controller.
func NewFlow(cfg FlowConfig) *Flow {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Flow{
		sessions:     cfg.Sessions,
		reservations: cfg.Reservations,
		store:        cfg.Store,
		calc:         cfg.Calculator,
		messenger:    cfg.Messenger,
		metrics:      cfg.Metrics,
		logger:       logger,
		clinicPhone:  cfg.ClinicPhone,
		now:          time.Now,
	}
}

// WithClock injects a clock for tests and returns the flow.
func (f *Flow) WithClock(now func() time.Time) *Flow {
	if now != nil {
		f.now = now
	}
	return f
}

// HandleMessage processes one inbound text from userID and sends whatever
// replies the current step calls for. It never returns a user-visible error;
// failures are logged and answered with an apology.
func (f *Flow) HandleMessage(ctx context.Context, userID, text string) {
	input := strings.TrimSpace(text)
	lower := strings.ToLower(input)

	// Cancellation works at any step and must release a held slot before the
	// session goes away, so the slot reopens immediately for other users.
	if strings.Contains(lower, "cancel") || strings.Contains(lower, "stop") {
		f.cancel(ctx, userID)
		return
	}

	session := f.sessions.Get(userID)
	switch session.Step {
	case StepIdle:
		f.handleIdle(ctx, userID, lower)
	case StepAwaitingConfirmation:
		f.handleConfirmation(ctx, userID, lower)
	case StepAwaitingDepartment:
		f.handleDepartment(ctx, userID, input)
	case StepAwaitingDate:
		f.handleDate(ctx, userID, session, input)
	case StepAwaitingSlot:
		f.handleSlot(ctx, userID, session, input)
	case StepAwaitingDetails:
		f.handleDetails(ctx, userID, session, input)
	default:
		f.logger.Warn("unknown booking step, resetting session", "user_id", userID, "step", session.Step)
		f.sessions.Delete(userID)
		f.reply(ctx, userID, welcomeMessage())
	}
}

func (f *Flow) cancel(ctx context.Context, userID string) {
	session := f.sessions.Get(userID)
	if session.HasReservation() {
		if err := f.reservations.Release(ctx, session.ReservationKeyFor()); err != nil {
			f.logger.Error("failed to release reservation on cancel", "user_id", userID, "error", err)
		}
	}
	f.sessions.Delete(userID)
	f.metrics.ObserveBookingOutcome("cancelled")
	f.reply(ctx, userID, cancellationMessage())
}

func (f *Flow) handleIdle(ctx context.Context, userID, lower string) {
	switch {
	case lower == "help":
		f.reply(ctx, userID, helpMessage())
	case strings.Contains(lower, "my appointments") || lower == "check":
		f.sendAppointments(ctx, userID)
	case strings.Contains(lower, "weekly") || lower == "week":
		f.sendWeeklyOverview(ctx, userID)
	case strings.Contains(lower, "book"):
		f.sessions.UpdateStep(userID, StepAwaitingConfirmation)
		f.reply(ctx, userID, bookingInfoMessage())
	default:
		f.reply(ctx, userID, welcomeMessage())
	}
}

func (f *Flow) handleConfirmation(ctx context.Context, userID, lower string) {
	switch lower {
	case "yes", "continue", "ok", "proceed":
		f.sessions.UpdateStep(userID, StepAwaitingDepartment)
		body, buttons := departmentPrompt()
		f.replyWithButtons(ctx, userID, body, buttons)
	default:
		f.reply(ctx, userID, confirmationRePrompt())
	}
}

func (f *Flow) handleDepartment(ctx context.Context, userID, input string) {
	department, ok := ParseDepartment(input)
	if !ok {
		f.reply(ctx, userID, invalidDepartmentMessage())
		return
	}
	f.sessions.Patch(userID, func(s *Session) {
		s.Department = department
		s.Step = StepAwaitingDate
	})
	f.reply(ctx, userID, datePrompt(department, f.calc.LatestBookableDate()))
}

func (f *Flow) handleDate(ctx context.Context, userID string, session Session, input string) {
	date, err := ParseDateInput(input)
	if err != nil {
		f.reply(ctx, userID, dateErrorMessage(err))
		return
	}
	avail, err := f.calc.AvailableSlots(ctx, date, session.Department)
	if err != nil {
		if isDateRuleError(err) {
			f.reply(ctx, userID, dateErrorMessage(err))
			return
		}
		f.logger.Error("availability lookup failed", "user_id", userID, "date", input, "error", err)
		f.reply(ctx, userID, genericApology(f.clinicPhone))
		return
	}
	if len(avail.Available) == 0 {
		f.reply(ctx, userID, fullyBookedMessage(input, session.Department))
		return
	}
	f.sessions.Patch(userID, func(s *Session) {
		s.Date = date.Format("2006-01-02")
		s.Step = StepAwaitingSlot
	})
	f.reply(ctx, userID, slotListMessage(input, session.Department, avail.Available))
}

func isDateRuleError(err error) bool {
	var horizon *HorizonError
	return errors.Is(err, ErrDateFormat) ||
		errors.Is(err, ErrWeekend) ||
		errors.Is(err, ErrPastDate) ||
		errors.As(err, &horizon)
}

func (f *Flow) handleSlot(ctx context.Context, userID string, session Session, input string) {
	date, err := time.ParseInLocation("2006-01-02", session.Date, time.Local)
	if err != nil {
		f.logger.Error("corrupt session date, resetting", "user_id", userID, "date", session.Date)
		f.sessions.Delete(userID)
		f.reply(ctx, userID, genericApology(f.clinicPhone))
		return
	}
	avail, err := f.calc.AvailableSlots(ctx, date, session.Department)
	if err != nil {
		f.logger.Error("availability lookup failed", "user_id", userID, "date", session.Date, "error", err)
		f.reply(ctx, userID, genericApology(f.clinicPhone))
		return
	}

	parsed, ok := ParseFlexibleTime(input)
	if !ok {
		f.reply(ctx, userID, invalidTimeMessage(input, avail.Available))
		return
	}
	if !isCanonicalSlot(parsed) {
		f.reply(ctx, userID, slotNotOfferedMessage(input, FormatTo12Hour(parsed), avail.Available))
		return
	}

	// Re-check against the durable store at selection time. The availability
	// list the user saw may be stale.
	for _, s := range avail.Booked {
		if s == parsed {
			f.reply(ctx, userID, slotGoneMessage(parsed))
			return
		}
	}

	key := ReservationKey{Date: session.Date, Department: session.Department, Slot: parsed}
	heldByOther, err := f.reservations.IsHeldByOther(ctx, key, userID)
	if err != nil {
		f.logger.Error("reservation lookup failed", "user_id", userID, "error", err)
		f.reply(ctx, userID, genericApology(f.clinicPhone))
		return
	}
	if heldByOther {
		f.metrics.ObserveReservationConflict()
		f.reply(ctx, userID, slotJustReservedMessage(parsed))
		return
	}
	reserved, err := f.reservations.TryReserve(ctx, key, userID)
	if err != nil {
		f.logger.Error("reservation failed", "user_id", userID, "error", err)
		f.reply(ctx, userID, genericApology(f.clinicPhone))
		return
	}
	if !reserved {
		f.metrics.ObserveReservationConflict()
		f.reply(ctx, userID, slotJustReservedMessage(parsed))
		return
	}

	// A user picking a second slot gives up their first hold.
	if session.HasReservation() && session.Slot != parsed {
		if err := f.reservations.Release(ctx, session.ReservationKeyFor()); err != nil {
			f.logger.Error("failed to release superseded reservation", "user_id", userID, "error", err)
		}
	}

	f.sessions.Patch(userID, func(s *Session) {
		s.Slot = parsed
		s.ReservedAt = f.now()
		s.Step = StepAwaitingDetails
	})
	dateInput := date.Format("02/01/2006")
	f.reply(ctx, userID, detailsPrompt(dateInput, parsed, session.Department))
}

func isCanonicalSlot(slot string) bool {
	for _, s := range CanonicalSlots {
		if s == slot {
			return true
		}
	}
	return false
}

func (f *Flow) handleDetails(ctx context.Context, userID string, session Session, input string) {
	name, phone, perr := parsePatientDetails(input)
	if perr != nil {
		switch perr {
		case errDetailsFormat:
			f.reply(ctx, userID, detailsFormatHelp())
		case errDetailsName:
			f.reply(ctx, userID, invalidNameMessage())
		case errDetailsPhone:
			f.reply(ctx, userID, invalidPhoneMessage())
		}
		return
	}

	req := AppointmentRequest{
		Date:         session.Date,
		TimeSlot:     session.Slot,
		PatientName:  name,
		PatientPhone: phone,
		Department:   session.Department,
	}
	err := f.store.CreateAppointment(ctx, req)

	// Terminal step either way: the hold is released and the session removed,
	// in that order.
	if session.HasReservation() {
		if rerr := f.reservations.Release(ctx, session.ReservationKeyFor()); rerr != nil {
			f.logger.Error("failed to release reservation after commit", "user_id", userID, "error", rerr)
		}
	}
	f.sessions.Delete(userID)

	switch {
	case errors.Is(err, ErrSlotTaken):
		f.metrics.ObserveBookingOutcome("slot_taken")
		f.reply(ctx, userID, slotTakenOnCommitMessage())
	case err != nil:
		f.logger.Error("appointment insert failed", "user_id", userID, "error", err)
		f.metrics.ObserveBookingOutcome("error")
		f.reply(ctx, userID, genericApology(f.clinicPhone))
	default:
		f.metrics.ObserveBookingOutcome("confirmed")
		f.logger.Info("appointment confirmed",
			"user_id", userID,
			"date", req.Date,
			"slot", req.TimeSlot,
			"department", req.Department)
		f.reply(ctx, userID, confirmationMessage(req))
	}
}

var (
	errDetailsFormat = errors.New("booking: unrecognized details format")
	errDetailsName   = errors.New("booking: patient name too short")
	errDetailsPhone  = errors.New("booking: phone number too short")
)

// parsePatientDetails accepts either "Name, Phone" on one line or labeled
// "Patient Name:" / "Phone:" lines in any order.
func parsePatientDetails(input string) (name, phone string, err error) {
	text := strings.TrimSpace(input)

	if strings.Contains(text, ",") && !strings.Contains(text, "\n") {
		parts := strings.SplitN(text, ",", 2)
		name = strings.TrimSpace(parts[0])
		phone = strings.TrimSpace(parts[1])
	} else {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			lower := strings.ToLower(line)
			switch {
			case strings.HasPrefix(lower, "patient name:"):
				name = strings.TrimSpace(line[len("patient name:"):])
			case strings.HasPrefix(lower, "name:"):
				name = strings.TrimSpace(line[len("name:"):])
			case strings.HasPrefix(lower, "phone number:"):
				phone = strings.TrimSpace(line[len("phone number:"):])
			case strings.HasPrefix(lower, "phone:"):
				phone = strings.TrimSpace(line[len("phone:"):])
			}
		}
		if name == "" && phone == "" {
			return "", "", errDetailsFormat
		}
	}

	if len([]rune(name)) < 2 {
		return "", "", errDetailsName
	}
	if digits := countDigits(phone); digits < 10 {
		return "", "", errDetailsPhone
	}
	return name, phone, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

func (f *Flow) sendAppointments(ctx context.Context, userID string) {
	records, err := f.store.AppointmentsByPhone(ctx, NormalizePhoneDigits(userID))
	if err != nil {
		f.logger.Error("appointments lookup failed", "user_id", userID, "error", err)
		f.reply(ctx, userID, genericApology(f.clinicPhone))
		return
	}
	if len(records) == 0 {
		f.reply(ctx, userID, noAppointmentsMessage())
		return
	}
	f.reply(ctx, userID, appointmentsListMessage(records))
}

// weeklyOverviewDays is how many upcoming weekdays the overview covers.
const weeklyOverviewDays = 5

func (f *Flow) sendWeeklyOverview(ctx context.Context, userID string) {
	var b strings.Builder
	b.WriteString("📊 *Weekly Availability Overview*\n\n")

	covered := 0
	for day := startOfDay(f.now()); covered < weeklyOverviewDays; day = day.AddDate(0, 0, 1) {
		if isWeekend(day) {
			continue
		}
		covered++
		fmt.Fprintf(&b, "📅 *%s (%s)*\n", day.Format("02/01/2006"), day.Format("Monday"))
		for _, department := range []Department{DepartmentOrtho, DepartmentENT} {
			avail, err := f.calc.AvailableSlots(ctx, day, department)
			if err != nil {
				f.logger.Error("weekly overview lookup failed", "user_id", userID, "date", day.Format("2006-01-02"), "error", err)
				f.reply(ctx, userID, genericApology(f.clinicPhone))
				return
			}
			fmt.Fprintf(&b, "  • %s: %d of %d slots open\n", department.DisplayName(), len(avail.Available), len(CanonicalSlots))
		}
		b.WriteString("\n")
	}
	b.WriteString("To book an appointment, type \"book\".")
	f.reply(ctx, userID, b.String())
}

func (f *Flow) reply(ctx context.Context, userID, body string) {
	f.send(ctx, OutboundMessage{To: userID, Body: body})
}

func (f *Flow) replyWithButtons(ctx context.Context, userID, body string, buttons []Button) {
	f.send(ctx, OutboundMessage{To: userID, Body: body, Buttons: buttons})
}

func (f *Flow) send(ctx context.Context, msg OutboundMessage) {
	if err := f.messenger.Send(ctx, msg); err != nil {
		f.metrics.ObserveOutbound("error")
		f.logger.Error("outbound send failed", "to", msg.To, "error", err)
		return
	}
	f.metrics.ObserveOutbound("sent")
}
