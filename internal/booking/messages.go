package booking

import (
	"fmt"
	"strings"
	"time"
)

// Message composition: pure formatting of outbound prompts, confirmations and
// errors from flow state. Wording mirrors the clinic's WhatsApp copy.

func welcomeMessage() string {
	return "Welcome to Orent Clinic! 🏥\n\n" +
		"We're here to help you with your healthcare needs.\n\n" +
		"📅 Appointments are available on weekdays (Monday to Friday) only.\n\n" +
		"Please reply with:\n\n" +
		"📅 \"book\" - to start the step-by-step booking process (Department → Date → Time → Details)\n" +
		"📋 \"my appointments\" - to check your existing appointments\n" +
		"📊 \"weekly\" - to see weekly availability overview for both departments\n" +
		"❓ \"help\" - for assistance"
}

func helpMessage() string {
	return "❓ How can we help?\n\nAvailable commands:\n\n" +
		"📅 \"book\" - Start step-by-step booking process (Department → Date → Time → Details)\n" +
		"📋 \"my appointments\" - View your appointments\n" +
		"📊 \"weekly\" - Show weekly availability overview for both departments\n" +
		"❓ \"help\" - Show this help message\n\n" +
		"📝 Note: Appointments are only available on weekdays (Monday to Friday) during clinic hours.\n\n" +
		"For urgent matters, please call our clinic directly."
}

func bookingInfoMessage() string {
	return "📋 *Booking Information & Rules*\n\n" +
		"Before we proceed with your appointment booking, please note the following:\n\n" +
		"💰 *Slot Booking Fee:* ₹50 for every appointment (new or review)\n\n" +
		"📅 *Future Bookings:* Allowed up to 7 weekdays in advance\n\n" +
		"Do you want to continue with the booking process?\n\n" +
		"Reply with:\n" +
		"• \"yes\" or \"continue\" - to proceed\n" +
		"• \"cancel\" - to stop the booking process"
}

func confirmationRePrompt() string {
	return "❓ Please reply with \"yes\" to continue or \"cancel\" to stop the booking process."
}

func departmentPrompt() (string, []Button) {
	body := "🏥 Please select your department:\n\n" +
		"1️⃣ Orthopedics\n2️⃣ ENT\n\n" +
		"Type \"1\" for Orthopedics or \"2\" for ENT.\n" +
		"Type \"cancel\" to stop the booking process."
	buttons := []Button{
		{ID: "1", Title: "Orthopedics"},
		{ID: "2", Title: "ENT"},
	}
	return body, buttons
}

func invalidDepartmentMessage() string {
	return "❌ Invalid department selection. Please type \"1\" for Orthopedics or \"2\" for ENT."
}

func datePrompt(department Department, latest time.Time) string {
	return fmt.Sprintf("📅 Let's book your appointment for %s!\n\n"+
		"Please provide the date you'd like to book in dd/mm/yyyy format (e.g., 25/12/2026).\n\n"+
		"📋 *Booking Rules:*\n"+
		"• Weekdays only (Monday to Friday)\n"+
		"• Maximum 7 weekdays in advance\n"+
		"• Latest available date: %s\n\n"+
		"Type \"cancel\" to stop the booking process.",
		department.DisplayName(), latest.Format("02/01/2006"))
}

func dateErrorMessage(err error) string {
	switch {
	case err == ErrDateFormat:
		return "❌ Invalid date format. Please use dd/mm/yyyy format (e.g., 25/12/2026)."
	case err == ErrWeekend:
		return "❌ Appointments are only available on weekdays (Monday to Friday). Please choose a different date."
	case err == ErrPastDate:
		return "❌ Cannot book appointments in the past. Please choose a future date."
	default:
		if horizon, ok := err.(*HorizonError); ok {
			return fmt.Sprintf("❌ Cannot book appointments more than 7 weekdays in advance. "+
				"The latest available date is %s. Please choose an earlier date.",
				horizon.Latest.Format("02/01/2006"))
		}
		return "❌ Sorry, there was an error processing your date. Please try again or type \"cancel\" to start over."
	}
}

func fullyBookedMessage(dateInput string, department Department) string {
	return fmt.Sprintf("📅 %s (%s)\n\n"+
		"❌ No available slots for this date and department.\n\n"+
		"All time slots are booked. Please choose a different date or type \"cancel\" to stop.",
		dateInput, department.DisplayName())
}

func slotListMessage(dateInput string, department Department, available []string) string {
	slots := strings.Join(FormatSlotsTo12Hour(available), ", ")
	return fmt.Sprintf("📅 Available slots for %s (%s):\n\n⏰ %s\n\n"+
		"Please type your preferred time slot in any format:\n"+
		"• 10:30 (assumes AM)\n"+
		"• 1:30 (assumes PM)\n"+
		"• 10:30 AM or 1:30 PM\n"+
		"• 13:30 (24-hour format)\n\n"+
		"⚠️ Note: Slots are checked for availability when you select them.",
		dateInput, department.DisplayName(), slots)
}

func invalidTimeMessage(input string, available []string) string {
	slots := strings.Join(FormatSlotsTo12Hour(available), ", ")
	return fmt.Sprintf("❌ Invalid time format: %q.\n\n"+
		"Please type a time in any of these formats:\n"+
		"• 10:30 (assumes AM)\n"+
		"• 1:30 (assumes PM)\n"+
		"• 10:30 AM or 1:30 PM\n"+
		"• 13:30 (24-hour format)\n\n"+
		"Available slots: %s", input, slots)
}

func slotNotOfferedMessage(input, parsed string, available []string) string {
	slots := strings.Join(FormatSlotsTo12Hour(available), ", ")
	return fmt.Sprintf("❌ Time %q (%s) is not available.\n\n"+
		"Please choose from these available slots: %s", input, parsed, slots)
}

func slotGoneMessage(parsed string) string {
	return fmt.Sprintf("❌ Sorry, the slot %s is no longer available. "+
		"It may have been booked by another user.\n\n"+
		"Please choose a different time slot from the available options.", FormatTo12Hour(parsed))
}

func slotJustReservedMessage(parsed string) string {
	return fmt.Sprintf("❌ Sorry, the slot %s was just reserved by another user. "+
		"Please choose a different time slot.", FormatTo12Hour(parsed))
}

func detailsPrompt(dateInput, slot string, department Department) string {
	return fmt.Sprintf("📋 Great! You've selected %s at %s for %s.\n\n"+
		"Now please provide:\n\n1️⃣ Patient Name:\n2️⃣ Phone Number:\n\n"+
		"You can reply in two formats:\n\n"+
		"📝 Line by line:\nPatient Name: John Doe\nPhone: 1234567890\n\n"+
		"OR\n\n📝 Comma separated:\nJohn Doe, 1234567890\n\n"+
		"Type \"cancel\" to start over.",
		dateInput, FormatTo12Hour(slot), department.DisplayName())
}

func detailsFormatHelp() string {
	return "❌ Please provide patient details in the correct format:\n\n" +
		"📝 Line by line:\nPatient Name: John Doe\nPhone: 1234567890\n\n" +
		"OR\n\n📝 Comma separated:\nJohn Doe, 1234567890"
}

func invalidNameMessage() string {
	return "❌ Please provide a valid patient name (at least 2 characters)."
}

func invalidPhoneMessage() string {
	return "❌ Please provide a valid phone number (at least 10 digits)."
}

func confirmationMessage(req AppointmentRequest) string {
	return fmt.Sprintf("✅ *Appointment Confirmed!*\n\n"+
		"📋 **Patient:** %s\n"+
		"🏥 **Department:** %s\n"+
		"📅 **Date:** %s\n"+
		"⏰ **Time:** %s\n"+
		"📱 **Phone:** %s\n\n"+
		"💰 **Slot Booking Fee:** ₹50 (to be paid at clinic)\n\n"+
		"📍 **Location:** Orent Clinic, Chengannur, Kerala\n\n"+
		"Thank you for choosing Orent Clinic! 🏥",
		req.PatientName, req.Department.DisplayName(), req.Date,
		FormatTo12Hour(req.TimeSlot), req.PatientPhone)
}

func slotTakenOnCommitMessage() string {
	return "❌ Sorry, that slot was just booked by another user while you were entering details.\n\n" +
		"Please type \"book\" to start over and pick a different time."
}

func cancellationMessage() string {
	return "❌ Booking cancelled. You can start over by typing \"book\" anytime."
}

func genericApology(clinicPhone string) string {
	return fmt.Sprintf("❌ Sorry, there was an error creating your appointment. "+
		"Please call us at %s for assistance.", clinicPhone)
}

func noAppointmentsMessage() string {
	return "📋 You have no appointments scheduled.\n\nTo book an appointment, type \"book\"."
}

func appointmentsListMessage(records []AppointmentRecord) string {
	var b strings.Builder
	b.WriteString("📋 *Your Appointments:*\n\n")
	for _, apt := range records {
		display := apt.Date
		if d, err := time.Parse("2006-01-02", apt.Date); err == nil {
			display = d.Format("02/01/2006")
		}
		fmt.Fprintf(&b, "📅 **%s** at **%s**\n", display, FormatTo12Hour(NormalizeSlot(apt.TimeSlot)))
		fmt.Fprintf(&b, "🏥 **Department:** %s\n", apt.Department.DisplayName())
		fmt.Fprintf(&b, "👤 **Patient:** %s\n\n", apt.PatientName)
	}
	b.WriteString("To book a new appointment, type \"book\".")
	return b.String()
}
