package booking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	time24Pattern   = regexp.MustCompile(`^(\d{2}):(\d{2})$`)
	timeAmPmPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})\s*(am|pm)$`)
	timeBarePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
)

// ParseFlexibleTime converts user time input into a canonical HH:MM 24-hour
// value. It runs an ordered set of parse attempts, each with a definite
// outcome:
//
//  1. strict 24-hour HH:MM (two-digit hour),
//  2. 12-hour H:MM with an explicit am/pm suffix,
//  3. bare H:MM disambiguated by clinic hours: 10-11 are morning, 1-2 are
//     afternoon, 12 is noon; any other bare hour is rejected rather than
//     guessed.
func ParseFlexibleTime(input string) (string, bool) {
	clean := strings.ToLower(strings.TrimSpace(input))

	if m := time24Pattern.FindStringSubmatch(clean); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour > 23 || minute > 59 {
			return "", false
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	if m := timeAmPmPattern.FindStringSubmatch(clean); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 1 || hour > 12 || minute > 59 {
			return "", false
		}
		switch m[3] {
		case "pm":
			if hour != 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		return fmt.Sprintf("%02d:%02d", hour, minute), true
	}

	if m := timeBarePattern.FindStringSubmatch(clean); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if minute > 59 {
			return "", false
		}
		switch {
		case hour == 10 || hour == 11:
			return fmt.Sprintf("%02d:%02d", hour, minute), true
		case hour == 1 || hour == 2:
			return fmt.Sprintf("%02d:%02d", hour+12, minute), true
		case hour == 12:
			return fmt.Sprintf("12:%02d", minute), true
		default:
			return "", false
		}
	}

	return "", false
}

// FormatTo12Hour renders an HH:MM 24-hour slot in 12-hour form with AM/PM.
func FormatTo12Hour(slot string) string {
	parts := strings.SplitN(slot, ":", 2)
	if len(parts) != 2 {
		return slot
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return slot
	}
	minutes := parts[1]
	switch {
	case hour == 0:
		return fmt.Sprintf("12:%s AM", minutes)
	case hour < 12:
		return fmt.Sprintf("%d:%s AM", hour, minutes)
	case hour == 12:
		return fmt.Sprintf("12:%s PM", minutes)
	default:
		return fmt.Sprintf("%d:%s PM", hour-12, minutes)
	}
}

// FormatSlotsTo12Hour renders a slot list in 12-hour form.
func FormatSlotsTo12Hour(slots []string) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = FormatTo12Hour(s)
	}
	return out
}
