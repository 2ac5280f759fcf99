package trip

import (
	"fmt"
)

const minutesPerDay = 24 * 60

// ParseClock parses a strict "HH:MM" wall-clock time and returns minutes past midnight
func ParseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("%w: %q is not HH:MM", ErrInvalidTime, s)
	}

	h, okH := twoDigits(s[0], s[1])
	m, okM := twoDigits(s[3], s[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q is out of range", ErrInvalidTime, s)
	}
	return h*60 + m, nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// FormatClock renders minutes past midnight as "HH:MM", wrapping around the day
func FormatClock(minutes int) string {
	m := ((minutes % minutesPerDay) + minutesPerDay) % minutesPerDay
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ArrivalTime adds minutes to a departure time on a 24-hour clock.
// There is no day tracking, so 23:50 plus 20 minutes is 00:10.
func ArrivalTime(departure string, minutes int) (string, error) {
	dep, err := ParseClock(departure)
	if err != nil {
		return "", err
	}
	return FormatClock(dep + minutes), nil
}

// FormatClock12 renders an "HH:MM" time on a 12-hour clock, e.g. "9:00 AM"
func FormatClock12(hhmm string) (string, error) {
	t, err := ParseClock(hhmm)
	if err != nil {
		return "", err
	}

	h, m := t/60, t%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix), nil
}

// DepartureSlots lists the selectable departure times of a day, every step
// minutes starting at midnight. A step outside 1..1440 yields nil.
func DepartureSlots(step int) []string {
	if step <= 0 || step > minutesPerDay {
		return nil
	}
	slots := make([]string, 0, minutesPerDay/step+1)
	for t := 0; t < minutesPerDay; t += step {
		slots = append(slots, FormatClock(t))
	}
	return slots
}
