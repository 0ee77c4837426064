package utils

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date format used for storage keys.
const DateLayout = "2006-01-02"

// CalendarDaysBetween returns the number of calendar days from start to end
// in loc, ignoring the time of day. It is negative when end is before start.
func CalendarDaysBetween(end, start time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	ey, em, ed := end.In(loc).Date()
	sy, sm, sd := start.In(loc).Date()

	// Midnight UTC on both dates keeps DST shifts out of the subtraction.
	e := time.Date(ey, em, ed, 0, 0, 0, 0, time.UTC)
	s := time.Date(sy, sm, sd, 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours() / 24)
}

// DateKey formats t as a calendar date in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD date as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// FormatDisplayDate renders a plan date for people, e.g. "Mon, 01 Jan 2024".
func FormatDisplayDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Mon, 02 Jan 2006")
}

// GetTimezoneInfo describes the plan time zone against server UTC time.
func GetTimezoneInfo(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	name, offset := local.Zone()
	sign := "+"
	if offset < 0 {
		sign = "-"
		offset = -offset
	}
	return fmt.Sprintf("🕐 Plan time: %s %s (UTC%s%d:%02d)\n   Server time: %s UTC",
		local.Format("15:04"), name, sign, offset/3600, (offset%3600)/60, now.UTC().Format("15:04"))
}
