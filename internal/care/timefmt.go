package care

import (
	"fmt"
	"time"
)

// relativeTime renders a timestamp the way the apps display activity:
// "Just now" under a minute, then minutes, hours, and days.
func relativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "Just now"
	case d < time.Hour:
		return fmt.Sprintf("%d minutes ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hours ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%d days ago", int(d.Hours()/24))
	}
}

const dateLayout = "2006-01-02"

// daysSince returns whole days from a YYYY-MM-DD date to now, by local
// day boundaries. ok is false when the date does not parse.
func daysSince(date string, now time.Time) (int, bool) {
	t, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return 0, false
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(midnight.Sub(t).Hours() / 24), true
}

// weekBounds returns the Monday and Sunday dates of the calendar week
// containing now, as YYYY-MM-DD strings.
func weekBounds(now time.Time) (start, end string) {
	diff := 1 - int(now.Weekday())
	if now.Weekday() == time.Sunday {
		diff = -6
	}
	monday := now.AddDate(0, 0, diff)
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format(dateLayout), sunday.Format(dateLayout)
}
