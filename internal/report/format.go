package report

import (
	"strings"
	"time"
)

// NextBusinessDay returns the next working day after the given day:
// Friday skips the weekend to Monday, every other day advances by one.
func NextBusinessDay(day time.Time) time.Time {
	if day.Weekday() == time.Friday {
		return day.AddDate(0, 0, 3)
	}
	return day.AddDate(0, 0, 1)
}

// Midnight truncates a time to the start of its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func dateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// DateBetween reports whether day falls within [from, to] inclusive.
// Comparison is by calendar date so time zones on either side don't
// shift the boundaries.
func DateBetween(day, from, to time.Time) bool {
	k := dateKey(day)
	return k >= dateKey(from) && k <= dateKey(to)
}

// MentionList renders usernames as mentions with Oxford-style comma
// separation: "@a", "@a and @b", "@a, @b and @c".
func MentionList(usernames []string) string {
	switch len(usernames) {
	case 0:
		return ""
	case 1:
		return "@" + usernames[0]
	}
	last := usernames[len(usernames)-1]
	return "@" + strings.Join(usernames[:len(usernames)-1], ", @") + " and @" + last
}
