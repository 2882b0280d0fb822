// Package dateutil holds the canonical date and wall-clock string forms used
// throughout the calendar: dates as "2006-01-02", clock times as "15:04".
package dateutil

import (
	"fmt"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatMonthDay renders the short MM/DD form used in search result rows.
func FormatMonthDay(t time.Time) string {
	return t.Format("01/02")
}

// FormatLong renders the long localized form, e.g. "2024年6月10日".
func FormatLong(t time.Time) string {
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Clock is a wall-clock time of day in minutes from midnight.
type Clock int

func ParseClock(s string) (Clock, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, err
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// ClockOf truncates t to minute precision and returns its time of day.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
