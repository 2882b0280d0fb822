// Package view tracks the calendar cursor (selected date, month/week mode,
// active search term) and computes per-day summaries for grid rendering.
package view

import (
	"sync"
	"time"

	"github.com/ayumi-hirano/schedcal/internal/model"
)

type Mode string

const (
	ModeMonth Mode = "month"
	ModeWeek  Mode = "week"
)

// IndicatorNeutral is the dot color for days whose appointments all carry
// unrecognized categories.
const IndicatorNeutral = "gray"

// Controller is a cursor over the calendar; it is never persisted. The same
// account may have several clients open, so all access goes through the
// mutex.
type Controller struct {
	mu         sync.Mutex
	selected   time.Time
	mode       Mode
	searchTerm string
}

func NewController(now time.Time) *Controller {
	return &Controller{selected: now, mode: ModeMonth}
}

func (c *Controller) SelectedDate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

func (c *Controller) SearchTerm() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.searchTerm
}

func (c *Controller) SetMode(m Mode) {
	if m != ModeMonth && m != ModeWeek {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mode = m
}

func (c *Controller) SetSearchTerm(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchTerm = term
}

// SelectDate moves the cursor without touching the search term, so a user can
// click a highlighted match date while still searching.
func (c *Controller) SelectDate(d time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = d
}

// ChangePeriod navigates to the next or previous period: in month mode to the
// first of the adjacent month, in week mode by seven days snapped to the
// start of the week. Navigating away always clears the search term.
func (c *Controller) ChangePeriod(direction int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeWeek:
		c.selected = StartOfWeek(c.selected).AddDate(0, 0, 7*direction)
	default:
		c.selected = time.Date(c.selected.Year(), c.selected.Month(), 1, 0, 0, 0, 0, c.selected.Location()).
			AddDate(0, direction, 0)
	}
	c.searchTerm = ""
}

// StartOfWeek returns the Sunday on or before t, at midnight.
func StartOfWeek(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return t.AddDate(0, 0, -int(t.Weekday()))
}

// MonthDays lists every day of the anchor's month.
func MonthDays(anchor time.Time) []time.Time {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, anchor.Location())
	var days []time.Time
	for d := first; d.Month() == first.Month(); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WeekDays lists the seven days of the week containing the anchor, starting
// Sunday.
func WeekDays(anchor time.Time) []time.Time {
	start := StartOfWeek(anchor)
	days := make([]time.Time, 7)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

type DaySummary struct {
	Date            string `json:"date"`
	HasAppointments bool   `json:"has_appointments"`
	// Indicator is the dot color for the day, chosen by fixed category
	// priority; empty when the day has no appointments.
	Indicator   string `json:"indicator,omitempty"`
	Unavailable bool   `json:"unavailable"`
}

// indicatorPriority: the first category present on the day wins.
var indicatorPriority = []model.Category{
	model.CategoryCounseling,
	model.CategoryWork,
	model.CategoryPrivate,
}

// Summarize condenses a day's appointments into grid-rendering state.
func Summarize(date string, appts []model.Appointment, unavailable bool) DaySummary {
	s := DaySummary{Date: date, Unavailable: unavailable}
	if len(appts) == 0 {
		return s
	}
	s.HasAppointments = true

	present := map[model.Category]bool{}
	for _, a := range appts {
		present[a.Category] = true
	}
	for _, cat := range indicatorPriority {
		if present[cat] {
			info, _ := cat.Info()
			s.Indicator = info.Color
			return s
		}
	}
	s.Indicator = IndicatorNeutral
	return s
}
