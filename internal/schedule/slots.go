// Package schedule computes the day-schedule slot grid: the working-hours
// window partitioned into fixed-size slots, each classified against the
// day's appointments and the current moment.
package schedule

import (
	"time"

	"github.com/ayumi-hirano/schedcal/internal/dateutil"
	"github.com/ayumi-hirano/schedcal/internal/model"
)

type Status string

const (
	StatusPast      Status = "past"
	StatusAvailable Status = "available"
	StatusBooked    Status = "booked"
)

type Slot struct {
	Start  dateutil.Clock
	Status Status
	// Appointment is set iff Status is StatusBooked.
	Appointment *model.Appointment
	// Continuation is true when Appointment started in an earlier slot.
	Continuation bool
}

// ComputeDaySlots partitions day's working window [workStart, workEnd) into
// interval-minute slots and classifies each one. It is a pure function: same
// inputs (including now) always produce the same grid, and nothing is cached
// or mutated, so callers may skip or repeat it freely.
//
// An unavailable day or an inverted window yields no slots; the caller
// decides which of the two it was (checking workStart < workEnd itself) when
// it needs to tell the user why.
//
// Appointments are matched against the raw per-day list, never a
// search-filtered view, so booking state does not depend on any active
// search. Overlapping appointments are not detected: the first one covering
// a slot wins.
func ComputeDaySlots(day string, appts []model.Appointment, unavailable []string, workStart, workEnd dateutil.Clock, intervalMinutes int, now time.Time) []Slot {
	if intervalMinutes <= 0 || workStart >= workEnd {
		return nil
	}
	for _, d := range unavailable {
		if d == day {
			return nil
		}
	}

	isToday := dateutil.FormatDate(now) == day
	// Truncated to the minute: a slot starting in the same minute as now is
	// still actionable.
	nowClock := dateutil.ClockOf(now)

	var slots []Slot
	for t := workStart; t < workEnd; t += dateutil.Clock(intervalMinutes) {
		slot := Slot{Start: t, Status: StatusAvailable}

		if isToday && t < nowClock {
			slot.Status = StatusPast
		}

		if slot.Status != StatusPast {
			for i := range appts {
				a := &appts[i]
				if a.Date != day {
					continue
				}
				start, err := dateutil.ParseClock(a.Time)
				if err != nil {
					continue
				}
				end := start + dateutil.Clock(a.DurationMinutes)
				if t >= start && t < end {
					slot.Status = StatusBooked
					slot.Appointment = a
					slot.Continuation = t != start
					break
				}
			}
		}

		slots = append(slots, slot)
	}
	return slots
}
