package handlers

import (
	"net/http"
	"testing"
)

func TestMonthSummaries(t *testing.T) {
	e := newTestEnv(t)
	appts := NewAppointmentsHandler(e.registry)
	h := NewCalendarHandler(e.registry)

	counseling := validAppointment() // 2024-06-10
	do(e, appts.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", counseling, "user-1"))

	work := validAppointment()
	work.Date = "2024-06-10"
	work.Time = "16:00"
	work.Category = "work"
	work.DisplayName = "定例会議"
	do(e, appts.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", work, "user-1"))

	do(e, appts.ToggleUnavailable, authedRequest(t, e, http.MethodPost, "/api/v1/unavailable/toggle", toggleUnavailableRequest{Date: "2024-06-20"}, "user-1"))

	w := do(e, h.Month, authedRequest(t, e, http.MethodGet, "/api/v1/calendar/month?anchor=2024-06", nil, "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[calendarResponse](t, w)
	if len(resp.Days) != 30 {
		t.Fatalf("expected 30 days in June, got %d", len(resp.Days))
	}

	var tenth, twentieth = resp.Days[9], resp.Days[19]
	if tenth.Date != "2024-06-10" || !tenth.HasAppointments {
		t.Fatalf("expected appointments on the 10th, got %+v", tenth)
	}
	if tenth.Indicator != "pink" {
		t.Fatalf("expected counseling indicator to win, got %q", tenth.Indicator)
	}
	if !twentieth.Unavailable {
		t.Fatalf("expected the 20th unavailable, got %+v", twentieth)
	}
}

func TestMonthRejectsBadAnchor(t *testing.T) {
	e := newTestEnv(t)
	h := NewCalendarHandler(e.registry)
	w := do(e, h.Month, authedRequest(t, e, http.MethodGet, "/api/v1/calendar/month?anchor=June", nil, "user-1"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestWeekSummaries(t *testing.T) {
	e := newTestEnv(t)
	appts := NewAppointmentsHandler(e.registry)
	h := NewCalendarHandler(e.registry)

	do(e, appts.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))

	// 2024-06-12 is a Wednesday; its week runs 06-09 through 06-15.
	w := do(e, h.Week, authedRequest(t, e, http.MethodGet, "/api/v1/calendar/week?anchor=2024-06-12", nil, "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decode[calendarResponse](t, w)
	if len(resp.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(resp.Days))
	}
	if resp.Days[0].Date != "2024-06-09" || resp.Days[6].Date != "2024-06-15" {
		t.Fatalf("expected Sunday..Saturday span, got %s..%s", resp.Days[0].Date, resp.Days[6].Date)
	}
	if !resp.Days[1].HasAppointments {
		t.Fatalf("expected appointment on Monday the 10th, got %+v", resp.Days[1])
	}
}
