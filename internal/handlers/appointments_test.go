package handlers

import (
	"net/http"
	"testing"

	"github.com/ayumi-hirano/schedcal/internal/model"
)

func validAppointment() appointmentRequest {
	return appointmentRequest{
		Date:            "2024-06-10",
		Time:            "13:00",
		DurationMinutes: 60,
		Category:        "counseling",
		DisplayName:     "田中 花子",
		Notes:           "初回セッション",
	}
}

func TestCreateAndList(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	w := do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[model.Appointment](t, w)
	if created.ID == "" {
		t.Fatal("expected server-assigned id")
	}

	w = do(e, h.List, authedRequest(t, e, http.MethodGet, "/api/v1/appointments?date=2024-06-10", nil, "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	appts := decode[[]model.Appointment](t, w)
	if len(appts) != 1 || appts[0].ID != created.ID {
		t.Fatalf("expected the created appointment, got %+v", appts)
	}

	// Another identity sees nothing.
	w = do(e, h.List, authedRequest(t, e, http.MethodGet, "/api/v1/appointments", nil, "user-2"))
	if got := decode[[]model.Appointment](t, w); len(got) != 0 {
		t.Fatalf("expected empty list for other identity, got %+v", got)
	}
}

func TestCreateValidation(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	cases := []struct {
		name   string
		mutate func(*appointmentRequest)
	}{
		{"bad date", func(r *appointmentRequest) { r.Date = "06/10/2024" }},
		{"bad time", func(r *appointmentRequest) { r.Time = "1pm" }},
		{"zero duration", func(r *appointmentRequest) { r.DurationMinutes = 0 }},
		{"missing name", func(r *appointmentRequest) { r.DisplayName = "  " }},
		{"missing category", func(r *appointmentRequest) { r.Category = "" }},
	}
	for _, tc := range cases {
		req := validAppointment()
		tc.mutate(&req)
		w := do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", req, "user-1"))
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", tc.name, w.Code)
		}
	}
}

func TestCreateAcceptsUnknownCategory(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	req := validAppointment()
	req.Category = "mystery"
	w := do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", req, "user-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 for unknown category, got %d: %s", w.Code, w.Body.String())
	}
	created := decode[model.Appointment](t, w)
	if created.Category != "mystery" {
		t.Fatalf("expected category stored as-is, got %q", created.Category)
	}
}

func TestCreateRejectedOnUnavailableDate(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	w := do(e, h.ToggleUnavailable, authedRequest(t, e, http.MethodPost, "/api/v1/unavailable/toggle", toggleUnavailableRequest{Date: "2024-06-10"}, "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	toggled := decode[toggleUnavailableResponse](t, w)
	if !toggled.Unavailable {
		t.Fatal("expected date marked unavailable")
	}

	w = do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", w.Code, w.Body.String())
	}

	// Toggling again frees the date.
	w = do(e, h.ToggleUnavailable, authedRequest(t, e, http.MethodPost, "/api/v1/unavailable/toggle", toggleUnavailableRequest{Date: "2024-06-10"}, "user-1"))
	if toggled := decode[toggleUnavailableResponse](t, w); toggled.Unavailable {
		t.Fatal("expected date freed after second toggle")
	}
	w = do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 after freeing date, got %d", w.Code)
	}
}

func TestUpdateExistingOnUnavailableDateAllowed(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	w := do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))
	created := decode[model.Appointment](t, w)

	// Blocking the date afterwards keeps the existing appointment editable.
	do(e, h.ToggleUnavailable, authedRequest(t, e, http.MethodPost, "/api/v1/unavailable/toggle", toggleUnavailableRequest{Date: "2024-06-10"}, "user-1"))

	req := validAppointment()
	req.ID = created.ID
	req.Notes = "時間変更"
	w = do(e, h.Update, authedRequest(t, e, http.MethodPost, "/api/v1/appointments/update", req, "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestUpdateMissingAppointment(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	req := validAppointment()
	req.ID = "no-such-id"
	w := do(e, h.Update, authedRequest(t, e, http.MethodPost, "/api/v1/appointments/update", req, "user-1"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	w := do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))
	created := decode[model.Appointment](t, w)

	for i := 0; i < 2; i++ {
		w = do(e, h.Delete, authedRequest(t, e, http.MethodPost, "/api/v1/appointments/delete", deleteRequest{ID: created.ID}, "user-1"))
		if w.Code != http.StatusNoContent {
			t.Fatalf("delete %d: expected 204, got %d", i, w.Code)
		}
	}
}

func TestListSearch(t *testing.T) {
	e := newTestEnv(t)
	h := NewAppointmentsHandler(e.registry)

	first := validAppointment()
	do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", first, "user-1"))

	second := validAppointment()
	second.Date = "2024-06-12"
	second.Category = "work"
	second.DisplayName = "企画会議"
	second.Notes = ""
	do(e, h.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", second, "user-1"))

	w := do(e, h.List, authedRequest(t, e, http.MethodGet, "/api/v1/appointments?q=田中", nil, "user-1"))
	matches := decode[[]model.Appointment](t, w)
	if len(matches) != 1 || matches[0].DisplayName != "田中 花子" {
		t.Fatalf("expected single match on client name, got %+v", matches)
	}
}
