package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/ayumi-hirano/schedcal/internal/model"
)

func TestCardRender(t *testing.T) {
	e := newTestEnv(t)
	appts := NewAppointmentsHandler(e.registry)

	w := do(e, appts.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))
	created := decode[model.Appointment](t, w)

	fakePNG := []byte("\x89PNG fake")
	var rendered model.Appointment
	h := NewCardHandler(e.registry, func(ctx context.Context, a model.Appointment) ([]byte, error) {
		rendered = a
		return fakePNG, nil
	})

	w = do(e, h.Render, authedRequest(t, e, http.MethodGet, "/api/v1/appointments/card?id="+created.ID, nil, "user-1"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	if w.Body.String() != string(fakePNG) {
		t.Fatal("expected rasterizer output passed through")
	}
	if rendered.ID != created.ID {
		t.Fatalf("expected rasterizer called with the stored appointment, got %+v", rendered)
	}
}

func TestCardRenderMissingAppointment(t *testing.T) {
	e := newTestEnv(t)
	h := NewCardHandler(e.registry, func(ctx context.Context, a model.Appointment) ([]byte, error) {
		t.Fatal("rasterizer should not run for a missing appointment")
		return nil, nil
	})

	w := do(e, h.Render, authedRequest(t, e, http.MethodGet, "/api/v1/appointments/card?id=no-such-id", nil, "user-1"))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCardRenderBrowserDown(t *testing.T) {
	e := newTestEnv(t)
	appts := NewAppointmentsHandler(e.registry)
	w := do(e, appts.Create, authedRequest(t, e, http.MethodPost, "/api/v1/appointments", validAppointment(), "user-1"))
	created := decode[model.Appointment](t, w)

	h := NewCardHandler(e.registry, func(ctx context.Context, a model.Appointment) ([]byte, error) {
		return nil, errors.New("no chromium")
	})

	w = do(e, h.Render, authedRequest(t, e, http.MethodGet, "/api/v1/appointments/card?id="+created.ID, nil, "user-1"))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}
