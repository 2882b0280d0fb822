package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayumi-hirano/schedcal/internal/card"
	"github.com/ayumi-hirano/schedcal/internal/model"
	"github.com/ayumi-hirano/schedcal/internal/repository"
	"github.com/ayumi-hirano/schedcal/internal/session"
)

// Rasterizer turns an appointment into a PNG confirmation card. It is an
// interface so tests can swap out the headless browser.
type Rasterizer func(ctx context.Context, a model.Appointment) ([]byte, error)

type CardHandler struct {
	registry  *session.Registry
	rasterize Rasterizer
}

func NewCardHandler(registry *session.Registry, rasterize Rasterizer) *CardHandler {
	if rasterize == nil {
		rasterize = func(ctx context.Context, a model.Appointment) ([]byte, error) {
			return card.Rasterize(ctx, a, card.RenderOptions{})
		}
	}
	return &CardHandler{registry: registry, rasterize: rasterize}
}

// Render serves the PNG confirmation card for one appointment (?id=). A
// rendering failure is reported as 503 so clients can fall back to the plain
// confirmation text.
func (h *CardHandler) Render(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s, err := h.registry.Get(r.Context(), claims.Sub)
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	appt, err := s.Repo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	png, err := h.rasterize(r.Context(), appt)
	if err != nil {
		http.Error(w, "card rendering unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
