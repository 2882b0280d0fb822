package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/ayumi-hirano/schedcal/internal/dateutil"
	"github.com/ayumi-hirano/schedcal/internal/model"
	"github.com/ayumi-hirano/schedcal/internal/repository"
	"github.com/ayumi-hirano/schedcal/internal/session"
)

type AppointmentsHandler struct {
	registry *session.Registry
}

func NewAppointmentsHandler(registry *session.Registry) *AppointmentsHandler {
	return &AppointmentsHandler{registry: registry}
}

type appointmentRequest struct {
	ID              string `json:"id,omitempty"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Category        string `json:"category"`
	DisplayName     string `json:"display_name"`
	Notes           string `json:"notes,omitempty"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

type toggleUnavailableRequest struct {
	Date string `json:"date"`
}

type toggleUnavailableResponse struct {
	Date        string `json:"date"`
	Unavailable bool   `json:"unavailable"`
}

func (req *appointmentRequest) validate() string {
	req.Date = strings.TrimSpace(req.Date)
	req.Time = strings.TrimSpace(req.Time)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if _, err := dateutil.ParseDate(req.Date); err != nil {
		return "date must be YYYY-MM-DD"
	}
	if _, err := dateutil.ParseClock(req.Time); err != nil {
		return "time must be HH:MM"
	}
	if req.DurationMinutes <= 0 {
		return "duration_minutes must be positive"
	}
	if req.DisplayName == "" {
		return "display_name required"
	}
	// The category set is open: unknown values are stored as-is and rendered
	// with neutral styling.
	if strings.TrimSpace(req.Category) == "" {
		return "category required"
	}
	return ""
}

func (req *appointmentRequest) toModel() model.Appointment {
	return model.Appointment{
		ID:              req.ID,
		Date:            req.Date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Category:        model.Category(req.Category),
		DisplayName:     req.DisplayName,
		Notes:           req.Notes,
	}
}

func (h *AppointmentsHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	s, err := h.registry.Get(r.Context(), claims.Sub)
	if err != nil {
		http.Error(w, "failed to load session", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}

// List returns the identity's appointments, optionally restricted to one
// date (?date=) or filtered by a search term (?q=).
func (h *AppointmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var appts []model.Appointment
	switch {
	case r.URL.Query().Get("q") != "":
		appts = s.Repo.Search(r.URL.Query().Get("q"))
	case r.URL.Query().Get("date") != "":
		date := r.URL.Query().Get("date")
		if _, err := dateutil.ParseDate(date); err != nil {
			http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		appts = s.Repo.OnDate(date)
	default:
		appts = s.Repo.All()
	}
	if appts == nil {
		appts = []model.Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(appts)
}

func (h *AppointmentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	// New bookings are refused on blocked dates; existing appointments on a
	// date that was blocked afterwards keep working through Update.
	if s.Repo.IsUnavailable(req.Date) {
		http.Error(w, "date is marked unavailable", http.StatusUnprocessableEntity)
		return
	}

	created := s.Repo.Add(r.Context(), req.toModel())

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(created)
}

func (h *AppointmentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	updated := req.toModel()
	if err := s.Repo.Update(r.Context(), updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(updated)
}

// Delete removes an appointment by id. Deleting an id that is already gone
// still reports success, so retries are harmless.
func (h *AppointmentsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		http.Error(w, "id required", http.StatusBadRequest)
		return
	}

	if err := s.Repo.Remove(r.Context(), req.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "failed to delete appointment", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleUnavailable flips a date's blocked flag. Appointments already on the
// date are untouched.
func (h *AppointmentsHandler) ToggleUnavailable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req toggleUnavailableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Date = strings.TrimSpace(req.Date)
	if _, err := dateutil.ParseDate(req.Date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	unavailable := s.Repo.ToggleUnavailable(r.Context(), req.Date)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toggleUnavailableResponse{
		Date:        req.Date,
		Unavailable: unavailable,
	})
}
