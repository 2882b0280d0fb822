package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayumi-hirano/schedcal/internal/dateutil"
	"github.com/ayumi-hirano/schedcal/internal/model"
	"github.com/ayumi-hirano/schedcal/internal/schedule"
	"github.com/ayumi-hirano/schedcal/internal/session"
)

// WorkingHours is the bookable window and slot granularity shared by every
// identity.
type WorkingHours struct {
	Start           dateutil.Clock
	End             dateutil.Clock
	IntervalMinutes int
}

func (wh WorkingHours) Valid() bool {
	return wh.IntervalMinutes > 0 && wh.Start < wh.End
}

type ScheduleHandler struct {
	registry *session.Registry
	hours    WorkingHours
	now      func() time.Time
}

func NewScheduleHandler(registry *session.Registry, hours WorkingHours) *ScheduleHandler {
	return &ScheduleHandler{registry: registry, hours: hours, now: time.Now}
}

type slotResponse struct {
	Start        string             `json:"start"`
	Status       schedule.Status    `json:"status"`
	Appointment  *model.Appointment `json:"appointment,omitempty"`
	Continuation bool               `json:"continuation,omitempty"`
}

type dayResponse struct {
	Date              string         `json:"date"`
	Unavailable       bool           `json:"unavailable"`
	WorkingHoursValid bool           `json:"working_hours_valid"`
	Slots             []slotResponse `json:"slots"`
}

type searchResponse struct {
	Query   string              `json:"query"`
	Results []model.Appointment `json:"results"`
}

// Day serves the slot grid for one date. With ?q= it instead returns the
// appointments matching the term across all dates, since an active search
// replaces the day list in the schedule view.
func (h *ScheduleHandler) Day(w http.ResponseWriter, r *http.Request) {
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

	if q := r.URL.Query().Get("q"); q != "" {
		results := s.Repo.Search(q)
		if results == nil {
			results = []model.Appointment{}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(searchResponse{Query: q, Results: results})
		return
	}

	date := r.URL.Query().Get("date")
	if _, err := dateutil.ParseDate(date); err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	slots := schedule.ComputeDaySlots(
		date,
		s.Repo.OnDate(date),
		s.Repo.Unavailable(),
		h.hours.Start,
		h.hours.End,
		h.hours.IntervalMinutes,
		h.now(),
	)

	resp := dayResponse{
		Date:              date,
		Unavailable:       s.Repo.IsUnavailable(date),
		WorkingHoursValid: h.hours.Valid(),
		Slots:             make([]slotResponse, 0, len(slots)),
	}
	for _, slot := range slots {
		resp.Slots = append(resp.Slots, slotResponse{
			Start:        slot.Start.String(),
			Status:       slot.Status,
			Appointment:  slot.Appointment,
			Continuation: slot.Continuation,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
