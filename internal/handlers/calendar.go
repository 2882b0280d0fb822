package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayumi-hirano/schedcal/internal/dateutil"
	"github.com/ayumi-hirano/schedcal/internal/session"
	"github.com/ayumi-hirano/schedcal/internal/view"
)

const monthAnchorLayout = "2006-01"

type CalendarHandler struct {
	registry *session.Registry
}

func NewCalendarHandler(registry *session.Registry) *CalendarHandler {
	return &CalendarHandler{registry: registry}
}

type calendarResponse struct {
	Anchor string            `json:"anchor"`
	Days   []view.DaySummary `json:"days"`
}

func (h *CalendarHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
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

// Month summarizes every day of the anchor month (?anchor=YYYY-MM) for grid
// rendering.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	anchor, err := time.Parse(monthAnchorLayout, r.URL.Query().Get("anchor"))
	if err != nil {
		http.Error(w, "anchor must be YYYY-MM", http.StatusBadRequest)
		return
	}

	h.respond(w, r.URL.Query().Get("anchor"), view.MonthDays(anchor), s)
}

// Week summarizes the Sunday-to-Saturday week containing the anchor date
// (?anchor=YYYY-MM-DD).
func (h *CalendarHandler) Week(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	anchor, err := dateutil.ParseDate(r.URL.Query().Get("anchor"))
	if err != nil {
		http.Error(w, "anchor must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	h.respond(w, r.URL.Query().Get("anchor"), view.WeekDays(anchor), s)
}

func (h *CalendarHandler) respond(w http.ResponseWriter, anchor string, days []time.Time, s *session.Session) {
	resp := calendarResponse{Anchor: anchor, Days: make([]view.DaySummary, 0, len(days))}
	for _, d := range days {
		date := dateutil.FormatDate(d)
		resp.Days = append(resp.Days, view.Summarize(date, s.Repo.OnDate(date), s.Repo.IsUnavailable(date)))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
