package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ayumi-hirano/schedcal/internal/dateutil"
	"github.com/ayumi-hirano/schedcal/internal/session"
	"github.com/ayumi-hirano/schedcal/internal/view"
)

// ViewHandler exposes the per-session calendar cursor so any client of the
// account sees the same selection, mode and search state.
type ViewHandler struct {
	registry *session.Registry
}

func NewViewHandler(registry *session.Registry) *ViewHandler {
	return &ViewHandler{registry: registry}
}

type viewState struct {
	SelectedDate string    `json:"selected_date"`
	Mode         view.Mode `json:"mode"`
	SearchTerm   string    `json:"search_term"`
}

type navigateRequest struct {
	Direction int `json:"direction"`
}

type selectDateRequest struct {
	Date string `json:"date"`
}

type setModeRequest struct {
	Mode string `json:"mode"`
}

type setSearchRequest struct {
	Term string `json:"term"`
}

func (h *ViewHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
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

func (h *ViewHandler) respondState(w http.ResponseWriter, s *session.Session) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(viewState{
		SelectedDate: dateutil.FormatDate(s.View.SelectedDate()),
		Mode:         s.View.Mode(),
		SearchTerm:   s.View.SearchTerm(),
	})
}

func (h *ViewHandler) State(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respondState(w, s)
}

// Navigate moves to the adjacent month or week. It clears any active search
// term, matching the rule that leaving the period abandons the search.
func (h *ViewHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req navigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Direction != 1 && req.Direction != -1 {
		http.Error(w, "direction must be 1 or -1", http.StatusBadRequest)
		return
	}

	s.View.ChangePeriod(req.Direction)
	h.respondState(w, s)
}

// Select moves the cursor to a specific date, keeping the search term.
func (h *ViewHandler) Select(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req selectDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	d, err := dateutil.ParseDate(req.Date)
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	s.View.SelectDate(d)
	h.respondState(w, s)
}

func (h *ViewHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req setModeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	mode := view.Mode(req.Mode)
	if mode != view.ModeMonth && mode != view.ModeWeek {
		http.Error(w, "mode must be month or week", http.StatusBadRequest)
		return
	}

	s.View.SetMode(mode)
	h.respondState(w, s)
}

func (h *ViewHandler) SetSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req setSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	s.View.SetSearchTerm(req.Term)
	h.respondState(w, s)
}
