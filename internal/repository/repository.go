// Package repository owns one identity's appointment collection and
// unavailable-date set, kept sorted in memory and written through to the
// key-value store on every mutation.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/ayumi-hirano/schedcal/internal/model"
	"github.com/ayumi-hirano/schedcal/libs/kv"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("appointment not found")

const (
	appointmentsKeyPrefix = "appointments:"
	unavailableKeyPrefix  = "unavailable:"
)

type Repository struct {
	identity string
	store    kv.Store
	logger   *slog.Logger

	mu           sync.Mutex
	appointments []model.Appointment
	unavailable  []string
}

// Load reads the identity's persisted state. A missing key means an empty
// collection; a corrupted value is logged and defaulted to empty rather than
// failing the whole session.
func Load(ctx context.Context, store kv.Store, identity string, logger *slog.Logger) (*Repository, error) {
	r := &Repository{identity: identity, store: store, logger: logger}

	raw, err := store.Get(ctx, appointmentsKeyPrefix+identity)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &r.appointments); err != nil {
			logger.Warn("corrupted appointment data, starting empty", "identity", identity, "err", err)
			r.appointments = nil
		}
	case errors.Is(err, kv.ErrNotFound):
	default:
		return nil, err
	}

	raw, err = store.Get(ctx, unavailableKeyPrefix+identity)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &r.unavailable); err != nil {
			logger.Warn("corrupted unavailable-date data, starting empty", "identity", identity, "err", err)
			r.unavailable = nil
		}
	case errors.Is(err, kv.ErrNotFound):
	default:
		return nil, err
	}

	r.sortLocked()
	return r, nil
}

// Add assigns a fresh id, inserts, re-sorts and persists. The caller is
// responsible for validation; Add itself never fails.
func (r *Repository) Add(ctx context.Context, a model.Appointment) model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.ID = uuid.NewString()
	r.appointments = append(r.appointments, a)
	r.sortLocked()
	r.persistAppointmentsLocked(ctx)
	return a
}

// Update replaces the record with a matching id and re-sorts. Unlike the
// original UI, a missing id is reported as ErrNotFound instead of a silent
// no-op.
func (r *Repository) Update(ctx context.Context, a model.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.appointments {
		if r.appointments[i].ID == a.ID {
			r.appointments[i] = a
			r.sortLocked()
			r.persistAppointmentsLocked(ctx)
			return nil
		}
	}
	return ErrNotFound
}

func (r *Repository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.appointments {
		if r.appointments[i].ID == id {
			r.appointments = append(r.appointments[:i], r.appointments[i+1:]...)
			r.persistAppointmentsLocked(ctx)
			return nil
		}
	}
	return ErrNotFound
}

// ToggleUnavailable flips the date's membership and reports the new state.
func (r *Repository) ToggleUnavailable(ctx context.Context, date string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, d := range r.unavailable {
		if d == date {
			r.unavailable = append(r.unavailable[:i], r.unavailable[i+1:]...)
			r.persistUnavailableLocked(ctx)
			return false
		}
	}
	r.unavailable = append(r.unavailable, date)
	r.persistUnavailableLocked(ctx)
	return true
}

func (r *Repository) IsUnavailable(date string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.unavailable {
		if d == date {
			return true
		}
	}
	return false
}

func (r *Repository) Get(id string) (model.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.appointments {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Appointment{}, ErrNotFound
}

// All returns the full sorted collection.
func (r *Repository) All() []model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Appointment(nil), r.appointments...)
}

// OnDate returns the day's appointments in time order.
func (r *Repository) OnDate(date string) []model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Appointment
	for _, a := range r.appointments {
		if a.Date == date {
			out = append(out, a)
		}
	}
	return out
}

// Search returns appointments matching the free-text term across all dates.
func (r *Repository) Search(term string) []model.Appointment {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Appointment
	for _, a := range r.appointments {
		if MatchesSearch(a, term) {
			out = append(out, a)
		}
	}
	return out
}

func (r *Repository) Unavailable() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.unavailable...)
}

func (r *Repository) sortLocked() {
	sort.SliceStable(r.appointments, func(i, j int) bool {
		return r.appointments[i].SortKey() < r.appointments[j].SortKey()
	})
}

// Persistence is best-effort: a failed write keeps the in-memory state and is
// only logged. An empty collection deletes the key so stale data from an
// earlier session cannot resurface.
func (r *Repository) persistAppointmentsLocked(ctx context.Context) {
	key := appointmentsKeyPrefix + r.identity
	if len(r.appointments) == 0 {
		if err := r.store.Delete(ctx, key); err != nil {
			r.logger.Warn("failed to clear appointments", "identity", r.identity, "err", err)
		}
		return
	}
	raw, err := json.Marshal(r.appointments)
	if err != nil {
		r.logger.Error("failed to serialize appointments", "identity", r.identity, "err", err)
		return
	}
	if err := r.store.Set(ctx, key, raw, 0); err != nil {
		r.logger.Warn("failed to persist appointments", "identity", r.identity, "err", err)
	}
}

func (r *Repository) persistUnavailableLocked(ctx context.Context) {
	key := unavailableKeyPrefix + r.identity
	if len(r.unavailable) == 0 {
		if err := r.store.Delete(ctx, key); err != nil {
			r.logger.Warn("failed to clear unavailable dates", "identity", r.identity, "err", err)
		}
		return
	}
	raw, err := json.Marshal(r.unavailable)
	if err != nil {
		r.logger.Error("failed to serialize unavailable dates", "identity", r.identity, "err", err)
		return
	}
	if err := r.store.Set(ctx, key, raw, 0); err != nil {
		r.logger.Warn("failed to persist unavailable dates", "identity", r.identity, "err", err)
	}
}
