package repository

import (
	"strings"

	"github.com/ayumi-hirano/schedcal/internal/model"
)

// MatchesSearch is a case-insensitive substring test against the display name
// and notes. An empty term never matches: it means search mode is off and
// callers filter by date instead.
func MatchesSearch(a model.Appointment, term string) bool {
	term = strings.ToLower(term)
	if term == "" {
		return false
	}
	return strings.Contains(strings.ToLower(a.DisplayName), term) ||
		strings.Contains(strings.ToLower(a.Notes), term)
}
