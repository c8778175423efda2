package domain

import (
	"encoding/json"
	"time"
)

// SessionVersion is written into every persisted session record.
const SessionVersion = 1

// Session is one shopping trip, from creation to the finalized list.
type Session struct {
	Version              int                    `json:"version"`
	ID                   string                 `json:"id"`
	Name                 string                 `json:"name,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
	Recipes              []RecipeEntry          `json:"recipes"`
	ExtraItems           []RawIngredientLine    `json:"extra_items"`
	ProcessedIngredients []NormalizedIngredient `json:"processed_ingredients"`
	Finalized            bool                   `json:"finalized"`
	OutputPath           string                 `json:"output_path,omitempty"`
}

// UnmarshalJSON tolerates records written before extra_items existed.
func (s *Session) UnmarshalJSON(data []byte) error {
	type alias Session
	a := alias{Version: SessionVersion}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Recipes == nil {
		a.Recipes = []RecipeEntry{}
	}
	if a.ExtraItems == nil {
		a.ExtraItems = []RawIngredientLine{}
	}
	if a.ProcessedIngredients == nil {
		a.ProcessedIngredients = []NormalizedIngredient{}
	}
	*s = Session(a)
	return nil
}

// State returns where the session is in its lifecycle.
func (s *Session) State() SessionState {
	switch {
	case s.Finalized:
		return SessionFinalized
	case len(s.Recipes) == 0 && len(s.ExtraItems) == 0:
		return SessionNew
	default:
		return SessionAccumulating
	}
}

// RawLines returns every recipe line followed by every extra item, in
// the order they are sent for consolidation.
func (s *Session) RawLines() []RawIngredientLine {
	var out []RawIngredientLine
	for _, r := range s.Recipes {
		out = append(out, r.Lines()...)
	}
	out = append(out, s.ExtraItems...)
	return out
}

// Pending returns the ingredients still awaiting confirmation.
func (s *Session) Pending() []NormalizedIngredient {
	var out []NormalizedIngredient
	for _, ing := range s.ProcessedIngredients {
		if !ing.ConfirmedHave.Resolved() {
			out = append(out, ing)
		}
	}
	return out
}

// SessionState tracks the lifecycle of a grocery session.
type SessionState int

const (
	SessionNew SessionState = iota
	SessionAccumulating
	SessionFinalized
)

// String returns a human-readable session state.
func (s SessionState) String() string {
	switch s {
	case SessionNew:
		return "new"
	case SessionAccumulating:
		return "in progress"
	case SessionFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}
