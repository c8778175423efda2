// Package domain defines the core types and interfaces for the grocery
// list builder. All other packages depend on domain; domain depends on
// nothing.
package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Source labels for lines that did not come from a recipe page.
const (
	LabelManual = "[added manually]"
	LabelStaple = "[staple]"
)

// RawIngredientLine is one unprocessed ingredient mention.
type RawIngredientLine struct {
	Text        string `json:"text"`
	SourceLabel string `json:"recipe_title"`
	SourceURL   string `json:"recipe_url"`
}

// RecipeEntry is a scraped recipe owned by a session.
type RecipeEntry struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	IngredientLines []string `json:"raw_ingredients"`
	Scale           float64  `json:"scale"`
}

// UnmarshalJSON defaults a missing or zero scale to 1.
func (r *RecipeEntry) UnmarshalJSON(data []byte) error {
	type alias RecipeEntry
	a := alias{Scale: 1}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Scale <= 0 {
		a.Scale = 1
	}
	*r = RecipeEntry(a)
	return nil
}

// Lines returns the recipe's ingredient lines labelled with its title.
// A scaled recipe prefixes every line with a marker the model can see.
func (r RecipeEntry) Lines() []RawIngredientLine {
	out := make([]RawIngredientLine, 0, len(r.IngredientLines))
	for _, text := range r.IngredientLines {
		if r.Scale != 0 && r.Scale != 1 {
			text = ScaleMarker(r.Scale) + text
		}
		out = append(out, RawIngredientLine{Text: text, SourceLabel: r.Title, SourceURL: r.URL})
	}
	return out
}

// ScaleMarker is the prefix attached to lines from a scaled recipe.
func ScaleMarker(scale float64) string {
	return fmt.Sprintf("[scale x%g] ", scale)
}

// NormalizedIngredient is a consolidated ingredient produced by the
// language model. Only ConfirmedHave changes after creation.
type NormalizedIngredient struct {
	Name          string       `json:"name"`
	Quantity      string       `json:"quantity"`
	Section       string       `json:"section"`
	Sources       []string     `json:"raw_sources"`
	ConfirmedHave Confirmation `json:"confirmed_have"`
}

// Label renders "quantity name" for prompts and checklists.
func (n NormalizedIngredient) Label() string {
	return strings.TrimSpace(n.Quantity + " " + n.Name)
}

// NamedItem is a staple or pantry entry keyed by Name.
type NamedItem struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// Line renders the item as raw ingredient text.
func (n NamedItem) Line() string {
	return strings.TrimSpace(n.Quantity + " " + n.Name)
}

// NormalizeName is the comparison key for ingredient and pantry names.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
