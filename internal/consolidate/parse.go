package consolidate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/grocery/internal/domain"
)

// AsNeeded stands in for a quantity the recipe did not give.
const AsNeeded = "as needed"

// item is the per-ingredient shape the model must return. Pointers let
// us tell a missing key from an empty value.
type item struct {
	Name       *string   `json:"name"`
	Quantity   *string   `json:"quantity"`
	Section    *string   `json:"section"`
	RawSources *[]string `json:"raw_sources"`
}

// stripCodeFence removes ```json ... ``` wrappers that LLMs love to add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}
	return strings.TrimSpace(s)
}

// ExtractArray returns the span from the first '[' to the last ']',
// tolerating prose before and after the array.
func ExtractArray(text string) (string, bool) {
	text = stripCodeFence(text)
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

// Parse validates a model reply and converts it into ingredients. It is
// all-or-nothing: any malformed item fails the whole reply with a
// *domain.ProcessingError and no ingredients are returned.
//
// inputs are the raw lines that were sent; they bound how many records
// may claim the same source text.
func Parse(raw string, sections []string, inputs []domain.RawIngredientLine) ([]domain.NormalizedIngredient, error) {
	fail := func(err error) ([]domain.NormalizedIngredient, error) {
		return nil, &domain.ProcessingError{Raw: raw, Err: err}
	}

	span, ok := ExtractArray(raw)
	if !ok {
		return fail(errors.New("no JSON array in response"))
	}

	var items []item
	dec := json.NewDecoder(bytes.NewReader([]byte(span)))
	if err := dec.Decode(&items); err != nil {
		return fail(fmt.Errorf("invalid JSON: %w", err))
	}
	if len(items) == 0 {
		return fail(errors.New("response contained no ingredients"))
	}

	available := make(map[string]int, len(inputs))
	for _, in := range inputs {
		available[strings.TrimSpace(in.Text)]++
	}
	claimed := make(map[string]int)

	out := make([]domain.NormalizedIngredient, 0, len(items))
	for i, it := range items {
		ing, err := it.normalize(sections)
		if err != nil {
			return fail(fmt.Errorf("item %d: %w", i+1, err))
		}

		seen := make(map[string]bool, len(ing.Sources))
		for _, src := range ing.Sources {
			key := strings.TrimSpace(src)
			if seen[key] {
				continue
			}
			seen[key] = true
			claimed[key]++
			if claimed[key] > max(1, available[key]) {
				return fail(fmt.Errorf("item %d: source %q already used by another item", i+1, src))
			}
		}
		out = append(out, ing)
	}
	return out, nil
}

func (it item) normalize(sections []string) (domain.NormalizedIngredient, error) {
	switch {
	case it.Name == nil || strings.TrimSpace(*it.Name) == "":
		return domain.NormalizedIngredient{}, errors.New("missing name")
	case it.Quantity == nil:
		return domain.NormalizedIngredient{}, errors.New("missing quantity")
	case it.Section == nil || strings.TrimSpace(*it.Section) == "":
		return domain.NormalizedIngredient{}, errors.New("missing section")
	case it.RawSources == nil || len(*it.RawSources) == 0:
		return domain.NormalizedIngredient{}, errors.New("missing raw_sources")
	}

	qty := strings.TrimSpace(*it.Quantity)
	if qty == "" {
		qty = AsNeeded
	}
	return domain.NormalizedIngredient{
		Name:          strings.TrimSpace(*it.Name),
		Quantity:      qty,
		Section:       domain.SectionFor(strings.TrimSpace(*it.Section), sections),
		Sources:       append([]string(nil), *it.RawSources...),
		ConfirmedHave: domain.ConfirmUnknown,
	}, nil
}
