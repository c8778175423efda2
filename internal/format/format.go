// Package format renders ingredients as a plain-text checklist grouped
// by store section.
package format

import (
	"strings"

	"github.com/hammamikhairi/grocery/internal/domain"
)

// Checklist groups ingredients by section and renders one block per
// non-empty section in the enumerated order:
//
//	Produce
//	-------
//	[ ] 5 cloves garlic clove
//
// Unlisted sections fall into the catch-all block, which comes last when
// the enumerated list does not name it. Within a block, input order is
// kept.
func Checklist(ingredients []domain.NormalizedIngredient, sections []string) string {
	buckets := make(map[string][]domain.NormalizedIngredient)
	for _, ing := range ingredients {
		s := domain.SectionFor(ing.Section, sections)
		buckets[s] = append(buckets[s], ing)
	}

	var blocks []string
	for _, section := range domain.SectionOrder(sections) {
		items := buckets[section]
		if len(items) == 0 {
			continue
		}
		var b strings.Builder
		b.WriteString(section)
		b.WriteByte('\n')
		b.WriteString(strings.Repeat("-", len(section)))
		for _, ing := range items {
			b.WriteString("\n[ ] ")
			b.WriteString(ing.Label())
		}
		blocks = append(blocks, b.String())
	}
	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// NeedToBuy keeps only the ingredients the user confirmed they lack.
func NeedToBuy(ingredients []domain.NormalizedIngredient) []domain.NormalizedIngredient {
	var out []domain.NormalizedIngredient
	for _, ing := range ingredients {
		if ing.ConfirmedHave == domain.ConfirmNeedToBuy {
			out = append(out, ing)
		}
	}
	return out
}
