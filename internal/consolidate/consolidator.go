// Package consolidate turns raw ingredient lines from many recipes into
// one deduplicated, unit-aware ingredient list by way of a language
// model, and defends against whatever the model sends back.
package consolidate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// Compile-time interface check.
var _ domain.Consolidator = (*Consolidator)(nil)

// Option configures the Consolidator.
type Option func(*Consolidator)

// WithSystemPrompt overrides DefaultSystemPrompt. Empty keeps the default.
func WithSystemPrompt(p string) Option {
	return func(c *Consolidator) {
		if strings.TrimSpace(p) != "" {
			c.systemPrompt = p
		}
	}
}

// Consolidator is the single entry point for ingredient consolidation.
type Consolidator struct {
	model        domain.LanguageModel
	systemPrompt string
	log          *logger.Logger
}

// New creates a Consolidator backed by the given model.
func New(model domain.LanguageModel, log *logger.Logger, opts ...Option) *Consolidator {
	c := &Consolidator{
		model:        model,
		systemPrompt: DefaultSystemPrompt,
		log:          log.Named("consolidate"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Consolidate sends every line in a single request and returns the
// normalized ingredients. An empty input is rejected without contacting
// the model. Failures are never retried here.
func (c *Consolidator) Consolidate(ctx context.Context, lines []domain.RawIngredientLine, sections []string) ([]domain.NormalizedIngredient, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyRequest
	}

	user := BuildUserPrompt(lines, sections)
	c.log.Debug("sending %d lines across %d sections", len(lines), len(sections))

	raw, err := c.model.Complete(ctx, c.systemPrompt, user)
	if err != nil {
		return nil, fmt.Errorf("consolidate: model call: %w", err)
	}

	ingredients, err := Parse(raw, sections, lines)
	if err != nil {
		var perr *domain.ProcessingError
		if errors.As(err, &perr) {
			c.log.Error("unusable model reply: %v\nraw: %s", perr.Err, truncate(raw, 2000))
		}
		return nil, err
	}

	c.warnUnclaimed(lines, ingredients)
	c.log.Info("consolidated %d lines into %d ingredients", len(lines), len(ingredients))
	return ingredients, nil
}

// BuildUserPrompt renders the section list and the labelled lines.
func BuildUserPrompt(lines []domain.RawIngredientLine, sections []string) string {
	var b strings.Builder
	b.WriteString("Store sections to use:\n")
	for _, s := range sections {
		fmt.Fprintf(&b, "  - %s\n", s)
	}
	b.WriteString("\nIngredients to process:\n")
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "- %s (from: %s)", l.Text, l.SourceLabel)
	}
	return b.String()
}

// warnUnclaimed logs input lines the model did not echo back verbatim.
// Models sometimes reword sources, so this is a warning, not a failure.
func (c *Consolidator) warnUnclaimed(lines []domain.RawIngredientLine, out []domain.NormalizedIngredient) {
	claimed := make(map[string]bool)
	for _, ing := range out {
		for _, s := range ing.Sources {
			claimed[strings.TrimSpace(s)] = true
		}
	}
	for _, l := range lines {
		if !claimed[strings.TrimSpace(l.Text)] {
			c.log.Warn("line %q not listed in any raw_sources", l.Text)
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
