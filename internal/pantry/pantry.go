// Package pantry decides which consolidated ingredients the user
// already has: pantry items resolve automatically and the rest are
// confirmed one question at a time.
package pantry

import (
	"context"
	"fmt"

	"github.com/hammamikhairi/grocery/internal/conversation"
	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/logger"
)

// RetryMessage is shown after an unrecognized answer.
const RetryMessage = "Please enter y or n"

// AutoResolve marks every unresolved ingredient whose name is in the
// pantry as already owned. pantry keys must be normalized with
// domain.NormalizeName. Returns how many ingredients changed.
func AutoResolve(ingredients []domain.NormalizedIngredient, pantry map[string]bool) int {
	n := 0
	for i := range ingredients {
		ing := &ingredients[i]
		if ing.ConfirmedHave == domain.ConfirmUnknown && pantry[domain.NormalizeName(ing.Name)] {
			ing.ConfirmedHave = domain.ConfirmHave
			n++
		}
	}
	return n
}

// NewlyHave returns the owned ingredients that are not in the pantry
// yet, in list order. These are the candidates offered for pantry
// addition after a checklist is produced.
func NewlyHave(ingredients []domain.NormalizedIngredient, pantry map[string]bool) []domain.NormalizedIngredient {
	var out []domain.NormalizedIngredient
	for _, ing := range ingredients {
		if ing.ConfirmedHave == domain.ConfirmHave && !pantry[domain.NormalizeName(ing.Name)] {
			out = append(out, ing)
		}
	}
	return out
}

// Question renders the yes/no prompt for one ingredient.
func Question(ing domain.NormalizedIngredient) string {
	return fmt.Sprintf("Do you have %s %s? (y/n)", ing.Quantity, ing.Name)
}

// Confirmer runs the interactive confirmation loop.
type Confirmer struct {
	prompter domain.Prompter
	notifier domain.Notifier
	log      *logger.Logger
}

// NewConfirmer creates a Confirmer. notifier receives the retry message.
func NewConfirmer(prompter domain.Prompter, notifier domain.Notifier, log *logger.Logger) *Confirmer {
	return &Confirmer{
		prompter: prompter,
		notifier: notifier,
		log:      log.Named("pantry"),
	}
}

// Confirm resolves every ingredient in place. Pantry items are resolved
// without asking; each remaining unknown item is asked about until the
// answer is y or n. Items already resolved are never asked about again,
// so running Confirm twice is a no-op. A prompter error stops the loop
// and is returned; answers given so far are kept.
func (c *Confirmer) Confirm(ctx context.Context, ingredients []domain.NormalizedIngredient, pantry map[string]bool) error {
	if n := AutoResolve(ingredients, pantry); n > 0 {
		c.log.Info("%d ingredients resolved from pantry", n)
	}

	for i := range ingredients {
		ing := &ingredients[i]
		if ing.ConfirmedHave.Resolved() {
			continue
		}
		state, err := c.ask(ctx, *ing)
		if err != nil {
			return err
		}
		ing.ConfirmedHave = state
	}
	return nil
}

func (c *Confirmer) ask(ctx context.Context, ing domain.NormalizedIngredient) (domain.Confirmation, error) {
	q := Question(ing)
	for {
		reply, err := c.prompter.Ask(ctx, q)
		if err != nil {
			return domain.ConfirmUnknown, fmt.Errorf("pantry: ask about %s: %w", ing.Name, err)
		}
		switch conversation.ParseAnswer(reply) {
		case conversation.AnswerYes:
			return domain.ConfirmHave, nil
		case conversation.AnswerNo:
			return domain.ConfirmNeedToBuy, nil
		}
		c.log.Debug("unrecognized answer %q", reply)
		if err := c.notifier.Notify(ctx, RetryMessage); err != nil {
			return domain.ConfirmUnknown, err
		}
	}
}
