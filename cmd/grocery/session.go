package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/grocery/internal/conversation"
	"github.com/hammamikhairi/grocery/internal/display"
	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/pantry"
)

// UnknownPageURL labels a saved page when the user gives no URL.
const UnknownPageURL = "https://unknown"

// ── Lifecycle ────────────────────────────────────────────────────

func (a *app) newCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Start a new grocery list session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.engine.New(cmd.Context(), name)
			if err != nil {
				return err
			}
			label := s.ID
			if s.Name != "" {
				label = fmt.Sprintf("'%s'", s.Name)
			}
			a.ui.PrintSuccess("Started session: " + label)
			if n := len(s.ExtraItems); n > 0 {
				a.ui.PrintHint(fmt.Sprintf("Added %d staple(s).", n))
			}
			a.ui.PrintHint("Run 'grocery add' to add recipes.")
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "optional name for this shopping trip")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all grocery list sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := a.engine.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				a.ui.Println("No sessions found. Run 'grocery new' to start.")
				return nil
			}
			a.ui.Println(display.SessionTable(sessions))
			return nil
		},
	}
}

func (a *app) openCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "open [id]",
		Short: "Re-open a past session to add recipes or edit",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				picked, err := a.pickSession(ctx)
				if err != nil || picked == "" {
					return err
				}
				id = picked
			}

			s, err := a.engine.Open(ctx, id)
			if err != nil {
				return err
			}
			a.ui.PrintSuccess("Opened session: " + s.ID)
			a.ui.PrintHint("Run 'grocery add' to add more recipes, or 'grocery done' to finalize.")
			return nil
		},
	}
}

// pickSession lists sessions and asks for an ID or a 1-based row number.
func (a *app) pickSession(ctx context.Context) (string, error) {
	sessions, err := a.engine.List(ctx)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		a.ui.Println("No sessions found.")
		return "", nil
	}
	a.ui.Println(display.SessionTable(sessions))

	answer, err := a.prompter.Ask(ctx, "Session ID to open:")
	if err != nil {
		return "", err
	}
	answer = strings.TrimSpace(answer)
	if i, err := conversation.ParseIndex(answer); err == nil && i >= 0 && i < len(sessions) {
		return sessions[i].ID, nil
	}
	return answer, nil
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.engine.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			a.ui.PrintSuccess("Deleted session: " + args[0])
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.engine.Current(cmd.Context())
			if err != nil {
				return err
			}
			a.ui.Println(display.SessionSummary(s))
			return nil
		},
	}
}

// ── Recipes ──────────────────────────────────────────────────────

func (a *app) addCmd() *cobra.Command {
	var htmlFile string
	cmd := &cobra.Command{
		Use:   "add [urls...]",
		Short: "Add recipe URLs to the current session",
		Long: `Fetch recipe pages and add their ingredients to the current session.

With no URLs, prompts for one URL at a time; an empty line finishes.
For paywalled pages, save the page and pass it with --html.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireModel(); err != nil {
				return err
			}
			s, err := a.engine.Current(ctx)
			if err != nil {
				return err
			}

			var recipes []domain.RecipeEntry
			if htmlFile != "" {
				if len(args) > 1 {
					return fmt.Errorf("--html takes at most one URL, got %d", len(args))
				}
				r, err := a.recipeFromFile(ctx, htmlFile, args)
				if err != nil {
					return err
				}
				recipes = append(recipes, *r)
			} else {
				recipes, err = a.fetchRecipes(ctx, args)
				if err != nil {
					return err
				}
			}

			if len(recipes) == 0 {
				a.ui.Println("No recipes added.")
				return nil
			}
			before := len(s.Recipes)
			err = a.engine.AddRecipes(ctx, s, recipes...)
			return a.reportProcessed(s, len(s.Recipes) > before, err)
		},
	}
	cmd.Flags().StringVar(&htmlFile, "html", "", "path to a saved HTML file (for paywalled pages)")
	return cmd
}

// fetchRecipes fetches every URL in urls, or prompts for URLs until an
// empty line when urls is empty. A page that fails is reported and
// skipped.
func (a *app) fetchRecipes(ctx context.Context, urls []string) ([]domain.RecipeEntry, error) {
	interactive := len(urls) == 0
	if interactive {
		a.ui.PrintHeading("Add recipes")
		a.ui.PrintHint("Press Enter with no URL to finish.")
	}

	var out []domain.RecipeEntry
	for i := 0; ; i++ {
		var url string
		if interactive {
			answer, err := a.prompter.Ask(ctx, "Recipe URL:")
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, err
			}
			if url = strings.TrimSpace(answer); url == "" {
				break
			}
		} else {
			if i >= len(urls) {
				break
			}
			url = urls[i]
		}

		r, err := a.source.Get(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.ui.PrintFailure(err.Error())
			continue
		}
		a.ui.PrintSuccess(fmt.Sprintf("%s (%d ingredients)", r.Title, len(r.IngredientLines)))
		out = append(out, *r)
	}
	return out, nil
}

// recipeFromFile scrapes a saved page. The reference URL comes from
// args or a prompt.
func (a *app) recipeFromFile(ctx context.Context, path string, args []string) (*domain.RecipeEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	url := UnknownPageURL
	if len(args) == 1 {
		url = args[0]
	} else {
		answer, err := a.prompter.Ask(ctx, "URL for this page (for reference):")
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if answer = strings.TrimSpace(answer); answer != "" {
			url = answer
		}
	}

	r, err := a.source.FromHTML(string(data), url)
	if err != nil {
		return nil, err
	}
	a.ui.PrintSuccess(fmt.Sprintf("%s (%d ingredients)", r.Title, len(r.IngredientLines)))
	return r, nil
}

func (a *app) recipeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recipe",
		Short: "List or remove recipes in the current session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List recipes with their numbers",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := a.engine.Current(cmd.Context())
				if err != nil {
					return err
				}
				if len(s.Recipes) == 0 {
					a.ui.PrintHint("No recipes yet. Run 'grocery add' to add some.")
					return nil
				}
				for i, r := range s.Recipes {
					scale := ""
					if r.Scale != 1 {
						scale = fmt.Sprintf(" x%g", r.Scale)
					}
					a.ui.Printf("%d. %s%s (%d ingredients)", i+1, r.Title, scale, len(r.IngredientLines))
					a.ui.PrintHint("   " + r.URL)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "rm <n>",
			Short: "Remove recipe number n",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				idx, err := conversation.ParseIndex(args[0])
				if err != nil {
					return err
				}
				if err := a.requireModel(); err != nil {
					return err
				}
				s, err := a.engine.Current(ctx)
				if err != nil {
					return err
				}
				before := len(s.Recipes)
				removed, err := a.engine.RemoveRecipe(ctx, s, idx)
				applied := len(s.Recipes) < before
				if applied {
					a.ui.PrintSuccess("Removed " + removed.Title)
				}
				return a.reportProcessed(s, applied, err)
			},
		},
	)
	return cmd
}

func (a *app) scaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scale <n> <factor>",
		Short: "Make recipe number n factor times, e.g. 'scale 1 2' or 'scale 2 0.5'",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := conversation.ParseIndex(args[0])
			if err != nil {
				return err
			}
			factor, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("scale factor %q is not a number", args[1])
			}
			if err := a.requireModel(); err != nil {
				return err
			}
			s, err := a.engine.Current(ctx)
			if err != nil {
				return err
			}
			err = a.engine.SetScale(ctx, s, idx, factor)
			applied := idx >= 0 && idx < len(s.Recipes) && s.Recipes[idx].Scale == factor
			if applied {
				a.ui.PrintSuccess(fmt.Sprintf("%s scaled x%g", s.Recipes[idx].Title, factor))
			}
			return a.reportProcessed(s, applied, err)
		},
	}
}

// ── Extra items ──────────────────────────────────────────────────

func (a *app) itemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Add, list or remove extra items in the current session",
	}

	var qty string
	add := &cobra.Command{
		Use:   "add <name...>",
		Short: "Add an item that is not part of any recipe",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireModel(); err != nil {
				return err
			}
			s, err := a.engine.Current(ctx)
			if err != nil {
				return err
			}
			before := len(s.ExtraItems)
			err = a.engine.AddItem(ctx, s, strings.Join(args, " "), qty)
			applied := len(s.ExtraItems) > before
			if applied {
				a.ui.PrintSuccess("Added " + s.ExtraItems[len(s.ExtraItems)-1].Text)
			}
			return a.reportProcessed(s, applied, err)
		},
	}
	add.Flags().StringVar(&qty, "qty", "", "quantity, e.g. \"1 dozen\"")

	list := &cobra.Command{
		Use:   "list",
		Short: "List extra items with their numbers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.engine.Current(cmd.Context())
			if err != nil {
				return err
			}
			if len(s.ExtraItems) == 0 {
				a.ui.PrintHint("No extra items.")
				return nil
			}
			for i, it := range s.ExtraItems {
				a.ui.Printf("%d. %s  %s", i+1, it.Text, it.SourceLabel)
			}
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <n>",
		Short: "Remove extra item number n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			idx, err := conversation.ParseIndex(args[0])
			if err != nil {
				return err
			}
			if err := a.requireModel(); err != nil {
				return err
			}
			s, err := a.engine.Current(ctx)
			if err != nil {
				return err
			}
			before := len(s.ExtraItems)
			removed, err := a.engine.RemoveItem(ctx, s, idx)
			applied := len(s.ExtraItems) < before
			if applied {
				a.ui.PrintSuccess("Removed " + removed.Text)
			}
			return a.reportProcessed(s, applied, err)
		},
	}

	cmd.AddCommand(add, list, rm)
	return cmd
}

// ── Processing ───────────────────────────────────────────────────

func (a *app) processCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "process",
		Short: "Re-run ingredient consolidation for the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := a.requireModel(); err != nil {
				return err
			}
			s, err := a.engine.Current(ctx)
			if err != nil {
				return err
			}
			if s.Finalized {
				return fmt.Errorf("%w: open %s to edit it", domain.ErrFinalized, s.ID)
			}
			return a.reportProcessed(s, false, a.engine.Reprocess(ctx, s))
		},
	}
}

// reportProcessed prints the consolidation outcome after a mutation.
// applied tells whether the edit itself was saved before err happened.
func (a *app) reportProcessed(s *domain.Session, applied bool, err error) error {
	if err != nil {
		var perr *domain.ProcessingError
		if errors.As(err, &perr) {
			a.log.Debug("model reply: %s", perr.Raw)
		}
		if applied {
			return fmt.Errorf("%w (your changes were saved; run 'grocery process' to retry)", err)
		}
		return err
	}

	if n := len(s.ProcessedIngredients); n > 0 {
		a.ui.PrintSuccess(fmt.Sprintf("Consolidated to %d ingredients.", n))
		a.ui.PrintHint("Run 'grocery done' when you're ready to build your list.")
	} else {
		a.ui.PrintHint("No ingredients left in this session.")
	}
	return nil
}

// ── Finalization ─────────────────────────────────────────────────

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done",
		Short: "Run the pantry check and write the final grocery list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.engine.Current(ctx)
			if err != nil {
				return err
			}
			if len(s.ProcessedIngredients) == 0 {
				return domain.ErrNoIngredients
			}
			have, err := a.pantry.Names(ctx)
			if err != nil {
				return err
			}

			toCheck := 0
			for _, ing := range s.ProcessedIngredients {
				if !ing.ConfirmedHave.Resolved() && !have[domain.NormalizeName(ing.Name)] {
					toCheck++
				}
			}
			if toCheck > 0 {
				a.ui.PrintHeading(fmt.Sprintf("Pantry check: %d ingredient(s) to confirm", toCheck))
			}

			confirmer := pantry.NewConfirmer(a.prompter, a.notifier, a.log)
			res, err := a.engine.Done(ctx, s, confirmer, have, a.cfg.DataDir)
			if err != nil {
				return err
			}

			a.ui.Println()
			a.ui.PrintHeading(fmt.Sprintf("%d items to buy.", len(res.NeedToBuy)))
			a.ui.Println()
			a.ui.PrintChecklist(res.Checklist)
			a.ui.Println()
			a.ui.PrintHint("Saved to " + res.Path)

			return a.offerPantry(ctx, s, have)
		},
	}
}

// offerPantry asks which of the items the user already had should be
// remembered in the pantry.
func (a *app) offerPantry(ctx context.Context, s *domain.Session, have map[string]bool) error {
	candidates := pantry.NewlyHave(s.ProcessedIngredients, have)
	if len(candidates) == 0 {
		return nil
	}

	a.ui.Println()
	a.ui.PrintHeading("You already had:")
	for i, c := range candidates {
		a.ui.Printf("  %d. %s", i+1, c.Name)
	}

	for {
		answer, err := a.prompter.Ask(ctx, "Add any to your pantry? Numbers (e.g. 1 3), 'all', or blank to skip:")
		if errors.Is(err, io.EOF) || errors.Is(err, display.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}
		picked, err := conversation.ParseSelection(answer, len(candidates))
		if err != nil {
			if nerr := a.notifier.NotifyUrgent(ctx, err.Error()); nerr != nil {
				return nerr
			}
			continue
		}
		for _, i := range picked {
			added, err := a.pantry.Add(ctx, candidates[i].Name, "")
			if err != nil {
				return err
			}
			if added {
				a.ui.PrintSuccess("Added " + candidates[i].Name + " to pantry")
			}
		}
		return nil
	}
}
