// grocery turns recipe pages into a store-organized shopping checklist.
//
// Usage:
//
//	grocery [--dir d] [--verbose|--quiet] <command>
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/grocery/internal/display"
	"github.com/hammamikhairi/grocery/internal/domain"
	"github.com/hammamikhairi/grocery/internal/lists"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := &app{ui: display.NewUI(os.Stdout)}
	err := a.rootCmd().ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		display.NewUI(os.Stderr).PrintUrgent("Error: " + describe(err))
		os.Exit(1)
	}
}

// rootCmd builds the command tree. Persistent flags land in a.flags and
// dependencies are wired once, before the first subcommand runs.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "grocery",
		Short: "Recipe URLs to a store-organized grocery list",
		Long: `grocery collects recipes and extra items into a shopping session,
consolidates every ingredient line with a language model, asks what you
already have, and writes a checklist grouped by store section.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.welcome(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.config, "config", "", "config file (default <dir>/config.yaml)")
	pf.StringVar(&a.flags.dir, "dir", "", "data directory (default $GROCERY_LISTS_DIR or ~/.grocery_lists)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "enable verbose/debug logging")
	pf.BoolVarP(&a.flags.quiet, "quiet", "q", false, "disable all logging")
	pf.StringVar(&a.flags.logFile, "log-file", "", `file to write logs to (default <dir>/grocery.log, use "stderr" to log to console)`)

	root.AddCommand(
		a.newCmd(),
		a.addCmd(),
		a.showCmd(),
		a.recipeCmd(),
		a.itemCmd(),
		a.scaleCmd(),
		a.processCmd(),
		a.doneCmd(),
		a.listCmd(),
		a.openCmd(),
		a.deleteCmd(),
		a.namedListCmd("staples", "Items added to every new session", func() *lists.Manager { return a.staples }),
		a.namedListCmd("pantry", "Items you always have, skipped during the pantry check", func() *lists.Manager { return a.pantry }),
	)
	return root
}

// welcome prints the banner and where the current session stands.
func (a *app) welcome(cmd *cobra.Command) error {
	a.ui.Println(display.RenderBanner(display.TermWidth()))

	s, err := a.engine.Current(cmd.Context())
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.ui.PrintHint("No active session. Run 'grocery new' to start one.")
	case err != nil:
		return err
	default:
		a.ui.Printf("Current session: %s (%s, %d recipes, %d ingredients)",
			s.ID, s.State(), len(s.Recipes), len(s.ProcessedIngredients))
	}
	a.ui.PrintHint("Run 'grocery --help' for commands.")
	return nil
}

// describe turns a command error into the line shown to the user,
// adding the next step for the common ones.
func describe(err error) string {
	var cfgErr *domain.ConfigError
	switch {
	case errors.Is(err, domain.ErrNoActiveSession):
		return "no active session. Run 'grocery new' to start one."
	case errors.As(err, &cfgErr):
		return cfgErr.Error() + ". Export it or add it to a .env file."
	case errors.Is(err, domain.ErrNoIngredients):
		return "no ingredients found. Run 'grocery add' first."
	}
	return err.Error()
}
