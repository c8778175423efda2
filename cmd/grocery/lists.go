package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/grocery/internal/display"
	"github.com/hammamikhairi/grocery/internal/lists"
)

// namedListCmd builds the add/rm/list commands for staples or pantry.
// get is called at run time, after wiring.
func (a *app) namedListCmd(kind, short string, get func() *lists.Manager) *cobra.Command {
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
	}

	var qty string
	add := &cobra.Command{
		Use:   "add <name...>",
		Short: fmt.Sprintf("Add an item to %s", kind),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			added, err := get().Add(cmd.Context(), name, qty)
			if err != nil {
				return err
			}
			if added {
				a.ui.PrintSuccess(fmt.Sprintf("Added %s to %s", name, kind))
			} else {
				a.ui.PrintHint(fmt.Sprintf("%s is already in %s", name, kind))
			}
			return nil
		},
	}
	add.Flags().StringVar(&qty, "qty", "", "quantity, e.g. \"2 lb\"")

	rm := &cobra.Command{
		Use:   "rm <name...>",
		Short: fmt.Sprintf("Remove an item from %s", kind),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.Join(args, " ")
			removed, err := get().Remove(cmd.Context(), name)
			if err != nil {
				return err
			}
			if removed {
				a.ui.PrintSuccess(fmt.Sprintf("Removed %s from %s", name, kind))
			} else {
				a.ui.PrintHint(fmt.Sprintf("%s is not in %s", name, kind))
			}
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %s", kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := get().List(cmd.Context())
			if err != nil {
				return err
			}
			if len(items) == 0 {
				a.ui.PrintHint(fmt.Sprintf("No %s yet.", kind))
				return nil
			}
			a.ui.Println(display.NamedItems(items))
			return nil
		},
	}

	cmd.AddCommand(add, rm, list)
	return cmd
}
