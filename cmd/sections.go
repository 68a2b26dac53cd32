package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewSectionsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List configured sections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.sections()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLABEL\tENDPOINT\tLIST")
			for _, s := range cfg.Sections {
				listInfo := "-"
				if s.IsForm() {
					listInfo = "(values)"
				} else if s.List != nil {
					listInfo = s.List.Path
				}
				fmt.Fprintf(w, "%s\t%s\t/%s/%s/%s\t%s\n", s.Name, s.Label, s.Subtype, s.Mode, s.Key, listInfo)
			}
			fmt.Fprintf(w, "\nplan: %s\n", planLabel(app.plan(cfg)))
			return w.Flush()
		},
	}
}

func planLabel(plan string) string {
	if plan == "" {
		return "default"
	}
	return plan
}

func NewShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <section>",
		Short: "Print a section's values, merged with its defaults",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			out := cmd.OutOrStdout()
			id := s.ID()
			if id == "" {
				id = "(not saved)"
			}
			fmt.Fprintf(out, "# %s %s\n", s.Section().Name, id)
			if err := printJSON(out, s.Values()); err != nil {
				return err
			}
			if items := s.Items(); items != nil && s.Section().List != nil {
				done, total := items.Progress(s.Section().List.Required)
				fmt.Fprintf(out, "# items complete: %d/%d (limit %d)\n", done, total, items.Limit())
			}
			return nil
		},
	}
}
