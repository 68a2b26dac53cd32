package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"site-admin/pkg/editor"
	"site-admin/pkg/list"
	"site-admin/pkg/models"
)

func listOf(s *editor.Session) (*list.Controller, error) {
	if s.Items() == nil {
		return nil, fmt.Errorf("section %s has no list", s.Section().Name)
	}
	return s.Items(), nil
}

func parseIndex(raw string) (int, error) {
	i, err := strconv.Atoi(raw)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid index %q", raw)
	}
	return i, nil
}

func requiredFields(s *editor.Session) []string {
	if s.Section().List == nil {
		return nil
	}
	return s.Section().List.Required
}

func NewItemsCmd(app *App) *cobra.Command {
	var (
		search  string
		desc    bool
		page    int
		perPage int
	)

	cmd := &cobra.Command{
		Use:   "items <section>",
		Short: "List a section's items",
		Long: `List the items of a section's repeatable list.

Incomplete items (missing a required field) are marked with "!".

Examples:
  site-admin items faq
  site-admin items faq --search pricing
  site-admin items testimonials --desc --page 2 --per-page 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			items, err := listOf(s)
			if err != nil {
				return err
			}

			items.SetSearch(search)
			if desc {
				items.SetSortOrder(list.SortDesc)
			}
			visible, pages := items.Page(page, perPage)

			positions := make(map[string]int, items.Len())
			for i, it := range items.Items() {
				positions[it.ID] = i
			}

			required := requiredFields(s)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tID\t\tFIELDS")
			for _, it := range visible {
				mark := ""
				if !list.IsComplete(it, required) {
					mark = "!"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", positions[it.ID], it.ID, mark, summarize(it))
			}
			done, total := items.Progress(required)
			fmt.Fprintf(w, "\npage %d/%d, complete %d/%d, limit %d\n", max(page, 1), pages, done, total, items.Limit())
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Only items containing this text")
	cmd.Flags().BoolVar(&desc, "desc", false, "Sort descending")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&perPage, "per-page", 20, "Items per page")
	return cmd
}

// summarize renders fields as key=value in key order, truncating long values.
func summarize(it list.Item) string {
	keys := make([]string, 0, len(it.Fields))
	for k := range it.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := fmt.Sprint(it.Fields[k])
		if r := []rune(v); len(r) > 40 {
			v = string(r[:37]) + "..."
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, " ")
}

func NewAddItemCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "add-item <section> [field=value...]",
		Short: "Append an item built from the section template and save",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			items, err := listOf(s)
			if err != nil {
				return err
			}

			// a fresh list holds one blank row; fill it instead of appending
			index := 0
			blank := s.ID() == "" && items.Len() == 1
			if !blank {
				if _, ok := items.Append(nil); !ok {
					return fmt.Errorf("limit reached: %s allows %d items", s.Section().Name, items.Limit())
				}
				index = items.Len() - 1
			}

			for _, kv := range args[1:] {
				field, raw, ok := strings.Cut(kv, "=")
				if !ok || field == "" {
					return fmt.Errorf("expected field=value, got %q", kv)
				}
				items.UpdateField(index, field, parseValue(raw))
			}
			return submit(cmd, s)
		},
	}
}

func NewRemoveItemCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove-item <section> <index>",
		Short: "Remove one item and save",
		Long: `Remove the item at index and save. Removing the last item resets it
to the empty template, so a list always keeps one row.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.RequestDelete(models.DeleteSingle, index, ""); err != nil {
				return err
			}
			if err := s.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			return submit(cmd, s)
		},
	}
}

func NewMoveItemCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move-item <section> <from> <to>",
		Short: "Move an item to a new position and save",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseIndex(args[1])
			if err != nil {
				return err
			}
			to, err := parseIndex(args[2])
			if err != nil {
				return err
			}
			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()
			items, err := listOf(s)
			if err != nil {
				return err
			}
			if from >= items.Len() || to >= items.Len() {
				return fmt.Errorf("index out of range: list has %d items", items.Len())
			}

			items.Reorder(from, to)
			return submit(cmd, s)
		},
	}
}

func NewClearCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear <section>",
		Short: "Delete a section's stored record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.RequestDelete(models.DeleteAll, 0, s.Section().Label); err != nil {
				return err
			}
			if !yes {
				s.CancelDelete()
				return errors.New("refusing to clear without --yes")
			}
			if err := s.ConfirmDelete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", s.Section().Name, s.Status().Message)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the delete")
	return cmd
}
