package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"site-admin/pkg/staging"
)

func NewSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <section> <path> <value>",
		Short: "Set one field of a section and save",
		Long: `Set a dotted path of the section's record and save it.

The value is parsed as JSON when possible, otherwise used as a string:
  site-admin set hero hero.title "Welcome"
  site-admin set hero hero.stats '{"users": 1200}'
  site-admin set pricing cta.enabled true`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Set(args[1], parseValue(args[2])); err != nil {
				return err
			}
			return submit(cmd, s)
		},
	}
}

func NewAttachCmd(app *App) *cobra.Command {
	var (
		path string
		item int
	)

	cmd := &cobra.Command{
		Use:   "attach <section> <file>",
		Short: "Upload a file into a record field or a list item",
		Long: `Stage a local file and save the section with it. The server stores
the file and writes its URL into the target.

  site-admin attach hero ./bg.jpg --path hero.background
  site-admin attach cards ./icon.png --item 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (path == "") == (item < 0) {
				return fmt.Errorf("exactly one of --path or --item is required")
			}

			s, err := app.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			src, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer src.Close()
			f, err := staging.NewFile("", filepath.Base(args[1]), src)
			if err != nil {
				return err
			}

			if path != "" {
				if err := s.StageFile(path, f); err != nil {
					return err
				}
			} else {
				items := s.Items()
				if items == nil || item >= items.Len() {
					f.Release()
					return fmt.Errorf("no item at index %d", item)
				}
				items.StageFile(item, f)
			}
			return submit(cmd, s)
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "Record field to receive the file URL")
	cmd.Flags().IntVar(&item, "item", -1, "List item index to receive the file URL")
	return cmd
}
