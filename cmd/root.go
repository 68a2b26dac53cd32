package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"site-admin/pkg/config"
	"site-admin/pkg/content"
	"site-admin/pkg/editor"
	"site-admin/pkg/gateway"
	"site-admin/pkg/logging"
	"site-admin/pkg/models"
	"site-admin/pkg/services"
)

// App carries what every command needs. Tests swap HTTPClient for an
// httptest client.
type App struct {
	APIBase      string
	SectionsFile string
	PlanType     string
	Verbose      bool
	HTTPClient   gateway.HTTPClient
	Logger       *zap.Logger
}

// NewApp reads its defaults from the loaded config.
func NewApp() *App {
	return &App{
		APIBase:      config.APIBaseURL,
		SectionsFile: config.SectionsFile,
		PlanType:     config.PlanType,
	}
}

func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "site-admin",
		Short: "Edit website content sections",
		Long: `site-admin serves the content-block API and edits sections through it.

Quick Start:
  site-admin serve                         # Start the API on $PORT
  site-admin sections                      # List configured sections
  site-admin show hero                     # Print a section's values
  site-admin set hero hero.title "Hello"   # Change one field and save
  site-admin add-item faq question="Why?"  # Append a list item and save`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Logger != nil {
				return nil
			}
			level := "warn"
			if app.Verbose {
				level = "debug"
			}
			logger, err := logging.NewLogger(level)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			app.Logger = logger
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&app.APIBase, "api", app.APIBase, "Base URL of the content API")
	rootCmd.PersistentFlags().StringVar(&app.SectionsFile, "sections", app.SectionsFile, "Sections file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&app.PlanType, "plan", app.PlanType, "Plan type overriding the sections file")
	rootCmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Debug logging")

	rootCmd.AddCommand(NewServeCmd(app))
	rootCmd.AddCommand(NewSectionsCmd(app))
	rootCmd.AddCommand(NewShowCmd(app))
	rootCmd.AddCommand(NewSetCmd(app))
	rootCmd.AddCommand(NewAttachCmd(app))
	rootCmd.AddCommand(NewItemsCmd(app))
	rootCmd.AddCommand(NewAddItemCmd(app))
	rootCmd.AddCommand(NewRemoveItemCmd(app))
	rootCmd.AddCommand(NewMoveItemCmd(app))
	rootCmd.AddCommand(NewClearCmd(app))
	return rootCmd
}

func (a *App) sections() (*models.SectionsConfig, error) {
	cfg, err := services.LoadSections(a.SectionsFile)
	if err != nil {
		return nil, fmt.Errorf("load sections: %w", err)
	}
	return cfg, nil
}

func (a *App) plan(cfg *models.SectionsConfig) string {
	if a.PlanType != "" {
		return a.PlanType
	}
	return cfg.PlanType
}

// open finds the named section and loads it into a session.
func (a *App) open(ctx context.Context, name string) (*editor.Session, error) {
	cfg, err := a.sections()
	if err != nil {
		return nil, err
	}
	section, err := services.FindSection(cfg, name)
	if err != nil {
		return nil, err
	}
	client, err := gateway.NewClient(a.APIBase, a.HTTPClient)
	if err != nil {
		return nil, err
	}
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := editor.New(*section, a.plan(cfg), client, logger)
	if err := s.Load(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// submit saves and reports the outcome.
func submit(cmd *cobra.Command, s *editor.Session) error {
	if err := s.Submit(cmd.Context()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (id %s)\n", s.Section().Name, s.Status().Message, s.ID())
	return nil
}

// parseValue reads a command-line value as JSON, falling back to a plain
// string.
func parseValue(raw string) interface{} {
	var v interface{}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return content.Normalize(v)
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.Write(data)
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}
