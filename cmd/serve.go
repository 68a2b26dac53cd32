package cmd

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"site-admin/pkg/config"
	"site-admin/pkg/handlers"
	"site-admin/pkg/logging"
	"site-admin/pkg/models"
	"site-admin/pkg/services"
	"site-admin/pkg/store"
)

func NewServeCmd(app *App) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the content API server",
		Long: `Start the HTTP server behind /api/<subtype>/json/<key> and
/api/<subtype>/form/<type>.

Environment Variables:
  PORT            Server port (default: 8080)
  DB_PATH         SQLite database path
  UPLOAD_DIR      Where uploaded files are stored
  UPLOAD_URL      Public URL prefix of uploaded files
  SECTIONS_FILE   Section definitions served at /api/config
  PLAN_TYPE       "pro" raises the list limit from 10 to 20
  SESSION_SECRET  Cookie session key
  LOG_LEVEL       debug, info, warn or error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.NewLogger(config.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			s, err := store.New(config.DBPath)
			if err != nil {
				return err
			}
			defer s.Close()

			var sections *models.SectionsConfig
			sections, err = services.GetSections(app.SectionsFile)
			if errors.Is(err, fs.ErrNotExist) {
				logger.Warn("sections file not found, /api/config disabled", zap.String("path", app.SectionsFile))
			} else if err != nil {
				return err
			}

			api := &handlers.API{Store: s, Sections: sections, PlanType: app.PlanType}
			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           handlers.NewRouter(api, logger),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("db", config.DBPath))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", config.Port, "Port to listen on")
	return cmd
}
