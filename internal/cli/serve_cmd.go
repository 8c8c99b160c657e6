package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"techhourse/internal/api"
	"techhourse/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and websocket event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			ln, err := net.Listen("tcp", app.Config.Server.Addr())
			if err != nil {
				return fmt.Errorf("listening on %s: %w", app.Config.Server.Addr(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "TechHourse listening on http://%s\n", ln.Addr())
			return serve(ctx, app, ln)
		},
	}
	return cmd
}

// serve runs the API on ln until ctx is canceled, then shuts down
// gracefully.
func serve(ctx context.Context, app *App, ln net.Listener) error {
	logger := app.Logger.Component("server")
	app.warnMissingKey()

	if n, err := app.Loader.Initialize(ctx); err != nil {
		logger.Warn("catalog import skipped: %v", err)
	} else if n > 0 {
		logger.Info("imported %d phones", n)
	}

	hub := api.NewWebSocketHub(logger.Component("websocket"))
	go hub.Run(ctx)

	if app.Config.Catalog.Watch {
		w, err := watcher.NewWatcher(app.Loader, app.Loader.Path(), func(n int, err error) {
			if err == nil {
				hub.Broadcast(api.EventCatalogReloaded, map[string]int{"count": n})
			}
		}, logger.Component("watcher"))
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			logger.Warn("catalog watcher disabled: %v", err)
		}
	}

	srv := api.NewServer(api.Deps{
		Store:    app.Store,
		Chat:     app.Chat,
		Accounts: app.Accounts,
		Recorder: app.Recorder,
		Loader:   app.Loader,
		Hub:      hub,
		Config: &api.ServerConfig{
			HistoryMaxEntries:   app.Config.History.MaxEntries,
			HistoryDisplayLimit: app.Config.History.DisplayLimit,
		},
		Logger: logger.Component("api"),
	})

	server := &http.Server{
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: app.Chat.Deadline() + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening on http://%s", ln.Addr())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
