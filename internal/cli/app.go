package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"techhourse/internal/account"
	"techhourse/internal/behavior"
	"techhourse/internal/catalog"
	"techhourse/internal/chat"
	"techhourse/internal/config"
	"techhourse/internal/gateway"
	"techhourse/internal/logging"
	"techhourse/internal/prompt"
	"techhourse/internal/store"
)

// badImageKeys are asset keys older catalog files assigned to the wrong
// phones; the loader's repair pass rewrites them.
var badImageKeys = []string{"icon-weibo", "icon_weibo"}

// App holds the services used by CLI commands. Open fills it from the
// config file; tests set the fields directly.
type App struct {
	Config   *config.Config
	Logger   *logging.Logger
	Store    *store.Store
	Loader   *catalog.Loader
	Gateway  *gateway.Client
	Chat     *chat.Service
	Accounts *account.Service
	Recorder *behavior.Recorder

	// IsInteractive reports whether stdin is a terminal.
	IsInteractive func() bool

	closers []func() error
}

// NewApp returns an unopened App.
func NewApp() *App {
	return &App{
		IsInteractive: func() bool {
			return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		},
	}
}

// Open loads configuration and wires every service. Calling Open on an
// App whose Store is already set is a no-op.
func (a *App) Open(ctx context.Context, configPath string) error {
	if a.Store != nil {
		return nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	a.Config = cfg

	logger, err := a.newLogger(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	a.Logger = logger

	st, err := store.Open(ctx, cfg.Store.Path, logger.Component("store"))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.closers = append(a.closers, st.Close)

	gw := gateway.NewClient(gateway.Options{
		BaseURL: cfg.Gateway.BaseURL,
		APIKey:  cfg.Gateway.APIKey,
		Model:   cfg.Gateway.Model,
		Timeout: cfg.Gateway.TransportTimeout(),
	}, logger.Component("gateway"))

	a.Wire(st, gw, cfg)
	return nil
}

// Wire builds the services on top of an open store and a completion client.
func (a *App) Wire(st *store.Store, gw *gateway.Client, cfg *config.Config) {
	logger := logging.OrDiscard(a.Logger)
	a.Logger = logger
	a.Config = cfg
	a.Store = st
	a.Gateway = gw
	a.Loader = catalog.NewLoader(st, cfg.Catalog.ImportPath, badImageKeys, logger.Component("catalog"))
	a.Chat = chat.NewService(prompt.New(logger.Component("prompt")), gw, st, cfg.Gateway.Deadline(), logger.Component("chat"))
	a.Accounts = account.NewService(st, logger.Component("account"))
	a.Recorder = behavior.NewRecorder(st, logger.Component("behavior"))
}

func (a *App) newLogger(cfg config.LoggingConfig, console io.Writer) (*logging.Logger, error) {
	level := logging.ParseLevel(cfg.Level)
	if !cfg.DebugEnabled || cfg.File == "" {
		return logging.NewLogger("main", level, console), nil
	}
	file, err := logging.OpenRotatingFile(cfg.File, cfg.MaxSizeMB, cfg.MaxBackups)
	if err != nil {
		return nil, fmt.Errorf("opening debug log: %w", err)
	}
	a.closers = append(a.closers, file.Close)
	return logging.NewLogger("main", logging.DEBUG, logging.NewRouter(console, file)), nil
}

// Close releases everything Open acquired, newest first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// warnMissingKey logs once when no API key is configured.
func (a *App) warnMissingKey() {
	if a.Gateway != nil && !a.Gateway.HasKey() {
		a.Logger.Warn("no gateway API key configured; set gateway.api_key or %sAPI_KEY", config.EnvPrefix)
	}
}
