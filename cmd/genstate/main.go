package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manash/genstate/internal/config"
	"github.com/manash/genstate/internal/image"
	"github.com/manash/genstate/internal/logging"
	"github.com/manash/genstate/internal/metrics"
	"github.com/manash/genstate/internal/session"
	"github.com/manash/genstate/internal/storage"
)

var (
	version = "dev"
	commit  = "none"
)

type App struct {
	Out        io.Writer
	Err        io.Writer
	IsTerminal func(w io.Writer) bool
	LoadConfig func(path string) (*config.Config, error)
	OpenStore  func(cfg *config.Config, logger *slog.Logger) (*session.Store, func() error, error)

	configPath string
	dataDir    string
	backend    string
	jsonOut    bool
}

func DefaultApp() *App {
	return &App{
		Out:        os.Stdout,
		Err:        os.Stderr,
		IsTerminal: isTerminal,
		LoadConfig: config.Load,
		OpenStore:  openStore,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	app := DefaultApp()
	return newRootCmd(app).ExecuteContext(ctx)
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genstate",
		Short: "Inspect and edit generation session state",
		Long: `genstate manages the persisted state of image and wireframe generation
sessions: iteration timelines with undo, redo and rollback, wireframe
component trees, and variant selections.

Examples:
  genstate sessions list
  genstate history list <session>
  genstate history rollback <session> 2
  genstate resolve <session> "blue logo"
  genstate wireframe export <session> <wireframe>`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(app.Out)
	cmd.SetErr(app.Err)

	cmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "config file (default $HOME/.genstate.yaml)")
	cmd.PersistentFlags().StringVar(&app.dataDir, "data-dir", "", "override the data directory")
	cmd.PersistentFlags().StringVar(&app.backend, "backend", "", "override the storage backend (sqlite, file)")
	cmd.PersistentFlags().BoolVar(&app.jsonOut, "json", false, "force JSON output")

	cmd.AddCommand(
		newSessionsCmd(app),
		newHistoryCmd(app),
		newResolveCmd(app),
		newWireframeCmd(app),
	)
	return cmd
}

func (a *App) config() (*config.Config, error) {
	cfg, err := a.LoadConfig(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.dataDir != "" {
		if cfg.DataDir, err = config.ExpandHome(a.dataDir); err != nil {
			return nil, err
		}
	}
	if a.backend != "" {
		cfg.Backend = a.backend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withStore opens the configured store for the duration of fn.
func (a *App) withStore(cmd *cobra.Command, fn func(ctx context.Context, s *session.Store, p *printer) error) (err error) {
	cfg, err := a.config()
	if err != nil {
		return err
	}
	logger := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: a.Err})

	store, closeStore, err := a.OpenStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if cerr := closeStore(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, store, a.printer())
}

func openStore(cfg *config.Config, logger *slog.Logger) (*session.Store, func() error, error) {
	var (
		backend storage.Backend
		err     error
	)
	switch cfg.Backend {
	case config.BackendFile:
		backend, err = storage.NewFileStore(cfg.RecordsDir())
	default:
		backend, err = storage.NewSQLite(cfg.DBPath())
	}
	if err != nil {
		return nil, nil, err
	}

	opts := []session.Option{
		session.WithImageStore(image.NewStore(cfg.ImageDir())),
		session.WithLogger(logger),
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		sink, err := metrics.NewPrometheusSink(cfg.Metrics.Namespace, reg)
		if err != nil {
			backend.Close()
			return nil, nil, err
		}
		opts = append(opts, session.WithMetrics(sink))
	}

	store := session.NewStore(backend, opts...)
	closeFn := func() error {
		var errs []error
		if reg != nil {
			path := filepath.Join(cfg.DataDir, "genstate.prom")
			if err := prometheus.WriteToTextfile(path, reg); err != nil {
				errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
			}
		}
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	}
	return store, closeFn, nil
}
