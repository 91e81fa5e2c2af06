// Package cli wires the lazyscores commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazyscores/internal/app"
	"github.com/rebeliceyang/lazyscores/internal/bookmarks"
	"github.com/rebeliceyang/lazyscores/internal/browser"
	"github.com/rebeliceyang/lazyscores/internal/columns"
	"github.com/rebeliceyang/lazyscores/internal/config"
	"github.com/rebeliceyang/lazyscores/internal/db/connection"
	"github.com/rebeliceyang/lazyscores/internal/db/scores"
	"github.com/rebeliceyang/lazyscores/internal/models"
	"github.com/rebeliceyang/lazyscores/internal/prefs"
	"github.com/rebeliceyang/lazyscores/internal/tablestate"
	"github.com/rebeliceyang/lazyscores/internal/urlstate"
)

var version = "dev"

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// scopeFlags select the table and the view opened on it
type scopeFlags struct {
	configFile    string
	project       string
	user          string
	view          string
	saved         string
	visibilityKey string
	excludeFilter []string
}

// env is what every command needs after flags and config are resolved
type env struct {
	cfg      *config.Config
	logger   *slog.Logger
	stateDir string
	prefs    *prefs.Store
	views    *bookmarks.Manager
	closers  []func() error
}

func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.logger.Warn("close failed", "error", err)
		}
	}
}

func newRootCmd() *cobra.Command {
	v := config.New()
	flags := &scopeFlags{}

	rootCmd := &cobra.Command{
		Use:           "lazyscores",
		Short:         "Browse labeling scores in the terminal",
		Long:          "Browse, filter and sort the scores of one project. The view state is an address that can be copied, saved and reopened.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, v, flags)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "Config file (default is <user config dir>/lazyscores/config.yaml)")
	pf.StringVar(&flags.project, "project", "", "Project whose scores are browsed")
	pf.String("dsn", "", "Postgres connection string")
	pf.String("log-level", "", "Log level (debug, info, warn, error)")
	bindFlags(v, pf, map[string]string{
		"dsn":       "database.url",
		"log-level": "log.level",
	})

	pf.StringVar(&flags.user, "user", "", "Pin the table to a single user")
	pf.StringVar(&flags.view, "view", "", "View address to open, as printed on exit")
	pf.StringVar(&flags.saved, "saved", "", "Name of a saved view to open")
	pf.StringVar(&flags.visibilityKey, "visibility-key", "", "Key the column visibility is stored under (default scores:<project>)")
	pf.StringArrayVar(&flags.excludeFilter, "exclude-filter", nil, "Column not offered by the filter builder (repeatable)")
	f := rootCmd.Flags()
	f.String("theme", "", "Color theme")
	bindFlags(v, f, map[string]string{"theme": "ui.theme"})

	rootCmd.AddCommand(newViewsCmd(v, flags))
	rootCmd.AddCommand(newExportCmd(v, flags))

	return rootCmd
}

// bindFlags lets flags override config keys; flag name to key
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		if err := v.BindPFlag(key, fs.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

// openEnv loads the config and opens the local state stores
func openEnv(v *viper.Viper, flags *scopeFlags) (*env, error) {
	cfg, err := config.Load(v, flags.configFile)
	if err != nil {
		return nil, err
	}

	stateDir, err := cfg.StateDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state dir: %w", err)
	}
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}

	e := &env{cfg: cfg, stateDir: stateDir}

	logger, closeLog, err := newLogger(cfg, stateDir)
	if err != nil {
		return nil, err
	}
	e.logger = logger
	e.closers = append(e.closers, closeLog)

	store, err := prefs.NewStore(filepath.Join(stateDir, "prefs.db"))
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}
	e.prefs = store
	e.closers = append(e.closers, store.Close)

	views, err := bookmarks.NewManager(stateDir)
	if err != nil {
		e.Close()
		return nil, err
	}
	e.views = views

	return e, nil
}

// newLogger writes text logs to the configured file; the terminal belongs
// to the TUI.
func newLogger(cfg *config.Config, stateDir string) (*slog.Logger, func() error, error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	path := cfg.Log.File
	if path == "" {
		path = filepath.Join(stateDir, config.AppName+".log")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f.Close, nil
}

// resolveAddress returns the address to open: a saved view by name, the
// --view flag, or empty.
func resolveAddress(e *env, flags *scopeFlags) (string, error) {
	if flags.saved == "" {
		return flags.view, nil
	}
	if flags.view != "" {
		return "", errors.New("--view and --saved are mutually exclusive")
	}
	saved, ok := e.views.FindByName(flags.project, flags.saved)
	if !ok {
		return "", fmt.Errorf("no saved view %q for project %q", flags.saved, flags.project)
	}
	if err := e.views.RecordUsage(saved.ID); err != nil {
		e.logger.Warn("failed to record view usage", "view", saved.Name, "error", err)
	}
	return saved.Address, nil
}

// newBrowser builds the score table for the resolved scope
func newBrowser(e *env, flags *scopeFlags) (*browser.Browser, error) {
	if flags.project == "" {
		return nil, errors.New("--project is required")
	}

	address, err := resolveAddress(e, flags)
	if err != nil {
		return nil, err
	}

	loc := e.cfg.Location()
	layout := e.cfg.UI.TimeLayout
	registry, err := columns.NewRegistry(columns.ScoreColumns(columns.ScoreColumnOptions{
		LinkBaseURL: e.cfg.UI.LinkBaseURL,
		FormatTime:  func(t time.Time) string { return t.In(loc).Format(layout) },
	})...)
	if err != nil {
		return nil, err
	}

	store := urlstate.Parse(address)
	b, err := browser.New(browser.Config{
		ScopeID:              flags.project,
		ScopeUserID:          flags.user,
		DefaultOrderBy:       columns.DefaultOrderBy(),
		VisibilityNamespace:  flags.visibilityKey,
		ExcludeFilterColumns: flags.excludeFilter,
		Logger:               e.logger,
	}, registry, store, e.prefs)
	if err != nil {
		return nil, err
	}

	// the configured default page size applies only when the address names none
	if !store.Values().Has("pageSize") && e.cfg.General.DefaultPageSize != models.DefaultPageSize {
		if err := b.Pagination.Set(tablestate.PageSize(e.cfg.General.DefaultPageSize)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// openSource connects to Postgres
func openSource(ctx context.Context, e *env) (*scores.Store, func(), error) {
	dsn := e.cfg.Database.URL
	if dsn == "" {
		dsn = connection.EnvironmentDSN(os.Getenv)
	}
	if dsn == "" {
		return nil, nil, errors.New("no database configured: set --dsn, database.url, LAZYSCORES_DATABASE_URL or the PG* variables")
	}
	pool, err := connection.NewPool(ctx, connection.Config{
		DSN:      dsn,
		MaxConns: e.cfg.Database.MaxConns,
	})
	if err != nil {
		return nil, nil, err
	}
	e.logger.Info("connected", "target", pool.Target())
	return scores.NewStore(pool, e.cfg.QueryTimeout(), e.logger), pool.Close, nil
}

func runTUI(cmd *cobra.Command, v *viper.Viper, flags *scopeFlags) error {
	e, err := openEnv(v, flags)
	if err != nil {
		return err
	}
	defer e.Close()

	b, err := newBrowser(e, flags)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	source, closePool, err := openSource(ctx, e)
	if err != nil {
		return err
	}
	defer closePool()

	model := app.New(app.Options{
		Config:    e.cfg,
		Browser:   b,
		Source:    source,
		Views:     e.views,
		ExportDir: e.stateDir,
		Logger:    e.logger,
	})

	opts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if e.cfg.UI.MouseEnabled {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(model, opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	address := model.Address()
	if err := e.prefs.RecordAddress(flags.project, address); err != nil {
		e.logger.Warn("failed to record address", "error", err)
	}
	printAddress(cmd.OutOrStdout(), address)
	return nil
}

func printAddress(w io.Writer, address string) {
	_, _ = fmt.Fprintf(w, "view: %s\n", displayAddress(address))
}
