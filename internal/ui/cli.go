package ui

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javiermolinar/rota/internal/config"
	"github.com/javiermolinar/rota/internal/db"
	"github.com/javiermolinar/rota/internal/logging"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	repo       *db.SQLite
	config     *config.Config
	configPath string
	root       *cobra.Command
	log        *zap.Logger
	now        func() time.Time
	debug      bool // Force the debug log level
	noColor    bool
}

// NewApp creates a new CLI application. A nil repo is opened lazily from the
// configured database path. A nil cfg is loaded from --config.
func NewApp(repo *db.SQLite, cfg *config.Config) *App {
	a := &App{
		repo:   repo,
		config: cfg,
		log:    zap.NewNop(),
		now:    time.Now,
	}

	a.root = &cobra.Command{
		Use:   "rota",
		Short: "Calendar conflicts and grid layout for resource rotas",
		Long: `Rota detects clashes between resource leave and job allocations,
lays leave out on a calendar grid and positions job cards inside
working hours.

Records are loaded with 'rota import' and stored in a local SQLite database.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	// Add global flags
	a.root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultConfigPath(), "Config file path")
	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")
	a.root.PersistentFlags().BoolVar(&a.debug, "debug", false, "Enable debug logging (logs to stderr)")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.importCmd())
	a.root.AddCommand(a.conflictsCmd())
	a.root.AddCommand(a.gridCmd())
	a.root.AddCommand(a.columnsCmd())
	a.root.AddCommand(a.dragCmd())
	a.root.AddCommand(a.proposalsCmd())

	return a
}

// setup loads the config and builds the logger before any command runs.
func (a *App) setup(cmd *cobra.Command) error {
	if a.config == nil || cmd.Flags().Changed("config") {
		cfg, err := config.LoadFrom(a.configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		a.config = cfg
	}

	if a.noColor {
		DisableColor()
	}

	logCfg := a.config.Log
	if a.debug {
		logCfg.Level = "debug"
	}
	logger, err := logging.New(logCfg)
	if err != nil {
		return err
	}
	a.log = logger
	return nil
}

// ensureRepo opens the configured database if no repository was injected.
func (a *App) ensureRepo() error {
	if a.repo != nil {
		return nil
	}

	path := a.config.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}

	loc, err := a.config.Location()
	if err != nil {
		return err
	}

	repo, err := db.New(path, db.WithLocation(loc), db.WithLogger(a.log))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	a.repo = repo
	return nil
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "rota %s (commit: %s)\n", Version, Commit)
		},
	}
}

// SetArgs sets the command line arguments, for tests.
func (a *App) SetArgs(args ...string) {
	a.root.SetArgs(args)
}

// SetOutput redirects command output, for tests.
func (a *App) SetOutput(w io.Writer) {
	a.root.SetOut(w)
	a.root.SetErr(w)
}

// SetNow overrides the clock used for default dates.
func (a *App) SetNow(now func() time.Time) {
	a.now = now
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// Close releases the database and flushes the logger.
func (a *App) Close() error {
	_ = a.log.Sync()
	if a.repo == nil {
		return nil
	}
	return a.repo.Close()
}
