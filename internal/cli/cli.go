// Package cli is the efmigrate command tree.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/shepherrrd/efmigrate/internal/config"
	"github.com/shepherrrd/efmigrate/internal/drivers"
	"github.com/shepherrrd/efmigrate/internal/history"
	"github.com/shepherrrd/efmigrate/internal/migrations"
	"github.com/shepherrrd/efmigrate/internal/models"
)

// app carries what the commands share. Its fields are swapped in tests.
type app struct {
	fs       afero.Fs
	out      io.Writer
	errOut   io.Writer
	registry *migrations.Registry
	entities []any

	v          *viper.Viper
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
}

func newApp() *app {
	return &app{
		fs:       afero.NewOsFs(),
		out:      os.Stdout,
		errOut:   os.Stderr,
		registry: migrations.DefaultRegistry(),
		entities: migrations.RegisteredEntities(),
	}
}

// Execute runs the command line of the current process against the
// migrations registered in it.
func Execute() error {
	return Run(os.Args)
}

// Run executes args, args[0] being the program name.
func Run(args []string) error {
	return newApp().run(args)
}

func (a *app) run(args []string) error {
	cmd := a.newRootCommand()
	cmd.SetArgs(args[1:])
	cmd.SetOut(a.out)
	cmd.SetErr(a.errOut)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(a.errOut, "❌ %v\n", err)
		return err
	}
	return nil
}

func (a *app) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "efmigrate",
		Short:         "Scaffold and apply database migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initConfig(cmd)
		},
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to config file (yaml)")
	flags.String(config.KeyDatabaseURL, "", "database connection string")
	flags.String(config.KeyDriver, "", "database driver: postgres, mysql or sqlite")
	flags.String(config.KeyMigrationsDir, "", "directory of the migration files")
	flags.String(config.KeyNamespace, "", "namespace of generated migrations")
	flags.String(config.KeyContextKey, "", "history context key")
	flags.String(config.KeyLogLevel, "", "log level: silent, error, warn or info")
	flags.Int(config.KeyMaxLineLength, 0, "maximum line length of designer files")

	addLeaf := func(parent *cobra.Command, use, short string, args cobra.PositionalArgs, addFlags func(*cobra.Command), runFn func(context.Context, *cobra.Command, []string) error) {
		cmd := &cobra.Command{
			Use:   use,
			Short: short,
			Args:  args,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runFn(cmd.Context(), cmd, args)
			},
		}
		if addFlags != nil {
			addFlags(cmd)
		}
		parent.AddCommand(cmd)
	}

	migration := &cobra.Command{Use: "migration", Short: "Manage migration files"}
	addLeaf(migration, "add <name>", "Scaffold a new migration", cobra.ExactArgs(1), func(cmd *cobra.Command) {
		cmd.Flags().String(config.KeyModel, "", "YAML model file to diff against the last migration")
	}, a.runMigrationAdd)
	addLeaf(migration, "list", "List migration files and their status", cobra.NoArgs, nil, a.runMigrationList)
	addLeaf(migration, "remove", "Remove the last migration files", cobra.NoArgs, nil, a.runMigrationRemove)
	root.AddCommand(migration)

	database := &cobra.Command{Use: "database", Short: "Apply migrations to the database"}
	addLeaf(database, "update [target]", "Migrate the database to target, the latest migration by default", cobra.MaximumNArgs(1), nil, a.runDatabaseUpdate)
	addLeaf(database, "rollback", "Revert the last applied migrations", cobra.NoArgs, func(cmd *cobra.Command) {
		cmd.Flags().Int("steps", 1, "number of migrations to revert")
	}, a.runDatabaseRollback)
	addLeaf(database, "script [target]", "Print the SQL database update would run", cobra.MaximumNArgs(1), func(cmd *cobra.Command) {
		cmd.Flags().StringP("output", "o", "", "write the script to a file")
	}, a.runDatabaseScript)
	addLeaf(database, "history", "Show the applied migrations", cobra.NoArgs, nil, a.runDatabaseHistory)
	root.AddCommand(database)

	return root
}

func (a *app) initConfig(cmd *cobra.Command) error {
	a.v = config.New()
	if err := config.BindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.fs, a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	return nil
}

var errNoConnection = errors.New("database connection not found: set database-url, EFMIGRATE_DATABASE_URL or DATABASE_URL")

func (a *app) openHistory() (*history.Context, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, errNoConnection
	}
	driver, err := drivers.ByName(a.cfg.Driver)
	if err != nil {
		return nil, err
	}
	return history.Open(history.Options{
		ConnectionString: a.cfg.DatabaseURL,
		Driver:           driver,
		LogLevel:         a.cfg.LogLevel,
		ContextKey:       a.cfg.ContextKey,
	})
}

func (a *app) newMigrator(h *history.Context) *migrations.Migrator {
	return migrations.NewMigrator(h,
		migrations.WithRegistry(a.registry),
		migrations.WithLogger(a.logger),
	)
}

func (a *app) newScaffolder() *migrations.Scaffolder {
	s := migrations.NewScaffolder(a.fs, a.cfg.MigrationsDir, a.cfg.Namespace)
	s.Generator.MaxLineLength = a.cfg.MaxLineLength
	s.Logger = a.logger
	return s
}

func (a *app) readModel(path string) (*models.ModelSnapshot, error) {
	data, err := afero.ReadFile(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model %s: %w", path, err)
	}
	snapshot, err := models.ParseSnapshotYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse model %s: %w", path, err)
	}
	return snapshot, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
