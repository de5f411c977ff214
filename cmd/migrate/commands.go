package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joaodebarro/backend/internal/infrastructure/config"
	"github.com/joaodebarro/backend/internal/infrastructure/logger"
	"github.com/joaodebarro/backend/internal/infrastructure/migration"
	"github.com/joaodebarro/backend/migrations"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultMigrationsDir = "migrations"

type migrateApp struct {
	path     string
	embedded bool
	logLevel string

	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	app := &migrateApp{}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the receivables and payables schema",
		Long: `Migrate applies, rolls back and scaffolds schema migrations.

The database is taken from BOOKKEEPING_DATABASE_* (HOST, PORT, USER, PASSWORD,
DBNAME, SSLMODE), config.yaml or a .env file. With --embedded the migrations
compiled into the binary are used instead of --path.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.log != nil {
				logger.Sync(app.log)
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.path, "path", "", "Migrations directory (default ./migrations)")
	flags.BoolVar(&app.embedded, "embedded", false, "Use the migrations compiled into the binary")
	flags.StringVar(&app.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	root.AddCommand(
		app.migratorCmd("up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Up() }),
		app.migratorCmd("down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error { return m.Down() }),
		app.migratorCmd("step <n>", "Apply n migrations; roll back with a negative n after --, as in step -- -1", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		app.migratorCmd("goto <version>", "Migrate up or down to a version", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		app.migratorCmd("version", "Show the applied version", cobra.NoArgs,
			func(m *migration.Migrator, _ []string) error {
				v, dirty, err := m.Version()
				if err != nil {
					return err
				}
				app.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
				return nil
			}),
		app.migratorCmd("force <version>", "Mark a version as applied without running it", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		app.dropCmd(),
		app.createCmd(),
		app.listCmd(),
	)
	return root
}

func (a *migrateApp) init() error {
	log, err := logger.New(&logger.Config{
		Level:      a.logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	a.log = log

	if a.path == "" {
		a.path = findMigrationsDir()
	}
	abs, err := filepath.Abs(a.path)
	if err != nil {
		return fmt.Errorf("resolve migrations path: %w", err)
	}
	a.path = abs
	return nil
}

// findMigrationsDir looks in the working directory first, then two levels
// above the executable, which is where `go build -o bin/...` leaves it.
func findMigrationsDir() string {
	if _, err := os.Stat(defaultMigrationsDir); err == nil {
		return defaultMigrationsDir
	}
	if exe, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(exe), "..", "..", defaultMigrationsDir)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return defaultMigrationsDir
}

// migratorCmd builds a subcommand that needs a database connection
func (a *migrateApp) migratorCmd(use, short string, args cobra.PositionalArgs, run func(*migration.Migrator, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			return a.withMigrator(func(m *migration.Migrator) error {
				return run(m, argv)
			})
		},
	}
}

func (a *migrateApp) withMigrator(fn func(*migration.Migrator) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	var m *migration.Migrator
	if a.embedded {
		m, err = migration.NewFromFS(db, migrations.FS, a.log)
	} else {
		a.log.Debug("Reading migrations", zap.String("path", a.path))
		m, err = migration.New(db, a.path, a.log)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return fn(m)
}

func (a *migrateApp) dropCmd() *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop every table (requires --confirm)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("drop destroys all receivables and payables; rerun with --confirm")
			}
			return a.withMigrator(func(m *migration.Migrator) error { return m.Drop() })
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm dropping all data")
	return cmd
}

func (a *migrateApp) createCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "create <name> [description]",
		Short:   "Scaffold an up/down migration pair",
		Example: `  migrate create add_payable_cost_center "Cost center on payables"`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := ""
			if len(args) == 2 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(a.path, args[0], description, time.Now())
			if err != nil {
				return err
			}
			a.log.Info("Migration created",
				zap.String("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	}
}

func (a *migrateApp) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				available []migration.MigrationInfo
				err       error
			)
			if a.embedded {
				available, err = migration.ListMigrationsFS(migrations.FS)
			} else {
				available, err = migration.ListMigrations(a.path)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, m := range available {
				if m.HasDown {
					fmt.Fprintln(out, m.Name)
				} else {
					fmt.Fprintln(out, m.Name, "(no down migration)")
				}
			}
			if len(available) == 0 {
				fmt.Fprintln(out, "no migrations found")
			}
			return nil
		},
	}
}
