// Command migrate manages the database schema and admin credentials.
package main

import (
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/halo-extras/backend/internal/infrastructure/auth"
	"github.com/halo-extras/backend/internal/infrastructure/config"
	"github.com/halo-extras/backend/internal/infrastructure/logger"
	"github.com/halo-extras/backend/internal/infrastructure/migration"
	"github.com/halo-extras/backend/migrations"
)

type options struct {
	dir      string
	logLevel string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the halo-extras database schema",
		Long: `Apply, roll back and inspect PostgreSQL schema migrations.

Migrations are embedded in the binary. Pass --dir to work against a
directory on disk instead, which is required for the create command.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "migrations directory (default: embedded migrations)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(
		migratorCmd(opts, "up", "Apply all pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string, _ *cobra.Command) error { return m.Up() }),
		migratorCmd(opts, "down", "Roll back all migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string, _ *cobra.Command) error { return m.Down() }),
		migratorCmd(opts, "step N", "Apply N migrations, negative N rolls back", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string, _ *cobra.Command) error {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid step count %q", args[0])
				}
				return m.Steps(n)
			}),
		migratorCmd(opts, "goto VERSION", "Migrate up or down to VERSION", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string, _ *cobra.Command) error {
				v, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.GoTo(uint(v))
			}),
		migratorCmd(opts, "force VERSION", "Set the version without running migrations", cobra.ExactArgs(1),
			func(m *migration.Migrator, args []string, _ *cobra.Command) error {
				v, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid version %q", args[0])
				}
				return m.Force(v)
			}),
		migratorCmd(opts, "status", "Show the applied and pending migrations", cobra.NoArgs,
			func(m *migration.Migrator, _ []string, cmd *cobra.Command) error {
				st, err := m.Status()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "version: %d\nlatest:  %d\npending: %d\ndirty:   %t\n",
					st.Version, st.Latest, st.Pending, st.Dirty)
				return nil
			}),
		newListCmd(opts),
		newCreateCmd(opts),
		newHashPasswordCmd(),
	)
	return root
}

type migratorFunc func(m *migration.Migrator, args []string, cmd *cobra.Command) error

// migratorCmd builds a subcommand that needs a database connection
func migratorCmd(opts *options, use, short string, args cobra.PositionalArgs, run migratorFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			log, err := newLogger(opts.logLevel)
			if err != nil {
				return err
			}
			defer logger.Sync(log)

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			if cfg.Database.Driver != "postgres" {
				return fmt.Errorf("schema migrations require the postgres driver, got %q", cfg.Database.Driver)
			}

			m, closeFn, err := openMigrator(opts, cfg, log)
			if err != nil {
				return err
			}
			defer closeFn()

			return run(m, argv, cmd)
		},
	}
}

func openMigrator(opts *options, cfg *config.Config, log *zap.Logger) (*migration.Migrator, func(), error) {
	if opts.dir != "" {
		dir, err := filepath.Abs(opts.dir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("Using migrations directory", zap.String("dir", dir))
		m, err := migration.NewFromDir(cfg.Database.DSN(), dir, log)
		if err != nil {
			return nil, nil, err
		}
		return m, func() { _ = m.Close() }, nil
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping database: %w", err)
	}
	m, err := migration.New(db, migrations.FS, log)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	// closing the migrator also closes db
	return m, func() { _ = m.Close() }, nil
}

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var source fs.FS = migrations.FS
			if opts.dir != "" {
				source = os.DirFS(opts.dir)
			}
			names, err := migration.ListMigrations(source)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no migrations found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newCreateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "create NAME [DESCRIPTION]",
		Short: "Scaffold the next numbered migration pair",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := opts.dir
			if dir == "" {
				dir = "migrations"
			}
			description := ""
			if len(args) > 1 {
				description = args[1]
			}
			mf, err := migration.CreateMigration(dir, args[0], description)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s\ncreated %s\n", mf.UpPath, mf.DownPath)
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password PASSWORD",
		Short: "Print the bcrypt hash to use as admin.password_hash",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func newLogger(level string) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      level,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
}
