// Package migration applies the numbered SQL schema migrations with
// golang-migrate and scaffolds new ones.
package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Migrator wraps a golang-migrate instance bound to one source and one
// PostgreSQL database.
type Migrator struct {
	m      *migrate.Migrate
	source fs.FS
	logger *zap.Logger
}

// Status describes the schema state
type Status struct {
	Version uint
	Dirty   bool
	Latest  uint
	Pending int
}

// New reads migrations from source (normally migrations.FS) and applies
// them through an already open connection. Closing the Migrator closes db.
func New(db *sql.DB, source fs.FS, logger *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(source, ".")
	if err != nil {
		return nil, fmt.Errorf("open migration source: %w", err)
	}
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("postgres migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return newMigrator(m, source, logger), nil
}

// NewFromDir reads migrations from a directory on disk
func NewFromDir(databaseURL, dir string, logger *zap.Logger) (*Migrator, error) {
	m, err := migrate.New("file://"+dir, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}
	return newMigrator(m, os.DirFS(dir), logger), nil
}

func newMigrator(m *migrate.Migrate, source fs.FS, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{m: m, source: source, logger: logger}
}

// apply runs one golang-migrate operation, treating ErrNoChange as
// success, and logs the resulting version.
func (m *Migrator) apply(op string, fn func() error, fields ...zap.Field) error {
	m.logger.Info("Migrating", append([]zap.Field{zap.String("op", op)}, fields...)...)

	err := fn()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Schema already up to date", zap.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("migrate %s: %w", op, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration finished",
		zap.String("op", op),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

// Up applies every pending migration
func (m *Migrator) Up() error {
	return m.apply("up", m.m.Up)
}

// Down rolls every migration back
func (m *Migrator) Down() error {
	return m.apply("down", m.m.Down)
}

// Steps moves n migrations; negative n rolls back.
func (m *Migrator) Steps(n int) error {
	return m.apply("steps", func() error { return m.m.Steps(n) }, zap.Int("n", n))
}

// GoTo migrates up or down to version
func (m *Migrator) GoTo(version uint) error {
	return m.apply("goto", func() error { return m.m.Migrate(version) }, zap.Uint("target", version))
}

// Version returns the applied version. Zero means nothing is applied.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		return 0, false, nil
	case err != nil:
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}
	return version, dirty, nil
}

// Status compares the applied version with the available migrations
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return Status{}, err
	}
	names, err := ListMigrations(m.source)
	if err != nil {
		return Status{}, err
	}
	return statusFor(version, dirty, names), nil
}

func statusFor(version uint, dirty bool, names []string) Status {
	st := Status{Version: version, Dirty: dirty}
	for _, name := range names {
		v := uint(versionOf(name))
		st.Latest = max(st.Latest, v)
		if v > version {
			st.Pending++
		}
	}
	return st
}

// Force records version as applied without running anything. Used to
// clear the dirty flag left by a failed migration.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing schema version", zap.Int("version", version))
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	return nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	return errors.Join(srcErr, dbErr)
}
