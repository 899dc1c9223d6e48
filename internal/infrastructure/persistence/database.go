package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/halo-extras/backend/internal/infrastructure/config"
)

// Database wraps the GORM handle shared by every repository. Driver is
// "postgres" or "sqlite".
type Database struct {
	DB     *gorm.DB
	Driver string
}

// NewDatabaseWithLogger opens the configured database, applies the pool
// settings and checks the connection.
func NewDatabaseWithLogger(cfg *config.DatabaseConfig, gormLogger logger.Interface) (*Database, error) {
	dialector, err := openDialector(cfg)
	if err != nil {
		return nil, err
	}
	driver := dialector.Name()

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            driver == "postgres",
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	d := &Database{DB: gdb, Driver: driver}
	sqlDB, err := d.sql()
	if err != nil {
		return nil, err
	}
	configurePool(sqlDB, driver, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s database: %w", driver, err)
	}
	return d, nil
}

func openDialector(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "postgres":
		return postgres.Open(cfg.DSN()), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// sqlite gets a single connection so concurrent syncs queue instead of
// failing with SQLITE_BUSY.
func configurePool(sqlDB *sql.DB, driver string, cfg *config.DatabaseConfig) {
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
		return
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
}

func (d *Database) sql() (*sql.DB, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return sqlDB, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.sql()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping is used by the health probe
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.sql()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats exposes the connection pool counters
func (d *Database) Stats() (sql.DBStats, error) {
	sqlDB, err := d.sql()
	if err != nil {
		return sql.DBStats{}, err
	}
	return sqlDB.Stats(), nil
}
