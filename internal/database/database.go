package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/librarian/internal/database/integrity"
	"github.com/mrlokans/librarian/internal/database/uow"
)

//go:embed schema.sql
var schemaSQL string

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Options configures how the database is opened.
type Options struct {
	Driver string
	// Path is the sqlite file. Ignored for postgres.
	Path string
	// DSN is the postgres connection string. Ignored for sqlite.
	DSN string
	// StatementTimeout bounds every unit of work.
	StatementTimeout time.Duration
	// BusyTimeout is how long sqlite waits for the write lock.
	BusyTimeout time.Duration
	LogLevel    logger.LogLevel
}

type Database struct {
	DB     *gorm.DB
	Driver string
	runner *uow.Runner
}

// NewDatabase opens a sqlite database at dbPath with default options.
func NewDatabase(dbPath string) (*Database, error) {
	return Open(Options{
		Driver:   DriverSQLite,
		Path:     dbPath,
		LogLevel: logger.Warn,
	})
}

// Open connects to the configured store and applies the schema.
func Open(opts Options) (*Database, error) {
	if opts.Driver == "" {
		opts.Driver = DriverSQLite
	}
	if opts.LogLevel == 0 {
		opts.LogLevel = logger.Warn
	}

	var dialector gorm.Dialector
	switch opts.Driver {
	case DriverSQLite:
		dialector = sqlite.Open(sqliteDSN(opts.Path, opts.BusyTimeout))
	case DriverPostgres:
		if opts.DSN == "" {
			return nil, fmt.Errorf("postgres driver requires a DSN")
		}
		dialector = postgres.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(opts.LogLevel),
		// Each repository call opens its own transaction.
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", integrity.Translate(err))
	}

	if opts.Driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(8)
		sqlDB.SetMaxIdleConns(4)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	if err := applySchema(db); err != nil {
		closeQuietly(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	database := &Database{
		DB:     db,
		Driver: opts.Driver,
		runner: uow.New(db, opts.StatementTimeout, txOptions(opts.Driver)),
	}

	if opts.Driver == DriverSQLite {
		log.Printf("Database initialized successfully at %s", opts.Path)
	} else {
		log.Printf("Database initialized successfully (%s)", opts.Driver)
	}

	return database, nil
}

// Runner returns the unit-of-work runner shared by all repositories.
func (d *Database) Runner() *uow.Runner {
	return d.runner
}

// Ping checks connectivity within the statement timeout.
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, d.runner.Timeout())
	defer cancel()
	return integrity.Translate(sqlDB.PingContext(ctx))
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// txOptions picks the isolation level for units of work.
//
// Postgres runs at READ COMMITTED. The counter UPDATE in sequence.Next takes
// a row lock, so a concurrent reservation waits and then increments the
// committed value. The partial unique index and the unique columns reject
// whatever a check-then-insert race lets through. SERIALIZABLE would instead
// abort the waiting transaction with 40001, and units of work are not retried.
//
// sqlite needs no options: _txlock=immediate already serializes writers.
func txOptions(driver string) *sql.TxOptions {
	if driver == DriverPostgres {
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	}
	return nil
}

// sqliteDSN enables foreign keys and makes every transaction take the write
// lock at BEGIN, which serializes read-then-write units of work.
func sqliteDSN(path string, busyTimeout time.Duration) string {
	if busyTimeout <= 0 {
		busyTimeout = 5 * time.Second
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_foreign_keys=on&_txlock=immediate&_journal_mode=WAL&_busy_timeout=%d",
		path, sep, busyTimeout.Milliseconds())
}

func applySchema(db *gorm.DB) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("exec schema statement %q: %w", firstLine(stmt), err)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func closeQuietly(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
