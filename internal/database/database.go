package database

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexTLDR/lesezirkel/internal/logging"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrations embed.FS

// goose keeps its configuration in package globals
var gooseMu sync.Mutex

type DB struct {
	*gorm.DB
	dialect Dialect
	log     zerolog.Logger
}

// ParseURL splits DATABASE_URL into a dialect and a driver DSN.
// Supported forms are sqlite://path/to/file.db and postgres://...
func ParseURL(databaseURL string) (Dialect, string, error) {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		dsn := strings.TrimPrefix(databaseURL, "sqlite://")
		if dsn == "" {
			return "", "", errors.New("sqlite database path is empty")
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return SQLite, dsn + sep + "_foreign_keys=on&_busy_timeout=5000", nil
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return Postgres, databaseURL, nil
	}
	return "", "", fmt.Errorf("unsupported database url %q", databaseURL)
}

func New(ctx context.Context, databaseURL string, logger zerolog.Logger) (*DB, error) {
	dialect, dsn, err := ParseURL(databaseURL)
	if err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch dialect {
	case SQLite:
		dialector = sqlite.Open(dsn)
	case Postgres:
		dialector = postgres.New(postgres.Config{DriverName: "postgres", DSN: dsn})
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(logging.Printf{Logger: logger}, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if dialect == SQLite {
		// one connection serialises writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(10)
		sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			logger.Warn().Err(err).Msg("database not reachable, retrying")
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = sqlDB.Close() // Ignore close error, we're already returning ping error
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: gdb, dialect: dialect, log: logger}, nil
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

func (db *DB) Migrate(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	gooseDialect, dir := "sqlite3", "migrations/sqlite"
	if db.dialect == Postgres {
		gooseDialect, dir = "postgres", "migrations/postgres"
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(logging.Printf{Logger: db.log})
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, sqlDB, dir); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping is used by the health check.
func (db *DB) Ping(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
