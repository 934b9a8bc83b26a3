package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/mr1hm/go-disaster-reports/internal/apperrors"
)

const (
	reportsTable = "disaster_reports"
	alertsTable  = "alerts"

	// Fixed width UTC so that string order is time order and the first ten
	// bytes are the calendar date.
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = apperrors.ErrNotFound

type SQLiteDB struct {
	db *sql.DB
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// NewSQLiteDB opens the database at path. The schema is not created here; call
// Migrate once at startup.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("error creating database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// One connection: writes serialize, and ":memory:" stays a single database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error while pinging database: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

func (s *SQLiteDB) Migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS disaster_reports (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			disaster_type TEXT NOT NULL,
			location TEXT NOT NULL,
			severity TEXT NOT NULL,
			description TEXT NOT NULL,
			reporter_name TEXT NOT NULL,
			reporter_contact TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'verified', 'resolved')),
			reported_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS alerts (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			message TEXT NOT NULL,
			alert_type TEXT NOT NULL,
			created_at TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_disaster_reports_reported_at ON disaster_reports(reported_at);
		CREATE INDEX IF NOT EXISTS idx_disaster_reports_status ON disaster_reports(status);
		CREATE INDEX IF NOT EXISTS idx_alerts_created_at ON alerts(created_at);
	`

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error while migrating database: %w", err)
	}
	return nil
}

func (s *SQLiteDB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction, committing on nil and rolling back otherwise.
func (s *SQLiteDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("error rolling back: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing stored time %q: %w", s, err)
	}
	return t, nil
}

// builder uses "?" placeholders, which is what the sqlite driver expects.
func builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Question)
}
