package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverNone     Driver = "none"
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps common aliases to a Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return DriverNone, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "pg", "pgx", "pgsql":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported driver: %s", s)
	}
}

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:ocular.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/ocular?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	tunePool(driver, db)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if driver == DriverSQLite {
		if err := applySQLitePragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := ensureSchema(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS status_reports (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  course_name TEXT NOT NULL,
  coursework_id TEXT NOT NULL,
  coursework_title TEXT NOT NULL,
  turned_in INTEGER NOT NULL,
  total INTEGER NOT NULL,
  generated_at INTEGER NOT NULL  -- unix seconds
);

CREATE INDEX IF NOT EXISTS status_reports_lookup
  ON status_reports (course_id, coursework_id, generated_at);

CREATE TABLE IF NOT EXISTS status_rows (
  report_id TEXT NOT NULL REFERENCES status_reports(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  student_name TEXT NOT NULL,
  state TEXT NOT NULL,
  turned_in INTEGER NOT NULL,
  missing INTEGER NOT NULL DEFAULT 0,
  last_update INTEGER,            -- unix seconds, NULL when no qualifying attachment
  PRIMARY KEY (report_id, student_id)
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS status_reports (
  id TEXT PRIMARY KEY,
  course_id TEXT NOT NULL,
  course_name TEXT NOT NULL,
  coursework_id TEXT NOT NULL,
  coursework_title TEXT NOT NULL,
  turned_in INTEGER NOT NULL,
  total INTEGER NOT NULL,
  generated_at BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS status_reports_lookup
  ON status_reports (course_id, coursework_id, generated_at);

CREATE TABLE IF NOT EXISTS status_rows (
  report_id TEXT NOT NULL REFERENCES status_reports(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  student_name TEXT NOT NULL,
  state TEXT NOT NULL,
  turned_in BOOLEAN NOT NULL,
  missing BOOLEAN NOT NULL DEFAULT FALSE,
  last_update BIGINT,
  PRIMARY KEY (report_id, student_id)
);
`
