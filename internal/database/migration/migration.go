package migration

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"jobdash/internal/applog"
	"jobdash/internal/config"
)

// dialect carries the few statements that differ between SQLite and PostgreSQL.
type dialect struct {
	name              string
	blobType          string
	createApplication string
	columnsQuery      string
	recordStep        string
}

var dialects = map[string]dialect{
	config.DriverSQLite: {
		name:     config.DriverSQLite,
		blobType: "BLOB",
		createApplication: `CREATE TABLE IF NOT EXISTS applications (
  id           INTEGER PRIMARY KEY AUTOINCREMENT,
  job_title    TEXT NOT NULL DEFAULT '',
  company      TEXT NOT NULL DEFAULT '',
  location     TEXT NOT NULL DEFAULT '',
  requirements TEXT NOT NULL DEFAULT '',
  salary       TEXT NOT NULL DEFAULT '',
  date         TEXT NOT NULL DEFAULT '',
  resume       BLOB NULL
);`,
		columnsQuery: `SELECT name FROM pragma_table_info(?)`,
		recordStep:   `INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)`,
	},
	config.DriverPostgres: {
		name:     config.DriverPostgres,
		blobType: "BYTEA",
		createApplication: `CREATE TABLE IF NOT EXISTS applications (
  id           BIGSERIAL PRIMARY KEY,
  job_title    TEXT NOT NULL DEFAULT '',
  company      TEXT NOT NULL DEFAULT '',
  location     TEXT NOT NULL DEFAULT '',
  requirements TEXT NOT NULL DEFAULT '',
  salary       TEXT NOT NULL DEFAULT '',
  date         TEXT NOT NULL DEFAULT '',
  resume       BYTEA NULL
);`,
		columnsQuery: `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`,
		recordStep:   `INSERT INTO schema_migrations (version, name, applied_at) VALUES ($1, $2, $3)`,
	},
}

const createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
  version    INTEGER PRIMARY KEY,
  name       TEXT NOT NULL,
  applied_at TEXT NOT NULL
);`

type migrationStep struct {
	Version int
	Name    string
	Apply   func(ctx context.Context, db *sql.DB, d dialect) error
}

// steps is append-only; versions must stay stable once released.
var steps = []migrationStep{
	{
		Version: 1,
		Name:    "create_table_applications",
		Apply: func(ctx context.Context, db *sql.DB, d dialect) error {
			_, err := db.ExecContext(ctx, d.createApplication)
			return err
		},
	},
	{
		Version: 2,
		Name:    "add_column_salary",
		Apply:   addColumn("applications", "salary", func(dialect) string { return "TEXT NOT NULL DEFAULT ''" }),
	},
	{
		Version: 3,
		Name:    "add_column_resume",
		Apply:   addColumn("applications", "resume", func(d dialect) string { return d.blobType + " NULL" }),
	},
}

// Run brings the applications schema up to date. Steps already recorded in
// schema_migrations are skipped; column additions check the live table first,
// so tables created by older releases without a migrations table are safe.
func Run(ctx context.Context, db *sql.DB, driver string, loc *time.Location) error {
	start := time.Now()

	d, ok := dialects[driver]
	if !ok {
		return fmt.Errorf("unsupported migration dialect %q", driver)
	}

	applog.Log(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"driver":    d.name,
	})

	if _, err := db.ExecContext(ctx, createMigrationsTable); err != nil {
		return fail(loc, start, "create_table_schema_migrations", fmt.Errorf("create schema_migrations: %w", err))
	}

	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return fail(loc, start, "read_schema_migrations", err)
	}

	for _, step := range steps {
		if applied[step.Version] {
			continue
		}
		stepStart := time.Now()
		if err := step.Apply(ctx, db, d); err != nil {
			return fail(loc, start, step.Name, fmt.Errorf("migration step %s failed: %w", step.Name, err))
		}
		if _, err := db.ExecContext(ctx, d.recordStep, step.Version, step.Name, time.Now().UTC().Format(time.RFC3339)); err != nil {
			return fail(loc, start, step.Name, fmt.Errorf("record migration %s: %w", step.Name, err))
		}

		applog.Log(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	applog.Log(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"driver":      d.name,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

// Columns lists the live column names of table.
func Columns(ctx context.Context, db *sql.DB, driver, table string) ([]string, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported migration dialect %q", driver)
	}
	return columns(ctx, db, d, table)
}

func columns(ctx context.Context, db *sql.DB, d dialect, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, d.columnsQuery, table)
	if err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

func columnExists(ctx context.Context, db *sql.DB, d dialect, table, column string) (bool, error) {
	cols, err := columns(ctx, db, d, table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c == column {
			return true, nil
		}
	}
	return false, nil
}

func addColumn(table, column string, colType func(dialect) string) func(context.Context, *sql.DB, dialect) error {
	return func(ctx context.Context, db *sql.DB, d dialect) error {
		exists, err := columnExists(ctx, db, d, table, column)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, colType(d))
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			// Another process may have added it between the check and the ALTER.
			if ok, checkErr := columnExists(ctx, db, d, table, column); checkErr == nil && ok {
				return nil
			}
			return fmt.Errorf("add column %s.%s: %w", table, column, err)
		}
		return nil
	}
}

func appliedVersions(ctx context.Context, db *sql.DB) (map[int]bool, error) {
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	out := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

func fail(loc *time.Location, start time.Time, step string, err error) error {
	applog.Log(loc, map[string]any{
		"component":      "database",
		"event":          "db_migration_failed",
		"status":         "error",
		"migration_step": step,
		"error_message":  err.Error(),
		"duration_ms":    time.Since(start).Milliseconds(),
	})
	return err
}
