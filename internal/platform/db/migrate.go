package db

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is a single versioned DDL step. The schema is small enough that
// migrations are embedded here rather than loaded from files.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	Applied   bool
	AppliedAt *time.Time
}

// Migrations holds every DDL step in version order. Booleans that cross the
// wire as 0/1 are stored as SMALLINT, and certificate progress is stored as
// a serialized JSON string, matching the API conventions.
var Migrations = []Migration{
	{
		Version: 1,
		Name:    "core",
		SQL: `
CREATE TABLE IF NOT EXISTS patients (
    id             TEXT PRIMARY KEY,
    name           TEXT NOT NULL DEFAULT '',
    name_kana      TEXT NOT NULL DEFAULT '',
    chart_number   TEXT NOT NULL DEFAULT '',
    insurance_type TEXT NOT NULL DEFAULT '',
    notes          TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'APPLYING',
    stopped_at     TEXT,
    created_at     TEXT NOT NULL DEFAULT '',
    updated_at     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS certificates (
    id                 TEXT PRIMARY KEY,
    patient_id         TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
    type               TEXT NOT NULL,
    application_date   TEXT,
    completion_date    TEXT,
    initial_start_date TEXT,
    start_date         TEXT,
    valid_from         TEXT,
    valid_until        TEXT,
    status             TEXT,
    grade              TEXT,
    limit_amount       TEXT,
    needs_certificate  SMALLINT NOT NULL DEFAULT 0,
    send_date          TEXT,
    progress           TEXT,
    created_at         TEXT NOT NULL DEFAULT '',
    updated_at         TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_certificates_patient_id ON certificates(patient_id);
`,
	},
	{
		Version: 2,
		Name:    "ledgers",
		SQL: `
CREATE TABLE IF NOT EXISTS life_insurance_records (
    id               TEXT PRIMARY KEY,
    patient_id       TEXT NOT NULL,
    year             INTEGER NOT NULL DEFAULT 0,
    month            INTEGER NOT NULL DEFAULT 0,
    insurance_type   TEXT NOT NULL DEFAULT '',
    patient_name     TEXT NOT NULL DEFAULT '',
    certificate_fee  INTEGER NOT NULL DEFAULT 0,
    certificate_type TEXT NOT NULL DEFAULT '',
    municipality     TEXT NOT NULL DEFAULT '',
    claim_date       TEXT,
    difference       TEXT,
    notes            TEXT NOT NULL DEFAULT '',
    claim_recipient  TEXT NOT NULL DEFAULT '',
    claim_status     SMALLINT NOT NULL DEFAULT 0,
    created_at       TEXT NOT NULL DEFAULT '',
    updated_at       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS pending_claims (
    id           TEXT PRIMARY KEY,
    patient_id   TEXT NOT NULL,
    patient_name TEXT NOT NULL DEFAULT '',
    claim_date   TEXT,
    amount       INTEGER NOT NULL DEFAULT 0,
    status       TEXT NOT NULL DEFAULT '',
    notes        TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS insurance_change_records (
    id                 TEXT PRIMARY KEY,
    patient_id         TEXT NOT NULL,
    patient_name       TEXT NOT NULL DEFAULT '',
    change_date        TEXT,
    previous_insurance TEXT NOT NULL DEFAULT '',
    new_insurance      TEXT NOT NULL DEFAULT '',
    status             TEXT NOT NULL DEFAULT '',
    notes              TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS messages (
    id             TEXT PRIMARY KEY,
    date           TEXT NOT NULL DEFAULT '',
    target_patient TEXT,
    notes          TEXT NOT NULL DEFAULT '',
    author         TEXT NOT NULL DEFAULT ''
);
`,
	},
}

// Migrator applies the embedded migrations against a PostgreSQL database.
type Migrator struct {
	pool *pgxpool.Pool
}

func NewMigrator(pool *pgxpool.Pool) *Migrator {
	return &Migrator{pool: pool}
}

// EnsureMigrationsTable creates the _migrations tracking table if it does
// not already exist.
func (m *Migrator) EnsureMigrationsTable(ctx context.Context) error {
	_, err := m.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS _migrations (
    version INTEGER PRIMARY KEY,
    name VARCHAR(255) NOT NULL,
    applied_at TIMESTAMPTZ DEFAULT NOW()
)`)
	if err != nil {
		return fmt.Errorf("create _migrations table: %w", err)
	}
	return nil
}

// AppliedVersions returns the set of migration versions already applied.
func (m *Migrator) AppliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := m.pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied versions: %w", err)
	}

	return applied, nil
}

// Up applies all pending migrations in version order. Each migration runs in
// its own transaction. Returns the count of applied migrations.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	if err := m.EnsureMigrationsTable(ctx); err != nil {
		return 0, err
	}

	applied, err := m.AppliedVersions(ctx)
	if err != nil {
		return 0, err
	}

	migrations := make([]Migration, len(Migrations))
	copy(migrations, Migrations)
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	count := 0
	for _, mig := range migrations {
		if applied[mig.Version] {
			continue
		}

		if err := m.applyMigration(ctx, mig); err != nil {
			return count, fmt.Errorf("apply migration %d (%s): %w", mig.Version, mig.Name, err)
		}
		count++
	}

	return count, nil
}

func (m *Migrator) applyMigration(ctx context.Context, mig Migration) error {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, mig.SQL); err != nil {
		return fmt.Errorf("execute SQL: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"INSERT INTO _migrations (version, name) VALUES ($1, $2)",
		mig.Version, mig.Name,
	); err != nil {
		return fmt.Errorf("record migration: %w", err)
	}

	return tx.Commit(ctx)
}

// Status reports every known migration and whether it has been applied.
func (m *Migrator) Status(ctx context.Context) ([]MigrationStatus, error) {
	if err := m.EnsureMigrationsTable(ctx); err != nil {
		return nil, err
	}

	rows, err := m.pool.Query(ctx, `SELECT version, applied_at FROM _migrations`)
	if err != nil {
		return nil, fmt.Errorf("query migration status: %w", err)
	}
	defer rows.Close()

	appliedMap := make(map[int]time.Time)
	for rows.Next() {
		var v int
		var at time.Time
		if err := rows.Scan(&v, &at); err != nil {
			return nil, fmt.Errorf("scan migration status: %w", err)
		}
		appliedMap[v] = at
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate migration status: %w", err)
	}

	var statuses []MigrationStatus
	for _, mig := range Migrations {
		status := MigrationStatus{
			Version: mig.Version,
			Name:    mig.Name,
		}
		if at, ok := appliedMap[mig.Version]; ok {
			status.Applied = true
			appliedAt := at
			status.AppliedAt = &appliedAt
		}
		statuses = append(statuses, status)
	}

	return statuses, nil
}
