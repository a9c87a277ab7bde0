package db

import (
	"sort"
	"strings"
	"testing"
)

func TestMigrations_VersionsAreSequentialAndUnique(t *testing.T) {
	seen := make(map[int]bool)
	versions := make([]int, 0, len(Migrations))
	for _, mig := range Migrations {
		if seen[mig.Version] {
			t.Fatalf("duplicate migration version %d", mig.Version)
		}
		seen[mig.Version] = true
		versions = append(versions, mig.Version)
	}

	sort.Ints(versions)
	for i, v := range versions {
		if v != i+1 {
			t.Errorf("expected version %d at position %d, got %d", i+1, i, v)
		}
	}
}

func TestMigrations_CoreTablesPresent(t *testing.T) {
	var all strings.Builder
	for _, mig := range Migrations {
		all.WriteString(mig.SQL)
	}
	sql := all.String()

	tables := []string{
		"patients",
		"certificates",
		"life_insurance_records",
		"pending_claims",
		"insurance_change_records",
		"messages",
	}
	for _, table := range tables {
		if !strings.Contains(sql, "CREATE TABLE IF NOT EXISTS "+table) {
			t.Errorf("expected DDL for table %s", table)
		}
	}
}

func TestMigrations_CertificatesCascadeOnPatientDelete(t *testing.T) {
	var core string
	for _, mig := range Migrations {
		if mig.Name == "core" {
			core = mig.SQL
		}
	}
	if core == "" {
		t.Fatal("core migration not found")
	}

	if !strings.Contains(core, "REFERENCES patients(id) ON DELETE CASCADE") {
		t.Error("expected certificates to cascade on patient delete")
	}
}

func TestMigrationStatus_PendingHasNilAppliedAt(t *testing.T) {
	appliedVersions := map[int]bool{1: true}

	var statuses []MigrationStatus
	for _, mig := range Migrations {
		statuses = append(statuses, MigrationStatus{
			Version: mig.Version,
			Name:    mig.Name,
			Applied: appliedVersions[mig.Version],
		})
	}

	if len(statuses) != len(Migrations) {
		t.Fatalf("expected %d statuses, got %d", len(Migrations), len(statuses))
	}

	if !statuses[0].Applied {
		t.Error("expected migration 1 to be applied")
	}
	for _, s := range statuses[1:] {
		if s.Applied {
			t.Errorf("expected migration %d to be pending", s.Version)
		}
		if s.AppliedAt != nil {
			t.Errorf("expected nil AppliedAt for pending migration %d", s.Version)
		}
	}
}

func TestNewMigrator(t *testing.T) {
	m := NewMigrator(nil)
	if m == nil {
		t.Fatal("expected non-nil Migrator")
	}
	if m.pool != nil {
		t.Error("expected nil pool")
	}
}
