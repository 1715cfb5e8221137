package database

import (
	"context"
	"errors"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		dialect Dialect
		in      string
		want    string
	}{
		{Postgres, `SELECT 1 FROM t WHERE a = ? AND b = ?`, `SELECT 1 FROM t WHERE a = $1 AND b = $2`},
		{Postgres, `SELECT '?' FROM t WHERE a = ?`, `SELECT '?' FROM t WHERE a = $1`},
		{Postgres, `SELECT 1`, `SELECT 1`},
		{SQLite, `SELECT 1 FROM t WHERE a = ?`, `SELECT 1 FROM t WHERE a = ?`},
	}
	for _, tt := range tests {
		if got := tt.dialect.Rebind(tt.in); got != tt.want {
			t.Errorf("%s.Rebind(%q) = %q, want %q", tt.dialect, tt.in, got, tt.want)
		}
	}
}

func TestParseURL(t *testing.T) {
	tests := []struct {
		url     string
		driver  string
		dialect Dialect
		wantErr bool
	}{
		{"postgres://u:p@localhost:5432/db", "pgx", Postgres, false},
		{"postgresql://localhost/db", "pgx", Postgres, false},
		{"sqlite://:memory:", "sqlite", SQLite, false},
		{"file:catalog.db", "sqlite", SQLite, false},
		{"sqlite://", "", 0, true},
		{"mysql://localhost/db", "", 0, true},
	}
	for _, tt := range tests {
		driver, _, dialect, err := parseURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseURL(%q) err = %v, wantErr %v", tt.url, err, tt.wantErr)
			continue
		}
		if tt.wantErr {
			continue
		}
		if driver != tt.driver || dialect != tt.dialect {
			t.Errorf("parseURL(%q) = %s/%s, want %s/%s", tt.url, driver, dialect, tt.driver, tt.dialect)
		}
	}
}

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open("sqlite://:memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsApplyOnce(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	v, err := db.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion: %v", err)
	}
	if v != len(migrations) {
		t.Fatalf("schema version = %d, want %d", v, len(migrations))
	}

	// A second pass must be a no-op.
	if err := db.migrate(ctx); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.InTx(ctx, func(q Querier) error {
		if _, err := q.ExecContext(ctx, `INSERT INTO categories (name, kind) VALUES (?, ?)`, "CPU", "part"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx err = %v, want boom", err)
	}

	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("categories after rollback = %d, want 0", n)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	insert := `INSERT INTO categories (name, name_key, kind) VALUES (?, ?, ?)`
	if _, err := db.ExecContext(ctx, insert, "CPU", "cpu", "part"); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err := db.ExecContext(ctx, insert, "cpu", "cpu", "part")
	if err == nil {
		t.Fatal("expected the case-folded duplicate to be rejected")
	}
	if !IsUniqueViolation(err) {
		t.Fatalf("IsUniqueViolation(%v) = false", err)
	}
	if IsUniqueViolation(errors.New("other")) {
		t.Fatal("plain error classified as unique violation")
	}
}

func TestBackfillCategoryKeysFoldsUnicode(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	// Recreate the pre-key schema: an index sqlite folds with ASCII rules only.
	for _, stmt := range []string{
		`DROP INDEX idx_categories_kind_name_key`,
		`CREATE UNIQUE INDEX idx_categories_kind_name ON categories (kind, lower(name))`,
		`INSERT INTO categories (name, kind) VALUES ('Écran', 'part')`,
		`INSERT INTO categories (name, kind) VALUES ('écran', 'part')`,
		`INSERT INTO categories (name, kind) VALUES ('écran', 'tier')`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}

	if err := db.InTx(ctx, func(q Querier) error { return backfillCategoryKeys(ctx, q) }); err != nil {
		t.Fatalf("backfill: %v", err)
	}

	rows, err := db.QueryContext(ctx, `SELECT id, kind, name_key FROM categories ORDER BY id`)
	if err != nil {
		t.Fatal(err)
	}
	defer rows.Close()
	var got []string
	for rows.Next() {
		var id int64
		var kind, key string
		if err := rows.Scan(&id, &kind, &key); err != nil {
			t.Fatal(err)
		}
		got = append(got, kind+":"+key)
	}
	want := []string{"part:écran", "part:écran#2", "tier:écran"}
	if len(got) != len(want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("key %d = %q, want %q", i, got[i], want[i])
		}
	}

	_, err = db.ExecContext(ctx, `INSERT INTO categories (name, name_key, kind) VALUES ('ÉCRAN', 'écran', 'part')`)
	if !IsUniqueViolation(err) {
		t.Fatalf("insert after backfill err = %v, want unique violation", err)
	}
}
