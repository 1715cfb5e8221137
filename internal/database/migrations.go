package database

import (
	"context"
	"fmt"
	"strconv"

	"pcbuilds/internal/models"
)

type migration struct {
	version  int
	name     string
	postgres string
	sqlite   string
	// after runs in the same transaction once the statement has applied.
	after func(ctx context.Context, q Querier) error
}

func (m migration) statement(d Dialect) string {
	if d == SQLite {
		return m.sqlite
	}
	return m.postgres
}

// Migrations run in version order at startup, each in its own transaction.
// Never edit an applied migration; append a new one.
var migrations = []migration{
	{
		version: 1,
		name:    "catalog",
		postgres: `
CREATE TABLE categories (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT 'part',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX idx_categories_kind_name ON categories (kind, lower(name));

CREATE TABLE parts (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    brand TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    price NUMERIC,
    category_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX idx_parts_name_category ON parts (name, category_id);
CREATE UNIQUE INDEX idx_parts_name_uncategorized ON parts (name) WHERE category_id IS NULL;
CREATE INDEX idx_parts_category ON parts (category_id);

CREATE TABLE builds (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'draft',
    price NUMERIC,
    tier_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
    family_id BIGINT REFERENCES categories(id) ON DELETE SET NULL,
    image_url TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE build_parts (
    build_id BIGINT NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
    part_id BIGINT NOT NULL REFERENCES parts(id) ON DELETE CASCADE,
    quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
    price_override NUMERIC,
    PRIMARY KEY (build_id, part_id)
);
CREATE INDEX idx_build_parts_part ON build_parts (part_id);
`,
		sqlite: `
CREATE TABLE categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    kind TEXT NOT NULL DEFAULT 'part',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX idx_categories_kind_name ON categories (kind, lower(name));

CREATE TABLE parts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL,
    brand TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT '',
    price TEXT,
    category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE UNIQUE INDEX idx_parts_name_category ON parts (name, category_id);
CREATE UNIQUE INDEX idx_parts_name_uncategorized ON parts (name) WHERE category_id IS NULL;
CREATE INDEX idx_parts_category ON parts (category_id);

CREATE TABLE builds (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'draft',
    price TEXT,
    tier_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    family_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    image_url TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE build_parts (
    build_id INTEGER NOT NULL REFERENCES builds(id) ON DELETE CASCADE,
    part_id INTEGER NOT NULL REFERENCES parts(id) ON DELETE CASCADE,
    quantity INTEGER NOT NULL DEFAULT 1 CHECK (quantity > 0),
    price_override TEXT,
    PRIMARY KEY (build_id, part_id)
);
CREATE INDEX idx_build_parts_part ON build_parts (part_id);
`,
	},
	{
		version: 2,
		name:    "users_and_settings",
		postgres: `
CREATE TABLE users (
    id BIGSERIAL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
		sqlite: `
CREATE TABLE users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		version:  3,
		name:     "category_name_key",
		postgres: `ALTER TABLE categories ADD COLUMN name_key TEXT NOT NULL DEFAULT ''`,
		sqlite:   `ALTER TABLE categories ADD COLUMN name_key TEXT NOT NULL DEFAULT ''`,
		after:    backfillCategoryKeys,
	},
}

// backfillCategoryKeys fills name_key and moves the unique index onto it.
// Rows that only collide under Unicode folding keep a key suffixed with
// their id, so the older row stays the one lookups resolve to.
func backfillCategoryKeys(ctx context.Context, q Querier) error {
	type row struct {
		id         int64
		kind, name string
	}
	rows, err := q.QueryContext(ctx, `SELECT id, kind, name FROM categories ORDER BY id`)
	if err != nil {
		return err
	}
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.kind, &r.name); err != nil {
			rows.Close()
			return err
		}
		all = append(all, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(all))
	for _, r := range all {
		key := models.FoldName(r.name)
		if seen[r.kind+"\x00"+key] {
			key += "#" + strconv.FormatInt(r.id, 10)
		}
		seen[r.kind+"\x00"+key] = true
		if _, err := q.ExecContext(ctx, `UPDATE categories SET name_key = ? WHERE id = ?`, key, r.id); err != nil {
			return fmt.Errorf("backfill category %d: %w", r.id, err)
		}
	}

	if _, err := q.ExecContext(ctx, `DROP INDEX idx_categories_kind_name`); err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `CREATE UNIQUE INDEX idx_categories_kind_name_key ON categories (kind, name_key)`)
	return err
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

func (db *DB) migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schemaMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.version] {
			continue
		}
		err := db.InTx(ctx, func(q Querier) error {
			if _, err := q.ExecContext(ctx, m.statement(db.dialect)); err != nil {
				return err
			}
			if m.after != nil {
				if err := m.after(ctx, q); err != nil {
					return err
				}
			}
			_, err := q.ExecContext(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	return v, err
}
