package repository

import (
	"context"
	"database/sql"
	"strings"

	"pcbuilds/internal/database"
	"pcbuilds/internal/models"
)

type CategoryRepository struct {
	db database.Querier
}

func NewCategoryRepository(db database.Querier) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, name, kind, created_at`

func scanCategory(row interface{ Scan(...any) error }) (*models.Category, error) {
	c := &models.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Kind, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// GetByName matches the folded name within a kind.
func (r *CategoryRepository) GetByName(ctx context.Context, kind models.CategoryKind, name string) (*models.Category, error) {
	return scanCategory(r.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE kind = ? AND name_key = ?`,
		kind, models.FoldName(name)))
}

func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*models.Category, error) {
	return scanCategory(r.db.QueryRowContext(ctx, `
		SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
}

// CreateIfAbsent inserts the category unless one with the same kind and
// folded name exists. It reports false, leaving c.ID unset, when the row
// was already there.
func (r *CategoryRepository) CreateIfAbsent(ctx context.Context, c *models.Category) (bool, error) {
	if c.Kind == "" {
		c.Kind = models.KindPart
	}
	c.Name = strings.TrimSpace(c.Name)
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, name_key, kind)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		c.Name, models.FoldName(c.Name), c.Kind,
	).Scan(&c.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts the category and fails on a duplicate.
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	if c.Kind == "" {
		c.Kind = models.KindPart
	}
	c.Name = strings.TrimSpace(c.Name)
	return r.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, name_key, kind)
		VALUES (?, ?, ?)
		RETURNING id`,
		c.Name, models.FoldName(c.Name), c.Kind,
	).Scan(&c.ID)
}

func (r *CategoryRepository) GetByKind(ctx context.Context, kind models.CategoryKind) ([]models.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE kind = ? ORDER BY name`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// GetAllWithCount lists every category with the number of parts filed under it.
func (r *CategoryRepository) GetAllWithCount(ctx context.Context) ([]models.CategoryWithCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.kind, c.created_at, COUNT(p.id)
		FROM categories c
		LEFT JOIN parts p ON p.category_id = c.id
		GROUP BY c.id, c.name, c.kind, c.created_at
		ORDER BY c.kind, c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.CategoryWithCount
	for rows.Next() {
		var c models.CategoryWithCount
		if err := rows.Scan(&c.ID, &c.Name, &c.Kind, &c.CreatedAt, &c.PartCount); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// Delete removes the category. Its parts become uncategorized and builds
// lose the tier or family reference. The null-out is explicit so both
// backends behave the same; it fails with a unique violation when an
// uncategorized part with the same name already exists.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE parts SET category_id = NULL, updated_at = CURRENT_TIMESTAMP WHERE category_id = ?`, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE builds SET tier_id = NULL WHERE tier_id = ?`, id); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE builds SET family_id = NULL WHERE family_id = ?`, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// expectOne turns a zero-row write into sql.ErrNoRows.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
