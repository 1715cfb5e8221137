package repository

import (
	"context"
	"database/sql"

	"pcbuilds/internal/database"
	"pcbuilds/internal/models"

	"github.com/shopspring/decimal"
)

type PartRepository struct {
	db database.Querier
}

func NewPartRepository(db database.Querier) *PartRepository {
	return &PartRepository{db: db}
}

const partColumns = `p.id, p.name, p.brand, p.url, p.price, p.category_id, p.created_at, p.updated_at`

func scanPart(row interface{ Scan(...any) error }, extra ...any) (*models.Part, error) {
	p := &models.Part{}
	var categoryID sql.NullInt64
	dest := append([]any{&p.ID, &p.Name, &p.Brand, &p.URL, &p.Price, &categoryID, &p.CreatedAt, &p.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if categoryID.Valid {
		p.CategoryID = &categoryID.Int64
	}
	return p, nil
}

// Find looks a part up by its identity key: name within a category, or
// name alone among uncategorized parts when categoryID is nil.
func (r *PartRepository) Find(ctx context.Context, name string, categoryID *int64) (*models.Part, error) {
	if categoryID == nil {
		return scanPart(r.db.QueryRowContext(ctx, `
			SELECT `+partColumns+` FROM parts p
			WHERE p.name = ? AND p.category_id IS NULL`, name))
	}
	return scanPart(r.db.QueryRowContext(ctx, `
		SELECT `+partColumns+` FROM parts p
		WHERE p.name = ? AND p.category_id = ?`, name, *categoryID))
}

// GetByID loads the part with its category joined.
func (r *PartRepository) GetByID(ctx context.Context, id int64) (*models.Part, error) {
	return scanPartWithCategory(r.db.QueryRowContext(ctx, `
		SELECT `+partColumns+`, c.id, c.name, c.kind
		FROM parts p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = ?`, id))
}

func scanPartWithCategory(row interface{ Scan(...any) error }) (*models.Part, error) {
	var catID sql.NullInt64
	var catName, catKind sql.NullString
	p, err := scanPart(row, &catID, &catName, &catKind)
	if err != nil {
		return nil, err
	}
	if catID.Valid {
		p.Category = &models.Category{ID: catID.Int64, Name: catName.String, Kind: models.CategoryKind(catKind.String)}
	}
	return p, nil
}

// CreateIfAbsent inserts the part unless its identity key is taken.
func (r *PartRepository) CreateIfAbsent(ctx context.Context, p *models.Part) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO parts (name, brand, url, price, category_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		p.Name, p.Brand, p.URL, p.Price, p.CategoryID,
	).Scan(&p.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Update writes brand, url and price back.
func (r *PartRepository) Update(ctx context.Context, p *models.Part) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE parts SET brand = ?, url = ?, price = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		p.Brand, p.URL, p.Price, p.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *PartRepository) UpdatePrice(ctx context.Context, id int64, price decimal.NullDecimal) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE parts SET price = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, price, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// List returns parts with their category joined, optionally filtered to
// one category. A zero categoryID lists everything.
func (r *PartRepository) List(ctx context.Context, categoryID int64) ([]models.Part, error) {
	query := `
		SELECT ` + partColumns + `, c.id, c.name, c.kind
		FROM parts p
		LEFT JOIN categories c ON c.id = p.category_id`
	var args []any
	if categoryID > 0 {
		query += ` WHERE p.category_id = ?`
		args = append(args, categoryID)
	}
	query += ` ORDER BY c.name, p.name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []models.Part
	for rows.Next() {
		p, err := scanPartWithCategory(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, *p)
	}
	return parts, rows.Err()
}

func (r *PartRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parts`).Scan(&n)
	return n, err
}

// Delete removes the part and every build line that references it. The
// link rows are deleted first so no orphan survives on a backend with
// foreign keys switched off. Run it inside a transaction.
func (r *PartRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM build_parts WHERE part_id = ?`, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM parts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}
