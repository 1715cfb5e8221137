package repository

import (
	"context"
	"database/sql"

	"pcbuilds/internal/database"
	"pcbuilds/internal/models"

	"github.com/shopspring/decimal"
)

type BuildRepository struct {
	db database.Querier
}

func NewBuildRepository(db database.Querier) *BuildRepository {
	return &BuildRepository{db: db}
}

const buildColumns = `b.id, b.name, b.status, b.price, b.tier_id, b.family_id, b.image_url, b.created_at, b.updated_at`

func scanBuild(row interface{ Scan(...any) error }) (*models.Build, error) {
	b := &models.Build{}
	var tierID, familyID sql.NullInt64
	err := row.Scan(&b.ID, &b.Name, &b.Status, &b.Price, &tierID, &familyID, &b.ImageURL, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tierID.Valid {
		b.TierID = &tierID.Int64
	}
	if familyID.Valid {
		b.FamilyID = &familyID.Int64
	}
	return b, nil
}

func (r *BuildRepository) GetByName(ctx context.Context, name string) (*models.Build, error) {
	return scanBuild(r.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+` FROM builds b WHERE b.name = ?`, name))
}

func (r *BuildRepository) GetByID(ctx context.Context, id int64) (*models.Build, error) {
	return scanBuild(r.db.QueryRowContext(ctx, `
		SELECT `+buildColumns+` FROM builds b WHERE b.id = ?`, id))
}

// CreateIfAbsent inserts the build unless its name is taken.
func (r *BuildRepository) CreateIfAbsent(ctx context.Context, b *models.Build) (bool, error) {
	if b.Status == "" {
		b.Status = models.StatusDraft
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO builds (name, status, price, tier_id, family_id, image_url)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
		RETURNING id`,
		b.Name, b.Status, b.Price, b.TierID, b.FamilyID, b.ImageURL,
	).Scan(&b.ID)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Create inserts the build and fails on a duplicate name.
func (r *BuildRepository) Create(ctx context.Context, b *models.Build) error {
	if b.Status == "" {
		b.Status = models.StatusDraft
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO builds (name, status, price, tier_id, family_id, image_url)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		b.Name, b.Status, b.Price, b.TierID, b.FamilyID, b.ImageURL,
	).Scan(&b.ID)
}

// UpdateImported refreshes the fields an export carries. Status is left alone.
func (r *BuildRepository) UpdateImported(ctx context.Context, b *models.Build) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE builds SET price = ?, tier_id = ?, family_id = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		b.Price, b.TierID, b.FamilyID, b.ImageURL, b.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *BuildRepository) UpdateStatus(ctx context.Context, id int64, status models.BuildStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE builds SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *BuildRepository) Touch(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE builds SET updated_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return err
}

// Delete removes the build. Its lines go with it.
func (r *BuildRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM build_parts WHERE build_id = ?`, id); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM builds WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// List returns builds with tier and family joined, newest first. Lines are
// not loaded; use Lines for that.
func (r *BuildRepository) List(ctx context.Context, status models.BuildStatus) ([]models.Build, error) {
	query := `
		SELECT ` + buildColumns + `, t.name, f.name
		FROM builds b
		LEFT JOIN categories t ON t.id = b.tier_id
		LEFT JOIN categories f ON f.id = b.family_id`
	var args []any
	if status != "" {
		query += ` WHERE b.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY b.updated_at DESC, b.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var builds []models.Build
	for rows.Next() {
		b := models.Build{}
		var tierID, familyID sql.NullInt64
		var tierName, familyName sql.NullString
		if err := rows.Scan(&b.ID, &b.Name, &b.Status, &b.Price, &tierID, &familyID, &b.ImageURL,
			&b.CreatedAt, &b.UpdatedAt, &tierName, &familyName); err != nil {
			return nil, err
		}
		if tierID.Valid {
			b.TierID = &tierID.Int64
			b.Tier = &models.Category{ID: tierID.Int64, Name: tierName.String, Kind: models.KindTier}
		}
		if familyID.Valid {
			b.FamilyID = &familyID.Int64
			b.Family = &models.Category{ID: familyID.Int64, Name: familyName.String, Kind: models.KindFamily}
		}
		builds = append(builds, b)
	}
	return builds, rows.Err()
}

// DeleteParts drops every line of the build and reports how many went.
func (r *BuildRepository) DeleteParts(ctx context.Context, buildID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM build_parts WHERE build_id = ?`, buildID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UpsertPart writes the (build, part) line, replacing quantity and
// override when the line already exists.
func (r *BuildRepository) UpsertPart(ctx context.Context, bp models.BuildPart) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO build_parts (build_id, part_id, quantity, price_override)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (build_id, part_id)
		DO UPDATE SET quantity = excluded.quantity, price_override = excluded.price_override`,
		bp.BuildID, bp.PartID, bp.Quantity, bp.PriceOverride,
	)
	return err
}

func (r *BuildRepository) RemovePart(ctx context.Context, buildID, partID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM build_parts WHERE build_id = ? AND part_id = ?`, buildID, partID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

// Lines loads the build's lines joined with parts and their categories,
// ordered by category then part name.
func (r *BuildRepository) Lines(ctx context.Context, buildID int64) ([]models.BuildLine, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT bp.build_id, bp.part_id, bp.quantity, bp.price_override,
		       `+partColumns+`, c.id, c.name, c.kind
		FROM build_parts bp
		JOIN parts p ON p.id = bp.part_id
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE bp.build_id = ?
		ORDER BY c.name, p.name`, buildID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []models.BuildLine
	for rows.Next() {
		var l models.BuildLine
		var partCat, catID sql.NullInt64
		var catName, catKind sql.NullString
		if err := rows.Scan(&l.BuildID, &l.PartID, &l.Quantity, &l.PriceOverride,
			&l.Part.ID, &l.Part.Name, &l.Part.Brand, &l.Part.URL, &l.Part.Price, &partCat,
			&l.Part.CreatedAt, &l.Part.UpdatedAt, &catID, &catName, &catKind); err != nil {
			return nil, err
		}
		if partCat.Valid {
			l.Part.CategoryID = &partCat.Int64
		}
		if catID.Valid {
			l.Part.Category = &models.Category{ID: catID.Int64, Name: catName.String, Kind: models.CategoryKind(catKind.String)}
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// Totals computes the aggregate price of every build in one pass. Builds
// with an unpriced line map to an invalid NullDecimal.
func (r *BuildRepository) Totals(ctx context.Context) (map[int64]decimal.NullDecimal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT bp.build_id, bp.quantity, bp.price_override, p.price
		FROM build_parts bp
		JOIN parts p ON p.id = bp.part_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make(map[int64][]models.BuildLine)
	for rows.Next() {
		var l models.BuildLine
		if err := rows.Scan(&l.BuildID, &l.Quantity, &l.PriceOverride, &l.Part.Price); err != nil {
			return nil, err
		}
		lines[l.BuildID] = append(lines[l.BuildID], l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totals := make(map[int64]decimal.NullDecimal, len(lines))
	for id, ls := range lines {
		totals[id] = models.TotalPrice(ls)
	}
	return totals, nil
}
