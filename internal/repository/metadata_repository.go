package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/event-search/internal/model"
)

// MetadataRepo lists the search lookup tables (categories and cities) that
// clients use to build filter UIs.
type MetadataRepo struct {
	db *sql.DB
}

// NewMetadataRepo constructs a MetadataRepo with the given DB handle.
func NewMetadataRepo(db *sql.DB) *MetadataRepo {
	return &MetadataRepo{db: db}
}

// Categories returns all categories ordered by English name.
func (r *MetadataRepo) Categories(ctx context.Context) ([]model.Category, error) {
	const q = `SELECT id, code, name_en, name_vi, COALESCE(image, '')
		FROM categories
		ORDER BY name_en ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Code, &c.NameEN, &c.NameVI, &c.Image); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// Cities returns the active cities in display order.
func (r *MetadataRepo) Cities(ctx context.Context) ([]model.City, error) {
	const q = `SELECT id, origin_id, name, name_en
		FROM cities
		WHERE status = 1
		ORDER BY sort ASC, name_en ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query cities: %w", err)
	}
	defer rows.Close()

	var out []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.OriginID, &c.Name, &c.NameEN); err != nil {
			return nil, fmt.Errorf("scan city: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cities: %w", err)
	}
	return out, nil
}
