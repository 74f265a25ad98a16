package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// InterestRepo reads per-user bookmarks. The interests table is mutated by
// another service; this side only ever reads it.
type InterestRepo struct {
	db *sql.DB
}

// NewInterestRepo constructs an InterestRepo with the given DB handle.
func NewInterestRepo(db *sql.DB) *InterestRepo {
	return &InterestRepo{db: db}
}

// IDsByUser returns the set of event ids the user has bookmarked, in one
// query.
func (r *InterestRepo) IDsByUser(ctx context.Context, userID string) (map[uint64]struct{}, error) {
	const q = `SELECT event_id FROM interests WHERE user_id = ?`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("query interests: %w", err)
	}
	defer rows.Close()

	ids := make(map[uint64]struct{})
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}
		ids[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate interests: %w", err)
	}
	return ids, nil
}
