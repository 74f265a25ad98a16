// Package repository contains data access logic over the relational store.
// Repositories receive the shared *sql.DB pool and never open connections of
// their own; every query path acquires a connection from the pool and
// releases it when the rows are closed.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/event-search/internal/model"
)

// EventRepo reads the canonical event rows that feed the vector index.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo constructs an EventRepo with the given DB handle.
func NewEventRepo(db *sql.DB) *EventRepo {
	return &EventRepo{db: db}
}

// ExtractAll reads every event with its joined location names, then batches
// the ticket and showtime rows with two IN queries keyed by event id. Three
// queries total, regardless of how many events exist.
func (r *EventRepo) ExtractAll(ctx context.Context) ([]model.Event, map[uint64][]model.TicketType, map[uint64][]time.Time, error) {
	events, err := r.events(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	ids := make([]uint64, len(events))
	for i, ev := range events {
		ids[i] = ev.ID
	}

	tickets := make(map[uint64][]model.TicketType)
	showtimes := make(map[uint64][]time.Time)
	if len(ids) == 0 {
		return events, tickets, showtimes, nil
	}

	if err := r.tickets(ctx, ids, tickets); err != nil {
		return nil, nil, nil, err
	}
	if err := r.showtimes(ctx, ids, showtimes); err != nil {
		return nil, nil, nil, err
	}
	return events, tickets, showtimes, nil
}

func (r *EventRepo) events(ctx context.Context) ([]model.Event, error) {
	const q = `SELECT
			e.id,
			e.event_name,
			COALESCE(e.event_description, ''),
			COALESCE(e.street, ''),
			COALESCE(e.categories, '[]'),
			COALESCE(e.event_logo_url, ''),
			COALESCE(c.name, ''),    COALESCE(c.name_en, ''),
			COALESCE(d.name, ''),    COALESCE(d.name_en, ''),
			COALESCE(w.name, ''),    COALESCE(w.name_en, ''),
			e.latitude,
			e.longitude
		FROM events e
		LEFT JOIN cities c    ON c.origin_id = e.city_id
		LEFT JOIN districts d ON d.origin_id = e.district_id
		LEFT JOIN wards w     ON w.origin_id = e.ward_id`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var (
			ev       model.Event
			catsJSON string
			lat, lon sql.NullFloat64
		)
		if err := rows.Scan(
			&ev.ID,
			&ev.Name,
			&ev.Description,
			&ev.Street,
			&catsJSON,
			&ev.LogoURL,
			&ev.CityName, &ev.CityNameEN,
			&ev.DistrictName, &ev.DistrictNameEN,
			&ev.WardName, &ev.WardNameEN,
			&lat,
			&lon,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		// Categories live in a JSON column; a broken value degrades to
		// an uncategorized event rather than failing the whole read.
		_ = json.Unmarshal([]byte(catsJSON), &ev.Categories)
		if lat.Valid {
			ev.Latitude = &lat.Float64
		}
		if lon.Valid {
			ev.Longitude = &lon.Float64
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return out, nil
}

func (r *EventRepo) tickets(ctx context.Context, ids []uint64, dst map[uint64][]model.TicketType) error {
	q := `SELECT event_id, is_free, price FROM ticket_types WHERE event_id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, args(ids)...)
	if err != nil {
		return fmt.Errorf("query ticket_types: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t     model.TicketType
			price sql.NullFloat64
		)
		if err := rows.Scan(&t.EventID, &t.IsFree, &price); err != nil {
			return fmt.Errorf("scan ticket_type: %w", err)
		}
		if price.Valid {
			t.Price = &price.Float64
		}
		dst[t.EventID] = append(dst[t.EventID], t)
	}
	return rows.Err()
}

func (r *EventRepo) showtimes(ctx context.Context, ids []uint64, dst map[uint64][]time.Time) error {
	q := `SELECT event_id, start_time FROM shows WHERE event_id IN (` + placeholders(len(ids)) + `)`
	rows, err := r.db.QueryContext(ctx, q, args(ids)...)
	if err != nil {
		return fmt.Errorf("query shows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id uint64
			ts time.Time
		)
		if err := rows.Scan(&id, &ts); err != nil {
			return fmt.Errorf("scan show: %w", err)
		}
		dst[id] = append(dst[id], ts)
	}
	return rows.Err()
}

// placeholders returns "?,?,...,?" with n markers.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func args(ids []uint64) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
