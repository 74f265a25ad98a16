// Package search composes the filter builder, the vector index, the result
// cache and the interest annotator into the search operations the routing
// layer exposes. The orchestrator caches the user-independent part of every
// response and applies per-user bookmark flags only after the cache.
package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/iliyamo/event-search/internal/cache"
	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

// ErrAnnotationUnavailable marks a failed interest lookup. It is never
// surfaced to callers: results go out with all flags false and the failure is
// logged.
var ErrAnnotationUnavailable = errors.New("annotation unavailable")

// ErrEventNotFound is returned by Related when the seed event is not indexed.
var ErrEventNotFound = errors.New("event not found")

const defaultLimit = 15

// Oracle is the slice of the index client the searcher needs.
type Oracle interface {
	Query(ctx context.Context, text string, filter *qdrant.Filter, limit, offset uint64) ([]index.ScoredRecord, error)
	ScrollByMatch(ctx context.Context, field string, value int64, limit uint32) ([]index.ScoredRecord, error)
}

// InterestSource yields a user's bookmarked event ids.
type InterestSource interface {
	IDsByUser(ctx context.Context, userID string) (map[uint64]struct{}, error)
}

// CategorySource lists the category lookup table for the per-category sweep.
type CategorySource interface {
	Categories(ctx context.Context) ([]model.Category, error)
}

// Params are the caller-facing search parameters. UserID identifies the
// requesting user for bookmark annotation only; it never participates in
// caching.
type Params struct {
	Text           string
	City           string
	Categories     []string
	StartDate      string
	EndDate        string
	Box            *index.BoundingBox
	Limit          uint64
	Offset         uint64
	ScoreThreshold float32
	UserID         string
}

// Searcher orchestrates one collection's search traffic.
type Searcher struct {
	oracle     Oracle
	cache      *cache.ResultCache
	interests  InterestSource
	categories CategorySource
	collection string
	loc        *time.Location
}

// New wires a Searcher. loc is the fixed local zone for date-only bounds.
func New(oracle Oracle, rc *cache.ResultCache, interests InterestSource, categories CategorySource, collection string, loc *time.Location) *Searcher {
	return &Searcher{
		oracle:     oracle,
		cache:      rc,
		interests:  interests,
		categories: categories,
		collection: collection,
		loc:        loc,
	}
}

// Search runs one ranked-retrieval query and returns annotated results in the
// oracle's rank order. The unannotated list is cached under a key derived
// from every parameter except UserID, so one entry serves all callers.
func (s *Searcher) Search(ctx context.Context, p Params) ([]model.SearchResult, error) {
	base, err := cache.Through(ctx, s.cache, s.cacheKey(p), func(ctx context.Context) ([]model.EventSummary, error) {
		return s.query(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, base, p.UserID), nil
}

// query is the cache-miss path: build the filter, ask the oracle, post-filter
// on score and strip internal fields. Rank order is preserved; nothing here
// re-sorts.
func (s *Searcher) query(ctx context.Context, p Params) ([]model.EventSummary, error) {
	filter, err := index.BuildFilter(index.FilterParams{
		City:       p.City,
		Categories: p.Categories,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Box:        p.Box,
	}, s.loc)
	if err != nil {
		return nil, err
	}

	limit := p.Limit
	if limit == 0 {
		limit = defaultLimit
	}
	hits, err := s.oracle.Query(ctx, p.Text, filter, limit, p.Offset)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}

	out := make([]model.EventSummary, 0, len(hits))
	for _, h := range hits {
		// The threshold only means something when a text query produced
		// real scores; structural-only queries come back zero-scored and
		// must not be dropped.
		if p.Text != "" && h.Score < p.ScoreThreshold {
			continue
		}
		out = append(out, index.SummaryFromPayload(h.ID, h.Score, h.Payload))
	}
	return out, nil
}

// cacheKey hashes the base (user-independent) parameters. Categories are
// normalized first so that equivalent encodings share an entry.
func (s *Searcher) cacheKey(p Params) string {
	box := ""
	if p.Box != nil {
		box = fmt.Sprintf("%g,%g,%g,%g", p.Box.MinLat, p.Box.MaxLat, p.Box.MinLon, p.Box.MaxLon)
	}
	return cache.Key("search",
		s.collection,
		p.Text,
		strings.ToLower(p.City),
		strings.Join(index.NormalizeCategories(p.Categories), ","),
		p.StartDate,
		p.EndDate,
		box,
		strconv.FormatUint(p.Limit, 10),
		strconv.FormatUint(p.Offset, 10),
		strconv.FormatFloat(float64(p.ScoreThreshold), 'g', -1, 32),
	)
}

// annotate wraps summaries into results and marks the user's bookmarks with
// one interest lookup. A failed lookup degrades to all-false flags.
func (s *Searcher) annotate(ctx context.Context, base []model.EventSummary, userID string) []model.SearchResult {
	out := make([]model.SearchResult, len(base))
	for i, b := range base {
		out[i] = model.SearchResult{EventSummary: b}
	}
	if userID == "" {
		return out
	}
	ids, err := s.interests.IDsByUser(ctx, userID)
	if err != nil {
		log.Printf("searcher: %v for user %s: %v", ErrAnnotationUnavailable, userID, err)
		return out
	}
	for i := range out {
		_, out[i].Bookmarked = ids[out[i].ID]
	}
	return out
}
