package search

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/iliyamo/event-search/internal/cache"
	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

const (
	perCategoryLimit = 5
	maxFanOut        = 10
)

// CategoryBucket is one category's slice of the per-category sweep, in the
// unannotated form that gets cached.
type CategoryBucket struct {
	Title  map[string]string    `json:"title"`
	Events []model.EventSummary `json:"events"`
}

// ResultBucket is a CategoryBucket with bookmark flags applied.
type ResultBucket struct {
	Title  map[string]string    `json:"title"`
	Events []model.SearchResult `json:"events"`
}

// EventsByCategory returns the top events of every category, keyed by
// category code. The sweep runs one structural query per category with
// bounded concurrency and is cached as a whole, independent of the caller;
// bookmark flags are applied after the cache read.
//
// A category whose query fails is omitted from the response; the rest of the
// sweep still goes out.
func (s *Searcher) EventsByCategory(ctx context.Context, userID string) (map[string]ResultBucket, error) {
	key := cache.Key("events_by_category", s.collection)
	sweep, err := cache.Through(ctx, s.cache, key, func(ctx context.Context) (map[string]CategoryBucket, error) {
		return s.categorySweep(ctx)
	})
	if err != nil {
		return nil, err
	}

	var ids map[uint64]struct{}
	if userID != "" {
		if ids, err = s.interests.IDsByUser(ctx, userID); err != nil {
			log.Printf("searcher: %v for user %s: %v", ErrAnnotationUnavailable, userID, err)
			ids = nil
		}
	}

	out := make(map[string]ResultBucket, len(sweep))
	for code, b := range sweep {
		rb := ResultBucket{Title: b.Title, Events: make([]model.SearchResult, len(b.Events))}
		for i, e := range b.Events {
			r := model.SearchResult{EventSummary: e}
			if ids != nil {
				_, r.Bookmarked = ids[e.ID]
			}
			rb.Events[i] = r
		}
		out[code] = rb
	}
	return out, nil
}

// categorySweep fans out one query per category through a worker pool sized
// min(maxFanOut, categories) and collects the buckets. Workers share nothing
// mutable beyond the result map, which is guarded here.
func (s *Searcher) categorySweep(ctx context.Context) (map[string]CategoryBucket, error) {
	cats, err := s.categories.Categories(ctx)
	if err != nil {
		return nil, err
	}

	workers := len(cats)
	if workers > maxFanOut {
		workers = maxFanOut
	}
	out := make(map[string]CategoryBucket, len(cats))
	if workers == 0 {
		return out, nil
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, workers)
	)
	for _, cat := range cats {
		code := strings.ToLower(strings.TrimSpace(cat.Code))
		if code == "" {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(cat model.Category, code string) {
			defer wg.Done()
			defer func() { <-sem }()

			filter, ferr := index.BuildFilter(index.FilterParams{Categories: []string{code}}, s.loc)
			if ferr != nil {
				log.Printf("searcher: category %s filter: %v", code, ferr)
				return
			}
			hits, qerr := s.oracle.Query(ctx, "", filter, perCategoryLimit, 0)
			if qerr != nil {
				log.Printf("searcher: category %s query failed: %v", code, qerr)
				return
			}
			events := make([]model.EventSummary, 0, len(hits))
			for _, h := range hits {
				events = append(events, index.SummaryFromPayload(h.ID, h.Score, h.Payload))
			}
			mu.Lock()
			out[code] = CategoryBucket{
				Title:  map[string]string{"en": cat.NameEN, "vi": cat.NameVI},
				Events: events,
			}
			mu.Unlock()
		}(cat, code)
	}
	wg.Wait()
	return out, nil
}
