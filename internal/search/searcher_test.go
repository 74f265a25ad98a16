package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-search/internal/cache"
	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

var testTZ = time.FixedZone("local", 7*3600)

// fakeOracle counts queries and answers through a configurable callback.
type fakeOracle struct {
	queries int
	onQuery func(text string, filter *qdrant.Filter, limit, offset uint64) ([]index.ScoredRecord, error)
	scroll  []index.ScoredRecord
}

func (f *fakeOracle) Query(_ context.Context, text string, filter *qdrant.Filter, limit, offset uint64) ([]index.ScoredRecord, error) {
	f.queries++
	return f.onQuery(text, filter, limit, offset)
}

func (f *fakeOracle) ScrollByMatch(context.Context, string, int64, uint32) ([]index.ScoredRecord, error) {
	return f.scroll, nil
}

type fakeInterests struct {
	ids map[uint64]struct{}
	err error
}

func (f *fakeInterests) IDsByUser(context.Context, string) (map[uint64]struct{}, error) {
	return f.ids, f.err
}

type fakeCategories struct {
	cats []model.Category
	err  error
}

func (f *fakeCategories) Categories(context.Context) ([]model.Category, error) {
	return f.cats, f.err
}

// memStore mirrors the in-memory Store used by the cache tests.
type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore { return &memStore{data: make(map[string][]byte)} }

func (m *memStore) Get(_ context.Context, key string) ([]byte, error) {
	b, ok := m.data[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return b, nil
}

func (m *memStore) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	m.data[key] = val
	return nil
}

func hit(id uint64, score float32, name, city string, cats ...string) index.ScoredRecord {
	list := make([]any, len(cats))
	for i, c := range cats {
		list[i] = c
	}
	return index.ScoredRecord{
		ID:    id,
		Score: score,
		Payload: qdrant.NewValueMap(map[string]any{
			index.FieldID:         int64(id),
			index.FieldName:       name,
			index.FieldCity:       city,
			index.FieldCategories: list,
			index.FieldDocument:   "indexed text blob for " + name,
		}),
	}
}

func fixedHits(hits ...index.ScoredRecord) func(string, *qdrant.Filter, uint64, uint64) ([]index.ScoredRecord, error) {
	return func(string, *qdrant.Filter, uint64, uint64) ([]index.ScoredRecord, error) {
		return hits, nil
	}
}

func newTestSearcher(o Oracle, st cache.Store, in InterestSource, cs CategorySource) *Searcher {
	var rc *cache.ResultCache
	if st != nil {
		rc = cache.NewWithStore(st, time.Minute)
	}
	if in == nil {
		in = &fakeInterests{}
	}
	if cs == nil {
		cs = &fakeCategories{}
	}
	return New(o, rc, in, cs, "events", testTZ)
}

func TestSearchThresholdAppliedOnlyWithText(t *testing.T) {
	oracle := &fakeOracle{onQuery: fixedHits(
		hit(1, 0.9, "Jazz Night", "hanoi", "music"),
		hit(2, 0.5, "Jazz Brunch", "hanoi", "music"),
		hit(3, 0.1, "Poetry Slam", "hanoi", "art"),
	)}
	s := newTestSearcher(oracle, nil, nil, nil)

	res, err := s.Search(context.Background(), Params{Text: "jazz", ScoreThreshold: 0.3})
	require.NoError(t, err)
	require.Len(t, res, 2, "hits below the threshold must be dropped")
	assert.Equal(t, uint64(1), res[0].ID)
	assert.Equal(t, uint64(2), res[1].ID)

	// Structural-only query: zero scores, threshold must be skipped.
	oracle.onQuery = fixedHits(
		hit(1, 0, "Jazz Night", "hanoi", "music"),
		hit(2, 0, "Jazz Brunch", "hanoi", "music"),
		hit(3, 0, "Poetry Slam", "hanoi", "art"),
	)
	res, err = s.Search(context.Background(), Params{Text: "", City: "hanoi", ScoreThreshold: 0.3})
	require.NoError(t, err)
	assert.Len(t, res, 3, "threshold must not apply without query text")
}

func TestSearchPreservesOracleOrder(t *testing.T) {
	oracle := &fakeOracle{onQuery: fixedHits(
		hit(5, 0.9, "A", "hanoi"),
		hit(2, 0.8, "B", "hanoi"),
		hit(9, 0.7, "C", "hanoi"),
	)}
	s := newTestSearcher(oracle, nil, nil, nil)

	res, err := s.Search(context.Background(), Params{Text: "x"})
	require.NoError(t, err)
	ids := []uint64{res[0].ID, res[1].ID, res[2].ID}
	assert.Equal(t, []uint64{5, 2, 9}, ids)
}

func TestSearchCacheHitSkipsOracle(t *testing.T) {
	oracle := &fakeOracle{onQuery: fixedHits(hit(1, 0.9, "Jazz Night", "hanoi", "music"))}
	st := newMemStore()
	s := newTestSearcher(oracle, st, nil, nil)

	p := Params{Text: "jazz", City: "Hanoi", Limit: 5}
	_, err := s.Search(context.Background(), p)
	require.NoError(t, err)

	// Same base parameters but a different user: same entry, no new query.
	p.UserID = "user-1"
	_, err = s.Search(context.Background(), p)
	require.NoError(t, err)

	assert.Equal(t, 1, oracle.queries, "second call must be a cache hit")
}

func TestCachedValueCarriesNoAnnotation(t *testing.T) {
	oracle := &fakeOracle{onQuery: fixedHits(hit(1, 0.9, "Jazz Night", "hanoi", "music"))}
	st := newMemStore()
	s := newTestSearcher(oracle, st, &fakeInterests{ids: map[uint64]struct{}{1: {}}}, nil)

	res, err := s.Search(context.Background(), Params{Text: "jazz", UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.True(t, res[0].Bookmarked)

	require.Len(t, st.data, 1)
	for _, raw := range st.data {
		assert.NotContains(t, string(raw), "bookmarked",
			"cache entries must stay user independent")
		assert.NotContains(t, string(raw), index.FieldDocument,
			"the raw text blob must be stripped before caching")
	}
}

func TestSearchAnnotationFailureDegrades(t *testing.T) {
	oracle := &fakeOracle{onQuery: fixedHits(
		hit(1, 0.9, "Jazz Night", "hanoi", "music"),
		hit(2, 0.8, "Jazz Brunch", "hanoi", "music"),
	)}
	s := newTestSearcher(oracle, nil, &fakeInterests{err: errors.New("db down")}, nil)

	res, err := s.Search(context.Background(), Params{Text: "jazz", UserID: "user-1"})
	require.NoError(t, err, "annotation failure must not fail the request")
	for _, r := range res {
		assert.False(t, r.Bookmarked)
	}
}

func TestAnnotateIdempotent(t *testing.T) {
	s := newTestSearcher(&fakeOracle{}, nil, &fakeInterests{ids: map[uint64]struct{}{2: {}}}, nil)
	base := []model.EventSummary{{ID: 1}, {ID: 2}, {ID: 3}}

	first := s.annotate(context.Background(), base, "user-1")
	second := s.annotate(context.Background(), base, "user-1")
	assert.Equal(t, first, second)
	assert.False(t, first[0].Bookmarked)
	assert.True(t, first[1].Bookmarked)
}

func TestSearchNoUserAllFlagsFalse(t *testing.T) {
	// End-to-end shape: text query with threshold, no user.
	oracle := &fakeOracle{onQuery: fixedHits(
		hit(10, 0.8, "Jazz Festival", "hanoi", "music"),
		hit(11, 0.6, "Jazz Open Air", "hanoi", "music"),
		hit(12, 0.2, "Jazz Workshop", "hanoi", "music"),
	)}
	s := newTestSearcher(oracle, nil, &fakeInterests{ids: map[uint64]struct{}{10: {}}}, nil)

	res, err := s.Search(context.Background(), Params{
		Text:           "jazz festival",
		City:           "Hanoi",
		Categories:     []string{"music"},
		Limit:          5,
		ScoreThreshold: 0.3,
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint64(10), res[0].ID)
	assert.Equal(t, uint64(11), res[1].ID)
	assert.GreaterOrEqual(t, res[0].Score, res[1].Score)
	for _, r := range res {
		assert.False(t, r.Bookmarked, "anonymous callers get unannotated results")
	}
}

func TestSearchMalformedDateFails(t *testing.T) {
	s := newTestSearcher(&fakeOracle{onQuery: fixedHits()}, nil, nil, nil)
	_, err := s.Search(context.Background(), Params{StartDate: "garbage"})
	assert.ErrorIs(t, err, index.ErrMalformedFilter)
}

func TestEventsByCategoryOmitsFailedCategory(t *testing.T) {
	cats := &fakeCategories{cats: []model.Category{
		{Code: "music", NameEN: "Music", NameVI: "Âm nhạc"},
		{Code: "art", NameEN: "Art", NameVI: "Nghệ thuật"},
		{Code: "sport", NameEN: "Sport", NameVI: "Thể thao"},
	}}
	oracle := &fakeOracle{onQuery: func(_ string, filter *qdrant.Filter, _, _ uint64) ([]index.ScoredRecord, error) {
		keys := filter.Must[0].GetField().GetMatch().GetKeywords().GetStrings()
		if len(keys) == 1 && keys[0] == "art" {
			return nil, errors.New("shard down")
		}
		return []index.ScoredRecord{hit(1, 0, "Something", "hanoi", keys[0])}, nil
	}}
	s := newTestSearcher(oracle, nil, nil, cats)

	buckets, err := s.EventsByCategory(context.Background(), "")
	require.NoError(t, err, "one failed category must not fail the aggregate")
	assert.Len(t, buckets, 2)
	assert.Contains(t, buckets, "music")
	assert.Contains(t, buckets, "sport")
	assert.NotContains(t, buckets, "art")
	assert.Equal(t, "Music", buckets["music"].Title["en"])
}

func TestEventsByCategorySweepCachedAnnotationFresh(t *testing.T) {
	cats := &fakeCategories{cats: []model.Category{{Code: "music", NameEN: "Music"}}}
	oracle := &fakeOracle{onQuery: fixedHits(hit(1, 0, "Jazz Night", "hanoi", "music"))}
	interests := &fakeInterests{ids: map[uint64]struct{}{1: {}}}
	s := newTestSearcher(oracle, newMemStore(), interests, cats)

	anon, err := s.EventsByCategory(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, anon["music"].Events[0].Bookmarked)

	// Second call is served from the cached sweep yet gets fresh flags.
	known, err := s.EventsByCategory(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, known["music"].Events[0].Bookmarked)
	assert.Equal(t, 1, oracle.queries, "sweep must come from the cache")
}

func TestRelatedExcludesSeed(t *testing.T) {
	seed := hit(7, 0, "Jazz Night", "hanoi", "music")
	oracle := &fakeOracle{
		scroll: []index.ScoredRecord{seed},
		onQuery: fixedHits(
			hit(7, 0.99, "Jazz Night", "hanoi", "music"), // the seed ranks first
			hit(8, 0.8, "Jazz Brunch", "hanoi", "music"),
			hit(9, 0.7, "Blues Evening", "hanoi", "music"),
		),
	}
	s := newTestSearcher(oracle, nil, nil, nil)

	res, err := s.Related(context.Background(), 7, 2, "")
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, uint64(8), res[0].ID)
	assert.Equal(t, uint64(9), res[1].ID)
}

func TestRelatedUnknownEvent(t *testing.T) {
	s := newTestSearcher(&fakeOracle{}, nil, nil, nil)
	_, err := s.Related(context.Background(), 404, 4, "")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestRelatedQueryText(t *testing.T) {
	q := relatedQuery(model.EventSummary{
		Name:        "Jazz Night",
		Description: "An evening of jazz",
		Street:      "1 Trang Tien",
		City:        "hanoi",
		Categories:  []string{"music", "jazz"},
	})
	assert.True(t, strings.HasPrefix(q, "Jazz Night"))
	assert.Contains(t, q, "An evening of jazz")
	assert.Contains(t, q, "Located at 1 Trang Tien, hanoi")
	assert.Contains(t, q, "Categories: music, jazz")
}
