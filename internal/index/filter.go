package index

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"
)

// ErrMalformedFilter marks filter input the builder refuses to interpret,
// such as an unparseable date. Handlers translate it to a 400.
var ErrMalformedFilter = errors.New("malformed filter input")

// Date bounds are accepted in the two formats the stored data uses.
const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

// BoundingBox is a complete rectangular geo region. Construct one through
// BoxFromCorners so that partially specified regions are ignored instead of
// silently matching the wrong area.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLon float64
	MaxLon float64
}

// BoxFromCorners returns a bounding box only when all four corners are
// present; any partial specification yields nil and no geo filter is applied.
func BoxFromCorners(minLat, maxLat, minLon, maxLon *float64) *BoundingBox {
	if minLat == nil || maxLat == nil || minLon == nil || maxLon == nil {
		return nil
	}
	return &BoundingBox{MinLat: *minLat, MaxLat: *maxLat, MinLon: *minLon, MaxLon: *maxLon}
}

// FilterParams are the structural search conditions. Every zero field means
// "no condition"; active conditions always combine with AND.
type FilterParams struct {
	City       string
	Categories []string
	StartDate  string
	EndDate    string
	Box        *BoundingBox
}

// BuildFilter turns search parameters into a conjunctive filter expression
// for the index, or nil when no condition applies. Inputs are never mutated:
// normalization happens on copies.
//
// City matching is case-insensitive (values are stored lower-cased at sync
// time, so the query side lower-cases too). Date-only bounds are civil time
// in loc; an end date extends through 23:59:59 of that day.
func BuildFilter(p FilterParams, loc *time.Location) (*qdrant.Filter, error) {
	var must []*qdrant.Condition

	if p.City != "" {
		must = append(must, qdrant.NewMatch("city", strings.ToLower(p.City)))
	}

	if cats := NormalizeCategories(p.Categories); len(cats) > 0 {
		must = append(must, qdrant.NewMatchKeywords("categories", cats...))
	}

	rng := &qdrant.Range{}
	if p.StartDate != "" {
		t, err := parseBound(p.StartDate, loc, false)
		if err != nil {
			return nil, err
		}
		rng.Gte = qdrant.PtrOf(float64(t.Unix()))
	}
	if p.EndDate != "" {
		t, err := parseBound(p.EndDate, loc, true)
		if err != nil {
			return nil, err
		}
		rng.Lte = qdrant.PtrOf(float64(t.Unix()))
	}
	if rng.Gte != nil || rng.Lte != nil {
		must = append(must, qdrant.NewRange("soonest_start_time", rng))
	}

	if b := p.Box; b != nil {
		// Corner orientation matters: top-left is max-lat/min-lon,
		// bottom-right is min-lat/max-lon. Swapped corners select an
		// empty or wrong region without any error from the index.
		must = append(must, qdrant.NewGeoBoundingBox("location",
			b.MaxLat, b.MinLon, b.MinLat, b.MaxLon))
	}

	if len(must) == 0 {
		return nil, nil
	}
	return &qdrant.Filter{Must: must}, nil
}

// NormalizeCategories lower-cases category tokens and splits comma-joined
// values, so ?categories=music,art and ?categories=music&categories=art
// produce the same token set.
func NormalizeCategories(in []string) []string {
	var out []string
	for _, raw := range in {
		for _, part := range strings.Split(raw, ",") {
			if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// parseBound parses a date or date-time bound in loc. A date-only end bound
// is inclusive through the end of that calendar day.
func parseBound(s string, loc *time.Location, end bool) (time.Time, error) {
	if t, err := time.ParseInLocation(dateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: bad date %q", ErrMalformedFilter, s)
	}
	if end {
		t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
	}
	return t, nil
}
