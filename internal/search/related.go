package search

import (
	"context"
	"strings"

	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

// Related finds events similar to the given one by replaying the seed's own
// indexed text as the query. The seed event is excluded from the results.
func (s *Searcher) Related(ctx context.Context, eventID uint64, limit uint64, userID string) ([]model.SearchResult, error) {
	recs, err := s.oracle.ScrollByMatch(ctx, index.FieldID, int64(eventID), 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrEventNotFound
	}
	seed := index.SummaryFromPayload(recs[0].ID, 0, recs[0].Payload)

	// Fetch one extra hit since the seed itself usually ranks first.
	res, err := s.Search(ctx, Params{
		Text:   relatedQuery(seed),
		Limit:  limit + 1,
		UserID: userID,
	})
	if err != nil {
		return nil, err
	}

	out := make([]model.SearchResult, 0, limit)
	for _, r := range res {
		if r.ID == eventID {
			continue
		}
		out = append(out, r)
		if uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func relatedQuery(e model.EventSummary) string {
	parts := []string{e.Name}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if loc := locationLine(e); loc != "" {
		parts = append(parts, "Located at "+loc)
	}
	if len(e.Categories) > 0 {
		parts = append(parts, "Categories: "+strings.Join(e.Categories, ", "))
	}
	return strings.Join(parts, ". ")
}

func locationLine(e model.EventSummary) string {
	var parts []string
	for _, p := range []string{e.Street, e.Ward, e.District, e.City} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}
