package syncer

import (
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

// Transform projects one relational event onto its indexed record: derived
// aggregates, lower-cased match fields and the searchable text blob. Pure;
// no I/O.
func Transform(ev model.Event, tickets []model.TicketType, showtimes []time.Time) index.Record {
	city := strings.ToLower(firstNonEmpty(ev.CityNameEN, ev.CityName))
	cats := make([]any, 0, len(ev.Categories))
	catStrs := make([]string, 0, len(ev.Categories))
	for _, c := range ev.Categories {
		lc := strings.ToLower(c)
		cats = append(cats, lc)
		catStrs = append(catStrs, lc)
	}

	payload := map[string]any{
		index.FieldID:          int64(ev.ID),
		index.FieldName:        ev.Name,
		index.FieldDescription: ev.Description,
		index.FieldCity:        city,
		index.FieldDistrict:    firstNonEmpty(ev.DistrictNameEN, ev.DistrictName),
		index.FieldWard:        firstNonEmpty(ev.WardNameEN, ev.WardName),
		index.FieldStreet:      ev.Street,
		index.FieldCategories:  cats,
		index.FieldLogoURL:     ev.LogoURL,
	}
	if p := PriceFloor(tickets); p != nil {
		payload[index.FieldLowestPrice] = *p
	}
	if t := SoonestStart(showtimes); t != nil {
		payload[index.FieldSoonestStartTime] = t.UTC().Unix()
	}
	if ev.Latitude != nil && ev.Longitude != nil {
		payload[index.FieldLocation] = map[string]any{
			"lat": *ev.Latitude,
			"lon": *ev.Longitude,
		}
	}

	return index.Record{
		ID:       ev.ID,
		Document: documentText(ev, catStrs),
		Payload:  payload,
	}
}

// PriceFloor computes the minimum viable ticket price: any free ticket makes
// the floor zero, otherwise the minimum of the non-null prices; nil when no
// priced ticket exists.
func PriceFloor(tickets []model.TicketType) *float64 {
	for _, t := range tickets {
		if t.IsFree {
			zero := 0.0
			return &zero
		}
	}
	var floor *float64
	for _, t := range tickets {
		if t.Price == nil {
			continue
		}
		if floor == nil || *t.Price < *floor {
			v := *t.Price
			floor = &v
		}
	}
	return floor
}

// SoonestStart returns the earliest showtime, or nil when there is none.
func SoonestStart(times []time.Time) *time.Time {
	var soonest *time.Time
	for _, t := range times {
		if soonest == nil || t.Before(*soonest) {
			v := t
			soonest = &v
		}
	}
	return soonest
}

// documentText concatenates the fields that feed relevance scoring. Location
// uses the local-language names, matching what users type.
func documentText(ev model.Event, cats []string) string {
	var locParts []string
	for _, p := range []string{ev.Street, ev.WardName, ev.DistrictName, ev.CityName} {
		if p != "" {
			locParts = append(locParts, p)
		}
	}
	return fmt.Sprintf("%s - %s. Located at %s. Categories: %s",
		ev.Name, ev.Description, strings.Join(locParts, ", "), strings.Join(cats, ", "))
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
