package index

import (
	"github.com/qdrant/go-client/qdrant"

	"github.com/iliyamo/event-search/internal/model"
)

// Payload field names stored in the index. The sync job writes them, the
// query side reads them; keep the two in step through these constants.
const (
	FieldID               = "id"
	FieldDocument         = "document"
	FieldName             = "eventName"
	FieldDescription      = "event_description"
	FieldCity             = "city"
	FieldDistrict         = "district"
	FieldWard             = "ward"
	FieldStreet           = "street"
	FieldCategories       = "categories"
	FieldLogoURL          = "event_logo_url"
	FieldLowestPrice      = "lowest_price"
	FieldSoonestStartTime = "soonest_start_time"
	FieldLocation         = "location"
)

// SummaryFromPayload maps an indexed payload onto the public result model.
// The raw document blob is an internal detail and never leaves this package.
func SummaryFromPayload(id uint64, score float32, p map[string]*qdrant.Value) model.EventSummary {
	s := model.EventSummary{
		ID:          id,
		Score:       score,
		Name:        p[FieldName].GetStringValue(),
		Description: p[FieldDescription].GetStringValue(),
		City:        p[FieldCity].GetStringValue(),
		District:    p[FieldDistrict].GetStringValue(),
		Ward:        p[FieldWard].GetStringValue(),
		Street:      p[FieldStreet].GetStringValue(),
		LogoURL:     p[FieldLogoURL].GetStringValue(),
	}
	for _, v := range p[FieldCategories].GetListValue().GetValues() {
		s.Categories = append(s.Categories, v.GetStringValue())
	}
	if v, ok := p[FieldLowestPrice]; ok {
		price := v.GetDoubleValue()
		s.LowestPrice = &price
	}
	if v, ok := p[FieldSoonestStartTime]; ok {
		ts := v.GetIntegerValue()
		s.SoonestStartTime = &ts
	}
	return s
}
