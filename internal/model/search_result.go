package model

// EventSummary mirrors the indexed payload of an event minus the raw document
// blob. This is the shape that gets cached: it carries no per-user data, so
// one cached list serves every caller with the same base parameters.
type EventSummary struct {
	ID               uint64   `json:"id"`
	Name             string   `json:"eventName"`
	Description      string   `json:"event_description"`
	City             string   `json:"city"`
	District         string   `json:"district"`
	Ward             string   `json:"ward"`
	Street           string   `json:"street"`
	Categories       []string `json:"categories"`
	LogoURL          string   `json:"event_logo_url"`
	LowestPrice      *float64 `json:"lowest_price"`
	SoonestStartTime *int64   `json:"soonest_start_time"`
	Score            float32  `json:"score"`
}

// SearchResult is an EventSummary plus the per-request bookmark annotation.
// The flag is computed after any cache read and is never stored.
type SearchResult struct {
	EventSummary
	Bookmarked bool `json:"bookmarked"`
}
