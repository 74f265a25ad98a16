// Package model defines the shared domain structs for the event search
// service. Events are owned by the relational store and only read here; the
// indexed projection of an event lives in the vector index and is rebuilt by
// the sync job.
package model

import "time"

// Event is one canonical event row as read from MySQL, with the localized
// location names already joined in from the cities/districts/wards tables.
//
// Fields:
//
//	ID          – events.id, also the point id in the vector index.
//	Name        – events.event_name.
//	Description – events.event_description (empty when NULL).
//	Street      – events.street.
//	Categories  – lowercase category codes parsed from the JSON column.
//	LogoURL     – events.event_logo_url.
//	CityName / CityNameEN and the district/ward pairs – localized names;
//	              the English variant wins when both are present.
//	Latitude / Longitude – optional geo point of the venue.
type Event struct {
	ID             uint64
	Name           string
	Description    string
	Street         string
	Categories     []string
	LogoURL        string
	CityName       string
	CityNameEN     string
	DistrictName   string
	DistrictNameEN string
	WardName       string
	WardNameEN     string
	Latitude       *float64
	Longitude      *float64
}

// TicketType is one price row of an event. Price is nil when the row has no
// price set; IsFree marks zero-cost tickets regardless of Price.
type TicketType struct {
	EventID uint64
	IsFree  bool
	Price   *float64
}

// Showtime is one scheduled occurrence of an event.
type Showtime struct {
	EventID   uint64
	StartTime time.Time
}
