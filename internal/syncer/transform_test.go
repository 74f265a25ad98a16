package syncer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-search/internal/index"
	"github.com/iliyamo/event-search/internal/model"
)

func fptr(v float64) *float64 { return &v }

func TestPriceFloor(t *testing.T) {
	tests := []struct {
		name    string
		tickets []model.TicketType
		want    *float64
	}{
		{"no tickets", nil, nil},
		{"only null prices", []model.TicketType{{Price: nil}, {Price: nil}}, nil},
		{"minimum of priced", []model.TicketType{{Price: fptr(300)}, {Price: fptr(150)}, {Price: nil}}, fptr(150)},
		{"free ticket wins over priced", []model.TicketType{{Price: fptr(300)}, {IsFree: true}}, fptr(0)},
		{"single free", []model.TicketType{{IsFree: true}}, fptr(0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceFloor(tt.tickets)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestSoonestStart(t *testing.T) {
	assert.Nil(t, SoonestStart(nil))

	early := time.Date(2024, 5, 1, 19, 0, 0, 0, time.UTC)
	late := time.Date(2024, 6, 1, 19, 0, 0, 0, time.UTC)
	got := SoonestStart([]time.Time{late, early})
	require.NotNil(t, got)
	assert.True(t, got.Equal(early))
}

func TestTransformPayload(t *testing.T) {
	lat, lon := 21.02, 105.85
	ev := model.Event{
		ID:           42,
		Name:         "Jazz Night",
		Description:  "An evening of jazz",
		Street:       "1 Tràng Tiền",
		Categories:   []string{"Music", "JAZZ"},
		LogoURL:      "https://cdn.example/logo.png",
		CityName:     "Hà Nội",
		CityNameEN:   "Hanoi",
		DistrictName: "Hoàn Kiếm",
		WardName:     "Tràng Tiền",
		Latitude:     &lat,
		Longitude:    &lon,
	}
	show := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rec := Transform(ev, []model.TicketType{{Price: fptr(250)}}, []time.Time{show})

	assert.Equal(t, uint64(42), rec.ID)

	// Match fields are lower-cased; the English city name wins when present.
	assert.Equal(t, "hanoi", rec.Payload[index.FieldCity])
	assert.Equal(t, []any{"music", "jazz"}, rec.Payload[index.FieldCategories])

	// Display fields keep their casing.
	assert.Equal(t, "Jazz Night", rec.Payload[index.FieldName])
	assert.Equal(t, "Hoàn Kiếm", rec.Payload[index.FieldDistrict])

	assert.Equal(t, 250.0, rec.Payload[index.FieldLowestPrice])
	assert.Equal(t, show.Unix(), rec.Payload[index.FieldSoonestStartTime])
	assert.Equal(t, map[string]any{"lat": lat, "lon": lon}, rec.Payload[index.FieldLocation])
}

func TestTransformOmitsAbsentAggregates(t *testing.T) {
	rec := Transform(model.Event{ID: 1, Name: "Bare", CityName: "Huế"}, nil, nil)

	assert.NotContains(t, rec.Payload, index.FieldLowestPrice)
	assert.NotContains(t, rec.Payload, index.FieldSoonestStartTime)
	assert.NotContains(t, rec.Payload, index.FieldLocation)
	// Falls back to the local-language city name when no English one exists.
	assert.Equal(t, "huế", rec.Payload[index.FieldCity])
}

func TestTransformDocumentText(t *testing.T) {
	ev := model.Event{
		ID:           7,
		Name:         "Jazz Night",
		Description:  "An evening of jazz",
		Street:       "1 Tràng Tiền",
		Categories:   []string{"Music"},
		CityName:     "Hà Nội",
		CityNameEN:   "Hanoi",
		DistrictName: "Hoàn Kiếm",
	}
	rec := Transform(ev, nil, nil)

	// The blob uses the local-language location names, matching what users type.
	assert.Equal(t,
		"Jazz Night - An evening of jazz. Located at 1 Tràng Tiền, Hoàn Kiếm, Hà Nội. Categories: music",
		rec.Document)
}

func TestTransformDoesNotMutateInput(t *testing.T) {
	ev := model.Event{ID: 3, Name: "X", Categories: []string{"Music", "ART"}}
	Transform(ev, nil, nil)
	assert.Equal(t, []string{"Music", "ART"}, ev.Categories)
}
