package model

// Category is one row of the categories lookup table.
type Category struct {
	ID     uint64 `json:"id"`
	Code   string `json:"code"`
	NameEN string `json:"name_en"`
	NameVI string `json:"name_vi"`
	Image  string `json:"image"`
}

// City is one row of the cities lookup table. OriginID is the upstream
// identifier that event rows reference.
type City struct {
	ID       uint64 `json:"id"`
	OriginID uint64 `json:"origin_id"`
	Name     string `json:"name"`
	NameEN   string `json:"name_en"`
}
