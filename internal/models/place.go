package models

// PlaceSummary is one text-search hit from the places API, trimmed to the
// fields the frontend renders.
type PlaceSummary struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	PlaceID  string  `json:"placeId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Rating   float64 `json:"rating,omitempty"`
	PhotoRef string  `json:"photoRef,omitempty"`
}

type PlaceDetail struct {
	Name     string   `json:"name"`
	Address  string   `json:"address"`
	Phone    string   `json:"phone,omitempty"`
	Website  string   `json:"website,omitempty"`
	Rating   float64  `json:"rating,omitempty"`
	Hours    []string `json:"hours,omitempty"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	PhotoRef string   `json:"photoRef,omitempty"`
}
