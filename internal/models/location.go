package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Location is a saved place inside a collection. Rating and Comment are
// pointers because null is a persisted value, distinct from the defaults.
type Location struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Visited   bool      `json:"visited"`
	Rating    *int      `json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

type CreateLocationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// CreateLocationResponse echoes the parent collection id alongside the
// created location.
type CreateLocationResponse struct {
	CollectionID string    `json:"collectionId"`
	Location     *Location `json:"location"`
}

func (r *CreateLocationRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "name is required"
	}
	if strings.TrimSpace(r.Address) == "" {
		errors["address"] = "address is required"
	}

	return errors
}

// LocationPatch is a sparse update to a location. It keeps the raw JSON per
// field so that an explicit null (clear rating/comment) can be told apart
// from a field that was not sent at all.
type LocationPatch struct {
	fields map[string]json.RawMessage
}

func (p *LocationPatch) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &p.fields)
}

// LocationUpdate is a validated patch. A nil pointer with its Set flag on
// means the field is being cleared to null.
type LocationUpdate struct {
	Name       *string
	Address    *string
	Visited    *bool
	Rating     *int
	SetRating  bool
	Comment    *string
	SetComment bool
}

func (u *LocationUpdate) Empty() bool {
	return u.Name == nil && u.Address == nil && u.Visited == nil && !u.SetRating && !u.SetComment
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Resolve validates every field present in the patch. Unknown fields are
// ignored. It returns the validated update and a field -> message map of
// validation failures.
func (p *LocationPatch) Resolve() (*LocationUpdate, map[string]string) {
	upd := &LocationUpdate{}
	errors := make(map[string]string)

	for field, raw := range p.fields {
		switch field {
		case "name":
			var v string
			if err := json.Unmarshal(raw, &v); err != nil || strings.TrimSpace(v) == "" {
				errors["name"] = "name must be a non-empty string"
				continue
			}
			upd.Name = &v
		case "address":
			var v string
			if err := json.Unmarshal(raw, &v); err != nil || strings.TrimSpace(v) == "" {
				errors["address"] = "address must be a non-empty string"
				continue
			}
			upd.Address = &v
		case "visited":
			var v bool
			if isJSONNull(raw) {
				errors["visited"] = "visited must be a boolean"
				continue
			}
			if err := json.Unmarshal(raw, &v); err != nil {
				errors["visited"] = "visited must be a boolean"
				continue
			}
			upd.Visited = &v
		case "rating":
			if isJSONNull(raw) {
				upd.SetRating = true
				continue
			}
			var v int
			if err := json.Unmarshal(raw, &v); err != nil || v < 1 || v > 5 {
				errors["rating"] = "rating must be null or an integer from 1 to 5"
				continue
			}
			upd.Rating = &v
			upd.SetRating = true
		case "comment":
			if isJSONNull(raw) {
				upd.SetComment = true
				continue
			}
			var v string
			if err := json.Unmarshal(raw, &v); err != nil {
				errors["comment"] = "comment must be null or a string"
				continue
			}
			upd.Comment = &v
			upd.SetComment = true
		}
	}

	return upd, errors
}
