package models

import (
	"strings"
	"time"
)

type Collection struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateCollectionRequest is a full replace of name/description, not a merge.
type UpdateCollectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (r *CreateCollectionRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "name is required"
	}

	return errors
}

func (r *UpdateCollectionRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Name) == "" {
		errors["name"] = "name is required"
	}

	return errors
}
