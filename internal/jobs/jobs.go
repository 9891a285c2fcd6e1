package jobs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
)

// Type is the job-type tag routing a message to its handler.
type Type string

const (
	TypeItem   Type = "ITEM"
	TypeRecipe Type = "RECIPE"
	TypeImage  Type = "IMAGE"
)

// Known reports whether t names a supported job type.
func (t Type) Known() bool {
	switch t {
	case TypeItem, TypeRecipe, TypeImage:
		return true
	default:
		return false
	}
}

// Payload carries record identifiers and display text. Exactly one of ItemID
// and RecipeID identifies the target record.
type Payload struct {
	UserID   string `json:"user_id"`
	ItemID   string `json:"item_id,omitempty"`
	RecipeID string `json:"recipe_id,omitempty"`
	ItemName string `json:"item_name,omitempty"`
}

// Job is one hydration message.
type Job struct {
	Type    Type    `json:"jobType"`
	Payload Payload `json:"payload"`
}

// NewItemJob builds the macro hydration job for a pantry item.
func NewItemJob(ownerID, itemID, name string) Job {
	return Job{Type: TypeItem, Payload: Payload{UserID: ownerID, ItemID: itemID, ItemName: name}}
}

// NewRecipeJob builds the aggregate macro job for a recipe.
func NewRecipeJob(ownerID, recipeID string) Job {
	return Job{Type: TypeRecipe, Payload: Payload{UserID: ownerID, RecipeID: recipeID}}
}

// NewItemImageJob builds an image job targeting a pantry item.
func NewItemImageJob(ownerID, itemID, name string) Job {
	return Job{Type: TypeImage, Payload: Payload{UserID: ownerID, ItemID: itemID, ItemName: name}}
}

// NewRecipeImageJob builds an image job targeting a recipe.
func NewRecipeImageJob(ownerID, recipeID, name string) Job {
	return Job{Type: TypeImage, Payload: Payload{UserID: ownerID, RecipeID: recipeID, ItemName: name}}
}

// Target returns the record type and id a job writes to.
func (j Job) Target() (pantry.RecordType, string) {
	if j.Payload.RecipeID != "" {
		return pantry.RecordRecipe, j.Payload.RecipeID
	}
	return pantry.RecordItem, j.Payload.ItemID
}

// RecordKey identifies the target record for per-record serialization.
func (j Job) RecordKey() string {
	kind, id := j.Target()
	return j.Payload.UserID + "/" + pantry.SortKey(kind, id)
}

// Validate checks that the payload carries the fields the job type needs.
func (j Job) Validate() error {
	if !j.Type.Known() {
		return fmt.Errorf("%w: unknown job type %q", services.ErrMalformedJob, j.Type)
	}
	p := j.Payload
	if strings.TrimSpace(p.UserID) == "" {
		return fmt.Errorf("%w: %s job missing user_id", services.ErrMalformedJob, j.Type)
	}
	switch j.Type {
	case TypeItem:
		if p.ItemID == "" {
			return fmt.Errorf("%w: ITEM job missing item_id", services.ErrMalformedJob)
		}
		if p.RecipeID != "" {
			return fmt.Errorf("%w: ITEM job must not name recipe_id", services.ErrMalformedJob)
		}
		if strings.TrimSpace(p.ItemName) == "" {
			return fmt.Errorf("%w: ITEM job missing item_name", services.ErrMalformedJob)
		}
	case TypeRecipe:
		if p.RecipeID == "" {
			return fmt.Errorf("%w: RECIPE job missing recipe_id", services.ErrMalformedJob)
		}
		if p.ItemID != "" {
			return fmt.Errorf("%w: RECIPE job must not name item_id", services.ErrMalformedJob)
		}
	case TypeImage:
		if p.ItemID == "" && p.RecipeID == "" {
			return fmt.Errorf("%w: IMAGE job missing item_id or recipe_id", services.ErrMalformedJob)
		}
		if p.ItemID != "" && p.RecipeID != "" {
			return fmt.Errorf("%w: IMAGE job names both item_id and recipe_id", services.ErrMalformedJob)
		}
		if strings.TrimSpace(p.ItemName) == "" {
			return fmt.Errorf("%w: IMAGE job missing item_name", services.ErrMalformedJob)
		}
	}
	return nil
}

// Encode renders the wire form of a job.
func Encode(j Job) ([]byte, error) {
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(j)
}

// Decode parses a queue message body. A missing jobType is read as ITEM.
// The returned job is not validated; unknown tags come back as-is so the
// caller can log them.
func Decode(body []byte) (Job, error) {
	var j Job
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return j, fmt.Errorf("%w: empty message body", services.ErrMalformedJob)
	}
	if err := json.Unmarshal(body, &j); err != nil {
		return j, fmt.Errorf("%w: decode job: %v", services.ErrMalformedJob, err)
	}
	j.Type = Type(strings.ToUpper(strings.TrimSpace(string(j.Type))))
	if j.Type == "" {
		j.Type = TypeItem
	}
	return j, nil
}

// Delivery is one claimed queue message. ID is transport-specific and is
// passed back unchanged when acknowledging.
type Delivery struct {
	ID      string
	Queue   string
	Body    []byte
	Attempt int
}
