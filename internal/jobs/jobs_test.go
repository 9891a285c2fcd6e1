package jobs_test

import (
	"errors"
	"strings"
	"testing"

	"pantrypal/internal/jobs"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
)

func TestEncodeProducesWireShape(t *testing.T) {
	body, err := jobs.Encode(jobs.NewItemJob("u1", "i1", "Rice"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := `{"jobType":"ITEM","payload":{"user_id":"u1","item_id":"i1","item_name":"Rice"}}`
	if string(body) != want {
		t.Fatalf("unexpected wire form:\n got %s\nwant %s", body, want)
	}
}

func TestDecodeDefaultsMissingTypeToItem(t *testing.T) {
	job, err := jobs.Decode([]byte(`{"payload":{"user_id":"u1","item_id":"i1","item_name":"Oats"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if job.Type != jobs.TypeItem {
		t.Fatalf("expected ITEM, got %q", job.Type)
	}
	if err := job.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestDecodeKeepsUnknownTypeForValidation(t *testing.T) {
	job, err := jobs.Decode([]byte(`{"jobType":"BOGUS","payload":{"user_id":"u1"}}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if job.Type != "BOGUS" {
		t.Fatalf("expected BOGUS tag preserved, got %q", job.Type)
	}
	if err := job.Validate(); !errors.Is(err, services.ErrMalformedJob) {
		t.Fatalf("expected malformed job, got %v", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, body := range []string{"", "   ", "not json", `["ITEM"]`} {
		if _, err := jobs.Decode([]byte(body)); !errors.Is(err, services.ErrMalformedJob) {
			t.Fatalf("Decode(%q) expected malformed job, got %v", body, err)
		}
	}
}

func TestValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		job  jobs.Job
		want string
	}{
		{"item without name", jobs.Job{Type: jobs.TypeItem, Payload: jobs.Payload{UserID: "u", ItemID: "i"}}, "item_name"},
		{"item without id", jobs.Job{Type: jobs.TypeItem, Payload: jobs.Payload{UserID: "u", ItemName: "x"}}, "item_id"},
		{"recipe without id", jobs.Job{Type: jobs.TypeRecipe, Payload: jobs.Payload{UserID: "u"}}, "recipe_id"},
		{"image without target", jobs.Job{Type: jobs.TypeImage, Payload: jobs.Payload{UserID: "u", ItemName: "x"}}, "item_id or recipe_id"},
		{"missing owner", jobs.NewRecipeJob("", "r"), "user_id"},
		{"item naming a recipe", jobs.Job{Type: jobs.TypeItem, Payload: jobs.Payload{UserID: "u", ItemID: "i", RecipeID: "r", ItemName: "x"}}, "recipe_id"},
		{"recipe naming an item", jobs.Job{Type: jobs.TypeRecipe, Payload: jobs.Payload{UserID: "u", RecipeID: "r", ItemID: "i"}}, "item_id"},
	}
	for _, tc := range cases {
		err := tc.job.Validate()
		if !errors.Is(err, services.ErrMalformedJob) {
			t.Fatalf("%s: expected malformed job, got %v", tc.name, err)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestTargetAndRecordKey(t *testing.T) {
	kind, id := jobs.NewRecipeImageJob("u1", "r1", "Stew").Target()
	if kind != pantry.RecordRecipe || id != "r1" {
		t.Fatalf("unexpected target %s/%s", kind, id)
	}
	item := jobs.NewItemJob("u1", "i1", "Rice")
	image := jobs.NewItemImageJob("u1", "i1", "Rice")
	if item.RecordKey() != image.RecordKey() {
		t.Fatalf("expected jobs on the same item to share a key: %q vs %q", item.RecordKey(), image.RecordKey())
	}
	if item.RecordKey() == jobs.NewItemJob("u2", "i1", "Rice").RecordKey() {
		t.Fatal("expected different owners to produce different keys")
	}
}
