package workflow_test

import (
	"context"
	"reflect"
	"testing"

	"pantrypal/internal/hydration"
	"pantrypal/internal/jobs"
	"pantrypal/internal/logging"
	"pantrypal/internal/pantry"
	"pantrypal/internal/services/nutrition"
	"pantrypal/internal/testsupport"
	"pantrypal/internal/workflow"
)

func TestItemJobHydratesOnlyMacros(t *testing.T) {
	usda := testsupport.NewUSDAServer(t, testsupport.Food{
		FDCID:       1001,
		Description: "RICE, WHITE, COOKED",
		Nutrients:   map[string]float64{"Energy": 130, "Protein": 5},
	})
	cfg := testsupport.NewConfig(t, testsupport.WithNutritionServer(usda.URL))
	q := testsupport.MustOpenQueue(t, cfg)
	docs := testsupport.MustOpenDocStore(t, cfg)
	ctx := context.Background()

	testsupport.PutItem(t, docs, "u1", "rice", "Rice")
	before, err := docs.GetItem(ctx, "u1", "rice")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if before.Macros != nil {
		t.Fatalf("expected unhydrated item, got %+v", before.Macros)
	}

	lookup := nutrition.NewClient(nutrition.Config{APIKey: cfg.Nutrition.APIKey, BaseURL: cfg.Nutrition.BaseURL})
	d := workflow.NewDispatcher(cfg, q, logging.NewNop())
	d.Register(jobs.TypeItem, hydration.NewItemMacros(docs, lookup, logging.NewNop()))

	enqueue(t, q, cfg.Queue.Name, jobs.NewItemJob("u1", "rice", "Rice"))
	report, err := d.DrainOnce(ctx)
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if report.Completed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	after, err := docs.GetItem(ctx, "u1", "rice")
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if after.Macros == nil || after.Macros.Protein != 5 || after.Macros.Calories != 130 {
		t.Fatalf("expected hydrated macros, got %+v", after.Macros)
	}
	after.Macros = nil
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("fields other than macros changed:\nbefore %+v\nafter  %+v", before, after)
	}
}

func TestRecipeJobScalesAndDividesByServings(t *testing.T) {
	usda := testsupport.NewUSDAServer(t,
		testsupport.Food{FDCID: 1, Description: "CHICKEN BREAST", Nutrients: map[string]float64{"Protein": 10}},
		testsupport.Food{FDCID: 2, Description: "LENTILS", Nutrients: map[string]float64{"Protein": 20}},
	)
	cfg := testsupport.NewConfig(t, testsupport.WithNutritionServer(usda.URL))
	q := testsupport.MustOpenQueue(t, cfg)
	docs := testsupport.MustOpenDocStore(t, cfg)
	ctx := context.Background()

	testsupport.PutRecipe(t, docs, pantry.Recipe{
		ID:      "stew",
		OwnerID: "u1",
		Name:    "Stew",
		Ingredients: []pantry.Ingredient{
			{ItemName: "chicken breast", Quantity: 100},
			{ItemName: "lentils", Quantity: 200},
		},
		Servings: 2,
	})

	lookup := nutrition.NewClient(nutrition.Config{APIKey: cfg.Nutrition.APIKey, BaseURL: cfg.Nutrition.BaseURL})
	d := workflow.NewDispatcher(cfg, q, logging.NewNop())
	d.Register(jobs.TypeRecipe, hydration.NewRecipeMacros(docs, lookup, 2, logging.NewNop()))

	enqueue(t, q, cfg.Queue.Name, jobs.NewRecipeJob("u1", "stew"))
	if _, err := d.DrainOnce(ctx); err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}

	recipe, err := docs.GetRecipe(ctx, "u1", "stew")
	if err != nil {
		t.Fatalf("GetRecipe: %v", err)
	}
	if recipe.TotalMacros == nil || recipe.TotalMacros.Protein != 25 {
		t.Fatalf("expected protein 25, got %+v", recipe.TotalMacros)
	}
}
