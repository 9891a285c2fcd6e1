// Package hydration holds the enrichment handlers the dispatcher routes
// jobs to.
//
// ItemMacros (ITEM) sets a pantry item's macro profile from the nutrition
// lookup. RecipeMacros (RECIPE) aggregates ingredient profiles into a recipe's
// per-serving total. Images (IMAGE) renders a placeholder photo, stores it,
// and records the URL on the owning item or recipe.
//
// Every handler performs a partial update through the document store's
// patch helpers and assigns exactly one field. A target that was deleted
// before the job ran, or a name the nutrition lookup cannot match, is logged
// and the job completes without touching the record. Re-running a job
// writes the same value again, so redelivery is harmless.
//
// Unmatched recipe ingredients contribute zero to the total; a provider
// failure on any ingredient fails the whole recipe job so a partial sum is
// never persisted.
package hydration
