// Package pantry defines the typed records stored for each owner: pantry
// items, recipes, and the MacroProfile nutrient vector the hydration handlers
// fill in. It also carries the unit and category tables used by nutrition
// lookups.
package pantry
