// Package nutrition provides a USDA FoodData Central client.
//
// Lookup is a two-step call: Search resolves a free-text name to the first
// matching FDC id, and FetchDetails loads that food's nutrient rows and maps
// them onto a per-100 g pantry.MacroProfile. Both steps report
// services.ErrNotFound when nothing matches (empty search or HTTP 404) and
// services.ErrLookupFailed for transport or provider errors, so callers can
// treat "no data" as benign while still surfacing outages.
//
// # Retry Behaviour
//
// Requests retry on HTTP 408/429/5xx and network timeouts with exponential
// backoff, honouring Retry-After. An optional token bucket (requests per
// second plus burst) keeps recipe fan-out under the provider's rate limit.
//
// # Entry Points
//
// NewClient: construct from Config.
// Client.Lookup / Client.LookupScaled: nutrient profile for a name.
// Client.Suggest: autocomplete, at most five entries, optional category.
// Client.LookupUPC: barcode to product.
package nutrition
