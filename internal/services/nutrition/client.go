package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"pantrypal/internal/pantry"
	"pantrypal/internal/services"
)

const (
	defaultBaseURL        = "https://api.nal.usda.gov/fdc/v1"
	defaultHTTPTimeout    = 15 * time.Second
	defaultRetryMaxDelay  = 10 * time.Second
	defaultRetryBaseDelay = 500 * time.Millisecond
	defaultRetryAttempts  = 3
	maxSuggestions        = 5
	searchPageSize        = 25
)

// Config captures the runtime settings required to talk to FoodData Central.
type Config struct {
	APIKey            string
	BaseURL           string
	TimeoutSeconds    int
	RequestsPerSecond float64
	Burst             int
}

// Food is one search hit.
type Food struct {
	FDCID        int64  `json:"fdcId"`
	Description  string `json:"description"`
	FoodCategory string `json:"foodCategory"`
	BrandOwner   string `json:"brandOwner"`
	GTINUPC      string `json:"gtinUpc"`
	Ingredients  string `json:"ingredients"`
	DataType     string `json:"dataType"`
}

// Suggestion is an autocomplete entry.
type Suggestion struct {
	Name     string          `json:"name"`
	FDCID    string          `json:"fdc_id"`
	Category pantry.Category `json:"category"`
}

// Product is the result of a barcode lookup.
type Product struct {
	ProductName string `json:"product_name"`
	Brand       string `json:"brand,omitempty"`
	Category    string `json:"category,omitempty"`
	FDCID       string `json:"fdc_id"`
	Ingredients string `json:"ingredients,omitempty"`
	Source      string `json:"source"`
}

// Client wraps the USDA FoodData Central search and detail endpoints.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	titler     cases.Caser

	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
	sleeper          func(time.Duration)
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryMaxAttempts overrides the default retry count.
func WithRetryMaxAttempts(attempts int) Option {
	return func(c *Client) {
		c.retryMaxAttempts = attempts
	}
}

// WithRetryBackoff overrides the retry backoff delays.
func WithRetryBackoff(baseDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.retryBaseDelay = baseDelay
		c.retryMaxDelay = maxDelay
	}
}

// WithSleeper overrides how retry sleeps are performed (useful for tests).
func WithSleeper(sleeper func(time.Duration)) Option {
	return func(c *Client) {
		c.sleeper = sleeper
	}
}

// NewClient constructs a FoodData Central client.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:            strings.TrimSpace(cfg.APIKey),
			BaseURL:           strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
			TimeoutSeconds:    cfg.TimeoutSeconds,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		},
		httpClient:       &http.Client{Timeout: timeout},
		titler:           cases.Title(language.English),
		retryMaxAttempts: defaultRetryAttempts,
		retryBaseDelay:   defaultRetryBaseDelay,
		retryMaxDelay:    defaultRetryMaxDelay,
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Search returns the FDC id of the best match for name.
func (c *Client) Search(ctx context.Context, name string) (int64, error) {
	foods, err := c.SearchFoods(ctx, name)
	if err != nil {
		return 0, err
	}
	if len(foods) == 0 {
		return 0, services.Wrap(services.ErrNotFound, "nutrition", "search", fmt.Sprintf("no match for %q", name), nil)
	}
	return foods[0].FDCID, nil
}

// SearchFoods returns the raw search hits for query.
func (c *Client) SearchFoods(ctx context.Context, query string) ([]Food, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "nutrition", "search", "query required", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("pageSize", strconv.Itoa(searchPageSize))

	var payload struct {
		Foods []Food `json:"foods"`
	}
	if err := c.getJSON(ctx, "search", "/foods/search", params, &payload); err != nil {
		return nil, err
	}
	return payload.Foods, nil
}

// FetchDetails loads the per-100 g nutrient profile for an FDC id.
func (c *Client) FetchDetails(ctx context.Context, fdcID int64) (pantry.MacroProfile, error) {
	params := url.Values{}
	params.Set("format", "full")

	var payload struct {
		FDCID         int64          `json:"fdcId"`
		Description   string         `json:"description"`
		FoodNutrients []foodNutrient `json:"foodNutrients"`
	}
	if err := c.getJSON(ctx, "details", "/food/"+strconv.FormatInt(fdcID, 10), params, &payload); err != nil {
		return pantry.MacroProfile{}, err
	}
	return profileFromNutrients(payload.FoodNutrients), nil
}

// Lookup resolves name to a per-100 g nutrient profile.
func (c *Client) Lookup(ctx context.Context, name string) (pantry.MacroProfile, error) {
	fdcID, err := c.Search(ctx, name)
	if err != nil {
		return pantry.MacroProfile{}, err
	}
	return c.FetchDetails(ctx, fdcID)
}

// LookupScaled resolves name and scales the profile to quantity in unit.
func (c *Client) LookupScaled(ctx context.Context, name string, quantity float64, unit string) (pantry.MacroProfile, error) {
	if quantity <= 0 {
		return pantry.MacroProfile{}, services.Wrap(services.ErrValidation, "nutrition", "lookup", "quantity must be positive", nil)
	}
	grams, err := pantry.ConvertToGrams(quantity, unit)
	if err != nil {
		return pantry.MacroProfile{}, err
	}
	profile, err := c.Lookup(ctx, name)
	if err != nil {
		return pantry.MacroProfile{}, err
	}
	return profile.Per100g(grams), nil
}

// Suggest returns up to five autocomplete suggestions, optionally limited to
// one category.
func (c *Client) Suggest(ctx context.Context, query string, category pantry.Category) ([]Suggestion, error) {
	foods, err := c.SearchFoods(ctx, query)
	if err != nil {
		return nil, err
	}
	suggestions := make([]Suggestion, 0, maxSuggestions)
	for _, food := range foods {
		cat := pantry.MapCategory(food.FoodCategory)
		if category != "" && cat != category {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			Name:     c.titler.String(strings.ToLower(food.Description)),
			FDCID:    strconv.FormatInt(food.FDCID, 10),
			Category: cat,
		})
		if len(suggestions) >= maxSuggestions {
			break
		}
	}
	return suggestions, nil
}

// LookupUPC resolves a barcode to its FoodData Central product.
func (c *Client) LookupUPC(ctx context.Context, upc string) (Product, error) {
	upc = strings.TrimSpace(upc)
	foods, err := c.SearchFoods(ctx, upc)
	if err != nil {
		return Product{}, err
	}
	if len(foods) == 0 {
		return Product{}, services.Wrap(services.ErrNotFound, "nutrition", "upc", fmt.Sprintf("no product for %q", upc), nil)
	}
	best := foods[0]
	for _, food := range foods {
		if food.GTINUPC != "" && strings.TrimLeft(food.GTINUPC, "0") == strings.TrimLeft(upc, "0") {
			best = food
			break
		}
	}
	return Product{
		ProductName: c.titler.String(strings.ToLower(best.Description)),
		Brand:       best.BrandOwner,
		Category:    best.FoodCategory,
		FDCID:       strconv.FormatInt(best.FDCID, 10),
		Ingredients: best.Ingredients,
		Source:      "usda",
	}, nil
}

// HealthCheck verifies the API key by issuing a tiny search.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "nutrition", "health", "api key required", nil)
	}
	params := url.Values{}
	params.Set("query", "apple")
	params.Set("pageSize", "1")
	var payload struct {
		TotalHits int `json:"totalHits"`
	}
	return c.getJSON(ctx, "health", "/foods/search", params, &payload)
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, target any) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "nutrition", op, "api key required", nil)
	}
	params.Set("api_key", c.cfg.APIKey)
	endpoint := c.cfg.BaseURL + path + "?" + params.Encode()

	attempts := c.retryAttempts()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		body, err := c.getOnce(ctx, endpoint)
		if err == nil {
			if err := json.Unmarshal(body, target); err != nil {
				return services.Wrap(services.ErrLookupFailed, "nutrition", op, "decode response", err)
			}
			return nil
		}

		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return services.Wrap(services.ErrNotFound, "nutrition", op, "", err)
		}
		lastErr = err
		delay, retry := c.retryDelay(ctx, err, attempt, attempts)
		if !retry {
			break
		}
		if err := c.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}
	if errors.Is(lastErr, context.Canceled) {
		return lastErr
	}
	return services.Wrap(services.ErrLookupFailed, "nutrition", op, fmt.Sprintf("failed after %d attempt(s)", attempts), lastErr)
}

func (c *Client) getOnce(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("usda request: new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("usda request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("usda request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       string(body),
			RetryAfter: retryAfter,
		}
	}
	return body, nil
}
