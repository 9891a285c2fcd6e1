package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"pantrypal/internal/services"
)

const (
	defaultModel       = openai.CreateImageModelDallE2
	defaultSize        = openai.CreateImageSize256x256
	defaultHTTPTimeout = 60 * time.Second
	maxImageBytes      = 8 << 20
)

// Config captures the runtime settings for an OpenAI-compatible image API.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	TimeoutSeconds int
}

// Client generates placeholder photos for pantry items and recipes.
type Client struct {
	cfg        Config
	api        *openai.Client
	httpClient *http.Client
}

// NewClient constructs an image generation client.
func NewClient(cfg Config) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = defaultModel
	}
	if strings.TrimSpace(cfg.Size) == "" {
		cfg.Size = defaultSize
	}

	httpClient := &http.Client{Timeout: timeout}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	apiCfg.HTTPClient = httpClient

	return &Client{
		cfg:        cfg,
		api:        openai.NewClientWithConfig(apiCfg),
		httpClient: httpClient,
	}
}

// Prompt returns the generation prompt for a subject name.
func Prompt(name string) string {
	return fmt.Sprintf("High quality photo of %s against a plain background.", strings.TrimSpace(name))
}

// Generate renders a photo of name and returns the PNG bytes.
func (c *Client) Generate(ctx context.Context, name string) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "imagegen", "generate", "api key required", nil)
	}
	if strings.TrimSpace(name) == "" {
		return nil, services.Wrap(services.ErrValidation, "imagegen", "generate", "subject name required", nil)
	}
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         Prompt(name),
		Model:          c.cfg.Model,
		N:              1,
		Size:           c.cfg.Size,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "create image", describeAPIError(err), err)
	}
	if len(resp.Data) == 0 {
		return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "create image", "empty response", nil)
	}

	data := resp.Data[0]
	switch {
	case data.B64JSON != "":
		img, err := base64.StdEncoding.DecodeString(data.B64JSON)
		if err != nil {
			return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "decode image", "", err)
		}
		return img, nil
	case data.URL != "":
		return c.download(ctx, data.URL)
	default:
		return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "create image", "response carried no image", nil)
	}
}

// HealthCheck verifies the provider accepts the configured credentials.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "imagegen", "health", "api key required", nil)
	}
	if _, err := c.api.ListModels(ctx); err != nil {
		return services.Wrap(services.ErrGenerationFailed, "imagegen", "health", describeAPIError(err), err)
	}
	return nil
}

// Some providers ignore response_format and hand back a short-lived URL.
func (c *Client) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "download", "", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "download", "", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "download", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}
	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrGenerationFailed, "imagegen", "download", "read body", err)
	}
	return img, nil
}

func describeAPIError(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("http %d", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("http %d", reqErr.HTTPStatusCode)
	}
	return ""
}
