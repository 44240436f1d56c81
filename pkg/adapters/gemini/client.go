// Package gemini implements ports.Backend for the Google Gemini API.
//
// Every stage is a single GenerateContent call with the stage system prompt as
// the system instruction and a JSON response MIME type.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/gazette/pkg/domain"
	"github.com/aretw0/gazette/pkg/ports"
	"google.golang.org/genai"
)

const (
	DefaultModel       = "gemini-2.5-flash"
	defaultTemperature = 0.3
)

// Interface compliance checks.
var (
	_ ports.Backend       = (*Client)(nil)
	_ ports.HealthChecker = (*Client)(nil)
	_ ports.ModelLister   = (*Client)(nil)
)

// Client implements ports.Backend over the genai SDK.
type Client struct {
	client      *genai.Client
	model       string
	temperature float32
	baseURL     string
}

// Option configures a Client.
type Option func(*Client)

// WithModel sets the model ID.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(c *Client) { c.temperature = t }
}

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = url }
}

// New creates a Gemini client with the given API key.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w: api key is required", domain.ErrValidation)
	}
	c := &Client{
		model:       DefaultModel,
		temperature: defaultTemperature,
	}
	for _, o := range opts {
		o(c)
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if c.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
	}
	gc, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	c.client = gc
	return c, nil
}

// Model returns the configured model ID.
func (c *Client) Model() string { return c.model }

// Invoke sends the stage prompt and returns the response text.
func (c *Client) Invoke(ctx context.Context, stage domain.StageName, prompt domain.Prompt) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, Contents(prompt), BuildConfig(prompt, c.temperature))
	if err != nil {
		return "", fmt.Errorf("gemini %s: %w", stage, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("gemini %s: empty response", stage)
	}
	return text, nil
}

// Models lists the models available to the API key.
func (c *Client) Models(ctx context.Context) ([]string, error) {
	page, err := c.client.Models.List(ctx, &genai.ListModelsConfig{})
	if err != nil {
		return nil, fmt.Errorf("gemini models: %w", err)
	}
	names := make([]string, 0, len(page.Items))
	for _, m := range page.Items {
		names = append(names, strings.TrimPrefix(m.Name, "models/"))
	}
	return names, nil
}

// Health reports whether the configured model can be resolved.
func (c *Client) Health(ctx context.Context) error {
	if _, err := c.client.Models.Get(ctx, c.model, nil); err != nil {
		return fmt.Errorf("gemini unreachable: %w", err)
	}
	return nil
}

// Contents converts the user half of a prompt to genai contents.
// Exported for testing.
func Contents(prompt domain.Prompt) []*genai.Content {
	return []*genai.Content{{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt.User}},
	}}
}

// BuildConfig returns the generation config for a stage prompt.
// Exported for testing.
func BuildConfig(prompt domain.Prompt, temperature float32) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temperature,
	}
	if prompt.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: prompt.System}},
		}
	}
	return config
}
