package ai

import (
	"context"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
)

// DefaultClaudeModel is the Anthropic model used when none is configured.
const DefaultClaudeModel = "claude-sonnet-4-5-20250929"

// Client wraps the Anthropic API client
type Client struct {
	client      *anthropic.Client
	model       string
	temperature float32
	maxTokens   int
	maxRetries  int
}

// ClientConfig holds Anthropic-specific configuration
type ClientConfig struct {
	APIKey         string
	Model          string
	Temperature    float64
	ProxyURL       string
	TimeoutSeconds int
	MaxTokens      int
	MaxRetries     int
	// BaseURL overrides the API root, used by tests.
	BaseURL string
}

// NewClient creates a new Claude AI client
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultClaudeModel
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 120
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	httpClient, err := newHTTPClient(cfg.ProxyURL, cfg.TimeoutSeconds)
	if err != nil {
		return nil, err
	}

	opts := []anthropic.ClientOption{anthropic.WithHTTPClient(httpClient)}
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client:      anthropic.NewClient(cfg.APIKey, opts...),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// Generate implements Provider.
func (c *Client) Generate(ctx context.Context, prompt string) (string, *Stats, error) {
	startTime := time.Now()

	response, attempts, err := retryWithBackoff(ctx, c.maxRetries, func() (anthropic.MessagesResponse, error) {
		return c.callAPI(ctx, prompt)
	})
	if err != nil {
		return "", nil, &ModelError{Provider: c.GetProviderName(), Attempts: attempts, Err: err}
	}

	var text strings.Builder
	for _, content := range response.Content {
		if content.Type == "text" && content.Text != nil {
			text.WriteString(*content.Text)
		}
	}

	stats := c.calculateStats(response, time.Since(startTime).Seconds())
	stats.Attempts = attempts

	return text.String(), stats, nil
}

// callAPI makes the actual API call to Claude
func (c *Client) callAPI(ctx context.Context, prompt string) (anthropic.MessagesResponse, error) {
	temperature := c.temperature
	request := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: &temperature,
	}

	response, err := c.client.CreateMessages(ctx, request)
	if err != nil {
		return anthropic.MessagesResponse{}, internalerrors.Wrapf(err, "API call failed")
	}

	return response, nil
}

// calculateStats calculates cost and token statistics
func (c *Client) calculateStats(response anthropic.MessagesResponse, durationSeconds float64) *Stats {
	inputTokens := response.Usage.InputTokens
	outputTokens := response.Usage.OutputTokens
	cacheCreationTokens := response.Usage.CacheCreationInputTokens
	cacheReadTokens := response.Usage.CacheReadInputTokens

	// Claude Sonnet pricing per million tokens:
	// input $3, output $15, cache write $3.75, cache read $0.30
	inputCost := float64(inputTokens) / 1000000 * 3.0
	outputCost := float64(outputTokens) / 1000000 * 15.0
	cacheWriteCost := float64(cacheCreationTokens) / 1000000 * 3.75
	cacheReadCost := float64(cacheReadTokens) / 1000000 * 0.30

	return &Stats{
		Provider:            c.GetProviderName(),
		Model:               c.model,
		InputTokens:         inputTokens,
		OutputTokens:        outputTokens,
		CacheCreationTokens: cacheCreationTokens,
		CacheReadTokens:     cacheReadTokens,
		CostUSD:             inputCost + outputCost + cacheWriteCost + cacheReadCost,
		DurationSeconds:     durationSeconds,
	}
}

// GetModelInfo returns information about the configured model
func (c *Client) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":         c.model,
		"provider":      c.GetProviderName(),
		"max_tokens":    c.maxTokens,
		"temperature":   c.temperature,
		"context_limit": 200000,
	}
}

// GetProviderName returns the name of the provider
func (c *Client) GetProviderName() string {
	return "Anthropic"
}

// Ensure Client implements Provider interface
var _ Provider = (*Client)(nil)
