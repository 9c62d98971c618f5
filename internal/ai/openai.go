package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
)

const (
	// DefaultOpenAIBaseURL is the public OpenAI API root.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultOpenAIModel is the chat model used when none is configured.
	DefaultOpenAIModel = "gpt-4o-mini"
)

// OpenAIClient talks to any OpenAI-compatible /chat/completions endpoint
// (OpenAI itself, Azure-style gateways, LM Studio, vLLM).
type OpenAIClient struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	maxRetries  int
	httpClient  *http.Client
}

// OpenAIConfig holds OpenAI-specific configuration
type OpenAIConfig struct {
	BaseURL        string // e.g., "https://api.openai.com/v1"
	APIKey         string // sent as a bearer token, may be empty for local servers
	Model          string // e.g., "gpt-4o-mini"
	Temperature    float64
	TimeoutSeconds int
	MaxTokens      int // 0 leaves the limit to the server
	MaxRetries     int
	ProxyURL       string
}

// openAIChatRequest is the request body for OpenAI-compatible /chat/completions endpoint
type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float64         `json:"temperature"`
	Stream      bool            `json:"stream"`
}

// openAIMessage represents a chat message in OpenAI format
type openAIMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// openAIChatResponse is the response from OpenAI-compatible /chat/completions endpoint
type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int           `json:"index"`
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens        int `json:"prompt_tokens"`
		CompletionTokens    int `json:"completion_tokens"`
		TotalTokens         int `json:"total_tokens"`
		PromptTokensDetails struct {
			CachedTokens int `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
	} `json:"usage"`
}

// openAIPricing is USD per million input and output tokens.
var openAIPricing = map[string][2]float64{
	"gpt-4o-mini":  {0.15, 0.60},
	"gpt-4o":       {2.50, 10.00},
	"gpt-4.1-mini": {0.40, 1.60},
	"gpt-4.1":      {2.00, 8.00},
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 120
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	httpClient, err := newHTTPClient(cfg.ProxyURL, cfg.TimeoutSeconds)
	if err != nil {
		return nil, err
	}

	return &OpenAIClient{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
		httpClient:  httpClient,
	}, nil
}

// Generate implements Provider.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (string, *Stats, error) {
	startTime := time.Now()

	response, attempts, err := retryWithBackoff(ctx, c.maxRetries, func() (*openAIChatResponse, error) {
		return c.callAPI(ctx, prompt)
	})
	if err != nil {
		return "", nil, &ModelError{Provider: c.GetProviderName(), Attempts: attempts, Err: err}
	}

	stats := c.calculateStats(response, time.Since(startTime).Seconds())
	stats.Attempts = attempts

	// A reply without choices is an empty report, not a failure.
	if len(response.Choices) == 0 {
		return "", stats, nil
	}
	return response.Choices[0].Message.Content, stats, nil
}

// callAPI makes one chat completion request
func (c *OpenAIClient) callAPI(ctx context.Context, prompt string) (*openAIChatResponse, error) {
	request := openAIChatRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		Stream:      false,
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["Authorization"] = "Bearer " + c.apiKey
	}

	response, err := doJSONPost[openAIChatResponse](ctx, c.httpClient, c.baseURL+"/chat/completions", headers, request)
	if err != nil {
		return nil, internalerrors.Wrapf(err, "chat completion failed")
	}
	return response, nil
}

// calculateStats calculates token and cost statistics. Models without a
// known price report zero cost.
func (c *OpenAIClient) calculateStats(response *openAIChatResponse, durationSeconds float64) *Stats {
	inputTokens := response.Usage.PromptTokens
	outputTokens := response.Usage.CompletionTokens

	var cost float64
	if price, ok := openAIPricing[c.model]; ok {
		cost = float64(inputTokens)/1000000*price[0] + float64(outputTokens)/1000000*price[1]
	}

	return &Stats{
		Provider:        c.GetProviderName(),
		Model:           c.model,
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		CacheReadTokens: response.Usage.PromptTokensDetails.CachedTokens,
		CostUSD:         cost,
		DurationSeconds: durationSeconds,
	}
}

// GetModelInfo returns information about the configured model
func (c *OpenAIClient) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":       c.model,
		"provider":    c.GetProviderName(),
		"max_tokens":  c.maxTokens,
		"base_url":    c.baseURL,
		"temperature": c.temperature,
	}
}

// GetProviderName returns the name of the provider
func (c *OpenAIClient) GetProviderName() string {
	return "OpenAI"
}

// CheckConnection verifies the endpoint is reachable and the credential is accepted
func (c *OpenAIClient) CheckConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return internalerrors.Wrapf(err, "OpenAI endpoint is not reachable at %s", c.baseURL)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenAI endpoint returned status %d", resp.StatusCode)
	}

	return nil
}

// Ensure OpenAIClient implements Provider interface
var _ Provider = (*OpenAIClient)(nil)
