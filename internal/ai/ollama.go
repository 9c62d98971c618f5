package ai

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultOllamaBaseURL is where a local Ollama server listens.
const DefaultOllamaBaseURL = "http://localhost:11434"

// OllamaClient wraps the Ollama chat API
type OllamaClient struct {
	client      *api.Client
	baseURL     string
	model       string
	temperature float64
	maxTokens   int
	maxRetries  int
}

// OllamaConfig holds Ollama-specific configuration
type OllamaConfig struct {
	BaseURL        string // e.g., "http://localhost:11434"
	Model          string // e.g., "llama3.3:latest"
	Temperature    float64
	TimeoutSeconds int // Request timeout
	MaxTokens      int // Max tokens in response
	MaxRetries     int
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOllamaBaseURL
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model is required")
	}

	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 300 // Default 5 minutes for large models
	}

	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 8000
	}

	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("ollama base URL must use http or https scheme, got: %q", base.Scheme)
	}

	httpClient, err := newHTTPClient("", cfg.TimeoutSeconds)
	if err != nil {
		return nil, err
	}

	return &OllamaClient{
		client:      api.NewClient(base, httpClient),
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// Generate implements Provider.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, *Stats, error) {
	startTime := time.Now()

	response, attempts, err := retryWithBackoff(ctx, c.maxRetries, func() (*api.ChatResponse, error) {
		return c.callAPI(ctx, prompt)
	})
	if err != nil {
		return "", nil, &ModelError{Provider: c.GetProviderName(), Attempts: attempts, Err: err}
	}

	stats := c.calculateStats(response, time.Since(startTime).Seconds())
	stats.Attempts = attempts

	return response.Message.Content, stats, nil
}

// callAPI makes one non-streaming chat request
func (c *OllamaClient) callAPI(ctx context.Context, prompt string) (*api.ChatResponse, error) {
	request := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": c.temperature,
			"num_predict": c.maxTokens,
		},
		Stream: new(bool),
	}

	var response api.ChatResponse
	err := c.client.Chat(ctx, request, func(resp api.ChatResponse) error {
		response = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}

	if !response.Done {
		return nil, fmt.Errorf("incomplete response from Ollama")
	}

	return &response, nil
}

// calculateStats calculates statistics from Ollama response
func (c *OllamaClient) calculateStats(response *api.ChatResponse, durationSeconds float64) *Stats {
	// Local inference has no monetary cost; tokens are tracked for comparison.
	return &Stats{
		Provider:        c.GetProviderName(),
		Model:           c.model,
		InputTokens:     response.PromptEvalCount,
		OutputTokens:    response.EvalCount,
		CostUSD:         0.0,
		DurationSeconds: durationSeconds,
	}
}

// GetModelInfo returns information about the configured model
func (c *OllamaClient) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":         c.model,
		"provider":      c.GetProviderName(),
		"max_tokens":    c.maxTokens,
		"base_url":      c.baseURL,
		"context_limit": 128000, // Varies by model, using common default
	}
}

// GetProviderName returns the name of the provider
func (c *OllamaClient) GetProviderName() string {
	return "Ollama"
}

// CheckConnection verifies that Ollama is running and the model is available
func (c *OllamaClient) CheckConnection(ctx context.Context) error {
	list, err := c.client.List(ctx)
	if err != nil {
		return fmt.Errorf("ollama is not reachable at %s: %w", c.baseURL, err)
	}

	baseName := strings.Split(c.model, ":")[0]
	availableModels := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		// "llama3.3:latest" matches "llama3.3"
		if m.Name == c.model || strings.HasPrefix(m.Name, baseName) {
			return nil
		}
		availableModels = append(availableModels, m.Name)
	}

	return fmt.Errorf("model '%s' not found in Ollama. Available models: %v. Run 'ollama pull %s' to download it",
		c.model, availableModels, c.model)
}

// Ensure OllamaClient implements Provider interface
var _ Provider = (*OllamaClient)(nil)
