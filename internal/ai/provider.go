// Package ai sends analysis prompts to a language model and returns the raw
// report text. Three providers are supported: any OpenAI-compatible chat
// completions endpoint, Anthropic and Ollama.
package ai

import "context"

// Provider defines the interface for LLM providers (OpenAI, Anthropic, Ollama)
type Provider interface {
	// Generate sends prompt as a single user message and returns the model's
	// reply text. Failures are reported as *ModelError.
	Generate(ctx context.Context, prompt string) (string, *Stats, error)

	// GetModelInfo returns information about the configured model
	GetModelInfo() map[string]interface{}

	// GetProviderName returns the name of the provider (e.g., "OpenAI", "Ollama")
	GetProviderName() string
}

// ProviderType represents the type of LLM provider
type ProviderType string

const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOllama    ProviderType = "ollama"
)

// DefaultTemperature keeps reports close to the requested format.
const DefaultTemperature = 0.3

// ValidProviderTypes returns a list of valid provider types
func ValidProviderTypes() []ProviderType {
	return []ProviderType{ProviderOpenAI, ProviderAnthropic, ProviderOllama}
}

// IsValidProviderType checks if the given provider type is valid
func IsValidProviderType(pt string) bool {
	for _, valid := range ValidProviderTypes() {
		if string(valid) == pt {
			return true
		}
	}
	return false
}

// ConnectionChecker is implemented by providers that can verify their endpoint
// without sending a prompt.
type ConnectionChecker interface {
	CheckConnection(ctx context.Context) error
}

// CheckConnection runs the provider's connection check when it has one.
// A failed check is reported as *ModelError.
func CheckConnection(ctx context.Context, p Provider) error {
	checker, ok := p.(ConnectionChecker)
	if !ok {
		return nil
	}
	if err := checker.CheckConnection(ctx); err != nil {
		return &ModelError{Provider: p.GetProviderName(), Attempts: 1, Err: err}
	}
	return nil
}

// Stats holds statistics about one Generate call
type Stats struct {
	Provider            string
	Model               string
	InputTokens         int
	OutputTokens        int
	CacheCreationTokens int
	CacheReadTokens     int
	CostUSD             float64
	DurationSeconds     float64
	Attempts            int
}

// TotalTokens returns input plus output tokens.
func (s *Stats) TotalTokens() int {
	if s == nil {
		return 0
	}
	return s.InputTokens + s.OutputTokens
}
