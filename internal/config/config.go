package config

import (
	"crypto/subtle"
	"fmt"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/olegiv/logissue-ai-go/internal/ai"
)

// Config holds all application configuration
type Config struct {
	// LLM Provider Selection
	LLMProvider string // "openai" (default), "anthropic" or "ollama"

	// OpenAI-compatible settings (used when LLMProvider = "openai")
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string // e.g., "https://api.openai.com/v1" or a local gateway

	// Anthropic/Claude Settings (used when LLMProvider = "anthropic")
	AnthropicAPIKey string
	ClaudeModel     string

	// Ollama Settings (used when LLMProvider = "ollama")
	OllamaBaseURL string // e.g., "http://localhost:11434"
	OllamaModel   string // e.g., "llama3.3:latest"

	// AI Settings
	AITemperature    float64
	AITimeoutSeconds int
	AIMaxTokens      int
	AIMaxRetries     int

	// Telegram (optional, only needed for --notify)
	TelegramBotToken  string
	TelegramChannelID int64

	// Log source
	MaxLogSizeMB           int
	EnablePreprocessing    bool
	MaxPreprocessingTokens int
	FilterPromptInjection  bool

	// Application logging
	LogLevel string
	LogDir   string

	// Proxy
	HTTPProxy  string
	HTTPSProxy string
}

// ConfigurationError reports a missing or invalid setting.
type ConfigurationError struct {
	Key     string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s %s", e.Key, e.Message)
}

func configErr(key, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Key: key, Message: fmt.Sprintf(format, args...)}
}

var telegramTokenRegex = regexp.MustCompile(`^\d+:[A-Za-z0-9_-]+$`)

// Load loads configuration from flags bound into viper, the .env file and
// environment variables, in that order of priority. Only general settings are
// validated here; call Validate before talking to a model provider.
func Load() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// godotenv sets OS env vars from .env without overriding existing ones,
	// viper then reads them
	_ = godotenv.Load()

	setDefaults()

	config := &Config{
		LLMProvider:     strings.ToLower(viper.GetString("LLM_PROVIDER")),
		OpenAIAPIKey:    viper.GetString("OPENAI_API_KEY"),
		OpenAIModel:     viper.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:   viper.GetString("OPENAI_BASE_URL"),
		AnthropicAPIKey: viper.GetString("ANTHROPIC_API_KEY"),
		ClaudeModel:     viper.GetString("CLAUDE_MODEL"),
		OllamaBaseURL:   viper.GetString("OLLAMA_BASE_URL"),
		OllamaModel:     viper.GetString("OLLAMA_MODEL"),

		AITemperature:    viper.GetFloat64("AI_TEMPERATURE"),
		AITimeoutSeconds: viper.GetInt("AI_TIMEOUT_SECONDS"),
		AIMaxTokens:      viper.GetInt("AI_MAX_TOKENS"),
		AIMaxRetries:     viper.GetInt("AI_MAX_RETRIES"),

		TelegramBotToken:  viper.GetString("TELEGRAM_BOT_TOKEN"),
		TelegramChannelID: viper.GetInt64("TELEGRAM_CHANNEL_ID"),

		MaxLogSizeMB:           viper.GetInt("MAX_LOG_SIZE_MB"),
		EnablePreprocessing:    viper.GetBool("ENABLE_PREPROCESSING"),
		MaxPreprocessingTokens: viper.GetInt("MAX_PREPROCESSING_TOKENS"),
		FilterPromptInjection:  viper.GetBool("FILTER_PROMPT_INJECTION"),

		LogLevel: viper.GetString("LOG_LEVEL"),
		LogDir:   viper.GetString("LOG_DIR"),

		HTTPProxy:  viper.GetString("HTTP_PROXY"),
		HTTPSProxy: viper.GetString("HTTPS_PROXY"),
	}

	if err := config.validateSettings(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// LLM Provider defaults
	viper.SetDefault("LLM_PROVIDER", "openai")
	viper.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	viper.SetDefault("CLAUDE_MODEL", "claude-sonnet-4-5-20250929")
	viper.SetDefault("OLLAMA_BASE_URL", "http://localhost:11434")
	viper.SetDefault("OLLAMA_MODEL", "llama3.3:latest")

	viper.SetDefault("AI_TEMPERATURE", 0.3)
	viper.SetDefault("AI_TIMEOUT_SECONDS", 120)
	viper.SetDefault("AI_MAX_TOKENS", 4000)
	viper.SetDefault("AI_MAX_RETRIES", 3)

	viper.SetDefault("MAX_LOG_SIZE_MB", 10)
	viper.SetDefault("ENABLE_PREPROCESSING", true)
	viper.SetDefault("MAX_PREPROCESSING_TOKENS", 150000)
	viper.SetDefault("FILTER_PROMPT_INJECTION", true)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_DIR", "./logs")
}

// Validate checks every setting needed for a model-backed run, including the
// credential of the selected provider. It returns *ConfigurationError.
func (c *Config) Validate() error {
	if err := c.validateSettings(); err != nil {
		return err
	}
	return c.validateLLMProvider()
}

// validateSettings checks settings that do not depend on the provider.
func (c *Config) validateSettings() error {
	if c.MaxLogSizeMB < 1 || c.MaxLogSizeMB > 100 {
		return configErr("MAX_LOG_SIZE_MB", "must be between 1 and 100")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return configErr("LOG_LEVEL", "must be one of: debug, info, warn, error")
	}

	if c.EnablePreprocessing && c.MaxPreprocessingTokens < 10000 {
		return configErr("MAX_PREPROCESSING_TOKENS", "must be at least 10000")
	}

	if c.AITemperature < 0 || c.AITemperature > 2 {
		return configErr("AI_TEMPERATURE", "must be between 0 and 2")
	}
	if c.AITimeoutSeconds < 30 || c.AITimeoutSeconds > 600 {
		return configErr("AI_TIMEOUT_SECONDS", "must be between 30 and 600")
	}
	if c.AIMaxTokens < 1000 || c.AIMaxTokens > 16000 {
		return configErr("AI_MAX_TOKENS", "must be between 1000 and 16000")
	}
	if c.AIMaxRetries < 1 || c.AIMaxRetries > 10 {
		return configErr("AI_MAX_RETRIES", "must be between 1 and 10")
	}

	return nil
}

// ValidateTelegram checks the settings needed to send a Telegram report.
func (c *Config) ValidateTelegram() error {
	if c.TelegramBotToken == "" {
		return configErr("TELEGRAM_BOT_TOKEN", "is required for notifications")
	}
	if !telegramTokenRegex.MatchString(c.TelegramBotToken) {
		return configErr("TELEGRAM_BOT_TOKEN", "has invalid format (expected: 'number:token')")
	}
	if c.TelegramChannelID == 0 {
		return configErr("TELEGRAM_CHANNEL_ID", "is required for notifications")
	}
	if c.TelegramChannelID > -100 {
		return configErr("TELEGRAM_CHANNEL_ID", "must be a supergroup/channel ID (starts with -100)")
	}
	return nil
}

// GetProxyURL returns the appropriate proxy URL for HTTP/HTTPS requests
func (c *Config) GetProxyURL(isHTTPS bool) string {
	if isHTTPS && c.HTTPSProxy != "" {
		return c.HTTPSProxy
	}
	if c.HTTPProxy != "" {
		return c.HTTPProxy
	}
	return ""
}

// constantTimePrefixMatch checks if s starts with prefix using constant-time comparison.
// Returns false if s is shorter than prefix.
func constantTimePrefixMatch(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s[:len(prefix)]), []byte(prefix)) == 1
}

// validateLLMProvider validates LLM provider configuration
func (c *Config) validateLLMProvider() error {
	if !ai.IsValidProviderType(c.LLMProvider) {
		return configErr("LLM_PROVIDER", "must be 'openai', 'anthropic', or 'ollama' (got: %s)", c.LLMProvider)
	}

	switch c.LLMProvider {
	case "openai":
		if c.OpenAIBaseURL == "" {
			return configErr("OPENAI_BASE_URL", "is required when LLM_PROVIDER=openai")
		}
		if !isHTTPURL(c.OpenAIBaseURL) {
			return configErr("OPENAI_BASE_URL", "must start with 'http://' or 'https://'")
		}
		if c.OpenAIModel == "" {
			return configErr("OPENAI_MODEL", "is required when LLM_PROVIDER=openai")
		}
		// Self-hosted OpenAI-compatible servers usually run without a key.
		if c.IsHostedOpenAI() {
			if c.OpenAIAPIKey == "" {
				return configErr("OPENAI_API_KEY", "is required when LLM_PROVIDER=openai")
			}
			if !constantTimePrefixMatch(c.OpenAIAPIKey, "sk-") {
				return configErr("OPENAI_API_KEY", "must start with 'sk-'")
			}
		}

	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return configErr("ANTHROPIC_API_KEY", "is required when LLM_PROVIDER=anthropic")
		}
		if !constantTimePrefixMatch(c.AnthropicAPIKey, "sk-ant-") {
			return configErr("ANTHROPIC_API_KEY", "must start with 'sk-ant-'")
		}
		if c.ClaudeModel == "" {
			return configErr("CLAUDE_MODEL", "is required when LLM_PROVIDER=anthropic")
		}

	case "ollama":
		if c.OllamaModel == "" {
			return configErr("OLLAMA_MODEL", "is required when LLM_PROVIDER=ollama")
		}
		if c.OllamaBaseURL == "" {
			return configErr("OLLAMA_BASE_URL", "is required when LLM_PROVIDER=ollama")
		}
		if !isHTTPURL(c.OllamaBaseURL) {
			return configErr("OLLAMA_BASE_URL", "must start with 'http://' or 'https://'")
		}
	}

	return nil
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// IsHostedOpenAI reports whether the OpenAI base URL points at api.openai.com.
func (c *Config) IsHostedOpenAI() bool {
	return strings.Contains(strings.ToLower(c.OpenAIBaseURL), "api.openai.com")
}

// IsOpenAI returns true if the LLM provider is OpenAI-compatible
func (c *Config) IsOpenAI() bool {
	return c.LLMProvider == "openai"
}

// IsOllama returns true if the LLM provider is Ollama
func (c *Config) IsOllama() bool {
	return c.LLMProvider == "ollama"
}

// IsAnthropic returns true if the LLM provider is Anthropic
func (c *Config) IsAnthropic() bool {
	return c.LLMProvider == "anthropic"
}

// HasTelegram returns true if a bot token and channel are configured
func (c *Config) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChannelID != 0
}

// GetLLMAPIKey returns the API key of the selected provider, empty for Ollama.
func (c *Config) GetLLMAPIKey() string {
	switch c.LLMProvider {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	default:
		return ""
	}
}

// GetLLMModel returns the model name of the selected provider.
func (c *Config) GetLLMModel() string {
	switch c.LLMProvider {
	case "ollama":
		return c.OllamaModel
	case "anthropic":
		return c.ClaudeModel
	default:
		return c.OpenAIModel
	}
}
