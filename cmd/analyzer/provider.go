package main

import (
	"fmt"

	"github.com/olegiv/logissue-ai-go/internal/ai"
	"github.com/olegiv/logissue-ai-go/internal/config"
	"github.com/olegiv/logissue-ai-go/internal/logging"
	"github.com/olegiv/logissue-ai-go/internal/notification"
)

// newProvider creates the model client selected by LLM_PROVIDER.
func newProvider(cfg *config.Config, log *logging.SecureLogger) (ai.Provider, error) {
	log.Debug().Str("provider", cfg.LLMProvider).Str("model", cfg.GetLLMModel()).Msg("Creating AI provider")

	switch ai.ProviderType(cfg.LLMProvider) {
	case ai.ProviderAnthropic:
		client, err := ai.NewClient(ai.ClientConfig{
			APIKey:         cfg.AnthropicAPIKey,
			Model:          cfg.ClaudeModel,
			Temperature:    cfg.AITemperature,
			ProxyURL:       cfg.GetProxyURL(true),
			TimeoutSeconds: cfg.AITimeoutSeconds,
			MaxTokens:      cfg.AIMaxTokens,
			MaxRetries:     cfg.AIMaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	case ai.ProviderOllama:
		// Local server, no proxy
		client, err := ai.NewOllamaClient(ai.OllamaConfig{
			BaseURL:        cfg.OllamaBaseURL,
			Model:          cfg.OllamaModel,
			Temperature:    cfg.AITemperature,
			TimeoutSeconds: cfg.AITimeoutSeconds,
			MaxTokens:      cfg.AIMaxTokens,
			MaxRetries:     cfg.AIMaxRetries,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	case ai.ProviderOpenAI:
		proxyURL := ""
		if cfg.IsHostedOpenAI() {
			proxyURL = cfg.GetProxyURL(true)
		}
		client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
			BaseURL:        cfg.OpenAIBaseURL,
			APIKey:         cfg.OpenAIAPIKey,
			Model:          cfg.OpenAIModel,
			Temperature:    cfg.AITemperature,
			TimeoutSeconds: cfg.AITimeoutSeconds,
			MaxTokens:      cfg.AIMaxTokens,
			MaxRetries:     cfg.AIMaxRetries,
			ProxyURL:       proxyURL,
		})
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.LLMProvider)
	}
}

// newNotifier creates the Telegram client used by --notify.
func newNotifier(cfg *config.Config, log *logging.SecureLogger) (reportSender, error) {
	client, err := notification.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramChannelID, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}
