package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

// noBackoff disables retry sleeps for the duration of a test.
func noBackoff(t *testing.T) {
	t.Helper()

	orig := sleep
	sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	t.Cleanup(func() { sleep = orig })
}

// verifyOpenAIChatRequest validates an OpenAI-style chat completion request.
// It decodes the request body and verifies there is exactly one user message.
func verifyOpenAIChatRequest(t *testing.T, r *http.Request, w http.ResponseWriter) *openAIChatRequest {
	t.Helper()

	var req openAIChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.Errorf("failed to decode request: %v", err)
		w.WriteHeader(http.StatusBadRequest)
		return nil
	}

	if req.Model == "" {
		t.Error("model is empty")
	}
	if len(req.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(req.Messages))
	}
	if req.Messages[0].Role != "user" {
		t.Errorf("message should be user, got %s", req.Messages[0].Role)
	}

	return &req
}

// verifyModelError checks err is a *ModelError for provider.
func verifyModelError(t *testing.T, err error, provider string) *ModelError {
	t.Helper()

	if err == nil {
		t.Fatal("expected error, got nil")
	}
	modelErr, ok := err.(*ModelError)
	if !ok {
		t.Fatalf("expected *ModelError, got %T: %v", err, err)
	}
	if modelErr.Provider != provider {
		t.Errorf("Provider = %q, want %q", modelErr.Provider, provider)
	}
	return modelErr
}

// verifyLocalProviderStats checks stats from local LLM providers.
// Local providers have zero cost and expected token counts.
func verifyLocalProviderStats(t *testing.T, stats *Stats, provider string) {
	t.Helper()

	if stats.InputTokens != 1500 {
		t.Errorf("InputTokens = %v, want 1500", stats.InputTokens)
	}
	if stats.OutputTokens != 250 {
		t.Errorf("OutputTokens = %v, want 250", stats.OutputTokens)
	}
	if stats.CostUSD != 0 {
		t.Errorf("CostUSD = %v, want 0 (local inference)", stats.CostUSD)
	}
	if provider != "" && stats.Provider != provider {
		t.Errorf("Provider = %v, want %s", stats.Provider, provider)
	}
}
