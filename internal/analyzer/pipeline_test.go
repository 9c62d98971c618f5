package analyzer_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/olegiv/go-logger"
	"github.com/olegiv/logissue-ai-go/internal/ai"
	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/issue"
	"github.com/olegiv/logissue-ai-go/internal/logfiles"
	"github.com/olegiv/logissue-ai-go/internal/logging"
	"github.com/rs/zerolog"
)

// fakeProvider records the prompt and returns a canned report.
type fakeProvider struct {
	report string
	err    error
	calls  int
	prompt string
}

func (f *fakeProvider) Generate(_ context.Context, prompt string) (string, *ai.Stats, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", nil, f.err
	}
	return f.report, &ai.Stats{Provider: "Fake", Model: "fake-1", Attempts: 1}, nil
}

func (f *fakeProvider) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{"model": "fake-1"}
}

func (f *fakeProvider) GetProviderName() string { return "Fake" }

func newSource() analyzer.LogSource {
	return analyzer.LogSource{
		Reader:        logfiles.NewReader(10, false, 150000, nil),
		Sanitizer:     logfiles.NewSanitizer(true),
		PromptBuilder: logfiles.NewPromptBuilder(),
	}
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
	return path
}

const twoIssueReport = `Here is what I found:

Log snippet: INFO cache warmup slow
Probable Root Cause: cold cache
Suggested Resolution: prewarm on deploy
Severity: Low

Log snippet: ERROR db timeout after 30s
Probable Root Cause: connection pool exhausted
Suggested Resolution: raise pool size
Severity: Critical`

func TestPipeline_Run(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "app.log", "ERROR db timeout for user alice from 10.0.0.7 at /srv/app/db.go\n")

	provider := &fakeProvider{report: twoIssueReport}
	pipeline := analyzer.NewPipeline(newSource(), provider, nil)

	result, err := pipeline.Run(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, want 1", provider.calls)
	}
	for _, leaked := range []string{"alice", "10.0.0.7", "/srv/app/db.go"} {
		if strings.Contains(provider.prompt, leaked) {
			t.Errorf("prompt leaks %q", leaked)
		}
	}
	if !strings.Contains(provider.prompt, "user [REDACTED]") {
		t.Error("expected sanitized logs in prompt")
	}

	if len(result.Issues) != 2 || result.Issues[0].Severity != "Low" {
		t.Errorf("Issues should keep model order: %+v", result.Issues)
	}
	if len(result.Ranked) != 2 || result.Ranked[0].Severity != "Critical" {
		t.Errorf("Ranked should put Critical first: %+v", result.Ranked)
	}
	if result.Empty() {
		t.Error("result should not be empty")
	}
	if result.ID == "" {
		t.Error("expected run ID")
	}
	if result.Source == nil || result.Source.Files != 1 {
		t.Errorf("unexpected source info %+v", result.Source)
	}
	if result.Stats == nil || result.Stats.Provider != "Fake" {
		t.Errorf("unexpected stats %+v", result.Stats)
	}
	if result.RawReport != twoIssueReport {
		t.Error("expected raw report to be kept")
	}
}

func TestPipeline_Run_CredentialWarning(t *testing.T) {
	const botToken = "7301948265:AAFq9ZkLmN3pQrStUvWxYz0123456789abc"

	dir := t.TempDir()
	writeLog(t, dir, "app.log", "INFO notifier started with token "+botToken+"\nERROR login failed password=hunter2\n")

	var buf bytes.Buffer
	log := logging.NewSecure(&logger.Logger{Logger: zerolog.New(&buf)})
	provider := &fakeProvider{report: twoIssueReport}

	if _, err := analyzer.NewPipeline(newSource(), provider, log).Run(context.Background(), dir, ""); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, `"kinds":["telegram_token","password"]`) {
		t.Errorf("expected credential kinds in warning, got:\n%s", output)
	}
	if !strings.Contains(output, "Credentials found in logs") {
		t.Errorf("expected credentials warning, got:\n%s", output)
	}
	for _, secret := range []string{botToken, "hunter2"} {
		if strings.Contains(output, secret) {
			t.Errorf("log output leaks %q", secret)
		}
		if strings.Contains(provider.prompt, secret) {
			t.Errorf("prompt leaks %q", secret)
		}
	}
}

func TestPipeline_Run_EmptyModelReply(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "app.log", "ERROR disk full")

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model": "gpt-4o-mini", "choices": [{"message": {"role": "assistant", "content": ""}}]}`))
	}))
	defer server.Close()

	client, err := ai.NewOpenAIClient(ai.OpenAIConfig{
		BaseURL:    server.URL,
		APIKey:     "sk-test-key",
		MaxRetries: 3,
	})
	if err != nil {
		t.Fatalf("NewOpenAIClient() error = %v", err)
	}

	result, err := analyzer.NewPipeline(newSource(), client, nil).Run(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Run() error = %v, want empty result", err)
	}
	if !result.Empty() {
		t.Errorf("expected empty result, got %+v", result.Ranked)
	}
	if result.Stats == nil {
		t.Error("expected stats for an answered request")
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1", calls)
	}
}

func TestPipeline_Run_KeywordFilter(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "app.log", "ERROR something")

	pipeline := analyzer.NewPipeline(newSource(), &fakeProvider{report: twoIssueReport}, nil)

	result, err := pipeline.Run(context.Background(), dir, "TIMEOUT")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(result.Ranked) != 1 || !strings.Contains(result.Ranked[0].Snippet, "db timeout") {
		t.Errorf("unexpected filtered issues %+v", result.Ranked)
	}
	if len(result.Issues) != 2 {
		t.Errorf("filter must not change parsed issues, got %d", len(result.Issues))
	}

	result, err = pipeline.Run(context.Background(), dir, "no-such-word")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !result.Empty() {
		t.Error("expected empty result when keyword matches nothing")
	}
}

func TestPipeline_Run_NoReadableContent(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "data.json", "{}")

	provider := &fakeProvider{report: twoIssueReport}
	result, err := analyzer.NewPipeline(newSource(), provider, nil).Run(context.Background(), dir, "")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if provider.calls != 0 {
		t.Error("model must not be called without readable content")
	}
	if !result.Empty() || result.Issues == nil {
		t.Errorf("expected empty non-nil result, got %+v", result)
	}
}

func TestPipeline_Run_PathNotFound(t *testing.T) {
	provider := &fakeProvider{}
	_, err := analyzer.NewPipeline(newSource(), provider, nil).
		Run(context.Background(), filepath.Join(t.TempDir(), "missing"), "")

	var notFound *logfiles.PathNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected PathNotFoundError, got %v", err)
	}
	if provider.calls != 0 {
		t.Error("model must not be called for a missing path")
	}
}

func TestPipeline_Run_ModelError(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "app.log", "ERROR x")

	modelErr := &ai.ModelError{Provider: "Fake", Attempts: 3, Err: ai.ErrRetryExhausted}
	result, err := analyzer.NewPipeline(newSource(), &fakeProvider{err: modelErr}, nil).
		Run(context.Background(), dir, "")

	if result != nil {
		t.Error("no partial result expected on model failure")
	}
	var got *ai.ModelError
	if !errors.As(err, &got) {
		t.Fatalf("expected ModelError, got %v", err)
	}
	if !errors.Is(err, ai.ErrRetryExhausted) {
		t.Error("expected ErrRetryExhausted in chain")
	}
}

func TestPipeline_ParseReport(t *testing.T) {
	pipeline := analyzer.NewPipeline(analyzer.LogSource{}, nil, nil)

	result := pipeline.ParseReport("The logs look healthy, nothing to report.", "")
	if !result.Empty() || len(result.Issues) != 0 {
		t.Errorf("prose-only report should yield no issues, got %+v", result.Issues)
	}

	result = pipeline.ParseReport("Issue: disk full\nSeverity: Critical", "disk")
	want := []issue.Record{{Snippet: "disk full", Severity: "Critical"}}
	if len(result.Ranked) != 1 || result.Ranked[0] != want[0] {
		t.Errorf("ParseReport() = %+v, want %+v", result.Ranked, want)
	}
	if result.Keyword != "disk" {
		t.Errorf("Keyword = %q", result.Keyword)
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"abcd", 1},
		{"a b c", 4},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		if got := analyzer.EstimateTokens(tt.content); got != tt.want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}

func TestSourceInfo_SizeKB(t *testing.T) {
	info := &analyzer.SourceInfo{SizeBytes: 1536}
	if info.SizeKB() != 1.5 {
		t.Errorf("SizeKB() = %v, want 1.5", info.SizeKB())
	}
	info = &analyzer.SourceInfo{SizeBytes: 1000}
	if info.SizeKB() != 0.98 {
		t.Errorf("SizeKB() = %v, want 0.98", info.SizeKB())
	}
}
