package analyzer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olegiv/logissue-ai-go/internal/ai"
	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
	"github.com/olegiv/logissue-ai-go/internal/issue"
	"github.com/olegiv/logissue-ai-go/internal/logging"
)

// Result is the outcome of one analysis run.
type Result struct {
	ID         string
	SourcePath string
	Source     *SourceInfo
	// Issues holds the parsed records in the order the model reported them.
	Issues []issue.Record
	// Ranked holds Issues sorted by severity and narrowed by Keyword.
	Ranked    []issue.Record
	Keyword   string
	Stats     *ai.Stats
	RawReport string
	CreatedAt time.Time
}

// Empty reports whether there is nothing to display after ranking and filtering.
func (r *Result) Empty() bool {
	return len(r.Ranked) == 0
}

// Pipeline runs read, sanitize, prompt, generate, parse and rank for one source.
type Pipeline struct {
	source   LogSource
	provider ai.Provider
	log      *logging.SecureLogger
}

// NewPipeline creates a pipeline. log may be nil.
func NewPipeline(source LogSource, provider ai.Provider, log *logging.SecureLogger) *Pipeline {
	return &Pipeline{
		source:   source,
		provider: provider,
		log:      log,
	}
}

// Run analyzes the logs at path and returns the issues the model found,
// ranked and filtered by keyword. A source without readable content yields an
// empty result without calling the model.
func (p *Pipeline) Run(ctx context.Context, path, keyword string) (*Result, error) {
	info, err := p.source.Reader.GetSourceInfo(path)
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Str("path", info.Path).
		Int("files", info.Files).
		Int64("size_bytes", info.SizeBytes).
		Msg("Reading log source")

	content, err := p.source.Reader.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs: %w", err)
	}

	if content == NoReadableContent {
		p.log.Warn().Str("path", info.Path).Msg("No readable log content, skipping analysis")
		result := p.newResult(info.Path, keyword)
		result.Source = info
		return result, nil
	}

	if kinds := internalerrors.CredentialKinds(content); len(kinds) > 0 {
		p.log.Warn().Strs("kinds", kinds).Msg("Credentials found in logs, redacting before analysis")
	}

	sanitized := p.source.Sanitizer.Sanitize(content)
	prompt := p.source.PromptBuilder.Build(sanitized)

	p.log.Info().
		Str("provider", p.provider.GetProviderName()).
		Int("estimated_tokens", EstimateTokens(prompt)).
		Msg("Sending logs for analysis")

	raw, stats, err := p.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	if stats != nil {
		p.log.Info().
			Str("provider", stats.Provider).
			Str("model", stats.Model).
			Int("input_tokens", stats.InputTokens).
			Int("output_tokens", stats.OutputTokens).
			Float64("cost_usd", stats.CostUSD).
			Float64("duration_seconds", stats.DurationSeconds).
			Int("attempts", stats.Attempts).
			Msg("Analysis completed")
	}

	if strings.TrimSpace(raw) == "" {
		p.log.Warn().Str("provider", p.provider.GetProviderName()).Msg("Model returned an empty report")
	}

	result := p.ParseReport(raw, keyword)
	result.SourcePath = info.Path
	result.Source = info
	result.Stats = stats

	return result, nil
}

// ParseReport parses a raw model report without calling the model.
func (p *Pipeline) ParseReport(raw, keyword string) *Result {
	result := p.newResult("", keyword)
	result.RawReport = raw
	result.Issues = issue.Parse(raw)
	result.Ranked = issue.RankAndFilter(result.Issues, keyword)

	p.log.Debug().
		Int("parsed", len(result.Issues)).
		Int("shown", len(result.Ranked)).
		Str("keyword", keyword).
		Msg("Report parsed")

	return result
}

func (p *Pipeline) newResult(path, keyword string) *Result {
	return &Result{
		ID:         uuid.NewString(),
		SourcePath: path,
		Issues:     []issue.Record{},
		Ranked:     []issue.Record{},
		Keyword:    keyword,
		CreatedAt:  time.Now().UTC(),
	}
}
