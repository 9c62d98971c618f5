package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	internalerrors "github.com/olegiv/logissue-ai-go/internal/errors"
	"github.com/olegiv/logissue-ai-go/internal/output"
)

func newSummaryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <path>",
		Short: "Show what would be sent for analysis, without calling the model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := newLogSource(a.cfg, a.log)

			info, err := source.Reader.GetSourceInfo(args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(a.out, output.FormatSourceInfo(info))

			key := "none"
			if k := a.cfg.GetLLMAPIKey(); k != "" {
				key = internalerrors.MaskCredential(k)
			}
			_, _ = fmt.Fprintf(a.out, "Provider: %s (%s), API key: %s\n", a.cfg.LLMProvider, a.cfg.GetLLMModel(), key)

			content, err := source.Reader.Read(args[0])
			if err != nil {
				return fmt.Errorf("failed to read logs: %w", err)
			}
			if content == analyzer.NoReadableContent {
				_, _ = fmt.Fprintln(a.out, analyzer.NoReadableContent)
				return nil
			}

			prompt := source.PromptBuilder.Build(source.Sanitizer.Sanitize(content))
			_, _ = fmt.Fprintf(a.out, "Estimated prompt tokens: %s\n",
				humanize.Comma(int64(analyzer.EstimateTokens(prompt))))

			if kinds := internalerrors.CredentialKinds(content); len(kinds) > 0 {
				_, _ = fmt.Fprintf(a.out, "Credentials found (redacted before sending): %v\n", kinds)
			}
			return nil
		},
	}
}
