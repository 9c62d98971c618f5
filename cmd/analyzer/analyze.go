package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olegiv/logissue-ai-go/internal/ai"
	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/config"
	"github.com/olegiv/logissue-ai-go/internal/logfiles"
	"github.com/olegiv/logissue-ai-go/internal/logging"
	"github.com/olegiv/logissue-ai-go/internal/output"
)

func newAnalyzeCmd(a *app, colorize func() bool) *cobra.Command {
	var (
		opts    reportOptions
		notify    bool
		saveRaw   string
		checkConn bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [flags] <path>",
		Short: "Analyze a log file or directory with the configured model",
		Long: `Read a log file, or every .log and .txt file under a directory, redact
sensitive values, send the logs to the configured model and print the
reported issues ordered by severity.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			if notify {
				if err := a.cfg.ValidateTelegram(); err != nil {
					return err
				}
			}

			provider, err := a.newProvider(a.cfg, a.log)
			if err != nil {
				return fmt.Errorf("failed to initialize %s provider: %w", a.cfg.LLMProvider, err)
			}
			a.log.Info().
				Str("provider", provider.GetProviderName()).
				Interface("model", provider.GetModelInfo()["model"]).
				Msg("AI provider initialized")

			if checkConn {
				if _, err := os.Stat(args[0]); err != nil {
					return &logfiles.PathNotFoundError{Path: args[0]}
				}
				if err := ai.CheckConnection(cmd.Context(), provider); err != nil {
					return err
				}
				a.log.Info().Str("provider", provider.GetProviderName()).Msg("Provider connection verified")
			}

			pipeline := analyzer.NewPipeline(newLogSource(a.cfg, a.log), provider, a.log)

			spinner := output.StartSpinner(a.errOut,
				fmt.Sprintf("Analyzing logs with %s...", provider.GetProviderName()))
			result, err := pipeline.Run(cmd.Context(), args[0], opts.keyword)
			spinner.Stop()
			if err != nil {
				return err
			}

			if saveRaw != "" && result.RawReport != "" {
				if err := writeRawReport(saveRaw, result.RawReport); err != nil {
					return err
				}
			}

			if err := a.deliver(result, &opts, colorize()); err != nil {
				return err
			}

			if notify {
				return a.sendReport(result)
			}
			return nil
		},
	}

	addReportFlags(cmd, &opts)
	cmd.Flags().BoolVar(&notify, "notify", false, "send the report to the Telegram channel")
	cmd.Flags().StringVar(&saveRaw, "save-raw", "", "save the raw model report to FILE")
	cmd.Flags().BoolVar(&checkConn, "check-connection", false, "verify the provider endpoint before reading logs")

	return cmd
}

// newLogSource wires the plain-text log reader, sanitizer and prompt builder.
func newLogSource(cfg *config.Config, log *logging.SecureLogger) analyzer.LogSource {
	return analyzer.LogSource{
		Reader:        logfiles.NewReader(cfg.MaxLogSizeMB, cfg.EnablePreprocessing, cfg.MaxPreprocessingTokens, log),
		Sanitizer:     logfiles.NewSanitizer(cfg.FilterPromptInjection),
		PromptBuilder: logfiles.NewPromptBuilder(),
	}
}

func (a *app) sendReport(result *analyzer.Result) error {
	sender, err := a.newNotifier(a.cfg, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize Telegram client: %w", err)
	}
	defer func() {
		if err := sender.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close Telegram client")
		}
	}()

	return sender.SendIssueReport(result)
}
