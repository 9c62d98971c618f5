package main

import (
	"fmt"
	"io"

	"github.com/olegiv/go-logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/olegiv/logissue-ai-go/internal/ai"
	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/config"
	"github.com/olegiv/logissue-ai-go/internal/logging"
	"github.com/olegiv/logissue-ai-go/internal/output"
)

// reportSender delivers a finished run to a notification channel.
type reportSender interface {
	SendIssueReport(result *analyzer.Result) error
	Close() error
}

// app carries what every command needs. Tests replace the factories and
// preset log to skip file logging.
type app struct {
	out    io.Writer
	errOut io.Writer

	cfg *config.Config
	log *logging.SecureLogger

	newProvider func(cfg *config.Config, log *logging.SecureLogger) (ai.Provider, error)
	newNotifier func(cfg *config.Config, log *logging.SecureLogger) (reportSender, error)
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		out:         stdout,
		errOut:      stderr,
		newProvider: newProvider,
		newNotifier: newNotifier,
	}
}

func newRootCmd(a *app) *cobra.Command {
	var verbose bool
	var colorMode string

	root := &cobra.Command{
		Use:   "log-issue-analyzer",
		Short: "Find and rank issues in application logs with an AI model",
		Long: `log-issue-analyzer reads plain-text logs, redacts paths, IP addresses
and credentials, asks a language model for a structured issue report
and prints the issues ranked by severity.

Examples:
  log-issue-analyzer analyze /var/log/app
  log-issue-analyzer analyze -k timeout -o json /var/log/app/app.log
  log-issue-analyzer analyze --export csv --export-sqlite runs.db ./logs
  log-issue-analyzer parse report.txt -k database
  log-issue-analyzer show runs.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.cfg = cfg

			if a.log == nil {
				a.log = logging.NewSecure(logger.New(logger.Config{
					Level:      cfg.LogLevel,
					LogDir:     cfg.LogDir,
					Filename:   "analyzer.log",
					MaxSizeMB:  10,
					MaxBackups: 5,
					Console:    verbose,
				}))
			}
			a.log.Debug().
				Str("command", cmd.Name()).
				Str("provider", cfg.LLMProvider).
				Str("model", cfg.GetLLMModel()).
				Msg("Configuration loaded")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.log.Close(); err != nil {
				_, _ = fmt.Fprintf(a.errOut, "Failed to close logger: %v\n", err)
			}
			return nil
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.String("provider", "", "LLM provider: openai, anthropic or ollama (env LLM_PROVIDER)")
	flags.String("log-level", "", "application log level: debug, info, warn, error (env LOG_LEVEL)")
	flags.String("log-dir", "", "directory for the rotating application log (env LOG_DIR)")
	flags.Int("max-size-mb", 0, "skip log files larger than this many MB (env MAX_LOG_SIZE_MB)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "also write application logs to the console")
	flags.StringVar(&colorMode, "color", "auto", "colour output: auto, always, never")

	_ = viper.BindPFlag("LLM_PROVIDER", flags.Lookup("provider"))
	_ = viper.BindPFlag("LOG_LEVEL", flags.Lookup("log-level"))
	_ = viper.BindPFlag("LOG_DIR", flags.Lookup("log-dir"))
	_ = viper.BindPFlag("MAX_LOG_SIZE_MB", flags.Lookup("max-size-mb"))

	colorize := func() bool {
		return output.ShouldColorize(output.ParseColorMode(colorMode), a.out)
	}

	root.AddCommand(
		newAnalyzeCmd(a, colorize),
		newParseCmd(a, colorize),
		newSummaryCmd(a),
		newShowCmd(a, colorize),
		newVersionCmd(a),
	)
	return root
}
