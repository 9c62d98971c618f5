package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
)

func newParseCmd(a *app, colorize func() bool) *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:   "parse [flags] <report-file>",
		Short: "Parse a saved model report without calling the model",
		Long: `Parse a raw model report saved with "analyze --save-raw" (or any text in
the same labeled format) and print its issues. Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validate(); err != nil {
				return err
			}

			raw, err := readReport(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			pipeline := analyzer.NewPipeline(analyzer.LogSource{}, nil, a.log)
			result := pipeline.ParseReport(raw, opts.keyword)
			if args[0] != "-" {
				if abs, err := filepath.Abs(args[0]); err == nil {
					result.SourcePath = abs
				}
			}

			return a.deliver(result, &opts, colorize())
		},
	}

	addReportFlags(cmd, &opts)
	return cmd
}

func readReport(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read report from stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read report: %w", err)
	}
	return string(data), nil
}
