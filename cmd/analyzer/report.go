package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/export"
	"github.com/olegiv/logissue-ai-go/internal/output"
	"github.com/olegiv/logissue-ai-go/internal/storage"
)

// reportOptions are the output flags shared by analyze and parse.
type reportOptions struct {
	keyword      string
	format       string
	exports      []string
	exportSQLite string
}

func addReportFlags(cmd *cobra.Command, opts *reportOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.keyword, "keyword", "k", "", "only show issues mentioning this keyword (case-insensitive)")
	flags.StringVarP(&opts.format, "output", "o", output.FormatHuman, "output format: human, json, yaml, csv")
	flags.StringArrayVar(&opts.exports, "export", nil,
		"write issues to FILE (.csv, .json, .yaml), or pass just csv, json or yaml for <source>_ai_report.<ext>; repeatable")
	flags.StringVar(&opts.exportSQLite, "export-sqlite", "", "store the run and its issues in this SQLite file")
}

func (o *reportOptions) validate() error {
	if !output.IsValidFormat(o.format) {
		return fmt.Errorf("invalid --output value: %s", o.format)
	}
	for _, target := range o.exports {
		if isFormatName(target) {
			continue
		}
		if _, err := export.FormatFromPath(target); err != nil {
			return err
		}
	}
	return nil
}

func isFormatName(s string) bool {
	switch s {
	case export.FormatCSV, export.FormatJSON, export.FormatYAML:
		return true
	}
	return false
}

// deliver prints the result and writes every requested export.
func (a *app) deliver(result *analyzer.Result, opts *reportOptions, colorize bool) error {
	printer := output.NewPrinter(a.out, colorize && opts.format == output.FormatHuman)
	if err := printer.Print(opts.format, result.Ranked); err != nil {
		return fmt.Errorf("failed to print issues: %w", err)
	}

	if opts.format == output.FormatHuman {
		output.PrintSummary(a.errOut, result)
	}

	for _, target := range opts.exports {
		path := target
		if isFormatName(target) {
			path = export.DefaultFilename(result.SourcePath, target)
		}
		if err := export.WriteFile(path, result.Ranked); err != nil {
			return err
		}
		a.log.Info().Str("path", path).Int("issues", len(result.Ranked)).Msg("Issues exported")
		_, _ = fmt.Fprintf(a.errOut, "Exported %d issues to %s\n", len(result.Ranked), path)
	}

	if opts.exportSQLite != "" {
		if err := a.saveRun(opts.exportSQLite, result); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(a.errOut, "Saved run %s to %s\n", result.ID, opts.exportSQLite)
	}

	return nil
}

func (a *app) saveRun(dbPath string, result *analyzer.Result) error {
	store, err := storage.Create(dbPath, a.log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close database")
		}
	}()

	if err := store.SaveRun(storage.RunFromResult(result)); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// writeRawReport keeps the unparsed model output for the parse command.
func writeRawReport(path, raw string) error {
	if err := os.WriteFile(path, []byte(raw), 0600); err != nil {
		return fmt.Errorf("failed to save raw report: %w", err)
	}
	return nil
}
