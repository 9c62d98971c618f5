package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/olegiv/logissue-ai-go/internal/output"
	"github.com/olegiv/logissue-ai-go/internal/storage"
)

func newShowCmd(a *app, colorize func() bool) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show [flags] <db-file>",
		Short: "Print issues from a SQLite export",
		Long:  `Print the issues of the run stored with --export-sqlite.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !output.IsValidFormat(format) {
				return fmt.Errorf("invalid --output value: %s", format)
			}
			if _, err := os.Stat(args[0]); err != nil {
				return fmt.Errorf("database not found: %s", args[0])
			}

			store, err := storage.New(args[0], a.log)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			run, err := store.LoadRun()
			if err != nil {
				return err
			}

			if format == output.FormatHuman {
				_, _ = fmt.Fprintf(a.errOut, "Run %s (%s, %s) %s\n",
					run.ID, run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					humanize.Time(run.CreatedAt), run.SourcePath)
			}
			printer := output.NewPrinter(a.out, colorize() && format == output.FormatHuman)
			return printer.Print(format, run.Issues)
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", output.FormatHuman, "output format: human, json, yaml, csv")

	return cmd
}
