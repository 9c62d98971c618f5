package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version information",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(a.out, "log-issue-analyzer %s\n", version)
			if gitCommit != "unknown" {
				_, _ = fmt.Fprintf(a.out, "  commit: %s\n", gitCommit)
			}
			if buildTime != "unknown" {
				_, _ = fmt.Fprintf(a.out, "  built:  %s\n", buildTime)
			}
		},
	}
}
