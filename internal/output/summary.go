package output

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/olegiv/logissue-ai-go/internal/ai"
	"github.com/olegiv/logissue-ai-go/internal/analyzer"
	"github.com/olegiv/logissue-ai-go/internal/issue"
)

// FormatSourceInfo returns a one-line description of a log source.
func FormatSourceInfo(info *analyzer.SourceInfo) string {
	if info == nil {
		return "no log source"
	}
	files := "files"
	if info.Files == 1 {
		files = "file"
	}
	return fmt.Sprintf("%s: %d log %s, %s",
		info.Path, info.Files, files, humanize.IBytes(uint64(info.SizeBytes)))
}

// FormatStats returns a one-line summary of a model call.
func FormatStats(stats *ai.Stats) string {
	if stats == nil {
		return ""
	}
	line := fmt.Sprintf("%s (%s): %s tokens in, %s tokens out, %.1fs",
		stats.Provider, stats.Model,
		humanize.Comma(int64(stats.InputTokens)),
		humanize.Comma(int64(stats.OutputTokens)),
		stats.DurationSeconds)
	if stats.CostUSD > 0 {
		line += fmt.Sprintf(", $%.4f", stats.CostUSD)
	}
	if stats.Attempts > 1 {
		line += fmt.Sprintf(", %d attempts", stats.Attempts)
	}
	return line
}

// FormatSeverityCounts returns counts per severity, most urgent first,
// e.g. "Critical: 1, Warning: 2".
func FormatSeverityCounts(records []issue.Record) string {
	counts := issue.CountBySeverity(records)
	severities := make([]string, 0, len(counts))
	for s := range counts {
		severities = append(severities, s)
	}
	sort.SliceStable(severities, func(i, j int) bool {
		ri, rj := issue.Rank(severities[i]), issue.Rank(severities[j])
		if ri != rj {
			return ri < rj
		}
		return severities[i] < severities[j]
	})

	parts := make([]string, len(severities))
	for i, s := range severities {
		parts[i] = fmt.Sprintf("%s: %d", s, counts[s])
	}
	return strings.Join(parts, ", ")
}

// PrintSummary writes the source, stats and severity lines to w, skipping
// the ones with nothing to report.
func PrintSummary(w io.Writer, result *analyzer.Result) {
	if result.Source != nil {
		fmt.Fprintln(w, FormatSourceInfo(result.Source))
	}
	if line := FormatStats(result.Stats); line != "" {
		fmt.Fprintln(w, line)
	}
	if len(result.Ranked) > 0 {
		fmt.Fprintf(w, "Issues: %s (%s)\n",
			humanize.Comma(int64(len(result.Ranked))), FormatSeverityCounts(result.Ranked))
	}
}
