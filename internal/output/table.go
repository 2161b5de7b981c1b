package output

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/blackwell-systems/gicowa/internal/store"
)

// RenderRunTable renders the run history, newest first.
func RenderRunTable(runs []*store.Run, now time.Time) string {
	if len(runs) == 0 {
		return "No runs recorded.\n"
	}

	sorted := make([]*store.Run, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CompletedAt.After(sorted[j].CompletedAt)
	})

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-40s %-19s %-16s %s\n",
		"Command", "Since", "Completed", "Lines"))
	sb.WriteString(strings.Repeat("─", 84))
	sb.WriteString("\n")

	for _, run := range sorted {
		sb.WriteString(fmt.Sprintf("%-40s %-19s %-16s %d\n",
			truncate(run.Identity, 40),
			run.Since,
			formatRelativeTime(run.CompletedAt, now),
			run.LineCount))
	}

	return sb.String()
}

// formatRelativeTime formats t relative to now ("3 hours ago").
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if now.Sub(t) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
