// Package tui renders conversion progress and reports on the terminal.
// Plain streaming output, no alternate screen.
package tui

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/schollz/progressbar/v3"

	"github.com/licorflow/licorflow/pkg/batch"
)

// Colors (Swiss minimal)
var (
	accent  = lipgloss.Color("#FF6600")
	muted   = lipgloss.Color("#666666")
	success = lipgloss.Color("#00CC66")
	failure = lipgloss.Color("#FF3333")
	white   = lipgloss.Color("#FFFFFF")
)

// Styles
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(white)
	accentStyle  = lipgloss.NewStyle().Foreground(accent).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(muted)
	successStyle = lipgloss.NewStyle().Foreground(success).Bold(true)
	failureStyle = lipgloss.NewStyle().Foreground(failure).Bold(true)
)

// PrintHeader prints the tool banner.
func PrintHeader(version string) {
	fmt.Println()
	fmt.Println(titleStyle.Render("  LICORFLOW") + mutedStyle.Render(" v"+version))
	fmt.Println(mutedStyle.Render("  LI-COR gas exchange log converter"))
	fmt.Println()
}

// ShowProgress creates a progress bar over a file count.
func ShowProgress(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

// PrintBatchReport prints the per-file outcomes and a summary line.
func PrintBatchReport(results []batch.Result) {
	var ok, failed int
	var rows, bytes int64
	var warnings int

	fmt.Println()
	for _, res := range results {
		name := filepath.Base(res.Input)
		if res.Err != nil {
			failed++
			fmt.Printf("  %s %s  %s\n",
				failureStyle.Render("✗"),
				titleStyle.Render(name),
				mutedStyle.Render(res.Err.Error()))
			continue
		}
		ok++
		rows += res.Rows
		bytes += res.Bytes
		warnings += res.Warnings

		line := fmt.Sprintf("  %s %s  %s",
			successStyle.Render("✓"),
			titleStyle.Render(name),
			mutedStyle.Render(fmt.Sprintf("%d rows, %s, %s",
				res.Rows, formatBytes(res.Bytes), formatDuration(res.Duration))))
		if res.Warnings > 0 {
			line += "  " + accentStyle.Render(fmt.Sprintf("%d warnings", res.Warnings))
		}
		fmt.Println(line)
	}

	fmt.Println()
	summary := fmt.Sprintf("%d converted, %d failed, %d rows, %s",
		ok, failed, rows, formatBytes(bytes))
	if warnings > 0 {
		summary += fmt.Sprintf(", %d warnings", warnings)
	}
	if failed > 0 {
		fmt.Println("  " + failureStyle.Render(summary))
	} else {
		fmt.Println("  " + successStyle.Render(summary))
	}
	fmt.Println()
}

// PrintWarnings lists table warnings, capped so a noisy file cannot flood
// the terminal.
func PrintWarnings(warnings []string, limit int) {
	if limit <= 0 {
		limit = 20
	}
	for i, w := range warnings {
		if i == limit {
			fmt.Println(mutedStyle.Render(fmt.Sprintf("  … and %d more", len(warnings)-limit)))
			return
		}
		fmt.Println("  " + accentStyle.Render("!") + " " + mutedStyle.Render(w))
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
