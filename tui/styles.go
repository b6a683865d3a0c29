package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rickabrac/rickbot/output"
)

var (
	titleStyle       = lipgloss.NewStyle().Bold(true)
	successStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle       = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	categoryStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	dimStyle         = lipgloss.NewStyle().Faint(true)
	urlStyle         = lipgloss.NewStyle()
	statusErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// categoryOrder defines the display order for error categories (most to
// least actionable).
var categoryOrder = []output.ErrorCategory{
	output.Category4xx,
	output.Category5xx,
	output.CategoryTimeout,
	output.CategoryDNSFailure,
	output.CategoryConnectionRefused,
	output.CategoryUnknown,
}

// RenderSummary produces a Lip Gloss styled summary of a completed crawl,
// grouping failed pages by error category. This supplements (never
// replaces) the bit-stable stdout lines spec.md §6 requires.
func RenderSummary(res *output.Result) string {
	if res == nil {
		return errorStyle.Render("No results available.")
	}

	var failed []output.PageReport
	for _, p := range res.Pages {
		if p.Error != "" || p.Disallowed || p.StatusCode >= 400 {
			failed = append(failed, p)
		}
	}

	var b strings.Builder

	if len(failed) == 0 {
		b.WriteString(successStyle.Render("No errors encountered."))
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf(
			"%d pages crawled in %s",
			res.Stats.PagesCrawled, res.Stats.Duration.Round(1_000_000),
		)))
		b.WriteString("\n")
		return b.String()
	}

	grouped := make(map[output.ErrorCategory][]output.PageReport)
	for _, p := range failed {
		cat := p.Category
		if cat == "" {
			cat = output.CategoryUnknown
		}
		grouped[cat] = append(grouped[cat], p)
	}

	for _, cat := range categoryOrder {
		pages, ok := grouped[cat]
		if !ok || len(pages) == 0 {
			continue
		}

		b.WriteString(categoryStyle.Render(fmt.Sprintf("## %s (%d)", output.FormatCategory(cat), len(pages))))
		b.WriteString("\n")

		rows := make([][]string, 0, len(pages))
		for _, p := range pages {
			status := fmt.Sprintf("%d", p.StatusCode)
			if p.Error != "" {
				status = p.Error
			}
			rows = append(rows, []string{p.URL, status, p.Host})
		}

		catTable := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("URL", "Status", "Host").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				if col == 1 {
					return statusErrorStyle
				}
				return urlStyle
			}).
			Rows(rows...)

		b.WriteString(catTable.Render())
		b.WriteString("\n\n")
	}

	b.WriteString(titleStyle.Render(fmt.Sprintf(
		"%d pages crawled, %d with errors (%s)",
		res.Stats.PagesCrawled, len(failed), res.Stats.Duration.Round(1_000_000),
	)))
	b.WriteString("\n")

	return b.String()
}
