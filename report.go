package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const reportWidth = 72

// WriteReport prints a report view as plain terminal text. Colors are
// rendered by lipgloss and dropped automatically when w is not a terminal.
func WriteReport(w io.Writer, protocol string, r ReportView) error {
	var sb strings.Builder

	level := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(r.LevelColor))
	heading := lipgloss.NewStyle().Bold(true)

	fmt.Fprintf(&sb, "%s\n", heading.Render("Risk assessment: "+protocol))
	fmt.Fprintf(&sb, "Score: %s / 100  %s\n\n", level.Render(fmt.Sprintf("%d", r.Score)), level.Render(r.LevelLabel))

	for _, mc := range r.Metrics {
		fmt.Fprintf(&sb, "  %-14s %s\n", mc.Label, mc.Value)
	}

	fmt.Fprintf(&sb, "\n%s\n", heading.Render(fmt.Sprintf("Findings (%d)", len(r.Findings))))
	for _, f := range r.Findings {
		sev := lipgloss.NewStyle().Foreground(lipgloss.Color(f.Color)).Render(fmt.Sprintf("[%s]", f.Severity))
		fmt.Fprintf(&sb, "  %s %s\n", sev, f.Title)
		writeWrapped(&sb, f.Description)
	}

	fmt.Fprintf(&sb, "\n%s\n", heading.Render(fmt.Sprintf("Recommendations (%d)", len(r.Recommendations))))
	for _, rec := range r.Recommendations {
		fmt.Fprintf(&sb, "  • %s\n", rec.Title)
		writeWrapped(&sb, rec.Description)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeWrapped(sb *strings.Builder, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	for _, line := range wrapText(text, reportWidth-4) {
		sb.WriteString("    " + line + "\n")
	}
}
