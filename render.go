package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// buttonWidth is the analyze button's width at rest scale
const buttonWidth = 12

// Styles for the TUI, derived from a theme preset
type Styles struct {
	theme ThemePreset

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Dim      lipgloss.Style
	Error    lipgloss.Style
	Accent   lipgloss.Style
	Search   lipgloss.Style
	Button   lipgloss.Style
	Disabled lipgloss.Style
}

// NewStyles creates the style set for a theme
func NewStyles(theme ThemePreset) *Styles {
	return &Styles{
		theme:    theme,
		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Prompt),
		Subtitle: lipgloss.NewStyle().Foreground(theme.Text),
		Dim:      lipgloss.NewStyle().Foreground(theme.Dim),
		Error:    lipgloss.NewStyle().Foreground(theme.Error),
		Accent:   lipgloss.NewStyle().Foreground(theme.Accent),
		Search: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Dim).
			Padding(0, 1),
		Button: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			Background(theme.Accent).
			Align(lipgloss.Center).
			Padding(1, 0),
		Disabled: lipgloss.NewStyle().
			Foreground(theme.Dim).
			Background(theme.Surface).
			Align(lipgloss.Center).
			Padding(1, 0),
	}
}

// fade blends fg toward the theme background by 1-opacity
func (s *Styles) fade(fg lipgloss.Color, opacity float64) lipgloss.Color {
	if opacity >= 1 {
		return fg
	}
	f, err := colorful.Hex(string(fg))
	if err != nil {
		return fg
	}
	b, err := colorful.Hex(string(s.theme.Background))
	if err != nil {
		return fg
	}
	return lipgloss.Color(b.BlendLab(f, opacity).Clamped().Hex())
}

func (m Model) View() string {
	var sb strings.Builder
	st := m.orch.State()
	anim := m.orch.Animation().Values()

	sb.WriteString(m.renderHeader())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderSearchRow(anim))
	sb.WriteString("\n")

	if st.Phase == PhaseSubmitting {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			m.styles.Accent.Render(m.spinner.View()),
			m.styles.Dim.Render("Analyzing "+st.Query.String()+"…")))
	}
	if m.notice != "" {
		sb.WriteString(m.styles.Dim.Render("  " + m.notice))
		sb.WriteString("\n")
	}

	switch st.Phase {
	case PhaseFailure:
		sb.WriteString("\n")
		sb.WriteString(m.renderFailure(st.Err))
	case PhaseSuccess:
		if report, ok := m.orch.Report(); ok {
			sb.WriteString("\n")
			sb.WriteString(m.renderReport(report, anim.ResultOpacity))
		}
	}

	sb.WriteString("\n")
	sb.WriteString(m.styles.Dim.Render(m.help.View(m.keys)))
	return sb.String()
}

func (m Model) renderHeader() string {
	title := m.styles.Title.Render("RISKSCOPE")
	sub := m.styles.Dim.Render("  protocol risk assessment · " + m.orch.AnalyzerName())
	return "  " + title + sub
}

func (m Model) renderSearchRow(anim AnimationState) string {
	w := int(math.Round(anim.SearchWidth))
	if w < 10 {
		w = 10
	}
	search := m.styles.Search.Width(w).Render(m.input.View())

	bw := int(math.Round(buttonWidth * anim.ButtonScale))
	label := "Analyze"
	if m.orch.State().Phase == PhaseSubmitting {
		label = "…"
	}
	style := m.styles.Button
	if !m.orch.CanSubmit() {
		style = m.styles.Disabled
	}
	button := style.Width(bw).Render(label)

	return lipgloss.JoinHorizontal(lipgloss.Center, "  ", search, " ", button)
}

func (m Model) renderFailure(err error) string {
	msg := FormatUserError(err)
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.styles.theme.Error).
		Padding(0, 1).
		MarginLeft(2).
		Width(m.contentWidth())
	return box.Render(strings.TrimRight(msg, "\n")+"\n\n"+m.styles.Dim.Render("Press enter to retry")) + "\n"
}

func (m Model) contentWidth() int {
	w := m.width - 6
	if w < 30 {
		w = 30
	}
	return w
}

// renderReport draws the success panel with every color faded by opacity
func (m Model) renderReport(r ReportView, opacity float64) string {
	s := m.styles
	text := s.fade(s.theme.Text, opacity)
	dim := s.fade(s.theme.Dim, opacity)
	border := s.fade(s.theme.Surface, opacity)
	width := m.contentWidth()

	var sb strings.Builder

	// Score
	score := lipgloss.NewStyle().Bold(true).Foreground(s.fade(lipgloss.Color(r.LevelColor), opacity))
	sb.WriteString("  " + lipgloss.NewStyle().Foreground(dim).Render("Risk Score") + "\n")
	sb.WriteString(fmt.Sprintf("  %s%s   %s\n\n",
		score.Render(fmt.Sprintf("%d", r.Score)),
		lipgloss.NewStyle().Foreground(dim).Render(" / 100"),
		score.Render(r.LevelLabel)))

	// Metrics, two per row
	cardWidth := (width - 2) / 2
	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(cardWidth)
	label := lipgloss.NewStyle().Foreground(dim)
	value := lipgloss.NewStyle().Bold(true).Foreground(text)
	for i := 0; i < len(r.Metrics); i += 2 {
		row := []string{"  "}
		for _, mc := range r.Metrics[i:min(i+2, len(r.Metrics))] {
			row = append(row, card.Render(label.Render(mc.Label)+"\n"+value.Render(mc.Value)))
		}
		sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	// Tabs
	active := m.orch.Tabs().Active()
	sb.WriteString("  " + m.renderTab(fmt.Sprintf("Findings (%d)", len(r.Findings)), active == TabFindings, opacity))
	sb.WriteString(" " + m.renderTab(fmt.Sprintf("Recommendations (%d)", len(r.Recommendations)), active == TabRecommendations, opacity))
	sb.WriteString("\n\n")

	title := lipgloss.NewStyle().Bold(true).Foreground(text)
	desc := lipgloss.NewStyle().Foreground(dim)
	switch active {
	case TabRecommendations:
		for _, rec := range r.Recommendations {
			sb.WriteString("  " + lipgloss.NewStyle().Foreground(s.fade(s.theme.Accent, opacity)).Render("•") + " " + title.Render(rec.Title) + "\n")
			for _, line := range wrapText(rec.Description, width-4) {
				sb.WriteString("    " + desc.Render(line) + "\n")
			}
			sb.WriteString("\n")
		}
	default:
		for _, f := range r.Findings {
			bar := lipgloss.NewStyle().Foreground(s.fade(lipgloss.Color(f.Color), opacity)).Render("▌")
			sb.WriteString("  " + bar + " " + title.Render(f.Title) + "\n")
			for _, line := range wrapText(f.Description, width-4) {
				sb.WriteString("  " + bar + " " + desc.Render(line) + "\n")
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func (m Model) renderTab(label string, active bool, opacity float64) string {
	s := m.styles
	style := lipgloss.NewStyle().Padding(0, 1)
	if active {
		return style.Bold(true).Underline(true).
			Foreground(s.fade(s.theme.Text, opacity)).
			Render(label)
	}
	return style.Foreground(s.fade(s.theme.Dim, opacity)).Render(label)
}
