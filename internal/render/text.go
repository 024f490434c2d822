package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/view"
)

// BarCells is the width of a confidence bar.
const BarCells = 10

var (
	colorHigh   = lipgloss.Color("#2e7d32")
	colorMedium = lipgloss.Color("#f9a825")
	colorLow    = lipgloss.Color("#c62828")
	colorMuted  = lipgloss.Color("#9e9e9e")
	colorAccent = lipgloss.Color("#6a1b9a")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1565c0"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)
	badgeStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	panelStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// Badge marks an interpreted value.
const Badge = "[AI]"

func tierStyle(t present.Tier) lipgloss.Style {
	switch t {
	case present.TierHigh:
		return lipgloss.NewStyle().Foreground(colorHigh)
	case present.TierMedium:
		return lipgloss.NewStyle().Foreground(colorMedium)
	case present.TierLow:
		return lipgloss.NewStyle().Foreground(colorLow)
	default:
		return mutedStyle
	}
}

// Bar draws a confidence score as BarCells cells.
func Bar(confidence float64) string {
	filled := int(confidence*BarCells + 0.5)
	if filled < 0 {
		filled = 0
	}
	if filled > BarCells {
		filled = BarCells
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", BarCells-filled)
}

// Text renders v as styled terminal panels.
func Text(v view.View, width int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("RFP Analysis"))
	if v.SessionID != "" {
		b.WriteString(mutedStyle.Render("  session " + v.SessionID))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Similarity with existing bids: %s\n", v.Similarity)
	fmt.Fprintf(&b, "Minimum confidence: %s | AI interpretations: %s\n",
		present.ThresholdLabel(v.Filter.ConfidenceThreshold), shownHidden(v.Filter.ShowInterpreted))
	b.WriteString(legend())
	b.WriteString("\n")

	// lipgloss widths include padding but not borders.
	panel := width - panelStyle.GetHorizontalBorderSize()
	content := panel - panelStyle.GetHorizontalPadding()
	if content < 20 {
		content = 20
		panel = content + panelStyle.GetHorizontalPadding()
	}
	for _, s := range v.Sections {
		b.WriteString(panelStyle.Width(panel).Render(sectionBody(s, content)))
		b.WriteString("\n")
	}
	return b.String()
}

func shownHidden(shown bool) string {
	if shown {
		return "shown"
	}
	return "hidden"
}

func legend() string {
	parts := make([]string, 0, len(view.Legend))
	for _, e := range view.Legend {
		if e.Badge {
			parts = append(parts, badgeStyle.Render(Badge)+" "+e.Label)
			continue
		}
		parts = append(parts, tierStyle(e.Tier).Render("●")+" "+e.Label)
	}
	return strings.Join(parts, "  ") + "\n"
}

func sectionBody(s view.Section, width int) string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(s.Title))
	b.WriteString("\n")
	if s.Empty() {
		b.WriteString(mutedStyle.Render(view.NoData))
		return b.String()
	}
	for i, r := range s.Rows {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(rowLine(r, width))
	}
	return b.String()
}

func rowLine(r view.Row, width int) string {
	label := labelStyle.Render(r.Label + ":")
	p := r.Presented
	if !p.Visible() {
		return label + " " + mutedStyle.Render(p.Text)
	}
	line := label + " " + p.Text
	if ind := p.Indicator; ind != nil {
		meta := tierStyle(ind.Tier).Render(fmt.Sprintf("%s %d%%", Bar(ind.Confidence), ind.Percent))
		if ind.Interpreted {
			meta += " " + badgeStyle.Render(Badge)
		}
		line += "  " + meta
	}
	return lipgloss.NewStyle().Width(width).Render(line)
}
