package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/rotisserie/eris"

	"github.com/sells-group/rfp-cli/internal/present"
	"github.com/sells-group/rfp-cli/internal/view"
)

// Markdown renders v as a Markdown document.
func Markdown(v view.View) string {
	var b strings.Builder
	b.WriteString("# RFP Analysis\n\n")
	if v.SessionID != "" {
		fmt.Fprintf(&b, "Session: `%s`\n\n", v.SessionID)
	}
	fmt.Fprintf(&b, "**Similarity with existing bids:** %s\n\n", v.Similarity)
	fmt.Fprintf(&b, "**Minimum confidence:** %s | **AI interpretations:** %s\n\n",
		present.ThresholdLabel(v.Filter.ConfidenceThreshold), shownHidden(v.Filter.ShowInterpreted))

	for _, s := range v.Sections {
		fmt.Fprintf(&b, "## %s\n\n", s.Title)
		if s.Empty() {
			fmt.Fprintf(&b, "_%s_\n\n", view.NoData)
			continue
		}
		for _, r := range s.Rows {
			fmt.Fprintf(&b, "- **%s:** %s\n", escape(r.Label), markdownValue(r.Presented))
		}
		b.WriteString("\n")
	}

	b.WriteString("---\n\n")
	for _, e := range view.Legend {
		if e.Badge {
			fmt.Fprintf(&b, "- `%s` %s\n", Badge, e.Label)
			continue
		}
		fmt.Fprintf(&b, "- %s\n", e.Label)
	}
	return b.String()
}

func markdownValue(p present.Presented) string {
	if !p.Visible() {
		return "_" + p.Text + "_"
	}
	out := escape(p.Text)
	if ind := p.Indicator; ind != nil {
		out += fmt.Sprintf(" (%d%% %s)", ind.Percent, ind.Tier)
		if ind.Interpreted {
			out += " `" + Badge + "`"
		}
	}
	return out
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"\n", " ",
)

func escape(s string) string {
	return mdEscaper.Replace(s)
}

// TerminalMarkdown styles Markdown for the terminal with glamour.
func TerminalMarkdown(md string, width int) (string, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", eris.Wrap(err, "render: create markdown renderer")
	}
	out, err := r.Render(md)
	if err != nil {
		return "", eris.Wrap(err, "render: markdown")
	}
	return out, nil
}
