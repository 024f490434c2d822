// Package render draws an analysis view as terminal text, Markdown, HTML,
// JSON or YAML.
package render

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/rfp-cli/internal/view"
)

// Format is an output format for a view.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// Formats lists the formats accepted by ParseFormat.
func Formats() []Format {
	return []Format{FormatText, FormatMarkdown, FormatJSON, FormatYAML}
}

// ParseFormat parses a format name; "md" and "yml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", eris.Errorf("render: unknown format %q", s)
	}
}

// Options tune text output.
type Options struct {
	// Width wraps text and Markdown output; zero uses DefaultWidth.
	Width int
	// Styled pipes Markdown through the terminal renderer.
	Styled bool
}

// DefaultWidth is the wrap width when none is given.
const DefaultWidth = 80

func (o Options) width() int {
	if o.Width <= 0 {
		return DefaultWidth
	}
	return o.Width
}

// Write renders v to w in the given format.
func Write(w io.Writer, v view.View, f Format, opts Options) error {
	var out string
	switch f {
	case FormatText:
		out = Text(v, opts.width())
	case FormatMarkdown:
		md := Markdown(v)
		if opts.Styled {
			styled, err := TerminalMarkdown(md, opts.width())
			if err != nil {
				return err
			}
			md = styled
		}
		out = md
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "render: encode json")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "render: encode yaml")
		}
		return eris.Wrap(enc.Close(), "render: close yaml encoder")
	default:
		return eris.Errorf("render: unknown format %q", f)
	}
	_, err := io.WriteString(w, out)
	return eris.Wrap(err, "render: write")
}
