// Package reporting renders check reports as text, JSON, JUnit XML,
// markdown and HTML.
package reporting

import (
	"fmt"
	"io"
	"strings"

	"github.com/spboyer/ifccheck/internal/runner"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatJUnit    Format = "junit"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// Formats lists every supported format in help-text order.
var Formats = []Format{FormatText, FormatJSON, FormatJUnit, FormatMarkdown, FormatHTML}

// ParseFormat resolves a format name. "md" and "xml" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatJUnit, FormatMarkdown, FormatHTML:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	case "xml":
		return FormatJUnit, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown format %q (valid: %s)", s, formatList())
	}
}

// Write renders report to w in the given format.
func Write(w io.Writer, report *runner.Report, format Format) error {
	switch format {
	case FormatText, "":
		return WriteText(w, report)
	case FormatJSON:
		return WriteJSON(w, report)
	case FormatJUnit:
		return WriteJUnitXML(w, report)
	case FormatMarkdown:
		_, err := io.WriteString(w, FormatMarkdownReport(report))
		return err
	case FormatHTML:
		return WriteHTML(w, report)
	default:
		return fmt.Errorf("unknown format %q (valid: %s)", format, formatList())
	}
}

func formatList() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

func statusIcon(passed bool) string {
	if passed {
		return "✅"
	}
	return "❌"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
