package reporting

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spboyer/ifccheck/internal/runner"
)

// FormatMarkdownReport formats a report as markdown suitable for a pull
// request comment.
func FormatMarkdownReport(report *runner.Report) string {
	var b strings.Builder
	t := report.Totals()

	b.WriteString("## 🏗️ IFC Compliance Results\n\n")

	b.WriteString(fmt.Sprintf("**Status:** %s | **Run:** `%s` | **Checked:** %s\n\n",
		overallStatus(report.Passed()), report.RunID, report.Timestamp.Format(time.RFC3339)))

	b.WriteString(fmt.Sprintf("- **Models:** %d\n", t.Models))
	b.WriteString(fmt.Sprintf("- **Rule runs:** %d total, %d failed\n", t.RuleRuns, t.FailedRuns))
	b.WriteString(fmt.Sprintf("- **Elements:** %d checked, %d failed\n", t.Elements, t.FailedElems))
	b.WriteString(fmt.Sprintf("- **Compliance:** %s\n\n", InterpretTotals(t)))

	b.WriteString("### Rule Results\n\n")
	b.WriteString("| Model | Rule | Status | Summary |\n")
	b.WriteString("|-------|------|--------|---------|\n")
	for _, m := range report.Models {
		for _, rr := range m.Rules {
			summary := "-"
			if s, ok := rr.Summary(); ok && s.Comment != nil {
				summary = *s.Comment
			}
			b.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				escapeCell(filepath.Base(m.Path)), rr.Rule, statusIcon(rr.Passed()), escapeCell(summary)))
		}
	}
	b.WriteString("\n")

	if report.Passed() {
		return b.String()
	}

	b.WriteString("### Failed Elements\n\n")
	for _, m := range report.Models {
		for _, rr := range m.Rules {
			if rr.Passed() {
				continue
			}
			b.WriteString(fmt.Sprintf("#### %s · %s\n\n", filepath.Base(m.Path), rr.Rule))
			b.WriteString("| Element | Type | Global ID | Actual | Comment |\n")
			b.WriteString("|---------|------|-----------|--------|---------|\n")
			for _, r := range rr.Results {
				if r.IsSummary() || r.Passed() {
					continue
				}
				b.WriteString(fmt.Sprintf("| %s | %s | `%s` | %s | %s |\n",
					escapeCell(r.ElementName), r.ElementType, deref(r.ElementID),
					escapeCell(r.ActualValue), escapeCell(deref(r.Comment))))
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

func overallStatus(passed bool) string {
	if passed {
		return "✅ Passed"
	}
	return "❌ Failed"
}

// escapeCell keeps user text from breaking a table row.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
