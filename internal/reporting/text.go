package reporting

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/spboyer/ifccheck/internal/runner"
)

const (
	maxNameWidth   = 40
	maxActualWidth = 24
	colStatus      = 8
)

// WriteText writes an aligned table per model and rule, followed by totals.
func WriteText(w io.Writer, report *runner.Report) error {
	for _, m := range report.Models {
		header := filepath.Base(m.Path)
		if m.Schema != "" {
			header += " [" + m.Schema + "]"
		}
		fmt.Fprintf(w, "%s\n", header) //nolint:errcheck

		for _, rr := range m.Rules {
			writeRuleTable(w, rr)
		}
	}

	t := report.Totals()
	_, err := fmt.Fprintf(w, "%d model(s), %d rule run(s), %d failed; %d element(s) checked, %d failed\n",
		t.Models, t.RuleRuns, t.FailedRuns, t.Elements, t.FailedElems)
	return err
}

func writeRuleTable(w io.Writer, rr runner.RuleReport) {
	title := "  " + rr.Rule
	if rr.Cached {
		title += " (cached)"
	}
	fmt.Fprintf(w, "%s\n", title) //nolint:errcheck

	nameWidth, actualWidth := len("Element"), len("Actual")
	for _, r := range rr.Results {
		if r.IsSummary() {
			continue
		}
		nameWidth = max(nameWidth, min(runewidth.StringWidth(r.ElementName), maxNameWidth))
		actualWidth = max(actualWidth, min(runewidth.StringWidth(r.ActualValue), maxActualWidth))
	}

	elements := 0
	for _, r := range rr.Results {
		if r.IsSummary() {
			continue
		}
		if elements == 0 {
			fmt.Fprintf(w, "  %s  %s  %s  %s\n", //nolint:errcheck
				padRight("Element", nameWidth),
				padRight("Status", colStatus),
				padRight("Actual", actualWidth),
				"Comment")
			fmt.Fprintf(w, "  %s\n", strings.Repeat("─", nameWidth+colStatus+actualWidth+6+len("Comment"))) //nolint:errcheck
		}
		elements++

		status := statusIcon(r.Passed()) + " " + string(r.CheckStatus)
		line := fmt.Sprintf("  %s  %s  %s  %s",
			padRight(truncateName(r.ElementName, maxNameWidth), nameWidth),
			padRight(status, colStatus),
			padRight(truncateName(r.ActualValue, maxActualWidth), actualWidth),
			deref(r.Comment))
		fmt.Fprintf(w, "%s\n", strings.TrimRight(line, " ")) //nolint:errcheck
	}

	if s, ok := rr.Summary(); ok {
		fmt.Fprintf(w, "  %s %s: %s\n\n", statusIcon(s.Passed()), s.ElementName, deref(s.Comment)) //nolint:errcheck
	} else {
		fmt.Fprintf(w, "  ⚠️ no summary row\n\n") //nolint:errcheck
	}
}

// truncateName shortens a name to maxLen display cells, ending in "…" when cut.
func truncateName(name string, maxLen int) string {
	if runewidth.StringWidth(name) <= maxLen {
		return name
	}
	return runewidth.Truncate(name, maxLen, "…")
}

// padRight pads s with spaces so its terminal display width reaches width.
func padRight(s string, width int) string {
	sw := runewidth.StringWidth(s)
	if sw >= width {
		return s
	}
	return s + strings.Repeat(" ", width-sw)
}
