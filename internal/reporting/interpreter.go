package reporting

import (
	"fmt"

	"github.com/spboyer/ifccheck/internal/runner"
)

// InterpretPassRate returns a plain-language label for the share of
// elements that passed (0–1).
func InterpretPassRate(rate float64) string {
	pct := rate * 100
	switch {
	case pct >= 100:
		return fmt.Sprintf("All elements compliant (%.0f%%)", pct)
	case pct >= 80:
		return fmt.Sprintf("Most elements compliant (%.0f%%)", pct)
	case pct >= 50:
		return fmt.Sprintf("About half the elements compliant (%.0f%%)", pct)
	default:
		return fmt.Sprintf("Few elements compliant (%.0f%%)", pct)
	}
}

// InterpretTotals explains the element pass rate of a run. A run that
// checked no elements has nothing to interpret.
func InterpretTotals(t runner.Totals) string {
	if t.Elements == 0 {
		return "No elements checked"
	}
	passed := t.Elements - t.FailedElems
	return InterpretPassRate(float64(passed) / float64(t.Elements))
}
