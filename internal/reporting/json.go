package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spboyer/ifccheck/internal/runner"
	"github.com/spboyer/ifccheck/internal/validation"
)

type jsonReport struct {
	*runner.Report
	Totals runner.Totals `json:"totals"`
}

// MarshalJSON returns the indented JSON form of report after validating
// every rule's records against the result schema.
func MarshalJSON(report *runner.Report) ([]byte, error) {
	if err := ValidateReport(report); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(jsonReport{Report: report, Totals: report.Totals()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteJSON writes the JSON form of report to w.
func WriteJSON(w io.Writer, report *runner.Report) error {
	data, err := MarshalJSON(report)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// ValidateReport checks every rule's records against the result schema.
func ValidateReport(report *runner.Report) error {
	var problems []string
	for _, m := range report.Models {
		for _, rr := range m.Rules {
			for _, e := range validation.ValidateResults(rr.Results) {
				problems = append(problems, fmt.Sprintf("%s %s %s", m.Path, rr.Rule, e))
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("report does not match the result schema:\n  %s", strings.Join(problems, "\n  "))
	}
	return nil
}
