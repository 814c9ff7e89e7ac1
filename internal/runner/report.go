package runner

import (
	"time"

	"github.com/spboyer/ifccheck/internal/checks"
)

// Report is the outcome of one check run across every input model.
type Report struct {
	RunID     string        `json:"run_id"`
	Timestamp time.Time     `json:"timestamp"`
	Models    []ModelReport `json:"models"`
}

// ModelReport holds the rule outputs for a single model file.
type ModelReport struct {
	Path   string       `json:"path"`
	Schema string       `json:"schema,omitempty"`
	Rules  []RuleReport `json:"rules"`
}

// RuleReport is the output of one rule against one model.
type RuleReport struct {
	Rule    string          `json:"rule"`
	Cached  bool            `json:"cached"`
	Results []checks.Result `json:"results"`
}

// Summary returns the rule's aggregate row.
func (r RuleReport) Summary() (checks.Result, bool) {
	return checks.Summary(r.Results)
}

// Passed reports whether the rule's summary row passed.
func (r RuleReport) Passed() bool {
	s, ok := r.Summary()
	return ok && s.Passed()
}

// Totals counts rule runs across the report.
type Totals struct {
	Models      int `json:"models"`
	RuleRuns    int `json:"rule_runs"`
	FailedRuns  int `json:"failed_runs"`
	Elements    int `json:"elements"`
	FailedElems int `json:"failed_elements"`
}

// Totals aggregates the report.
func (r *Report) Totals() Totals {
	t := Totals{Models: len(r.Models)}
	for _, m := range r.Models {
		for _, rule := range m.Rules {
			t.RuleRuns++
			if !rule.Passed() {
				t.FailedRuns++
			}
			for _, res := range rule.Results {
				if res.IsSummary() {
					continue
				}
				t.Elements++
				if !res.Passed() {
					t.FailedElems++
				}
			}
		}
	}
	return t
}

// Passed reports whether every rule run passed.
func (r *Report) Passed() bool {
	return r.Totals().FailedRuns == 0
}
