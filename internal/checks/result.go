package checks

// ElementTypeSummary tags the aggregate row a check appends after its
// per-element rows.
const ElementTypeSummary = "Summary"

// Result is one row of a compliance report. Optional fields are nil when
// absent and serialise as null.
type Result struct {
	// ElementID is the GlobalId of the checked element; nil on the summary row.
	ElementID   *string `json:"element_id"`
	ElementType string  `json:"element_type"`
	// ElementName is never empty: checks synthesise a label when the
	// element has no name of its own.
	ElementName     string      `json:"element_name"`
	ElementNameLong *string     `json:"element_name_long"`
	CheckStatus     CheckStatus `json:"check_status"`
	ActualValue     string      `json:"actual_value"`
	RequiredValue   string      `json:"required_value"`
	Comment         *string     `json:"comment"`
	Log             *string     `json:"log"`
}

// IsSummary reports whether r is the aggregate row.
func (r Result) IsSummary() bool { return r.ElementType == ElementTypeSummary }

// Passed reports whether r has a passing status.
func (r Result) Passed() bool { return r.CheckStatus == StatusPass }

// Summary returns the aggregate row of results, or false if there is none.
// The summary is always the last row.
func Summary(results []Result) (Result, bool) {
	if len(results) == 0 {
		return Result{}, false
	}
	last := results[len(results)-1]
	return last, last.IsSummary()
}

// CountFailed returns the number of failing per-element rows.
func CountFailed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.IsSummary() && !r.Passed() {
			n++
		}
	}
	return n
}
