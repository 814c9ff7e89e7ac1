package checks

// CheckStatus is the outcome recorded on every result row.
type CheckStatus string

const (
	// StatusPass indicates the element satisfies the rule.
	StatusPass CheckStatus = "pass"
	// StatusFail indicates the element violates the rule.
	StatusFail CheckStatus = "fail"
)

// StatusOf maps a boolean outcome to a CheckStatus.
func StatusOf(passed bool) CheckStatus {
	if passed {
		return StatusPass
	}
	return StatusFail
}

// Valid reports whether s is one of the known statuses.
func (s CheckStatus) Valid() bool {
	return s == StatusPass || s == StatusFail
}
