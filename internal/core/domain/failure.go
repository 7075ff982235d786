package domain

import "strings"

// FailureCategory classifies a failed pipeline run.
type FailureCategory string

const (
	// FailureUnknown means the pipeline did not classify the failure.
	FailureUnknown FailureCategory = "unknown"
	// FailureTransient means the failure is expected to disappear on retry.
	FailureTransient FailureCategory = "transient"
	// FailureDeterministic means the failure reflects a real defect and will recur.
	FailureDeterministic FailureCategory = "deterministic"
)

// NormalizeFailureCategory converts a string to a FailureCategory, defaulting to unknown.
func NormalizeFailureCategory(s string) FailureCategory {
	switch FailureCategory(strings.ToLower(strings.TrimSpace(s))) {
	case FailureTransient:
		return FailureTransient
	case FailureDeterministic:
		return FailureDeterministic
	default:
		return FailureUnknown
	}
}

// FailureReport is the machine-readable classification a pipeline may leave behind.
type FailureReport struct {
	Category FailureCategory
	Reason   string
}

// UnclassifiedFailure is the report used when the pipeline left none.
func UnclassifiedFailure() FailureReport {
	return FailureReport{Category: FailureUnknown}
}
