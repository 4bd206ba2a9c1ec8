package domain

import (
	"time"
)

// Outcome is the terminal state of one inbound request.
type Outcome string

const (
	OutcomeDelivered          Outcome = "delivered"
	OutcomeRejected           Outcome = "rejected_not_supported"
	OutcomeServiceUnavailable Outcome = "service_unavailable"
	OutcomeDownloadFailed     Outcome = "download_failed"
	OutcomeTooLarge           Outcome = "too_large"
	OutcomeTooSmall           Outcome = "too_small"
	OutcomeDeliveryFailed     Outcome = "delivery_failed"
	OutcomeInternalError      Outcome = "internal_error"
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	return string(o)
}

// Result is what the orchestrator reports back to the front end.
type Result struct {
	RequestID RequestID
	Outcome   Outcome
	// Reason is set for OutcomeDownloadFailed.
	Reason FailureReason
	// SizeMB is set once an artifact was measured.
	SizeMB   float64
	Label    string
	Err      error
	Duration time.Duration
}

// Succeeded reports whether the file reached the user.
func (r Result) Succeeded() bool {
	return r.Outcome == OutcomeDelivered
}

// SizePolicy bounds the artifact size accepted for delivery, in MB.
// Both bounds are inclusive.
type SizePolicy struct {
	MinMB float64
	MaxMB float64
}

// DefaultSizePolicy is the 0.1 MB floor and the 50 MB chat upload ceiling.
var DefaultSizePolicy = SizePolicy{MinMB: 0.1, MaxMB: 50}

// Evaluate returns OutcomeTooSmall, OutcomeTooLarge, or the empty Outcome when
// sizeMB is acceptable.
func (p SizePolicy) Evaluate(sizeMB float64) Outcome {
	switch {
	case sizeMB < p.MinMB:
		return OutcomeTooSmall
	case sizeMB > p.MaxMB:
		return OutcomeTooLarge
	default:
		return ""
	}
}
