package domain

import (
	"errors"
)

// FailureReason classifies why a fetch did not produce a usable artifact.
type FailureReason string

const (
	ReasonNone         FailureReason = ""
	ReasonTimeout      FailureReason = "timeout"
	ReasonUnavailable  FailureReason = "unavailable"
	ReasonPrivate      FailureReason = "private"
	ReasonNotFound     FailureReason = "not_found"
	ReasonNoArtifact   FailureReason = "no_artifact"
	ReasonProcessError FailureReason = "process_error"
)

// String returns the string representation of the FailureReason.
func (r FailureReason) String() string {
	return string(r)
}

// Sentinel returns the sentinel error matching the reason.
func (r FailureReason) Sentinel() error {
	switch r {
	case ReasonTimeout:
		return ErrFetchTimeout
	case ReasonUnavailable:
		return ErrVideoUnavailable
	case ReasonPrivate:
		return ErrVideoPrivate
	case ReasonNotFound:
		return ErrVideoNotFound
	case ReasonNoArtifact:
		return ErrNoArtifact
	default:
		return ErrProcessFailed
	}
}

// FetchError is returned by a fetch that ended without an artifact.
type FetchError struct {
	RequestID RequestID
	Reason    FailureReason
	// Detail holds the tail of the tool's error output for process errors.
	Detail string
	Err    error
}

// NewFetchError creates a FetchError for reason.
func NewFetchError(id RequestID, reason FailureReason, detail string) *FetchError {
	return &FetchError{
		RequestID: id,
		Reason:    reason,
		Detail:    detail,
		Err:       reason.Sentinel(),
	}
}

func (e *FetchError) Error() string {
	msg := "fetch [" + e.RequestID.String() + "]: " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReasonOf extracts the failure reason carried by err.
// Errors that are not fetch failures map to ReasonProcessError; nil maps to ReasonNone.
func ReasonOf(err error) FailureReason {
	if err == nil {
		return ReasonNone
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Reason
	}
	for _, r := range []FailureReason{ReasonTimeout, ReasonUnavailable, ReasonPrivate, ReasonNotFound, ReasonNoArtifact} {
		if errors.Is(err, r.Sentinel()) {
			return r
		}
	}
	return ReasonProcessError
}
