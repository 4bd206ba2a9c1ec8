package domain

import "errors"

// Domain errors.
var (
	// ErrUnsupportedURL is returned when a link does not belong to the supported host.
	ErrUnsupportedURL = errors.New("link not supported")

	// ErrToolUnavailable is returned when the fetch tool cannot be invoked.
	ErrToolUnavailable = errors.New("fetch tool unavailable")

	// ErrFetchTimeout is returned when the fetch tool exceeds its deadline.
	ErrFetchTimeout = errors.New("download timed out")

	// ErrVideoUnavailable is returned when the remote reports the video as unavailable.
	ErrVideoUnavailable = errors.New("video unavailable")

	// ErrVideoPrivate is returned when the remote video is private.
	ErrVideoPrivate = errors.New("video is private")

	// ErrVideoNotFound is returned when the remote video does not exist.
	ErrVideoNotFound = errors.New("video not found")

	// ErrNoArtifact is returned when the tool exits cleanly but no usable file was written.
	ErrNoArtifact = errors.New("no file produced")

	// ErrProcessFailed is returned for any other fetch tool failure.
	ErrProcessFailed = errors.New("fetch tool failed")

	// ErrFileTooLarge is returned when an artifact exceeds the delivery ceiling.
	ErrFileTooLarge = errors.New("file too large")

	// ErrFileTooSmall is returned when an artifact is below the corruption floor.
	ErrFileTooSmall = errors.New("file too small or corrupted")

	// ErrDeliveryFailed is returned when the artifact could not be handed to the chat.
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrWorkspace is returned when the scratch directory cannot be prepared.
	ErrWorkspace = errors.New("workspace unavailable")

	// ErrRateLimited is returned when a chat sends links faster than allowed.
	ErrRateLimited = errors.New("rate limited")
)
