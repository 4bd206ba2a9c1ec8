package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultArtifactLabel is shown as the caption title. The fetch tool does not
// report titles reliably, so every artifact carries the same label.
const DefaultArtifactLabel = "TikTok Video"

// bytesPerMB is the divisor used for every MB figure shown or compared.
const bytesPerMB = 1024 * 1024

// RequestID identifies one inbound link and prefixes every file it produces.
type RequestID string

// NewRequestID returns a fresh identifier. All IDs have the same length, so a
// prefix match on one ID never selects another request's files.
func NewRequestID() RequestID {
	return RequestID("tok_" + uuid.New().String())
}

// String returns the string representation of the RequestID.
func (id RequestID) String() string {
	return string(id)
}

// FetchRequest is the immutable input of one fetch.
type FetchRequest struct {
	ID        RequestID
	SourceURL string
	Deadline  time.Time
}

// NewFetchRequest creates a request for sourceURL that must finish within timeout.
func NewFetchRequest(sourceURL string, timeout time.Duration) FetchRequest {
	return FetchRequest{
		ID:        NewRequestID(),
		SourceURL: sourceURL,
		Deadline:  time.Now().Add(timeout),
	}
}

// Artifact describes a media file produced by a successful fetch.
// It is only built for a file that existed and was large enough at the time;
// the file may still disappear afterwards.
type Artifact struct {
	Path      string
	SizeBytes int64
	Label     string
}

// SizeMB returns the artifact size in megabytes.
func (a *Artifact) SizeMB() float64 {
	return BytesToMB(a.SizeBytes)
}

// BytesToMB converts a byte count to megabytes.
func BytesToMB(n int64) float64 {
	return float64(n) / bytesPerMB
}
