package service

import (
	"context"
	"time"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

// Fetcher produces an artifact for a link and reports tool availability.
type Fetcher interface {
	// Fetch runs one download. Failures are *domain.FetchError values.
	Fetch(ctx context.Context, req domain.FetchRequest) (*domain.Artifact, error)

	// CheckAvailable probes the download tool and returns its version.
	CheckAvailable(ctx context.Context) (string, bool)
}

// Workspace is the scratch directory the fetcher writes into.
type Workspace interface {
	ReapStale(maxAge time.Duration) int
	RemovePrefix(prefix string) int
	Size(path string) (int64, error)
	Stats() domain.WorkspaceStats
	Writable() error
}

// Delivery is what the front end needs to send an artifact to the user.
type Delivery struct {
	Path   string
	Label  string
	SizeMB float64
}

// Deliverer hands a validated artifact to the user.
type Deliverer interface {
	Deliver(ctx context.Context, d Delivery) error
}
