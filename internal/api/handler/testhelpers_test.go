package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

// testLogger returns a silent logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockService implements Readiness, StatusSource and ActivitySource.
type mockService struct {
	readyErr  error
	status    domain.ServiceStatus
	entries   []domain.ActivityEntry
	lastLimit int
}

func (m *mockService) Ready(ctx context.Context) error {
	return m.readyErr
}

func (m *mockService) Status(ctx context.Context) domain.ServiceStatus {
	return m.status
}

func (m *mockService) Recent(limit int) []domain.ActivityEntry {
	m.lastLimit = limit
	if limit > 0 && limit < len(m.entries) {
		return m.entries[:limit]
	}
	return m.entries
}
