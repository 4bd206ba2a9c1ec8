package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/iconidentify/tokgrabba/internal/config"
	"github.com/iconidentify/tokgrabba/internal/domain"
	"github.com/iconidentify/tokgrabba/internal/metrics"
)

// DownloadService drives one link from validation to delivery and makes sure
// the request's files are gone afterwards, whatever happened.
type DownloadService struct {
	fetcher   Fetcher
	ws        Workspace
	metrics   *metrics.Collector
	activity  *ActivityLog
	policy    domain.SizePolicy
	timeout   time.Duration
	retention time.Duration
	logger    *slog.Logger
}

// NewDownloadService creates a new download service.
func NewDownloadService(
	fetcher Fetcher,
	ws Workspace,
	m *metrics.Collector,
	activity *ActivityLog,
	fetchCfg config.FetchConfig,
	storageCfg config.StorageConfig,
	limits config.LimitsConfig,
	logger *slog.Logger,
) *DownloadService {
	return &DownloadService{
		fetcher:   fetcher,
		ws:        ws,
		metrics:   m,
		activity:  activity,
		policy:    domain.SizePolicy{MinMB: limits.MinFileMB, MaxMB: limits.MaxFileMB},
		timeout:   fetchCfg.Timeout,
		retention: storageCfg.Retention,
		logger:    logger,
	}
}

// Handle processes one inbound link and returns its terminal outcome.
// It never panics; an unexpected fault becomes OutcomeInternalError.
func (s *DownloadService) Handle(ctx context.Context, rawURL string, d Deliverer) (res domain.Result) {
	start := time.Now()
	logger := s.logger
	defer s.metrics.TrackInflight()()
	defer func() {
		if r := recover(); r != nil {
			res = s.internalError(logger, res.RequestID, r)
		}
		res.Duration = time.Since(start)
		s.record(logger, res)
	}()

	if !domain.IsSupportedURL(rawURL) {
		return domain.Result{Outcome: domain.OutcomeRejected, Err: domain.ErrUnsupportedURL}
	}

	if _, ok := s.fetcher.CheckAvailable(ctx); !ok {
		return domain.Result{Outcome: domain.OutcomeServiceUnavailable, Err: domain.ErrToolUnavailable}
	}

	if n := s.ws.ReapStale(s.retention); n > 0 {
		s.metrics.AddReaped(n)
	}

	req := domain.NewFetchRequest(domain.NormalizeURL(rawURL), s.timeout)
	logger = logger.With("request_id", req.ID)
	return s.process(ctx, req, d, logger)
}

// process runs the fetch, size check and delivery. Cleanup is registered
// before the fetch starts and runs exactly once.
func (s *DownloadService) process(ctx context.Context, req domain.FetchRequest, d Deliverer, logger *slog.Logger) (res domain.Result) {
	res = domain.Result{RequestID: req.ID}
	defer func() {
		if r := recover(); r != nil {
			res = s.internalError(logger, req.ID, r)
		}
		if n := s.ws.RemovePrefix(req.ID.String()); n > 0 {
			logger.Debug("removed request files", "count", n)
		}
	}()

	fetchStart := time.Now()
	artifact, err := s.fetcher.Fetch(ctx, req)
	if err != nil {
		reason := domain.ReasonOf(err)
		s.metrics.ObserveFetch(reason.String(), time.Since(fetchStart))
		res.Outcome = domain.OutcomeDownloadFailed
		res.Reason = reason
		res.Err = err
		return res
	}
	s.metrics.ObserveFetch("ok", time.Since(fetchStart))
	res.Label = artifact.Label

	// The reaper of a concurrent request may have removed the file since the
	// fetcher measured it.
	size, err := s.ws.Size(artifact.Path)
	if err != nil {
		res.Outcome = domain.OutcomeDeliveryFailed
		res.Err = fmt.Errorf("%w: artifact missing: %w", domain.ErrDeliveryFailed, err)
		return res
	}
	res.SizeMB = domain.BytesToMB(size)

	switch s.policy.Evaluate(res.SizeMB) {
	case domain.OutcomeTooLarge:
		res.Outcome = domain.OutcomeTooLarge
		res.Err = domain.ErrFileTooLarge
		return res
	case domain.OutcomeTooSmall:
		res.Outcome = domain.OutcomeTooSmall
		res.Err = domain.ErrFileTooSmall
		return res
	}

	err = d.Deliver(ctx, Delivery{
		Path:   artifact.Path,
		Label:  artifact.Label,
		SizeMB: res.SizeMB,
	})
	if err != nil {
		res.Outcome = domain.OutcomeDeliveryFailed
		res.Err = fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
		return res
	}

	res.Outcome = domain.OutcomeDelivered
	return res
}

func (s *DownloadService) internalError(logger *slog.Logger, id domain.RequestID, r any) domain.Result {
	logger.Error("request panicked", "panic", r, "stack", string(debug.Stack()))
	return domain.Result{
		RequestID: id,
		Outcome:   domain.OutcomeInternalError,
		Err:       fmt.Errorf("internal error: %v", r),
	}
}

func (s *DownloadService) record(logger *slog.Logger, res domain.Result) {
	s.metrics.RecordOutcome(res.Outcome, res.Reason)
	s.activity.Add(res)

	attrs := []any{
		"outcome", res.Outcome,
		"duration", res.Duration,
	}
	if res.Reason != domain.ReasonNone {
		attrs = append(attrs, "reason", res.Reason)
	}
	if res.SizeMB > 0 {
		attrs = append(attrs, "size_mb", fmt.Sprintf("%.1f", res.SizeMB))
	}
	if res.Err != nil {
		attrs = append(attrs, "error", res.Err)
	}

	switch res.Outcome {
	case domain.OutcomeDelivered, domain.OutcomeRejected:
		logger.Info("request finished", attrs...)
	case domain.OutcomeInternalError:
		logger.Error("request finished", attrs...)
	default:
		logger.Warn("request finished", attrs...)
	}
}

// Status reports tool availability and workspace usage. The tool is probed
// on every call.
func (s *DownloadService) Status(ctx context.Context) domain.ServiceStatus {
	version, ok := s.fetcher.CheckAvailable(ctx)
	return domain.ServiceStatus{
		ToolAvailable: ok,
		ToolVersion:   version,
		Workspace:     s.ws.Stats(),
		MaxFileMB:     s.policy.MaxMB,
		Retention:     s.retention,
		Recent:        s.activity.Counts(),
		CheckedAt:     time.Now(),
	}
}

// Activity returns the log of recent outcomes.
func (s *DownloadService) Activity() *ActivityLog {
	return s.activity
}

// Ready returns nil when a request could be served right now.
func (s *DownloadService) Ready(ctx context.Context) error {
	if _, ok := s.fetcher.CheckAvailable(ctx); !ok {
		return domain.ErrToolUnavailable
	}
	if err := s.ws.Writable(); err != nil {
		if errors.Is(err, domain.ErrWorkspace) {
			return err
		}
		return fmt.Errorf("%w: %w", domain.ErrWorkspace, err)
	}
	return nil
}
