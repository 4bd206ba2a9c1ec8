// Package ytdlp runs the yt-dlp binary under a deadline and turns its exit
// status, error output and the files it left behind into an artifact or a
// classified failure.
package ytdlp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/iconidentify/tokgrabba/internal/config"
	"github.com/iconidentify/tokgrabba/internal/domain"
	"github.com/iconidentify/tokgrabba/internal/workspace"
)

// waitDelay bounds how long Wait keeps draining stderr after the process
// group was killed.
const waitDelay = 5 * time.Second

// Supervisor implements fetching through a yt-dlp child process.
type Supervisor struct {
	cfg    config.FetchConfig
	ws     *workspace.Workspace
	logger *slog.Logger
}

// NewSupervisor creates a new supervisor writing into ws.
func NewSupervisor(cfg config.FetchConfig, ws *workspace.Workspace, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:    cfg,
		ws:     ws,
		logger: logger,
	}
}

// Args returns the argument vector passed to yt-dlp for req.
func (s *Supervisor) Args(req domain.FetchRequest) []string {
	args := []string{
		"--format", s.cfg.Format,
		"--no-playlist",
		"--no-mtime",
		"--no-warnings",
		"--no-progress",
		"--no-color",
	}
	if s.cfg.SocketTimeout > 0 {
		args = append(args, "--socket-timeout", strconv.Itoa(int(s.cfg.SocketTimeout.Seconds())))
	}
	// "--" keeps a URL starting with '-' from being read as an option.
	return append(args,
		"--output", s.ws.OutputTemplate(req.ID),
		"--", req.SourceURL,
	)
}

// Fetch runs yt-dlp for req and returns the produced artifact.
// Every failure is a *domain.FetchError. Files written under the request ID
// are left in place; removing them is the caller's job.
func (s *Supervisor) Fetch(ctx context.Context, req domain.FetchRequest) (*domain.Artifact, error) {
	logger := s.logger.With("request_id", req.ID)

	deadline := req.Deadline
	if deadline.IsZero() {
		deadline = time.Now().Add(s.cfg.Timeout)
	}
	fetchCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	stderr := newTailBuffer(s.cfg.MaxErrorOutput)
	cmd := exec.CommandContext(fetchCtx, s.cfg.BinaryPath, s.Args(req)...)
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	logger.Info("starting fetch", "url", req.SourceURL, "deadline", deadline)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		logger.Error("failed to start fetch tool", "binary", s.cfg.BinaryPath, "error", err)
		return nil, domain.NewFetchError(req.ID, domain.ReasonProcessError, err.Error())
	}
	runErr := cmd.Wait()
	elapsed := time.Since(start)

	if runErr != nil {
		// Context state decides before the exit status does: a killed
		// process exits non-zero with output that means nothing.
		if errors.Is(ctx.Err(), context.Canceled) {
			logger.Warn("fetch canceled", "duration", elapsed)
			return nil, domain.NewFetchError(req.ID, domain.ReasonProcessError, "canceled")
		}
		if errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("fetch timed out", "duration", elapsed)
			return nil, domain.NewFetchError(req.ID, domain.ReasonTimeout, "")
		}

		output := stderr.String()
		reason := ClassifyFailure(output)
		detail := ""
		if reason == domain.ReasonProcessError {
			detail = truncateDetail(output)
			if detail == "" {
				detail = runErr.Error()
			}
		}
		logger.Warn("fetch tool failed",
			"reason", reason,
			"classifier_version", ClassifierVersion,
			"exit_error", runErr,
			"stderr", truncateDetail(output),
			"stderr_truncated", stderr.Truncated(),
			"duration", elapsed,
		)
		return nil, domain.NewFetchError(req.ID, reason, detail)
	}

	return s.locateArtifact(req, logger, elapsed)
}

func (s *Supervisor) locateArtifact(req domain.FetchRequest, logger *slog.Logger, elapsed time.Duration) (*domain.Artifact, error) {
	matches, err := s.ws.LocateByPrefix(req.ID.String())
	if err != nil {
		return nil, domain.NewFetchError(req.ID, domain.ReasonProcessError, err.Error())
	}
	if len(matches) == 0 {
		logger.Warn("fetch tool exited cleanly but wrote no file", "duration", elapsed)
		return nil, domain.NewFetchError(req.ID, domain.ReasonNoArtifact, "")
	}

	path := matches[0]
	size, err := s.ws.Size(path)
	if err != nil {
		logger.Warn("artifact vanished before it could be measured", "path", path, "error", err)
		return nil, domain.NewFetchError(req.ID, domain.ReasonNoArtifact, "")
	}
	if size <= s.cfg.MinArtifactBytes {
		logger.Warn("artifact below size floor",
			"path", path,
			"size_bytes", size,
			"floor_bytes", s.cfg.MinArtifactBytes,
		)
		return nil, domain.NewFetchError(req.ID, domain.ReasonNoArtifact,
			fmt.Sprintf("artifact is %d bytes", size))
	}

	artifact := &domain.Artifact{
		Path:      path,
		SizeBytes: size,
		Label:     domain.DefaultArtifactLabel,
	}
	logger.Info("fetch completed",
		"path", path,
		"size_mb", fmt.Sprintf("%.1f", artifact.SizeMB()),
		"duration", elapsed,
	)
	return artifact, nil
}

// CheckAvailable runs "yt-dlp --version" and reports the version it printed.
// A spawn error, non-zero exit or probe timeout all mean unavailable.
// The result is never cached.
func (s *Supervisor) CheckAvailable(ctx context.Context) (string, bool) {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, s.cfg.BinaryPath, "--version")
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	out, err := cmd.Output()
	if err != nil {
		s.logger.Warn("fetch tool unavailable", "binary", s.cfg.BinaryPath, "error", err)
		return "", false
	}

	version, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(version), true
}
