package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/iconidentify/tokgrabba/internal/domain"
)

var startTime = time.Now()

// maxActivityLimit caps ?limit= on the activity endpoint.
const maxActivityLimit = 500

// StatusSource supplies the service snapshot and recent outcomes.
type StatusSource interface {
	Status(ctx context.Context) domain.ServiceStatus
}

// ActivitySource lists recent request outcomes, newest first.
type ActivitySource interface {
	Recent(limit int) []domain.ActivityEntry
}

// StatusHandler serves the operator status API.
type StatusHandler struct {
	svc      StatusSource
	activity ActivitySource
}

// NewStatusHandler creates a new status handler.
func NewStatusHandler(svc StatusSource, activity ActivitySource) *StatusHandler {
	return &StatusHandler{svc: svc, activity: activity}
}

// StatusResponse is the JSON body of GET /api/v1/status.
type StatusResponse struct {
	ToolAvailable bool           `json:"tool_available"`
	ToolVersion   string         `json:"tool_version,omitempty"`
	Workspace     WorkspaceInfo  `json:"workspace"`
	MaxFileMB     float64        `json:"max_file_mb"`
	RetentionSecs int64          `json:"retention_seconds"`
	Recent        map[string]int `json:"recent"`
	Uptime        int64          `json:"uptime_seconds"`
	UptimeHuman   string         `json:"uptime_human"`
	NumGoroutines int            `json:"num_goroutines"`
	MemAllocMB    int64          `json:"mem_alloc_mb"`
	CheckedAt     string         `json:"checked_at"`
}

// WorkspaceInfo describes the scratch directory.
type WorkspaceInfo struct {
	Path           string  `json:"path"`
	Files          int     `json:"files"`
	Bytes          int64   `json:"bytes"`
	BytesHuman     string  `json:"bytes_human"`
	DiskFreeBytes  int64   `json:"disk_free_bytes"`
	DiskTotalBytes int64   `json:"disk_total_bytes"`
	DiskUsedPct    float64 `json:"disk_used_pct"`
}

// Status handles GET /api/v1/status.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	st := h.svc.Status(ctx)

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := time.Since(startTime)

	recent := make(map[string]int, len(st.Recent))
	for outcome, n := range st.Recent {
		recent[outcome.String()] = n
	}

	ws := WorkspaceInfo{
		Path:           st.Workspace.Dir,
		Files:          st.Workspace.Files,
		Bytes:          st.Workspace.TotalBytes,
		BytesHuman:     humanize.IBytes(uint64(st.Workspace.TotalBytes)),
		DiskFreeBytes:  st.Workspace.DiskFreeBytes,
		DiskTotalBytes: st.Workspace.DiskTotalBytes,
	}
	if ws.DiskTotalBytes > 0 {
		used := ws.DiskTotalBytes - ws.DiskFreeBytes
		ws.DiskUsedPct = float64(used) / float64(ws.DiskTotalBytes) * 100
	}

	writeJSON(w, http.StatusOK, StatusResponse{
		ToolAvailable: st.ToolAvailable,
		ToolVersion:   st.ToolVersion,
		Workspace:     ws,
		MaxFileMB:     st.MaxFileMB,
		RetentionSecs: int64(st.Retention.Seconds()),
		Recent:        recent,
		Uptime:        int64(uptime.Seconds()),
		UptimeHuman:   formatUptime(uptime),
		NumGoroutines: runtime.NumGoroutine(),
		MemAllocMB:    int64(m.Alloc / 1024 / 1024),
		CheckedAt:     st.CheckedAt.UTC().Format(time.RFC3339),
	})
}

// ActivityResponse is the JSON body of GET /api/v1/activity.
type ActivityResponse struct {
	Entries []domain.ActivityEntry `json:"entries"`
	Count   int                    `json:"count"`
}

// Activity handles GET /api/v1/activity?limit=N.
func (h *StatusHandler) Activity(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxActivityLimit)
	}

	entries := h.activity.Recent(limit)
	if entries == nil {
		entries = []domain.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, ActivityResponse{Entries: entries, Count: len(entries)})
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
