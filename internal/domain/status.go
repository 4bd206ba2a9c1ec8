package domain

import "time"

// WorkspaceStats summarizes the scratch directory.
type WorkspaceStats struct {
	Dir            string
	Files          int
	TotalBytes     int64
	DiskFreeBytes  int64
	DiskTotalBytes int64
}

// ServiceStatus is reported by the status command and endpoint.
type ServiceStatus struct {
	ToolAvailable bool
	ToolVersion   string
	Workspace     WorkspaceStats
	MaxFileMB     float64
	Retention     time.Duration
	// Recent counts the retained activity entries by outcome.
	Recent    map[Outcome]int
	CheckedAt time.Time
}

// ActivityEntry is the summary of one finished request kept for the status
// surface. It carries no link or chat identity.
type ActivityEntry struct {
	RequestID RequestID     `json:"request_id,omitempty"`
	Outcome   Outcome       `json:"outcome"`
	Reason    FailureReason `json:"reason,omitempty"`
	SizeMB    float64       `json:"size_mb,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	At        time.Time     `json:"at"`
}
