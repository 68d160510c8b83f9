package jobs

import "time"

// Status is the lifecycle stage of a job.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusRunning    Status = "running"
	StatusAnalyzing  Status = "analyzing"
	StatusApplying   Status = "applying"
	StatusPruning    Status = "pruning"
	StatusPersisting Status = "persisting"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether no further updates will follow.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is a point-in-time snapshot of a background operation.
type Job struct {
	ID         string     `json:"job_id"`
	Kind       string     `json:"kind"`
	Status     Status     `json:"status"`
	Processed  int        `json:"processed"`
	Total      int        `json:"total"`
	Progress   int        `json:"progress"`
	Message    string     `json:"message"`
	Error      string     `json:"error,omitempty"`
	Warnings   []string   `json:"warnings,omitempty"`
	Result     any        `json:"result,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (j Job) clone() Job {
	if j.Warnings != nil {
		j.Warnings = append([]string(nil), j.Warnings...)
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		j.FinishedAt = &t
	}
	return j
}

func percent(processed, total int) int {
	if total <= 0 {
		return 0
	}
	p := processed * 100 / total
	if p > 100 {
		return 100
	}
	return p
}
