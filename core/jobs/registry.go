package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Func is the work of a job. A returned error fails the job unless the
// Reporter already finished it.
type Func func(ctx context.Context, r *Reporter) error

// Registry tracks background jobs by id.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]Job
	wg     sync.WaitGroup
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		jobs:   make(map[string]Job),
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
}

// Start registers a job of the given kind and runs fn on a new goroutine
// with ctx. Callers pass a context that outlives the triggering request.
func (r *Registry) Start(ctx context.Context, kind string, fn Func) string {
	id := r.newID()
	r.put(Job{
		ID:        id,
		Kind:      kind,
		Status:    StatusQueued,
		Message:   "Queued",
		StartedAt: r.now(),
	})

	rep := &Reporter{registry: r, id: id}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				r.logger.Error("Job panicked", zap.String("job_id", id), zap.Any("panic", p))
				rep.Fail(fmt.Errorf("internal error: %v", p))
			}
		}()

		rep.Status(StatusRunning, "Running")
		if err := fn(ctx, rep); err != nil {
			rep.Fail(err)
			return
		}
		rep.finishIfOpen()
	}()

	r.logger.Info("Job started", zap.String("job_id", id), zap.String("kind", kind))
	return id
}

// Get returns a snapshot of the job.
func (r *Registry) Get(id string) (Job, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, false
	}
	return j.clone(), true
}

// List returns snapshots of every job of kind, or of all jobs when kind is empty.
func (r *Registry) List(kind string) []Job {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		if kind == "" || j.Kind == kind {
			out = append(out, j.clone())
		}
	}
	return out
}

// Forget removes a finished job. Running jobs are kept.
func (r *Registry) Forget(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || !j.Status.Terminal() {
		return false
	}
	delete(r.jobs, id)
	return true
}

// Prune removes jobs that finished more than retention ago and returns how many were removed.
func (r *Registry) Prune(retention time.Duration) int {
	cutoff := r.now().Add(-retention)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, j := range r.jobs {
		if j.FinishedAt != nil && j.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			removed++
		}
	}
	return removed
}

// Wait blocks until every started job returned.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) put(j Job) {
	r.mu.Lock()
	r.jobs[j.ID] = j
	r.mu.Unlock()
}

// update applies fn to a copy of the job and publishes the result.
func (r *Registry) update(id string, fn func(j *Job)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok || j.Status.Terminal() {
		return
	}
	j = j.clone()
	fn(&j)
	r.jobs[id] = j
}
