package jobs

import "go.uber.org/zap"

// Reporter publishes status updates for one job. Only the job's own
// goroutine writes through it. Updates after the job finished are ignored.
type Reporter struct {
	registry *Registry
	id       string
}

// ID returns the job id.
func (p *Reporter) ID() string {
	return p.id
}

// Status moves the job to a new stage.
func (p *Reporter) Status(status Status, message string) {
	p.registry.update(p.id, func(j *Job) {
		j.Status = status
		if message != "" {
			j.Message = message
		}
	})
}

// Progress records processed/total and a message.
func (p *Reporter) Progress(processed, total int, message string) {
	p.registry.update(p.id, func(j *Job) {
		j.Processed = processed
		j.Total = total
		j.Progress = percent(processed, total)
		if message != "" {
			j.Message = message
		}
	})
}

// Warn appends a warning.
func (p *Reporter) Warn(warning string) {
	p.registry.update(p.id, func(j *Job) {
		j.Warnings = append(j.Warnings, warning)
	})
}

// SetResult attaches a result without finishing the job, so a failed job
// can still expose what it did before failing.
func (p *Reporter) SetResult(result any) {
	p.registry.update(p.id, func(j *Job) {
		j.Result = result
	})
}

// Complete finishes the job successfully.
func (p *Reporter) Complete(message string, result any) {
	now := p.registry.now()
	p.registry.update(p.id, func(j *Job) {
		j.Status = StatusCompleted
		j.Message = message
		j.Result = result
		if j.Total > 0 {
			j.Progress = 100
		}
		j.FinishedAt = &now
	})
	p.registry.logger.Info("Job completed", zap.String("job_id", p.id), zap.String("message", message))
}

// Fail finishes the job with err.
func (p *Reporter) Fail(err error) {
	now := p.registry.now()
	msg := "failed"
	if err != nil {
		msg = err.Error()
	}
	p.registry.update(p.id, func(j *Job) {
		j.Status = StatusFailed
		j.Error = msg
		j.Message = msg
		j.FinishedAt = &now
	})
	p.registry.logger.Warn("Job failed", zap.String("job_id", p.id), zap.String("error", msg))
}

func (p *Reporter) finishIfOpen() {
	j, ok := p.registry.Get(p.id)
	if ok && !j.Status.Terminal() {
		p.Complete("Completed", nil)
	}
}
