package calendar

import (
	"clinic-manager/core/jobs"
	"clinic-manager/core/reconcile"
)

// jobObserver publishes engine phases and progress on a job.
type jobObserver struct {
	rep *jobs.Reporter
}

var phaseStatus = map[reconcile.Phase]jobs.Status{
	reconcile.PhaseAnalyzing:  jobs.StatusAnalyzing,
	reconcile.PhaseApplying:   jobs.StatusApplying,
	reconcile.PhasePruning:    jobs.StatusPruning,
	reconcile.PhasePersisting: jobs.StatusPersisting,
}

// OnPhase moves the job to the matching stage. Terminal phases are left to
// the job function, which also attaches the result.
func (o *jobObserver) OnPhase(phase reconcile.Phase, message string) {
	if status, ok := phaseStatus[phase]; ok {
		o.rep.Status(status, message)
	}
}

// OnProgress records processed/total.
func (o *jobObserver) OnProgress(p reconcile.Progress) {
	o.rep.Progress(p.Processed, p.Total, p.Message)
}
