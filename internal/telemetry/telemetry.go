// Package telemetry records per-phase timing and row-count metrics for one
// reconciliation job, trimmed from the cross-job MetricsSnapshot pattern
// down to the single job-scoped snapshot this engine has state for.
package telemetry

import (
	"time"

	"go.uber.org/zap"
)

// PhaseMetric is one completed phase's timing and row count.
type PhaseMetric struct {
	Name     string        `json:"name"`
	Elapsed  time.Duration `json:"elapsed"`
	RowCount int64         `json:"row_count"`
}

// JobSnapshot is the point-in-time view of one job's progress: every phase
// completed so far, in order, plus the job identifier they belong to.
type JobSnapshot struct {
	JobID  string        `json:"job_id"`
	Phases []PhaseMetric `json:"phases"`
}

// Recorder accumulates PhaseMetric entries for one job and logs each as it
// completes. The engine owns one Recorder per call to Reconcile; it is not
// safe for concurrent use by more than one phase at a time.
type Recorder struct {
	jobID  string
	log    *zap.Logger
	phases []PhaseMetric
}

// NewRecorder returns a Recorder that logs under jobID's context.
func NewRecorder(jobID string) *Recorder {
	return &Recorder{
		jobID: jobID,
		log:   zap.L().With(zap.String("job_id", jobID)),
	}
}

// Phase times fn, logs its completion at Info with the elapsed duration and
// rowCount (a caller-supplied count meaningful to that phase: rows staged,
// pairs matched, discrepancies classified), and records the result.
func (r *Recorder) Phase(name string, fn func() (int64, error)) error {
	start := time.Now()
	rows, err := fn()
	elapsed := time.Since(start)

	if err != nil {
		r.log.Error("phase failed",
			zap.String("phase", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return err
	}

	r.phases = append(r.phases, PhaseMetric{Name: name, Elapsed: elapsed, RowCount: rows})
	r.log.Info("phase complete",
		zap.String("phase", name),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
	)
	return nil
}

// Snapshot returns the phases recorded so far.
func (r *Recorder) Snapshot() JobSnapshot {
	phases := make([]PhaseMetric, len(r.phases))
	copy(phases, r.phases)
	return JobSnapshot{JobID: r.jobID, Phases: phases}
}
