// internal/service/worker.go
package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PassJob asks a scheduler to run one pass.
type PassJob struct {
	Kind        string `json:"kind"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// Pass is one reconciliation or follow-up sweep.
type Pass interface {
	RunPass(ctx context.Context) *PassReport
}

// Locker is the single-flight guard around a pass.
type Locker interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// PassRunner runs passes by kind, never two at once.
type PassRunner struct {
	Passes map[string]Pass
	Lock   Locker
}

func NewPassRunner(lock Locker, reconciler, followups Pass) *PassRunner {
	return &PassRunner{
		Lock: lock,
		Passes: map[string]Pass{
			PassReconcile: reconciler,
			PassFollowups: followups,
		},
	}
}

func (r *PassRunner) Run(ctx context.Context, kind string) (*PassReport, error) {
	pass, ok := r.Passes[kind]
	if !ok || pass == nil {
		return nil, fmt.Errorf("unknown pass kind %q", kind)
	}

	var report *PassReport
	run := func(ctx context.Context) error {
		report = pass.RunPass(ctx)
		return nil
	}
	if r.Lock == nil {
		_ = run(ctx)
		return report, nil
	}
	if err := r.Lock.Run(ctx, run); err != nil {
		return nil, errors.Wrapf(err, "%s pass", kind)
	}
	return report, nil
}

// Worker processes pass jobs one at a time.
type Worker struct {
	Runner   *PassRunner
	JobChan  <-chan PassJob
	OnReport func(*PassReport)
}

func NewWorker(runner *PassRunner, jobChan <-chan PassJob, onReport func(*PassReport)) *Worker {
	return &Worker{
		Runner:   runner,
		JobChan:  jobChan,
		OnReport: onReport,
	}
}

// Start consumes jobs until the channel closes or ctx is done.
func (w *Worker) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.JobChan:
			if !ok {
				return
			}
			report, err := w.Runner.Run(ctx, job.Kind)
			if err != nil {
				log.WithError(err).WithField("kind", job.Kind).Warn("pass not run")
				continue
			}
			if w.OnReport != nil {
				w.OnReport(report)
			}
		}
	}
}
