package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unclebandit/creator-negotiator/internal/lock"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

type countingPass struct {
	mu   sync.Mutex
	kind string
	runs int
}

func (p *countingPass) RunPass(context.Context) *service.PassReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs++
	return service.NewPassReport(p.kind, 0).Finish()
}

type fakeLock struct {
	held bool
}

func (l *fakeLock) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	if l.held {
		return lock.ErrHeld
	}
	return fn(ctx)
}

func TestPassRunnerDispatchesByKind(t *testing.T) {
	reconcile := &countingPass{kind: service.PassReconcile}
	followups := &countingPass{kind: service.PassFollowups}
	runner := service.NewPassRunner(&fakeLock{}, reconcile, followups)

	report, err := runner.Run(context.Background(), service.PassFollowups)

	require.NoError(t, err)
	assert.Equal(t, service.PassFollowups, report.Kind)
	assert.Equal(t, 0, reconcile.runs)
	assert.Equal(t, 1, followups.runs)

	_, err = runner.Run(context.Background(), "bogus")
	assert.Error(t, err)
}

func TestPassRunnerRefusesWhileLockHeld(t *testing.T) {
	reconcile := &countingPass{kind: service.PassReconcile}
	runner := service.NewPassRunner(&fakeLock{held: true}, reconcile, &countingPass{})

	_, err := runner.Run(context.Background(), service.PassReconcile)

	assert.ErrorIs(t, err, lock.ErrHeld)
	assert.Equal(t, 0, reconcile.runs)
}

func TestWorker(t *testing.T) {
	reconcile := &countingPass{kind: service.PassReconcile}
	runner := service.NewPassRunner(&fakeLock{}, reconcile, &countingPass{kind: service.PassFollowups})

	jobChan := make(chan service.PassJob, 1)
	jobChan <- service.PassJob{Kind: service.PassReconcile, RequestedBy: "test"}

	var wg sync.WaitGroup
	wg.Add(1)

	var got *service.PassReport
	worker := service.NewWorker(runner, jobChan, func(r *service.PassReport) {
		got = r
		wg.Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go worker.Start(ctx)

	wg.Wait()
	close(jobChan)

	require.NotNil(t, got)
	assert.Equal(t, service.PassReconcile, got.Kind)
	assert.Equal(t, 1, reconcile.runs)
}
