package service_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

func TestPassReportCapsErrors(t *testing.T) {
	report := service.NewPassReport(service.PassReconcile, 2)

	for i := 0; i < 4; i++ {
		report.Add(service.Result{OutreachID: i, Outcome: service.OutcomeError, Err: fmt.Errorf("boom %d", i)})
	}
	report.Add(service.Result{Outcome: service.OutcomeHandled})
	report.SkipMailbox("deals@glow.io", errors.New("timeout"))
	report.Finish()

	assert.Equal(t, 5, report.Total())
	assert.Equal(t, 4, report.Failed())
	assert.Equal(t, 1, report.SkippedMailboxes)
	assert.Len(t, report.Errors, 2)
	assert.Contains(t, report.Errors[0], "boom 0")
	assert.NotEmpty(t, report.PassID)
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestPassReportDefaultErrorCap(t *testing.T) {
	report := service.NewPassReport(service.PassFollowups, 0)
	for i := 0; i < 10; i++ {
		report.Fail(errors.New("x"))
	}
	assert.Len(t, report.Errors, 5)
}
