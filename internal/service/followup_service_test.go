package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/negotiation"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

type followupFixture struct {
	svc        *service.FollowupService
	outreach   *MockOutreachRepo
	thread     *MockThreadRepo
	dispatcher *MockDispatcher
}

// newFollowups seeds each outreach with one outbound entry sent ago before fixedNow.
func newFollowups(t *testing.T, ago time.Duration, os ...model.Outreach) *followupFixture {
	f := &followupFixture{
		outreach:   NewMockOutreachRepo(os...),
		thread:     &MockThreadRepo{},
		dispatcher: &MockDispatcher{mailbox: model.Mailbox{ID: 7}},
	}
	for _, o := range os {
		require.NoError(t, f.thread.AppendThreadEntry(context.Background(), &model.ThreadEntry{
			OutreachID: o.ID,
			Direction:  model.DirectionOutbound,
			Body:       "opening email",
			CreatedAt:  fixedNow.Add(-ago),
		}))
	}
	f.svc = &service.FollowupService{
		CampaignRepo: NewMockCampaignRepo(testCampaign()),
		OutreachRepo: f.outreach,
		ThreadRepo:   f.thread,
		Engine:       negotiation.NewEngine(negotiation.DefaultPolicy(), firstVariant{}),
		Dispatcher:   f.dispatcher,
		Policy:       negotiation.DefaultFollowupPolicy(),
		Now:          func() time.Time { return fixedNow },
	}
	return f
}

func TestFollowupsNudgeInsideWindow(t *testing.T) {
	f := newFollowups(t, 3*time.Hour, testOutreach(model.StageInitial))

	report := f.svc.RunPass(context.Background())

	assert.Equal(t, service.PassFollowups, report.Kind)
	assert.Equal(t, 1, report.Counts[service.OutcomeHandled])
	require.Equal(t, 1, f.dispatcher.count())
	assert.Equal(t, "Re: Sponsorship opportunity: Glow", f.dispatcher.last().Subject)
	assert.NotContains(t, f.dispatcher.last().Body, "$")

	o := f.outreach.get(10)
	assert.Equal(t, 1, o.FollowupCount)
	require.NotNil(t, o.LastFollowupAt)
	assert.True(t, fixedNow.Equal(*o.LastFollowupAt))
	assert.Equal(t, model.StageInitial, o.NegotiationStage)
	assert.Equal(t, 2, f.thread.count(10, model.DirectionOutbound))
}

func TestFollowupsAreNotRepeatedImmediately(t *testing.T) {
	f := newFollowups(t, 3*time.Hour, testOutreach(model.StageInitial))

	f.svc.RunPass(context.Background())
	f.svc.RunPass(context.Background())

	assert.Equal(t, 1, f.dispatcher.count())
}

func TestFollowupsOutsideWindowAreSkipped(t *testing.T) {
	for _, ago := range []time.Duration{time.Hour, 7 * time.Hour} {
		f := newFollowups(t, ago, testOutreach(model.StageInitial))

		report := f.svc.RunPass(context.Background())

		assert.Equal(t, 0, report.Total(), "ago=%s", ago)
		assert.Equal(t, 0, f.dispatcher.count(), "ago=%s", ago)
	}
}

func TestFollowupsSkipAnsweredAndCapped(t *testing.T) {
	answered := testOutreach(model.StageNegotiating)
	answered.Status = model.StatusReplied
	replyAt := fixedNow.Add(-4 * time.Hour)
	answered.LastInboundAt = &replyAt

	capped := testOutreach(model.StageInitial)
	capped.ID = 11
	capped.FollowupCount = 2

	f := newFollowups(t, 3*time.Hour, answered, capped)

	f.svc.RunPass(context.Background())

	assert.Equal(t, 0, f.dispatcher.count())
}

func TestFollowupSendFailureKeepsCount(t *testing.T) {
	f := newFollowups(t, 3*time.Hour, testOutreach(model.StageInitial))
	f.dispatcher.err = errors.New("connection refused")

	report := f.svc.RunPass(context.Background())

	assert.Equal(t, 1, report.Counts[service.OutcomeSendFailed])
	assert.Equal(t, 0, f.outreach.get(10).FollowupCount)
	assert.Len(t, report.Errors, 1)
}
