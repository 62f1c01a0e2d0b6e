package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/service"
)

type stubMailboxes struct {
	boxes []model.Mailbox
	err   error
}

func (s *stubMailboxes) ListActive(context.Context) ([]model.Mailbox, error) {
	return s.boxes, s.err
}

type stubFetcher struct {
	messages map[string][]model.InboundMessage
	errs     map[string]error
}

func (s *stubFetcher) FetchCandidates(_ context.Context, mb model.Mailbox) ([]model.InboundMessage, error) {
	return s.messages[mb.Email], s.errs[mb.Email]
}

type handled struct {
	reply      service.InboundReply
	outreachID int
}

type recordingHandler struct {
	mu    sync.Mutex
	calls []handled
}

func (r *recordingHandler) HandleReply(_ context.Context, reply service.InboundReply, outreachID int) service.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, handled{reply: reply, outreachID: outreachID})
	return service.Result{MessageID: reply.Message.MessageID, OutreachID: outreachID, Outcome: service.OutcomeHandled}
}

var inboxes = []model.Mailbox{
	{ID: 1, Email: "deals@glow.io"},
	{ID: 2, Email: "partners@glow.io"},
}

func TestReconcilerRoutesRepliesByNormalisedSender(t *testing.T) {
	handler := &recordingHandler{}
	r := &service.Reconciler{
		MailboxRepo:  &stubMailboxes{boxes: inboxes[:1]},
		OutreachRepo: NewMockOutreachRepo(testOutreach(model.StageInitial)),
		Fetcher: &stubFetcher{messages: map[string][]model.InboundMessage{
			"deals@glow.io": {{
				MessageID:   "<a@creator.io>",
				FromAddress: "Ava Stone <AVA@Creator.io>",
				Subject:     "Re: Sponsorship opportunity: Glow",
				RawBody:     "How about $400?\n\nOn Mon, Glow wrote:\n> We'd like to offer $100",
			}},
		}},
		Negotiator: handler,
	}

	report := r.RunPass(context.Background())

	require.Len(t, handler.calls, 1)
	assert.Equal(t, 10, handler.calls[0].outreachID)
	assert.Equal(t, "How about $400?", handler.calls[0].reply.Text)
	assert.Equal(t, 1, report.Counts[service.OutcomeHandled])
	assert.Equal(t, service.PassReconcile, report.Kind)
	assert.False(t, report.FinishedAt.IsZero())
}

func TestReconcilerCountsUnmatchedSenders(t *testing.T) {
	handler := &recordingHandler{}
	r := &service.Reconciler{
		MailboxRepo:  &stubMailboxes{boxes: inboxes[:1]},
		OutreachRepo: NewMockOutreachRepo(testOutreach(model.StageInitial)),
		Fetcher: &stubFetcher{messages: map[string][]model.InboundMessage{
			"deals@glow.io": {{MessageID: "<spam@x.io>", FromAddress: "newsletter@x.io", RawBody: "sale!"}},
		}},
		Negotiator: handler,
	}

	report := r.RunPass(context.Background())

	assert.Empty(t, handler.calls)
	assert.Equal(t, 1, report.Counts[service.OutcomeUnmatched])
}

func TestReconcilerSkipsUnreachableMailbox(t *testing.T) {
	handler := &recordingHandler{}
	r := &service.Reconciler{
		MailboxRepo:  &stubMailboxes{boxes: inboxes},
		OutreachRepo: NewMockOutreachRepo(testOutreach(model.StageInitial)),
		Fetcher: &stubFetcher{
			errs: map[string]error{"deals@glow.io": errors.New("imap: login failed")},
			messages: map[string][]model.InboundMessage{
				"partners@glow.io": {{MessageID: "<b@creator.io>", FromAddress: "ava@creator.io", RawBody: "yes!"}},
			},
		},
		Negotiator: handler,
	}

	report := r.RunPass(context.Background())

	assert.Equal(t, 1, report.SkippedMailboxes)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "deals@glow.io")
	assert.Len(t, handler.calls, 1)
}

func TestReconcilerAbortsWhenMailboxesUnavailable(t *testing.T) {
	r := &service.Reconciler{
		MailboxRepo:  &stubMailboxes{err: errors.New("db down")},
		OutreachRepo: NewMockOutreachRepo(),
		Fetcher:      &stubFetcher{},
		Negotiator:   &recordingHandler{},
	}

	report := r.RunPass(context.Background())

	assert.Equal(t, 0, report.Total())
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "db down")
}

func TestReconcilerPrefersOpenNegotiation(t *testing.T) {
	closed := testOutreach(model.StageDealClosed)
	closed.ID = 3
	closed.CampaignID = 2
	open := testOutreach(model.StageNegotiating)

	handler := &recordingHandler{}
	r := &service.Reconciler{
		MailboxRepo:  &stubMailboxes{boxes: inboxes[:1]},
		OutreachRepo: NewMockOutreachRepo(closed, open),
		Fetcher: &stubFetcher{messages: map[string][]model.InboundMessage{
			"deals@glow.io": {{MessageID: "<c@creator.io>", FromAddress: "ava@creator.io", RawBody: "ok"}},
		}},
		Negotiator: handler,
	}

	r.RunPass(context.Background())

	require.Len(t, handler.calls, 1)
	assert.Equal(t, 10, handler.calls[0].outreachID)
}

func TestReconcilerOverlappingFetchesActOnce(t *testing.T) {
	f := newNegotiator(testOutreach(model.StageInitial), model.Judgment{RequestedAmount: amount(450)})
	msg := model.InboundMessage{MessageID: "<a@creator.io>", FromAddress: "ava@creator.io", RawBody: "$450 works"}
	r := &service.Reconciler{
		MailboxRepo:  &stubMailboxes{boxes: inboxes[:1]},
		OutreachRepo: f.outreach,
		Fetcher:      &stubFetcher{messages: map[string][]model.InboundMessage{"deals@glow.io": {msg}}},
		Negotiator:   f.svc,
	}

	first := r.RunPass(context.Background())
	second := r.RunPass(context.Background())

	assert.Equal(t, 1, first.Counts[service.OutcomeHandled])
	assert.Equal(t, 1, second.Counts[service.OutcomeDuplicate])
	assert.Equal(t, 1, f.dispatcher.count())
}
