// internal/service/reconcile_service.go
package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/mailbox"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/repository"
)

type ReplyHandler interface {
	HandleReply(ctx context.Context, reply InboundReply, outreachID int) Result
}

// Reconciler pulls inbound mail and feeds matched replies to the negotiator,
// one mailbox and one message at a time.
type Reconciler struct {
	MailboxRepo  mailbox.ActiveMailboxes
	OutreachRepo repository.OutreachRepositoryInterface
	Fetcher      mailbox.Fetcher
	Negotiator   ReplyHandler
	Timeout      time.Duration
	MaxErrors    int
}

func (r *Reconciler) RunPass(ctx context.Context) *PassReport {
	report := NewPassReport(PassReconcile, r.MaxErrors)
	logger := log.WithFields(log.Fields{"pass_id": report.PassID, "kind": report.Kind})
	logger.Info("🔄 reconciliation pass started")

	boxes, err := r.MailboxRepo.ListActive(ctx)
	if err != nil {
		report.Fail(errors.Wrap(err, "list mailboxes"))
		logger.WithError(err).Error("reconciliation pass aborted")
		return report.Finish()
	}

	for _, mb := range boxes {
		r.reconcileMailbox(ctx, mb, report)
	}

	report.Finish()
	logger.WithFields(log.Fields{"counts": report.Counts, "skipped_mailboxes": report.SkippedMailboxes}).Info("✅ reconciliation pass finished")
	return report
}

func (r *Reconciler) reconcileMailbox(ctx context.Context, mb model.Mailbox, report *PassReport) {
	logger := log.WithField("mailbox", mb.Email)

	fetchCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	msgs, err := r.Fetcher.FetchCandidates(fetchCtx, mb)
	if err != nil && len(msgs) == 0 {
		logger.WithError(err).Warn("mailbox fetch failed, skipping")
		report.SkipMailbox(mb.Email, err)
		return
	}
	if err != nil {
		logger.WithError(err).Warn("mailbox fetch was partial")
	}

	open, err := r.OutreachRepo.ListOpenOutreach(ctx)
	if err != nil {
		report.SkipMailbox(mb.Email, errors.Wrap(err, "list open outreach"))
		return
	}
	index := indexByAddress(open)

	for _, msg := range msgs {
		reply := InboundReply{Message: msg, Text: mailbox.ExtractReplyText(msg.RawBody)}
		addr := mailbox.NormalizeAddress(msg.FromAddress)

		outreachID, ok := index[addr]
		if !ok {
			report.Add(Result{MessageID: msg.MessageID, Outcome: OutcomeUnmatched})
			continue
		}
		report.Add(r.Negotiator.HandleReply(ctx, reply, outreachID))
	}
}

// indexByAddress maps a recipient address to its outreach. When a creator is in
// several campaigns the most recently active open negotiation wins.
func indexByAddress(list []model.Outreach) map[string]int {
	index := make(map[string]int, len(list))
	terminal := make(map[string]bool, len(list))
	for _, o := range list {
		addr := mailbox.NormalizeAddress(o.RecipientEmail)
		_, seen := index[addr]
		if !seen || (terminal[addr] && !o.NegotiationStage.IsTerminal()) {
			index[addr] = o.ID
			terminal[addr] = o.NegotiationStage.IsTerminal()
		}
	}
	return index
}
