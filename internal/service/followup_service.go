// internal/service/followup_service.go
package service

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	appErrors "github.com/unclebandit/creator-negotiator/internal/errors"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/negotiation"
	"github.com/unclebandit/creator-negotiator/internal/repository"
)

type FollowupService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	OutreachRepo repository.OutreachRepositoryInterface
	ThreadRepo   repository.ThreadRepositoryInterface
	Engine       *negotiation.Engine
	Dispatcher   Dispatcher
	Policy       negotiation.FollowupPolicy
	Now          func() time.Time
	MaxErrors    int
}

func (s *FollowupService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// RunPass nudges every unanswered outreach whose last email is inside the follow-up window.
func (s *FollowupService) RunPass(ctx context.Context) *PassReport {
	report := NewPassReport(PassFollowups, s.MaxErrors)
	logger := log.WithFields(log.Fields{"pass_id": report.PassID, "kind": report.Kind})

	candidates, err := s.OutreachRepo.ListAwaitingReply(ctx, s.Policy.MaxFollowups)
	if err != nil {
		report.Fail(errors.Wrap(err, "list outreach awaiting reply"))
		logger.WithError(err).Error("follow-up pass aborted")
		return report.Finish()
	}

	campaigns := map[int]*model.Campaign{}
	now := s.now()
	for _, o := range candidates {
		last, err := s.ThreadRepo.LastOutboundAt(ctx, o.ID)
		if err != nil {
			report.Add(Result{OutreachID: o.ID, Outcome: OutcomeError, Stage: o.NegotiationStage, Err: err})
			continue
		}
		if last == nil || !negotiation.FollowupDue(o, *last, now, s.Policy) {
			continue
		}

		c, ok := campaigns[o.CampaignID]
		if !ok {
			c, err = s.CampaignRepo.GetByID(ctx, o.CampaignID)
			if err != nil {
				report.Add(Result{OutreachID: o.ID, Outcome: OutcomeError, Stage: o.NegotiationStage, Err: err})
				continue
			}
			campaigns[o.CampaignID] = c
		}

		report.Add(s.nudge(ctx, o, *c, now))
	}

	report.Finish()
	logger.WithField("counts", report.Counts).Info("✅ follow-up pass finished")
	return report
}

func (s *FollowupService) nudge(ctx context.Context, o model.Outreach, c model.Campaign, now time.Time) Result {
	res := Result{OutreachID: o.ID, Stage: o.NegotiationStage}
	logger := log.WithField("outreach_id", o.ID)

	subject, body := s.Engine.Followup(o, c)
	mb, err := s.Dispatcher.Dispatch(ctx, o.MailboxID, o.RecipientEmail, subject, body)
	if err != nil {
		res.Err = err
		res.Outcome = OutcomeSendFailed
		if errors.Is(err, appErrors.ErrNoCapacity) {
			res.Outcome = OutcomeNoCapacity
		}
		logger.WithError(err).Warn("follow-up not sent")
		return res
	}

	entryErr := s.ThreadRepo.AppendThreadEntry(ctx, &model.ThreadEntry{
		OutreachID: o.ID,
		Direction:  model.DirectionOutbound,
		Subject:    subject,
		Body:       body,
		CreatedAt:  now,
	})

	count := o.FollowupCount + 1
	if err := s.OutreachRepo.UpdateOutreach(ctx, o.ID, model.OutreachUpdate{
		FollowupCount:  &count,
		LastFollowupAt: &now,
		MailboxID:      &mb.ID,
	}); err != nil {
		res.Err = errors.Wrap(err, "sent but could not persist follow-up count")
		res.Outcome = OutcomeError
		return res
	}
	if entryErr != nil {
		res.Err = errors.Wrap(entryErr, "sent but could not log outbound entry")
		res.Outcome = OutcomeError
		return res
	}

	logger.WithField("followup_count", count).Info("📨 follow-up sent")
	res.Outcome = OutcomeHandled
	return res
}
