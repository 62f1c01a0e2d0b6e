// internal/service/negotiator_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/classifier"
	appErrors "github.com/unclebandit/creator-negotiator/internal/errors"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/negotiation"
	"github.com/unclebandit/creator-negotiator/internal/repository"
)

// Dispatcher sends an email from the preferred mailbox or an alternate with quota.
type Dispatcher interface {
	Dispatch(ctx context.Context, preferredID int, to, subject, body string) (model.Mailbox, error)
}

// InboundReply is a fetched message with its quoted history already stripped.
type InboundReply struct {
	Message model.InboundMessage
	Text    string
}

type NegotiatorService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	OutreachRepo repository.OutreachRepositoryInterface
	ThreadRepo   repository.ThreadRepositoryInterface
	Guard        *negotiation.Guard
	Classifier   classifier.Classifier
	Engine       *negotiation.Engine
	Dispatcher   Dispatcher
	Now          func() time.Time

	// TranscriptEntries bounds how much history goes to the classifier.
	TranscriptEntries int
}

func (s *NegotiatorService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// HandleReply runs one matched reply through guard, classifier and engine.
// The message is marked processed before anything is sent, so it is acted on at most once.
func (s *NegotiatorService) HandleReply(ctx context.Context, reply InboundReply, outreachID int) Result {
	res := Result{MessageID: reply.Message.MessageID, OutreachID: outreachID}
	logger := log.WithFields(log.Fields{"outreach_id": outreachID, "message_id": reply.Message.MessageID})

	o, err := s.OutreachRepo.GetByID(ctx, outreachID)
	if err != nil {
		return s.fail(res, logger, errors.Wrap(err, "load outreach"))
	}
	res.Stage = o.NegotiationStage

	verdict, err := s.Guard.Admit(ctx, reply.Message, *o)
	if err != nil {
		return s.fail(res, logger, err)
	}
	if verdict == negotiation.VerdictDuplicate {
		logger.Debug("already processed, skipping")
		res.Outcome = OutcomeDuplicate
		return res
	}

	if err := s.recordInbound(ctx, o, reply); err != nil {
		return s.fail(res, logger, err)
	}

	if verdict == negotiation.VerdictTerminal {
		logger.WithField("stage", o.NegotiationStage).Info("reply to a closed negotiation recorded, not answering")
		res.Outcome = OutcomeTerminal
		return res
	}

	campaign, err := s.CampaignRepo.GetByID(ctx, o.CampaignID)
	if err != nil {
		return s.fail(res, logger, errors.Wrap(err, "load campaign"))
	}

	transcript, err := s.transcript(ctx, o.ID)
	if err != nil {
		logger.WithError(err).Warn("could not load thread, classifying reply alone")
	}

	judgment := s.Classifier.Classify(ctx, classifier.Request{
		Transcript:   transcript,
		ReplyText:    reply.Text,
		CurrentOffer: o.CurrentOffer,
		MaxOffer:     campaign.MaxOffer,
	})

	decision := s.Engine.Decide(*o, *campaign, judgment)
	logger = logger.WithFields(log.Fields{"stage": decision.NextStage, "category": decision.Category, "offer": decision.Offer.String()})
	if !decision.Send {
		res.Outcome = OutcomeTerminal
		return res
	}

	mb, err := s.Dispatcher.Dispatch(ctx, o.MailboxID, o.RecipientEmail, decision.Subject, decision.Body)
	if err != nil {
		return s.sendFailed(ctx, res, logger, o.ID, err)
	}

	entryErr := s.ThreadRepo.AppendThreadEntry(ctx, &model.ThreadEntry{
		OutreachID: o.ID,
		Direction:  model.DirectionOutbound,
		Subject:    decision.Subject,
		Body:       decision.Body,
		CreatedAt:  s.now(),
	})

	rounds := o.NegotiationRounds + decision.RoundsDelta
	noError := ""
	update := model.OutreachUpdate{
		NegotiationStage:  &decision.NextStage,
		CurrentOffer:      &decision.Offer,
		NegotiationRounds: &rounds,
		MailboxID:         &mb.ID,
		LastError:         &noError,
	}
	if err := s.OutreachRepo.UpdateOutreach(ctx, o.ID, update); err != nil {
		return s.fail(res, logger, errors.Wrap(err, "sent but could not persist stage"))
	}
	res.Stage = decision.NextStage

	if entryErr != nil {
		return s.fail(res, logger, errors.Wrap(entryErr, "sent but could not log outbound entry"))
	}

	logger.Info("✅ reply handled")
	res.Outcome = OutcomeHandled
	return res
}

func (s *NegotiatorService) recordInbound(ctx context.Context, o *model.Outreach, reply InboundReply) error {
	now := s.now()
	if err := s.ThreadRepo.AppendThreadEntry(ctx, &model.ThreadEntry{
		OutreachID: o.ID,
		Direction:  model.DirectionInbound,
		Subject:    reply.Message.Subject,
		Body:       reply.Text,
		MessageID:  reply.Message.MessageID,
		CreatedAt:  now,
	}); err != nil {
		return errors.Wrap(err, "log inbound entry")
	}

	status := model.StatusReplied
	text := reply.Text
	if err := s.OutreachRepo.UpdateOutreach(ctx, o.ID, model.OutreachUpdate{
		Status:        &status,
		LastInboundAt: &now,
		LastReply:     &text,
	}); err != nil {
		return errors.Wrap(err, "mark outreach replied")
	}
	return nil
}

func (s *NegotiatorService) transcript(ctx context.Context, outreachID int) (string, error) {
	entries, err := s.ThreadRepo.ListByOutreach(ctx, outreachID)
	if err != nil {
		return "", err
	}
	limit := s.TranscriptEntries
	if limit <= 0 {
		limit = 10
	}
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	var b strings.Builder
	for _, e := range entries {
		who := "US"
		if e.Direction == model.DirectionInbound {
			who = "CREATOR"
		}
		fmt.Fprintf(&b, "%s: %s\n", who, strings.TrimSpace(e.Body))
	}
	return b.String(), nil
}

func (s *NegotiatorService) sendFailed(ctx context.Context, res Result, logger *log.Entry, outreachID int, err error) Result {
	res.Err = err
	res.Outcome = OutcomeSendFailed
	if errors.Is(err, appErrors.ErrNoCapacity) {
		res.Outcome = OutcomeNoCapacity
	}
	logger.WithError(err).WithField("outcome", res.Outcome).Warn("reply not sent, stage unchanged")

	reason := err.Error()
	if uerr := s.OutreachRepo.UpdateOutreach(ctx, outreachID, model.OutreachUpdate{LastError: &reason}); uerr != nil {
		logger.WithError(uerr).Error("could not record send failure")
	}
	return res
}

func (s *NegotiatorService) fail(res Result, logger *log.Entry, err error) Result {
	logger.WithError(err).Error("reply processing failed")
	res.Err = err
	res.Outcome = OutcomeError
	return res
}
