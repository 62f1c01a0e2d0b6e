// internal/service/campaign_service.go
package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/copywriter"
	appErrors "github.com/unclebandit/creator-negotiator/internal/errors"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/repository"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	OutreachRepo repository.OutreachRepositoryInterface
	ThreadRepo   repository.ThreadRepositoryInterface
	Dispatcher   Dispatcher
	Writer       copywriter.Writer
	Now          func() time.Time
}

// CampaignInput is the payload for a new campaign.
type CampaignInput struct {
	Name      string          `json:"name"`
	Topic     string          `json:"topic"`
	Brief     string          `json:"brief"`
	BudgetMin decimal.Decimal `json:"budget_min"`
	MaxOffer  decimal.Decimal `json:"max_offer"`
}

// CampaignPatch is an administrative edit. Nil fields are left as they are.
type CampaignPatch struct {
	Name      *string          `json:"name"`
	Topic     *string          `json:"topic"`
	Brief     *string          `json:"brief"`
	BudgetMin *decimal.Decimal `json:"budget_min"`
	MaxOffer  *decimal.Decimal `json:"max_offer"`
}

type CampaignDetails struct {
	model.Campaign
	Stats map[string]int `json:"stats"`
}

var candidateIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.:-]+$`)

func (s *CampaignService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (in CampaignInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Topic, validation.Length(0, 200)),
		validation.Field(&in.BudgetMin, validation.By(func(value interface{}) error {
			v := value.(decimal.Decimal)
			if v.IsNegative() {
				return errors.New("must not be negative")
			}
			return nil
		})),
		validation.Field(&in.MaxOffer, validation.By(func(value interface{}) error {
			v := value.(decimal.Decimal)
			if v.LessThan(decimal.NewFromInt(50)) {
				return errors.New("must be at least 50")
			}
			if v.LessThan(in.BudgetMin) {
				return errors.New("must not be below budget_min")
			}
			return nil
		})),
	)
}

func (s *CampaignService) CreateCampaign(ctx context.Context, in CampaignInput) (*model.Campaign, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.Validate(); err != nil {
		return nil, appErrors.NewValidation(err)
	}

	c := &model.Campaign{
		Name:           in.Name,
		Topic:          strings.TrimSpace(in.Topic),
		Brief:          strings.TrimSpace(in.Brief),
		BudgetMin:      in.BudgetMin,
		MaxOffer:       in.MaxOffer,
		OfferIncrement: decimal.NewFromInt(50),
		Status:         model.CampaignActive,
	}
	if err := s.CampaignRepo.Create(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create campaign")
	}

	log.WithFields(log.Fields{"campaign_id": c.ID, "max_offer": c.MaxOffer.String()}).Info("📣 campaign created")
	return c, nil
}

// UpdateCampaign applies an administrative edit. Budget changes only affect
// offers computed after the edit.
func (s *CampaignService) UpdateCampaign(ctx context.Context, campaignID int, patch CampaignPatch) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	in := CampaignInput{Name: c.Name, Topic: c.Topic, Brief: c.Brief, BudgetMin: c.BudgetMin, MaxOffer: c.MaxOffer}
	if patch.Name != nil {
		in.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Topic != nil {
		in.Topic = strings.TrimSpace(*patch.Topic)
	}
	if patch.Brief != nil {
		in.Brief = strings.TrimSpace(*patch.Brief)
	}
	if patch.BudgetMin != nil {
		in.BudgetMin = *patch.BudgetMin
	}
	if patch.MaxOffer != nil {
		in.MaxOffer = *patch.MaxOffer
	}
	if err := in.Validate(); err != nil {
		return nil, appErrors.NewValidation(err)
	}

	c.Name, c.Topic, c.Brief, c.BudgetMin, c.MaxOffer = in.Name, in.Topic, in.Brief, in.BudgetMin, in.MaxOffer
	if err := s.CampaignRepo.Update(ctx, c); err != nil {
		return nil, errors.Wrap(err, "update campaign")
	}

	log.WithField("campaign_id", c.ID).Info("✏️ campaign updated")
	return c, nil
}

// SetCampaignStatus pauses, reactivates or closes a campaign. Only active
// campaigns accept new outreach.
func (s *CampaignService) SetCampaignStatus(ctx context.Context, campaignID int, status string) (*model.Campaign, error) {
	err := validation.Validate(status, validation.Required,
		validation.In(model.CampaignActive, model.CampaignPaused, model.CampaignClosed))
	if err != nil {
		return nil, appErrors.NewValidation(errors.Wrap(err, "status"))
	}

	if err := s.CampaignRepo.UpdateStatus(ctx, campaignID, status); err != nil {
		return nil, err
	}
	c, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"campaign_id": campaignID, "status": status}).Info("🔁 campaign status changed")
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, page, pageSize int, status string) ([]model.Campaign, map[string]int, error) {
	page, pageSize, offset := paginate(page, pageSize)

	ptrs, total, err := s.CampaignRepo.ListCampaigns(ctx, offset, pageSize, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	return campaigns, pagination(page, pageSize, total), nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(ctx context.Context, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetStageStats(ctx, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "stage stats")
	}
	total := 0
	for _, n := range stats {
		total += n
	}
	stats["total"] = total

	return &CampaignDetails{Campaign: *campaign, Stats: stats}, nil
}

// RenderPreview shows the first email a creator would receive, optionally with an override template.
func (s *CampaignService) RenderPreview(ctx context.Context, campaignID int, creator model.Creator, overrideTemplate *string) (string, string, error) {
	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return "", "", err
	}

	override := ""
	if overrideTemplate != nil {
		override = *overrideTemplate
	}
	subject, body := RenderOutreach(*campaign, creator, campaign.BudgetMin, override)
	return subject, body, nil
}

// personalize lets the writer rework the template draft for this creator.
// Any writer failure keeps the template body.
func (s *CampaignService) personalize(ctx context.Context, c model.Campaign, creator model.Creator, draft string) string {
	if s.Writer == nil {
		return draft
	}
	body, err := s.Writer.Write(ctx, copywriter.Request{
		CampaignName:  c.Name,
		Topic:         c.Topic,
		Brief:         c.Brief,
		CreatorName:   creator.DisplayName,
		FollowerCount: creator.FollowerCount,
		Description:   creator.Description,
		Offer:         c.BudgetMin,
		Draft:         draft,
	})
	if err != nil {
		log.WithError(err).WithField("candidate_id", creator.CandidateID).Warn("⚠️ personalised outreach unavailable, using template")
		return draft
	}
	return body
}

func validateCreator(c model.Creator) error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.CandidateID, validation.Required, validation.Length(1, 128), validation.Match(candidateIDPattern)),
		validation.Field(&c.Email, validation.Required, is.EmailFormat),
		validation.Field(&c.FollowerCount, validation.Min(int64(0))),
	)
}

// CreateOutreach drafts the opening email for a creator. Calling it twice for the same
// candidate returns the existing outreach and false.
func (s *CampaignService) CreateOutreach(ctx context.Context, campaignID int, creator model.Creator) (*model.Outreach, bool, error) {
	creator.Email = strings.TrimSpace(creator.Email)
	if err := validateCreator(creator); err != nil {
		return nil, false, appErrors.NewValidation(err)
	}

	campaign, err := s.CampaignRepo.GetByID(ctx, campaignID)
	if err != nil {
		return nil, false, err
	}
	if campaign.Status != model.CampaignActive {
		return nil, false, appErrors.NewValidation(errors.Errorf("campaign is %s", campaign.Status))
	}

	subject, body := RenderOutreach(*campaign, creator, campaign.BudgetMin, "")
	o := &model.Outreach{
		CampaignID:       campaignID,
		CandidateID:      creator.CandidateID,
		CreatorName:      creator.DisplayName,
		RecipientEmail:   creator.Email,
		Subject:          subject,
		Body:             body,
		Status:           model.StatusDraft,
		NegotiationStage: model.StageInitial,
		CurrentOffer:     campaign.BudgetMin,
	}

	o.Body = s.personalize(ctx, *campaign, creator, body)

	created, err := s.OutreachRepo.CreateOutreach(ctx, o)
	if err != nil {
		return nil, false, errors.Wrap(err, "create outreach")
	}
	if created {
		log.WithFields(log.Fields{"outreach_id": o.ID, "campaign_id": campaignID}).Info("📝 outreach drafted")
	}
	return o, created, nil
}

// SendOutreach sends the drafted opening email once. The draft is claimed
// before dispatch so concurrent callers cannot both send it.
func (s *CampaignService) SendOutreach(ctx context.Context, outreachID int) (*model.Outreach, error) {
	o, err := s.OutreachRepo.GetByID(ctx, outreachID)
	if err != nil {
		return nil, err
	}
	if o.NegotiationStage.IsTerminal() {
		return nil, appErrors.ErrTerminalStage
	}
	if o.Status != model.StatusDraft {
		return nil, appErrors.ErrAlreadySent
	}

	claimed, err := s.OutreachRepo.ClaimDraft(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "claim outreach")
	}
	if !claimed {
		return nil, appErrors.ErrAlreadySent
	}

	mb, err := s.Dispatcher.Dispatch(ctx, o.MailboxID, o.RecipientEmail, o.Subject, o.Body)
	if err != nil {
		draft := model.StatusDraft
		reason := err.Error()
		if uerr := s.OutreachRepo.UpdateOutreach(ctx, o.ID, model.OutreachUpdate{Status: &draft, LastError: &reason}); uerr != nil {
			log.WithError(uerr).WithField("outreach_id", o.ID).Error("could not release outreach after send failure")
		}
		return nil, err
	}

	now := s.now()
	entryErr := s.ThreadRepo.AppendThreadEntry(ctx, &model.ThreadEntry{
		OutreachID: o.ID,
		Direction:  model.DirectionOutbound,
		Subject:    o.Subject,
		Body:       o.Body,
		CreatedAt:  now,
	})

	noError := ""
	if err := s.OutreachRepo.UpdateOutreach(ctx, o.ID, model.OutreachUpdate{
		MailboxID: &mb.ID,
		LastError: &noError,
	}); err != nil {
		return nil, errors.Wrap(err, "sent but could not record mailbox")
	}
	if entryErr != nil {
		return nil, errors.Wrap(entryErr, "sent but could not log outbound entry")
	}

	o.Status = model.StatusSent
	o.MailboxID = mb.ID
	o.LastError = ""
	log.WithFields(log.Fields{"outreach_id": o.ID, "mailbox": mb.Email}).Info("📧 outreach sent")
	return o, nil
}

// ListOutreach pages through a campaign's outreach. An empty stage lists all of them.
func (s *CampaignService) ListOutreach(ctx context.Context, campaignID int, stage string, page, pageSize int) ([]model.Outreach, map[string]int, error) {
	if stage != "" && !model.Stage(stage).Valid() {
		return nil, nil, appErrors.NewValidation(errors.Errorf("unknown stage %q", stage))
	}
	if _, err := s.CampaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, nil, err
	}
	page, pageSize, offset := paginate(page, pageSize)

	list, total, err := s.OutreachRepo.ListByCampaign(ctx, campaignID, model.Stage(stage), offset, pageSize)
	if err != nil {
		return nil, nil, err
	}
	return list, pagination(page, pageSize, total), nil
}

func (s *CampaignService) GetThread(ctx context.Context, outreachID int) (*model.Outreach, []model.ThreadEntry, error) {
	o, err := s.OutreachRepo.GetByID(ctx, outreachID)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.ThreadRepo.ListByOutreach(ctx, outreachID)
	if err != nil {
		return nil, nil, err
	}
	return o, entries, nil
}

func paginate(page, pageSize int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize, (page - 1) * pageSize
}

func pagination(page, pageSize, total int) map[string]int {
	return map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": (total + pageSize - 1) / pageSize,
	}
}
