// internal/repository/outreach_repository.go
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	appErrors "github.com/unclebandit/creator-negotiator/internal/errors"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

type OutreachRepositoryInterface interface {
	CreateOutreach(ctx context.Context, o *model.Outreach) (bool, error)
	GetByID(ctx context.Context, id int) (*model.Outreach, error)
	UpdateOutreach(ctx context.Context, id int, u model.OutreachUpdate) error
	ClaimDraft(ctx context.Context, id int) (bool, error)
	ListOpenOutreach(ctx context.Context) ([]model.Outreach, error)
	ListAwaitingReply(ctx context.Context, maxFollowups int) ([]model.Outreach, error)
	ListByCampaign(ctx context.Context, campaignID int, stage model.Stage, offset, limit int) ([]model.Outreach, int, error)
}

type OutreachRepository struct {
	DB *sql.DB
}

const outreachColumns = `id, campaign_id, mailbox_id, candidate_id, creator_name, recipient_email, subject, body,
        status, negotiation_stage, current_offer, negotiation_rounds, followup_count,
        last_followup_at, last_inbound_at, last_reply, last_error, created_at, updated_at`

func scanOutreach(row interface{ Scan(dest ...any) error }, o *model.Outreach) error {
	return row.Scan(
		&o.ID, &o.CampaignID, &o.MailboxID, &o.CandidateID, &o.CreatorName, &o.RecipientEmail,
		&o.Subject, &o.Body, &o.Status, &o.NegotiationStage, &o.CurrentOffer, &o.NegotiationRounds,
		&o.FollowupCount, &o.LastFollowupAt, &o.LastInboundAt, &o.LastReply, &o.LastError,
		&o.CreatedAt, &o.UpdatedAt,
	)
}

// CreateOutreach is an idempotent insert keyed on (campaign_id, candidate_id).
// When the row already exists o is overwritten with it and false is returned.
func (r *OutreachRepository) CreateOutreach(ctx context.Context, o *model.Outreach) (bool, error) {
	now := time.Now()
	if o.Status == "" {
		o.Status = model.StatusDraft
	}
	if o.NegotiationStage == "" {
		o.NegotiationStage = model.StageInitial
	}
	o.RecipientEmail = strings.ToLower(strings.TrimSpace(o.RecipientEmail))

	query := `
        INSERT INTO outreach
        (campaign_id, mailbox_id, candidate_id, creator_name, recipient_email, subject, body,
         status, negotiation_stage, current_offer, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
        ON CONFLICT (campaign_id, candidate_id) DO NOTHING
        RETURNING id
    `
	err := r.DB.QueryRowContext(ctx, query,
		o.CampaignID, o.MailboxID, o.CandidateID, o.CreatorName, o.RecipientEmail, o.Subject, o.Body,
		o.Status, o.NegotiationStage, o.CurrentOffer, now,
	).Scan(&o.ID)
	if err == nil {
		o.CreatedAt = now
		o.UpdatedAt = now
		return true, nil
	}
	if err != sql.ErrNoRows {
		return false, err
	}

	existing := `SELECT ` + outreachColumns + ` FROM outreach WHERE campaign_id=$1 AND candidate_id=$2`
	if err := scanOutreach(r.DB.QueryRowContext(ctx, existing, o.CampaignID, o.CandidateID), o); err != nil {
		return false, err
	}
	return false, nil
}

func (r *OutreachRepository) GetByID(ctx context.Context, id int) (*model.Outreach, error) {
	query := `SELECT ` + outreachColumns + ` FROM outreach WHERE id=$1`
	var o model.Outreach
	if err := scanOutreach(r.DB.QueryRowContext(ctx, query, id), &o); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewOutreachNotFound(id)
		}
		return nil, err
	}
	return &o, nil
}

// UpdateOutreach writes only the non-nil fields of u.
func (r *OutreachRepository) UpdateOutreach(ctx context.Context, id int, u model.OutreachUpdate) error {
	if u.Empty() {
		return nil
	}

	sets := []string{}
	args := []interface{}{}
	add := func(column string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if u.Status != nil {
		add("status", *u.Status)
	}
	if u.NegotiationStage != nil {
		add("negotiation_stage", string(*u.NegotiationStage))
	}
	if u.CurrentOffer != nil {
		add("current_offer", *u.CurrentOffer)
	}
	if u.NegotiationRounds != nil {
		add("negotiation_rounds", *u.NegotiationRounds)
	}
	if u.FollowupCount != nil {
		add("followup_count", *u.FollowupCount)
	}
	if u.LastFollowupAt != nil {
		add("last_followup_at", *u.LastFollowupAt)
	}
	if u.LastInboundAt != nil {
		add("last_inbound_at", *u.LastInboundAt)
	}
	if u.LastReply != nil {
		add("last_reply", *u.LastReply)
	}
	if u.LastError != nil {
		add("last_error", *u.LastError)
	}
	if u.MailboxID != nil {
		add("mailbox_id", *u.MailboxID)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE outreach SET %s, updated_at=NOW() WHERE id=$%d", strings.Join(sets, ", "), len(args))

	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewOutreachNotFound(id)
	}
	return nil
}

// ClaimDraft moves a draft to sent in a single statement so only one caller
// gets to send the opening email. It reports false when the row was not a draft.
func (r *OutreachRepository) ClaimDraft(ctx context.Context, id int) (bool, error) {
	query := `UPDATE outreach SET status='sent', updated_at=NOW()
        WHERE id=$1 AND status='draft'
          AND negotiation_stage NOT IN ('deal_closed', 'rejected', 'rejected_over_budget')`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// ListOpenOutreach returns every outreach that has been emailed, newest activity first.
// Terminal ones are included so late replies can still be matched and recorded.
func (r *OutreachRepository) ListOpenOutreach(ctx context.Context) ([]model.Outreach, error) {
	query := `SELECT ` + outreachColumns + ` FROM outreach
        WHERE status IN ('sent', 'replied')
        ORDER BY updated_at DESC, id DESC`
	return r.list(ctx, query)
}

// ListAwaitingReply returns follow-up candidates: sent, never answered, still open.
func (r *OutreachRepository) ListAwaitingReply(ctx context.Context, maxFollowups int) ([]model.Outreach, error) {
	query := `SELECT ` + outreachColumns + ` FROM outreach
        WHERE status = 'sent'
          AND negotiation_stage NOT IN ('deal_closed', 'rejected', 'rejected_over_budget')
          AND last_inbound_at IS NULL
          AND followup_count < $1
        ORDER BY id`
	return r.list(ctx, query, maxFollowups)
}

// ListByCampaign pages through a campaign's outreach, optionally narrowed to one stage.
func (r *OutreachRepository) ListByCampaign(ctx context.Context, campaignID int, stage model.Stage, offset, limit int) ([]model.Outreach, int, error) {
	where := ` WHERE campaign_id=$1`
	args := []interface{}{campaignID}
	if stage != "" {
		where += ` AND negotiation_stage=$2`
		args = append(args, string(stage))
	}

	query := `SELECT ` + outreachColumns + ` FROM outreach` + where +
		fmt.Sprintf(` ORDER BY id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	items, err := r.list(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM outreach`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *OutreachRepository) list(ctx context.Context, query string, args ...interface{}) ([]model.Outreach, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Outreach{}
	for rows.Next() {
		var o model.Outreach
		if err := scanOutreach(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

var _ OutreachRepositoryInterface = (*OutreachRepository)(nil)
