// internal/model/outreach.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coarse lifecycle: has the thread had any inbound reply.
const (
	StatusDraft   = "draft"
	StatusSent    = "sent"
	StatusReplied = "replied"
)

type Stage string

const (
	StageInitial            Stage = "initial"
	StageNegotiating        Stage = "negotiating"
	StageFinalOffer         Stage = "final_offer"
	StageDealClosed         Stage = "deal_closed"
	StageRejected           Stage = "rejected"
	StageRejectedOverBudget Stage = "rejected_over_budget"
)

// IsTerminal reports whether no further automated email may be sent.
func (s Stage) IsTerminal() bool {
	switch s {
	case StageDealClosed, StageRejected, StageRejectedOverBudget:
		return true
	}
	return false
}

func (s Stage) Valid() bool {
	switch s {
	case StageInitial, StageNegotiating, StageFinalOffer, StageDealClosed, StageRejected, StageRejectedOverBudget:
		return true
	}
	return false
}

// Outreach is one negotiation thread between us and one creator for one campaign.
type Outreach struct {
	ID                int             `db:"id" json:"id"`
	CampaignID        int             `db:"campaign_id" json:"campaign_id"`
	MailboxID         int             `db:"mailbox_id" json:"mailbox_id"`
	CandidateID       string          `db:"candidate_id" json:"candidate_id"`
	CreatorName       string          `db:"creator_name" json:"creator_name"`
	RecipientEmail    string          `db:"recipient_email" json:"recipient_email"`
	Subject           string          `db:"subject" json:"subject"`
	Body              string          `db:"body" json:"body"`
	Status            string          `db:"status" json:"status"`
	NegotiationStage  Stage           `db:"negotiation_stage" json:"negotiation_stage"`
	CurrentOffer      decimal.Decimal `db:"current_offer" json:"current_offer"`
	NegotiationRounds int             `db:"negotiation_rounds" json:"negotiation_rounds"`
	FollowupCount     int             `db:"followup_count" json:"followup_count"`
	LastFollowupAt    *time.Time      `db:"last_followup_at" json:"last_followup_at,omitempty"`
	LastInboundAt     *time.Time      `db:"last_inbound_at" json:"last_inbound_at,omitempty"`
	LastReply         string          `db:"last_reply" json:"last_reply,omitempty"`
	LastError         string          `db:"last_error" json:"last_error,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at" json:"updated_at"`
}

// OutreachUpdate carries the partial fields of update_outreach. Nil fields are left untouched.
type OutreachUpdate struct {
	Status            *string
	NegotiationStage  *Stage
	CurrentOffer      *decimal.Decimal
	NegotiationRounds *int
	FollowupCount     *int
	LastFollowupAt    *time.Time
	LastInboundAt     *time.Time
	LastReply         *string
	LastError         *string
	MailboxID         *int
}

// Empty reports whether the update touches no column.
func (u OutreachUpdate) Empty() bool {
	return u.Status == nil && u.NegotiationStage == nil && u.CurrentOffer == nil &&
		u.NegotiationRounds == nil && u.FollowupCount == nil && u.LastFollowupAt == nil &&
		u.LastInboundAt == nil && u.LastReply == nil && u.LastError == nil && u.MailboxID == nil
}
