// internal/model/campaign.go
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	CampaignActive = "active"
	CampaignPaused = "paused"
	CampaignClosed = "closed"
)

// Campaign is the sponsorship budget envelope every outreach negotiates inside.
type Campaign struct {
	ID             int             `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Topic          string          `db:"topic" json:"topic"`
	Brief          string          `db:"brief" json:"brief"`
	BudgetMin      decimal.Decimal `db:"budget_min" json:"budget_min"`
	MaxOffer       decimal.Decimal `db:"max_offer" json:"max_offer"`
	OfferIncrement decimal.Decimal `db:"offer_increment" json:"offer_increment"`
	Status         string          `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}
