// internal/negotiation/offer.go
package negotiation

import (
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionAccept     Action = "accept"
	ActionCounter    Action = "counter"
	ActionFinalOffer Action = "final_offer"
	ActionDecline    Action = "decline"
)

// Policy holds the offer constants. DefaultPolicy must stay in line with what
// creators already saw from earlier deployments.
type Policy struct {
	// OpeningRatio of budget_min where the baseline schedule starts.
	OpeningRatio decimal.Decimal
	// ScheduleSteps is the number of baseline rounds from opening to max_offer.
	ScheduleSteps int
	// NearCeilingRatio of max_offer above which an in-budget ask is accepted outright.
	NearCeilingRatio decimal.Decimal
	// StretchRatio of max_offer up to which an over-budget ask still gets a final offer.
	StretchRatio decimal.Decimal
	// RoundTo is the increment every computed offer is rounded to.
	RoundTo decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{
		OpeningRatio:     decimal.RequireFromString("0.85"),
		ScheduleSteps:    6,
		NearCeilingRatio: decimal.RequireFromString("0.95"),
		StretchRatio:     decimal.RequireFromString("1.30"),
		RoundTo:          decimal.NewFromInt(50),
	}
}

type OfferInput struct {
	CurrentOffer decimal.Decimal
	CreatorAsk   *decimal.Decimal
	BudgetMin    decimal.Decimal
	MaxOffer     decimal.Decimal
	Round        int
}

type OfferResult struct {
	Offer  decimal.Decimal
	Action Action
}

// NextOffer runs the default policy.
func NextOffer(in OfferInput) OfferResult {
	return DefaultPolicy().NextOffer(in)
}

// NextOffer decides the next amount to put in front of the creator.
// Computed offers are multiples of RoundTo, never above the ceiling and never
// below the offer already on the table. Accepting returns the creator's ask as is.
func (p Policy) NextOffer(in OfferInput) OfferResult {
	ceiling := p.Ceiling(in.MaxOffer)
	if in.CurrentOffer.GreaterThan(ceiling) && in.CurrentOffer.LessThanOrEqual(in.MaxOffer) {
		// an off-increment offer already on the table is never walked back
		ceiling = in.CurrentOffer
	}
	baseline := p.Baseline(in.BudgetMin, in.MaxOffer, in.Round)

	floor := decimal.Max(baseline, p.roundUp(in.CurrentOffer))
	if floor.GreaterThan(ceiling) {
		floor = ceiling
	}

	if in.CreatorAsk == nil {
		if floor.GreaterThanOrEqual(ceiling) {
			return OfferResult{Offer: ceiling, Action: ActionFinalOffer}
		}
		return OfferResult{Offer: floor, Action: ActionCounter}
	}

	ask := *in.CreatorAsk
	if ask.LessThanOrEqual(in.MaxOffer) {
		if ask.LessThanOrEqual(floor) {
			return OfferResult{Offer: ask, Action: ActionAccept}
		}

		if ask.LessThanOrEqual(in.MaxOffer.Mul(p.NearCeilingRatio)) {
			mid := p.Round(baseline.Add(ask).Div(decimal.NewFromInt(2)))
			offer := decimal.Max(mid, floor)
			if offer.GreaterThan(ceiling) {
				offer = ceiling
			}
			if offer.GreaterThanOrEqual(ask) {
				return OfferResult{Offer: ask, Action: ActionAccept}
			}
			return OfferResult{Offer: offer, Action: ActionCounter}
		}

		return OfferResult{Offer: ask, Action: ActionAccept}
	}

	if ask.LessThanOrEqual(in.MaxOffer.Mul(p.StretchRatio)) {
		return OfferResult{Offer: ceiling, Action: ActionFinalOffer}
	}

	return OfferResult{Offer: in.CurrentOffer, Action: ActionDecline}
}

// Baseline is the round-indexed default offer, rounded and clamped to the ceiling.
// Round 0 opens below budget_min; the last step lands on max_offer.
func (p Policy) Baseline(budgetMin, maxOffer decimal.Decimal, round int) decimal.Decimal {
	last := p.ScheduleSteps - 1
	if last < 1 {
		last = 1
	}
	if round < 0 {
		round = 0
	}
	if round > last {
		round = last
	}

	low := budgetMin.Mul(p.OpeningRatio)
	span := maxOffer.Sub(low)
	raw := low.Add(span.Mul(decimal.NewFromInt(int64(round))).Div(decimal.NewFromInt(int64(last))))

	offer := p.Round(raw)
	if ceiling := p.Ceiling(maxOffer); offer.GreaterThan(ceiling) {
		return ceiling
	}
	return offer
}

// Round snaps an amount to the nearest increment, half away from zero, with one
// increment as the floor.
func (p Policy) Round(amount decimal.Decimal) decimal.Decimal {
	rounded := amount.Div(p.RoundTo).Round(0).Mul(p.RoundTo)
	if rounded.LessThan(p.RoundTo) {
		return p.RoundTo
	}
	return rounded
}

// Ceiling is the largest increment multiple that does not exceed max_offer.
func (p Policy) Ceiling(maxOffer decimal.Decimal) decimal.Decimal {
	c := maxOffer.Div(p.RoundTo).Floor().Mul(p.RoundTo)
	if c.LessThan(p.RoundTo) {
		return maxOffer
	}
	return c
}

func (p Policy) roundUp(amount decimal.Decimal) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	return amount.Div(p.RoundTo).Ceil().Mul(p.RoundTo)
}
