// internal/negotiation/engine.go
package negotiation

import (
	"github.com/shopspring/decimal"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

// Decision is the engine's verdict on one classified reply. Nothing is applied
// until the caller has sent Subject/Body successfully.
type Decision struct {
	NextStage   model.Stage
	Offer       decimal.Decimal
	Action      Action
	RoundsDelta int
	Category    Category
	Subject     string
	Body        string
	Send        bool
}

type Engine struct {
	Policy Policy
	Picker Picker
}

func NewEngine(policy Policy, picker Picker) *Engine {
	return &Engine{Policy: policy, Picker: picker}
}

// Decide runs the state machine for one reply. It has no side effects.
func (e *Engine) Decide(o model.Outreach, c model.Campaign, j model.Judgment) Decision {
	if o.NegotiationStage.IsTerminal() {
		return Decision{NextStage: o.NegotiationStage, Offer: o.CurrentOffer}
	}

	if j.ExplicitNo {
		return e.compose(o, c, Decision{
			NextStage: model.StageRejected,
			Offer:     o.CurrentOffer,
			Category:  CategoryGoodbye,
		})
	}

	if j.Accepted && (j.RequestedAmount == nil || j.RequestedAmount.LessThanOrEqual(o.CurrentOffer)) {
		// the deal closes at the lower of what is on the table and what they asked for
		agreed := o.CurrentOffer
		if j.RequestedAmount != nil {
			agreed = decimal.Min(agreed, *j.RequestedAmount)
		}
		return e.compose(o, c, Decision{
			NextStage: model.StageDealClosed,
			Offer:     agreed,
			Action:    ActionAccept,
			Category:  CategoryAcceptance,
		})
	}

	res := e.Policy.NextOffer(OfferInput{
		CurrentOffer: o.CurrentOffer,
		CreatorAsk:   j.RequestedAmount,
		BudgetMin:    c.BudgetMin,
		MaxOffer:     c.MaxOffer,
		Round:        o.NegotiationRounds,
	})

	d := Decision{Offer: res.Offer, Action: res.Action}
	switch res.Action {
	case ActionAccept:
		d.NextStage = model.StageDealClosed
		d.Category = CategoryAcceptance
	case ActionCounter:
		d.NextStage = model.StageNegotiating
		d.Category = CategoryNegotiation
		d.RoundsDelta = 1
	case ActionFinalOffer:
		d.NextStage = model.StageFinalOffer
		d.Category = CategoryFinalOffer
		d.RoundsDelta = 1
	default:
		d.NextStage = model.StageRejectedOverBudget
		d.Category = CategoryOverBudget
		d.Offer = o.CurrentOffer
	}
	return e.compose(o, c, d)
}

// Followup renders a soft nudge for an outreach that never got a reply.
func (e *Engine) Followup(o model.Outreach, c model.Campaign) (subject, body string) {
	body = RenderTemplate(pick(e.Picker, templates[CategoryFollowup]), templateData(o, c, decimal.Zero))
	return replySubject(o.Subject), body
}

func (e *Engine) compose(o model.Outreach, c model.Campaign, d Decision) Decision {
	d.Send = true
	d.Subject = replySubject(o.Subject)
	if d.Category == CategoryAcceptance {
		d.Subject += " - Confirmed!"
	}
	d.Body = RenderTemplate(pick(e.Picker, templates[d.Category]), templateData(o, c, d.Offer))
	return d
}

func templateData(o model.Outreach, c model.Campaign, amount decimal.Decimal) map[string]string {
	name := o.CreatorName
	if name == "" {
		name = "there"
	}
	campaign := c.Name
	if campaign == "" {
		campaign = "our"
	}
	return map[string]string{
		"name":     name,
		"campaign": campaign,
		"amount":   FormatMoney(amount),
	}
}
