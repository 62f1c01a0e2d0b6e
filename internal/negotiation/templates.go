// internal/negotiation/templates.go
package negotiation

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryNegotiation Category = "negotiation"
	CategoryAcceptance  Category = "acceptance"
	CategoryFinalOffer  Category = "final_offer"
	CategoryGoodbye     Category = "goodbye"
	CategoryOverBudget  Category = "over_budget"
	CategoryFollowup    Category = "followup"
)

// Picker chooses a template variant. *rand.Rand satisfies it.
type Picker interface {
	Intn(n int) int
}

// Template bodies use {name}, {amount} and {campaign} placeholders.
// Goodbye, over-budget and follow-up variants must not carry {amount}.
var templates = map[Category][]string{
	CategoryNegotiation: {
		"Hi {name},\n\nThanks for getting back to us. We'd love to make this work and can offer {amount} for the {campaign} collaboration.\n\nLet us know if that works for you!\n\nBest,\nThe {campaign} team",
		"Hey {name},\n\nAppreciate the reply. After looking at the numbers we can go to {amount} for this partnership.\n\nWould that work on your end?\n\nCheers,\nThe {campaign} team",
		"Hi {name},\n\nGreat to hear from you. We can bring our offer up to {amount} for the {campaign} sponsorship.\n\nHappy to answer any questions.\n\nThanks,\nThe {campaign} team",
	},
	CategoryAcceptance: {
		"Hi {name},\n\nWonderful, we're happy to confirm the collaboration at {amount}. We'll follow up shortly with the brief and next steps.\n\nLooking forward to it!\n\nBest,\nThe {campaign} team",
		"Hey {name},\n\nDeal! {amount} it is. Expect the campaign details from us in the next few days.\n\nThanks so much,\nThe {campaign} team",
		"Hi {name},\n\nThat's great news. We've locked in {amount} for the {campaign} partnership and will send over everything you need soon.\n\nCheers,\nThe {campaign} team",
	},
	CategoryFinalOffer: {
		"Hi {name},\n\nWe've gone back to our budget and {amount} is the most we're able to offer for this campaign. If that works for you we'd be thrilled to move ahead.\n\nBest,\nThe {campaign} team",
		"Hey {name},\n\nTo be upfront, {amount} is our final offer and the top of our budget for {campaign}. Let us know if you'd like to go ahead.\n\nThanks,\nThe {campaign} team",
		"Hi {name},\n\nWe really want to work with you, and {amount} is the maximum we can stretch to. Just reply yes and we'll get started.\n\nCheers,\nThe {campaign} team",
	},
	CategoryGoodbye: {
		"Hi {name},\n\nTotally understood, thanks for letting us know. We'll keep you in mind for future campaigns.\n\nAll the best,\nThe {campaign} team",
		"Hey {name},\n\nNo worries at all, and thanks for taking the time to reply. Best of luck with your channel!\n\nCheers,\nThe {campaign} team",
		"Hi {name},\n\nThanks for the quick response. We appreciate your honesty and hope to cross paths again.\n\nBest,\nThe {campaign} team",
	},
	CategoryOverBudget: {
		"Hi {name},\n\nThank you for sharing your rate. Unfortunately it's outside what we can do for this campaign right now. We'd love to stay in touch for future opportunities.\n\nBest,\nThe {campaign} team",
		"Hey {name},\n\nWe appreciate the reply. Your rate is a bit beyond our budget this time around, but we'll reach out again when something bigger comes up.\n\nThanks,\nThe {campaign} team",
		"Hi {name},\n\nThanks for the details. Sadly we can't stretch that far for {campaign}, but we hope to work together down the line.\n\nCheers,\nThe {campaign} team",
	},
	CategoryFollowup: {
		"Hi {name},\n\nJust bumping this to the top of your inbox in case it got buried. Would you be interested in a {campaign} collaboration?\n\nBest,\nThe {campaign} team",
		"Hey {name},\n\nQuick follow-up on our sponsorship note. Happy to share more details if you're curious.\n\nCheers,\nThe {campaign} team",
		"Hi {name},\n\nWanted to check in on the partnership idea we sent over. No pressure, just let us know either way!\n\nThanks,\nThe {campaign} team",
	},
}

// Variants returns the template bodies registered for a category.
func Variants(c Category) []string {
	return templates[c]
}

// RenderTemplate replaces {key} placeholders with their values.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

func pick(p Picker, variants []string) string {
	if len(variants) == 0 {
		return ""
	}
	if p == nil {
		return variants[0]
	}
	i := p.Intn(len(variants))
	if i < 0 || i >= len(variants) {
		i = 0
	}
	return variants[i]
}

// FormatMoney renders whole amounts without cents.
func FormatMoney(amount decimal.Decimal) string {
	if amount.Equal(amount.Truncate(0)) {
		return "$" + amount.StringFixed(0)
	}
	return "$" + amount.StringFixed(2)
}

func replySubject(subject string) string {
	s := strings.TrimSpace(subject)
	if s == "" {
		return "Re: Sponsorship"
	}
	if strings.HasPrefix(strings.ToLower(s), "re:") {
		return s
	}
	return "Re: " + s
}
