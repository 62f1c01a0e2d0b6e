// internal/service/template_service.go
package service

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/unclebandit/creator-negotiator/internal/copywriter"
	"github.com/unclebandit/creator-negotiator/internal/model"
	"github.com/unclebandit/creator-negotiator/internal/negotiation"
)

const (
	DefaultOutreachSubject = "Sponsorship opportunity: {campaign}"

	// Placeholders: {name} {topic} {campaign} {brief} {amount} {followers} {description} {audience}
	DefaultOutreachTemplate = "Hi {name},\n\n" +
		"We've been enjoying your {topic} content{audience}, and we think your audience would be a great fit for {campaign}.\n\n" +
		"{brief}\n\n" +
		"We'd like to offer {amount} for a sponsored segment. Would you be open to a collaboration?\n\n" +
		"Best,\nThe {campaign} team"
)

// RenderOutreach fills the first email of a thread. An empty override falls back to the default template.
func RenderOutreach(c model.Campaign, creator model.Creator, offer decimal.Decimal, override string) (subject, body string) {
	audience := ""
	if creator.FollowerCount > 0 {
		audience = " and the " + copywriter.FormatFollowers(creator.FollowerCount) + " followers you've built"
	}
	data := map[string]string{
		"name":        firstNonEmpty(creator.DisplayName, "there"),
		"campaign":    firstNonEmpty(c.Name, "our"),
		"topic":       firstNonEmpty(c.Topic, "creator"),
		"brief":       strings.TrimSpace(c.Brief),
		"amount":      negotiation.FormatMoney(offer),
		"followers":   copywriter.FormatFollowers(creator.FollowerCount),
		"description": strings.TrimSpace(creator.Description),
		"audience":    audience,
	}

	tmpl := override
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultOutreachTemplate
	}

	body = negotiation.RenderTemplate(tmpl, data)
	body = strings.ReplaceAll(body, "\n\n\n\n", "\n\n")
	return negotiation.RenderTemplate(DefaultOutreachSubject, data), body
}

func firstNonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
