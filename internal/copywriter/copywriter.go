// internal/copywriter/copywriter.go
package copywriter

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/prompts"
	"github.com/unclebandit/creator-negotiator/internal/negotiation"
)

// Request describes the creator and campaign an opening email is written for.
type Request struct {
	CampaignName  string
	Topic         string
	Brief         string
	CreatorName   string
	FollowerCount int64
	Description   string
	Offer         decimal.Decimal
	Draft         string
}

// Writer turns a template draft into a personalised opening email.
type Writer interface {
	Write(ctx context.Context, req Request) (string, error)
}

type LLMWriter struct {
	LLM     llms.Model
	Timeout time.Duration
	Options []llms.CallOption
}

var _ Writer = (*LLMWriter)(nil)

func New(llm llms.Model, timeout time.Duration, opts ...llms.CallOption) *LLMWriter {
	return &LLMWriter{LLM: llm, Timeout: timeout, Options: opts}
}

const outreachPrompt = `You write short, friendly sponsorship emails to social-media creators.

Campaign: {{.campaign}}
Campaign topic: {{.topic}}
Campaign brief: {{.brief}}

Creator: {{.name}}
Followers: {{.followers}}
About the creator: {{.description}}

Rewrite the draft below so it speaks to this creator's content. Keep the offer of exactly {{.amount}},
do not mention any other amount, keep it under 150 words and reply with the email body only.

Draft:
{{.draft}}`

var outreachTemplate = prompts.NewPromptTemplate(outreachPrompt,
	[]string{"campaign", "topic", "brief", "name", "followers", "description", "amount", "draft"})

// Write asks the model for a personalised body. The result must still quote the
// offer amount verbatim, otherwise it is rejected.
func (w *LLMWriter) Write(ctx context.Context, req Request) (string, error) {
	amount := negotiation.FormatMoney(req.Offer)
	prompt, err := outreachTemplate.Format(map[string]any{
		"campaign":    req.CampaignName,
		"topic":       req.Topic,
		"brief":       req.Brief,
		"name":        req.CreatorName,
		"followers":   FormatFollowers(req.FollowerCount),
		"description": req.Description,
		"amount":      amount,
		"draft":       req.Draft,
	})
	if err != nil {
		return "", errors.Wrap(err, "render outreach prompt")
	}

	if w.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.Timeout)
		defer cancel()
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, w.LLM, prompt, w.Options...)
	if err != nil {
		return "", errors.Wrap(err, "generate outreach")
	}

	body := strings.TrimSpace(out)
	if body == "" {
		return "", errors.New("empty outreach from model")
	}
	if !strings.Contains(body, amount) {
		return "", errors.Errorf("outreach does not quote the offer %s", amount)
	}
	return body, nil
}

// FormatFollowers renders an audience size the way creators quote it: 950, 12.5K, 1.2M.
func FormatFollowers(n int64) string {
	switch {
	case n <= 0:
		return "unknown"
	case n < 1000:
		return decimal.NewFromInt(n).String()
	case n < 1000000:
		return decimal.NewFromInt(n).Div(decimal.NewFromInt(1000)).Round(1).String() + "K"
	default:
		return decimal.NewFromInt(n).Div(decimal.NewFromInt(1000000)).Round(1).String() + "M"
	}
}
