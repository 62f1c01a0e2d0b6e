// internal/classifier/classifier.go
package classifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

type Request struct {
	Transcript   string
	ReplyText    string
	CurrentOffer decimal.Decimal
	MaxOffer     decimal.Decimal
}

// Classifier never fails: anything it cannot read becomes model.SafeJudgment.
type Classifier interface {
	Classify(ctx context.Context, req Request) model.Judgment
}

type LLMClassifier struct {
	LLM     llms.Model
	Timeout time.Duration
	Options []llms.CallOption
}

var _ Classifier = (*LLMClassifier)(nil)

func New(llm llms.Model, timeout time.Duration, opts ...llms.CallOption) *LLMClassifier {
	return &LLMClassifier{LLM: llm, Timeout: timeout, Options: opts}
}

func (c *LLMClassifier) Classify(ctx context.Context, req Request) model.Judgment {
	prompt, err := judgmentTemplate.Format(map[string]any{
		"transcript":    req.Transcript,
		"reply":         req.ReplyText,
		"current_offer": req.CurrentOffer.StringFixed(2),
		"max_offer":     req.MaxOffer.StringFixed(2),
	})
	if err != nil {
		log.WithError(err).Warn("classifier prompt render failed, using safe judgment")
		return model.SafeJudgment()
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	out, err := llms.GenerateFromSinglePrompt(ctx, c.LLM, prompt, c.Options...)
	if err != nil {
		log.WithError(err).Warn("classifier unreachable, using safe judgment")
		return model.SafeJudgment()
	}

	j, err := ParseJudgment(out)
	if err != nil {
		log.WithError(err).WithField("raw", truncate(out, 200)).Warn("classifier output rejected, using safe judgment")
		return model.SafeJudgment()
	}
	return j
}

type rawJudgment struct {
	Accepted        *bool            `json:"accepted"`
	ExplicitNo      *bool            `json:"explicit_no"`
	Rejected        *bool            `json:"rejected"`
	RequestedAmount *decimal.Decimal `json:"requested_amount"`
	Sentiment       string           `json:"sentiment"`
}

// ParseJudgment pulls the first JSON object out of the oracle output and validates it.
func ParseJudgment(text string) (model.Judgment, error) {
	obj, err := extractObject(text)
	if err != nil {
		return model.Judgment{}, err
	}

	var raw rawJudgment
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return model.Judgment{}, errors.Wrap(err, "decode judgment")
	}

	if raw.Accepted == nil {
		return model.Judgment{}, errors.New("judgment is missing accepted")
	}
	if raw.ExplicitNo == nil {
		raw.ExplicitNo = raw.Rejected
	}
	if raw.ExplicitNo == nil {
		return model.Judgment{}, errors.New("judgment is missing explicit_no")
	}
	if *raw.Accepted && *raw.ExplicitNo {
		return model.Judgment{}, errors.New("judgment is both accepted and explicit_no")
	}

	j := model.Judgment{Accepted: *raw.Accepted, ExplicitNo: *raw.ExplicitNo}

	switch s := model.Sentiment(strings.ToLower(strings.TrimSpace(raw.Sentiment))); s {
	case model.SentimentPositive, model.SentimentNeutral, model.SentimentNegative:
		j.Sentiment = s
	case "":
		j.Sentiment = model.SentimentNeutral
	default:
		return model.Judgment{}, errors.Errorf("unknown sentiment %q", raw.Sentiment)
	}

	if raw.RequestedAmount != nil {
		if raw.RequestedAmount.IsNegative() {
			return model.Judgment{}, errors.Errorf("negative requested_amount %s", raw.RequestedAmount)
		}
		if raw.RequestedAmount.IsPositive() {
			amt := *raw.RequestedAmount
			j.RequestedAmount = &amt
		}
	}
	return j, nil
}

func extractObject(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", errors.New("no JSON object in classifier output")
	}
	return text[start : end+1], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
