// internal/model/judgment.go
package model

import "github.com/shopspring/decimal"

type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// Judgment is the classifier's structured reading of a creator reply.
type Judgment struct {
	Accepted        bool             `json:"accepted"`
	ExplicitNo      bool             `json:"explicit_no"`
	RequestedAmount *decimal.Decimal `json:"requested_amount"`
	Sentiment       Sentiment        `json:"sentiment"`
}

// SafeJudgment biases toward continuing the negotiation.
func SafeJudgment() Judgment {
	return Judgment{Sentiment: SentimentNeutral}
}
