package negotiation

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

type fixedPicker int

func (f fixedPicker) Intn(n int) int { return int(f) % n }

func testCampaign() model.Campaign {
	return model.Campaign{ID: 1, Name: "Trailhead", BudgetMin: d(100), MaxOffer: d(500), OfferIncrement: d(50)}
}

func testOutreach(stage model.Stage, offer int64) model.Outreach {
	return model.Outreach{
		ID:               7,
		CampaignID:       1,
		CreatorName:      "Sam",
		RecipientEmail:   "sam@example.com",
		Subject:          "Sponsorship with Trailhead",
		Status:           model.StatusReplied,
		NegotiationStage: stage,
		CurrentOffer:     d(offer),
	}
}

func TestDecideExplicitNoSendsGoodbyeWithoutMoney(t *testing.T) {
	for i := 0; i < len(Variants(CategoryGoodbye)); i++ {
		e := NewEngine(DefaultPolicy(), fixedPicker(i))
		got := e.Decide(testOutreach(model.StageNegotiating, 350), testCampaign(), model.Judgment{ExplicitNo: true, Sentiment: model.SentimentNegative})

		assert.Equal(t, model.StageRejected, got.NextStage)
		assert.Equal(t, CategoryGoodbye, got.Category)
		assert.True(t, got.Send)
		assert.NotContains(t, got.Body, "$")
		assert.NotContains(t, got.Body, "350")
		assert.True(t, d(350).Equal(got.Offer))
	}
}

func TestDecideExplicitNoWinsOverAccepted(t *testing.T) {
	e := NewEngine(DefaultPolicy(), fixedPicker(0))
	got := e.Decide(testOutreach(model.StageInitial, 100), testCampaign(), model.Judgment{Accepted: true, ExplicitNo: true})
	assert.Equal(t, model.StageRejected, got.NextStage)
}

func TestDecideAcceptedAtCurrentOffer(t *testing.T) {
	e := NewEngine(DefaultPolicy(), fixedPicker(1))
	got := e.Decide(testOutreach(model.StageNegotiating, 300), testCampaign(), model.Judgment{Accepted: true})

	assert.Equal(t, model.StageDealClosed, got.NextStage)
	assert.Equal(t, CategoryAcceptance, got.Category)
	assert.True(t, d(300).Equal(got.Offer))
	assert.Contains(t, got.Body, "$300")
	assert.Equal(t, "Re: Sponsorship with Trailhead - Confirmed!", got.Subject)
	assert.Equal(t, 0, got.RoundsDelta)
}

func TestDecideAcceptedBelowCurrentOfferClosesAtAsk(t *testing.T) {
	e := NewEngine(DefaultPolicy(), fixedPicker(0))
	amt := decimal.NewFromInt(250)
	got := e.Decide(testOutreach(model.StageNegotiating, 300), testCampaign(), model.Judgment{Accepted: true, RequestedAmount: &amt})

	assert.Equal(t, model.StageDealClosed, got.NextStage)
	assert.True(t, d(250).Equal(got.Offer))
	assert.Contains(t, got.Body, "$250")
}

func TestDecideAcceptedButAskingMoreKeepsNegotiating(t *testing.T) {
	e := NewEngine(DefaultPolicy(), fixedPicker(0))
	amt := decimal.NewFromInt(450)
	got := e.Decide(testOutreach(model.StageNegotiating, 300), testCampaign(), model.Judgment{Accepted: true, RequestedAmount: &amt})

	assert.Equal(t, model.StageNegotiating, got.NextStage)
	assert.Equal(t, ActionCounter, got.Action)
	assert.Equal(t, 1, got.RoundsDelta)
	assert.True(t, got.Offer.GreaterThanOrEqual(d(300)))
}

func TestDecideMapsCalculatorActions(t *testing.T) {
	tests := []struct {
		name     string
		ask      *decimal.Decimal
		stage    model.Stage
		category Category
		offer    int64
		delta    int
	}{
		{"counter", ask(450), model.StageNegotiating, CategoryNegotiation, 300, 1},
		{"accept near ceiling", ask(490), model.StageDealClosed, CategoryAcceptance, 490, 0},
		{"final offer", ask(600), model.StageFinalOffer, CategoryFinalOffer, 500, 1},
		{"over budget", ask(700), model.StageRejectedOverBudget, CategoryOverBudget, 100, 0},
		{"no ask", nil, model.StageNegotiating, CategoryNegotiation, 100, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(DefaultPolicy(), fixedPicker(2))
			got := e.Decide(testOutreach(model.StageInitial, 100), testCampaign(), model.Judgment{RequestedAmount: tt.ask})

			assert.Equal(t, tt.stage, got.NextStage)
			assert.Equal(t, tt.category, got.Category)
			assert.True(t, d(tt.offer).Equal(got.Offer), "want %d got %s", tt.offer, got.Offer)
			assert.Equal(t, tt.delta, got.RoundsDelta)
			assert.True(t, got.Send)
			assert.NotEmpty(t, got.Body)
		})
	}
}

func TestDecideFinalOfferStatesMaximum(t *testing.T) {
	e := NewEngine(DefaultPolicy(), fixedPicker(0))
	got := e.Decide(testOutreach(model.StageFinalOffer, 500), testCampaign(), model.Judgment{RequestedAmount: ask(620)})

	assert.Equal(t, model.StageFinalOffer, got.NextStage)
	assert.Contains(t, got.Body, "$500")
}

func TestDecideTerminalStagesAbsorb(t *testing.T) {
	judgments := []model.Judgment{
		{Accepted: true},
		{ExplicitNo: true},
		{RequestedAmount: ask(450)},
		{RequestedAmount: ask(10000)},
		model.SafeJudgment(),
	}
	stages := []model.Stage{model.StageDealClosed, model.StageRejected, model.StageRejectedOverBudget}

	e := NewEngine(DefaultPolicy(), rand.New(rand.NewSource(42)))
	for _, stage := range stages {
		for _, j := range judgments {
			got := e.Decide(testOutreach(stage, 300), testCampaign(), j)
			assert.False(t, got.Send)
			assert.Equal(t, stage, got.NextStage)
			assert.True(t, d(300).Equal(got.Offer))
		}
	}
}

func TestPinnedPickerSelectsVariant(t *testing.T) {
	variants := Variants(CategoryNegotiation)
	for i := range variants {
		e := NewEngine(DefaultPolicy(), fixedPicker(i))
		got := e.Decide(testOutreach(model.StageInitial, 100), testCampaign(), model.SafeJudgment())
		want := RenderTemplate(variants[i], map[string]string{"name": "Sam", "campaign": "Trailhead", "amount": "$100"})
		assert.Equal(t, want, got.Body)
	}
}

func TestTemplatesHaveNoLeftoverPlaceholders(t *testing.T) {
	data := map[string]string{"name": "Sam", "campaign": "Trailhead", "amount": "$100"}
	for _, c := range []Category{CategoryNegotiation, CategoryAcceptance, CategoryFinalOffer, CategoryGoodbye, CategoryOverBudget, CategoryFollowup} {
		assert.GreaterOrEqual(t, len(Variants(c)), 2, "category %s", c)
		for _, v := range Variants(c) {
			out := RenderTemplate(v, data)
			assert.False(t, strings.ContainsAny(out, "{}"), "category %s: %q", c, out)
		}
	}
	for _, c := range []Category{CategoryGoodbye, CategoryOverBudget, CategoryFollowup} {
		for _, v := range Variants(c) {
			assert.NotContains(t, v, "{amount}")
		}
	}
}

func TestFollowupRendersNudge(t *testing.T) {
	e := NewEngine(DefaultPolicy(), fixedPicker(0))
	o := testOutreach(model.StageInitial, 100)
	o.Subject = "Re: Sponsorship with Trailhead"

	subject, body := e.Followup(o, testCampaign())
	assert.Equal(t, "Re: Sponsorship with Trailhead", subject)
	assert.Contains(t, body, "Sam")
	assert.NotContains(t, body, "$")
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$400", FormatMoney(d(400)))
	assert.Equal(t, "$412.50", FormatMoney(decimal.RequireFromString("412.5")))
}
