// internal/classifier/prompt.go
package classifier

import "github.com/tmc/langchaingo/prompts"

const judgmentPrompt = `You are reviewing an email reply from a social-media creator we offered a paid sponsorship.

Conversation so far:
{{.transcript}}

Latest reply from the creator:
{{.reply}}

Our current offer is {{.current_offer}} USD and the most we can pay is {{.max_offer}} USD.

Answer with a single JSON object and nothing else:
{"accepted": bool, "explicit_no": bool, "requested_amount": number or null, "sentiment": "positive" | "neutral" | "negative"}

Rules:
- "accepted" is true only if the creator agrees to our current offer.
- "explicit_no" is true only if the creator refuses to collaborate at any price. A counter-offer or a stated rate is NOT a refusal.
- "requested_amount" is the amount in USD the creator asks for, or null if they did not name one.`

var judgmentTemplate = prompts.NewPromptTemplate(judgmentPrompt, []string{"transcript", "reply", "current_offer", "max_offer"})
