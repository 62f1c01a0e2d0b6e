// internal/negotiation/followup.go
package negotiation

import (
	"time"

	"github.com/unclebandit/creator-negotiator/internal/model"
)

type FollowupPolicy struct {
	MinAge       time.Duration
	MaxAge       time.Duration
	MaxFollowups int
}

func DefaultFollowupPolicy() FollowupPolicy {
	return FollowupPolicy{MinAge: 2 * time.Hour, MaxAge: 6 * time.Hour, MaxFollowups: 2}
}

// FollowupDue reports whether a never-answered outreach should get a nudge now.
// lastOutbound is the time of the latest outbound thread entry.
func FollowupDue(o model.Outreach, lastOutbound time.Time, now time.Time, p FollowupPolicy) bool {
	if o.Status != model.StatusSent || o.NegotiationStage.IsTerminal() {
		return false
	}
	if o.LastInboundAt != nil || o.FollowupCount >= p.MaxFollowups {
		return false
	}
	if lastOutbound.IsZero() {
		return false
	}

	age := now.Sub(lastOutbound)
	return age >= p.MinAge && age <= p.MaxAge
}
