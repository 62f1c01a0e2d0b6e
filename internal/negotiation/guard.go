// internal/negotiation/guard.go
package negotiation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

type Verdict string

const (
	VerdictAdmit     Verdict = "admit"
	VerdictDuplicate Verdict = "duplicate"
	VerdictTerminal  Verdict = "terminal"
)

// ProcessedStore must implement mark_processed as an atomic insert-if-absent.
type ProcessedStore interface {
	MarkProcessed(ctx context.Context, rec model.ProcessedMessage) (bool, error)
}

type Guard struct {
	Store ProcessedStore
	Now   func() time.Time
}

func NewGuard(store ProcessedStore) *Guard {
	return &Guard{Store: store, Now: time.Now}
}

// Admit records the message as processed and then checks the outreach stage.
// A message is marked even when the verdict is terminal, so it is never looked at twice.
func (g *Guard) Admit(ctx context.Context, msg model.InboundMessage, o model.Outreach) (Verdict, error) {
	key, fp := MessageKey(msg)
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}

	fresh, err := g.Store.MarkProcessed(ctx, model.ProcessedMessage{
		MessageID:   key,
		Fingerprint: fp,
		OutreachID:  o.ID,
		ProcessedAt: now().UTC(),
	})
	if err != nil {
		return "", errors.Wrapf(err, "mark processed %s", key)
	}
	if !fresh {
		return VerdictDuplicate, nil
	}
	if o.NegotiationStage.IsTerminal() {
		return VerdictTerminal, nil
	}
	return VerdictAdmit, nil
}

// MessageKey returns the dedupe key and the content fingerprint of a message.
// Messages without a Message-ID are keyed by their fingerprint.
func MessageKey(msg model.InboundMessage) (key, fingerprint string) {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(msg.FromAddress)) + "|" +
		strings.TrimSpace(msg.Subject) + "|" + strings.TrimSpace(msg.RawBody)))
	fingerprint = hex.EncodeToString(sum[:])

	key = strings.TrimSpace(msg.MessageID)
	if key == "" {
		key = "fp:" + fingerprint
	}
	return key, fingerprint
}
