// internal/mailbox/gateway.go
package mailbox

import (
	"context"

	"github.com/unclebandit/creator-negotiator/internal/model"
)

// Fetcher yields candidate inbound messages. Calls may overlap earlier windows;
// duplicates are filtered downstream.
type Fetcher interface {
	FetchCandidates(ctx context.Context, mb model.Mailbox) ([]model.InboundMessage, error)
}

type Sender interface {
	Send(ctx context.Context, mb model.Mailbox, to, subject, body string) error
}

type ActiveMailboxes interface {
	ListActive(ctx context.Context) ([]model.Mailbox, error)
}
