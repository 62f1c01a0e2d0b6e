// internal/mailbox/dispatcher.go
package mailbox

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	appErrors "github.com/unclebandit/creator-negotiator/internal/errors"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

// Dispatcher sends through the preferred mailbox, or the first active one with
// quota left. A delivery failure is returned as is; it is not retried on another mailbox.
type Dispatcher struct {
	Mailboxes ActiveMailboxes
	Quota     Quota
	Sender    Sender
	Timeout   time.Duration
}

func NewDispatcher(mailboxes ActiveMailboxes, quota Quota, sender Sender, timeout time.Duration) *Dispatcher {
	return &Dispatcher{Mailboxes: mailboxes, Quota: quota, Sender: sender, Timeout: timeout}
}

func (d *Dispatcher) Dispatch(ctx context.Context, preferredID int, to, subject, body string) (model.Mailbox, error) {
	mb, err := d.Pick(ctx, preferredID)
	if err != nil {
		return model.Mailbox{}, err
	}

	sendCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		sendCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	if err := d.Sender.Send(sendCtx, mb, to, subject, body); err != nil {
		return mb, err
	}

	if err := d.Quota.Consume(ctx, mb); err != nil {
		log.WithError(err).WithField("mailbox", mb.Email).Error("sent but could not record quota")
	}
	return mb, nil
}

// Pick returns the mailbox to send from. It fails with appErrors.ErrNoCapacity
// when every active mailbox has used up its daily limit.
func (d *Dispatcher) Pick(ctx context.Context, preferredID int) (model.Mailbox, error) {
	boxes, err := d.Mailboxes.ListActive(ctx)
	if err != nil {
		return model.Mailbox{}, errors.Wrap(err, "list mailboxes")
	}

	ordered := make([]model.Mailbox, 0, len(boxes))
	for _, mb := range boxes {
		if mb.ID == preferredID {
			ordered = append([]model.Mailbox{mb}, ordered...)
			continue
		}
		ordered = append(ordered, mb)
	}

	var lastErr error
	for _, mb := range ordered {
		left, err := d.Quota.Remaining(ctx, mb)
		if err != nil {
			log.WithError(err).WithField("mailbox", mb.Email).Warn("quota check failed")
			lastErr = err
			continue
		}
		if left > 0 {
			return mb, nil
		}
	}
	if lastErr != nil {
		return model.Mailbox{}, lastErr
	}
	return model.Mailbox{}, appErrors.ErrNoCapacity
}
