// internal/mailbox/imap.go
package mailbox

import (
	"context"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

type IMAPFetcher struct {
	// Window is how far back the SINCE half of the search reaches.
	Window     time.Duration
	Timeout    time.Duration
	MaxRetries uint64
	Now        func() time.Time
}

var _ Fetcher = (*IMAPFetcher)(nil)

func NewIMAPFetcher(window, timeout time.Duration) *IMAPFetcher {
	return &IMAPFetcher{Window: window, Timeout: timeout, MaxRetries: 3, Now: time.Now}
}

// FetchCandidates searches INBOX for messages received inside the window OR
// still unseen. Bodies are fetched with PEEK so the flags stay untouched.
func (f *IMAPFetcher) FetchCandidates(ctx context.Context, mb model.Mailbox) ([]model.InboundMessage, error) {
	c, err := f.connect(ctx, mb)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", true); err != nil {
		return nil, errors.Wrapf(err, "select INBOX on %s", mb.Email)
	}

	ids, err := c.Search(f.criteria())
	if err != nil {
		return nil, errors.Wrapf(err, "search %s", mb.Email)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)
	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}

	ch := make(chan *imap.Message, 16)
	done := make(chan error, 1)
	go func() {
		done <- c.Fetch(seqset, items, ch)
	}()

	out := make([]model.InboundMessage, 0, len(ids))
	for msg := range ch {
		if in, ok := toInbound(msg, section); ok {
			out = append(out, in)
		}
	}
	if err := <-done; err != nil {
		return out, errors.Wrapf(err, "fetch %s", mb.Email)
	}
	return out, nil
}

func (f *IMAPFetcher) criteria() *imap.SearchCriteria {
	now := time.Now
	if f.Now != nil {
		now = f.Now
	}

	since := imap.NewSearchCriteria()
	since.Since = now().Add(-f.Window)
	unseen := imap.NewSearchCriteria()
	unseen.WithoutFlags = []string{imap.SeenFlag}

	crit := imap.NewSearchCriteria()
	crit.Or = [][2]*imap.SearchCriteria{{since, unseen}}
	return crit
}

func (f *IMAPFetcher) connect(ctx context.Context, mb model.Mailbox) (*client.Client, error) {
	port := mb.IMAPPort
	if port == 0 {
		port = 993
	}
	addr := net.JoinHostPort(mb.IMAPHost, strconv.Itoa(port))
	dialer := &net.Dialer{Timeout: f.Timeout}

	var c *client.Client
	op := func() error {
		var err error
		c, err = client.DialWithDialerTLS(dialer, addr, nil)
		if err != nil {
			log.WithError(err).WithField("mailbox", mb.Email).Warn("imap dial failed")
			return err
		}
		c.Timeout = f.Timeout
		if err := c.Login(mb.Username, mb.Password); err != nil {
			c.Logout()
			return backoff.Permanent(errors.Wrapf(err, "imap login %s", mb.Email))
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), f.MaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, errors.Wrapf(err, "imap connect %s", addr)
	}
	return c, nil
}

func toInbound(msg *imap.Message, section *imap.BodySectionName) (model.InboundMessage, bool) {
	if msg == nil || msg.Envelope == nil {
		return model.InboundMessage{}, false
	}

	in := model.InboundMessage{
		MessageID: msg.Envelope.MessageId,
		Subject:   msg.Envelope.Subject,
	}
	if len(msg.Envelope.From) > 0 && msg.Envelope.From[0] != nil {
		in.FromAddress = msg.Envelope.From[0].Address()
	}

	if body := msg.GetBody(section); body != nil {
		text, err := PlainText(body)
		if err != nil {
			log.WithError(err).WithField("message_id", in.MessageID).Warn("could not parse message body")
		}
		in.RawBody = text
	}
	return in, true
}
