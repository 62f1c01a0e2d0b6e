// internal/mailbox/smtp.go
package mailbox

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	gomail "github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/unclebandit/creator-negotiator/internal/model"
)

type SMTPSender struct {
	Timeout    time.Duration
	MaxRetries uint64
	Now        func() time.Time
}

var _ Sender = (*SMTPSender)(nil)

func NewSMTPSender(timeout time.Duration) *SMTPSender {
	return &SMTPSender{Timeout: timeout, MaxRetries: 2, Now: time.Now}
}

// Send delivers one plain-text message. Only connection failures are retried;
// once the server has seen MAIL FROM a failure is final so a message is never
// delivered twice.
func (s *SMTPSender) Send(ctx context.Context, mb model.Mailbox, to, subject, body string) error {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	msg, err := ComposeMessage(mb, to, subject, body, now())
	if err != nil {
		return err
	}

	op := func() error { return s.deliver(ctx, mb, to, msg) }
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), s.MaxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return errors.Wrapf(err, "send to %s via %s", to, mb.Email)
	}
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, mb model.Mailbox, to string, msg []byte) error {
	port := mb.SMTPPort
	if port == 0 {
		port = 587
	}
	addr := net.JoinHostPort(mb.SMTPHost, strconv.Itoa(port))

	dialer := &net.Dialer{Timeout: s.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		log.WithError(err).WithField("mailbox", mb.Email).Warn("smtp dial failed")
		return err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	} else if s.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.Timeout))
	}

	tlsConfig := &tls.Config{ServerName: mb.SMTPHost}
	if port == 465 {
		conn = tls.Client(conn, tlsConfig)
	}

	c := smtp.NewClient(conn)
	defer c.Close()
	if s.Timeout > 0 {
		c.CommandTimeout = s.Timeout
		c.SubmissionTimeout = s.Timeout
	}

	if err := c.Hello("localhost"); err != nil {
		return errors.Wrap(err, "EHLO")
	}
	if port != 465 {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(tlsConfig); err != nil {
				return backoff.Permanent(errors.Wrap(err, "starttls"))
			}
		}
	}
	if mb.Username != "" {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(sasl.NewPlainClient("", mb.Username, mb.Password)); err != nil {
				return backoff.Permanent(errors.Wrap(err, "smtp auth"))
			}
		}
	}

	if err := c.Mail(mb.Email, nil); err != nil {
		return backoff.Permanent(errors.Wrap(err, "MAIL FROM"))
	}
	if err := c.Rcpt(to, nil); err != nil {
		return backoff.Permanent(errors.Wrap(err, "RCPT TO"))
	}
	w, err := c.Data()
	if err != nil {
		return backoff.Permanent(errors.Wrap(err, "DATA"))
	}
	if _, err := w.Write(msg); err != nil {
		return backoff.Permanent(errors.Wrap(err, "write body"))
	}
	if err := w.Close(); err != nil {
		return backoff.Permanent(errors.Wrap(err, "close body"))
	}
	_ = c.Quit()
	return nil
}

// ComposeMessage renders a single-part text/plain RFC 5322 message.
func ComposeMessage(mb model.Mailbox, to, subject, body string, now time.Time) ([]byte, error) {
	var h gomail.Header
	h.SetDate(now)
	h.SetAddressList("From", []*gomail.Address{{Name: mb.DisplayName, Address: mb.Email}})
	h.SetAddressList("To", []*gomail.Address{{Address: to}})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, errors.Wrap(err, "generate message id")
	}

	var buf bytes.Buffer
	w, err := gomail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, errors.Wrap(err, "create message writer")
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, errors.Wrap(err, "write message body")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "close message writer")
	}
	return buf.Bytes(), nil
}
