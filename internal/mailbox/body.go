// internal/mailbox/body.go
package mailbox

import (
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var originalMessageBanner = regexp.MustCompile(`(?i)^-*\s*original message\s*-*$`)

// ExtractReplyText keeps the creator's own words and drops the quoted thread.
// Reading stops at the first quote marker, "wrote:" attribution, forwarded
// From: header or "Original Message" banner.
func ExtractReplyText(body string) string {
	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if strings.HasPrefix(t, ">") ||
			strings.Contains(t, "wrote:") ||
			(strings.HasPrefix(t, "From:") && strings.Contains(t, "@")) ||
			originalMessageBanner.MatchString(t) {
			break
		}
		out = append(out, strings.TrimRight(line, " \t"))
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

// NormalizeAddress turns `Name <Addr@Host>` into `addr@host`.
func NormalizeAddress(from string) string {
	from = strings.TrimSpace(from)
	if from == "" {
		return ""
	}
	if addr, err := gomail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.Index(from[i:], ">"); j > 0 {
			return strings.ToLower(strings.TrimSpace(from[i+1 : i+j]))
		}
	}
	return strings.ToLower(from)
}

// PlainText returns the text/plain part of a MIME message, falling back to the
// visible text of a text/html part.
func PlainText(r io.Reader) (string, error) {
	mr, err := gomail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return "", errors.Wrap(err, "read message")
	}
	defer mr.Close()

	var htmlText string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return "", errors.Wrap(err, "read part")
		}

		h, ok := p.Header.(*gomail.InlineHeader)
		if !ok {
			continue
		}
		ct, _, _ := h.ContentType()
		b, err := io.ReadAll(p.Body)
		if err != nil {
			return "", errors.Wrap(err, "read part body")
		}
		switch {
		case ct == "" || ct == "text/plain":
			return string(b), nil
		case ct == "text/html" && htmlText == "":
			htmlText = HTMLText(string(b))
		}
	}
	return htmlText, nil
}

// HTMLText flattens an HTML body to plain text. Entities are decoded, script
// and style content is dropped and block elements start a new line.
func HTMLText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(collapseBlankLines(b.String()))
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				skip++
			case atom.Br, atom.P, atom.Div, atom.Li, atom.Tr, atom.Blockquote:
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch atom.Lookup(name) {
			case atom.Script, atom.Style:
				if skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Li, atom.Tr:
				b.WriteByte('\n')
			}
		}
	}
}

func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.Join(out, "\n")
}
