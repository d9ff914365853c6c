// Package mail delivers contact emails through shoutrrr.
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	stdlog "log"
	"net/mail"
	"strings"
	"time"

	"github.com/dfryer1193/mailmanifest/contact/domain"
	"github.com/google/uuid"
	"github.com/nicholas-fedor/shoutrrr"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/rs/zerolog/log"
)

const defaultSendTimeout = 10 * time.Second

// sender is the part of shoutrrr's router the mailer uses
type sender interface {
	Send(message string, params *stypes.Params) []error
}

var (
	_ domain.Mailer = (*ShoutrrrMailer)(nil)
	_ domain.Mailer = (*LogMailer)(nil)
)

// ShoutrrrMailer sends through a shoutrrr smtp:// URL. Sender, recipients and subject
// are passed per message as service params. shoutrrr has no reply-to setting, so the
// reply address is written into the body. One body is sent: plain text, or the HTML
// rendering when useHTML is set.
type ShoutrrrMailer struct {
	sender  sender
	from    string
	domain  string
	useHTML bool
}

func NewShoutrrrMailer(url, from string, useHTML bool) (*ShoutrrrMailer, error) {
	if url == "" {
		return nil, errors.New("mail url cannot be empty")
	}
	addr, err := senderAddress(from)
	if err != nil {
		return nil, err
	}
	domainPart, err := senderDomain(from)
	if err != nil {
		return nil, err
	}

	router, err := shoutrrr.CreateSender(url)
	if err != nil {
		// the url carries smtp credentials, keep it out of the error
		return nil, errors.New("failed to create mail sender: invalid mail url")
	}
	router.Timeout = defaultSendTimeout
	router.SetLogger(stdlog.New(io.Discard, "", 0))

	return &ShoutrrrMailer{sender: router, from: addr, domain: domainPart, useHTML: useHTML}, nil
}

func (m *ShoutrrrMailer) Send(ctx context.Context, email domain.Email) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(email.To) == 0 {
		return "", errors.New("email has no recipients")
	}

	params := stypes.Params{
		"fromaddress": m.from,
		"toaddresses": strings.Join(email.To, ","),
	}
	params.SetTitle(email.Subject)

	body := withReplyToText(email.Text, email.ReplyTo)
	if m.useHTML && email.HTML != "" {
		params["usehtml"] = "yes"
		body = withReplyToHTML(email.HTML, email.ReplyTo)
	}

	for _, err := range m.sender.Send(body, &params) {
		if err != nil {
			return "", fmt.Errorf("failed to send %q: %w", email.Subject, err)
		}
	}

	return newMessageID(m.domain), nil
}

func withReplyToText(body, replyTo string) string {
	if replyTo == "" {
		return body
	}
	return "Reply-To: " + replyTo + "\n\n" + body
}

func withReplyToHTML(body, replyTo string) string {
	if replyTo == "" {
		return body
	}
	escaped := html.EscapeString(replyTo)
	line := `<p>Reply-To: <a href="mailto:` + escaped + `">` + escaped + "</a></p>\n"
	if i := strings.Index(body, "<body>"); i >= 0 {
		i += len("<body>")
		return body[:i] + "\n" + line + body[i:]
	}
	return line + body
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	domain string
}

func NewLogMailer(from string) *LogMailer {
	d, err := senderDomain(from)
	if err != nil {
		d = "localhost"
	}
	return &LogMailer{domain: d}
}

func (m *LogMailer) Send(ctx context.Context, email domain.Email) (string, error) {
	id := newMessageID(m.domain)
	log.Info().
		Str("message_id", id).
		Strs("to", email.To).
		Str("reply_to", email.ReplyTo).
		Str("subject", email.Subject).
		Msg("Mail transport not configured; email logged instead of sent")
	log.Debug().Str("message_id", id).Str("body", email.Text).Msg("Email body")
	return id, nil
}

func senderAddress(from string) (string, error) {
	addr, err := mail.ParseAddress(from)
	if err != nil {
		return "", fmt.Errorf("invalid sender address %q: %w", from, err)
	}
	return addr.Address, nil
}

func senderDomain(from string) (string, error) {
	addr, err := senderAddress(from)
	if err != nil {
		return "", err
	}
	_, d, ok := strings.Cut(addr, "@")
	if !ok || d == "" {
		return "", fmt.Errorf("invalid sender address %q", from)
	}
	return d, nil
}

func newMessageID(domain string) string {
	return "<" + uuid.NewString() + "@" + domain + ">"
}
