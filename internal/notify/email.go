package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/avelane/seowatch/internal/monitoring"
)

// sendMailFunc matches smtp.SendMail, injectable for tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel delivers alerts over plain SMTP.
type EmailChannel struct {
	addr       string
	from       string
	recipients []string
	send       sendMailFunc
}

// NewEmailChannel creates an email channel. addr is the SMTP host:port.
func NewEmailChannel(addr, from string, recipients []string) *EmailChannel {
	return &EmailChannel{
		addr:       addr,
		from:       from,
		recipients: recipients,
		send:       smtp.SendMail,
	}
}

// Name implements monitoring.Channel.
func (e *EmailChannel) Name() string {
	return "email"
}

// Send composes a plain-text message and hands it to the SMTP server.
// smtp.SendMail has no context support, so cancellation is checked
// before dialing only.
func (e *EmailChannel) Send(ctx context.Context, alert monitoring.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(e.recipients) == 0 {
		return fmt.Errorf("no recipients configured")
	}

	msg := buildMessage(e.from, e.recipients, alert)
	if err := e.send(e.addr, nil, e.from, e.recipients, msg); err != nil {
		return fmt.Errorf("smtp delivery failed: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, alert monitoring.Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: [%s] %s alert\r\n", strings.ToUpper(string(alert.Severity)), alert.Type)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "%s\r\n\r\n", alert.Message)
	fmt.Fprintf(&b, "Alert ID: %s\r\n", alert.ID)
	fmt.Fprintf(&b, "Raised at: %s\r\n", alert.Timestamp.Format("2006-01-02 15:04:05 MST"))
	for key, value := range alert.Details {
		fmt.Fprintf(&b, "%s: %v\r\n", key, value)
	}
	return []byte(b.String())
}
