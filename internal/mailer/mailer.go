package mailer

import (
	"context"

	"github.com/charmbracelet/log"
)

// Mailer delivers outbound email. Delivery is an external concern; the
// data layer only ever sees this boundary.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogMailer writes mail to the service log instead of sending it. It is
// the default backend and the one used in development and tests.
type LogMailer struct {
	From string
}

func (m LogMailer) Send(ctx context.Context, to, subject, body string) error {
	log.Info("Outbound mail", "from", m.From, "to", to, "subject", subject, "body", body)
	return nil
}

var _ Mailer = LogMailer{}
