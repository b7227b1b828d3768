package deadletter

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"claims_backend/internal/events"
	"claims_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// Alert is the mail content for one dead-lettered claim.
type Alert struct {
	Subject string
	Body    string
}

// NewAlert renders the operator alert for e.
func NewAlert(e events.ClaimDeadLettered) Alert {
	var b strings.Builder
	fmt.Fprintf(&b, "Claim %s was moved to the dead letter queue.\n\n", e.ClaimID)
	fmt.Fprintf(&b, "Reason:   %s\n", e.Reason)
	fmt.Fprintf(&b, "Attempts: %d of %d\n", e.Attempts, e.MaxAttempts)
	fmt.Fprintf(&b, "Failed at: %s\n", e.OccurredAt().UTC().Format(time.RFC3339))
	b.WriteString("\nThe claim is marked FAILED and will not be retried automatically.\n")
	b.WriteString("Use `claimsctl reset-retries` and `claimsctl requeue` to process it again.\n")

	return Alert{
		Subject: fmt.Sprintf("[claims] dead letter: %s (%s)", e.ClaimID, e.Reason),
		Body:    b.String(),
	}
}

// Mailer delivers a plain text alert.
type Mailer interface {
	Send(ctx context.Context, to string, alert Alert) error
}

// SMTPMailer implements Mailer with a direct SMTP connection via go-mail.
type SMTPMailer struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPMailer creates an SMTPMailer from configuration.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to string, alert Alert) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.fromName, m.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(alert.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, alert.Body)

	opts := []gomail.Option{
		gomail.WithPort(m.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if m.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.username),
			gomail.WithPassword(m.password),
		)
	}

	client, err := gomail.NewClient(m.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// Notifier mails an alert per dead-lettered claim.
type Notifier struct {
	mailer Mailer
	to     string
}

// NewNotifier creates the alert sink.
func NewNotifier(mailer Mailer, to string) *Notifier {
	return &Notifier{mailer: mailer, to: to}
}

// Notify sends the alert for e.
func (n *Notifier) Notify(ctx context.Context, e events.ClaimDeadLettered) error {
	return n.mailer.Send(ctx, n.to, NewAlert(e))
}
