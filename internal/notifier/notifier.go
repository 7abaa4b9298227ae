package notifier

import (
	"fmt"
	"net/smtp"
	"time"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"

	"github.com/creatorly/affiliates/cmd/config"
	"github.com/creatorly/affiliates/internal/logger"
)

// Sender delivers affiliate-facing mail. Delivery is best-effort:
// callers log failures and move on, a lost mail never fails a request.
type Sender interface {
	Send(to string, subject string, body string) error
}

type smtpSender struct {
	addr string
	auth smtp.Auth
	from string
}

type noopSender struct{}

func (noopSender) Send(string, string, string) error { return nil }

// Default is the process-wide sender, replaced by Init once config is
// parsed.
var Default Sender = noopSender{}

func Init() {
	Default = New()
}

// New returns an SMTP sender, or a no-op one when SMTP is not
// configured so local setups work without a mail server.
func New() Sender {
	if config.SMTPHost == "" || config.SMTPPort == "" || config.MailFrom == "" {
		logger.Log.Info("SMTP is not configured, payout emails disabled")
		return noopSender{}
	}

	return &smtpSender{
		addr: fmt.Sprintf("%s:%s", config.SMTPHost, config.SMTPPort),
		auth: smtp.PlainAuth("", config.SMTPUser, config.SMTPPassword, config.SMTPHost),
		from: config.MailFrom,
	}
}

func (s *smtpSender) Send(to string, subject string, body string) error {
	e := email.NewEmail()
	e.From = s.from
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body)

	var err error
	delay := time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		err = e.Send(s.addr, s.auth)
		if err == nil {
			return nil
		}
		if attempt < 3 {
			logger.Log.Warn("Failed to send email, retrying",
				zap.Int("attempt", attempt), zap.Error(err))
			time.Sleep(delay)
			delay *= 2
		}
	}

	return err
}

// PayoutRequested mails the affiliate a confirmation of a new payout
// request.
func PayoutRequested(to string, amount float64) {
	body := fmt.Sprintf(
		"Hi!\n\nWe received your payout request for $%.2f.\nYou will get another email once it has been processed.\n\nThe Creatorly team",
		amount,
	)

	if err := Default.Send(to, "Your payout request was received", body); err != nil {
		logger.Log.Error("Failed to send payout email", zap.String("to", to), zap.Error(err))
	}
}
