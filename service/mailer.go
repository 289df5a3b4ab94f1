package service

import (
	"fmt"

	mail "github.com/go-mail/mail/v2"
)

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	dialer *mail.Dialer
	from   string
}

func NewMailer(host string, port int, username, password, from string) *Mailer {
	d := mail.NewDialer(host, port, username, password)
	d.StartTLSPolicy = mail.OpportunisticStartTLS
	return &Mailer{dialer: d, from: from}
}

// SendPasswordReset mails the raw reset token to the user. Only the token's
// hash is stored server-side, so this mail is the sole copy of the token.
func (m *Mailer) SendPasswordReset(to, resetURL string) error {
	msg := mail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", "Your password reset token (valid for 10 minutes)")
	msg.SetBody("text/plain", fmt.Sprintf(
		"Forgot your password? Submit a PATCH request with your new password to:\n\n%s\n\nIf you didn't forget your password, please ignore this email.",
		resetURL,
	))
	return m.dialer.DialAndSend(msg)
}
