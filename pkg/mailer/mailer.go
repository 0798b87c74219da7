package mailer

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/communitycompass/compass/config"
)

// Mailer sends operational notifications over SMTP. It is a no-op when SMTP
// is not configured so local setups work without a mail relay.
type Mailer struct {
	cfg config.SmtpConfig
}

func New(cfg config.SmtpConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// SendWelcome notifies a newly created provider account of its credentials
// contact address.
func (m *Mailer) SendWelcome(email, organizationName string) error {
	subject := "Your Community Compass provider account"
	body := fmt.Sprintf(
		"Hello %s,\r\n\r\nA provider account was created for %s on Community Compass. "+
			"You can now sign in and list your services.\r\n", organizationName, email)
	return m.send(email, subject, body)
}

func (m *Mailer) send(to, subject, body string) error {
	if !m.cfg.Enable {
		zap.L().Debug("smtp disabled, skipping mail", zap.String("to", to), zap.String("subject", subject))
		return nil
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		zap.L().Error("failed to send mail", zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}
