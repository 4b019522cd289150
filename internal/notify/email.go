package notify

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/service"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{cfg: cfg, logger: logger}
	s.send = s.smtpSend
	return s
}

// SendDueReminder emails the list of payments still outstanding in period p.
func (s *Sender) SendDueReminder(to string, p models.Period, due []service.DuePayment) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Payments due for %s", p)
	e.Text = []byte(reminderBody(p, due))

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

func (s *Sender) smtpSend(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}

func reminderBody(p models.Period, due []service.DuePayment) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The following payments for %s are not settled yet:\n\n", p)
	for _, d := range due {
		half := "first half"
		if d.Timing == models.TimingSecondHalf {
			half = "second half"
		}
		fmt.Fprintf(&b, "  - %s: %s (%s of the month)\n", d.Name, d.Expected.StringFixed(2), half)
	}
	b.WriteString("\nSettle them once paid so the schedule stays accurate.\n\nBills Service")
	return b.String()
}
