package notify

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/service"
)

func newTestSender(send func(e *email.Email) error) *Sender {
	cfg := config.Defaults()
	cfg.SenderEmail = "bills@example.com"
	log := logrus.New()
	log.SetOutput(io.Discard)
	s := NewSender(cfg, log)
	s.send = send
	return s
}

func TestSendDueReminder(t *testing.T) {
	var sent *email.Email
	s := newTestSender(func(e *email.Email) error {
		sent = e
		return nil
	})

	p := models.NewPeriod(time.March, 2026)
	due := []service.DuePayment{
		{Name: "Electric", Expected: decimal.NewFromInt(1500), Timing: models.TimingFirstHalf},
		{Name: "Laptop", Expected: decimal.RequireFromString("3000.5"), Timing: models.TimingSecondHalf},
	}
	require.NoError(t, s.SendDueReminder("me@example.com", p, due))

	require.NotNil(t, sent)
	assert.Equal(t, "bills@example.com", sent.From)
	assert.Equal(t, []string{"me@example.com"}, sent.To)
	assert.Equal(t, "Payments due for March 2026", sent.Subject)
	body := string(sent.Text)
	assert.Contains(t, body, "Electric: 1500.00 (first half of the month)")
	assert.Contains(t, body, "Laptop: 3000.50 (second half of the month)")
}

func TestSendDueReminder_Failure(t *testing.T) {
	s := newTestSender(func(e *email.Email) error { return errors.New("connection refused") })
	err := s.SendDueReminder("me@example.com", models.NewPeriod(time.March, 2026), nil)
	assert.ErrorContains(t, err, "connection refused")
}
