// Package reminder emails a summary of unsettled payments on a cron schedule.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/metrics"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/service"
)

// DueLister returns the unsettled payments of a month.
type DueLister interface {
	DuePayments(ctx context.Context, p models.Period) ([]service.DuePayment, error)
}

// Notifier delivers a reminder.
type Notifier interface {
	SendDueReminder(to string, p models.Period, due []service.DuePayment) error
}

// Job checks the current month and sends one reminder when anything is due.
type Job struct {
	due      DueLister
	notifier Notifier
	to       string
	log      *logrus.Logger
	now      func() time.Time
}

// NewJob creates a Job mailing to.
func NewJob(due DueLister, notifier Notifier, to string, log *logrus.Logger) *Job {
	return &Job{due: due, notifier: notifier, to: to, log: log, now: time.Now}
}

// Run performs one check. It reports whether an email was sent.
func (j *Job) Run(ctx context.Context) (bool, error) {
	p := models.PeriodOf(j.now())
	due, err := j.due.DuePayments(ctx, p)
	if err != nil {
		return false, fmt.Errorf("failed to list due payments for %s: %w", p, err)
	}
	if len(due) == 0 {
		j.log.WithField("period", p.String()).Debug("Nothing due, no reminder sent")
		return false, nil
	}
	if err := j.notifier.SendDueReminder(j.to, p, due); err != nil {
		return false, err
	}
	metrics.RemindersSent.Inc()
	j.log.WithFields(logrus.Fields{"period": p.String(), "due": len(due)}).Info("Payment reminder sent")
	return true, nil
}

// Scheduler runs a Job on a standard five-field cron spec.
type Scheduler struct {
	cron    *cron.Cron
	entryID cron.EntryID
	log     *logrus.Logger
}

// NewScheduler registers job under spec. Each run gets its own timeout.
func NewScheduler(spec string, job *Job, timeout time.Duration, log *logrus.Logger) (*Scheduler, error) {
	c := cron.New()
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := job.Run(ctx); err != nil {
			log.WithError(err).Error("Payment reminder failed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, entryID: id, log: log}, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Infof("Payment reminders scheduled, next run at %s", s.Next().Format(time.RFC3339))
}

// Next returns the next planned run, zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entryID).Next
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}
