package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/metrics"
	"github.com/Dan9191/bills-service/internal/models"
)

// ResolveStatus decides whether a schedule entry is settled and by what.
func (s *Service) ResolveStatus(ctx context.Context, entryID int64) (*models.ResolvedStatus, error) {
	entry, err := s.repo.GetEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	parent, err := entry.Parent()
	if err != nil {
		return nil, err
	}
	o, err := obligation(ctx, s.repo, parent)
	if err != nil {
		return nil, err
	}
	candidates, err := s.candidates(ctx, o, entry.Period, entry.Period)
	if err != nil {
		return nil, err
	}
	linked, err := s.repo.ListLinkedTransactions(ctx, entry.ID)
	if err != nil {
		return nil, err
	}

	res := s.resolver.Resolve(*entry, o.Label(), append(linked, candidates...))
	metrics.Resolutions.WithLabelValues(metrics.SourceLabel(string(res.Source))).Inc()
	return &res, nil
}

// ListSchedule returns every entry of an obligation with its resolved status.
func (s *Service) ListSchedule(ctx context.Context, parent models.ParentRef) ([]models.EntryView, error) {
	o, err := obligation(ctx, s.repo, parent)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, parent)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []models.EntryView{}, nil
	}
	candidates, err := s.candidates(ctx, o, entries[0].Period, entries[len(entries)-1].Period)
	if err != nil {
		return nil, err
	}

	views := make([]models.EntryView, 0, len(entries))
	for _, e := range entries {
		linked, err := s.repo.ListLinkedTransactions(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		res := s.resolver.Resolve(e, o.Label(), append(linked, candidates...))
		metrics.Resolutions.WithLabelValues(metrics.SourceLabel(string(res.Source))).Inc()
		views = append(views, models.EntryView{
			ScheduleEntry: e,
			Status:        models.DeriveStatus(res.Amount, e.ExpectedAmount),
			Resolved:      res,
		})
	}
	return views, nil
}

// candidates returns the unlinked transactions of o's funding account that
// could match an entry between from and to. The range starts one month early
// so December payments reach January entries.
func (s *Service) candidates(ctx context.Context, o models.Obligation, from, to models.Period) ([]models.Transaction, error) {
	dr := models.DateRange{
		From: from.AddMonths(-1).FirstDay(),
		To:   to.AddMonths(1).FirstDay().AddDate(0, 0, -1),
	}
	txns, err := s.repo.ListTransactions(ctx, o.FundingAccount(), dr)
	if err != nil {
		return nil, err
	}
	out := txns[:0]
	for _, t := range txns {
		if !t.Linked() {
			out = append(out, t)
		}
	}
	return out, nil
}

// DuePayment is an unsettled entry of an active obligation.
type DuePayment struct {
	Parent   models.ParentRef `json:"parent"`
	Name     string           `json:"name"`
	EntryID  int64            `json:"entry_id"`
	Period   models.Period    `json:"period"`
	Expected decimal.Decimal  `json:"expected_amount"`
	Timing   models.Timing    `json:"timing"`
}

// DuePayments lists the entries of period p that still resolve as unsettled.
// Inactive obligations and billers outside their activation range are skipped.
func (s *Service) DuePayments(ctx context.Context, p models.Period) ([]DuePayment, error) {
	entries, err := s.repo.ListEntriesForPeriod(ctx, p)
	if err != nil {
		return nil, err
	}

	var due []DuePayment
	for _, e := range entries {
		parent, err := e.Parent()
		if err != nil {
			return nil, err
		}
		o, err := obligation(ctx, s.repo, parent)
		if err != nil {
			return nil, err
		}
		var timing models.Timing
		switch v := o.(type) {
		case *models.Biller:
			if !v.ActiveIn(p) {
				continue
			}
			timing = v.Timing
		case *models.Installment:
			if !v.Active {
				continue
			}
			timing = v.Timing
		}

		candidates, err := s.candidates(ctx, o, p, p)
		if err != nil {
			return nil, err
		}
		linked, err := s.repo.ListLinkedTransactions(ctx, e.ID)
		if err != nil {
			return nil, err
		}
		if s.resolver.IsSettled(e, o.Label(), append(linked, candidates...)) {
			continue
		}
		due = append(due, DuePayment{
			Parent:   parent,
			Name:     o.Label(),
			EntryID:  e.ID,
			Period:   p,
			Expected: e.ExpectedAmount,
			Timing:   timing,
		})
	}
	return due, nil
}
