package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/cycle"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/repository"
	"github.com/Dan9191/bills-service/internal/status"
)

// CycleReport holds the recent billing cycles of a biller's credit account.
// When the biller has no credit account with a billing day, Applicable is
// false and callers should use Fallback, the biller's static amount.
type CycleReport struct {
	BillerID   int64               `json:"biller_id"`
	AccountID  *int64              `json:"account_id,omitempty"`
	Applicable bool                `json:"applicable"`
	Fallback   decimal.Decimal     `json:"fallback_amount"`
	Cycles     []models.CycleTotal `json:"cycles"`
}

// ComputeCreditCycles totals the n most recent billing cycles of the credit
// account linked to a biller, oldest first. Payments towards installments
// carried on the same account are left out.
func (s *Service) ComputeCreditCycles(ctx context.Context, billerID int64, n int) (*CycleReport, error) {
	return s.computeCycles(ctx, s.repo, billerID, n)
}

func (s *Service) computeCycles(ctx context.Context, repo *repository.Repository, billerID int64, n int) (*CycleReport, error) {
	if n <= 0 {
		return nil, apperr.NewValidation("cycles", "must be positive, got %d", n)
	}
	b, err := repo.GetBiller(ctx, billerID)
	if err != nil {
		return nil, err
	}
	report := &CycleReport{BillerID: b.ID, AccountID: b.CreditAccountID, Fallback: b.Amount, Cycles: []models.CycleTotal{}}
	if b.CreditAccountID == nil {
		return report, nil
	}
	acct, err := repo.GetAccount(ctx, *b.CreditAccountID)
	if err != nil {
		return nil, err
	}
	if !acct.HasBillingCycle() {
		return report, nil
	}

	windows, err := cycle.Recent(*acct.BillingDay, n, s.now())
	if err != nil {
		return nil, err
	}
	txns, err := repo.ListTransactions(ctx, acct.ID, models.DateRange{From: windows[0].Start, To: windows[len(windows)-1].End})
	if err != nil {
		return nil, err
	}
	excluded, err := installmentFilter(ctx, repo, acct.ID)
	if err != nil {
		return nil, err
	}

	report.Applicable = true
	report.Cycles = cycle.Totals(windows, txns, excluded)
	return report, nil
}

// installmentFilter reports transactions attributable to an installment paid
// from accountID: linked to one of its entries, or named like it.
func installmentFilter(ctx context.Context, repo *repository.Repository, accountID int64) (func(models.Transaction) bool, error) {
	installments, err := repo.ListInstallments(ctx, &accountID)
	if err != nil {
		return nil, err
	}
	entryIDs := make(map[int64]struct{})
	for i := range installments {
		entries, err := repo.ListEntries(ctx, installments[i].Parent())
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			entryIDs[e.ID] = struct{}{}
		}
	}
	return func(t models.Transaction) bool {
		if t.ScheduleEntryID != nil {
			if _, ok := entryIDs[*t.ScheduleEntryID]; ok {
				return true
			}
		}
		for _, inst := range installments {
			if status.NamesOverlap(t.Name, inst.Name) {
				return true
			}
		}
		return false
	}, nil
}

// ApplyCreditCycles computes the recent cycles of a biller and writes each
// total into the expected amount of the entry due that month, if the entry
// exists and carries no settlement. Returns the report and the number of
// entries updated.
func (s *Service) ApplyCreditCycles(ctx context.Context, billerID int64, n int) (*CycleReport, int, error) {
	var (
		report  *CycleReport
		updated int
	)
	err := s.inTx(ctx, "apply credit cycles", func(tx *repository.Repository) error {
		var err error
		if report, err = s.computeCycles(ctx, tx, billerID, n); err != nil {
			return err
		}
		if !report.Applicable {
			return nil
		}
		parent := models.ParentRef{Kind: models.KindBiller, ID: billerID}
		for _, c := range report.Cycles {
			entry, err := tx.FindEntry(ctx, parent, c.Due)
			var nf *apperr.NotFoundError
			if errors.As(err, &nf) {
				continue
			}
			if err != nil {
				return err
			}
			if entry.SettledAmount.IsPositive() {
				continue
			}
			linked, err := tx.ListLinkedTransactions(ctx, entry.ID)
			if err != nil {
				return err
			}
			if len(linked) > 0 || entry.ExpectedAmount.Equal(c.Total) {
				continue
			}
			if err := tx.UpdateExpectedAmount(ctx, entry.ID, c.Total); err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	s.log.WithFields(logrus.Fields{"biller_id": billerID, "cycles": len(report.Cycles), "updated": updated}).
		Info("Credit cycles applied")
	return report, updated, nil
}
