package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/metrics"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/repository"
)

// SettleRequest pays one schedule entry from an account.
type SettleRequest struct {
	EntryID   int64
	Amount    decimal.Decimal // positive; stored on the ledger as an outflow
	Date      time.Time
	AccountID int64
	Receipt   *string
}

func (r SettleRequest) validate() error {
	if !r.Amount.IsPositive() {
		return apperr.NewValidation("amount", "must be positive")
	}
	if r.Date.IsZero() {
		return apperr.NewValidation("date", "is required")
	}
	if r.AccountID <= 0 {
		return apperr.NewValidation("account_id", "is required")
	}
	return nil
}

// Settle records a payment against a schedule entry: it creates the linked
// ledger transaction and refreshes the entry's settlement cache from every
// transaction linked to it. Both writes commit together or not at all.
func (s *Service) Settle(ctx context.Context, req SettleRequest) (*models.Settlement, error) {
	if err := req.validate(); err != nil {
		metrics.Settlements.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	req.Date = models.Day(req.Date)

	var out *models.Settlement
	err := s.inTx(ctx, "settle", func(tx *repository.Repository) error {
		var err error
		out, err = settle(ctx, tx, req)
		return err
	})

	fields := logrus.Fields{"entry_id": req.EntryID, "account_id": req.AccountID, "amount": req.Amount.String()}
	var dup *apperr.DuplicateError
	switch {
	case errors.As(err, &dup):
		metrics.Settlements.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		s.log.WithFields(fields).Warn("Schedule entry already has a payment")
		return nil, err
	case err != nil:
		metrics.Settlements.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.WithFields(fields).WithError(err).Error("Failed to settle schedule entry")
		return nil, err
	}

	metrics.Settlements.WithLabelValues(metrics.OutcomeOK).Inc()
	fields["transaction_id"] = out.Transaction.ID
	fields["status"] = out.Status
	s.log.WithFields(fields).Info("Schedule entry settled")
	return out, nil
}

func settle(ctx context.Context, repo *repository.Repository, req SettleRequest) (*models.Settlement, error) {
	entry, err := repo.GetEntry(ctx, req.EntryID)
	if err != nil {
		return nil, err
	}
	if _, err := repo.GetAccount(ctx, req.AccountID); err != nil {
		return nil, err
	}
	existing, err := repo.ListLinkedTransactions(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, &apperr.DuplicateError{
			ScheduleEntryID: entry.ID,
			Period:          entry.Period.String(),
			TransactionID:   existing[0].ID,
		}
	}

	parent, err := entry.Parent()
	if err != nil {
		return nil, err
	}
	o, err := obligation(ctx, repo, parent)
	if err != nil {
		return nil, err
	}

	entryID := entry.ID
	txn := models.Transaction{
		Name:            o.Label(),
		Date:            req.Date,
		Amount:          req.Amount.Neg(),
		AccountID:       req.AccountID,
		ScheduleEntryID: &entryID,
	}
	if err := repo.CreateTransaction(ctx, &txn); err != nil {
		var dup *apperr.DuplicateError
		if errors.As(err, &dup) {
			dup.Period = entry.Period.String()
		}
		return nil, err
	}

	linked, err := repo.ListLinkedTransactions(ctx, entry.ID)
	if err != nil {
		return nil, err
	}
	settled := sumLinked(linked)
	date := req.Date
	accountID := req.AccountID
	entry.SettledAmount = settled
	entry.SettledDate = &date
	entry.SettlementAccountID = &accountID
	entry.Receipt = req.Receipt
	if err := writeSettlement(ctx, repo, "settle", entry); err != nil {
		return nil, err
	}

	return &models.Settlement{Transaction: txn, Entry: *entry, Status: entry.Status()}, nil
}

// PayNextRequest pays the earliest outstanding month of an installment.
// Zero fields default to the installment's monthly payment, today and its
// funding account.
type PayNextRequest struct {
	InstallmentID int64
	Amount        decimal.Decimal
	Date          time.Time
	AccountID     int64
	Receipt       *string
}

// PayNextInstallment settles the earliest entry of an installment that has
// neither a linked transaction nor a recorded settlement.
func (s *Service) PayNextInstallment(ctx context.Context, req PayNextRequest) (*models.Settlement, error) {
	inst, err := s.repo.GetInstallment(ctx, req.InstallmentID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListEntries(ctx, inst.Parent())
	if err != nil {
		return nil, err
	}

	var next *models.ScheduleEntry
	for i := range entries {
		if entries[i].SettledAmount.IsPositive() {
			continue
		}
		linked, err := s.repo.ListLinkedTransactions(ctx, entries[i].ID)
		if err != nil {
			return nil, err
		}
		if len(linked) == 0 {
			next = &entries[i]
			break
		}
	}
	if next == nil {
		return nil, &apperr.NotFoundError{
			Entity: "outstanding schedule entry of " + inst.Parent().String(),
			Hint:   fmt.Sprintf("every month through %s is already paid", inst.EndPeriod()),
		}
	}

	settleReq := SettleRequest{
		EntryID:   next.ID,
		Amount:    req.Amount,
		Date:      req.Date,
		AccountID: req.AccountID,
		Receipt:   req.Receipt,
	}
	if settleReq.Amount.IsZero() {
		settleReq.Amount = next.ExpectedAmount
	}
	if settleReq.Date.IsZero() {
		settleReq.Date = s.today()
	}
	if settleReq.AccountID == 0 {
		settleReq.AccountID = inst.AccountID
	}
	return s.Settle(ctx, settleReq)
}

func sumLinked(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, t := range txns {
		total = total.Add(t.Magnitude())
	}
	return total
}
