package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/metrics"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/repository"
)

// reverse subtracts txn from its entry's settled amount. The settlement date,
// account and receipt are cleared only once nothing remains settled. It only
// runs inside DeleteSettledTransaction so a reversal is never committed apart
// from its deletion. An unlinked txn is a no-op with a nil entry.
func (s *Service) reverse(ctx context.Context, repo *repository.Repository, txn *models.Transaction) (*models.ScheduleEntry, error) {
	fields := logrus.Fields{"transaction_id": txn.ID}
	if !txn.Linked() {
		metrics.Reversals.WithLabelValues(metrics.OutcomeNoop).Inc()
		return nil, nil
	}
	fields["entry_id"] = *txn.ScheduleEntryID

	entry, err := repo.GetEntry(ctx, *txn.ScheduleEntryID)
	if err != nil {
		metrics.Reversals.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.WithFields(fields).WithError(err).Error("Failed to load schedule entry for reversal")
		return nil, err
	}

	settled := entry.SettledAmount.Sub(txn.Magnitude())
	if settled.IsNegative() {
		settled = decimal.Zero
	}
	if settled.IsZero() {
		entry.ClearSettlement()
	} else {
		entry.SettledAmount = settled
	}

	if err := writeSettlement(ctx, repo, "reverse", entry); err != nil {
		metrics.Reversals.WithLabelValues(metrics.OutcomeError).Inc()
		s.log.WithFields(fields).WithError(err).Error("Failed to reverse settlement")
		return nil, err
	}
	metrics.Reversals.WithLabelValues(metrics.OutcomeOK).Inc()
	fields["settled_amount"] = entry.SettledAmount.String()
	fields["status"] = entry.Status()
	s.log.WithFields(fields).Info("Settlement reversed")
	return entry, nil
}

// DeleteSettledTransaction deletes a ledger transaction. A linked one is
// reversed first, in the same database transaction; if the reversal fails the
// transaction is kept.
func (s *Service) DeleteSettledTransaction(ctx context.Context, transactionID int64) error {
	err := s.inTx(ctx, "delete transaction", func(tx *repository.Repository) error {
		txn, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if _, err := s.reverse(ctx, tx, txn); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, transactionID)
	})
	if err != nil {
		s.log.WithField("transaction_id", transactionID).WithError(err).Error("Failed to delete transaction")
		return err
	}
	s.log.WithField("transaction_id", transactionID).Info("Transaction deleted")
	return nil
}

// UpdateTransaction amends a transaction. When it settles a schedule entry,
// the entry's settled amount is recomputed from its linked transactions.
func (s *Service) UpdateTransaction(ctx context.Context, transactionID int64, patch models.TransactionPatch) (*models.Transaction, error) {
	var txn *models.Transaction
	err := s.inTx(ctx, "update transaction", func(tx *repository.Repository) error {
		var err error
		if txn, err = tx.GetTransaction(ctx, transactionID); err != nil {
			return err
		}
		if err := applyPatch(txn, patch); err != nil {
			return err
		}
		if err := tx.UpdateTransaction(ctx, txn); err != nil {
			return err
		}
		if !txn.Linked() {
			return nil
		}

		entry, err := tx.GetEntry(ctx, *txn.ScheduleEntryID)
		if err != nil {
			return err
		}
		linked, err := tx.ListLinkedTransactions(ctx, entry.ID)
		if err != nil {
			return err
		}
		entry.SettledAmount = sumLinked(linked)
		if patch.Date != nil {
			d := txn.Date
			entry.SettledDate = &d
		}
		return writeSettlement(ctx, tx, "update transaction", entry)
	})
	if err != nil {
		s.log.WithField("transaction_id", transactionID).WithError(err).Error("Failed to update transaction")
		return nil, err
	}
	s.log.WithField("transaction_id", transactionID).Info("Transaction updated")
	return txn, nil
}

func applyPatch(txn *models.Transaction, patch models.TransactionPatch) error {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return apperr.NewValidation("name", "must not be empty")
		}
		txn.Name = name
	}
	if patch.Date != nil {
		if patch.Date.IsZero() {
			return apperr.NewValidation("date", "must not be empty")
		}
		txn.Date = models.Day(*patch.Date)
	}
	if patch.Amount != nil {
		if patch.Amount.IsZero() {
			return apperr.NewValidation("amount", "must not be zero")
		}
		if txn.Linked() && patch.Amount.IsPositive() {
			return apperr.NewValidation("amount", "a payment must stay an outflow")
		}
		txn.Amount = *patch.Amount
	}
	return nil
}
