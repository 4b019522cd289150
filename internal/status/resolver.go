// Package status resolves whether a schedule entry has been settled.
//
// Resolution is a strict precedence computed on read:
//
//  1. linked: a ledger transaction references the entry;
//  2. manual: the entry's cached settled amount is positive but nothing links
//     to it (rows written before direct linkage existed);
//  3. heuristic: an unlinked transaction looks like the payment.
//
// Tiers 2 and 3 are legacy paths and are never consulted once tier 1 holds.
package status

import (
	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/models"
)

// Options tunes the legacy heuristic tier.
type Options struct {
	// DecemberGrace lets a transaction dated December of the prior year
	// satisfy a January entry. Applies to no other month boundary.
	DecemberGrace bool
}

// Resolver computes ResolvedStatus values. It holds no state besides options.
type Resolver struct {
	opts Options
}

// NewResolver creates a Resolver.
func NewResolver(opts Options) *Resolver {
	return &Resolver{opts: opts}
}

// Resolve decides the status of entry for the obligation named name. txns
// should hold every transaction linked to the entry plus the unlinked
// transactions of the obligation's funding account.
func (r *Resolver) Resolve(entry models.ScheduleEntry, name string, txns []models.Transaction) models.ResolvedStatus {
	res := models.ResolvedStatus{EntryID: entry.ID, Amount: decimal.Zero}

	if linked := LinkedTo(entry.ID, txns); len(linked) > 0 {
		id := linked[0].ID
		res.Settled = true
		res.Source = models.SourceLinked
		res.Amount = sumMagnitudes(linked)
		res.TransactionID = &id
		return res
	}

	if entry.SettledAmount.IsPositive() {
		res.Settled = true
		res.Source = models.SourceManual
		res.Amount = entry.SettledAmount
		return res
	}

	if tx, ok := r.HeuristicMatch(entry, name, txns); ok {
		id := tx.ID
		res.Settled = true
		res.Source = models.SourceHeuristic
		res.Amount = tx.Magnitude()
		res.TransactionID = &id
	}
	return res
}

// IsSettled reports whether entry resolves as settled.
func (r *Resolver) IsSettled(entry models.ScheduleEntry, name string, txns []models.Transaction) bool {
	return r.Resolve(entry, name, txns).Settled
}

// DisplayAmount returns the amount to show as paid against entry, zero when unsettled.
func (r *Resolver) DisplayAmount(entry models.ScheduleEntry, name string, txns []models.Transaction) decimal.Decimal {
	return r.Resolve(entry, name, txns).Amount
}

// LinkedTo returns the transactions referencing entryID, in input order.
func LinkedTo(entryID int64, txns []models.Transaction) []models.Transaction {
	var out []models.Transaction
	for _, tx := range txns {
		if tx.ScheduleEntryID != nil && *tx.ScheduleEntryID == entryID {
			out = append(out, tx)
		}
	}
	return out
}

func sumMagnitudes(txns []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range txns {
		total = total.Add(tx.Magnitude())
	}
	return total
}
