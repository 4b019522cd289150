package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementStatus is derived from settled versus expected amount.
type SettlementStatus string

const (
	StatusPending SettlementStatus = "pending"
	StatusPartial SettlementStatus = "partial"
	StatusPaid    SettlementStatus = "paid"
)

// PaidTolerance absorbs rounding: one minor currency unit.
var PaidTolerance = decimal.New(1, -2)

// DeriveStatus applies the paid/partial/pending thresholds.
func DeriveStatus(settled, expected decimal.Decimal) SettlementStatus {
	switch {
	case settled.IsPositive() && settled.GreaterThanOrEqual(expected.Sub(PaidTolerance)):
		return StatusPaid
	case settled.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// StatusSource names the resolver tier that decided an entry's status.
type StatusSource string

const (
	SourceNone      StatusSource = ""
	SourceLinked    StatusSource = "linked"
	SourceManual    StatusSource = "manual"
	SourceHeuristic StatusSource = "heuristic"
)

// ResolvedStatus is the user-visible fulfillment of a schedule entry.
type ResolvedStatus struct {
	EntryID       int64           `json:"entry_id"`
	Settled       bool            `json:"settled"`
	Amount        decimal.Decimal `json:"amount"`
	Source        StatusSource    `json:"source,omitempty"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
}

// EntryView pairs an entry with its resolved and derived status for listings.
type EntryView struct {
	ScheduleEntry
	Status   SettlementStatus `json:"status"`
	Resolved ResolvedStatus   `json:"resolved"`
}

// CycleTotal is one billing cycle of a revolving-credit account.
type CycleTotal struct {
	CycleStart time.Time       `json:"cycle_start"`
	CycleEnd   time.Time       `json:"cycle_end"`
	Total      decimal.Decimal `json:"total"`
	Due        Period          `json:"due"`
}
