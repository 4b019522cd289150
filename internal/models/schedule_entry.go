package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ScheduleEntry is one calendar-month slot of an obligation's payment plan.
// Exactly one of BillerID and InstallmentID is set.
type ScheduleEntry struct {
	ID             int64           `json:"id"`
	BillerID       *int64          `json:"biller_id,omitempty"`
	InstallmentID  *int64          `json:"installment_id,omitempty"`
	Period         Period          `json:"period"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`

	// Display cache maintained by settlement and reversal. Status is derived
	// from linked transactions, not from these fields.
	SettledAmount       decimal.Decimal `json:"settled_amount"`
	SettledDate         *time.Time      `json:"settled_date,omitempty"`
	SettlementAccountID *int64          `json:"settlement_account_id,omitempty"`
	Receipt             *string         `json:"receipt,omitempty"`
}

// Parent returns the owning obligation.
func (e ScheduleEntry) Parent() (ParentRef, error) {
	switch {
	case e.BillerID != nil && e.InstallmentID != nil:
		return ParentRef{}, fmt.Errorf("schedule entry %d references both biller %d and installment %d", e.ID, *e.BillerID, *e.InstallmentID)
	case e.BillerID != nil:
		return ParentRef{Kind: KindBiller, ID: *e.BillerID}, nil
	case e.InstallmentID != nil:
		return ParentRef{Kind: KindInstallment, ID: *e.InstallmentID}, nil
	default:
		return ParentRef{}, fmt.Errorf("schedule entry %d has no parent obligation", e.ID)
	}
}

// Status derives the settlement status from the cached settled amount.
func (e ScheduleEntry) Status() SettlementStatus {
	return DeriveStatus(e.SettledAmount, e.ExpectedAmount)
}

// ClearSettlement resets the display cache after a full reversal.
func (e *ScheduleEntry) ClearSettlement() {
	e.SettledAmount = decimal.Zero
	e.SettledDate = nil
	e.SettlementAccountID = nil
	e.Receipt = nil
}

// NewEntry builds an unsettled entry for parent in period p.
func NewEntry(parent ParentRef, p Period, expected decimal.Decimal) ScheduleEntry {
	e := ScheduleEntry{Period: p, ExpectedAmount: expected, SettledAmount: decimal.Zero}
	id := parent.ID
	if parent.Kind == KindInstallment {
		e.InstallmentID = &id
	} else {
		e.BillerID = &id
	}
	return e
}

// Settlement is the result of settling a schedule entry.
type Settlement struct {
	Transaction Transaction      `json:"transaction"`
	Entry       ScheduleEntry    `json:"entry"`
	Status      SettlementStatus `json:"status"`
}
