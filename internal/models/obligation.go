package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind discriminates the two obligation variants.
type Kind string

const (
	KindBiller      Kind = "biller"
	KindInstallment Kind = "installment"
)

// Timing marks which half of the month a payment is usually made. Advisory only.
type Timing string

const (
	TimingFirstHalf  Timing = "1/2"
	TimingSecondHalf Timing = "2/2"
)

// BillerHorizonMonths is the default schedule horizon of a biller.
const BillerHorizonMonths = 12

// ParentRef identifies the obligation a schedule entry belongs to.
type ParentRef struct {
	Kind Kind  `json:"kind"`
	ID   int64 `json:"id"`
}

func (p ParentRef) String() string { return fmt.Sprintf("%s %d", p.Kind, p.ID) }

// Obligation is implemented by Biller and Installment.
type Obligation interface {
	Parent() ParentRef
	Label() string
	MonthlyAmount() decimal.Decimal
	StartPeriod() Period
	FundingAccount() int64
	DefaultHorizon() int
}

// Biller is a recurring subscription-style obligation.
type Biller struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	AccountID       int64           `json:"account_id"`
	Timing          Timing          `json:"timing"`
	Active          bool            `json:"active"`
	Activation      Period          `json:"activation"`
	Deactivation    *Period         `json:"deactivation,omitempty"`
	CreditAccountID *int64          `json:"credit_account_id,omitempty"`
}

func (b *Biller) Parent() ParentRef              { return ParentRef{Kind: KindBiller, ID: b.ID} }
func (b *Biller) Label() string                  { return b.Name }
func (b *Biller) MonthlyAmount() decimal.Decimal { return b.Amount }
func (b *Biller) StartPeriod() Period            { return b.Activation }
func (b *Biller) FundingAccount() int64          { return b.AccountID }
func (b *Biller) DefaultHorizon() int            { return BillerHorizonMonths }

// ActiveIn reports whether the biller is billing during p.
func (b *Biller) ActiveIn(p Period) bool {
	if !b.Active || p.Before(b.Activation) {
		return false
	}
	return b.Deactivation == nil || !b.Deactivation.Before(p)
}

// Installment is a fixed-term amortizing loan paid in equal monthly amounts.
type Installment struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	AccountID      int64           `json:"account_id"`
	Timing         Timing          `json:"timing"`
	Active         bool            `json:"active"`
	TotalPrincipal decimal.Decimal `json:"total_principal"`
	TermMonths     int             `json:"term_months"`
	Start          Period          `json:"start"`
}

func (i *Installment) Parent() ParentRef              { return ParentRef{Kind: KindInstallment, ID: i.ID} }
func (i *Installment) Label() string                  { return i.Name }
func (i *Installment) MonthlyAmount() decimal.Decimal { return i.MonthlyPayment }
func (i *Installment) StartPeriod() Period            { return i.Start }
func (i *Installment) FundingAccount() int64          { return i.AccountID }
func (i *Installment) DefaultHorizon() int            { return i.TermMonths }

// EndPeriod is the month of the last installment.
func (i *Installment) EndPeriod() Period { return i.Start.AddMonths(i.TermMonths - 1) }
