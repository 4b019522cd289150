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
	"github.com/Dan9191/bills-service/internal/schedule"
)

// CreateBiller saves a biller and generates its schedule. When generation
// fails the biller stays saved and a *GenerationError is returned with it.
func (s *Service) CreateBiller(ctx context.Context, b *models.Biller) (*models.Biller, error) {
	if err := s.validateBiller(ctx, b); err != nil {
		return nil, err
	}
	if err := s.repo.CreateBiller(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"biller_id": b.ID, "name": b.Name}).Info("Biller created")

	if _, err := s.GenerateSchedule(ctx, b, schedule.Horizon(b, s.config.BillerHorizonMonths)); err != nil {
		return b, &GenerationError{Parent: b.Parent(), Err: err}
	}
	return b, nil
}

// CreateInstallment saves an installment and generates one entry per term month.
func (s *Service) CreateInstallment(ctx context.Context, i *models.Installment) (*models.Installment, error) {
	if err := s.validateInstallment(ctx, i); err != nil {
		return nil, err
	}
	if err := s.repo.CreateInstallment(ctx, i); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"installment_id": i.ID, "name": i.Name}).Info("Installment created")

	if _, err := s.GenerateSchedule(ctx, i, schedule.Horizon(i, 0)); err != nil {
		return i, &GenerationError{Parent: i.Parent(), Err: err}
	}
	return i, nil
}

// GenerateSchedule upserts horizon entries for o. Existing entries, settled
// or not, are left untouched. Returns the number of entries inserted.
func (s *Service) GenerateSchedule(ctx context.Context, o models.Obligation, horizon int) (int, error) {
	entries, err := schedule.Generate(o, horizon)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.UpsertEntries(ctx, entries, repository.KeepExisting)
	if err != nil {
		return n, err
	}
	metrics.EntriesGenerated.WithLabelValues(string(o.Parent().Kind)).Add(float64(n))
	s.log.WithFields(logrus.Fields{"parent": o.Parent().String(), "horizon": horizon, "inserted": n}).
		Debug("Schedule generated")
	return n, nil
}

// RegenerateSchedule re-runs generation for an existing obligation. Entries
// with no settlement take the obligation's current amount; settled entries
// keep theirs. A non-positive horizon uses the obligation's default.
func (s *Service) RegenerateSchedule(ctx context.Context, parent models.ParentRef, horizon int) (int, error) {
	o, err := obligation(ctx, s.repo, parent)
	if err != nil {
		return 0, err
	}
	override := horizon
	if override <= 0 && parent.Kind == models.KindBiller {
		override = s.config.BillerHorizonMonths
	}
	entries, err := schedule.Generate(o, schedule.Horizon(o, override))
	if err != nil {
		return 0, err
	}
	n, err := s.repo.UpsertEntries(ctx, entries, repository.RefreshUnsettled)
	if err != nil {
		return n, err
	}
	metrics.EntriesGenerated.WithLabelValues(string(parent.Kind)).Add(float64(n))
	s.log.WithFields(logrus.Fields{"parent": parent.String(), "written": n}).Info("Schedule regenerated")
	return n, nil
}

// GetBiller returns a biller by ID.
func (s *Service) GetBiller(ctx context.Context, id int64) (*models.Biller, error) {
	return s.repo.GetBiller(ctx, id)
}

// ListBillers returns every biller.
func (s *Service) ListBillers(ctx context.Context) ([]models.Biller, error) {
	return s.repo.ListBillers(ctx)
}

// BillerPatch lists the editable fields of a biller. Nil fields are unchanged.
type BillerPatch struct {
	Name            *string          `json:"name,omitempty"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Timing          *models.Timing   `json:"timing,omitempty"`
	Active          *bool            `json:"active,omitempty"`
	Deactivation    *models.Period   `json:"deactivation,omitempty"`
	CreditAccountID *int64           `json:"credit_account_id,omitempty"`
}

// UpdateBiller edits a biller. Already generated entries are not changed;
// call RegenerateSchedule to push a new amount into unsettled entries.
func (s *Service) UpdateBiller(ctx context.Context, id int64, patch BillerPatch) (*models.Biller, error) {
	b, err := s.repo.GetBiller(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		b.Name = *patch.Name
	}
	if patch.Amount != nil {
		b.Amount = *patch.Amount
	}
	if patch.Timing != nil {
		b.Timing = *patch.Timing
	}
	if patch.Active != nil {
		b.Active = *patch.Active
	}
	if patch.Deactivation != nil {
		d := *patch.Deactivation
		b.Deactivation = &d
	}
	if patch.CreditAccountID != nil {
		c := *patch.CreditAccountID
		b.CreditAccountID = &c
	}
	if err := s.validateBiller(ctx, b); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateBiller(ctx, b); err != nil {
		return nil, err
	}
	s.log.WithField("biller_id", id).Info("Biller updated")
	return b, nil
}

// DeleteBiller removes a biller and its schedule. Ledger transactions stay.
func (s *Service) DeleteBiller(ctx context.Context, id int64) error {
	if err := s.repo.DeleteBiller(ctx, id); err != nil {
		return err
	}
	s.log.WithField("biller_id", id).Info("Biller deleted")
	return nil
}

// GetInstallment returns an installment by ID.
func (s *Service) GetInstallment(ctx context.Context, id int64) (*models.Installment, error) {
	return s.repo.GetInstallment(ctx, id)
}

// ListInstallments returns every installment.
func (s *Service) ListInstallments(ctx context.Context) ([]models.Installment, error) {
	return s.repo.ListInstallments(ctx, nil)
}

// DeleteInstallment removes an installment and its schedule.
func (s *Service) DeleteInstallment(ctx context.Context, id int64) error {
	if err := s.repo.DeleteInstallment(ctx, id); err != nil {
		return err
	}
	s.log.WithField("installment_id", id).Info("Installment deleted")
	return nil
}

func (s *Service) validateBiller(ctx context.Context, b *models.Biller) error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return apperr.NewValidation("name", "is required")
	}
	if !b.Amount.IsPositive() {
		return apperr.NewValidation("amount", "must be positive")
	}
	if err := validateTiming(&b.Timing); err != nil {
		return err
	}
	if !b.Activation.Valid() {
		return apperr.NewValidation("activation", "month and year are required")
	}
	if b.Deactivation != nil {
		if !b.Deactivation.Valid() {
			return apperr.NewValidation("deactivation", "is not a valid month and year")
		}
		if b.Deactivation.Before(b.Activation) {
			return apperr.NewValidation("deactivation", "%s is before activation %s", b.Deactivation, b.Activation)
		}
	}
	if _, err := s.repo.GetAccount(ctx, b.AccountID); err != nil {
		return err
	}
	if b.CreditAccountID != nil {
		acct, err := s.repo.GetAccount(ctx, *b.CreditAccountID)
		if err != nil {
			return err
		}
		if !acct.IsCredit() {
			return apperr.NewValidation("credit_account_id", "account %d is not a credit account", acct.ID)
		}
	}
	return nil
}

func (s *Service) validateInstallment(ctx context.Context, i *models.Installment) error {
	i.Name = strings.TrimSpace(i.Name)
	if i.Name == "" {
		return apperr.NewValidation("name", "is required")
	}
	if !i.MonthlyPayment.IsPositive() {
		return apperr.NewValidation("monthly_payment", "must be positive")
	}
	if i.TotalPrincipal.IsNegative() {
		return apperr.NewValidation("total_principal", "must not be negative")
	}
	if i.TermMonths <= 0 {
		return apperr.NewValidation("term_months", "must be positive, got %d", i.TermMonths)
	}
	if err := validateTiming(&i.Timing); err != nil {
		return err
	}
	if !i.Start.Valid() {
		return apperr.NewValidation("start", "month and year are required")
	}
	_, err := s.repo.GetAccount(ctx, i.AccountID)
	return err
}

func validateTiming(t *models.Timing) error {
	switch *t {
	case "":
		*t = models.TimingFirstHalf
	case models.TimingFirstHalf, models.TimingSecondHalf:
	default:
		return apperr.NewValidation("timing", "must be %q or %q, got %q", models.TimingFirstHalf, models.TimingSecondHalf, *t)
	}
	return nil
}
