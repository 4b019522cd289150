package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/repository"
	"github.com/Dan9191/bills-service/internal/status"
)

// Service handles business logic
type Service struct {
	repo     *repository.Repository
	log      *logrus.Logger
	config   *config.Config
	resolver *status.Resolver
	now      func() time.Time
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		repo:     repo,
		log:      log,
		config:   cfg,
		resolver: status.NewResolver(status.Options{DecemberGrace: cfg.DecemberGrace}),
		now:      time.Now,
	}
}

// GenerationError reports an obligation that was saved but whose schedule
// could not be generated. The obligation is not rolled back; regenerate it.
type GenerationError struct {
	Parent models.ParentRef
	Err    error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s was saved but its schedule could not be generated, regenerate it: %v", e.Parent, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// inTx runs fn in one database transaction. A commit whose outcome is unknown
// surfaces as a ConsistencyError.
func (s *Service) inTx(ctx context.Context, op string, fn func(tx *repository.Repository) error) error {
	err := s.repo.WithTx(ctx, fn)
	if errors.Is(err, repository.ErrCommit) {
		return &apperr.ConsistencyError{Op: op, Err: err}
	}
	return err
}

// obligation loads the biller or installment behind parent.
func obligation(ctx context.Context, repo *repository.Repository, parent models.ParentRef) (models.Obligation, error) {
	switch parent.Kind {
	case models.KindBiller:
		b, err := repo.GetBiller(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		return b, nil
	case models.KindInstallment:
		i, err := repo.GetInstallment(ctx, parent.ID)
		if err != nil {
			return nil, err
		}
		return i, nil
	default:
		return nil, apperr.NewValidation("kind", "unknown obligation kind %q", parent.Kind)
	}
}

// writeSettlement stores the settlement cache of e. A write that touches no
// row leaves the ledger ahead of the schedule.
func writeSettlement(ctx context.Context, repo *repository.Repository, op string, e *models.ScheduleEntry) error {
	err := repo.UpdateSettlement(ctx, e)
	var nf *apperr.NotFoundError
	if errors.As(err, &nf) {
		return &apperr.ConsistencyError{Op: op, Err: err}
	}
	return err
}

func (s *Service) today() time.Time { return models.Day(s.now()) }
