package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Dan9191/bills-service/internal/models"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.repo.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

// parentFlags registers --biller and --installment; exactly one must be set.
func parentFlags(cmd *cobra.Command, biller, installment *int64) func() (models.ParentRef, error) {
	cmd.Flags().Int64Var(biller, "biller", 0, "biller ID")
	cmd.Flags().Int64Var(installment, "installment", 0, "installment ID")
	cmd.MarkFlagsMutuallyExclusive("biller", "installment")
	cmd.MarkFlagsOneRequired("biller", "installment")
	return func() (models.ParentRef, error) {
		if *biller > 0 {
			return models.ParentRef{Kind: models.KindBiller, ID: *biller}, nil
		}
		if *installment > 0 {
			return models.ParentRef{Kind: models.KindInstallment, ID: *installment}, nil
		}
		return models.ParentRef{}, errors.New("--biller or --installment must be a positive ID")
	}
}

func newGenerateCommand(a *app) *cobra.Command {
	var biller, installment int64
	var horizon int

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Regenerate an obligation's schedule, refreshing unsettled months",
		Args:  cobra.NoArgs,
	}
	parent := parentFlags(cmd, &biller, &installment)
	cmd.Flags().IntVar(&horizon, "horizon", 0, "months to generate (default: obligation's own horizon)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p, err := parent()
		if err != nil {
			return err
		}
		n, err := a.svc.RegenerateSchedule(cmd.Context(), p, horizon)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d entries written\n", p, n)
		return nil
	}
	return cmd
}

func newCyclesCommand(a *app) *cobra.Command {
	var biller int64
	var n int
	var apply bool

	cmd := &cobra.Command{
		Use:   "cycles",
		Short: "Show billing-cycle totals of a biller's credit account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if apply {
				report, updated, err := a.svc.ApplyCreditCycles(cmd.Context(), biller, n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%d entries updated\n", updated)
				return printJSON(cmd.OutOrStdout(), report)
			}
			report, err := a.svc.ComputeCreditCycles(cmd.Context(), biller, n)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().Int64Var(&biller, "biller", 0, "biller ID (required)")
	_ = cmd.MarkFlagRequired("biller")
	cmd.Flags().IntVarP(&n, "cycles", "n", 3, "number of cycles")
	cmd.Flags().BoolVar(&apply, "apply", false, "write totals into unsettled entries")
	return cmd
}

func newStatusCommand(a *app) *cobra.Command {
	var biller, installment int64

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show an obligation's schedule with resolved statuses",
		Args:  cobra.NoArgs,
	}
	parent := parentFlags(cmd, &biller, &installment)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		p, err := parent()
		if err != nil {
			return err
		}
		views, err := a.svc.ListSchedule(cmd.Context(), p)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, v := range views {
			source := string(v.Resolved.Source)
			if source == "" {
				source = "-"
			}
			fmt.Fprintf(out, "%-15s %10s %10s  %-8s %s\n", v.Period, v.ExpectedAmount.StringFixed(2),
				v.Resolved.Amount.StringFixed(2), v.Status, source)
		}
		return nil
	}
	return cmd
}

func newDueCommand(a *app) *cobra.Command {
	var month string
	var year int

	cmd := &cobra.Command{
		Use:   "due",
		Short: "List unsettled payments of a month (default: current month)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := models.PeriodOf(time.Now())
			if month != "" {
				m, err := models.ParseMonth(month)
				if err != nil {
					return err
				}
				p.Month = m
			}
			if year != 0 {
				p.Year = year
			}
			due, err := a.svc.DuePayments(cmd.Context(), p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), due)
		},
	}
	cmd.Flags().StringVar(&month, "month", "", "month name")
	cmd.Flags().IntVar(&year, "year", 0, "year")
	return cmd
}
