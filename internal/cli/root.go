// Package cli implements billsctl, the administration tool of the bills service.
package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/repository"
	"github.com/Dan9191/bills-service/internal/service"
)

// app holds what every subcommand needs, built before the command runs.
type app struct {
	cfg  *config.Config
	db   *sql.DB
	repo *repository.Repository
	svc  *service.Service
	log  *logrus.Logger
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "billsctl",
		Short: "Administer payment schedules and their reconciliation",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	rootCmd.AddCommand(
		newMigrateCommand(a),
		newGenerateCommand(a),
		newCyclesCommand(a),
		newStatusCommand(a),
		newDueCommand(a),
	)
	return rootCmd
}

func (a *app) open(ctx context.Context, logOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log := logrus.New()
	log.SetOutput(logOut)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	dialect, err := repository.ParseDialect(cfg.DBDriver)
	if err != nil {
		return err
	}
	db, err := repository.Open(ctx, dialect, cfg.DBConn)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.db = db
	a.log = log
	a.repo = repository.NewRepository(db, dialect)
	a.svc = service.NewService(a.repo, log, cfg)
	return nil
}

func (a *app) close() error {
	if a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
