package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/repository"
	"github.com/Dan9191/bills-service/internal/service"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bills.db")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_CONN", path)
	t.Setenv("JWT_SECRET", "cli-test")
	t.Setenv("LOG_LEVEL", "error")
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// seedBiller creates a checking account and a January 2026 biller.
func seedBiller(t *testing.T, path string) int64 {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.SQLite, path)
	require.NoError(t, err)
	defer db.Close()

	log := logrus.New()
	log.SetOutput(io.Discard)
	svc := service.NewService(repository.NewRepository(db, repository.SQLite), log, config.Defaults())

	acct, err := svc.CreateAccount(ctx, &models.Account{Name: "Checking", OpeningBalance: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	b, err := svc.CreateBiller(ctx, &models.Biller{
		Name:       "Electric",
		Amount:     decimal.NewFromInt(1500),
		AccountID:  acct.ID,
		Activation: models.NewPeriod(time.January, 2026),
		Active:     true,
	})
	require.NoError(t, err)
	return b.ID
}

func TestMigrateThenInspect(t *testing.T) {
	path := setupEnv(t)

	out, err := run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "schema up to date")

	seedBiller(t, path)

	out, err = run(t, "status", "--biller", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 12)
	assert.Contains(t, lines[0], "January 2026")
	assert.Contains(t, lines[0], "1500.00")

	out, err = run(t, "generate", "--biller", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "biller 1: 12 entries written")

	out, err = run(t, "cycles", "--biller", "1")
	require.NoError(t, err)
	var report service.CycleReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Applicable)
	assert.True(t, report.Fallback.Equal(decimal.NewFromInt(1500)))

	out, err = run(t, "due", "--month", "March", "--year", "2026")
	require.NoError(t, err)
	var due []service.DuePayment
	require.NoError(t, json.Unmarshal([]byte(out), &due))
	require.Len(t, due, 1)
	assert.Equal(t, "Electric", due[0].Name)
}

func TestCommandErrors(t *testing.T) {
	setupEnv(t)
	_, err := run(t, "migrate")
	require.NoError(t, err)

	_, err = run(t, "generate")
	assert.Error(t, err, "one of --biller or --installment is required")

	_, err = run(t, "generate", "--biller", "1", "--installment", "2")
	assert.Error(t, err)

	_, err = run(t, "status", "--installment", "42")
	assert.Error(t, err)

	_, err = run(t, "cycles", "--biller", "1", "-n", "0")
	assert.Error(t, err)

	_, err = run(t, "due", "--month", "Smarch")
	assert.Error(t, err)
}

func TestMissingConfig(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_CONN", "")
	_, err := run(t, "migrate")
	assert.Error(t, err)
}
