package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/repository"
	"github.com/Dan9191/bills-service/internal/service"
)

type testAPI struct {
	t      *testing.T
	db     *sql.DB
	server *httptest.Server
	token  string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.SQLite, filepath.Join(t.TempDir(), "bills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	repo := repository.NewRepository(db, repository.SQLite)
	require.NoError(t, repo.Migrate(ctx))

	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := config.Defaults()
	cfg.JWTSecret = "handler-test"

	h := NewHandler(service.NewService(repo, log, cfg), log)
	server := httptest.NewServer(NewRouter(h, cfg))
	t.Cleanup(server.Close)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	return &testAPI{t: t, db: db, server: server, token: token}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (a *testAPI) do(method, path string, body any, out any) *http.Response {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.server.URL+path, rd)
	require.NoError(a.t, err)
	req.Header.Set("Authorization", "Bearer "+a.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { resp.Body.Close() })
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestPublicRoutes(t *testing.T) {
	api := newTestAPI(t)

	resp, err := http.Get(api.server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	metricsResp, err := http.Get(api.server.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	assert.Equal(t, http.StatusOK, metricsResp.StatusCode)

	protected, err := http.Get(api.server.URL + "/billers")
	require.NoError(t, err)
	defer protected.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, protected.StatusCode)
}

func TestSettleAndDeleteOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	var acct models.Account
	resp := api.do("POST", "/accounts", map[string]any{"name": "Checking", "type": "debit", "opening_balance": "5000"}, &acct)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Obligation    models.Biller `json:"obligation"`
		ScheduleError string        `json:"schedule_error"`
	}
	resp = api.do("POST", "/billers", map[string]any{
		"name":       "Electric",
		"amount":     "1500",
		"account_id": acct.ID,
		"activation": map[string]any{"month": "January", "year": 2026},
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Empty(t, created.ScheduleError)
	assert.True(t, created.Obligation.Active, "active defaults to true")
	billerID := created.Obligation.ID

	var views []models.EntryView
	resp = api.do("GET", fmt.Sprintf("/billers/%d/schedule", billerID), nil, &views)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, views, 12)
	jan := views[0]

	settle := map[string]any{"amount": "1500", "date": "2026-01-05", "account_id": acct.ID, "receipt": "R-1"}
	var s models.Settlement
	resp = api.do("POST", fmt.Sprintf("/schedule-entries/%d/settle", jan.ID), settle, &s)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.StatusPaid, s.Status)

	var errBody map[string]string
	resp = api.do("POST", fmt.Sprintf("/schedule-entries/%d/settle", jan.ID), settle, &errBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, errBody["error"], "January 2026")

	var res models.ResolvedStatus
	api.do("GET", fmt.Sprintf("/schedule-entries/%d/status", jan.ID), nil, &res)
	assert.True(t, res.Settled)
	assert.Equal(t, models.SourceLinked, res.Source)

	xmlResp := api.do("GET", fmt.Sprintf("/billers/%d/schedule.xml", billerID), nil, nil)
	assert.Equal(t, http.StatusOK, xmlResp.StatusCode)
	assert.Contains(t, xmlResp.Header.Get("Content-Type"), "application/xml")

	resp = api.do("DELETE", fmt.Sprintf("/transactions/%d", s.Transaction.ID), nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	api.do("GET", fmt.Sprintf("/schedule-entries/%d/status", jan.ID), nil, &res)
	assert.False(t, res.Settled)
	assert.True(t, res.Amount.IsZero())

	var summary models.AccountSummary
	api.do("GET", fmt.Sprintf("/accounts/%d", acct.ID), nil, &summary)
	assert.True(t, summary.Balance.Equal(acct.OpeningBalance))
}

func TestErrorMapping(t *testing.T) {
	api := newTestAPI(t)

	var body map[string]string
	resp := api.do("POST", "/schedule-entries/999/settle", map[string]any{"amount": "1", "date": "2026-01-05", "account_id": 1}, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body["error"], "recreate")

	resp = api.do("POST", "/schedule-entries/1/settle", map[string]any{"amount": "1", "date": "05/01/2026", "account_id": 1}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "YYYY-MM-DD")

	resp = api.do("POST", "/accounts", map[string]any{"name": "x", "bogus": true}, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do("GET", "/billers/1/cycles?n=abc", nil, &body)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = api.do("DELETE", "/installments/77", nil, &body)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPayNextInstallmentOverHTTP(t *testing.T) {
	api := newTestAPI(t)

	var acct models.Account
	api.do("POST", "/accounts", map[string]any{"name": "Checking"}, &acct)

	var created struct {
		Obligation models.Installment `json:"obligation"`
	}
	resp := api.do("POST", "/installments", map[string]any{
		"name":            "Laptop",
		"monthly_payment": "3000",
		"account_id":      acct.ID,
		"total_principal": "36000",
		"term_months":     12,
		"start":           map[string]any{"month": "Mar", "year": 2026},
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := created.Obligation.ID

	var first, second models.Settlement
	resp = api.do("POST", fmt.Sprintf("/installments/%d/pay", id), map[string]any{"date": "2026-03-20"}, &first)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = api.do("POST", fmt.Sprintf("/installments/%d/pay", id), nil, &second)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	assert.Equal(t, models.NewPeriod(time.March, 2026), first.Entry.Period)
	assert.Equal(t, models.NewPeriod(time.April, 2026), second.Entry.Period)
}

func TestCreateBillerReportsScheduleError(t *testing.T) {
	api := newTestAPI(t)

	var acct models.Account
	api.do("POST", "/accounts", map[string]any{"name": "Checking"}, &acct)

	_, err := api.db.Exec(`CREATE TRIGGER fail_entries BEFORE INSERT ON schedule_entries
		BEGIN SELECT RAISE(ABORT, 'store unavailable'); END`)
	require.NoError(t, err)

	var created struct {
		Obligation    models.Biller `json:"obligation"`
		ScheduleError string        `json:"schedule_error"`
	}
	resp := api.do("POST", "/billers", map[string]any{
		"name":       "Electric",
		"amount":     "1500",
		"account_id": acct.ID,
		"activation": map[string]any{"month": "January", "year": 2026},
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Contains(t, created.ScheduleError, "regenerate")
	require.NotZero(t, created.Obligation.ID)

	var saved models.Biller
	resp = api.do("GET", fmt.Sprintf("/billers/%d", created.Obligation.ID), nil, &saved)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Electric", saved.Name)
}

func TestListAccounts(t *testing.T) {
	api := newTestAPI(t)

	var empty []models.Account
	resp := api.do("GET", "/accounts", nil, &empty)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, empty)

	api.do("POST", "/accounts", map[string]any{"name": "Checking"}, nil)
	api.do("POST", "/accounts", map[string]any{"name": "Visa", "type": "credit", "billing_day": 15, "credit_limit": "1000"}, nil)

	var all []models.Account
	api.do("GET", "/accounts", nil, &all)
	require.Len(t, all, 2)
	assert.Equal(t, "Checking", all[0].Name)
	assert.Equal(t, models.AccountTypeCredit, all[1].Type)
}
