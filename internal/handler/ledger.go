package handler

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/service"
)

// CreateAccount handles account creation
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var a models.Account
	if err := decode(r, &a); err != nil {
		h.writeError(w, r, err)
		return
	}
	a.ID = 0
	created, err := h.svc.CreateAccount(r.Context(), &a)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetAccount returns an account with its derived balance
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	summary, err := h.svc.GetAccount(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ListTransactions accepts optional ?from= and ?to= dates (YYYY-MM-DD).
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var dr models.DateRange
	if dr.From, err = optionalDate("from", r.URL.Query().Get("from")); err != nil {
		h.writeError(w, r, err)
		return
	}
	if dr.To, err = optionalDate("to", r.URL.Query().Get("to")); err != nil {
		h.writeError(w, r, err)
		return
	}
	txns, err := h.svc.ListTransactions(r.Context(), id, dr)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

type transactionRequest struct {
	Name   string          `json:"name"`
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// CreateTransaction records a manual, unlinked transaction
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req transactionRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := models.ParseDate("date", req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tx, err := h.svc.CreateTransaction(r.Context(), &models.Transaction{Name: req.Name, Date: date, Amount: req.Amount, AccountID: id})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

type transactionPatchRequest struct {
	Name   *string          `json:"name"`
	Date   *string          `json:"date"`
	Amount *decimal.Decimal `json:"amount"`
}

// UpdateTransaction amends name, date or amount
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req transactionPatchRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	patch := models.TransactionPatch{Name: req.Name, Amount: req.Amount}
	if req.Date != nil {
		d, err := models.ParseDate("date", *req.Date)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		patch.Date = &d
	}
	tx, err := h.svc.UpdateTransaction(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

// DeleteTransaction reverses a linked transaction's settlement, then deletes it
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteSettledTransaction(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type settleRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	AccountID int64           `json:"account_id"`
	Receipt   *string         `json:"receipt"`
}

// Settle pays a schedule entry
func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req settleRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	date, err := models.ParseDate("date", req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.svc.Settle(r.Context(), service.SettleRequest{
		EntryID:   id,
		Amount:    req.Amount,
		Date:      date,
		AccountID: req.AccountID,
		Receipt:   req.Receipt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// PayNextInstallment settles the earliest outstanding month; every field is optional.
func (h *Handler) PayNextInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req settleRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
	}
	date, err := optionalDate("date", req.Date)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.svc.PayNextInstallment(r.Context(), service.PayNextRequest{
		InstallmentID: id,
		Amount:        req.Amount,
		Date:          date,
		AccountID:     req.AccountID,
		Receipt:       req.Receipt,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// EntryStatus resolves whether a schedule entry is settled
func (h *Handler) EntryStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	res, err := h.svc.ResolveStatus(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func optionalDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	return models.ParseDate(field, raw)
}
