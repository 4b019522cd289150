package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/Dan9191/bills-service/internal/apperr"
	"github.com/Dan9191/bills-service/internal/config"
	"github.com/Dan9191/bills-service/internal/metrics"
	"github.com/Dan9191/bills-service/internal/middleware"
	"github.com/Dan9191/bills-service/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// NewRouter wires every route. Everything but /health and /metrics requires
// a bearer token.
func NewRouter(h *Handler, cfg *config.Config) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(h.log))

	// Public routes
	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")

	// Protected routes
	api := r.PathPrefix("/").Subrouter()
	api.Use(middleware.AuthMiddleware(cfg))

	api.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	api.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	api.HandleFunc("/accounts/{id:[0-9]+}", h.GetAccount).Methods("GET")
	api.HandleFunc("/accounts/{id:[0-9]+}/transactions", h.ListTransactions).Methods("GET")
	api.HandleFunc("/accounts/{id:[0-9]+}/transactions", h.CreateTransaction).Methods("POST")

	api.HandleFunc("/billers", h.ListBillers).Methods("GET")
	api.HandleFunc("/billers", h.CreateBiller).Methods("POST")
	api.HandleFunc("/billers/{id:[0-9]+}", h.GetBiller).Methods("GET")
	api.HandleFunc("/billers/{id:[0-9]+}", h.UpdateBiller).Methods("PATCH")
	api.HandleFunc("/billers/{id:[0-9]+}", h.DeleteBiller).Methods("DELETE")
	api.HandleFunc("/billers/{id:[0-9]+}/schedule", h.RegenerateBillerSchedule).Methods("POST")
	api.HandleFunc("/billers/{id:[0-9]+}/schedule", h.BillerSchedule).Methods("GET")
	api.HandleFunc("/billers/{id:[0-9]+}/schedule.xml", h.BillerScheduleXML).Methods("GET")
	api.HandleFunc("/billers/{id:[0-9]+}/cycles", h.CreditCycles).Methods("GET")
	api.HandleFunc("/billers/{id:[0-9]+}/cycles/apply", h.ApplyCreditCycles).Methods("POST")

	api.HandleFunc("/installments", h.ListInstallments).Methods("GET")
	api.HandleFunc("/installments", h.CreateInstallment).Methods("POST")
	api.HandleFunc("/installments/{id:[0-9]+}", h.GetInstallment).Methods("GET")
	api.HandleFunc("/installments/{id:[0-9]+}", h.DeleteInstallment).Methods("DELETE")
	api.HandleFunc("/installments/{id:[0-9]+}/schedule", h.RegenerateInstallmentSchedule).Methods("POST")
	api.HandleFunc("/installments/{id:[0-9]+}/schedule", h.InstallmentSchedule).Methods("GET")
	api.HandleFunc("/installments/{id:[0-9]+}/schedule.xml", h.InstallmentScheduleXML).Methods("GET")
	api.HandleFunc("/installments/{id:[0-9]+}/pay", h.PayNextInstallment).Methods("POST")

	api.HandleFunc("/schedule-entries/{id:[0-9]+}/settle", h.Settle).Methods("POST")
	api.HandleFunc("/schedule-entries/{id:[0-9]+}/status", h.EntryStatus).Methods("GET")

	api.HandleFunc("/transactions/{id:[0-9]+}", h.UpdateTransaction).Methods("PATCH")
	api.HandleFunc("/transactions/{id:[0-9]+}", h.DeleteTransaction).Methods("DELETE")

	return r
}

// Health reports liveness
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps the error taxonomy onto HTTP status codes. Consistency
// errors stay 500 but keep their message so the client knows to retry.
func statusFor(err error) int {
	var (
		validation *apperr.ValidationError
		mismatch   *apperr.TypeMismatchError
		notFound   *apperr.NotFoundError
		duplicate  *apperr.DuplicateError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &mismatch):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &duplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	var consistency *apperr.ConsistencyError
	if status == http.StatusInternalServerError && !errors.As(err, &consistency) {
		h.log.WithField("request_id", middleware.RequestID(r.Context())).WithError(err).Error("Request failed")
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.NewValidation("body", "invalid JSON: %v", err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NewValidation("id", "must be a positive integer")
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.NewValidation(key, "must be an integer")
	}
	return n, nil
}
