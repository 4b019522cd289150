package handler

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/Dan9191/bills-service/internal/export"
	"github.com/Dan9191/bills-service/internal/models"
	"github.com/Dan9191/bills-service/internal/service"
)

// billerRequest defaults Active to true when omitted.
type billerRequest struct {
	models.Biller
	Active *bool `json:"active"`
}

type installmentRequest struct {
	models.Installment
	Active *bool `json:"active"`
}

// createdResponse carries a saved obligation, plus the generation error when
// its schedule could not be built.
type createdResponse struct {
	Obligation    any    `json:"obligation"`
	ScheduleError string `json:"schedule_error,omitempty"`
}

func (h *Handler) writeCreated(w http.ResponseWriter, r *http.Request, o any, err error) {
	var genErr *service.GenerationError
	switch {
	case errors.As(err, &genErr):
		h.log.WithError(err).Warn("Obligation saved without schedule")
		writeJSON(w, http.StatusCreated, createdResponse{Obligation: o, ScheduleError: genErr.Error()})
	case err != nil:
		h.writeError(w, r, err)
	default:
		writeJSON(w, http.StatusCreated, createdResponse{Obligation: o})
	}
}

// CreateBiller handles biller creation
func (h *Handler) CreateBiller(w http.ResponseWriter, r *http.Request) {
	var req billerRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	b := req.Biller
	b.ID = 0
	b.Active = req.Active == nil || *req.Active
	created, err := h.svc.CreateBiller(r.Context(), &b)
	h.writeCreated(w, r, created, err)
}

func (h *Handler) ListBillers(w http.ResponseWriter, r *http.Request) {
	billers, err := h.svc.ListBillers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if billers == nil {
		billers = []models.Biller{}
	}
	writeJSON(w, http.StatusOK, billers)
}

func (h *Handler) GetBiller(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.GetBiller(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) UpdateBiller(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var patch service.BillerPatch
	if err := decode(r, &patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.UpdateBiller(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *Handler) DeleteBiller(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteBiller(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateInstallment handles installment creation
func (h *Handler) CreateInstallment(w http.ResponseWriter, r *http.Request) {
	var req installmentRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	i := req.Installment
	i.ID = 0
	i.Active = req.Active == nil || *req.Active
	created, err := h.svc.CreateInstallment(r.Context(), &i)
	h.writeCreated(w, r, created, err)
}

func (h *Handler) ListInstallments(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListInstallments(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []models.Installment{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) GetInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	i, err := h.svc.GetInstallment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, i)
}

func (h *Handler) DeleteInstallment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.DeleteInstallment(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RegenerateBillerSchedule(w http.ResponseWriter, r *http.Request) {
	h.regenerate(w, r, models.KindBiller)
}

func (h *Handler) RegenerateInstallmentSchedule(w http.ResponseWriter, r *http.Request) {
	h.regenerate(w, r, models.KindInstallment)
}

// regenerate refreshes unsettled entries; ?horizon= extends the schedule.
func (h *Handler) regenerate(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	horizon, err := queryInt(r, "horizon", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := h.svc.RegenerateSchedule(r.Context(), models.ParentRef{Kind: kind, ID: id}, horizon)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"written": n})
}

func (h *Handler) BillerSchedule(w http.ResponseWriter, r *http.Request) {
	h.schedule(w, r, models.KindBiller)
}

func (h *Handler) InstallmentSchedule(w http.ResponseWriter, r *http.Request) {
	h.schedule(w, r, models.KindInstallment)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request, kind models.Kind) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	views, err := h.svc.ListSchedule(r.Context(), models.ParentRef{Kind: kind, ID: id})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) BillerScheduleXML(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	b, err := h.svc.GetBiller(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.scheduleXML(w, r, b)
}

func (h *Handler) InstallmentScheduleXML(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	i, err := h.svc.GetInstallment(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.scheduleXML(w, r, i)
}

func (h *Handler) scheduleXML(w http.ResponseWriter, r *http.Request, o models.Obligation) {
	views, err := h.svc.ListSchedule(r.Context(), o.Parent())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.ScheduleXML(&buf, o, views); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// CreditCycles returns the ?n= most recent billing cycles (default 3).
func (h *Handler) CreditCycles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := queryInt(r, "n", 3)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, err := h.svc.ComputeCreditCycles(r.Context(), id, n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) ApplyCreditCycles(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	n, err := queryInt(r, "n", 3)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, updated, err := h.svc.ApplyCreditCycles(r.Context(), id, n)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"report": report, "updated": updated})
}
