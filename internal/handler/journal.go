package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/export"
	"github.com/josh-kwaku/kasboek/internal/logging"
)

type journalService interface {
	BuildJournal(ctx context.Context, month domain.Month) ([]domain.JournalLine, error)
	MonthSummary(ctx context.Context, month domain.Month) (*domain.MonthSummary, error)
}

type JournalHandler struct {
	journal journalService
}

func NewJournalHandler(journal journalService) *JournalHandler {
	return &JournalHandler{journal: journal}
}

func monthFromPath(r *http.Request) (domain.Month, bool) {
	m, err := domain.ParseMonth(r.PathValue("month"))
	return m, err == nil
}

func (h *JournalHandler) Journal(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFromPath(r)
	if !ok {
		RespondAppError(w, ErrInvalidMonth, nil)
		return
	}

	lines, err := h.journal.BuildJournal(r.Context(), month)
	if err != nil {
		logging.FromContext(r.Context()).Error("build journal failed", "error", err, "month", month.String())
		RespondDomainError(w, r, err)
		return
	}

	dtos := make([]journalLineDTO, len(lines))
	for i, l := range lines {
		dtos[i] = journalLineDTO{LedgerAccount: l.LedgerAccount, Label: l.Label, Amount: money(l.Amount)}
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *JournalHandler) JournalCSV(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFromPath(r)
	if !ok {
		RespondAppError(w, ErrInvalidMonth, nil)
		return
	}

	lines, err := h.journal.BuildJournal(r.Context(), month)
	if err != nil {
		logging.FromContext(r.Context()).Error("build journal failed", "error", err, "month", month.String())
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.JournalFilename(month)))
	w.WriteHeader(http.StatusOK)
	if err := export.WriteJournalCSV(w, lines); err != nil {
		logging.FromContext(r.Context()).Error("write journal csv failed", "error", err, "month", month.String())
	}
}

func (h *JournalHandler) Summary(w http.ResponseWriter, r *http.Request) {
	month, ok := monthFromPath(r)
	if !ok {
		RespondAppError(w, ErrInvalidMonth, nil)
		return
	}

	summary, err := h.journal.MonthSummary(r.Context(), month)
	if err != nil {
		logging.FromContext(r.Context()).Error("month summary failed", "error", err, "month", month.String())
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toMonthSummaryDTO(summary))
}
