package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/logging"
	"github.com/josh-kwaku/kasboek/internal/service"
)

type ledgerService interface {
	CreateDay(ctx context.Context, date time.Time, opening decimal.Decimal) (*domain.LedgerDay, error)
	ListDays(ctx context.Context, month *domain.Month) ([]domain.LedgerDay, error)
	GetDay(ctx context.Context, id int64) (*domain.LedgerDay, error)
	SetClosingBalance(ctx context.Context, id int64, amount decimal.Decimal) (*domain.LedgerDay, error)
	SetOpeningBalance(ctx context.Context, id int64, amount decimal.Decimal, date *time.Time) (*domain.LedgerDay, error)
	ListTransactions(ctx context.Context, dayID int64) ([]domain.Transaction, error)
	AddTransaction(ctx context.Context, req service.AddTransactionRequest) (*domain.Transaction, error)
}

type LedgerHandler struct {
	ledger ledgerService
}

func NewLedgerHandler(ledger ledgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type createDayRequest struct {
	Date           string           `json:"date"`
	OpeningBalance *decimal.Decimal `json:"openingBalance"`
}

func (r createDayRequest) Validate() (time.Time, []FieldError) {
	var (
		errs []FieldError
		date time.Time
	)

	if r.Date == "" {
		errs = append(errs, FieldError{Field: "date", Message: "required"})
	} else if d, err := domain.ParseDate(r.Date); err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "must be formatted YYYY-MM-DD"})
	} else {
		date = d
	}

	if r.OpeningBalance == nil {
		errs = append(errs, FieldError{Field: "openingBalance", Message: "required"})
	}

	return date, errs
}

type closingBalanceRequest struct {
	ClosingBalance *decimal.Decimal `json:"closingBalance"`
}

type openingBalanceRequest struct {
	OpeningBalance *decimal.Decimal `json:"openingBalance"`
	Date           *string          `json:"date"`
}

func (r openingBalanceRequest) Validate() (*time.Time, []FieldError) {
	var (
		errs []FieldError
		date *time.Time
	)

	if r.OpeningBalance == nil {
		errs = append(errs, FieldError{Field: "openingBalance", Message: "required"})
	}

	if r.Date != nil {
		d, err := domain.ParseDate(*r.Date)
		if err != nil {
			errs = append(errs, FieldError{Field: "date", Message: "must be formatted YYYY-MM-DD"})
		} else {
			date = &d
		}
	}

	return date, errs
}

func dayIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *LedgerHandler) ListDays(w http.ResponseWriter, r *http.Request) {
	var month *domain.Month
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := domain.ParseMonth(raw)
		if err != nil {
			RespondAppError(w, ErrInvalidMonth, nil)
			return
		}
		month = &m
	}

	days, err := h.ledger.ListDays(r.Context(), month)
	if err != nil {
		logging.FromContext(r.Context()).Error("list ledger days failed", "error", err)
		RespondDomainError(w, r, err)
		return
	}

	dtos := make([]ledgerDayDTO, len(days))
	for i := range days {
		dtos[i] = toLedgerDayDTO(&days[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *LedgerHandler) CreateDay(w http.ResponseWriter, r *http.Request) {
	var req createDayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	date, fields := req.Validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	day, err := h.ledger.CreateDay(r.Context(), date, *req.OpeningBalance)
	if err != nil {
		logging.FromContext(r.Context()).Warn("ledger day creation failed", "error", err, "date", req.Date)
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/ledger/days/%d", day.ID))
	RespondSuccess(w, http.StatusCreated, toLedgerDayDTO(day))
}

func (h *LedgerHandler) GetDay(w http.ResponseWriter, r *http.Request) {
	id, ok := dayIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	day, err := h.ledger.GetDay(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("ledger day lookup failed", "error", err, "day_id", id)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLedgerDayDTO(day))
}

func (h *LedgerHandler) SetClosingBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := dayIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req closingBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.ClosingBalance == nil {
		RespondValidationError(w, []FieldError{{Field: "closingBalance", Message: "required"}})
		return
	}

	day, err := h.ledger.SetClosingBalance(r.Context(), id, *req.ClosingBalance)
	if err != nil {
		logging.FromContext(r.Context()).Warn("set closing balance failed", "error", err, "day_id", id)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLedgerDayDTO(day))
}

func (h *LedgerHandler) SetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	id, ok := dayIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req openingBalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	date, fields := req.Validate()
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	day, err := h.ledger.SetOpeningBalance(r.Context(), id, *req.OpeningBalance, date)
	if err != nil {
		logging.FromContext(r.Context()).Warn("set opening balance failed", "error", err, "day_id", id)
		RespondDomainError(w, r, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toLedgerDayDTO(day))
}
