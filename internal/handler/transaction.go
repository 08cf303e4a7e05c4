package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/logging"
	"github.com/josh-kwaku/kasboek/internal/service"
)

type addTransactionRequest struct {
	Kind        string           `json:"kind"`
	Category    string           `json:"category"`
	Amount      *decimal.Decimal `json:"amount"`
	VATRate     *string          `json:"vatRate"`
	Description *string          `json:"description"`
}

func (r addTransactionRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !domain.TransactionKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "must be receipt, expense, or other"})
	}

	if strings.TrimSpace(r.Category) == "" {
		errs = append(errs, FieldError{Field: "category", Message: "required"})
	}

	if r.Amount == nil {
		errs = append(errs, FieldError{Field: "amount", Message: "required"})
	} else if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}

	if r.VATRate != nil && !domain.VATRate(*r.VATRate).IsValid() {
		errs = append(errs, FieldError{Field: "vatRate", Message: "must be none, 9%, or 21%"})
	}

	return errs
}

func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := dayIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	txns, err := h.ledger.ListTransactions(r.Context(), id)
	if err != nil {
		logging.FromContext(r.Context()).Warn("list transactions failed", "error", err, "day_id", id)
		RespondDomainError(w, r, err)
		return
	}

	dtos := make([]transactionDTO, len(txns))
	for i := range txns {
		dtos[i] = toTransactionDTO(&txns[i])
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *LedgerHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := dayIDFromPath(r)
	if !ok {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req addTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	var rate *domain.VATRate
	if req.VATRate != nil {
		v := domain.VATRate(*req.VATRate)
		rate = &v
	}

	t, err := h.ledger.AddTransaction(r.Context(), service.AddTransactionRequest{
		DayID:       id,
		Kind:        domain.TransactionKind(req.Kind),
		Category:    strings.TrimSpace(req.Category),
		Amount:      *req.Amount,
		VATRate:     rate,
		Description: req.Description,
	})
	if err != nil {
		logging.FromContext(r.Context()).Warn("add transaction failed", "error", err, "day_id", id)
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/ledger/days/%d/transactions", t.DayID))
	RespondSuccess(w, http.StatusCreated, toTransactionDTO(t))
}
