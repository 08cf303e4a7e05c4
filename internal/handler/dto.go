package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/category"
	"github.com/josh-kwaku/kasboek/internal/domain"
)

// Money leaves the API as a fixed two-decimal string.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullMoney(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := money(d.Decimal)
	return &s
}

type ledgerDayDTO struct {
	ID             int64     `json:"id"`
	Date           string    `json:"date"`
	OpeningBalance string    `json:"openingBalance"`
	ClosingBalance *string   `json:"closingBalance"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func toLedgerDayDTO(d *domain.LedgerDay) ledgerDayDTO {
	return ledgerDayDTO{
		ID:             d.ID,
		Date:           d.Date.Format(domain.DateLayout),
		OpeningBalance: money(d.OpeningBalance),
		ClosingBalance: nullMoney(d.ClosingBalance),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

type transactionDTO struct {
	ID          int64     `json:"id"`
	DayID       int64     `json:"dayId"`
	Kind        string    `json:"kind"`
	Category    string    `json:"category"`
	Amount      string    `json:"amount"`
	VATRate     *string   `json:"vatRate"`
	Description *string   `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toTransactionDTO(t *domain.Transaction) transactionDTO {
	dto := transactionDTO{
		ID:          t.ID,
		DayID:       t.DayID,
		Kind:        string(t.Kind),
		Category:    t.Category,
		Amount:      money(t.Amount),
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
	}
	if t.VATRate != nil {
		r := string(*t.VATRate)
		dto.VATRate = &r
	}
	return dto
}

type journalLineDTO struct {
	LedgerAccount string `json:"ledgerAccount"`
	Label         string `json:"label"`
	Amount        string `json:"amount"`
}

type daySummaryDTO struct {
	DayID           int64   `json:"dayId"`
	Date            string  `json:"date"`
	OpeningBalance  string  `json:"openingBalance"`
	Receipts        string  `json:"receipts"`
	Expenses        string  `json:"expenses"`
	Other           string  `json:"other"`
	ExpectedClosing string  `json:"expectedClosing"`
	ClosingBalance  *string `json:"closingBalance"`
	Difference      *string `json:"difference"`
}

type monthSummaryDTO struct {
	Month    string          `json:"month"`
	Days     []daySummaryDTO `json:"days"`
	Receipts string          `json:"receipts"`
	Expenses string          `json:"expenses"`
	Other    string          `json:"other"`
}

func toMonthSummaryDTO(s *domain.MonthSummary) monthSummaryDTO {
	dto := monthSummaryDTO{
		Month:    s.Month.String(),
		Days:     make([]daySummaryDTO, 0, len(s.Days)),
		Receipts: money(s.Receipts),
		Expenses: money(s.Expenses),
		Other:    money(s.Other),
	}
	for _, d := range s.Days {
		dto.Days = append(dto.Days, daySummaryDTO{
			DayID:           d.Day.ID,
			Date:            d.Day.Date.Format(domain.DateLayout),
			OpeningBalance:  money(d.Day.OpeningBalance),
			Receipts:        money(d.Totals.Receipts),
			Expenses:        money(d.Totals.Expenses),
			Other:           money(d.Totals.Other),
			ExpectedClosing: money(d.ExpectedClosing),
			ClosingBalance:  nullMoney(d.Day.ClosingBalance),
			Difference:      nullMoney(d.Difference),
		})
	}
	return dto
}

type categoryDTO struct {
	Key           string  `json:"key"`
	LedgerAccount *string `json:"ledgerAccount"`
	Label         string  `json:"label"`
	VATTreatment  string  `json:"vatTreatment"`
}

func toCategoryDTO(r category.Rule) categoryDTO {
	return categoryDTO{
		Key:           r.Key,
		LedgerAccount: r.LedgerAccount,
		Label:         r.Label,
		VATTreatment:  string(r.VAT),
	}
}
