package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/domain"
	"github.com/josh-kwaku/kasboek/internal/logging"
	"github.com/josh-kwaku/kasboek/internal/vat"
)

type dayLister interface {
	List(ctx context.Context, month *domain.Month) ([]domain.LedgerDay, error)
}

type JournalService struct {
	reports reportRepository
	days    dayLister
	rules   ruleResolver
}

func NewJournalService(reports reportRepository, days dayLister, rules ruleResolver) *JournalService {
	return &JournalService{reports: reports, days: days, rules: rules}
}

// BuildJournal produces the month's accounting journal: one line per
// (ledger account, label) with VAT-exclusive totals, plus a VAT payable line
// when any VAT was extracted. An empty month yields an empty slice.
func (s *JournalService) BuildJournal(ctx context.Context, month domain.Month) ([]domain.JournalLine, error) {
	totals, err := s.reports.CategoryTotals(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("BuildJournal: %w", err)
	}

	lines := buildJournal(totals, s.rules)

	logging.FromContext(ctx).Info("journal built",
		"month", month.String(),
		"groups", len(totals),
		"lines", len(lines),
	)
	return lines, nil
}

type journalKey struct {
	account string
	label   string
}

func buildJournal(totals []domain.CategoryTotal, rules ruleResolver) []domain.JournalLine {
	net := make(map[journalKey]decimal.Decimal)
	totalVAT := decimal.Zero

	for _, ct := range totals {
		rule, ok := rules.Resolve(ct.Category)
		if !ok || rule.LedgerAccount == nil {
			continue
		}

		split := vat.BackCalculate(ct.Amount, vat.Applies(rule.VAT, ct.VATRate))

		key := journalKey{account: *rule.LedgerAccount, label: rule.Label}
		net[key] = net[key].Add(split.Net)
		totalVAT = totalVAT.Add(split.VAT)
	}

	keys := make([]journalKey, 0, len(net))
	for k := range net {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].account != keys[j].account {
			return keys[i].account < keys[j].account
		}
		return keys[i].label < keys[j].label
	})

	lines := make([]domain.JournalLine, 0, len(keys)+1)
	for _, k := range keys {
		lines = append(lines, domain.JournalLine{
			LedgerAccount: k.account,
			Label:         k.label,
			Amount:        net[k].Round(2),
		})
	}

	if vatAmount := totalVAT.Round(2); vatAmount.IsPositive() {
		lines = append(lines, domain.JournalLine{
			LedgerAccount: domain.VATPayableAccount,
			Label:         domain.VATPayableLabel,
			Amount:        vatAmount,
		})
	}

	return lines
}

// MonthSummary rolls the month's days up into expected closing balances and
// reconciliation differences.
func (s *JournalService) MonthSummary(ctx context.Context, month domain.Month) (*domain.MonthSummary, error) {
	days, err := s.days.List(ctx, &month)
	if err != nil {
		return nil, fmt.Errorf("MonthSummary: %w", err)
	}

	totals, err := s.reports.DayTotals(ctx, month.Start(), month.End())
	if err != nil {
		return nil, fmt.Errorf("MonthSummary: %w", err)
	}

	return summarize(month, days, totals), nil
}

func summarize(month domain.Month, days []domain.LedgerDay, totals map[int64]domain.DayTotals) *domain.MonthSummary {
	summary := &domain.MonthSummary{
		Month:    month,
		Days:     make([]domain.DaySummary, 0, len(days)),
		Receipts: decimal.Zero,
		Expenses: decimal.Zero,
		Other:    decimal.Zero,
	}

	for _, d := range days {
		t := totals[d.ID]
		ds := domain.DaySummary{
			Day:             d,
			Totals:          t,
			ExpectedClosing: t.ExpectedClosing(d.OpeningBalance),
		}
		if d.ClosingBalance.Valid {
			ds.Difference = decimal.NewNullDecimal(d.ClosingBalance.Decimal.Sub(ds.ExpectedClosing))
		}

		summary.Days = append(summary.Days, ds)
		summary.Receipts = summary.Receipts.Add(t.Receipts)
		summary.Expenses = summary.Expenses.Add(t.Expenses)
		summary.Other = summary.Other.Add(t.Other)
	}

	return summary
}
