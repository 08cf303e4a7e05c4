package service

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

func TestCarryForward(t *testing.T) {
	tests := []struct {
		name   string
		days   []domain.LedgerDay
		totals map[int64]domain.DayTotals
		want   map[int64]string
	}{
		{
			name: "expected closing carries when no count was made",
			days: []domain.LedgerDay{
				{ID: 1, OpeningBalance: dec("150.00")},
				{ID: 2, OpeningBalance: dec("100.00")},
				{ID: 3, OpeningBalance: dec("100.00")},
			},
			totals: map[int64]domain.DayTotals{
				1: {Receipts: dec("50.00"), Expenses: dec("20.00"), Other: dec("999.00")},
				2: {Receipts: dec("10.00")},
			},
			want: map[int64]string{2: "180.00", 3: "190.00"},
		},
		{
			name: "counted closing balance wins",
			days: []domain.LedgerDay{
				{ID: 1, OpeningBalance: dec("150.00"), ClosingBalance: decimal.NewNullDecimal(dec("170.00"))},
				{ID: 2, OpeningBalance: dec("100.00")},
			},
			totals: map[int64]domain.DayTotals{
				1: {Receipts: dec("50.00")},
			},
			want: map[int64]string{2: "170.00"},
		},
		{
			name: "unchanged days are skipped",
			days: []domain.LedgerDay{
				{ID: 1, OpeningBalance: dec("100.00")},
				{ID: 2, OpeningBalance: dec("100.00")},
			},
			totals: map[int64]domain.DayTotals{},
			want:   map[int64]string{},
		},
		{
			name: "single day",
			days: []domain.LedgerDay{{ID: 1, OpeningBalance: dec("1.00")}},
			want: map[int64]string{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := map[int64]string{}
			for _, c := range carryForward(tc.days, tc.totals) {
				got[c.dayID] = c.opening.StringFixed(2)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}
