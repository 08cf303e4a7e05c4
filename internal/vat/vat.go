// Package vat extracts value-added tax from VAT-inclusive amounts.
package vat

import (
	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/kasboek/internal/category"
	"github.com/josh-kwaku/kasboek/internal/domain"
)

var lowRateFactor = decimal.RequireFromString("1.09")

// Split is a VAT-inclusive amount separated into its net and tax parts.
// Net + VAT always equals the original amount exactly.
type Split struct {
	Net decimal.Decimal
	VAT decimal.Decimal
}

// Applies reports whether 9% VAT is extracted for a transaction. Both the
// category rule and the transaction's own rate must say 9%; a disagreement
// books the full amount as net.
func Applies(treatment category.VATTreatment, rate *domain.VATRate) bool {
	return treatment == category.VATTreatmentLow && rate != nil && *rate == domain.VATLow
}

// BackCalculate splits amount. No rounding is applied; callers round once
// after accumulating.
func BackCalculate(amount decimal.Decimal, apply bool) Split {
	if !apply {
		return Split{Net: amount, VAT: decimal.Zero}
	}
	net := amount.Div(lowRateFactor)
	return Split{Net: net, VAT: amount.Sub(net)}
}
