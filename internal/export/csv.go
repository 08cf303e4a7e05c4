// Package export renders monthly journals for bookkeeping import.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/josh-kwaku/kasboek/internal/domain"
)

var journalHeader = []string{"ledger_account", "label", "amount"}

// WriteJournalCSV writes lines in the order given, amounts with 2 decimals
// and a dot separator.
func WriteJournalCSV(w io.Writer, lines []domain.JournalLine) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(journalHeader); err != nil {
		return fmt.Errorf("WriteJournalCSV: %w", err)
	}

	for _, l := range lines {
		if err := cw.Write([]string{l.LedgerAccount, l.Label, l.Amount.StringFixed(2)}); err != nil {
			return fmt.Errorf("WriteJournalCSV: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("WriteJournalCSV: %w", err)
	}
	return nil
}

// JournalFilename is the suggested download name for a month's journal.
func JournalFilename(month domain.Month) string {
	return fmt.Sprintf("journal-%s.csv", month)
}
