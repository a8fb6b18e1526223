package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/spendiq/spendiq/internal/model"
)

// Header is the CSV header written by WriteLines.
const Header = "entry_id,date,reference,state,seq,account_code,account_name,partner_id,analytic_account,label,debit,credit"

const (
	numFields    = 12
	colEntryID   = 0
	colDate      = 1
	colReference = 2
	colState     = 3
	colSeq       = 4
	colAcctCode  = 5
	colAcctName  = 6
	colPartner   = 7
	colAnalytic  = 8
	colLabel     = 9
	colDebit     = 10
	colCredit    = 11
)

// WriteLines writes one row per journal line, header first.
func WriteLines(w io.Writer, entries []model.JournalEntry) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	for _, e := range entries {
		for _, l := range e.Lines {
			if err := cw.Write(MarshalLine(e, l)); err != nil {
				return fmt.Errorf("writing row %d: %w", row, err)
			}
			row++
		}
	}

	cw.Flush()
	return cw.Error()
}

// MarshalLine converts a line of entry e to a CSV row. Zero amounts are left
// blank so each row shows only its debit or its credit.
func MarshalLine(e model.JournalEntry, l model.JournalLine) []string {
	row := make([]string, numFields)
	row[colEntryID] = e.ID
	row[colDate] = e.Date.Format(model.DateLayout)
	row[colReference] = e.Reference
	row[colState] = string(e.State)
	row[colSeq] = fmt.Sprint(l.Seq + 1)
	row[colAcctCode] = l.AccountCode
	row[colAcctName] = l.AccountName
	row[colPartner] = l.PartnerID
	row[colAnalytic] = l.AnalyticAccountName
	row[colLabel] = l.Label

	if !l.Debit.IsZero() {
		row[colDebit] = l.Debit.StringFixed(2)
	}
	if !l.Credit.IsZero() {
		row[colCredit] = l.Credit.StringFixed(2)
	}
	return row
}
