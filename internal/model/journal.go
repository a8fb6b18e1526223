package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryState represents the lifecycle state of a journal entry.
type EntryState string

const (
	EntryStateDraft  EntryState = "DRAFT"
	EntryStatePosted EntryState = "POSTED"
)

// JournalLine is one side of a double-entry. Exactly one of Debit/Credit is
// conventionally nonzero, though only non-negativity is enforced.
type JournalLine struct {
	ID                string
	EntryID           string
	Seq               int
	AccountID         string
	PartnerID         string
	AnalyticAccountID string
	Label             string
	Debit             decimal.Decimal
	Credit            decimal.Decimal

	// Display projections filled by reads.
	AccountCode         string
	AccountName         string
	AnalyticAccountName string
}

// JournalEntry is the header of one accounting event. It owns its lines.
type JournalEntry struct {
	ID        string
	Date      time.Time
	Reference string
	State     EntryState
	Lines     []JournalLine
}

// Totals returns the sum of debits and the sum of credits across all lines.
func (e JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, l := range e.Lines {
		debit = debit.Add(l.Debit)
		credit = credit.Add(l.Credit)
	}
	return debit, credit
}

// Posted reports whether the entry reached its terminal state.
func (e JournalEntry) Posted() bool {
	return e.State == EntryStatePosted
}
