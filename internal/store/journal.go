package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

const journalLineSelect = `
	SELECT l.id, l.entry_id, l.seq, l.account_id, a.code, a.name, l.partner_id,
	       COALESCE(l.analytic_account_id, ''), COALESCE(aa.name, ''), l.label, l.debit, l.credit
	FROM journal_lines l
	JOIN accounts a ON a.id = l.account_id
	LEFT JOIN analytic_accounts aa ON aa.id = l.analytic_account_id`

// InsertJournalEntry writes the entry header and all of its lines. Callers
// wrap it in WithTx so a failed line insert leaves no header behind.
func (q *Queries) InsertJournalEntry(ctx context.Context, e model.JournalEntry) error {
	_, err := q.db.ExecContext(ctx, `
	INSERT INTO journal_entries(id, date, reference, state)
	VALUES (?, ?, ?, ?)`,
		e.ID, formatDate(e.Date), e.Reference, string(e.State))
	if err != nil {
		return fmt.Errorf("inserting journal entry: %w", err)
	}

	for _, l := range e.Lines {
		_, err := q.db.ExecContext(ctx, `
		INSERT INTO journal_lines(id, entry_id, seq, account_id, partner_id, analytic_account_id, label, debit, credit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, e.ID, l.Seq, l.AccountID, l.PartnerID, nullString(l.AnalyticAccountID), l.Label,
			l.Debit.String(), l.Credit.String())
		if err != nil {
			return fmt.Errorf("inserting journal line %d: %w", l.Seq, err)
		}
	}
	return nil
}

// GetJournalEntry returns an entry with its lines in order.
func (q *Queries) GetJournalEntry(ctx context.Context, id string) (model.JournalEntry, error) {
	row := q.db.QueryRowContext(ctx, `SELECT id, date, reference, state FROM journal_entries WHERE id = ?`, id)
	e, err := scanJournalEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.JournalEntry{}, ledgererr.NotFoundf("journal entry %s", id)
	}
	if err != nil {
		return model.JournalEntry{}, err
	}

	rows, err := q.db.QueryContext(ctx, journalLineSelect+` WHERE l.entry_id = ? ORDER BY l.seq`, id)
	if err != nil {
		return model.JournalEntry{}, fmt.Errorf("reading journal lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanJournalLine(rows)
		if err != nil {
			return model.JournalEntry{}, err
		}
		e.Lines = append(e.Lines, l)
	}
	return e, rows.Err()
}

// ListJournalEntries returns all entries, newest date first, with lines.
func (q *Queries) ListJournalEntries(ctx context.Context) ([]model.JournalEntry, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT id, date, reference, state FROM journal_entries ORDER BY date DESC, created_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing journal entries: %w", err)
	}
	var entries []model.JournalEntry
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanJournalEntry(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		index[e.ID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	lineRows, err := q.db.QueryContext(ctx, journalLineSelect+` ORDER BY l.entry_id, l.seq`)
	if err != nil {
		return nil, fmt.Errorf("reading journal lines: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		l, err := scanJournalLine(lineRows)
		if err != nil {
			return nil, err
		}
		if i, ok := index[l.EntryID]; ok {
			entries[i].Lines = append(entries[i].Lines, l)
		}
	}
	return entries, lineRows.Err()
}

// SetJournalEntryState moves an entry to state.
func (q *Queries) SetJournalEntryState(ctx context.Context, id string, state model.EntryState) error {
	res, err := q.db.ExecContext(ctx, `UPDATE journal_entries SET state = ? WHERE id = ?`, string(state), id)
	if err != nil {
		return fmt.Errorf("updating journal entry %s: %w", id, err)
	}
	return requireOneRow(res, "journal entry "+id)
}

// DeleteJournalEntry removes an entry; its lines cascade.
func (q *Queries) DeleteJournalEntry(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting journal entry %s: %w", id, err)
	}
	return requireOneRow(res, "journal entry "+id)
}

// CountJournalEntries returns the number of stored entries.
func (q *Queries) CountJournalEntries(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting journal entries: %w", err)
	}
	return n, nil
}

func scanJournalEntry(s scanner) (model.JournalEntry, error) {
	var e model.JournalEntry
	var date, state string
	if err := s.Scan(&e.ID, &date, &e.Reference, &state); err != nil {
		return model.JournalEntry{}, err
	}
	d, err := parseDate(date)
	if err != nil {
		return model.JournalEntry{}, err
	}
	e.Date = d
	e.State = model.EntryState(state)
	return e, nil
}

func scanJournalLine(s scanner) (model.JournalLine, error) {
	var l model.JournalLine
	err := s.Scan(&l.ID, &l.EntryID, &l.Seq, &l.AccountID, &l.AccountCode, &l.AccountName, &l.PartnerID,
		&l.AnalyticAccountID, &l.AnalyticAccountName, &l.Label, &l.Debit, &l.Credit)
	if err != nil {
		return model.JournalLine{}, fmt.Errorf("scanning journal line: %w", err)
	}
	return l, nil
}

func requireOneRow(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledgererr.NotFoundf("%s", what)
	}
	return nil
}
