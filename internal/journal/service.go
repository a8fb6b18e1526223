package journal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
)

// LineDraft is one proposed debit or credit.
type LineDraft struct {
	AccountID         string
	PartnerID         string
	AnalyticAccountID string
	Label             string
	Debit             decimal.Decimal
	Credit            decimal.Decimal
}

// Draft holds the parameters for creating a journal entry.
type Draft struct {
	Date      time.Time
	Reference string
	Lines     []LineDraft
}

// Service is the ledger poster: it validates, persists and posts journal entries.
type Service struct {
	store    store.Transactor
	log      *slog.Logger
	activity activity.Recorder
}

// NewService creates a journal Service.
func NewService(st store.Transactor, logger *slog.Logger, rec activity.Recorder) *Service {
	return &Service{store: st, log: logger, activity: rec}
}

// Create validates a draft and stores it as a DRAFT entry with all of its
// lines in one transaction. Nothing is stored when validation fails.
func (s *Service) Create(ctx context.Context, draft Draft) (model.JournalEntry, error) {
	var entry model.JournalEntry
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		entry, err = s.CreateInTx(ctx, q, draft)
		return err
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	debit, _ := entry.Totals()
	s.log.Info("journal entry created", "entry_id", entry.ID, "reference", entry.Reference, "lines", len(entry.Lines))
	s.record(activity.ActionEntryCreated, entry.ID, fmt.Sprintf("%s total %s", entry.Reference, debit.StringFixed(2)))
	return entry, nil
}

// CreateInTx is Create running inside a transaction owned by the caller, so
// document posting can commit the entry together with its own update.
func (s *Service) CreateInTx(ctx context.Context, q *store.Queries, draft Draft) (model.JournalEntry, error) {
	verrs := ValidateLines(draft.Lines)
	if draft.Date.IsZero() {
		verrs = append(verrs, ValidationError{Line: -1, Description: "date is required"})
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, ve := range verrs {
			msgs[i] = ve.Error()
		}
		return model.JournalEntry{}, fmt.Errorf("%w: %s", ledgererr.ErrValidation, strings.Join(msgs, "; "))
	}

	entry := model.JournalEntry{
		ID:        id.New(),
		Date:      model.Day(draft.Date),
		Reference: draft.Reference,
		State:     model.EntryStateDraft,
	}
	for i, l := range draft.Lines {
		entry.Lines = append(entry.Lines, model.JournalLine{
			ID:                id.New(),
			EntryID:           entry.ID,
			Seq:               i,
			AccountID:         l.AccountID,
			PartnerID:         l.PartnerID,
			AnalyticAccountID: l.AnalyticAccountID,
			Label:             l.Label,
			Debit:             l.Debit,
			Credit:            l.Credit,
		})
	}

	// Amounts are kept exact so the stored entry balances the same way.
	if err := CheckEntry(entry); err != nil {
		return model.JournalEntry{}, err
	}

	if err := checkReferences(ctx, q, entry.Lines); err != nil {
		return model.JournalEntry{}, err
	}

	if err := q.InsertJournalEntry(ctx, entry); err != nil {
		return model.JournalEntry{}, err
	}
	return q.GetJournalEntry(ctx, entry.ID)
}

func checkReferences(ctx context.Context, q *store.Queries, lines []model.JournalLine) error {
	seenAccounts := make(map[string]bool)
	seenAnalytic := make(map[string]bool)
	for _, l := range lines {
		if !seenAccounts[l.AccountID] {
			if _, err := q.GetAccount(ctx, l.AccountID); err != nil {
				return err
			}
			seenAccounts[l.AccountID] = true
		}
		if l.AnalyticAccountID != "" && !seenAnalytic[l.AnalyticAccountID] {
			if _, err := q.GetAnalyticAccount(ctx, l.AnalyticAccountID); err != nil {
				return err
			}
			seenAnalytic[l.AnalyticAccountID] = true
		}
	}
	return nil
}

// Post moves a DRAFT entry to POSTED after re-checking the balance of its
// stored lines.
func (s *Service) Post(ctx context.Context, entryID string) (model.JournalEntry, error) {
	var entry model.JournalEntry
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		var err error
		entry, err = s.PostInTx(ctx, q, entryID)
		return err
	})
	if err != nil {
		return model.JournalEntry{}, err
	}

	s.log.Info("journal entry posted", "entry_id", entry.ID, "reference", entry.Reference)
	s.record(activity.ActionEntryPosted, entry.ID, entry.Reference)
	return entry, nil
}

// PostInTx is Post running inside a transaction owned by the caller.
func (s *Service) PostInTx(ctx context.Context, q *store.Queries, entryID string) (model.JournalEntry, error) {
	entry, err := q.GetJournalEntry(ctx, entryID)
	if err != nil {
		return model.JournalEntry{}, err
	}
	if entry.Posted() {
		return model.JournalEntry{}, fmt.Errorf("journal entry %s: %w", entryID, ledgererr.ErrAlreadyPosted)
	}
	if err := CheckEntry(entry); err != nil {
		return model.JournalEntry{}, err
	}
	if err := q.SetJournalEntryState(ctx, entryID, model.EntryStatePosted); err != nil {
		return model.JournalEntry{}, err
	}
	entry.State = model.EntryStatePosted
	return entry, nil
}

// CreateAndPostInTx creates an entry and posts it in the caller's transaction.
func (s *Service) CreateAndPostInTx(ctx context.Context, q *store.Queries, draft Draft) (model.JournalEntry, error) {
	entry, err := s.CreateInTx(ctx, q, draft)
	if err != nil {
		return model.JournalEntry{}, err
	}
	return s.PostInTx(ctx, q, entry.ID)
}

// Delete removes a DRAFT entry together with its lines.
func (s *Service) Delete(ctx context.Context, entryID string) error {
	err := s.store.WithTx(ctx, func(q *store.Queries) error {
		entry, err := q.GetJournalEntry(ctx, entryID)
		if err != nil {
			return err
		}
		if entry.Posted() {
			return fmt.Errorf("journal entry %s cannot be deleted: %w", entryID, ledgererr.ErrAlreadyPosted)
		}
		return q.DeleteJournalEntry(ctx, entryID)
	})
	if err != nil {
		return err
	}

	s.log.Info("journal entry deleted", "entry_id", entryID)
	s.record(activity.ActionEntryDeleted, entryID, "")
	return nil
}

// FindAll returns every entry with account and analytic names joined in.
func (s *Service) FindAll(ctx context.Context) ([]model.JournalEntry, error) {
	return s.store.Queries().ListJournalEntries(ctx)
}

// FindOne returns a single entry by id.
func (s *Service) FindOne(ctx context.Context, entryID string) (model.JournalEntry, error) {
	return s.store.Queries().GetJournalEntry(ctx, entryID)
}

func (s *Service) record(action, subject, details string) {
	if err := s.activity.Record(activity.Entry{Action: action, Subject: subject, Details: details}); err != nil {
		s.log.Warn("failed to record activity", "action", action, "error", err)
	}
}
