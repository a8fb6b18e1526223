package journal

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
	"github.com/spendiq/spendiq/internal/store/storetest"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	st    *store.Store
	svc   *Service
	accts map[string]string
	log   *activity.Log
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := storetest.Open(t)
	rec := activity.NewLog(t.TempDir(), "test")
	return fixture{
		st:    st,
		svc:   NewService(st, slog.New(slog.DiscardHandler), rec),
		accts: storetest.SeedAccounts(t, st, storetest.Chart...),
		log:   rec,
	}
}

func (f fixture) saleDraft(amount string) Draft {
	return Draft{
		Date:      date(2025, 1, 15),
		Reference: "Consulting",
		Lines: []LineDraft{
			{AccountID: f.accts["1200"], PartnerID: "cust-1", Debit: dec(amount)},
			{AccountID: f.accts["4000"], Label: "Consulting", Credit: dec(amount)},
		},
	}
}

func TestCreate_StoresDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.Create(ctx, f.saleDraft("500"))
	require.NoError(t, err)
	assert.Equal(t, model.EntryStateDraft, entry.State)
	require.Len(t, entry.Lines, 2)
	assert.Equal(t, "1200", entry.Lines[0].AccountCode)
	assert.Equal(t, "Sales", entry.Lines[1].AccountName)

	got, err := f.svc.FindOne(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)

	logged, err := f.log.Read()
	require.NoError(t, err)
	require.Len(t, logged, 1)
	assert.Equal(t, activity.ActionEntryCreated, logged[0].Action)
	assert.Equal(t, "Consulting total 500.00", logged[0].Details)
}

func TestCreate_UnbalancedStoresNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.saleDraft("500")
	d.Lines[1].Credit = dec("450")

	_, err := f.svc.Create(ctx, d)
	require.ErrorIs(t, err, ledgererr.ErrUnbalanced)
	assert.Contains(t, err.Error(), "debits (500.00) != credits (450.00)")

	all, err := f.svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreate_RoundingWithinTolerance(t *testing.T) {
	f := newFixture(t)
	d := Draft{
		Date: date(2025, 2, 1),
		Lines: []LineDraft{
			{AccountID: f.accts["5000"], Debit: dec("33.333")},
			{AccountID: f.accts["5000"], Debit: dec("33.333")},
			{AccountID: f.accts["5000"], Debit: dec("33.333")},
			{AccountID: f.accts["1010"], Credit: dec("100")},
		},
	}
	entry, err := f.svc.Create(context.Background(), d)
	require.NoError(t, err)

	debit, credit := entry.Totals()
	assert.True(t, debit.Equal(dec("99.999")), "amounts are stored exactly")
	assert.True(t, credit.Equal(dec("100")))

	stored, err := f.svc.FindOne(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.True(t, stored.Lines[0].Debit.Equal(dec("33.333")))
}

func TestCreate_ToleranceAppliesToExactAmounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	lines := func(debit, credit string) []LineDraft {
		return []LineDraft{
			{AccountID: f.accts["5000"], Debit: dec(debit)},
			{AccountID: f.accts["5000"], Debit: dec(debit)},
			{AccountID: f.accts["5000"], Debit: dec(debit)},
			{AccountID: f.accts["1010"], Credit: dec(credit)},
		}
	}

	// 0.012 apart even though every line is below a cent.
	_, err := f.svc.Create(ctx, Draft{Date: date(2025, 2, 1), Lines: lines("0.004", "0")})
	var unbalanced *UnbalancedError
	require.ErrorAs(t, err, &unbalanced)
	assert.ErrorIs(t, err, ledgererr.ErrUnbalanced)
	assert.Contains(t, err.Error(), "debits (0.012) != credits (0.00)")

	// 0.005 apart; rounding each line to cents would put it 0.02 apart.
	entry, err := f.svc.Create(ctx, Draft{Date: date(2025, 2, 1), Lines: lines("0.005", "0.01")})
	require.NoError(t, err)

	posted, err := f.svc.Post(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, posted.Posted())

	n, err := f.st.Queries().CountJournalEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the balanced entry is stored")
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, Draft{Date: date(2025, 1, 1)})
	assert.ErrorIs(t, err, ledgererr.ErrValidation)

	d := f.saleDraft("10")
	d.Date = time.Time{}
	_, err = f.svc.Create(ctx, d)
	require.ErrorIs(t, err, ledgererr.ErrValidation)
	assert.Contains(t, err.Error(), "date is required")

	d = f.saleDraft("10")
	d.Lines[0].Debit = dec("-10")
	d.Lines[1].Credit = dec("-10")
	_, err = f.svc.Create(ctx, d)
	require.ErrorIs(t, err, ledgererr.ErrValidation)
	assert.Contains(t, err.Error(), "line 1: debit -10 is negative")
}

func TestCreate_UnknownReferences(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.saleDraft("10")
	d.Lines[1].AccountID = "no-such-account"
	_, err := f.svc.Create(ctx, d)
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	d = f.saleDraft("10")
	d.Lines[1].AnalyticAccountID = "no-such-analytic"
	_, err = f.svc.Create(ctx, d)
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.svc.Create(ctx, f.saleDraft("500"))
	require.NoError(t, err)

	posted, err := f.svc.Post(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, posted.Posted())

	_, err = f.svc.Post(ctx, entry.ID)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyPosted)

	_, err = f.svc.Post(ctx, "missing")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestPost_RevalidatesStoredLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Write an unbalanced draft directly, bypassing Create.
	bad := model.JournalEntry{
		ID:    "bad",
		Date:  date(2025, 1, 1),
		State: model.EntryStateDraft,
		Lines: []model.JournalLine{
			{ID: "l1", AccountID: f.accts["1010"], Debit: dec("10"), Credit: decimal.Zero},
			{ID: "l2", AccountID: f.accts["4000"], Debit: decimal.Zero, Credit: dec("5")},
		},
	}
	require.NoError(t, f.st.WithTx(ctx, func(q *store.Queries) error {
		return q.InsertJournalEntry(ctx, bad)
	}))

	_, err := f.svc.Post(ctx, "bad")
	require.ErrorIs(t, err, ledgererr.ErrUnbalanced)

	got, err := f.svc.FindOne(ctx, "bad")
	require.NoError(t, err)
	assert.Equal(t, model.EntryStateDraft, got.State)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	draft, err := f.svc.Create(ctx, f.saleDraft("10"))
	require.NoError(t, err)
	posted, err := f.svc.Create(ctx, f.saleDraft("20"))
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, posted.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, draft.ID))
	_, err = f.svc.FindOne(ctx, draft.ID)
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)

	err = f.svc.Delete(ctx, posted.ID)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyPosted)

	all, err := f.svc.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, posted.ID, all[0].ID)
}

func TestCreateInTx_RollsBackWithCaller(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.st.WithTx(ctx, func(q *store.Queries) error {
		entry, err := f.svc.CreateInTx(ctx, q, f.saleDraft("10"))
		if err != nil {
			return err
		}
		_, err = f.svc.PostInTx(ctx, q, entry.ID)
		if err != nil {
			return err
		}
		return ledgererr.ErrMissingSystemAccount
	})
	require.ErrorIs(t, err, ledgererr.ErrMissingSystemAccount)

	all, err := f.svc.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
