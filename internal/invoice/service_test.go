package invoice

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/accounts"
	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/id"
	"github.com/spendiq/spendiq/internal/journal"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store"
	"github.com/spendiq/spendiq/internal/store/storetest"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fixture struct {
	st        *store.Store
	svc       *Service
	journal   *journal.Service
	accts     map[string]string
	marketing string
	log       *activity.Log
}

func newFixture(t *testing.T, chart ...model.Account) fixture {
	t.Helper()
	if len(chart) == 0 {
		chart = storetest.Chart
	}
	st := storetest.Open(t)
	logger := slog.New(slog.DiscardHandler)
	rec := activity.NewLog(t.TempDir(), "test")
	j := journal.NewService(st, logger, rec)
	return fixture{
		st:        st,
		svc:       NewService(st, j, accounts.DefaultSystemAccounts(), logger, rec),
		journal:   j,
		accts:     storetest.SeedAccounts(t, st, chart...),
		marketing: storetest.SeedAnalytic(t, st, "MKT", "Marketing"),
		log:       rec,
	}
}

func customerInvoice() Draft {
	return Draft{
		Type:      model.DocOutInvoice,
		Date:      date(2025, 3, 10),
		DueDate:   date(2025, 4, 9),
		PartnerID: "cust-1",
		Lines: []LineDraft{
			{Description: "Consulting", Quantity: dec("10"), UnitPrice: dec("45")},
			{Description: "Travel", Quantity: dec("1"), UnitPrice: dec("50")},
		},
	}
}

func (f fixture) vendorBill() Draft {
	return Draft{
		Type:      model.DocInInvoice,
		Date:      date(2025, 3, 12),
		PartnerID: "vendor-1",
		Lines: []LineDraft{
			{Description: "Search ads", Quantity: dec("1"), UnitPrice: dec("300"), AnalyticAccountID: f.marketing},
		},
	}
}

func TestCreate_NumbersAndTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)
	assert.Equal(t, "INV/2025/0001", inv.Number)
	assert.Equal(t, model.DocStatusDraft, inv.Status)
	assert.Equal(t, model.PaymentNotPaid, inv.PaymentState)
	assert.True(t, inv.TotalAmount.Equal(dec("500")))
	assert.True(t, inv.Lines[0].Subtotal.Equal(dec("450")))

	second, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)
	assert.Equal(t, "INV/2025/0002", second.Number)

	bill, err := f.svc.Create(ctx, f.vendorBill())
	require.NoError(t, err)
	assert.Equal(t, "BILL/2025/0001", bill.Number)

	got, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.True(t, got.DueDate.Equal(date(2025, 4, 9)))
	require.Len(t, got.Lines, 2)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), Draft{Type: "QUOTE", Lines: []LineDraft{{Quantity: dec("0"), UnitPrice: dec("-1")}}})
	require.ErrorIs(t, err, ledgererr.ErrValidation)
	for _, want := range []string{`unknown document type "QUOTE"`, "date is required", "partner is required", "line 1: quantity must be positive", "line 1: unit price -1 is negative"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestCreate_AssignsAnalyticByRule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.st.Queries().InsertRule(ctx, model.AutoAnalyticalRule{
		ID: id.New(), Name: "vendor-1 ads", Priority: 1, Active: true, TargetAccountID: f.marketing,
		Conditions: []model.Condition{
			{ID: id.New(), Field: model.FieldVendor, Operator: model.OpEquals, Value: "vendor-1"},
			{ID: id.New(), Field: model.FieldDescription, Operator: model.OpContains, Value: "ads"},
		},
	}))

	d := f.vendorBill()
	d.Lines = []LineDraft{
		{Description: "Display ADS", Quantity: dec("1"), UnitPrice: dec("100")},
		{Description: "Office chairs", Quantity: dec("2"), UnitPrice: dec("80")},
	}
	bill, err := f.svc.Create(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, f.marketing, bill.Lines[0].AnalyticAccountID)
	assert.Empty(t, bill.Lines[1].AnalyticAccountID)

	// The vendor condition only sees the partner on vendor documents.
	c := customerInvoice()
	c.PartnerID = "vendor-1"
	c.Lines = []LineDraft{{Description: "ads", Quantity: dec("1"), UnitPrice: dec("1")}}
	inv, err := f.svc.Create(ctx, c)
	require.NoError(t, err)
	assert.Empty(t, inv.Lines[0].AnalyticAccountID)
}

func TestPost_CustomerInvoice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)

	posted, err := f.svc.Post(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusPosted, posted.Status)
	require.NotEmpty(t, posted.JournalEntryID)

	entry, err := f.journal.FindOne(ctx, posted.JournalEntryID)
	require.NoError(t, err)
	assert.True(t, entry.Posted())
	assert.Equal(t, "INV/2025/0001", entry.Reference)
	require.Len(t, entry.Lines, 3)

	assert.Equal(t, "1200", entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Debit.Equal(dec("500")))
	assert.Equal(t, "cust-1", entry.Lines[0].PartnerID)
	assert.Equal(t, "4000", entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].Credit.Equal(dec("450")))
	assert.True(t, entry.Lines[2].Credit.Equal(dec("50")))

	stored, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusPosted, stored.Status)
	assert.Equal(t, entry.ID, stored.JournalEntryID)
}

func TestPost_Sides(t *testing.T) {
	tests := []struct {
		typ           model.DocumentType
		partnerCode   string
		counterCode   string
		partnerDebits bool
	}{
		{model.DocOutInvoice, "1200", "4000", true},
		{model.DocOutRefund, "1200", "4000", false},
		{model.DocInInvoice, "2100", "5000", false},
		{model.DocInRefund, "2100", "5000", true},
	}
	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			d := f.vendorBill()
			d.Type = tt.typ
			inv, err := f.svc.Create(ctx, d)
			require.NoError(t, err)
			posted, err := f.svc.Post(ctx, inv.ID)
			require.NoError(t, err)

			entry, err := f.journal.FindOne(ctx, posted.JournalEntryID)
			require.NoError(t, err)
			require.Len(t, entry.Lines, 2)
			partner, counter := entry.Lines[0], entry.Lines[1]
			assert.Equal(t, tt.partnerCode, partner.AccountCode)
			assert.Equal(t, tt.counterCode, counter.AccountCode)
			assert.Equal(t, "Marketing", counter.AnalyticAccountName)
			if tt.partnerDebits {
				assert.True(t, partner.Debit.Equal(dec("300")))
				assert.True(t, counter.Credit.Equal(dec("300")))
			} else {
				assert.True(t, partner.Credit.Equal(dec("300")))
				assert.True(t, counter.Debit.Equal(dec("300")))
			}
		})
	}
}

func TestPost_LineAccountOverridesDefault(t *testing.T) {
	f := newFixture(t, append(storetest.Chart, model.Account{Code: "4100", Name: "Service Revenue", Type: model.AccountTypeIncome})...)
	ctx := context.Background()

	d := customerInvoice()
	d.Lines[1].AccountID = f.accts["4100"]
	inv, err := f.svc.Create(ctx, d)
	require.NoError(t, err)
	posted, err := f.svc.Post(ctx, inv.ID)
	require.NoError(t, err)

	entry, err := f.journal.FindOne(ctx, posted.JournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, "4000", entry.Lines[1].AccountCode)
	assert.Equal(t, "4100", entry.Lines[2].AccountCode)
}

func TestPost_NotRepostable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, inv.ID)
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, inv.ID)
	require.ErrorIs(t, err, ledgererr.ErrAlreadyPosted)

	entries, err := f.journal.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "a second post must not create another entry")

	_, err = f.svc.Post(ctx, "missing")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestPost_MissingSystemAccountIsAtomic(t *testing.T) {
	f := newFixture(t, storetest.Chart[0], storetest.Chart[1]) // bank and receivable only
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, inv.ID)
	require.ErrorIs(t, err, ledgererr.ErrMissingSystemAccount)
	assert.Contains(t, err.Error(), "4000")

	stored, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusDraft, stored.Status)
	assert.Empty(t, stored.JournalEntryID)

	entries, err := f.journal.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPost_VendorLinesNeedAnalytic(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.vendorBill()
	d.Lines = append(d.Lines,
		LineDraft{Description: "Chairs", Quantity: dec("2"), UnitPrice: dec("80")},
		LineDraft{Description: "Desk", Quantity: dec("1"), UnitPrice: dec("200")},
	)
	bill, err := f.svc.Create(ctx, d)
	require.NoError(t, err)

	_, err = f.svc.Post(ctx, bill.ID)
	require.ErrorIs(t, err, ledgererr.ErrMissingAnalyticAccount)
	var missing *MissingAnalyticAccountError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 2, missing.Lines)

	entries, err := f.journal.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Customer documents may leave lines untagged.
	inv, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, inv.ID)
	assert.NoError(t, err)
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)
	cancelled, err := f.svc.Cancel(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, inv.ID)
	assert.ErrorIs(t, err, ledgererr.ErrInvalidState)
	_, err = f.svc.Post(ctx, inv.ID)
	assert.ErrorIs(t, err, ledgererr.ErrInvalidState)

	posted, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, posted.ID)
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, posted.ID)
	assert.ErrorIs(t, err, ledgererr.ErrAlreadyPosted)
}

func TestRegisterPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)

	_, err = f.svc.RegisterPayment(ctx, inv.ID, dec("100"), date(2025, 3, 20))
	require.ErrorIs(t, err, ledgererr.ErrInvalidState, "drafts cannot be paid")

	_, err = f.svc.Post(ctx, inv.ID)
	require.NoError(t, err)

	pay, err := f.svc.RegisterPayment(ctx, inv.ID, dec("200"), date(2025, 3, 20))
	require.NoError(t, err)
	entry, err := f.journal.FindOne(ctx, pay.JournalEntryID)
	require.NoError(t, err)
	assert.True(t, entry.Posted())
	assert.Equal(t, "1010", entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Debit.Equal(dec("200")))
	assert.Equal(t, "1200", entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].Credit.Equal(dec("200")))

	got, err := f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPartial, got.PaymentState)
	assert.True(t, got.Outstanding().Equal(dec("300")))

	_, err = f.svc.RegisterPayment(ctx, inv.ID, dec("300.01"), date(2025, 3, 21))
	require.ErrorIs(t, err, ledgererr.ErrValidation)
	_, err = f.svc.RegisterPayment(ctx, inv.ID, dec("0"), date(2025, 3, 21))
	require.ErrorIs(t, err, ledgererr.ErrValidation)

	_, err = f.svc.RegisterPayment(ctx, inv.ID, dec("300"), date(2025, 3, 21))
	require.NoError(t, err)
	got, err = f.svc.Get(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaid, got.PaymentState)

	pays, err := f.svc.Payments(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, pays, 2)

	logged, err := f.log.Read()
	require.NoError(t, err)
	var actions []string
	for _, e := range logged {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, activity.ActionPaymentRecorded)
	assert.Contains(t, actions, activity.ActionInvoicePosted)
}

func TestRegisterPayment_VendorBillPaysOut(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bill, err := f.svc.Create(ctx, f.vendorBill())
	require.NoError(t, err)
	_, err = f.svc.Post(ctx, bill.ID)
	require.NoError(t, err)

	pay, err := f.svc.RegisterPayment(ctx, bill.ID, dec("300"), date(2025, 3, 30))
	require.NoError(t, err)
	entry, err := f.journal.FindOne(ctx, pay.JournalEntryID)
	require.NoError(t, err)
	assert.Equal(t, "1010", entry.Lines[0].AccountCode)
	assert.True(t, entry.Lines[0].Credit.Equal(dec("300")))
	assert.Equal(t, "2100", entry.Lines[1].AccountCode)
	assert.True(t, entry.Lines[1].Debit.Equal(dec("300")))
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, customerInvoice())
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.vendorBill())
	require.NoError(t, err)

	all, err := f.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BILL/2025/0001", all[0].Number, "newest first")
}
