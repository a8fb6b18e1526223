package analytic

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/activity"
	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
	"github.com/spendiq/spendiq/internal/store/storetest"
)

func newService(t *testing.T) *Service {
	t.Helper()
	return NewService(storetest.Open(t), slog.New(slog.DiscardHandler), activity.Nop{})
}

func TestCreateAccount_AndTree(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, AccountDraft{Code: "MKT", Name: "Marketing"})
	require.NoError(t, err)
	online, err := svc.CreateAccount(ctx, AccountDraft{Code: "MKT-ONL", Name: "Online", ParentCode: "MKT"})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, AccountDraft{Code: "MKT-ONL-ADS", Name: "Ads", ParentCode: "MKT-ONL"})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, AccountDraft{Code: "OPS", Name: "Operations"})
	require.NoError(t, err)

	tree, err := svc.Tree(ctx)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	assert.Equal(t, "MKT", tree[0].Code)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, online.ID, tree[0].Children[0].ID)
	require.Len(t, tree[0].Children[0].Children, 1)
	assert.Equal(t, "Ads", tree[0].Children[0].Children[0].Name)
	assert.Equal(t, "OPS", tree[1].Code)
}

func TestCreateAccount_Rejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, AccountDraft{Code: " ", Name: "x"})
	assert.ErrorIs(t, err, ledgererr.ErrValidation)

	_, err = svc.CreateAccount(ctx, AccountDraft{Code: "MKT", Name: "Marketing"})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, AccountDraft{Code: "MKT", Name: "Again"})
	assert.ErrorIs(t, err, ledgererr.ErrValidation)

	_, err = svc.CreateAccount(ctx, AccountDraft{Code: "X", Name: "Orphan", ParentCode: "NOPE"})
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestCreateRule_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.CreateRule(ctx, RuleDraft{
		Name:            "",
		TargetAccountID: "t",
		Conditions:      []model.Condition{{Field: "COLOR", Operator: "LIKE", Value: ""}},
	})
	require.ErrorIs(t, err, ledgererr.ErrValidation)
	assert.Contains(t, err.Error(), "rule name is required")
	assert.Contains(t, err.Error(), `unknown field "COLOR"`)
	assert.Contains(t, err.Error(), `unknown operator "LIKE"`)
	assert.Contains(t, err.Error(), "condition 1: value is required")

	_, err = svc.CreateRule(ctx, RuleDraft{Name: "r", TargetAccountID: "missing"})
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestFindAnalyticAccount(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	mkt, err := svc.CreateAccount(ctx, AccountDraft{Code: "MKT", Name: "Marketing"})
	require.NoError(t, err)
	it, err := svc.CreateAccount(ctx, AccountDraft{Code: "IT", Name: "IT"})
	require.NoError(t, err)

	_, err = svc.CreateRule(ctx, RuleDraft{
		Name: "ads", Priority: 10, TargetAccountID: mkt.ID,
		Conditions: []model.Condition{{Field: model.FieldDescription, Operator: model.OpContains, Value: "ads"}},
	})
	require.NoError(t, err)
	generic, err := svc.CreateRule(ctx, RuleDraft{
		Name: "acme", Priority: 1, TargetAccountID: it.ID,
		Conditions: []model.Condition{{Field: model.FieldVendor, Operator: model.OpEquals, Value: "acme"}},
	})
	require.NoError(t, err)

	got, ok, err := svc.FindAnalyticAccount(ctx, model.MatchContext{VendorID: "acme", Description: "Search ADS"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, mkt.ID, got)

	got, ok, err = svc.FindAnalyticAccount(ctx, model.MatchContext{VendorID: "acme", Description: "laptops"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, it.ID, got)

	require.NoError(t, svc.SetRuleActive(ctx, generic.ID, false))
	_, ok, err = svc.FindAnalyticAccount(ctx, model.MatchContext{VendorID: "acme", Description: "laptops"})
	require.NoError(t, err)
	assert.False(t, ok)

	rules, err := svc.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.False(t, rules[1].Active)

	r, err := svc.Rule(ctx, generic.ID)
	require.NoError(t, err)
	assert.Equal(t, "acme", r.Name)
	assert.False(t, r.Active)
	require.Len(t, r.Conditions, 1)
	assert.Equal(t, model.FieldVendor, r.Conditions[0].Field)
}

func TestRule_NotFound(t *testing.T) {
	_, err := newService(t).Rule(context.Background(), "missing")
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}

func TestSetRuleActive_NotFound(t *testing.T) {
	svc := newService(t)
	err := svc.SetRuleActive(context.Background(), "missing", true)
	assert.ErrorIs(t, err, ledgererr.ErrNotFound)
}
