package accounts

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/model"
)

func TestRoundTrip(t *testing.T) {
	accounts := []model.Account{
		{Code: "1010", Name: "Bank", Type: model.AccountTypeAsset, Reconcilable: true},
		{Code: "5200", Name: "Software & SaaS", Type: model.AccountTypeExpense},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteAccounts(&buf, accounts))
	assert.True(t, strings.HasPrefix(buf.String(), Header+"\n"))

	got, err := ReadAccounts(&buf)
	require.NoError(t, err)
	assert.Equal(t, accounts, got)
}

func TestReadAccounts_Lenient(t *testing.T) {
	in := Header + "\n" +
		" 4000 ,Sales,INCOME,\n"
	got, err := ReadAccounts(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "4000", got[0].Code)
	assert.Equal(t, model.AccountTypeIncome, got[0].Type)
	assert.False(t, got[0].Reconcilable)
}

func TestReadAccounts_Errors(t *testing.T) {
	tests := []struct {
		name string
		row  string
		want string
	}{
		{"bad type", "9000,Misc,revenue,false", `unknown account type "revenue"`},
		{"missing code", ",Misc,expense,false", "code is required"},
		{"bad flag", "9000,Misc,expense,maybe", `parsing reconcilable "maybe"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadAccounts(strings.NewReader(Header + "\n" + tt.row + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "row 2")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadAccounts_Empty(t *testing.T) {
	got, err := ReadAccounts(strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnmarshalAccount_FieldCount(t *testing.T) {
	_, err := UnmarshalAccount([]string{"1010"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 4 fields")
}
