package accounts

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spendiq/spendiq/internal/model"
)

// Header is the CSV header of a chart-of-accounts file.
const Header = "code,name,type,reconcilable"

const (
	numFields       = 4
	colCode         = 0
	colName         = 1
	colType         = 2
	colReconcilable = 3
)

// ReadAccounts reads a chart-of-accounts CSV. IDs are left empty; the store
// assigns them on import.
func ReadAccounts(r io.Reader) ([]model.Account, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading accounts CSV: %w", err)
	}

	if len(records) == 0 {
		return nil, nil
	}

	var accounts []model.Account
	for i, rec := range records[1:] {
		acct, err := UnmarshalAccount(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		accounts = append(accounts, acct)
	}
	return accounts, nil
}

// WriteAccounts writes a chart-of-accounts CSV.
func WriteAccounts(w io.Writer, accounts []model.Account) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, acct := range accounts {
		if err := cw.Write(MarshalAccount(acct)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// MarshalAccount converts an Account to a CSV row.
func MarshalAccount(acct model.Account) []string {
	row := make([]string, numFields)
	row[colCode] = acct.Code
	row[colName] = acct.Name
	row[colType] = string(acct.Type)
	row[colReconcilable] = strconv.FormatBool(acct.Reconcilable)
	return row
}

// UnmarshalAccount converts a CSV row to an Account.
func UnmarshalAccount(record []string) (model.Account, error) {
	if len(record) != numFields {
		return model.Account{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	code := strings.TrimSpace(record[colCode])
	if code == "" {
		return model.Account{}, fmt.Errorf("code is required")
	}

	typ := model.AccountType(strings.ToLower(strings.TrimSpace(record[colType])))
	if !typ.Valid() {
		return model.Account{}, fmt.Errorf("unknown account type %q", record[colType])
	}

	var reconcilable bool
	if s := strings.TrimSpace(record[colReconcilable]); s != "" {
		var err error
		reconcilable, err = strconv.ParseBool(s)
		if err != nil {
			return model.Account{}, fmt.Errorf("parsing reconcilable %q: %w", s, err)
		}
	}

	return model.Account{
		Code:         code,
		Name:         record[colName],
		Type:         typ,
		Reconcilable: reconcilable,
	}, nil
}
