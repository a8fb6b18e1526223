package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/model"
)

// BillsHeader is the header of the native bill list format.
const BillsHeader = "date,vendor,description,category,amount"

const (
	billsNumFields = 5
	billsColDate   = 0
	billsColVendor = 1
	billsColDesc   = 2
	billsColCat    = 3
	billsColAmount = 4
)

// BillsParser reads the native bill list: one positive amount per row with
// YYYY-MM-DD dates.
type BillsParser struct{}

// Format returns the parser name.
func (p *BillsParser) Format() string { return "bills" }

// Parse reads a bill list CSV.
func (p *BillsParser) Parse(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = billsNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading bills CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	if got := strings.Join(records[0], ","); !strings.EqualFold(got, BillsHeader) {
		return nil, fmt.Errorf("unexpected header %q, want %q", got, BillsHeader)
	}

	rows := make([]Row, 0, len(records)-1)
	for i, rec := range records[1:] {
		row, err := parseBillRow(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseBillRow(rec []string) (Row, error) {
	date, err := time.Parse(model.DateLayout, rec[billsColDate])
	if err != nil {
		return Row{}, fmt.Errorf("parsing date %q: %w", rec[billsColDate], err)
	}
	amount, err := decimal.NewFromString(rec[billsColAmount])
	if err != nil {
		return Row{}, fmt.Errorf("parsing amount %q: %w", rec[billsColAmount], err)
	}
	if !amount.IsPositive() {
		return Row{}, fmt.Errorf("amount %s must be positive", amount)
	}
	if rec[billsColVendor] == "" {
		return Row{}, fmt.Errorf("vendor is required")
	}
	return Row{
		Date:        date,
		VendorID:    rec[billsColVendor],
		Description: rec[billsColDesc],
		Category:    rec[billsColCat],
		Amount:      amount,
	}, nil
}
