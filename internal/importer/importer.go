// Package importer turns expense exports (card statements, bill lists) into
// draft vendor bills.
package importer

import (
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendiq/spendiq/internal/invoice"
	"github.com/spendiq/spendiq/internal/model"
)

// Row is one expense read from an export. Amount is positive.
type Row struct {
	Date        time.Time
	VendorID    string
	Description string
	Category    string
	Amount      decimal.Decimal
}

// Parser converts an export file into Rows.
type Parser interface {
	Parse(r io.Reader) ([]Row, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists the registered format names in sorted order.
func (r *Registry) Formats() []string {
	names := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&BillsParser{})
	r.Register(&ChaseParser{})
	return r
}

// Drafts builds one single-line IN_INVOICE draft per row. Lines carry the
// row's category so product-category rules can tag them.
func Drafts(rows []Row) []invoice.Draft {
	drafts := make([]invoice.Draft, 0, len(rows))
	for _, row := range rows {
		drafts = append(drafts, invoice.Draft{
			Type:      model.DocInInvoice,
			Date:      row.Date,
			PartnerID: row.VendorID,
			Lines: []invoice.LineDraft{{
				Description:       row.Description,
				ProductCategoryID: row.Category,
				Quantity:          decimal.NewFromInt(1),
				UnitPrice:         row.Amount,
			}},
		})
	}
	return drafts
}
