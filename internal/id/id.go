package id

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/spendiq/spendiq/internal/model"
)

// New returns a fresh random record identifier.
func New() string {
	return uuid.NewString()
}

// DocumentPrefix returns the numbering prefix for a document type.
func DocumentPrefix(t model.DocumentType) string {
	switch t {
	case model.DocInInvoice:
		return "BILL"
	case model.DocOutRefund:
		return "RINV"
	case model.DocInRefund:
		return "RBILL"
	default:
		return "INV"
	}
}

// FormatDocumentNumber returns a document number like "INV/2025/0001".
func FormatDocumentNumber(prefix string, year, seq int) string {
	return fmt.Sprintf("%s/%04d/%04d", prefix, year, seq)
}

// ParseDocumentNumber parses "INV/2025/0001" into prefix, year, seq.
func ParseDocumentNumber(number string) (prefix string, year, seq int, err error) {
	parts := strings.Split(number, "/")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, fmt.Errorf("invalid document number format: %q", number)
	}

	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid year in document number %q: %w", number, err)
	}

	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("invalid sequence in document number %q: %w", number, err)
	}

	return parts[0], year, seq, nil
}
