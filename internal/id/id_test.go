package id

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendiq/spendiq/internal/model"
)

func TestNew(t *testing.T) {
	a, b := New(), New()
	assert.NotEqual(t, a, b)
	_, err := uuid.Parse(a)
	require.NoError(t, err)
}

func TestFormatDocumentNumber(t *testing.T) {
	tests := []struct {
		prefix    string
		year, seq int
		want      string
	}{
		{"INV", 2025, 1, "INV/2025/0001"},
		{"BILL", 2025, 42, "BILL/2025/0042"},
		{"RINV", 2026, 12345, "RINV/2026/12345"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDocumentNumber(tt.prefix, tt.year, tt.seq))
	}
}

func TestParseDocumentNumber(t *testing.T) {
	prefix, year, seq, err := ParseDocumentNumber("BILL/2025/0042")
	require.NoError(t, err)
	assert.Equal(t, "BILL", prefix)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 42, seq)
}

func TestParseDocumentNumber_Errors(t *testing.T) {
	badInputs := []string{
		"",
		"INV-2025-0001",
		"/2025/0001",
		"INV/xxxx/0001",
		"INV/2025/abc",
	}
	for _, input := range badInputs {
		_, _, _, err := ParseDocumentNumber(input)
		assert.Error(t, err, "expected error for input: %s", input)
	}
}

func TestDocumentPrefix(t *testing.T) {
	assert.Equal(t, "INV", DocumentPrefix(model.DocOutInvoice))
	assert.Equal(t, "BILL", DocumentPrefix(model.DocInInvoice))
	assert.Equal(t, "RINV", DocumentPrefix(model.DocOutRefund))
	assert.Equal(t, "RBILL", DocumentPrefix(model.DocInRefund))
}
