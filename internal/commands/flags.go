package commands

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/spendiq/spendiq/internal/ledgererr"
	"github.com/spendiq/spendiq/internal/model"
)

// outputFile returns stdout when path is empty.
func outputFile(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("creating %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

// parseDate parses a YYYY-MM-DD flag value. An empty value yields def.
func parseDate(flag, s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, ledgererr.Validationf("--%s: %q is not a YYYY-MM-DD date", flag, s)
	}
	return t, nil
}

func today() time.Time {
	return model.Day(time.Now())
}

func parseAmount(what, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ledgererr.Validationf("%s: %q is not a number", what, s)
	}
	return d, nil
}

// splitFields splits a colon-separated flag value into at least min and at
// most max fields.
func splitFields(flag, s string, min, max int) ([]string, error) {
	parts := strings.Split(s, ":")
	if len(parts) < min || len(parts) > max {
		return nil, ledgererr.Validationf("--%s %q: expected %d to %d colon-separated fields", flag, s, min, max)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts, nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
