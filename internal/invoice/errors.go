package invoice

import (
	"fmt"

	"github.com/spendiq/spendiq/internal/ledgererr"
)

// MissingAnalyticAccountError reports vendor document lines posted without a
// cost center.
type MissingAnalyticAccountError struct {
	Number string
	Lines  int
}

func (e *MissingAnalyticAccountError) Error() string {
	return fmt.Sprintf("%s: %d line(s) have no analytic account", e.Number, e.Lines)
}

func (e *MissingAnalyticAccountError) Unwrap() error {
	return ledgererr.ErrMissingAnalyticAccount
}
