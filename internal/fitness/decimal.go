package fitness

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Measures (weights, distances, goal values) are NUMERIC columns handled
// as decimals end to end, so repeated logging never accumulates float
// rounding drift. Values travel to postgres as their exact text form and
// come back via ::text casts.

// DecimalArg converts an optional decimal into a query argument.
func DecimalArg(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}

// ParseDecimal converts a scanned nullable ::text numeric back into a decimal.
func ParseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", *s, err)
	}
	return &d, nil
}
