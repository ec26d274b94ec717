package seed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"unicorns/model"

	"github.com/shopspring/decimal"
)

// ParseDate converts a day/month/year string such as "7/4/2017" into a
// calendar date. Day and month may be unpadded; the year is taken as written.
func ParseDate(s string) (model.Date, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return "", &ParseError{Field: DateJoinedHdr, Value: s, Err: ErrDateComponents}
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return "", &ParseError{Field: DateJoinedHdr, Value: s, Err: fmt.Errorf("%w: component %q", ErrDateValue, p)}
		}
		nums[i] = n
	}
	day, month, year := nums[0], nums[1], nums[2]

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow, so 31/2 would silently become March.
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return "", &ParseError{Field: DateJoinedHdr, Value: s, Err: ErrDateValue}
	}
	return model.NewDate(t), nil
}

// ParseValuation strips a leading dollar sign and thousands separators and
// parses the rest as a decimal, so "$1,234.50" becomes 1234.50.
func ParseValuation(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "$")
	clean = strings.ReplaceAll(clean, ",", "")

	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, &ParseError{Field: ValuationHdr, Value: s, Err: ErrValuation}
	}
	return d, nil
}

// Transform turns a raw source row into a Unicorn ready to insert.
func Transform(raw RawRecord) (*model.Unicorn, error) {
	joined, err := ParseDate(raw.DateJoined)
	if err != nil {
		return nil, err
	}
	valuation, err := ParseValuation(raw.Valuation)
	if err != nil {
		return nil, err
	}
	return &model.Unicorn{
		Company:         strings.TrimSpace(raw.Company),
		Valuation:       valuation,
		DateJoined:      &joined,
		Country:         strings.TrimSpace(raw.Country),
		City:            strings.TrimSpace(raw.City),
		Industry:        strings.TrimSpace(raw.Industry),
		SelectInvestors: strings.TrimSpace(raw.SelectInvestors),
	}, nil
}
