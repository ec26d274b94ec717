package seed

import (
	"errors"
	"testing"

	"unicorns/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want model.Date
	}{
		{"7/4/2017", "2017-04-07"},
		{"07/04/2017", "2017-04-07"},
		{"1/12/2012", "2012-12-01"},
		{"23/1/2014", "2014-01-23"},
		{"31/12/1999", "1999-12-31"},
		{"29/2/2020", "2020-02-29"},
		{" 9/1/2011 ", "2011-01-09"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDateErrors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr error
	}{
		{"", ErrDateComponents},
		{"2017-04-07", ErrDateComponents},
		{"7/4", ErrDateComponents},
		{"7/4/2017/1", ErrDateComponents},
		{"a/4/2017", ErrDateValue},
		{"7//2017", ErrDateValue},
		{"-1/4/2017", ErrDateValue},
		{"31/2/2021", ErrDateValue},
		{"29/2/2021", ErrDateValue},
		{"1/13/2021", ErrDateValue},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseDate(tt.in)
			require.Error(t, err)

			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want ParseError, got %T", err)
			assert.Equal(t, DateJoinedHdr, pe.Field)
			assert.Equal(t, tt.in, pe.Value)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestParseValuation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"$1,234.50", "1234.50"},
		{"$180", "180"},
		{"$100.3", "100.3"},
		{"1,000,000", "1000000"},
		{" $2.5 ", "2.5"},
		{"42", "42"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseValuation(tt.in)
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}

	for _, bad := range []string{"", "$", "N/A", "$1.2.3"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseValuation(bad)
			var pe *ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ValuationHdr, pe.Field)
			assert.ErrorIs(t, err, ErrValuation)
		})
	}
}

func TestTransform(t *testing.T) {
	raw := RawRecord{
		Company:         " Stripe ",
		Valuation:       "$95",
		DateJoined:      "23/1/2014",
		Country:         "United States",
		City:            "San Francisco",
		Industry:        "Fintech",
		SelectInvestors: "Khosla Ventures, LowercaseCapital, capitalG",
	}
	u, err := Transform(raw)
	require.NoError(t, err)
	assert.Equal(t, "Stripe", u.Company)
	assert.True(t, decimal.NewFromInt(95).Equal(u.Valuation))
	require.NotNil(t, u.DateJoined)
	assert.Equal(t, model.Date("2014-01-23"), *u.DateJoined)
	assert.Equal(t, "Khosla Ventures, LowercaseCapital, capitalG", u.SelectInvestors)

	raw.DateJoined = "2014"
	_, err = Transform(raw)
	assert.ErrorIs(t, err, ErrDateComponents)

	raw.DateJoined = "23/1/2014"
	raw.Valuation = "lots"
	_, err = Transform(raw)
	assert.ErrorIs(t, err, ErrValuation)
}
