package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
	}{
		{"49.99", 4999},
		{"100", 10000},
		{"100.5", 10050},
		{"0.01", 1},
		{".5", 50},
		{"-3.25", -325},
		{"12.345", 1235},
		{"12.344", 1234},
		{" 7.10 ", 710},
	}
	for _, tc := range cases {
		got, err := Parse(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "1.2.3", "1e5", "-", ".", "12,50", "--5", "1000000000000000"} {
		_, err := Parse(in)
		assert.ErrorIs(t, err, ErrInvalidAmount, in)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "49.99", Amount(4999).String())
	assert.Equal(t, "0.05", Amount(5).String())
	assert.Equal(t, "-1.50", Amount(-150).String())
	assert.Equal(t, "700.00", Amount(70000).String())
}

func TestJSONAcceptsNumbersAndStrings(t *testing.T) {
	var payload struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":49.99,"b":"150"}`), &payload))
	assert.Equal(t, Amount(4999), payload.A)
	assert.Equal(t, Amount(15000), payload.B)

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":49.99,"b":150.00}`, string(out))
}

func TestJSONRejectsInvalidAndAcceptsNull(t *testing.T) {
	var a Amount = 500
	require.NoError(t, json.Unmarshal([]byte(`null`), &a))
	assert.Equal(t, Amount(0), a)

	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &a))
	require.NoError(t, json.Unmarshal([]byte(`"49.995"`), &a))
	assert.Equal(t, Amount(5000), a)
}

func TestDecimalRoundTrip(t *testing.T) {
	a := MustParse("1234.56")
	assert.Equal(t, "1234.56", a.Decimal().String())
	assert.InDelta(t, 1234.56, a.Float64(), 1e-9)
	assert.Equal(t, "-0.07", FromMinor(-7).String())
}
