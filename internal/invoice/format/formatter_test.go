package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatInvoiceNumberDefault(t *testing.T) {
	issued := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	got, err := FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, 1)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", got)

	got, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, issued, 1234567)
	require.NoError(t, err)
	assert.Equal(t, "INV-1234567", got)
}

func TestFormatInvoiceNumberDateTokens(t *testing.T) {
	issued := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	p, err := Compile("INV-{YYYY}{MM}{DD}-{SEQ4}")
	require.NoError(t, err)
	got, err := p.Format(issued, 42)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240305-0042", got)

	got, err = FormatInvoiceNumber("{YY}/{SEQ}", issued, 7)
	require.NoError(t, err)
	assert.Equal(t, "24/7", got)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile("")
	assert.ErrorIs(t, err, ErrEmptyTemplate)

	_, err = Compile("INV-{YYYY}")
	assert.ErrorIs(t, err, ErrMissingSequence)

	_, err = Compile("INV-{BOGUS}-{SEQ}")
	assert.Error(t, err)

	_, err = Compile("INV-{SEQ6")
	assert.Error(t, err)

	_, err = FormatInvoiceNumber(DefaultInvoiceNumberTemplate, time.Now(), 0)
	assert.Error(t, err)
}
