package validation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleInput struct {
	Name   string `json:"name" validate:"required,max=5"`
	Email  string `json:"email" validate:"required,email"`
	Status string `json:"status" validate:"required,oneof=active inactive"`
	Price  string `json:"price" validate:"required,amount"`
	Date   string `json:"date" validate:"required,date"`
	Notes  string `json:"notes" validate:"omitempty,max=3"`
}

func TestStructCollectsEveryField(t *testing.T) {
	errs := Struct(sampleInput{
		Name:   "too long",
		Email:  "nope",
		Status: "gone",
		Price:  "-1",
		Date:   "2024-13-40",
	}, nil)

	require.False(t, errs.Empty())
	codes := map[string]string{}
	for _, fe := range errs.Errors {
		codes[fe.Field] = fe.Code
	}
	assert.Equal(t, map[string]string{
		"name":   "max",
		"email":  "email",
		"status": "in",
		"price":  "numeric",
		"date":   "date",
	}, codes)
}

func TestStructRequiredAndOverrides(t *testing.T) {
	errs := Struct(sampleInput{}, Messages{"email.required": "Email address is required."})

	assert.True(t, errs.Has("name"))
	for _, fe := range errs.Errors {
		if fe.Field == "email" {
			assert.Equal(t, "required", fe.Code)
			assert.Equal(t, "Email address is required.", fe.Message)
		}
	}
	assert.False(t, errs.Has("notes"))
}

func TestStructPasses(t *testing.T) {
	errs := Struct(sampleInput{
		Name:   "Ann",
		Email:  "ann@example.com",
		Status: "active",
		Price:  "49.99",
		Date:   "2024-01-15",
	}, nil)
	assert.True(t, errs.Empty())
	assert.NoError(t, errs.Err())
}

func TestAmountRoundsExtraDecimals(t *testing.T) {
	input := sampleInput{
		Name:   "Ann",
		Email:  "ann@example.com",
		Status: "active",
		Price:  "49.999",
		Date:   "2024-01-15",
	}
	assert.True(t, Struct(input, nil).Empty())

	input.Price = "-0.01"
	errs := Struct(input, nil)
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, "The price must be a number between 0 and 99999999.99. Extra decimal places are rounded to cents.", errs.Errors[0].Message)
}

func TestAddKeepsFirstFailurePerField(t *testing.T) {
	errs := &Errors{}
	errs.Add("email", "email", "bad format")
	errs.Add("email", "unique", "taken")
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, "email", errs.Errors[0].Code)
}

func TestAsUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("create: %w", New("amount", "numeric", "bad"))
	vErr, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "amount", vErr.Errors[0].Field)

	_, ok = As(errors.New("other"))
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-02-29T18:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = ParseDate("29/02/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)
}
