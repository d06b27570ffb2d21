package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%fiber%", ContainsPattern("fiber"))
	assert.Equal(t, "%a!_b%", ContainsPattern("a_b"))
	assert.Equal(t, "%100!%%", ContainsPattern("100%"))
	assert.Equal(t, "%wow!!%", ContainsPattern("wow!"))
}
