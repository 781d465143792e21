package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLamportsToSOL(t *testing.T) {
	assert.Equal(t, "0.000005000", LamportsToSOL(5000))
	assert.Equal(t, "0.063528960", LamportsToSOL(63_528_960))
	assert.Equal(t, "1.000000000", LamportsToSOL(1_000_000_000))
	assert.Equal(t, "0.000000000", LamportsToSOL(0))
}
