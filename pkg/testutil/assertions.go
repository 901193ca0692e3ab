package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jehnsen/coopledger/pkg/money"
)

// AssertCentavos compares an amount with an expected centavo value and
// prints both as pesos on failure.
func AssertCentavos(t *testing.T, want int64, got money.Money, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.Equal(t, money.New(want).String(), got.String(), msgAndArgs...)
}
