package id

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUUIDFromParts(t *testing.T) {
	a := UUIDFromParts("escrow", "borrower", "lender", "asset")
	b := UUIDFromParts("escrow", "borrower", "lender", "asset")
	c := UUIDFromParts("escrow", "borrower", "lender2", "asset")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)

	u, err := uuid.FromString(a)
	assert.NoError(t, err)
	assert.Equal(t, byte(3), u.Version())
}

func TestGenTraceID(t *testing.T) {
	a, b := GenTraceID(), GenTraceID()
	assert.NotEqual(t, a, b)

	u, err := uuid.FromString(a)
	assert.NoError(t, err)
	assert.Equal(t, byte(4), u.Version())
}
