package escrow

import (
	"context"
	"testing"

	"lending/core"
	"lending/internal/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEscrowForAccount(t *testing.T) {
	ctx := context.Background()
	store := memstore.New().Escrows()
	f := New(store)

	a, err := f.CreateEscrowForAccount(ctx, "borrower", "alice", "asset")
	require.NoError(t, err)
	assert.Zero(t, a.ID)
	assert.Equal(t, Address("borrower", "alice", "asset"), a.Address)

	b, err := f.CreateEscrowForAccount(ctx, "borrower", "alice", "asset")
	require.NoError(t, err)
	assert.Equal(t, a.Address, b.Address)

	other, err := f.CreateEscrowForAccount(ctx, "borrower", "bob", "asset")
	require.NoError(t, err)
	assert.NotEqual(t, a.Address, other.Address)

	require.NoError(t, store.Save(ctx, nil, []*core.Escrow{a}))
	saved, err := f.CreateEscrowForAccount(ctx, "borrower", "alice", "asset")
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
}
