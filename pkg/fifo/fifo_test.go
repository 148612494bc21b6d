package fifo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePushShift(t *testing.T) {
	q := New[uint32]()
	assert.True(t, q.Empty())

	_, err := q.First()
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = q.Shift()
	assert.ErrorIs(t, err, ErrOutOfBounds)

	q.Push(30)
	q.Push(10)
	q.Push(20)
	assert.Equal(t, 3, q.Len())
	assert.Equal(t, []uint32{30, 10, 20}, q.Values())

	first, err := q.First()
	require.NoError(t, err)
	assert.Equal(t, uint32(30), first)

	v, err := q.At(2)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), v)
	_, err = q.At(3)
	assert.ErrorIs(t, err, ErrOutOfBounds)

	v, err = q.Shift()
	require.NoError(t, err)
	assert.Equal(t, uint32(30), v)
	assert.Equal(t, uint64(1), q.StartIndex())
	assert.Equal(t, uint64(3), q.NextIndex())
	assert.Len(t, q.items, 2, "popped slot should be released")
}

func TestQueueShiftN(t *testing.T) {
	q := New[uint32]()
	for i := uint32(1); i <= 5; i++ {
		q.Push(i)
	}

	assert.ErrorIs(t, q.ShiftN(6), ErrOutOfBounds)
	assert.Equal(t, 5, q.Len())

	require.NoError(t, q.ShiftN(3))
	assert.Equal(t, []uint32{4, 5}, q.Values())

	// indices keep growing after draining
	require.NoError(t, q.ShiftN(2))
	assert.True(t, q.Empty())
	q.Push(9)
	assert.Equal(t, uint64(5), q.StartIndex())
	assert.Equal(t, uint64(6), q.NextIndex())
}

func TestQueueRestoreAndClone(t *testing.T) {
	q := Restore[uint32](7, []uint32{100, 200})
	assert.Equal(t, uint64(7), q.StartIndex())
	assert.Equal(t, uint64(9), q.NextIndex())

	c := q.Clone()
	c.Push(300)
	_, _ = c.Shift()

	assert.Equal(t, []uint32{100, 200}, q.Values())
	assert.Equal(t, []uint32{200, 300}, c.Values())
}
