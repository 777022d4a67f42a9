package mediaqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameQueuePushPopFIFO(t *testing.T) {
	q := NewFrameQueue[int](4, 8)
	q.Push(1)
	q.Push(2)
	q.Push(3)
	assert.Equal(t, 3, q.Len())

	v, ok := q.PopFront()
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 2, q.Len())
}

func TestFrameQueuePopFrontEmpty(t *testing.T) {
	q := NewFrameQueue[int](4, 8)
	_, ok := q.PopFront()
	assert.False(t, ok)
}

func TestFrameQueuePopUpToCapsAtLength(t *testing.T) {
	q := NewFrameQueue[int](4, 8)
	q.Push(1)
	q.Push(2)
	popped := q.PopUpTo(10)
	assert.Equal(t, []int{1, 2}, popped)
	assert.Equal(t, 0, q.Len())
}

func TestFrameQueueDrain(t *testing.T) {
	q := NewFrameQueue[int](4, 8)
	q.Push(1)
	q.Push(2)
	q.Drain()
	assert.Equal(t, 0, q.Len())
}

func TestFrameQueuePeekFrontDoesNotRemove(t *testing.T) {
	q := NewFrameQueue[int](4, 8)
	q.Push(42)
	v, ok := q.PeekFront()
	require.True(t, ok)
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, q.Len())
}
