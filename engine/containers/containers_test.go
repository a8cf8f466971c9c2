package containers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDArrayGrowth(t *testing.T) {
	d := NewDArray[int]()
	assert.Equal(t, 10, d.Cap())
	assert.Zero(t, d.Len())

	for i := 0; i < 10; i++ {
		assert.Equal(t, i, d.Push(i*i))
	}
	assert.Equal(t, 10, d.Cap())

	assert.Equal(t, 10, d.Push(100))
	assert.Equal(t, 15, d.Cap())
	for i := 0; i < 10; i++ {
		v, ok := d.At(i)
		require.True(t, ok)
		assert.Equal(t, i*i, v)
	}

	for i := 11; i < 16; i++ {
		d.Push(i)
	}
	assert.Equal(t, 22, d.Cap())
	assert.Equal(t, 16, d.Len())
}

func TestDArrayTinyCapacityStillGrows(t *testing.T) {
	d := NewDArrayWithCapacity[string](1)
	d.Push("a")
	d.Push("b")
	d.Push("c")
	assert.Equal(t, []string{"a", "b", "c"}, d.Slice())
}

func TestDArrayBounds(t *testing.T) {
	d := NewDArray[int]()
	d.Push(1)

	_, ok := d.At(1)
	assert.False(t, ok)
	_, ok = d.At(-1)
	assert.False(t, ok)
	assert.Nil(t, d.Ptr(3))
	assert.False(t, d.Set(5, 1))

	assert.True(t, d.Set(0, 7))
	*d.Ptr(0) += 1
	v, _ := d.At(0)
	assert.Equal(t, 8, v)
}

func TestDArrayClearKeepsCapacity(t *testing.T) {
	d := NewDArray[int]()
	for i := 0; i < 12; i++ {
		d.Push(i)
	}
	d.Clear()
	assert.Zero(t, d.Len())
	assert.Equal(t, 15, d.Cap())
	assert.Empty(t, d.Slice())

	v, ok := d.Pop()
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestDArrayEachOrder(t *testing.T) {
	d := NewDArray[string]()
	d.Push("x")
	d.Push("y")
	var got []string
	d.Each(func(i int, v string) { got = append(got, v) })
	assert.Equal(t, []string{"x", "y"}, got)

	v, ok := d.Pop()
	assert.True(t, ok)
	assert.Equal(t, "y", v)
}

func TestRingQueue(t *testing.T) {
	q := NewRingQueue[string](2)
	require.NoError(t, q.Enqueue("a"))
	require.NoError(t, q.Enqueue("b"))
	assert.ErrorIs(t, q.Enqueue("c"), ErrQueueFull)

	v, err := q.Peek()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	v, _ = q.Dequeue()
	assert.Equal(t, "a", v)
	require.NoError(t, q.Enqueue("c"))
	assert.Equal(t, 2, q.Len())

	v, _ = q.Dequeue()
	assert.Equal(t, "b", v)
	v, _ = q.Dequeue()
	assert.Equal(t, "c", v)

	_, err = q.Dequeue()
	assert.ErrorIs(t, err, ErrQueueEmpty)
	assert.True(t, q.IsEmpty())
}
