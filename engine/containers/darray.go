package containers

const (
	// DARRAY_DEFAULT_CAPACITY is the number of elements a new DArray can hold before growing.
	DARRAY_DEFAULT_CAPACITY = 10
	// DARRAY_RESIZE_FACTOR multiplies the capacity when a DArray is full.
	DARRAY_RESIZE_FACTOR = 1.5
)

// DArray is a contiguous, growable array of values. Storage starts at
// DARRAY_DEFAULT_CAPACITY elements and grows by DARRAY_RESIZE_FACTOR,
// copying existing elements into the new backing array. Indices stay valid
// across growth.
type DArray[T any] struct {
	data   []T
	length int
}

func NewDArray[T any]() *DArray[T] {
	return NewDArrayWithCapacity[T](DARRAY_DEFAULT_CAPACITY)
}

func NewDArrayWithCapacity[T any](capacity int) *DArray[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &DArray[T]{
		data: make([]T, capacity),
	}
}

// Push appends value and returns its index.
func (d *DArray[T]) Push(value T) int {
	if d.length == len(d.data) {
		d.resize()
	}
	d.data[d.length] = value
	d.length++
	return d.length - 1
}

// Pop removes and returns the last element.
func (d *DArray[T]) Pop() (T, bool) {
	var zero T
	if d.length == 0 {
		return zero, false
	}
	d.length--
	value := d.data[d.length]
	d.data[d.length] = zero
	return value, true
}

// At returns the element at index and whether index is in range.
func (d *DArray[T]) At(index int) (T, bool) {
	if index < 0 || index >= d.length {
		var zero T
		return zero, false
	}
	return d.data[index], true
}

// Ptr returns a pointer to the element at index, or nil when out of range.
// The pointer is only valid until the next Push.
func (d *DArray[T]) Ptr(index int) *T {
	if index < 0 || index >= d.length {
		return nil
	}
	return &d.data[index]
}

func (d *DArray[T]) Set(index int, value T) bool {
	if index < 0 || index >= d.length {
		return false
	}
	d.data[index] = value
	return true
}

func (d *DArray[T]) Len() int {
	return d.length
}

func (d *DArray[T]) Cap() int {
	return len(d.data)
}

// Clear sets the length to zero and keeps the storage for reuse.
func (d *DArray[T]) Clear() {
	var zero T
	for i := 0; i < d.length; i++ {
		d.data[i] = zero
	}
	d.length = 0
}

// Slice returns the live elements. The slice aliases the internal storage.
func (d *DArray[T]) Slice() []T {
	return d.data[:d.length]
}

// Each calls fn for every element in insertion order.
func (d *DArray[T]) Each(fn func(index int, value T)) {
	for i := 0; i < d.length; i++ {
		fn(i, d.data[i])
	}
}

func (d *DArray[T]) resize() {
	newCapacity := int(float64(len(d.data)) * DARRAY_RESIZE_FACTOR)
	if newCapacity <= len(d.data) {
		newCapacity = len(d.data) + 1
	}
	data := make([]T, newCapacity)
	copy(data, d.data[:d.length])
	d.data = data
}
