package fifo

import "errors"

// ErrOutOfBounds read or pop past the end of the queue
var ErrOutOfBounds = errors.New("fifo: index out of bounds")

// Queue ordered append / pop-front queue addressed by two monotonic counters.
// Popped slots are released and indices are never reused.
type Queue[T any] struct {
	start uint64
	next  uint64
	items map[uint64]T
}

// New new empty queue
func New[T any]() *Queue[T] {
	return &Queue[T]{items: make(map[uint64]T)}
}

// Restore rebuilds a queue whose first element lives at index start
func Restore[T any](start uint64, values []T) *Queue[T] {
	q := &Queue[T]{
		start: start,
		next:  start,
		items: make(map[uint64]T, len(values)),
	}
	for _, v := range values {
		q.Push(v)
	}
	return q
}

// Empty reports whether the queue has no elements
func (q *Queue[T]) Empty() bool {
	return q.next == q.start
}

// Len number of elements
func (q *Queue[T]) Len() int {
	return int(q.next - q.start)
}

// StartIndex absolute index of the first element
func (q *Queue[T]) StartIndex() uint64 {
	return q.start
}

// NextIndex absolute index the next pushed element will take
func (q *Queue[T]) NextIndex() uint64 {
	return q.next
}

// First first element
func (q *Queue[T]) First() (T, error) {
	return q.At(0)
}

// At element at position i counted from the front
func (q *Queue[T]) At(i int) (T, error) {
	var zero T
	if i < 0 || i >= q.Len() {
		return zero, ErrOutOfBounds
	}
	return q.items[q.start+uint64(i)], nil
}

// Values all elements front to back
func (q *Queue[T]) Values() []T {
	values := make([]T, 0, q.Len())
	for i := q.start; i < q.next; i++ {
		values = append(values, q.items[i])
	}
	return values
}

// Push append v at the back
func (q *Queue[T]) Push(v T) {
	if q.items == nil {
		q.items = make(map[uint64]T)
	}
	q.items[q.next] = v
	q.next++
}

// Shift remove and return the first element
func (q *Queue[T]) Shift() (T, error) {
	v, err := q.First()
	if err != nil {
		return v, err
	}
	delete(q.items, q.start)
	q.start++
	return v, nil
}

// ShiftN remove the first n elements
func (q *Queue[T]) ShiftN(n int) error {
	if n < 0 || n > q.Len() {
		return ErrOutOfBounds
	}
	for i := 0; i < n; i++ {
		delete(q.items, q.start)
		q.start++
	}
	return nil
}

// Clone deep copy of the queue
func (q *Queue[T]) Clone() *Queue[T] {
	return Restore(q.start, q.Values())
}
