package sim

import (
	"fmt"
	"iter"
	"slices"
)

// Counter is a sparse map from stop id to a positive passenger count.
// Passengers are fungible by destination, so a count is all we keep.
//
// Invariant: every stored count is > 0. A key whose count drops to zero is
// removed, so Len and Keys only ever report live destinations.
// Keys are kept sorted so iteration order is deterministic.
type Counter struct {
	counts map[int]int
	keys   []int // ascending
	total  int
}

// NewCounter returns an empty Counter.
func NewCounter() *Counter {
	return &Counter{counts: make(map[int]int)}
}

// Get returns the count for key, 0 when absent.
func (c *Counter) Get(key int) int {
	return c.counts[key]
}

// Add increments key by n. n must be positive.
func (c *Counter) Add(key, n int) {
	if n <= 0 {
		panic(fmt.Sprintf("counter: Add(%d, %d) requires a positive amount", key, n))
	}
	if _, ok := c.counts[key]; !ok {
		i, _ := slices.BinarySearch(c.keys, key)
		c.keys = slices.Insert(c.keys, i, key)
	}
	c.counts[key] += n
	c.total += n
}

// Sub decrements key by n and deletes it when it reaches zero.
// Taking more than is present is a programming error and panics.
func (c *Counter) Sub(key, n int) {
	have := c.counts[key]
	if n <= 0 || n > have {
		panic(fmt.Sprintf("counter: Sub(%d, %d) with count %d", key, n, have))
	}
	c.total -= n
	if have == n {
		delete(c.counts, key)
		i, _ := slices.BinarySearch(c.keys, key)
		c.keys = slices.Delete(c.keys, i, i+1)
		return
	}
	c.counts[key] = have - n
}

// Len returns the number of keys with a positive count.
func (c *Counter) Len() int { return len(c.keys) }

// Total returns the sum of all counts.
func (c *Counter) Total() int { return c.total }

// Keys returns the live keys in ascending order. The slice must not be modified.
func (c *Counter) Keys() []int { return c.keys }

// All yields (key, count) pairs in ascending key order.
func (c *Counter) All() iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		for _, k := range c.keys {
			if !yield(k, c.counts[k]) {
				return
			}
		}
	}
}

// Map returns a copy of the counts.
func (c *Counter) Map() map[int]int {
	out := make(map[int]int, len(c.counts))
	for k, v := range c.counts {
		out[k] = v
	}
	return out
}

// Reset removes every entry.
func (c *Counter) Reset() {
	clear(c.counts)
	c.keys = c.keys[:0]
	c.total = 0
}
