package alerts

import (
	"sync"
)

// Capacity is the number of alerts the dashboard keeps.
const Capacity = 10

// Buffer is a thread-safe, fixed-capacity ring of alerts ordered
// most-recent-first. Inserting into a full buffer overwrites the oldest
// entry. There is no other removal and no deduplication.
type Buffer struct {
	mu       sync.Mutex
	buf      []Alert
	head     int // index of the most recent alert
	count    int
	capacity int

	// Stats
	totalInserted int64
	totalEvicted  int64
}

// NewBuffer creates a buffer with the standard capacity.
func NewBuffer() *Buffer {
	return newBufferWithCapacity(Capacity)
}

func newBufferWithCapacity(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{
		buf:      make([]Alert, capacity),
		capacity: capacity,
	}
}

// Insert prepends an alert, evicting the oldest one when full.
func (b *Buffer) Insert(a Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Walk head backwards so the newest entry always sits at head and the
	// oldest at head+count-1. When full, the slot we step onto is the tail.
	b.head = (b.head - 1 + b.capacity) % b.capacity
	b.buf[b.head] = a
	if b.count < b.capacity {
		b.count++
	} else {
		b.totalEvicted++
	}
	b.totalInserted++
}

// Snapshot returns the alerts most-recent-first. The slice is a copy.
func (b *Buffer) Snapshot() []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()

	result := make([]Alert, b.count)
	for i := 0; i < b.count; i++ {
		result[i] = b.buf[(b.head+i)%b.capacity]
	}
	return result
}

// Len returns the number of alerts held.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.count
}

// Stats returns buffer statistics.
func (b *Buffer) Stats() BufferStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BufferStats{
		Count:         b.count,
		Capacity:      b.capacity,
		TotalInserted: b.totalInserted,
		TotalEvicted:  b.totalEvicted,
	}
}

// BufferStats contains buffer statistics.
type BufferStats struct {
	Count         int
	Capacity      int
	TotalInserted int64
	TotalEvicted  int64
}
