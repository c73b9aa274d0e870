// Package alloc provides the buffer allocators used by boot media. Media take
// every table and buffer from an Allocator and hand each one back explicitly,
// so a tracking allocator can prove that no exit path leaks.
package alloc

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// ErrOutOfMemory is returned when an allocation cannot be satisfied.
var ErrOutOfMemory = errors.New("out of memory")

// Allocator hands out byte and word buffers.
type Allocator interface {
	// Bytes returns a zeroed byte buffer of length n
	Bytes(n int) ([]byte, error)

	// Words returns a zeroed word buffer of length n
	Words(n int) ([]uint32, error)

	// FreeBytes releases a buffer obtained from Bytes
	FreeBytes(buf []byte)

	// FreeWords releases a buffer obtained from Words
	FreeWords(buf []uint32)
}

// Heap is an Allocator backed by the Go heap. Frees are no-ops.
type Heap struct{}

// NewHeap returns the default allocator.
func NewHeap() *Heap {
	return &Heap{}
}

func (Heap) Bytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid allocation size %d", n)
	}
	return make([]byte, n), nil
}

func (Heap) Words(n int) ([]uint32, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid allocation size %d", n)
	}
	return make([]uint32, n), nil
}

func (Heap) FreeBytes([]byte)   {}
func (Heap) FreeWords([]uint32) {}

// Tracker wraps an Allocator and counts outstanding allocations. It can be
// told to fail a given allocation to exercise error paths.
type Tracker struct {
	mu sync.Mutex

	next Allocator

	allocs  int
	frees   int
	live    map[uintptr]int
	bytes   int64
	failAt  int
	doubles int
}

// NewTracker returns a Tracker around next. A nil next uses the heap.
func NewTracker(next Allocator) *Tracker {
	if next == nil {
		next = NewHeap()
	}
	return &Tracker{
		next: next,
		live: make(map[uintptr]int),
	}
}

// FailAt makes the nth allocation (1-based, counted from now) fail with
// ErrOutOfMemory. Zero disables injection.
func (t *Tracker) FailAt(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n <= 0 {
		t.failAt = 0
		return
	}
	t.failAt = t.allocs + n
}

func (t *Tracker) Bytes(n int) ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.inject(); err != nil {
		return nil, err
	}
	// Zero-length buffers still need a distinct identity for leak tracking.
	buf, err := t.next.Bytes(n + 1)
	if err != nil {
		return nil, err
	}
	buf = buf[:n]
	t.record(identity(&buf[:1][0]), int64(n))
	return buf, nil
}

func (t *Tracker) Words(n int) ([]uint32, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.inject(); err != nil {
		return nil, err
	}
	buf, err := t.next.Words(n + 1)
	if err != nil {
		return nil, err
	}
	buf = buf[:n]
	t.record(identity(&buf[:1][0]), int64(n)*4)
	return buf, nil
}

func (t *Tracker) FreeBytes(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release(identity(&buf[:1][0]))
	t.next.FreeBytes(buf)
}

func (t *Tracker) FreeWords(buf []uint32) {
	if cap(buf) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.release(identity(&buf[:1][0]))
	t.next.FreeWords(buf)
}

// Outstanding reports the number of allocations not yet freed.
func (t *Tracker) Outstanding() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live)
}

// OutstandingBytes reports the size of the allocations not yet freed.
func (t *Tracker) OutstandingBytes() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bytes
}

// Allocations reports the number of successful allocations so far.
func (t *Tracker) Allocations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.live) + t.frees
}

// DoubleFrees reports frees of buffers that were not outstanding.
func (t *Tracker) DoubleFrees() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.doubles
}

// must be called with mu held
func (t *Tracker) inject() error {
	t.allocs++
	if t.failAt != 0 && t.allocs == t.failAt {
		return ErrOutOfMemory
	}
	return nil
}

// must be called with mu held
func (t *Tracker) record(id uintptr, size int64) {
	t.live[id] = int(size)
	t.bytes += size
}

// must be called with mu held
func (t *Tracker) release(id uintptr) {
	size, ok := t.live[id]
	if !ok {
		t.doubles++
		return
	}
	delete(t.live, id)
	t.bytes -= int64(size)
	t.frees++
}

func identity[T any](p *T) uintptr {
	return uintptr(unsafe.Pointer(p))
}
