package fresco

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Allocator provides the buffers returned by Encode and Decode. Buffers
// are released with Free, which hands them back to the allocator that
// was current at the time.
type Allocator interface {
	Alloc(n int) ([]byte, error)
	Free(buf []byte)
}

type heapAllocator struct{}

func (heapAllocator) Alloc(n int) ([]byte, error) { return make([]byte, n), nil }
func (heapAllocator) Free([]byte)                 {}

var allocatorPtr atomic.Pointer[Allocator]

func init() {
	SetAllocator(nil)
}

// SetAllocator replaces the process-wide allocator. nil restores the
// default heap allocator. Buffers obtained earlier must still be released
// through Free; an allocator must tolerate buffers it did not hand out.
func SetAllocator(a Allocator) {
	if a == nil {
		a = heapAllocator{}
	}
	allocatorPtr.Store(&a)
}

func currentAllocator() Allocator {
	return *allocatorPtr.Load()
}

func alloc(n int) ([]byte, error) {
	buf, err := currentAllocator().Alloc(n)
	if err != nil {
		return nil, err
	}
	if len(buf) != n {
		return nil, fmt.Errorf("allocator returned %d bytes, want %d", len(buf), n)
	}
	return buf, nil
}

// Free releases a buffer returned by Encode or Decode. nil is ignored.
func Free(buf []byte) {
	if buf != nil {
		currentAllocator().Free(buf)
	}
}

// MemoryLimitExceededError is returned when an allocation would exceed
// the limit of a PoolAllocator. It maps to OutOfMemory.
type MemoryLimitExceededError struct {
	Requested int64
	Current   int64
	Limit     int64
}

func (e *MemoryLimitExceededError) Error() string {
	return fmt.Sprintf("memory limit exceeded: %d bytes requested, %d of %d in use", e.Requested, e.Current, e.Limit)
}

// bufferSizes are the pooled size classes, matched to common tile and
// image buffer sizes.
var bufferSizes = []int{
	4 << 10,   // 4 KB
	64 << 10,  // 64 KB
	256 << 10, // 256 KB
	1 << 20,   // 1 MB
	4 << 20,   // 4 MB
	16 << 20,  // 16 MB
}

// PoolAllocator recycles buffers by size class and enforces an optional
// memory limit on outstanding buffers.
type PoolAllocator struct {
	pools []*sync.Pool

	// outstanding maps the backing array of every buffer handed out to
	// the charge it carries, so Free ignores foreign buffers.
	mu          sync.Mutex
	outstanding map[*byte]int64

	memoryUsed  int64 // atomic
	memoryLimit int64 // atomic, 0 = unlimited
	allocCount  int64 // atomic
	hitCount    int64 // atomic
	missCount   int64 // atomic
}

// NewPoolAllocator creates a pool. A limit of 0 disables the limit.
func NewPoolAllocator(limit int64) *PoolAllocator {
	p := &PoolAllocator{
		pools:       make([]*sync.Pool, len(bufferSizes)),
		outstanding: make(map[*byte]int64),
		memoryLimit: limit,
	}
	for i := range bufferSizes {
		p.pools[i] = &sync.Pool{}
	}
	return p
}

// SetMemoryLimit sets the limit and returns the previous one.
func (p *PoolAllocator) SetMemoryLimit(limit int64) int64 {
	return atomic.SwapInt64(&p.memoryLimit, limit)
}

// MemoryLimit returns the current limit (0 = unlimited).
func (p *PoolAllocator) MemoryLimit() int64 {
	return atomic.LoadInt64(&p.memoryLimit)
}

// MemoryUsed returns the capacity of buffers handed out and not yet freed.
func (p *PoolAllocator) MemoryUsed() int64 {
	return atomic.LoadInt64(&p.memoryUsed)
}

// Stats returns (allocs, hits, misses).
func (p *PoolAllocator) Stats() (allocs, hits, misses int64) {
	return atomic.LoadInt64(&p.allocCount),
		atomic.LoadInt64(&p.hitCount),
		atomic.LoadInt64(&p.missCount)
}

// poolIndex returns the size class for size, or -1 when it is too large.
func poolIndex(size int) int {
	for i, s := range bufferSizes {
		if size <= s {
			return i
		}
	}
	return -1
}

// Alloc returns a zeroed buffer of exactly n bytes.
func (p *PoolAllocator) Alloc(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative allocation %d", n)
	}
	atomic.AddInt64(&p.allocCount, 1)

	idx := poolIndex(n)
	charge := int64(n)
	if idx >= 0 {
		charge = int64(bufferSizes[idx])
	}
	used := atomic.AddInt64(&p.memoryUsed, charge)
	if limit := atomic.LoadInt64(&p.memoryLimit); limit > 0 && used > limit {
		atomic.AddInt64(&p.memoryUsed, -charge)
		return nil, &MemoryLimitExceededError{Requested: int64(n), Current: used - charge, Limit: limit}
	}

	var buf []byte
	switch pooled, ok := p.get(idx); {
	case idx < 0:
		atomic.AddInt64(&p.missCount, 1)
		buf = make([]byte, n)
	case ok:
		atomic.AddInt64(&p.hitCount, 1)
		buf = pooled[:n]
		clear(buf)
	default:
		atomic.AddInt64(&p.missCount, 1)
		buf = make([]byte, n, bufferSizes[idx])
	}
	if cap(buf) > 0 {
		p.mu.Lock()
		p.outstanding[backing(buf)] = charge
		p.mu.Unlock()
	}
	return buf, nil
}

func (p *PoolAllocator) get(idx int) ([]byte, bool) {
	if idx < 0 {
		return nil, false
	}
	buf, ok := p.pools[idx].Get().([]byte)
	return buf, ok
}

// backing identifies the array behind buf; cap(buf) must be positive.
func backing(buf []byte) *byte {
	return &buf[:cap(buf)][0]
}

// Free returns buf to its size class. Buffers this pool did not hand
// out, or already took back, are ignored.
func (p *PoolAllocator) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	key := backing(buf)
	p.mu.Lock()
	charge, ok := p.outstanding[key]
	delete(p.outstanding, key)
	p.mu.Unlock()
	if !ok {
		return
	}
	atomic.AddInt64(&p.memoryUsed, -charge)

	c := cap(buf)
	if idx := poolIndex(c); idx >= 0 && bufferSizes[idx] == c {
		p.pools[idx].Put(buf[:c])
	}
}
