// Package mem implements the graph-level offset allocator: a first-fit,
// alignment-aware, symbolic byte allocator over an abstract address space.
// It never touches device memory itself — that is deferred to a Runtime
// collaborator, and only once the backing buffer is actually requested.
package mem

import (
	"errors"
	"fmt"
	"sort"

	"github.com/example/tinygraph/internal/log"
)

// ErrFrozenAllocator is returned when Alloc/Free is called after GetPtr has
// already materialized the backing buffer.
var ErrFrozenAllocator = errors.New("frozen-allocator")

// ErrRuntimeOOM wraps a failure from the Runtime collaborator's Alloc.
var ErrRuntimeOOM = errors.New("runtime-oom")

// DefaultAlignment is the allocator's alignment when none is supplied,
// matching the width of the widest element type this graph handles.
const DefaultAlignment = 8

// freeBlock is one disjoint freed byte range, [Offset, Offset+Length).
type freeBlock struct {
	Offset int
	Length int
}

// Allocator is a symbolic first-fit byte allocator with a coalescing free
// list. It tracks a high-water mark (Used) and its maximum value (Peak);
// the physical buffer, sized to Peak, is requested from the Runtime lazily,
// on the first GetPtr call, and never resized afterwards.
type Allocator struct {
	runtime   Runtime
	alignment int
	used      int
	peak      int
	free      []freeBlock // kept sorted by Offset, pairwise disjoint and non-adjacent
	ptr       []byte
}

// NewAllocator returns an allocator bound to runtime. alignment <= 0 falls
// back to DefaultAlignment.
func NewAllocator(runtime Runtime, alignment int) *Allocator {
	if alignment <= 0 {
		alignment = DefaultAlignment
	}
	return &Allocator{runtime: runtime, alignment: alignment}
}

// Used returns the current high-water byte count.
func (a *Allocator) Used() int { return a.used }

// Peak returns the maximum Used ever observed.
func (a *Allocator) Peak() int { return a.peak }

// Alignment reports the allocator's byte alignment.
func (a *Allocator) Alignment() int { return a.alignment }

// alignedSize rounds size up to a multiple of the allocator's alignment;
// zero stays zero.
func (a *Allocator) alignedSize(size int) int {
	if size <= 0 {
		return 0
	}
	return ((size-1)/a.alignment + 1) * a.alignment
}

// Alloc returns a byte offset for a size-byte allocation, first-fitting it
// into the smallest-offset free block that is large enough, or carving it
// off the top of the address space when no free block fits.
func (a *Allocator) Alloc(size int) (int, error) {
	if a.ptr != nil {
		return 0, fmt.Errorf("%w: alloc called after GetPtr", ErrFrozenAllocator)
	}
	size = a.alignedSize(size)

	for i, b := range a.free {
		if b.Length >= size {
			offset := b.Offset
			remainder := b.Length - size

			if remainder > 0 {
				a.free[i] = freeBlock{Offset: offset + size, Length: remainder}
			} else {
				a.free = append(a.free[:i], a.free[i+1:]...)
			}

			a.used += size
			if a.used > a.peak {
				a.peak = a.used
			}
			return offset, nil
		}
	}

	offset := a.used
	a.used += size
	if a.used > a.peak {
		a.peak = a.used
	}
	return offset, nil
}

// Free returns a size-byte allocation at offset to the free list, coalescing
// it with its immediate offset-adjacent free neighbors on both sides so
// that no two free blocks ever touch or overlap.
func (a *Allocator) Free(offset, size int) error {
	if a.ptr != nil {
		return fmt.Errorf("%w: free called after GetPtr", ErrFrozenAllocator)
	}
	size = a.alignedSize(size)
	a.used -= size

	i := sort.Search(len(a.free), func(i int) bool { return a.free[i].Offset >= offset })
	blk := freeBlock{Offset: offset, Length: size}

	if i > 0 && a.free[i-1].Offset+a.free[i-1].Length == offset {
		a.free[i-1].Length += size
		i--
	} else {
		a.free = append(a.free, freeBlock{})
		copy(a.free[i+1:], a.free[i:])
		a.free[i] = blk
	}

	if i+1 < len(a.free) && a.free[i].Offset+a.free[i].Length == a.free[i+1].Offset {
		a.free[i].Length += a.free[i+1].Length
		a.free = append(a.free[:i+1], a.free[i+2:]...)
	}

	return nil
}

// GetPtr returns the backing buffer, requesting peak bytes from the Runtime
// on the first call and caching the result. Alloc/Free must not be called
// after GetPtr has been invoked.
func (a *Allocator) GetPtr() ([]byte, error) {
	if a.ptr == nil {
		buf, err := a.runtime.Alloc(a.peak)
		if err != nil {
			return nil, fmt.Errorf("%w: %s failed to allocate %d bytes: %v", ErrRuntimeOOM, a.runtime, a.peak, err)
		}
		a.ptr = buf
		log.Log.Debug().Str("runtime", a.runtime.String()).Int("peak", a.peak).Msg("allocator materialized backing buffer")
	}
	return a.ptr, nil
}

// Release returns the backing buffer to the Runtime, if one was ever
// materialized. It is safe to call at most once, at graph teardown.
func (a *Allocator) Release() {
	if a.ptr != nil {
		a.runtime.Dealloc(a.ptr)
		a.ptr = nil
	}
}

// Info is a snapshot of allocator statistics, the Go analogue of the
// original allocator's info() diagnostic printf.
type Info struct {
	Used      int
	Peak      int
	Alignment int
	FreeBytes int
}

// Info returns a snapshot of the allocator's current statistics and logs it.
func (a *Allocator) Info() Info {
	freeBytes := 0
	for _, b := range a.free {
		freeBytes += b.Length
	}
	info := Info{Used: a.used, Peak: a.peak, Alignment: a.alignment, FreeBytes: freeBytes}
	log.Log.Debug().Int("used", info.Used).Int("peak", info.Peak).Int("free_bytes", info.FreeBytes).Msg("allocator info")
	return info
}
