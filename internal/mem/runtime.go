package mem

import "fmt"

// Runtime is the external device-runtime collaborator: it owns the real
// backing storage the allocator's offsets are relative to. The allocator
// calls Alloc at most once per graph (on the first Allocator.GetPtr) and
// Dealloc exactly once, at teardown, and only if Alloc ever happened.
type Runtime interface {
	Alloc(bytes int) ([]byte, error)
	Dealloc(buf []byte)
	String() string
}

// HeapRuntime is a reference Runtime that backs allocations with ordinary
// Go heap memory. It stands in for a real device (CPU/accelerator) backend,
// which is out of scope for the graph/allocator core.
type HeapRuntime struct {
	name string
}

// NewHeapRuntime returns a Runtime that serves allocations from the Go heap.
func NewHeapRuntime(name string) *HeapRuntime {
	if name == "" {
		name = "heap"
	}
	return &HeapRuntime{name: name}
}

// Alloc returns a freshly zeroed byte slice of the requested size.
func (r *HeapRuntime) Alloc(bytes int) ([]byte, error) {
	if bytes < 0 {
		return nil, fmt.Errorf("%s: negative allocation size %d", r.name, bytes)
	}
	return make([]byte, bytes), nil
}

// Dealloc is a no-op; the Go garbage collector reclaims buf once unreferenced.
func (r *HeapRuntime) Dealloc(_ []byte) {}

func (r *HeapRuntime) String() string { return r.name }

// Equal reports whether two runtimes are the same collaborator, the way
// Graph.AddTensorRef rejects tensors built against a different runtime.
func Equal(a, b Runtime) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.String() == b.String() && fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
}
