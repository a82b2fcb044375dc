package tensorgraph

import (
	"fmt"

	"github.com/example/tinygraph/internal/dtype"
	"github.com/example/tinygraph/internal/mem"
	"github.com/example/tinygraph/internal/shapeutil"
)

// Blob is a bound view into the graph's single backing buffer: an offset
// plus the base buffer it is relative to. It is established exactly once,
// at Graph.DataMalloc, and never reallocated afterwards.
type Blob struct {
	Offset int
	Base   []byte
}

// Bytes returns the slice of the backing buffer this blob addresses, given
// the tensor's byte size.
func (b Blob) Bytes(size int) []byte {
	return b.Base[b.Offset : b.Offset+size]
}

// Tensor is a shape-bearing value flowing between operators. It has an
// immutable FUID, a mutable shape, a weak back-reference to the single
// operator that produces it (absent for graph inputs and weights), the
// ordered set of operators that consume it, and an optional data blob bound
// at planning time.
type Tensor struct {
	fuid    int64
	shape   shapeutil.Shape
	dtype   dtype.DType
	source  Operator
	targets []Operator
	graph   *Graph
	blob    *Blob
}

// FUID returns the tensor's fingerprint identifier, stable within its graph.
func (t *Tensor) FUID() int64 { return t.fuid }

// Shape returns a copy of the tensor's current shape.
func (t *Tensor) Shape() shapeutil.Shape { return t.shape.Clone() }

// DType returns the tensor's element type.
func (t *Tensor) DType() dtype.DType { return t.dtype }

// Graph returns the tensor's owning graph.
func (t *Tensor) Graph() *Graph { return t.graph }

// Runtime returns the runtime of the tensor's owning graph, or nil if the
// tensor has not been attached to a graph yet.
func (t *Tensor) Runtime() mem.Runtime {
	if t.graph == nil {
		return nil
	}
	return t.graph.runtime
}

// SetShape replaces the tensor's shape.
func (t *Tensor) SetShape(shape shapeutil.Shape) { t.shape = shape.Clone() }

// GetBytes returns product(shape) * element byte width.
func (t *Tensor) GetBytes() int {
	return t.shape.Size() * t.dtype.ByteWidth()
}

// Source returns the operator that produces this tensor, or nil for a
// graph input or weight.
func (t *Tensor) Source() Operator { return t.source }

// Targets returns the ordered set of operators that consume this tensor.
func (t *Tensor) Targets() []Operator {
	out := make([]Operator, len(t.targets))
	copy(out, t.targets)
	return out
}

// SetSource sets the tensor's producing operator. It is a programmer error
// to call this after Graph.DataMalloc has bound blobs.
func (t *Tensor) SetSource(op Operator) error {
	if t.graph != nil && t.graph.planned {
		return fmt.Errorf("%w: SetSource called after DataMalloc", ErrFrozenAllocator)
	}
	t.source = op
	return nil
}

// AddTarget appends op to the tensor's consumer set. It is a programmer
// error to call this after Graph.DataMalloc has bound blobs.
func (t *Tensor) AddTarget(op Operator) error {
	if t.graph != nil && t.graph.planned {
		return fmt.Errorf("%w: AddTarget called after DataMalloc", ErrFrozenAllocator)
	}
	t.targets = append(t.targets, op)
	return nil
}

// RemoveTarget removes op from the tensor's consumer set, if present.
func (t *Tensor) RemoveTarget(op Operator) {
	out := t.targets[:0]
	for _, o := range t.targets {
		if o != op {
			out = append(out, o)
		}
	}
	t.targets = out
}

// SetDataBlob binds the tensor's backing view. Called exactly once, by
// Graph.DataMalloc.
func (t *Tensor) SetDataBlob(b Blob) { t.blob = &b }

// DataBlob returns the tensor's bound blob, or nil if DataMalloc has not
// run yet.
func (t *Tensor) DataBlob() *Blob { return t.blob }

// Data returns the tensor's bytes, once bound.
func (t *Tensor) Data() ([]byte, error) {
	if t.blob == nil {
		return nil, fmt.Errorf("tensor %d: no data blob bound yet", t.fuid)
	}
	return t.blob.Bytes(t.GetBytes()), nil
}

func (t *Tensor) String() string {
	return fmt.Sprintf("Tensor(fuid=%d, shape=%v, dtype=%s)", t.fuid, t.shape, t.dtype)
}
