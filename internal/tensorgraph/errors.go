package tensorgraph

import (
	"errors"

	"github.com/example/tinygraph/internal/mem"
)

// Error sentinels, one per taxonomy row of the design's error-handling
// section. The core never attempts local recovery: construction-time
// validation is strict so that planning and execution only ever see
// well-formed graphs.
var (
	// ErrInvariantViolation is returned by CheckValid when a §3 invariant fails.
	ErrInvariantViolation = errors.New("invariant-violation")
	// ErrShapeMismatch names the shape-mismatch row. No function in this
	// package returns it: InferShape reports incompatible inputs by returning
	// false, which ShapeInfer turns into ErrShapeInference.
	ErrShapeMismatch = errors.New("shape-mismatch")
	// ErrBadAxis is returned when an axis falls outside [-rank, rank-1].
	ErrBadAxis = errors.New("bad-axis")
	// ErrCyclicGraph marks a TopoSort that could not make progress.
	ErrCyclicGraph = errors.New("cyclic-graph")
	// ErrCrossRuntime is returned when a tensor's runtime differs from the graph's.
	ErrCrossRuntime = errors.New("cross-runtime")
	// ErrFrozenAllocator is returned when the allocator is touched after GetPtr,
	// and by Tensor.SetSource/AddTarget once DataMalloc has bound blobs. It is
	// the same sentinel as mem.ErrFrozenAllocator.
	ErrFrozenAllocator = mem.ErrFrozenAllocator
	// ErrRuntimeOOM wraps a Runtime.Alloc failure. It is the same sentinel as
	// mem.ErrRuntimeOOM.
	ErrRuntimeOOM = mem.ErrRuntimeOOM
	// ErrNotSorted is returned by operations that require a prior successful TopoSort.
	ErrNotSorted = errors.New("graph-not-sorted")
	// ErrShapeInference marks a missing/empty InferShape result.
	ErrShapeInference = errors.New("shape-inference-error")
)
