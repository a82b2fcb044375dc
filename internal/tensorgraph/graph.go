// Package tensorgraph is the graph IR: tensors, operator variants, the
// owning graph (construction, topological sort, shape inference, rewrite
// engine) and the memory planner that binds every tensor to a slot in one
// contiguous workspace.
package tensorgraph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/example/tinygraph/internal/dtype"
	"github.com/example/tinygraph/internal/log"
	"github.com/example/tinygraph/internal/mem"
	"github.com/example/tinygraph/internal/shapeutil"
)

// Graph owns an ordered sequence of operators and tensors, a runtime
// collaborator, and an embedded allocator. It is the exclusive owner of
// its tensors and operators; every mutation goes through its methods.
type Graph struct {
	runtime   mem.Runtime
	allocator *mem.Allocator
	tensors   []*Tensor
	ops       []Operator
	sorted    bool
	planned   bool

	guidCounter int64
	fuidCounter int64
}

// NewGraph returns an empty graph bound to runtime, with an allocator using
// the given byte alignment (<=0 falls back to mem.DefaultAlignment).
func NewGraph(runtime mem.Runtime, alignment int) *Graph {
	return &Graph{
		runtime:   runtime,
		allocator: mem.NewAllocator(runtime, alignment),
	}
}

func (g *Graph) nextGUID() int64 { g.guidCounter++; return g.guidCounter }
func (g *Graph) nextFUID() int64 { g.fuidCounter++; return g.fuidCounter }

// Runtime returns the graph's runtime collaborator.
func (g *Graph) Runtime() mem.Runtime { return g.runtime }

// Allocator returns the graph's embedded offset allocator.
func (g *Graph) Allocator() *mem.Allocator { return g.allocator }

// Tensors returns the graph's tensors, in insertion order.
func (g *Graph) Tensors() []*Tensor {
	return append([]*Tensor(nil), g.tensors...)
}

// Ops returns the graph's operators, in their current order (topological,
// once TopoSort has succeeded).
func (g *Graph) Ops() []Operator {
	return append([]Operator(nil), g.ops...)
}

// Sorted reports whether the operator order is currently known-topological.
func (g *Graph) Sorted() bool { return g.sorted }

// AddTensor creates and registers a new tensor of the given shape and dtype.
func (g *Graph) AddTensor(shape shapeutil.Shape, dt dtype.DType) *Tensor {
	t := &Tensor{fuid: g.nextFUID(), shape: shape.Clone(), dtype: dt, graph: g}
	g.tensors = append(g.tensors, t)
	return t
}

// AddTensorRef registers an existing tensor with this graph. A tensor
// already owned by a different graph with a different runtime is a fatal
// cross-runtime error.
func (g *Graph) AddTensorRef(t *Tensor) error {
	if t.graph != nil && t.graph != g && !mem.Equal(t.graph.runtime, g.runtime) {
		return fmt.Errorf("%w: tensor runtime %v does not match graph runtime %v",
			ErrCrossRuntime, t.graph.runtime, g.runtime)
	}
	t.graph = g
	g.tensors = append(g.tensors, t)
	return nil
}

// TensorByFUID returns the tensor with the given FUID, or nil.
func (g *Graph) TensorByFUID(fuid int64) *Tensor {
	for _, t := range g.tensors {
		if t.fuid == fuid {
			return t
		}
	}
	return nil
}

// AddOperatorAndConnect registers op and wires the bidirectional
// predecessor/successor relationships implied by its inputs' sources and
// outputs' existing targets. Clears the sorted flag.
func (g *Graph) AddOperatorAndConnect(op Operator) error {
	g.sorted = false

	for _, in := range op.Inputs() {
		if in == nil {
			continue
		}
		if err := in.AddTarget(op); err != nil {
			return err
		}
		if pred := in.Source(); pred != nil {
			pred.addSuccessor(op)
			op.addPredecessor(pred)
		}
	}

	for _, out := range op.Outputs() {
		if out == nil {
			continue
		}
		if err := out.SetSource(op); err != nil {
			return err
		}
		for _, succ := range out.Targets() {
			if succ == op {
				continue
			}
			succ.addPredecessor(op)
			op.addSuccessor(succ)
		}
	}

	g.ops = append(g.ops, op)
	return nil
}

// RemoveOperator drops op from the graph's operator list. It does not touch
// tensor source/target wiring; rewrites are responsible for detaching those
// themselves before calling RemoveOperator, the way the original rewrite
// driver does.
func (g *Graph) RemoveOperator(op Operator) {
	out := g.ops[:0]
	for _, o := range g.ops {
		if o != op {
			out = append(out, o)
		}
	}
	g.ops = out
	g.sorted = false
}

// RemoveTensor drops t from the graph's tensor list.
func (g *Graph) RemoveTensor(t *Tensor) {
	out := g.tensors[:0]
	for _, x := range g.tensors {
		if x != t {
			out = append(out, x)
		}
	}
	g.tensors = out
}

// TopoSort re-linearizes ops so that every operator appears after all its
// data predecessors. It repeatedly scans the operator list and emits any
// not-yet-emitted operator whose every input either has no source or whose
// source has already been emitted; a full pass with no progress and
// operators still remaining means the graph is cyclic.
func (g *Graph) TopoSort() bool {
	if g.sorted {
		return true
	}

	emitted := make(map[Operator]bool, len(g.ops))
	order := make([]Operator, 0, len(g.ops))

	for len(order) < len(g.ops) {
		progressed := false
		for _, op := range g.ops {
			if emitted[op] {
				continue
			}
			ready := true
			for _, in := range op.Inputs() {
				if src := in.Source(); src != nil && !emitted[src] {
					ready = false
					break
				}
			}
			if ready {
				order = append(order, op)
				emitted[op] = true
				progressed = true
			}
		}
		if !progressed {
			return false
		}
	}

	g.ops = order
	g.sorted = true
	return true
}

// ShapeInfer re-propagates shapes in topological order, invoking each
// operator's InferShape and updating any output tensor whose inferred
// shape differs from its current one. Requires a prior successful TopoSort.
func (g *Graph) ShapeInfer() error {
	if !g.sorted {
		return fmt.Errorf("%w: ShapeInfer requires a prior successful TopoSort", ErrNotSorted)
	}
	for _, op := range g.ops {
		shapes, ok := op.InferShape()
		if !ok {
			return fmt.Errorf("%w: operator %d (%s) could not infer a shape from its current inputs",
				ErrShapeInference, op.GUID(), op.OpType())
		}
		outs := op.Outputs()
		if len(shapes) != len(outs) {
			return fmt.Errorf("%w: operator %d (%s) returned %d shapes for %d outputs",
				ErrShapeInference, op.GUID(), op.OpType(), len(shapes), len(outs))
		}
		for i, s := range shapes {
			if !outs[i].Shape().Equal(s) {
				outs[i].SetShape(s)
			}
		}
	}
	return nil
}

// CheckValid verifies every invariant from the data model: every tensor
// has a source or a target (or both); source/target operators are graph
// members whose own input/output lists agree; and FUIDs are unique.
func (g *Graph) CheckValid() error {
	opSet := make(map[Operator]bool, len(g.ops))
	for _, op := range g.ops {
		opSet[op] = true
	}

	for _, t := range g.tensors {
		if t.source == nil && len(t.targets) == 0 {
			return fmt.Errorf("%w: tensor %d has neither a source nor any targets", ErrInvariantViolation, t.fuid)
		}
		if t.source != nil {
			if !opSet[t.source] {
				return fmt.Errorf("%w: tensor %d's source operator %d is not in the graph",
					ErrInvariantViolation, t.fuid, t.source.GUID())
			}
			if !containsTensor(t.source.Outputs(), t) {
				return fmt.Errorf("%w: tensor %d is not among its source operator %d's outputs",
					ErrInvariantViolation, t.fuid, t.source.GUID())
			}
		}
		for _, op := range t.targets {
			if !opSet[op] {
				return fmt.Errorf("%w: tensor %d's target operator %d is not in the graph",
					ErrInvariantViolation, t.fuid, op.GUID())
			}
			if !containsTensor(op.Inputs(), t) {
				return fmt.Errorf("%w: tensor %d is not among its target operator %d's inputs",
					ErrInvariantViolation, t.fuid, op.GUID())
			}
		}
	}

	tensorSet := make(map[*Tensor]bool, len(g.tensors))
	for _, t := range g.tensors {
		tensorSet[t] = true
	}
	for _, op := range g.ops {
		for _, in := range op.Inputs() {
			if !tensorSet[in] {
				return fmt.Errorf("%w: operator %d's input %d is not in the graph", ErrInvariantViolation, op.GUID(), in.fuid)
			}
		}
		for _, out := range op.Outputs() {
			if !tensorSet[out] {
				return fmt.Errorf("%w: operator %d's output %d is not in the graph", ErrInvariantViolation, op.GUID(), out.fuid)
			}
		}
		for _, p := range op.Predecessors() {
			if !opSet[p] {
				return fmt.Errorf("%w: operator %d's predecessor %d is not in the graph", ErrInvariantViolation, op.GUID(), p.GUID())
			}
		}
		for _, s := range op.Successors() {
			if !opSet[s] {
				return fmt.Errorf("%w: operator %d's successor %d is not in the graph", ErrInvariantViolation, op.GUID(), s.GUID())
			}
		}
	}

	seen := make(map[int64]bool, len(g.tensors))
	for _, t := range g.tensors {
		if seen[t.fuid] {
			return fmt.Errorf("%w: duplicate tensor FUID %d", ErrInvariantViolation, t.fuid)
		}
		seen[t.fuid] = true
	}
	return nil
}

func containsTensor(ts []*Tensor, t *Tensor) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}

// DataMalloc requires the graph to be topologically sorted, then walks
// tensors in order, asks the allocator for an offset sized to each
// tensor's byte count, materializes the single backing buffer once the
// offsets are known, and binds every tensor's blob to base+offset. Every
// tensor is treated as simultaneously live; no symbolic frees happen
// during planning.
func (g *Graph) DataMalloc() error {
	if !g.TopoSort() {
		return fmt.Errorf("%w: cannot plan memory for a graph that does not topologically sort", ErrCyclicGraph)
	}

	offsets := make([]int, len(g.tensors))
	for i, t := range g.tensors {
		off, err := g.allocator.Alloc(t.GetBytes())
		if err != nil {
			return err
		}
		offsets[i] = off
	}

	base, err := g.allocator.GetPtr()
	if err != nil {
		return err
	}

	for i, t := range g.tensors {
		t.SetDataBlob(Blob{Offset: offsets[i], Base: base})
	}
	g.planned = true

	info := g.allocator.Info()
	log.Log.Info().Int("tensors", len(g.tensors)).Int("peak_bytes", info.Peak).Msg("graph memory plan materialized")
	return nil
}

// Close releases the graph's backing buffer back to its runtime, if one was
// ever materialized. Safe to call once, at graph teardown.
func (g *Graph) Close() {
	g.allocator.Release()
}

// validateOperator is the operator factory's validation hook: every
// constructor calls it before returning, refusing to register an operator
// whose inputs/outputs are rankless or disagree on element type.
func validateOperator(g *Graph, inputs, outputs []*Tensor) error {
	if g == nil {
		return fmt.Errorf("%w: operator must be constructed with an owning graph", ErrInvariantViolation)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("%w: operator requires at least one input", ErrInvariantViolation)
	}
	if len(outputs) == 0 {
		return fmt.Errorf("%w: operator requires at least one output", ErrInvariantViolation)
	}
	want := inputs[0].DType()
	for _, t := range inputs {
		if len(t.Shape()) == 0 {
			return fmt.Errorf("%w: input tensor %d has rank 0", ErrInvariantViolation, t.FUID())
		}
		if t.DType() != want {
			return fmt.Errorf("%w: mixed input dtypes %s and %s", ErrInvariantViolation, t.DType(), want)
		}
	}
	for _, t := range outputs {
		if len(t.Shape()) == 0 {
			return fmt.Errorf("%w: output tensor %d has rank 0", ErrInvariantViolation, t.FUID())
		}
		if t.DType() != want {
			return fmt.Errorf("%w: output dtype %s does not match input dtype %s", ErrInvariantViolation, t.DType(), want)
		}
	}
	return nil
}

// String renders a human-readable dump of the graph's tensors and
// operators, the Go analogue of the original's GraphObj::toString.
func (g *Graph) String() string {
	var b strings.Builder
	b.WriteString("Graph Tensors:\n")
	for _, t := range g.tensors {
		fmt.Fprintf(&b, "  %s\n", t)
	}
	b.WriteString("Graph Operators:\n")
	for _, op := range g.ops {
		preds := make([]int64, 0, len(op.Predecessors()))
		for _, p := range op.Predecessors() {
			preds = append(preds, p.GUID())
		}
		succs := make([]int64, 0, len(op.Successors()))
		for _, s := range op.Successors() {
			succs = append(succs, s.GUID())
		}
		fmt.Fprintf(&b, "  OP %d, pred %v, succ %v, %s\n", op.GUID(), preds, succs, op)
	}
	return b.String()
}

// DOT renders the graph as Graphviz source: one node per tensor and
// operator, edges following data dependence.
func (g *Graph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph tinygraph {\n  rankdir=LR;\n")

	tensors := append([]*Tensor(nil), g.tensors...)
	sort.Slice(tensors, func(i, j int) bool { return tensors[i].fuid < tensors[j].fuid })
	for _, t := range tensors {
		fmt.Fprintf(&b, "  t%d [shape=box label=%q];\n", t.fuid, fmt.Sprintf("t%d %v", t.fuid, t.Shape()))
	}
	for _, op := range g.ops {
		fmt.Fprintf(&b, "  op%d [label=%q];\n", op.GUID(), fmt.Sprintf("%s[%d]", op.OpType(), op.GUID()))
		for _, in := range op.Inputs() {
			fmt.Fprintf(&b, "  t%d -> op%d;\n", in.fuid, op.GUID())
		}
		for _, out := range op.Outputs() {
			fmt.Fprintf(&b, "  op%d -> t%d;\n", op.GUID(), out.fuid)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
