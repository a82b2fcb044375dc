package tensorgraph

import "github.com/example/tinygraph/internal/shapeutil"

// OpType stably tags an operator's variant, the way the original tagged
// each node with an OpType enum.
type OpType string

const (
	OpMatMul    OpType = "MatMul"
	OpTranspose OpType = "Transpose"
	OpConcat    OpType = "Concat"
)

// Operator is a node in the dataflow graph. The dispatch surface needed by
// the rest of the graph is a single InferShape method plus a stable type
// tag; rewrites that need variant-specific fields (transA, permutation, ...)
// downcast via a type switch on the concrete *MatMul/*Transpose/*Concat,
// per the design's note that deep inheritance isn't required here.
type Operator interface {
	GUID() int64
	OpType() OpType
	Inputs() []*Tensor
	Outputs() []*Tensor
	Predecessors() []Operator
	Successors() []Operator
	InferShape() ([]shapeutil.Shape, bool)
	ReplaceInput(old, newT *Tensor)
	String() string

	addPredecessor(Operator)
	addSuccessor(Operator)
	removePredecessor(Operator)
	removeSuccessor(Operator)
}

// baseOp carries the fields and wiring every operator variant shares:
// identity, input/output tensors, and the predecessor/successor operator
// sets. Variants embed baseOp and add their own parameters plus InferShape.
type baseOp struct {
	guid    int64
	inputs  []*Tensor
	outputs []*Tensor
	preds   []Operator
	succs   []Operator
	graph   *Graph
}

func (b *baseOp) GUID() int64            { return b.guid }
func (b *baseOp) Inputs() []*Tensor      { return append([]*Tensor(nil), b.inputs...) }
func (b *baseOp) Outputs() []*Tensor     { return append([]*Tensor(nil), b.outputs...) }
func (b *baseOp) Predecessors() []Operator {
	return append([]Operator(nil), b.preds...)
}
func (b *baseOp) Successors() []Operator {
	return append([]Operator(nil), b.succs...)
}

// ReplaceInput re-points whichever input slot currently holds old to newT,
// the rewrite-convenience operation spec.md §4.2 asks every operator to
// support.
func (b *baseOp) ReplaceInput(old, newT *Tensor) {
	for i, in := range b.inputs {
		if in == old {
			b.inputs[i] = newT
		}
	}
}

func (b *baseOp) addPredecessor(op Operator) {
	for _, p := range b.preds {
		if p == op {
			return
		}
	}
	b.preds = append(b.preds, op)
}

func (b *baseOp) addSuccessor(op Operator) {
	for _, s := range b.succs {
		if s == op {
			return
		}
	}
	b.succs = append(b.succs, op)
}

func (b *baseOp) removePredecessor(op Operator) {
	out := b.preds[:0]
	for _, p := range b.preds {
		if p != op {
			out = append(out, p)
		}
	}
	b.preds = out
}

func (b *baseOp) removeSuccessor(op Operator) {
	out := b.succs[:0]
	for _, s := range b.succs {
		if s != op {
			out = append(out, s)
		}
	}
	b.succs = out
}
