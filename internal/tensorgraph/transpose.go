package tensorgraph

import (
	"fmt"

	"github.com/example/tinygraph/internal/shapeutil"
)

// Transpose permutes a tensor's axes according to Permutation, a bijection
// over [0, rank).
type Transpose struct {
	baseOp
	Permutation []int
}

// NewTranspose constructs a Transpose operator bound to graph.
func NewTranspose(g *Graph, input, output *Tensor, permutation []int) (*Transpose, error) {
	if err := validateOperator(g, []*Tensor{input}, []*Tensor{output}); err != nil {
		return nil, err
	}
	if len(permutation) != len(input.Shape()) {
		return nil, fmt.Errorf("%w: permutation length %d does not match input rank %d",
			ErrInvariantViolation, len(permutation), len(input.Shape()))
	}
	if !isBijection(permutation) {
		return nil, fmt.Errorf("%w: permutation %v is not a bijection over [0,%d)",
			ErrInvariantViolation, permutation, len(permutation))
	}
	perm := append([]int(nil), permutation...)
	op := &Transpose{
		baseOp:      baseOp{guid: g.nextGUID(), inputs: []*Tensor{input}, outputs: []*Tensor{output}, graph: g},
		Permutation: perm,
	}
	return op, nil
}

func isBijection(perm []int) bool {
	seen := make([]bool, len(perm))
	for _, p := range perm {
		if p < 0 || p >= len(perm) || seen[p] {
			return false
		}
		seen[p] = true
	}
	return true
}

// isIdentity reports whether perm is the identity permutation.
func isIdentity(perm []int) bool {
	for i, p := range perm {
		if p != i {
			return false
		}
	}
	return true
}

// isLastTwoSwap reports whether perm is the identity everywhere except that
// it swaps the final two axes.
func isLastTwoSwap(perm []int) bool {
	n := len(perm)
	if n < 2 {
		return false
	}
	if perm[n-2] != n-1 || perm[n-1] != n-2 {
		return false
	}
	for i := 0; i < n-2; i++ {
		if perm[i] != i {
			return false
		}
	}
	return true
}

func (t *Transpose) OpType() OpType { return OpTranspose }

// InferShape implements Transpose's shape rule: output rank equals input
// rank, and output extent at position i is input.shape[permutation[i]].
func (t *Transpose) InferShape() ([]shapeutil.Shape, bool) {
	in := t.inputs[0].Shape()
	if len(t.Permutation) != len(in) {
		return nil, false
	}
	out := make(shapeutil.Shape, len(in))
	for i, p := range t.Permutation {
		if p < 0 || p >= len(in) {
			return nil, false
		}
		out[i] = in[p]
	}
	return []shapeutil.Shape{out}, true
}

func (t *Transpose) String() string {
	return fmt.Sprintf("Transpose[%d](perm=%v, input=%d, output=%d)",
		t.guid, t.Permutation, t.inputs[0].FUID(), t.outputs[0].FUID())
}
