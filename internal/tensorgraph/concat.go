package tensorgraph

import (
	"fmt"

	"github.com/example/tinygraph/internal/shapeutil"
)

// Concat joins Inputs along Dim, an already-resolved (non-negative) axis.
// All inputs must share the same rank, and must agree on every axis except
// Dim.
type Concat struct {
	baseOp
	Dim int
}

// NewConcat constructs a Concat operator bound to graph. dim may be
// negative; it is resolved against the rank of the first input.
func NewConcat(g *Graph, inputs []*Tensor, output *Tensor, dim int) (*Concat, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: Concat requires at least one input", ErrInvariantViolation)
	}
	if err := validateOperator(g, inputs, []*Tensor{output}); err != nil {
		return nil, err
	}
	rank := len(inputs[0].Shape())
	resolved, err := shapeutil.GetRealAxis(dim, rank)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadAxis, err)
	}
	op := &Concat{
		baseOp: baseOp{guid: g.nextGUID(), inputs: append([]*Tensor(nil), inputs...), outputs: []*Tensor{output}, graph: g},
		Dim:    resolved,
	}
	return op, nil
}

func (c *Concat) OpType() OpType { return OpConcat }

// InferShape implements Concat's shape rule: every input must share rank
// and must agree on every axis but Dim; the output extent at Dim is the
// sum of the inputs' extents there.
func (c *Concat) InferShape() ([]shapeutil.Shape, bool) {
	rank := len(c.inputs[0].Shape())
	out := c.inputs[0].Shape()

	total := 0
	for _, in := range c.inputs {
		s := in.Shape()
		if len(s) != rank {
			return nil, false
		}
		for j := 0; j < rank; j++ {
			if j != c.Dim && s[j] != out[j] {
				return nil, false
			}
		}
		total += s[c.Dim]
	}
	out[c.Dim] = total
	return []shapeutil.Shape{out}, true
}

func (c *Concat) String() string {
	ids := make([]int64, len(c.inputs))
	for i, in := range c.inputs {
		ids[i] = in.FUID()
	}
	return fmt.Sprintf("Concat[%d](dim=%d, inputs=%v, output=%d)", c.guid, c.Dim, ids, c.outputs[0].FUID())
}
