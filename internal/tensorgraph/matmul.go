package tensorgraph

import (
	"fmt"

	"github.com/example/tinygraph/internal/shapeutil"
)

// MatMul computes C = op(A) @ op(B), where op(X) optionally transposes X's
// last two axes first. Inputs must have rank >= 2.
type MatMul struct {
	baseOp
	TransA bool
	TransB bool
}

// NewMatMul constructs a MatMul operator bound to graph, validating input
// rank/dtype compatibility before returning.
func NewMatMul(g *Graph, a, b, c *Tensor, transA, transB bool) (*MatMul, error) {
	if err := validateOperator(g, []*Tensor{a, b}, []*Tensor{c}); err != nil {
		return nil, err
	}
	op := &MatMul{
		baseOp: baseOp{guid: g.nextGUID(), inputs: []*Tensor{a, b}, outputs: []*Tensor{c}, graph: g},
		TransA: transA,
		TransB: transB,
	}
	return op, nil
}

func (m *MatMul) OpType() OpType { return OpMatMul }

// InferShape implements MatMul's shape rule: both inputs must have rank >=
// 2; after optionally transposing each input's last two axes, the inner
// dimensions must agree, and the output batches leading axes with
// NumPy-style max-broadcasting and keeps the trailing (M, N) pair.
func (m *MatMul) InferShape() ([]shapeutil.Shape, bool) {
	a, b := m.inputs[0].Shape(), m.inputs[1].Shape()
	rankA, rankB := len(a), len(b)
	if rankA < 2 || rankB < 2 {
		return nil, false
	}

	ta, tb := a.Clone(), b.Clone()
	if m.TransA {
		ta[rankA-1], ta[rankA-2] = ta[rankA-2], ta[rankA-1]
	}
	if m.TransB {
		tb[rankB-1], tb[rankB-2] = tb[rankB-2], tb[rankB-1]
	}

	if ta[rankA-1] != tb[rankB-2] {
		return nil, false
	}

	batchRank := rankA - 2
	if rankB-2 > batchRank {
		batchRank = rankB - 2
	}
	out := make(shapeutil.Shape, 0, batchRank+2)
	for i := 0; i < batchRank; i++ {
		dimA, dimB := 1, 1
		if j := i - (batchRank - (rankA - 2)); j >= 0 {
			dimA = ta[j]
		}
		if j := i - (batchRank - (rankB - 2)); j >= 0 {
			dimB = tb[j]
		}
		if dimA > dimB {
			out = append(out, dimA)
		} else {
			out = append(out, dimB)
		}
	}
	out = append(out, ta[rankA-2], tb[rankB-1])

	return []shapeutil.Shape{out}, true
}

func (m *MatMul) String() string {
	return fmt.Sprintf("MatMul[%d](transA=%v, transB=%v, A=%d, B=%d, C=%d)",
		m.guid, m.TransA, m.TransB, m.inputs[0].FUID(), m.inputs[1].FUID(), m.outputs[0].FUID())
}
