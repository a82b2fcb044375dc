package tensorgraph

import "github.com/example/tinygraph/internal/log"

// Optimize runs the rewrite set to a fixed point: scan operators in order,
// apply the first matching rewrite (R1 before R2, per operator), mutate the
// graph, and restart the scan from the top. It stops either when a full
// scan finds nothing left to rewrite, or immediately if the graph does not
// topologically sort.
//
// R1 fuses two adjacent Transposes reachable through a single-consumer
// tensor by composing their permutations, collapsing the pair to identity
// (splice through) or to one combined Transpose.
//
// R2 absorbs a terminal Transpose that only swaps a MatMul input's last two
// axes into that MatMul, by toggling TransA/TransB, when the Transpose's
// output has no other consumer.
func (g *Graph) Optimize() bool {
	if !g.TopoSort() {
		return false
	}

	rewrites := 0
	for {
		if g.tryRewriteOnce() {
			rewrites++
			continue
		}
		break
	}
	if rewrites > 0 {
		log.Log.Info().Int("rewrites", rewrites).Msg("graph optimize applied rewrites to a fixed point")
	}
	return true
}

// tryRewriteOnce scans the operator list for the first applicable rewrite,
// applies it, and returns true. Returns false once a full scan finds none.
func (g *Graph) tryRewriteOnce() bool {
	for _, op := range g.ops {
		if t, ok := op.(*Transpose); ok {
			if g.tryFuseTranspose(t) {
				return true
			}
		}
		if m, ok := op.(*MatMul); ok {
			if g.tryAbsorbTransposeIntoMatMul(m) {
				return true
			}
		}
	}
	return false
}

// tryFuseTranspose implements R1 for op: if op's single input is produced
// by another Transpose that has no other consumer, compose the two
// permutations. A resulting identity permutation splices op's consumers
// directly onto the earlier Transpose's input; otherwise a single combined
// Transpose replaces the pair.
func (g *Graph) tryFuseTranspose(op *Transpose) bool {
	input := op.inputs[0]
	prev, ok := input.Source().(*Transpose)
	if !ok || prev == nil {
		return false
	}
	if len(input.Targets()) != 1 {
		return false
	}

	prevInput := prev.inputs[0]
	composed := make([]int, len(op.Permutation))
	for j, p := range op.Permutation {
		composed[j] = prev.Permutation[p]
	}

	prevInput.RemoveTarget(prev)

	if isIdentity(composed) {
		for _, succ := range op.Successors() {
			succ.ReplaceInput(op.outputs[0], prevInput)
			prevInput.AddTarget(succ)
		}
		g.RemoveTensor(op.outputs[0])
	} else {
		newOp, err := NewTranspose(g, prevInput, op.outputs[0], composed)
		if err != nil {
			// Composed permutation is a bijection of the same length by
			// construction; validateOperator can only fail here if prevInput
			// itself is malformed, which CheckValid would already have caught.
			return false
		}
		if err := g.AddOperatorAndConnect(newOp); err != nil {
			return false
		}
	}

	for _, pred := range prev.Predecessors() {
		pred.removeSuccessor(prev)
	}
	for _, succ := range op.Successors() {
		succ.removePredecessor(op)
	}

	g.RemoveTensor(input)
	g.RemoveOperator(op)
	g.RemoveOperator(prev)
	return true
}

// tryAbsorbTransposeIntoMatMul implements R2 for op: for each of its two
// inputs, if that input is produced by a Transpose that only swaps the
// last two axes and has no other consumer, fold the transpose into op's
// TransA/TransB flag and drop the Transpose.
func (g *Graph) tryAbsorbTransposeIntoMatMul(op *MatMul) bool {
	for slot := 0; slot < 2; slot++ {
		input := op.inputs[slot]
		prev, ok := input.Source().(*Transpose)
		if !ok || prev == nil {
			continue
		}
		if len(input.Targets()) != 1 {
			continue
		}
		if !isLastTwoSwap(prev.Permutation) {
			continue
		}

		if slot == 0 {
			op.TransA = !op.TransA
		} else {
			op.TransB = !op.TransB
		}

		prevInput := prev.inputs[0]
		prevInput.RemoveTarget(prev)
		prevInput.AddTarget(op)
		op.ReplaceInput(input, prevInput)
		op.removePredecessor(prev)
		for _, pred := range prev.Predecessors() {
			pred.removeSuccessor(prev)
			pred.addSuccessor(op)
			op.addPredecessor(pred)
		}

		g.RemoveTensor(input)
		g.RemoveOperator(prev)
		return true
	}
	return false
}
