package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/example/tinygraph/internal/dtype"
	"github.com/example/tinygraph/internal/mem"
	"github.com/example/tinygraph/internal/shapeutil"
	"github.com/example/tinygraph/internal/tensorgraph"
)

// TensorSpec describes one graph tensor in a GraphSpec JSON document.
type TensorSpec struct {
	Shape []int  `json:"shape"`
	DType string `json:"dtype"`
}

// OpSpec describes one operator in a GraphSpec JSON document. Inputs and
// Output index into the document's Tensors list. Fields only relevant to
// one operator type (TransA/TransB, Permutation, Dim) are ignored by the
// others.
type OpSpec struct {
	Type        string `json:"type"`
	Inputs      []int  `json:"inputs"`
	Output      int    `json:"output"`
	TransA      bool   `json:"trans_a,omitempty"`
	TransB      bool   `json:"trans_b,omitempty"`
	Permutation []int  `json:"permutation,omitempty"`
	Dim         int    `json:"dim,omitempty"`
}

// GraphSpec is the on-disk JSON form of a dataflow graph, the Go analogue
// of the original solver's ProblemJSON document.
type GraphSpec struct {
	Tensors []TensorSpec `json:"tensors"`
	Ops     []OpSpec     `json:"ops"`
}

// ReadGraphSpec reads and parses a GraphSpec document from filename.
func ReadGraphSpec(filename string) (*GraphSpec, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading graph spec: %w", err)
	}
	var gs GraphSpec
	if err := json.Unmarshal(data, &gs); err != nil {
		return nil, fmt.Errorf("parsing graph spec JSON: %w", err)
	}
	return &gs, nil
}

func parseDType(s string) (dtype.DType, error) {
	switch s {
	case "float32":
		return dtype.Float32, nil
	case "float64":
		return dtype.Float64, nil
	case "int32":
		return dtype.Int32, nil
	case "int64":
		return dtype.Int64, nil
	case "uint8":
		return dtype.UInt8, nil
	case "bool":
		return dtype.Bool, nil
	default:
		return dtype.Invalid, fmt.Errorf("unknown dtype %q", s)
	}
}

// BuildGraph constructs a *tensorgraph.Graph from a parsed GraphSpec,
// bound to runtime with the given allocator alignment.
func BuildGraph(gs *GraphSpec, runtime mem.Runtime, alignment int) (*tensorgraph.Graph, error) {
	g := tensorgraph.NewGraph(runtime, alignment)

	tensors := make([]*tensorgraph.Tensor, len(gs.Tensors))
	for i, ts := range gs.Tensors {
		dt, err := parseDType(ts.DType)
		if err != nil {
			return nil, fmt.Errorf("tensor %d: %w", i, err)
		}
		tensors[i] = g.AddTensor(shapeutil.Shape(ts.Shape), dt)
	}

	resolve := func(idx int) (*tensorgraph.Tensor, error) {
		if idx < 0 || idx >= len(tensors) {
			return nil, fmt.Errorf("tensor index %d out of range [0,%d)", idx, len(tensors))
		}
		return tensors[idx], nil
	}

	for i, opSpec := range gs.Ops {
		inputs := make([]*tensorgraph.Tensor, len(opSpec.Inputs))
		for j, idx := range opSpec.Inputs {
			t, err := resolve(idx)
			if err != nil {
				return nil, fmt.Errorf("op %d: input %d: %w", i, j, err)
			}
			inputs[j] = t
		}
		output, err := resolve(opSpec.Output)
		if err != nil {
			return nil, fmt.Errorf("op %d: output: %w", i, err)
		}

		var op tensorgraph.Operator
		switch opSpec.Type {
		case string(tensorgraph.OpMatMul):
			if len(inputs) != 2 {
				return nil, fmt.Errorf("op %d: MatMul requires exactly 2 inputs, got %d", i, len(inputs))
			}
			op, err = tensorgraph.NewMatMul(g, inputs[0], inputs[1], output, opSpec.TransA, opSpec.TransB)
		case string(tensorgraph.OpTranspose):
			if len(inputs) != 1 {
				return nil, fmt.Errorf("op %d: Transpose requires exactly 1 input, got %d", i, len(inputs))
			}
			op, err = tensorgraph.NewTranspose(g, inputs[0], output, opSpec.Permutation)
		case string(tensorgraph.OpConcat):
			op, err = tensorgraph.NewConcat(g, inputs, output, opSpec.Dim)
		default:
			return nil, fmt.Errorf("op %d: unknown operator type %q", i, opSpec.Type)
		}
		if err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
		if err := g.AddOperatorAndConnect(op); err != nil {
			return nil, fmt.Errorf("op %d: wiring: %w", i, err)
		}
	}

	return g, nil
}
