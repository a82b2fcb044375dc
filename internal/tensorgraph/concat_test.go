package tensorgraph_test

import (
	"testing"

	"github.com/example/tinygraph/internal/dtype"
	"github.com/example/tinygraph/internal/shapeutil"
	"github.com/example/tinygraph/internal/tensorgraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatInferShapeSumsAlongDim(t *testing.T) {
	g := newTestGraph()
	a := g.AddTensor(shapeutil.Shape{2, 3}, dtype.Float32)
	b := g.AddTensor(shapeutil.Shape{2, 5}, dtype.Float32)
	out := g.AddTensor(shapeutil.Shape{2, 8}, dtype.Float32)

	c, err := tensorgraph.NewConcat(g, []*tensorgraph.Tensor{a, b}, out, 1)
	require.NoError(t, err)

	shapes, ok := c.InferShape()
	require.True(t, ok)
	assert.True(t, shapes[0].Equal(shapeutil.Shape{2, 8}))
}

func TestConcatInferShapeResolvesNegativeDim(t *testing.T) {
	g := newTestGraph()
	a := g.AddTensor(shapeutil.Shape{2, 3}, dtype.Float32)
	b := g.AddTensor(shapeutil.Shape{2, 5}, dtype.Float32)
	out := g.AddTensor(shapeutil.Shape{2, 8}, dtype.Float32)

	c, err := tensorgraph.NewConcat(g, []*tensorgraph.Tensor{a, b}, out, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Dim)
}

func TestConcatRejectsBadAxis(t *testing.T) {
	g := newTestGraph()
	a := g.AddTensor(shapeutil.Shape{2, 3}, dtype.Float32)
	out := g.AddTensor(shapeutil.Shape{2, 3}, dtype.Float32)

	_, err := tensorgraph.NewConcat(g, []*tensorgraph.Tensor{a}, out, 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, tensorgraph.ErrBadAxis)
}

func TestConcatInferShapeRejectsRankMismatch(t *testing.T) {
	g := newTestGraph()
	a := g.AddTensor(shapeutil.Shape{2, 3}, dtype.Float32)
	b := g.AddTensor(shapeutil.Shape{2, 3, 4}, dtype.Float32)
	out := g.AddTensor(shapeutil.Shape{2, 6}, dtype.Float32)

	c, err := tensorgraph.NewConcat(g, []*tensorgraph.Tensor{a, b}, out, 1)
	require.NoError(t, err)

	_, ok := c.InferShape()
	assert.False(t, ok)
}

func TestConcatInferShapeRejectsOffAxisMismatch(t *testing.T) {
	g := newTestGraph()
	a := g.AddTensor(shapeutil.Shape{2, 3}, dtype.Float32)
	b := g.AddTensor(shapeutil.Shape{5, 5}, dtype.Float32)
	out := g.AddTensor(shapeutil.Shape{2, 8}, dtype.Float32)

	c, err := tensorgraph.NewConcat(g, []*tensorgraph.Tensor{a, b}, out, 1)
	require.NoError(t, err)

	_, ok := c.InferShape()
	assert.False(t, ok)
}
