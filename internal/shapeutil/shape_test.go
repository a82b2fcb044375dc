package shapeutil_test

import (
	"testing"

	"github.com/example/tinygraph/internal/shapeutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferBroadcast(t *testing.T) {
	cases := []struct {
		name    string
		a, b    shapeutil.Shape
		want    shapeutil.Shape
		wantErr bool
	}{
		{name: "equal ranks equal extents", a: shapeutil.Shape{2, 3}, b: shapeutil.Shape{2, 3}, want: shapeutil.Shape{2, 3}},
		{name: "scalar broadcasts over matrix", a: shapeutil.Shape{1}, b: shapeutil.Shape{4, 5}, want: shapeutil.Shape{4, 5}},
		{name: "rank mismatch left-pads shorter", a: shapeutil.Shape{5}, b: shapeutil.Shape{3, 5}, want: shapeutil.Shape{3, 5}},
		{name: "mutual ones broadcast both ways", a: shapeutil.Shape{1, 4}, b: shapeutil.Shape{3, 1}, want: shapeutil.Shape{3, 4}},
		{name: "incompatible extents fail", a: shapeutil.Shape{2, 3}, b: shapeutil.Shape{2, 4}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := shapeutil.InferBroadcast(tc.a, tc.b)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, shapeutil.ErrShapeMismatch)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tc.want), "got %v, want %v", got, tc.want)
		})
	}
}

func TestGetRealAxis(t *testing.T) {
	cases := []struct {
		name    string
		axis    int
		rank    int
		want    int
		wantErr bool
	}{
		{name: "positive in range", axis: 1, rank: 3, want: 1},
		{name: "negative wraps", axis: -1, rank: 3, want: 2},
		{name: "negative at lower bound", axis: -3, rank: 3, want: 0},
		{name: "positive out of range", axis: 3, rank: 3, wantErr: true},
		{name: "negative out of range", axis: -4, rank: 3, wantErr: true},
		{name: "rank zero always invalid", axis: 0, rank: 0, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := shapeutil.GetRealAxis(tc.axis, tc.rank)
			if tc.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, shapeutil.ErrBadAxis)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLocateAndDelocateIndexRoundTrip(t *testing.T) {
	shape := shapeutil.Shape{2, 3, 4}
	stride := shape.Strides()

	for n := 0; n < shape.Size(); n++ {
		idx := shapeutil.LocateIndex(n, shape)
		require.Len(t, idx, len(shape))
		back := shapeutil.DelocateIndex(idx, shape, stride)
		assert.Equal(t, n, back, "round trip mismatch for linear index %d", n)
	}
}

func TestShapeStridesRowMajor(t *testing.T) {
	s := shapeutil.Shape{2, 3, 4}
	assert.Equal(t, shapeutil.Shape{12, 4, 1}, s.Strides())
}

func TestShapeSize(t *testing.T) {
	assert.Equal(t, 24, shapeutil.Shape{2, 3, 4}.Size())
	assert.Equal(t, 1, shapeutil.Shape{}.Size())
}

func TestShapeEqual(t *testing.T) {
	assert.True(t, shapeutil.Shape{1, 2}.Equal(shapeutil.Shape{1, 2}))
	assert.False(t, shapeutil.Shape{1, 2}.Equal(shapeutil.Shape{2, 1}))
	assert.False(t, shapeutil.Shape{1, 2}.Equal(shapeutil.Shape{1, 2, 1}))
}
