package dtype_test

import (
	"testing"

	"github.com/example/tinygraph/internal/dtype"
	"github.com/stretchr/testify/assert"
)

func TestByteWidth(t *testing.T) {
	cases := []struct {
		d    dtype.DType
		want int
	}{
		{dtype.Float32, 4},
		{dtype.Int32, 4},
		{dtype.Float64, 8},
		{dtype.Int64, 8},
		{dtype.UInt8, 1},
		{dtype.Bool, 1},
		{dtype.Invalid, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.d.ByteWidth(), "dtype %v", tc.d)
	}
}

func TestValid(t *testing.T) {
	assert.True(t, dtype.Float32.Valid())
	assert.False(t, dtype.Invalid.Valid())
}

func TestString(t *testing.T) {
	assert.Equal(t, "Float32", dtype.Float32.String())
	assert.Contains(t, dtype.DType(99).String(), "DType")
}
