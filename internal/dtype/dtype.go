// Package dtype names the element types a tensor can hold and their byte
// widths, the way the original DataType field of a tensor does.
package dtype

import "fmt"

// DType tags the element type of a tensor.
type DType int

const (
	Invalid DType = iota
	Float32
	Float64
	Int32
	Int64
	UInt8
	Bool
)

// ByteWidth returns the size in bytes of a single element of this type.
func (d DType) ByteWidth() int {
	switch d {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case UInt8, Bool:
		return 1
	default:
		return 0
	}
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case Bool:
		return "Bool"
	default:
		return fmt.Sprintf("DType(%d)", int(d))
	}
}

// Valid reports whether d is a known, non-zero-width element type.
func (d DType) Valid() bool {
	return d.ByteWidth() > 0
}
