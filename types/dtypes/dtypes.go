// Package dtypes defines the element types a distributed transpose can move.
package dtypes

// DType identifies the element type of a distributed array.
//
// The engine stores everything as float64 words: a Float64 element is one
// word, a Complex128 element is a (real, imag) pair of words that travels
// together through the transpose.
type DType int

//go:generate go tool enumer -type=DType dtypes.go

const (
	Invalid DType = iota
	Float64
	Complex128
)

// Itemsize returns the number of float64 storage words per element,
// or 0 for dtypes the engine does not support.
func (d DType) Itemsize() int {
	switch d {
	case Float64:
		return 1
	case Complex128:
		return 2
	}
	return 0
}
