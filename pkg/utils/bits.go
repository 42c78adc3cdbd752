package utils

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

const BitsPerByte = 8

// Returns the size in bits of n bytes
func Bits(bytes int) int {
	return bytes * BitsPerByte
}

// Returns the size in bytes of values of a type
func Sizeof[T any]() int {
	var val T
	return int(unsafe.Sizeof(val))
}

// Returns the size in bits of values of a type
func SizeofBits[T any]() int {
	return Bits(Sizeof[T]())
}

// Returns an all ones bitmask of n bits of the given unsigned integer type
func AllOnes[T constraints.Unsigned](bits int) T {
	if bits >= SizeofBits[T]() {
		return ^T(0)
	}
	return (T(1) << bits) - T(1)
}

// Returns the largest value representable by an unsigned integer type, widened to int64
func MaxUnsigned[T constraints.Unsigned]() int64 {
	return int64(uint64(AllOnes[T](SizeofBits[T]())))
}

// Truncates a signed value to the width of an unsigned type (two's complement wrap around)
func Truncate[T constraints.Unsigned, From constraints.Signed](value From) T {
	return T(value)
}
