package instructions

import "github.com/Manu343726/x86mini/pkg/utils"

// The flag rules below are approximations of the x86 ones and are kept as is:
// carry and overflow are derived from the untruncated 64 bit result.

// Adds two operand values, returning the untruncated result and the new flags
func AddWithFlags(a, b int64) (int64, Flags) {
	result := a + b

	return result, Flags{
		Carry:    result > utils.MaxUnsigned[uint32](),
		Overflow: (a > 0 && b > 0 && result < 0) || (a < 0 && b < 0 && result >= 0),
		Zero:     result == 0,
		Negative: result < 0,
	}
}

// Substracts two operand values, returning the untruncated result and the new flags.
// Carry is set when the result is negative.
func SubWithFlags(a, b int64) (int64, Flags) {
	result := a - b

	return result, Flags{
		Carry:    result < 0,
		Overflow: (a > 0 && b < 0 && result < 0) || (a < 0 && b > 0 && result >= 0),
		Zero:     result == 0,
		Negative: result < 0,
	}
}

// Computes the flags of comparing two values. The overflow flag is carried
// over from the current flags.
func CompareFlags(a, b int64, current Flags) Flags {
	result := a - b

	return Flags{
		Carry:    result < 0,
		Overflow: current.Overflow,
		Zero:     result == 0,
		Negative: result < 0,
	}
}
