package utils

import (
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Formats an uint value into an fixed width hex string of n characters
func FormatUintHex(value uint64, digits int) string {
	return fmt.Sprintf("0x%0*X", digits, value)
}

// Formats an unsigned value as hex using as many digits as the type holds
func FormatHex[T constraints.Unsigned](value T) string {
	return FormatUintHex(uint64(value), Sizeof[T]()*2)
}

// Returns an string containing all formatted sequence items separated by a given separator
func FormatSlice[T any](input []T, separator string) string {
	var builder strings.Builder

	for i, value := range input {
		builder.WriteString(fmt.Sprint(value))

		if i < len(input)-1 {
			builder.WriteString(separator)
		}
	}

	return builder.String()
}
