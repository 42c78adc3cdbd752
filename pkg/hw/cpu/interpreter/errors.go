package interpreter

import "errors"

var (
	// Memory access outside of the machine memory
	ErrSegfault = errors.New("memory access out of bounds")
	// Write to an index outside of the register + memory destination space
	ErrInvalidDestination = errors.New("invalid destination")
	// Step requested on a halted CPU
	ErrHalted = errors.New("CPU is halted")
)
