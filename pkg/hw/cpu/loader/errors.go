package loader

import "errors"

var (
	// The program file is not a valid program
	ErrInvalidProgram = errors.New("invalid program")
	// The initial state seed references registers or memory that don't exist
	ErrInvalidSeed = errors.New("invalid seed")
)
