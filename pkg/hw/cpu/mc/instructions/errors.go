package instructions

import "errors"

var (
	// The mnemonic is not part of the instruction set
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	// The operand token has none of the recognized shapes. The operand still
	// carries a best effort integer value
	ErrMalformedOperand = errors.New("malformed operand")
	ErrBadOperandCount  = errors.New("bad operand count")
	// The jump target is not a valid instruction index
	ErrInvalidJumpTarget = errors.New("invalid jump target")
)
