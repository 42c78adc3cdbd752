package instructions

// Represents an instruction opcode
type OpCode uint

const (
	// Copy a value into a register or memory location
	OpCode_MOV OpCode = iota
	// Add two values, save the result into the location of the second one
	OpCode_ADD
	// Substract two values, save the result into the location of the second one
	OpCode_SUB
	// Unconditional jump to an instruction index
	OpCode_JMP
	// Compare two values, updating the flags only
	OpCode_CMP
	// Jump to an instruction index if the zero flag is set
	OpCode_JE

	// Total opcodes implemented
	TOTAL_OPCODES
)

// Returns the mnemonic of the instruction opcode
func (op OpCode) String() string {
	return Opcodes.Mnemonic(op)
}
