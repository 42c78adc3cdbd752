package instructions

import "fmt"

// Represents the role an operand has within an instruction
type OperandRole uint

const (
	OperandRole_Source OperandRole = iota
	// The operand is read and its location is also written
	OperandRole_SourceDestination
	OperandRole_Destination
	// The operand value is an instruction index
	OperandRole_JumpTarget
)

func (o OperandRole) String() string {
	switch o {
	case OperandRole_Source:
		return "Source"
	case OperandRole_SourceDestination:
		return "SourceDestination"
	case OperandRole_Destination:
		return "Destination"
	case OperandRole_JumpTarget:
		return "JumpTarget"
	}

	panic("unreachable")
}

// Contains information about an instruction operand
type OperandDescriptor struct {
	// Name used in documentation and disassembly
	Name string
	// Role the operand takes in the instruction
	Role OperandRole
	// Operand description (for documentation and debugging)
	Description string
	// Position within the set of operands of the instruction
	Index int
}

// Returns true if the instruction writes into the operand location
func (o *OperandDescriptor) IsWritten() bool {
	return o.Role == OperandRole_Destination || o.Role == OperandRole_SourceDestination
}

func (o *OperandDescriptor) String() string {
	return fmt.Sprintf("<%v:%v>", o.Name, o.Role)
}
