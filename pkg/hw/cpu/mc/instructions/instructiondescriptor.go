package instructions

import (
	"fmt"
	"strings"

	"github.com/Manu343726/x86mini/pkg/utils"
)

// ExecuteContext provides the machine state needed for instruction execution
type ExecuteContext interface {
	OperandReader

	// WriteDestination stores a value into a register or memory location
	// given its index in the destination address space
	WriteDestination(index int64, value int64) error
	// GetIP returns the current instruction pointer
	GetIP() uint32
	// SetIP overwrites the instruction pointer, so it is not advanced after
	// the instruction
	SetIP(ip uint32)
	// GetFlags returns the current status flags
	GetFlags() Flags
	// SetFlags replaces the status flags
	SetFlags(flags Flags)
}

// An operand together with the value it had when the instruction was fetched
type ResolvedOperand struct {
	Operand
	Value int64
}

// ExecuteFunc is the signature for instruction execution functions.
// operands contains the instruction operands resolved at fetch time.
type ExecuteFunc func(ctx ExecuteContext, operands []ResolvedOperand) error

// Contains information describing an instruction
type InstructionDescriptor struct {
	// Instruction opcode
	OpCode *OpCodeDescriptor
	// Instruction operands
	Operands []*OperandDescriptor
	// Instruction description (for documentation and debugging)
	Description string
	// Flags written by the instruction, in ZCON notation
	AffectedFlags string

	// Execute is the function that implements the instruction behavior
	Execute ExecuteFunc
}

// Returns a human readable string representation of the instruction
func (d *InstructionDescriptor) String() string {
	var builder strings.Builder

	builder.WriteString(d.OpCode.Mnemonic)

	for _, operand := range d.Operands {
		builder.WriteString(" ")
		builder.WriteString(operand.String())
	}

	return builder.String()
}

// Returns the operands whose location the instruction writes
func (d *InstructionDescriptor) WrittenOperands() []*OperandDescriptor {
	return utils.Filter(d.Operands, (*OperandDescriptor).IsWritten)
}

// Returns full documentation for the instruction
func (d *InstructionDescriptor) Documentation(leftpad int) string {
	var builder strings.Builder
	leftpad_str := strings.Repeat(" ", leftpad)

	builder.WriteString(leftpad_str)
	builder.WriteString(fmt.Sprintf("%v\n\n", d))

	leftpad_str += "  "

	builder.WriteString(leftpad_str)
	builder.WriteString("Description:\n\n  ")
	builder.WriteString(leftpad_str)
	builder.WriteString(d.Description)
	builder.WriteString("\n\n")
	builder.WriteString(leftpad_str)
	builder.WriteString("Flags: ")
	if len(d.AffectedFlags) > 0 {
		builder.WriteString(d.AffectedFlags)
	} else {
		builder.WriteString("(none)")
	}
	builder.WriteString("\n\n")
	builder.WriteString(leftpad_str)
	builder.WriteString("Writes: ")
	if written := d.WrittenOperands(); len(written) > 0 {
		builder.WriteString(strings.Join(utils.Map(written, func(o *OperandDescriptor) string { return o.Name }), ", "))
	} else {
		builder.WriteString("(none)")
	}
	builder.WriteString("\n\n")
	builder.WriteString(leftpad_str)
	builder.WriteString("Operands:\n\n")

	if len(d.Operands) > 0 {
		for i, operand := range d.Operands {
			builder.WriteString(leftpad_str)
			builder.WriteString(fmt.Sprintf(" [%v] %v: %v\n", i, operand, operand.Description))
		}
	} else {
		builder.WriteString(leftpad_str)
		builder.WriteString("  (none)\n")
	}

	return builder.String()
}
