package instructions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Manu343726/x86mini/pkg/utils"
)

// Constains information about all implemented instructions
type InstructionsDescriptor struct {
	instructions map[OpCode]*InstructionDescriptor
}

// Returns all implemented instructions, ordered by opcode
func (d *InstructionsDescriptor) AllInstructions() []*InstructionDescriptor {
	return utils.SortedValues(d.instructions)
}

var ErrInstructionNotImplemented = errors.New("instruction not implemented")

// Returns the instruction corresponding to the given opcode
func (d *InstructionsDescriptor) Instruction(op OpCode) (*InstructionDescriptor, error) {
	if instruction, hasInstruction := d.instructions[op]; hasInstruction {
		return instruction, nil
	} else {
		return nil, utils.MakeError(ErrInstructionNotImplemented, "no instruction implemented for opcode '%v'", op)
	}
}

// Returns the documentation of the whole instruction set
func (d *InstructionsDescriptor) DocString() string {
	var builder strings.Builder

	builder.WriteString("Instruction set\n")
	builder.WriteString("===============\n\n")
	builder.WriteString("Every instruction carries an operand size tag as its first operand token. The tag is ignored.\n\n")

	for _, instruction := range d.AllInstructions() {
		builder.WriteString(instruction.Documentation(2))
		builder.WriteString("\n")
	}

	return builder.String()
}

// Initializes an instructions descriptor with all the given instructions
func NewInstructionsDescriptor(instructions []*InstructionDescriptor) InstructionsDescriptor {
	for _, instr := range instructions {
		for i := range instr.Operands {
			instr.Operands[i].Index = i
		}

		if instr.Execute == nil {
			panic(fmt.Errorf("instruction %v has no Execute function", instr.OpCode))
		}
	}

	d := InstructionsDescriptor{
		instructions: utils.GenMap(instructions, func(i *InstructionDescriptor) OpCode { return i.OpCode.OpCode }),
	}

	if len(d.instructions) != int(TOTAL_OPCODES) {
		panic(fmt.Errorf("expected %v instructions, got %v", TOTAL_OPCODES, len(d.instructions)))
	}

	return d
}
