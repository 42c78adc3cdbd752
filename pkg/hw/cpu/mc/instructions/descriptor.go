package instructions

import (
	"github.com/Manu343726/x86mini/pkg/utils"
)

var Opcodes OpCodesDescriptor = NewOpCodesDescriptor(
	map[OpCode]string{
		OpCode_MOV: "mov",
		OpCode_ADD: "add",
		OpCode_SUB: "sub",
		OpCode_JMP: "jmp",
		OpCode_CMP: "cmp",
		OpCode_JE:  "je",
	},
)

var Instructions InstructionsDescriptor = NewInstructionsDescriptor([]*InstructionDescriptor{
	Mov(),
	Add(),
	Sub(),
	Jmp(),
	Cmp(),
	Je(),
})

func Mov() *InstructionDescriptor {
	return &InstructionDescriptor{
		OpCode:      Opcodes.Descriptor(OpCode_MOV),
		Description: "Copies the value of the source operand into the register or memory byte addressed by the destination operand",
		Operands: []*OperandDescriptor{
			{
				Name:        "src",
				Role:        OperandRole_Source,
				Description: "value to copy",
			},
			{
				Name:        "dst",
				Role:        OperandRole_Destination,
				Description: "destination index. Indices below the register count address registers, the rest address memory",
			},
		},
		Execute: func(ctx ExecuteContext, operands []ResolvedOperand) error {
			return ctx.WriteDestination(operands[1].Destination(), operands[0].Value)
		},
	}
}

func arithmeticInstruction(opcode OpCode, description string, op func(a, b int64) (int64, Flags)) *InstructionDescriptor {
	return &InstructionDescriptor{
		OpCode:        Opcodes.Descriptor(opcode),
		Description:   description,
		AffectedFlags: "ZCON",
		Operands: []*OperandDescriptor{
			{
				Name:        "a",
				Role:        OperandRole_Source,
				Description: "first operand",
			},
			{
				Name:        "b",
				Role:        OperandRole_SourceDestination,
				Description: "second operand. The result is written into its location",
			},
		},
		Execute: func(ctx ExecuteContext, operands []ResolvedOperand) error {
			result, flags := op(operands[0].Value, operands[1].Value)

			if err := ctx.WriteDestination(operands[1].Destination(), result); err != nil {
				return err
			}

			ctx.SetFlags(flags)
			return nil
		},
	}
}

func Add() *InstructionDescriptor {
	return arithmeticInstruction(OpCode_ADD, "Adds the two operand values and saves the result into the location of the second operand", AddWithFlags)
}

func Sub() *InstructionDescriptor {
	return arithmeticInstruction(OpCode_SUB, "Substracts the second operand value from the first one and saves the result into the location of the second operand", SubWithFlags)
}

func Cmp() *InstructionDescriptor {
	return &InstructionDescriptor{
		OpCode:        Opcodes.Descriptor(OpCode_CMP),
		Description:   "Substracts the second operand value from the first one and updates the flags with the result, which is discarded. The overflow flag is left untouched",
		AffectedFlags: "ZC-N",
		Operands: []*OperandDescriptor{
			{
				Name:        "lhs",
				Role:        OperandRole_Source,
				Description: "first operand",
			},
			{
				Name:        "rhs",
				Role:        OperandRole_Source,
				Description: "second operand",
			},
		},
		Execute: func(ctx ExecuteContext, operands []ResolvedOperand) error {
			ctx.SetFlags(CompareFlags(operands[0].Value, operands[1].Value, ctx.GetFlags()))
			return nil
		},
	}
}

func jumpInstruction(opcode OpCode, description string, condition func(Flags) bool) *InstructionDescriptor {
	return &InstructionDescriptor{
		OpCode:      Opcodes.Descriptor(opcode),
		Description: description,
		Operands: []*OperandDescriptor{
			{
				Name:        "target",
				Role:        OperandRole_JumpTarget,
				Description: "absolute index of the next instruction to execute",
			},
		},
		Execute: func(ctx ExecuteContext, operands []ResolvedOperand) error {
			if !condition(ctx.GetFlags()) {
				return nil
			}

			target := operands[0].Value
			if target < 0 || target > utils.MaxUnsigned[uint32]() {
				return utils.MakeError(ErrInvalidJumpTarget, "%v", target)
			}

			ctx.SetIP(uint32(target))
			return nil
		},
	}
}

func Jmp() *InstructionDescriptor {
	return jumpInstruction(OpCode_JMP, "Continues execution at the given instruction index", func(Flags) bool { return true })
}

func Je() *InstructionDescriptor {
	return jumpInstruction(OpCode_JE, "Continues execution at the given instruction index if the zero flag is set", func(f Flags) bool { return f.Zero })
}
