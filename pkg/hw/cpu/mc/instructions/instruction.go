package instructions

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Manu343726/x86mini/pkg/utils"
)

// An instruction as produced by an assembler or a fixture: opcode byte,
// operand tokens and mnemonic. The first operand token is the operand size tag.
type RawInstruction struct {
	// Machine code opcode. Diagnostic only, dispatch uses the mnemonic
	Code     byte
	Operands []Token
	Mnemonic string
}

// Returns the operand size tag, if any
func (r RawInstruction) SizeTag() (Token, bool) {
	if len(r.Operands) == 0 {
		return Token{}, false
	}

	return r.Operands[0], true
}

// Returns the operand tokens without the size tag. The returned slice is a
// view over the instruction tokens and must not be modified.
func (r RawInstruction) OperandTokens() []Token {
	if len(r.Operands) == 0 {
		return nil
	}

	return r.Operands[1:]
}

func (r RawInstruction) String() string {
	return fmt.Sprintf("%v %v (code %v)", r.Mnemonic, utils.FormatSlice(r.Operands, ", "), utils.FormatHex(r.Code))
}

// A decoded instruction, ready for execution
type Instruction struct {
	Raw RawInstruction
	// Nil if the instruction cannot be executed (see Err)
	Descriptor *InstructionDescriptor
	Operands   []Operand
	// Problems found while decoding. Instructions with a descriptor may still
	// carry malformed operand errors.
	Err error
}

// Returns true if the instruction can be dispatched
func (i *Instruction) Executable() bool {
	return i.Descriptor != nil
}

// Returns the mnemonic of the instruction as written in the program
func (i *Instruction) Mnemonic() string {
	return i.Raw.Mnemonic
}

// Returns the instruction in assembly-like syntax ("add r1, r0")
func (i *Instruction) String() string {
	if !i.Executable() {
		return fmt.Sprintf("%v <%v>", i.Raw.Mnemonic, utils.FormatSlice(i.Raw.OperandTokens(), ", "))
	}

	if len(i.Operands) == 0 {
		return i.Descriptor.OpCode.Mnemonic
	}

	return i.Descriptor.OpCode.Mnemonic + " " + utils.FormatSlice(i.Operands, ", ")
}

// Decodes a raw instruction.
//
// Unknown mnemonics, wrong operand counts and invalid register references make
// the instruction non executable. Malformed operands are reported but the
// instruction stays executable with the coerced operand values.
func Decode(raw RawInstruction) Instruction {
	instr := Instruction{Raw: raw}

	opcode, err := Opcodes.ParseOpCode(raw.Mnemonic)
	if err != nil {
		instr.Err = err
		return instr
	}

	descriptor, err := Instructions.Instruction(opcode)
	if err != nil {
		instr.Err = err
		return instr
	}

	tokens := raw.OperandTokens()
	if len(tokens) != len(descriptor.Operands) {
		instr.Err = utils.MakeError(ErrBadOperandCount, "%v expects %v operands after the size tag, got %v", descriptor.OpCode, len(descriptor.Operands), len(tokens))
		return instr
	}

	operands := make([]Operand, len(tokens))
	var malformed []error

	for i, token := range tokens {
		operand, err := ParseOperand(token)

		if err != nil {
			if !errors.Is(err, ErrMalformedOperand) {
				instr.Err = fmt.Errorf("operand %v: %w", i, err)
				return instr
			}

			malformed = append(malformed, fmt.Errorf("operand %v: %w", i, err))
		}

		operands[i] = operand
	}

	instr.Descriptor = descriptor
	instr.Operands = operands
	instr.Err = errors.Join(malformed...)
	return instr
}

// An immutable decoded instruction sequence. A program can be shared by any
// number of interpreters.
type Program []Instruction

// Decodes a sequence of raw instructions. Decoding never stops early: the
// returned program always has one instruction per raw instruction, and the
// returned error joins the problems of all instructions.
func DecodeProgram(raws []RawInstruction) (Program, error) {
	program := make(Program, len(raws))
	var errs []error

	for i, raw := range raws {
		program[i] = Decode(raw)

		if program[i].Err != nil {
			errs = append(errs, MakeProgramError(i, raw, program[i].Err))
		}
	}

	return program, errors.Join(errs...)
}

func MakeProgramError(index int, raw RawInstruction, err error) error {
	return fmt.Errorf("instruction %v (%v): %w", index, strings.TrimSpace(raw.Mnemonic), err)
}

// Returns the indices of instructions that cannot be executed
func (p Program) NonExecutable() []int {
	return utils.Filter(utils.Iota(len(p), func(i int) int { return i }), func(i int) bool {
		return !p[i].Executable()
	})
}
