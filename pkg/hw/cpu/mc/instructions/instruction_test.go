package instructions

import (
	"testing"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func raw(mnemonic string, operands ...Token) RawInstruction {
	return RawInstruction{Mnemonic: mnemonic, Operands: operands}
}

func TestRawInstruction_OperandTokensIsAView(t *testing.T) {
	r := raw("mov", Number(32), Number(10), Text("r1"))

	tag, hasTag := r.SizeTag()
	require.True(t, hasTag)
	assert.Equal(t, Number(32), tag)

	tokens := r.OperandTokens()
	assert.Equal(t, []Token{Number(10), Text("r1")}, tokens)

	// decoding twice must see the same tokens, the size tag is never consumed
	first := Decode(r)
	second := Decode(r)
	assert.Equal(t, first, second)
	assert.Len(t, r.Operands, 3)
}

func TestRawInstruction_NoOperands(t *testing.T) {
	r := raw("jmp")

	_, hasTag := r.SizeTag()
	assert.False(t, hasTag)
	assert.Nil(t, r.OperandTokens())

	instr := Decode(r)
	assert.False(t, instr.Executable())
	assert.ErrorIs(t, instr.Err, ErrBadOperandCount)
}

func TestDecode(t *testing.T) {
	instr := Decode(raw("add", Number(32), Text("ebx"), Text("r0")))

	require.NoError(t, instr.Err)
	require.True(t, instr.Executable())
	assert.Equal(t, OpCode_ADD, instr.Descriptor.OpCode.OpCode)
	assert.Equal(t, []Operand{
		RegisterOperand(registers.GeneralPurpose.AllRegisters()[3]),
		RegisterOperand(registers.GeneralPurpose.AllRegisters()[0]),
	}, instr.Operands)
	assert.Equal(t, "add r3, r0", instr.String())
}

func TestDecode_UnsupportedInstruction(t *testing.T) {
	for _, mnemonic := range []string{"hlt", "MOV", " mov", "Add", "je "} {
		t.Run(mnemonic, func(t *testing.T) {
			instr := Decode(raw(mnemonic, Number(32), Number(1), Text("r0")))

			assert.False(t, instr.Executable())
			assert.ErrorIs(t, instr.Err, ErrUnsupportedInstruction)
			assert.Contains(t, instr.Err.Error(), "'"+mnemonic+"'")
		})
	}
}

func TestDecode_MalformedOperandStaysExecutable(t *testing.T) {
	instr := Decode(raw("mov", Number(32), Text("12abc"), Text("r0")))

	assert.True(t, instr.Executable())
	assert.ErrorIs(t, instr.Err, ErrMalformedOperand)
	assert.Equal(t, int64(12), instr.Operands[0].Immediate())
}

func TestDecode_UnknownRegisterIsNotExecutable(t *testing.T) {
	instr := Decode(raw("mov", Number(32), Number(1), Text("r9")))

	assert.False(t, instr.Executable())
	assert.ErrorIs(t, instr.Err, registers.ErrUnknownRegister)
}

func TestDecodeProgram(t *testing.T) {
	program, err := DecodeProgram([]RawInstruction{
		raw("mov", Number(32), Number(0), Text("r0")),
		raw("nop", Number(0)),
		raw("cmp", Number(32), Text("r0"), Text("oops")),
		raw("je", Number(8), Number(0)),
	})

	require.Len(t, program, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedInstruction)
	assert.ErrorIs(t, err, ErrMalformedOperand)
	assert.Contains(t, err.Error(), "instruction 1 (nop)")
	assert.Contains(t, err.Error(), "instruction 2 (cmp)")
	assert.Equal(t, []int{1}, program.NonExecutable())

	_, err = DecodeProgram([]RawInstruction{raw("jmp", Number(8), Number(0))})
	assert.NoError(t, err)
}
