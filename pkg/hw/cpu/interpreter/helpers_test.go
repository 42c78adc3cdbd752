package interpreter

import (
	"testing"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/stretchr/testify/require"
)

// Builds a raw instruction with a 32 bit size tag. Integer operands become
// numeric tokens, strings become text tokens.
func op(mnemonic string, operands ...any) instructions.RawInstruction {
	tokens := []instructions.Token{instructions.Number(32)}

	for _, operand := range operands {
		switch v := operand.(type) {
		case int:
			tokens = append(tokens, instructions.Number(int64(v)))
		case string:
			tokens = append(tokens, instructions.Text(v))
		default:
			panic("unsupported operand type in test program")
		}
	}

	return instructions.RawInstruction{Mnemonic: mnemonic, Operands: tokens}
}

func mustProgram(t *testing.T, raws ...instructions.RawInstruction) instructions.Program {
	t.Helper()
	program, err := instructions.DecodeProgram(raws)
	require.NoError(t, err)
	return program
}

func newTestInterpreter(t *testing.T, raws ...instructions.RawInstruction) *Interpreter {
	t.Helper()
	return NewInterpreter(mustProgram(t, raws...), 64)
}

// Counts r0 from 0 to 50 in steps of 10
func loopProgram() []instructions.RawInstruction {
	return []instructions.RawInstruction{
		op("mov", 0, "r0"),
		op("mov", 10, "r1"),
		op("add", "r1", "r0"),
		op("cmp", "r0", 50),
		op("je", 6),
		op("jmp", 2),
	}
}
