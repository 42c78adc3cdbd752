package interpreter

import (
	"errors"
	"sync"
	"testing"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCPUState(t *testing.T) {
	state := NewCPUState(1024)

	assert.NotNil(t, state)
	assert.Len(t, state.Memory, 1024)
	assert.Equal(t, uint32(0), state.IP)
	assert.False(t, state.Halted)
	assert.Equal(t, instructions.Flags{}, state.Flags)
}

func TestCPUState_Memory(t *testing.T) {
	state := NewCPUState(16)

	t.Run("write and read", func(t *testing.T) {
		require.NoError(t, state.WriteMemory8(3, 0xAB))

		value, err := state.ReadMemory8(3)
		require.NoError(t, err)
		assert.Equal(t, uint8(0xAB), value)
	})

	t.Run("out of bounds read", func(t *testing.T) {
		_, err := state.ReadMemory8(16)
		assert.ErrorIs(t, err, ErrSegfault)
	})

	t.Run("out of bounds write", func(t *testing.T) {
		assert.ErrorIs(t, state.WriteMemory8(16, 1), ErrSegfault)
	})
}

func TestCPUState_WriteDestination(t *testing.T) {
	state := NewCPUState(16)

	t.Run("register", func(t *testing.T) {
		require.NoError(t, state.WriteDestination(2, 42))
		assert.Equal(t, uint32(42), state.Registers[2])
	})

	t.Run("register truncates to 32 bits", func(t *testing.T) {
		require.NoError(t, state.WriteDestination(1, -1))
		assert.Equal(t, uint32(0xFFFFFFFF), state.Registers[1])

		require.NoError(t, state.WriteDestination(1, 0x1_0000_0005))
		assert.Equal(t, uint32(5), state.Registers[1])
	})

	t.Run("memory starts after the registers", func(t *testing.T) {
		require.NoError(t, state.WriteDestination(8, 7))
		assert.Equal(t, byte(7), state.Memory[0])

		require.NoError(t, state.WriteDestination(8+15, 0x1FF))
		assert.Equal(t, byte(0xFF), state.Memory[15])

		value, err := state.ReadDestination(8 + 15)
		require.NoError(t, err)
		assert.Equal(t, int64(0xFF), value)
	})

	t.Run("outside registers and memory", func(t *testing.T) {
		assert.ErrorIs(t, state.WriteDestination(8+16, 1), ErrInvalidDestination)
		assert.ErrorIs(t, state.WriteDestination(-1, 1), ErrInvalidDestination)

		_, err := state.ReadDestination(-1)
		assert.ErrorIs(t, err, ErrInvalidDestination)
	})
}

func TestCPUState_Clone(t *testing.T) {
	state := NewCPUState(4)
	state.Registers[0] = 1
	state.Memory[0] = 2

	clone := state.Clone()
	clone.Registers[0] = 10
	clone.Memory[0] = 20

	assert.Equal(t, uint32(1), state.Registers[0])
	assert.Equal(t, byte(2), state.Memory[0])
}

func TestInterpreter_Mov(t *testing.T) {
	interp := newTestInterpreter(t,
		op("mov", 0x1234, "r1"),
		op("mov", "r1", "edx"),
		op("mov", 0xAB, "[4]"),
		op("mov", "[4]", "r3"),
	)

	require.NoError(t, interp.Run())

	state := interp.State()
	assert.Equal(t, uint32(0x1234), state.Registers[1])
	assert.Equal(t, uint32(0x1234), state.Registers[2])
	assert.Equal(t, byte(0xAB), state.Memory[4])
	assert.Equal(t, uint32(0xAB), state.Registers[3])
	assert.Equal(t, instructions.Flags{}, state.Flags, "mov does not touch flags")
}

func TestInterpreter_MovReadsValueAtMovTime(t *testing.T) {
	interp := newTestInterpreter(t,
		op("mov", 5, "r0"),
		op("mov", "r0", "r1"),
		op("mov", 9, "r0"),
	)

	require.NoError(t, interp.Run())
	assert.Equal(t, uint32(5), interp.State().Registers[1])
	assert.Equal(t, uint32(9), interp.State().Registers[0])
}

func TestInterpreter_Add(t *testing.T) {
	t.Run("result goes to the second operand", func(t *testing.T) {
		interp := newTestInterpreter(t,
			op("mov", 3, "r0"),
			op("add", 4, "r0"),
		)

		require.NoError(t, interp.Run())
		assert.Equal(t, uint32(7), interp.State().Registers[0])
		assert.Equal(t, instructions.Flags{}, interp.State().Flags)
	})

	t.Run("carry out of 32 bits", func(t *testing.T) {
		interp := newTestInterpreter(t,
			op("mov", "0xFFFFFFFF", "r0"),
			op("add", 1, "r0"),
		)

		require.NoError(t, interp.Run())
		assert.Equal(t, uint32(0), interp.State().Registers[0])
		assert.True(t, interp.State().Flags.Carry)
		assert.False(t, interp.State().Flags.Zero, "zero is computed from the wide result")
	})

	t.Run("zero iff sum wraps to zero", func(t *testing.T) {
		for _, tc := range []struct {
			a, b int
			zero bool
		}{
			{a: 0, b: 0, zero: true},
			{a: 1, b: 2, zero: false},
			{a: 0xFFFFFFFF, b: 1, zero: true},
			{a: 0x80000000, b: 0x80000000, zero: true},
			{a: 0x80000000, b: 0x7FFFFFFF, zero: false},
		} {
			interp := newTestInterpreter(t,
				op("mov", tc.a, "r0"),
				op("mov", tc.b, "r1"),
				op("add", "r0", "r1"),
				op("cmp", "r1", 0),
			)

			require.NoError(t, interp.Run())
			assert.Equal(t, tc.zero, interp.State().Flags.Zero, "%v + %v", tc.a, tc.b)
		}
	})
}

func TestInterpreter_Sub(t *testing.T) {
	t.Run("result goes to the second operand", func(t *testing.T) {
		interp := newTestInterpreter(t,
			op("mov", 3, "r0"),
			op("sub", 10, "r0"),
		)

		require.NoError(t, interp.Run())
		assert.Equal(t, uint32(7), interp.State().Registers[0])
		assert.Equal(t, instructions.Flags{}, interp.State().Flags)
	})

	t.Run("borrow", func(t *testing.T) {
		interp := newTestInterpreter(t,
			op("mov", 10, "r0"),
			op("sub", 3, "r0"),
		)

		require.NoError(t, interp.Run())
		assert.Equal(t, uint32(0xFFFFFFF9), interp.State().Registers[0])
		assert.True(t, interp.State().Flags.Carry)
		assert.True(t, interp.State().Flags.Negative)
	})

	t.Run("zero iff equal", func(t *testing.T) {
		for _, tc := range []struct {
			a, b int
		}{
			{a: 0, b: 0},
			{a: 5, b: 5},
			{a: 5, b: 6},
			{a: 0xFFFFFFFF, b: 0xFFFFFFFF},
			{a: 0xFFFFFFFF, b: 0},
		} {
			interp := newTestInterpreter(t,
				op("mov", tc.a, "r0"),
				op("mov", tc.b, "r1"),
				op("sub", "r0", "r1"),
			)

			require.NoError(t, interp.Run())
			assert.Equal(t, tc.a == tc.b, interp.State().Flags.Zero, "%v - %v", tc.a, tc.b)
		}
	})
}

func TestInterpreter_CmpKeepsOverflowAndOperands(t *testing.T) {
	interp := newTestInterpreter(t,
		op("mov", 5, "r0"),
		op("cmp", "r0", 5),
	)
	interp.State().Flags.Overflow = true

	require.NoError(t, interp.Run())

	state := interp.State()
	assert.Equal(t, uint32(5), state.Registers[0])
	assert.True(t, state.Flags.Zero)
	assert.True(t, state.Flags.Overflow)
	assert.False(t, state.Flags.Carry)
	assert.False(t, state.Flags.Negative)
}

func TestInterpreter_Jmp(t *testing.T) {
	interp := newTestInterpreter(t,
		op("jmp", 2),
		op("mov", 1, "r0"),
		op("mov", 2, "r1"),
	)

	step, err := interp.Step()
	require.NoError(t, err)
	assert.True(t, step.Jumped)
	assert.Equal(t, uint32(2), interp.State().IP)

	step, err = interp.Step()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), step.IP)

	require.NoError(t, interp.Run())
	assert.Equal(t, uint32(0), interp.State().Registers[0], "skipped instruction")
	assert.Equal(t, uint32(2), interp.State().Registers[1])
}

func TestInterpreter_JmpToSelfIsAJump(t *testing.T) {
	interp := newTestInterpreter(t, op("jmp", 0))

	require.NoError(t, interp.RunN(10))
	assert.Equal(t, uint32(0), interp.State().IP)
	assert.False(t, interp.State().Halted)
}

func TestInterpreter_Je(t *testing.T) {
	t.Run("jumps after equal compare", func(t *testing.T) {
		interp := newTestInterpreter(t,
			op("cmp", 4, 4),
			op("je", 3),
			op("mov", 1, "r0"),
		)

		_, err := interp.Step()
		require.NoError(t, err)
		step, err := interp.Step()
		require.NoError(t, err)
		assert.True(t, step.Jumped)
		assert.Equal(t, uint32(3), interp.State().IP)
	})

	t.Run("advances after different compare", func(t *testing.T) {
		interp := newTestInterpreter(t,
			op("cmp", 4, 5),
			op("je", 3),
			op("mov", 1, "r0"),
		)

		_, err := interp.Step()
		require.NoError(t, err)
		step, err := interp.Step()
		require.NoError(t, err)
		assert.False(t, step.Jumped)
		assert.Equal(t, uint32(2), interp.State().IP)
	})
}

func TestInterpreter_InvalidJumpTarget(t *testing.T) {
	interp := newTestInterpreter(t, op("jmp", -1))

	err := interp.Run()
	assert.ErrorIs(t, err, instructions.ErrInvalidJumpTarget)
	assert.True(t, interp.State().Halted)
	assert.Equal(t, uint32(0), interp.State().IP)
}

func TestInterpreter_Loop(t *testing.T) {
	interp := newTestInterpreter(t, loopProgram()...)

	require.NoError(t, interp.Run())
	assert.Equal(t, uint32(50), interp.Accumulator())
	assert.Equal(t, uint32(6), interp.State().IP)
	assert.True(t, interp.State().Halted)
}

func TestInterpreter_EndOfProgram(t *testing.T) {
	interp := newTestInterpreter(t, op("mov", 1, "r0"))

	_, err := interp.Step()
	require.NoError(t, err)
	before := interp.State().Clone()

	step, err := interp.Step()
	require.NoError(t, err)
	assert.True(t, step.Done)
	assert.Nil(t, step.Instruction)
	assert.True(t, interp.State().Halted)

	_, err = interp.Step()
	assert.ErrorIs(t, err, ErrHalted)
	require.NoError(t, interp.Run())

	after := interp.State()
	assert.Equal(t, before.Registers, after.Registers)
	assert.Equal(t, before.Memory, after.Memory)
	assert.Equal(t, before.Flags, after.Flags)
	assert.Equal(t, before.IP, after.IP)
}

func TestInterpreter_EmptyProgram(t *testing.T) {
	interp := NewInterpreter(nil, 8)

	require.NoError(t, interp.Run())
	assert.True(t, interp.State().Halted)
	assert.False(t, interp.Running())
}

func TestInterpreter_UnsupportedInstruction(t *testing.T) {
	program, err := instructions.DecodeProgram([]instructions.RawInstruction{
		op("mov", 5, "r0"),
		op("add", 1, "[0]"),
		op("push", "r0"),
		op("mov", 7, "r0"),
	})
	require.ErrorIs(t, err, instructions.ErrUnsupportedInstruction)

	interp := NewInterpreter(program, 8)
	runErr := interp.Run()

	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, instructions.ErrUnsupportedInstruction)
	assert.Contains(t, runErr.Error(), "push")

	state := interp.State()
	assert.True(t, state.Halted)
	assert.Equal(t, uint32(2), state.IP)
	assert.Equal(t, uint32(5), state.Registers[0])
	assert.Equal(t, byte(1), state.Memory[0])
}

func TestInterpreter_MnemonicsAreCaseSensitive(t *testing.T) {
	program, err := instructions.DecodeProgram([]instructions.RawInstruction{
		op("mov", 7, "r0"),
		op("MOV", 9, "r0"),
		op(" Add ", 1, "r0"),
	})
	require.ErrorIs(t, err, instructions.ErrUnsupportedInstruction)

	interp := NewInterpreter(program, 8)
	runErr := interp.Run()

	assert.ErrorIs(t, runErr, instructions.ErrUnsupportedInstruction)
	assert.Equal(t, uint32(1), interp.State().IP)
	assert.Equal(t, uint32(7), interp.State().Registers[0])
}

func TestInterpreter_InvalidDestinationHalts(t *testing.T) {
	interp := newTestInterpreter(t,
		op("cmp", 1, 1),
		op("mov", 1, 100),
	)

	err := interp.Run()
	assert.ErrorIs(t, err, ErrInvalidDestination)
	assert.True(t, interp.State().Halted)
	assert.Equal(t, uint32(1), interp.State().IP)
	assert.True(t, interp.State().Flags.Zero, "flags are left as they were")
}

func TestInterpreter_FailedWriteKeepsFlags(t *testing.T) {
	interp := newTestInterpreter(t, op("add", 1, 200))
	interp.State().Flags.Negative = true

	err := interp.Run()
	assert.ErrorIs(t, err, ErrInvalidDestination)
	assert.Equal(t, instructions.Flags{Negative: true}, interp.State().Flags)
}

func TestInterpreter_SegfaultOnRead(t *testing.T) {
	interp := newTestInterpreter(t, op("mov", "[1000]", "r0"))

	err := interp.Run()
	assert.ErrorIs(t, err, ErrSegfault)
	assert.True(t, interp.State().Halted)
}

func TestInterpreter_MalformedOperandIsCoerced(t *testing.T) {
	program, err := instructions.DecodeProgram([]instructions.RawInstruction{
		op("mov", "12abc", "r0"),
	})
	require.ErrorIs(t, err, instructions.ErrMalformedOperand)

	interp := NewInterpreter(program, 8)
	require.NoError(t, interp.Run())
	assert.Equal(t, uint32(12), interp.Accumulator())
}

func TestInterpreter_RunN(t *testing.T) {
	interp := newTestInterpreter(t, loopProgram()...)

	require.NoError(t, interp.RunN(3))
	assert.Equal(t, uint32(3), interp.State().IP)
	assert.Equal(t, uint32(10), interp.Accumulator())
}

func TestInterpreter_Reset(t *testing.T) {
	interp := newTestInterpreter(t, loopProgram()...)
	require.NoError(t, interp.Run())

	interp.Reset()

	state := interp.State()
	assert.Equal(t, uint32(0), state.IP)
	assert.False(t, state.Halted)
	assert.Equal(t, uint32(0), state.Registers[0])
	assert.Len(t, state.Memory, 64)

	require.NoError(t, interp.Run())
	assert.Equal(t, uint32(50), interp.Accumulator())
}

func TestInterpreter_Disassemble(t *testing.T) {
	interp := newTestInterpreter(t, loopProgram()...)

	text, err := interp.Disassemble(2)
	require.NoError(t, err)
	assert.Equal(t, "add r1, r0", text)

	_, err = interp.Disassemble(6)
	assert.Error(t, err)
}

func TestInterpreter_ConcurrentRunsShareProgram(t *testing.T) {
	program := mustProgram(t, loopProgram()...)

	const runs = 8
	var wg sync.WaitGroup
	results := make([]uint32, runs)
	errs := make([]error, runs)

	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			interp := NewInterpreter(program, 16)
			errs[i] = interp.Run()
			results[i] = interp.Accumulator()
		}(i)
	}
	wg.Wait()

	require.NoError(t, errors.Join(errs...))
	for _, result := range results {
		assert.Equal(t, uint32(50), result)
	}
}
