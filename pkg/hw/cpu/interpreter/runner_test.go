package interpreter

import (
	"testing"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type seedFunc func(state *CPUState) error

func (f seedFunc) Apply(state *CPUState) error {
	return f(state)
}

func TestRunner_Run(t *testing.T) {
	runner := NewRunner(mustProgram(t, loopProgram()...), DefaultMemorySize)

	assert.Nil(t, runner.Result())
	assert.False(t, runner.IsNormalExit())

	result := runner.Run(0)

	assert.Equal(t, StopTermination, result.StopReason)
	assert.True(t, runner.IsNormalExit())
	assert.Equal(t, uint32(50), runner.Accumulator())
	assert.Equal(t, uint32(6), runner.IP())
	assert.Same(t, result, runner.Result())
}

func TestRunner_Seed(t *testing.T) {
	program := mustProgram(t,
		op("add", "[0]", "r0"),
		op("add", "r3", "r0"),
	)
	runner := NewRunner(program, 16)

	require.NoError(t, runner.Seed(seedFunc(func(state *CPUState) error {
		state.Registers[3] = 40
		state.Memory[0] = 2
		return nil
	})))

	runner.Run(0)
	assert.True(t, runner.IsNormalExit())
	assert.Equal(t, uint32(42), runner.Accumulator())
}

func TestRunner_MaxSteps(t *testing.T) {
	runner := NewRunner(mustProgram(t, op("jmp", 0)), 16)

	result := runner.Run(10)

	assert.Equal(t, StopMaxSteps, result.StopReason)
	assert.False(t, runner.IsNormalExit())
}

func TestRunner_RunWithTrace(t *testing.T) {
	runner := NewRunner(mustProgram(t, loopProgram()...), 16)

	var ips []uint32
	var texts []string
	result := runner.RunWithTrace(0, func(step int, ip uint32, instr *instructions.Instruction) bool {
		assert.Equal(t, len(ips), step)
		ips = append(ips, ip)
		texts = append(texts, instr.String())
		return true
	})

	assert.Equal(t, StopTermination, result.StopReason)
	assert.Len(t, ips, 21)
	assert.Equal(t, []uint32{0, 1, 2, 3, 4, 5, 2}, ips[:7])
	assert.Equal(t, "je 6", texts[len(texts)-1])
}

func TestRunner_RunWithTraceStops(t *testing.T) {
	runner := NewRunner(mustProgram(t, loopProgram()...), 16)

	result := runner.RunWithTrace(0, func(step int, ip uint32, instr *instructions.Instruction) bool {
		return step < 1
	})

	assert.Equal(t, StopStep, result.StopReason)
	assert.Equal(t, 2, result.StepsExecuted)
	assert.Equal(t, uint32(2), runner.IP())
}

func TestRunner_StepContinueReset(t *testing.T) {
	runner := NewRunner(mustProgram(t, loopProgram()...), 16)
	runner.Debugger().AddBreakpoint(4)

	assert.Equal(t, StopStep, runner.Step().StopReason)
	assert.Equal(t, StopBreakpoint, runner.Continue().StopReason)
	assert.Equal(t, uint32(4), runner.IP())

	runner.Reset()
	assert.Nil(t, runner.Result())
	assert.Equal(t, uint32(0), runner.IP())
	assert.Len(t, runner.Program(), 6)
}

func TestRunner_Summary(t *testing.T) {
	program, _ := instructions.DecodeProgram([]instructions.RawInstruction{
		op("mov", 7, "r0"),
		op("nop"),
	})
	runner := NewRunner(program, 16)
	runner.Run(0)

	summary := runner.Summary()
	assert.Equal(t, 1, summary.StepsExecuted)
	assert.Equal(t, uint32(1), summary.FinalIP)
	assert.Equal(t, uint32(7), summary.Accumulator)
	assert.False(t, summary.ExitedNormally)
	assert.Equal(t, StopError, summary.StopReason)
	assert.ErrorIs(t, summary.Error, instructions.ErrUnsupportedInstruction)
}
