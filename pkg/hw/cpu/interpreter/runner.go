package interpreter

import (
	"log/slog"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
)

// Seeder writes an initial state before a run
type Seeder interface {
	Apply(state *CPUState) error
}

// Runner provides high-level program execution. It wraps an Interpreter and
// a Debugger so CLI tools only deal with seeding, running and results:
//
//	runner := interpreter.NewRunner(program, interpreter.DefaultMemorySize)
//	result := runner.Run(0)
//	fmt.Println(runner.Accumulator())
type Runner struct {
	interp *Interpreter
	dbg    *Debugger
	result *ExecutionResult
}

// NewRunner creates a runner for the program with the given memory size.
// Use DefaultMemorySize if unsure.
func NewRunner(program instructions.Program, memorySize uint32) *Runner {
	interp := NewInterpreter(program, memorySize)

	return &Runner{
		interp: interp,
		dbg:    NewDebugger(interp),
	}
}

// SetLogger sets the logger of the underlying interpreter
func (r *Runner) SetLogger(logger *slog.Logger) {
	r.interp.SetLogger(logger)
}

// Seed writes the initial state. Must be called before running.
func (r *Runner) Seed(seed Seeder) error {
	return seed.Apply(r.interp.State())
}

// State returns the current CPU state
func (r *Runner) State() *CPUState {
	return r.interp.State()
}

// Debugger returns the underlying debugger for advanced usage
func (r *Runner) Debugger() *Debugger {
	return r.dbg
}

// Program returns the program being executed
func (r *Runner) Program() instructions.Program {
	return r.interp.Program()
}

// Run executes the program until it ends, fails or runs maxSteps
// instructions (0 = unlimited)
func (r *Runner) Run(maxSteps int) *ExecutionResult {
	r.result = r.dbg.Run(maxSteps)
	return r.result
}

// Result returns the result of the last execution, or nil if not run yet
func (r *Runner) Result() *ExecutionResult {
	return r.result
}

// Accumulator returns the value of register 0
func (r *Runner) Accumulator() uint32 {
	return r.interp.Accumulator()
}

// IP returns the current instruction pointer
func (r *Runner) IP() uint32 {
	return r.interp.state.IP
}

// IsNormalExit returns true if the last run ended by leaving the program
func (r *Runner) IsNormalExit() bool {
	return r.result != nil && r.result.StopReason == StopTermination
}

// TraceCallback is called after each executed instruction with the step
// number, the IP the instruction was fetched from and the instruction.
// Return true to continue execution, false to stop.
type TraceCallback func(step int, ip uint32, instr *instructions.Instruction) bool

// RunWithTrace runs like Run, calling the callback after every instruction
func (r *Runner) RunWithTrace(maxSteps int, callback TraceCallback) *ExecutionResult {
	step := 0

	r.dbg.SetEventCallback(func(event ExecutionEvent, result *ExecutionResult) bool {
		if event != EventStep {
			return true
		}

		cont := callback(step, result.LastIP, result.LastInstruction)
		step++
		return cont
	})
	defer r.dbg.SetEventCallback(nil)

	r.result = r.dbg.Run(maxSteps)
	return r.result
}

// Step executes a single instruction
func (r *Runner) Step() *ExecutionResult {
	r.result = r.dbg.Step()
	return r.result
}

// Continue executes until a breakpoint, a watchpoint or the end of the program
func (r *Runner) Continue() *ExecutionResult {
	r.result = r.dbg.Continue()
	return r.result
}

// Reset restores the initial state (zeroed, without seed)
func (r *Runner) Reset() {
	r.dbg.Reset()
	r.result = nil
}

// Summary returns the summary of the last execution
func (r *Runner) Summary() *ExecutionSummary {
	summary := &ExecutionSummary{
		FinalIP:        r.IP(),
		Accumulator:    r.Accumulator(),
		ExitedNormally: r.IsNormalExit(),
	}

	if r.result != nil {
		summary.StepsExecuted = r.result.StepsExecuted
		summary.StopReason = r.result.StopReason
		summary.Error = r.result.Error
	}

	return summary
}
