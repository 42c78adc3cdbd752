// Package interpreter provides the fetch-decode-execute loop of the machine,
// together with debugging and output formatting utilities built on top of it.
package interpreter

import (
	"fmt"
	"log/slog"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/x86mini/pkg/utils"
)

// Interpreter executes a decoded program over its own CPU state. The program
// is never modified, so several interpreters can share it and run concurrently.
type Interpreter struct {
	program instructions.Program
	state   *CPUState
	logger  *slog.Logger
}

// NewInterpreter creates a new interpreter for the program with the given memory size
func NewInterpreter(program instructions.Program, memorySize uint32) *Interpreter {
	return &Interpreter{
		program: program,
		state:   NewCPUState(memorySize),
		logger:  slog.New(slog.DiscardHandler),
	}
}

// SetLogger sets the logger used to report execution. Steps are logged at
// debug level.
func (i *Interpreter) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	i.logger = logger
}

// State returns the current CPU state
func (i *Interpreter) State() *CPUState {
	return i.state
}

// Program returns the program being executed
func (i *Interpreter) Program() instructions.Program {
	return i.program
}

// Running returns true if the CPU is not halted and the IP is within the program
func (i *Interpreter) Running() bool {
	return !i.state.Halted && uint64(i.state.IP) < uint64(len(i.program))
}

// Fetch returns the instruction at the current IP, or false if the IP is out of the program
func (i *Interpreter) Fetch() (*instructions.Instruction, bool) {
	if uint64(i.state.IP) >= uint64(len(i.program)) {
		return nil, false
	}
	return &i.program[i.state.IP], true
}

// ResolveOperands reads the current values of the instruction operands
func (i *Interpreter) ResolveOperands(instr *instructions.Instruction) ([]instructions.ResolvedOperand, error) {
	resolved := make([]instructions.ResolvedOperand, len(instr.Operands))

	for idx, operand := range instr.Operands {
		value, err := operand.Value(i.state)
		if err != nil {
			return nil, fmt.Errorf("operand %v (%v): %w", idx, operand, err)
		}

		resolved[idx] = instructions.ResolvedOperand{Operand: operand, Value: value}
	}

	return resolved, nil
}

// StepResult contains the result of executing a single instruction
type StepResult struct {
	// IP of the executed instruction
	IP uint32
	// Instruction is the executed instruction, nil if the program ended
	Instruction *instructions.Instruction
	// Operands are the operand values the instruction was executed with
	Operands []instructions.ResolvedOperand
	// Jumped is true if the instruction wrote the IP
	Jumped bool
	// Done is true if the IP was past the end of the program. Nothing was
	// executed and the CPU is now halted
	Done bool
}

// Step executes a single instruction.
//
// Reaching the end of the program halts the CPU without error. Any error
// (unsupported instruction, invalid memory access...) also halts the CPU,
// leaving the state as it was after the previous instruction.
func (i *Interpreter) Step() (*StepResult, error) {
	if i.state.Halted {
		return nil, ErrHalted
	}

	ip := i.state.IP
	instr, inBounds := i.Fetch()

	if !inBounds {
		i.state.Halted = true
		i.logger.Info("program finished", "ip", ip, "instructions", len(i.program))
		return &StepResult{IP: ip, Done: true}, nil
	}

	if !instr.Executable() {
		return nil, i.halt(ip, instr, instr.Err)
	}

	operands, err := i.ResolveOperands(instr)
	if err != nil {
		return nil, i.halt(ip, instr, err)
	}

	i.state.ipWritten = false

	if err := instr.Descriptor.Execute(i.state, operands); err != nil {
		return nil, i.halt(ip, instr, err)
	}

	jumped := i.state.ipWritten
	if !jumped {
		i.state.IP++
	}

	i.logger.Debug("step",
		"ip", ip,
		"instruction", instr.String(),
		"flags", i.state.Flags.String(),
		"next", i.state.IP)

	return &StepResult{
		IP:          ip,
		Instruction: instr,
		Operands:    operands,
		Jumped:      jumped,
	}, nil
}

func (i *Interpreter) halt(ip uint32, instr *instructions.Instruction, err error) error {
	i.state.Halted = true
	err = fmt.Errorf("error executing %v at %v: %w", instr.Mnemonic(), ip, err)
	i.logger.Warn("execution halted", "ip", ip, "error", err)
	return err
}

// Run executes instructions until the program ends or an error occurs
func (i *Interpreter) Run() error {
	for !i.state.Halted {
		if _, err := i.Step(); err != nil {
			return err
		}
	}
	return nil
}

// RunN executes at most n instructions
func (i *Interpreter) RunN(n int) error {
	for count := 0; count < n && !i.state.Halted; count++ {
		if _, err := i.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the CPU state, keeping the program
func (i *Interpreter) Reset() {
	i.state = NewCPUState(uint32(len(i.state.Memory)))
}

// Disassemble returns the text of the instruction at the given index
func (i *Interpreter) Disassemble(index uint32) (string, error) {
	if uint64(index) >= uint64(len(i.program)) {
		return "", fmt.Errorf("instruction index %v out of program bounds (%v instructions)", index, len(i.program))
	}
	return i.program[index].String(), nil
}

// Accumulator returns the value of register 0
func (i *Interpreter) Accumulator() uint32 {
	return i.state.Registers[0]
}

// FormatIP returns an instruction index formatted for display
func FormatIP(ip uint32) string {
	return utils.FormatUintHex(uint64(ip), 4)
}
