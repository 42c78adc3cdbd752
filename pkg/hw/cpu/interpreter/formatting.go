package interpreter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
	"github.com/Manu343726/x86mini/pkg/utils"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
)

// FormatStyle controls the output style for formatting functions
type FormatStyle int

const (
	// StylePlain produces plain text output without colors
	StylePlain FormatStyle = iota
	// StyleColored produces colorized output using ANSI escape codes
	StyleColored
)

// OutputConfig configures output formatting
type OutputConfig struct {
	Style FormatStyle
	// Writer is where output is written (default: os.Stderr)
	Writer io.Writer
}

var (
	colorOpcode    = color.New(color.FgYellow, color.Bold)
	colorRegister  = color.New(color.FgGreen)
	colorImmediate = color.New(color.FgCyan)
	colorMemory    = color.New(color.FgMagenta)
	colorInvalid   = color.New(color.FgRed, color.Bold)
	colorStep      = color.New(color.FgHiBlack)
	colorIP        = color.New(color.FgCyan)
	colorValue     = color.New(color.FgWhite, color.Bold)
	colorFlagSet   = color.New(color.FgGreen, color.Bold)
	colorFlagClear = color.New(color.FgHiBlack)
)

// InstructionFormatter formats instructions for display
type InstructionFormatter struct {
	config OutputConfig
}

// NewInstructionFormatter creates a new instruction formatter
func NewInstructionFormatter(config OutputConfig) *InstructionFormatter {
	return &InstructionFormatter{config: config}
}

func (f *InstructionFormatter) paint(c *color.Color, text string) string {
	if f.config.Style == StylePlain {
		return text
	}
	return c.Sprint(text)
}

// FormatOperand formats a single operand, colored by kind
func (f *InstructionFormatter) FormatOperand(operand instructions.Operand) string {
	switch operand.Kind() {
	case instructions.OperandKind_Register:
		return f.paint(colorRegister, operand.String())
	case instructions.OperandKind_Memory:
		return f.paint(colorMemory, operand.String())
	default:
		return f.paint(colorImmediate, operand.String())
	}
}

// FormatInstruction formats a decoded instruction
func (f *InstructionFormatter) FormatInstruction(instr *instructions.Instruction) string {
	if instr == nil {
		return "???"
	}

	if !instr.Executable() {
		return f.paint(colorInvalid, instr.String())
	}

	result := f.paint(colorOpcode, instr.Descriptor.OpCode.Mnemonic)
	if len(instr.Operands) > 0 {
		result += " " + strings.Join(utils.Map(instr.Operands, f.FormatOperand), ", ")
	}
	return result
}

// FormatFlags formats the flags as ZCON, dimming the cleared ones
func (f *InstructionFormatter) FormatFlags(flags instructions.Flags) string {
	if f.config.Style == StylePlain {
		return flags.String()
	}

	var sb strings.Builder
	for i, r := range flags.String() {
		if r == '-' {
			sb.WriteString(colorFlagClear.Sprint(string("ZCON"[i])))
		} else {
			sb.WriteString(colorFlagSet.Sprint(string(r)))
		}
	}
	return sb.String()
}

// TraceFormatter formats execution trace output
type TraceFormatter struct {
	config    OutputConfig
	formatter *InstructionFormatter
}

// NewTraceFormatter creates a new trace formatter
func NewTraceFormatter(config OutputConfig) *TraceFormatter {
	return &TraceFormatter{
		config:    config,
		formatter: NewInstructionFormatter(config),
	}
}

// Writer returns the configured output writer, os.Stderr by default
func (t *TraceFormatter) Writer() io.Writer {
	if t.config.Writer == nil {
		return os.Stderr
	}
	return t.config.Writer
}

// FormatStep formats a single execution step for trace output. The state is
// the state after the instruction executed.
func (t *TraceFormatter) FormatStep(step int, ip uint32, instr *instructions.Instruction, state *CPUState) string {
	f := t.formatter

	return fmt.Sprintf("[%s] IP=%s r0=%s flags=%s | %s",
		f.paint(colorStep, fmt.Sprintf("%4d", step)),
		f.paint(colorIP, FormatIP(ip)),
		f.paint(colorValue, fmt.Sprintf("%10d", state.Registers[0])),
		f.FormatFlags(state.Flags),
		f.FormatInstruction(instr))
}

// FormatRegisters formats the register file, one register per line
func (t *TraceFormatter) FormatRegisters(state *CPUState) string {
	f := t.formatter
	var sb strings.Builder

	for _, reg := range registers.GeneralPurpose.AllRegisters() {
		value := state.Registers[reg.Index]
		fmt.Fprintf(&sb, "%s (%s) = %s %s\n",
			f.paint(colorRegister, reg.Name()),
			reg.Alias,
			f.paint(colorValue, fmt.Sprintf("%10d", value)),
			utils.FormatHex(value))
	}

	fmt.Fprintf(&sb, "flags = %s\n", f.FormatFlags(state.Flags))
	fmt.Fprintf(&sb, "ip = %s\n", f.paint(colorIP, FormatIP(state.IP)))
	return sb.String()
}

// FormatStateTable renders the registers, flags and IP as a table
func (t *TraceFormatter) FormatStateTable(state *CPUState) string {
	registersTable := table.NewWriter()
	registersTable.SetTitle("Registers")
	registersTable.AppendHeader(table.Row{"Register", "Alias", "Decimal", "Hex"})

	for _, reg := range registers.GeneralPurpose.AllRegisters() {
		value := state.Registers[reg.Index]
		registersTable.AppendRow(table.Row{reg.Name(), reg.Alias, value, utils.FormatHex(value)})
	}

	registersTable.AppendFooter(table.Row{"IP", "", state.IP, "flags " + state.Flags.String()})

	if t.config.Style == StyleColored {
		registersTable.SetStyle(table.StyleColoredBright)
	} else {
		registersTable.SetStyle(table.StyleLight)
	}

	return registersTable.Render()
}

// FormatMemory renders a hex dump of length bytes starting at addr, 16 bytes
// per row. The range is clamped to the memory.
func (t *TraceFormatter) FormatMemory(state *CPUState, addr uint32, length int) string {
	end := uint64(addr) + uint64(length)
	if end > uint64(len(state.Memory)) {
		end = uint64(len(state.Memory))
	}

	memoryTable := table.NewWriter()
	memoryTable.SetTitle("Memory")
	header := table.Row{"Address"}
	for col := 0; col < 16; col++ {
		header = append(header, fmt.Sprintf("%X", col))
	}
	memoryTable.AppendHeader(header)

	for rowStart := uint64(addr); rowStart < end; rowStart += 16 {
		row := table.Row{FormatIP(uint32(rowStart))}
		for offset := rowStart; offset < rowStart+16 && offset < end; offset++ {
			row = append(row, fmt.Sprintf("%02X", state.Memory[offset]))
		}
		memoryTable.AppendRow(row)
	}

	memoryTable.SetStyle(table.StyleLight)
	return memoryTable.Render()
}

// ExecutionSummary contains summary information about an execution
type ExecutionSummary struct {
	StepsExecuted int
	FinalIP       uint32
	// Value of register 0 when execution stopped
	Accumulator uint32
	// True if the IP left the program
	ExitedNormally bool
	StopReason     StopReason
	Error          error
}

// FormatSummary formats an execution summary for display. Non verbose
// summaries print only the accumulator.
func (t *TraceFormatter) FormatSummary(summary *ExecutionSummary, verbose bool) string {
	if !verbose {
		return fmt.Sprintf("%d\n", summary.Accumulator)
	}

	var sb strings.Builder

	if summary.ExitedNormally {
		sb.WriteString("\n=== Execution completed ===\n")
	} else {
		fmt.Fprintf(&sb, "\n=== Execution stopped (%s) ===\n", summary.StopReason)
	}

	fmt.Fprintf(&sb, "Steps executed: %d\n", summary.StepsExecuted)
	fmt.Fprintf(&sb, "Final IP: %s\n", FormatIP(summary.FinalIP))
	if summary.Error != nil {
		fmt.Fprintf(&sb, "Error: %v\n", summary.Error)
	}
	fmt.Fprintf(&sb, "\nAccumulator (r0): %d\n", summary.Accumulator)

	return sb.String()
}
