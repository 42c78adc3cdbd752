package cpu

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/loader"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
	"github.com/Manu343726/x86mini/pkg/utils"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/spf13/cobra"
)

// Number of memory bytes shown in the memory panel
const memoryWindow = 64

var debugCmd = &cobra.Command{
	Use:   "debug [file]",
	Short: "Debug an x86mini program",
	Long: `Starts an interactive debugger for an x86mini program.

The screen shows the program with the instruction pointer and breakpoints,
the registers, the flags and the first bytes of memory.

Keys:
  s  step one instruction
  c  continue until a breakpoint, a watchpoint or the end of the program
  b  toggle a breakpoint on the selected instruction
  r  reset the machine to its initial state
  q  quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDebug,
}

func init() {
	CpuCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, args []string) error {
	program, err := loadProgram(args)
	if err != nil {
		return err
	}

	cmd.SilenceUsage = true

	view, err := newDebugView(program)
	if err != nil {
		return &ExitError{Code: ExitLoad, Err: err}
	}

	app := tview.NewApplication()
	app.SetRoot(view.root, true).SetFocus(view.program)
	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Rune() == 'q' || event.Key() == tcell.KeyCtrlC {
			app.Stop()
			return nil
		}
		if view.handleKey(event.Rune()) {
			return nil
		}
		return event
	})

	return app.Run()
}

// Widgets of the debugger screen and the runner they display
type debugView struct {
	source *loader.Program
	runner *interpreter.Runner

	root      *tview.Flex
	program   *tview.Table
	registers *tview.Table
	flags     *tview.TextView
	memory    *tview.TextView
	status    *tview.TextView
}

func newDebugView(source *loader.Program) (*debugView, error) {
	runner, err := source.NewRunner()
	if err != nil {
		return nil, err
	}
	runner.SetLogger(slog.Default().With("program", source.Name))

	v := &debugView{
		source:    source,
		runner:    runner,
		program:   tview.NewTable().SetSelectable(true, false),
		registers: tview.NewTable(),
		flags:     tview.NewTextView().SetDynamicColors(true),
		memory:    tview.NewTextView().SetDynamicColors(true),
		status:    tview.NewTextView().SetDynamicColors(true),
	}

	v.program.SetBorder(true).SetTitle(fmt.Sprintf(" %v ", tview.Escape(source.Name)))
	v.registers.SetBorder(true).SetTitle(" Registers ")
	v.flags.SetBorder(true).SetTitle(" Flags ")
	v.memory.SetBorder(true).SetTitle(" Memory ")

	side := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.registers, registers.Count+2, 0, false).
		AddItem(v.flags, 3, 0, false).
		AddItem(v.memory, 0, 1, false)

	body := tview.NewFlex().
		AddItem(v.program, 0, 1, true).
		AddItem(side, 0, 1, false)

	v.root = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(v.status, 1, 0, false)

	v.setStatus("[yellow]s[-] step  [yellow]c[-] continue  [yellow]b[-] breakpoint  [yellow]r[-] reset  [yellow]q[-] quit")
	v.refresh()
	return v, nil
}

// Runs the action bound to a key. Returns false if the key has no action.
func (v *debugView) handleKey(key rune) bool {
	switch key {
	case 's':
		v.report(v.runner.Step())
	case 'c':
		v.report(v.runner.Continue())
	case 'b':
		row, _ := v.program.GetSelection()
		if row >= 0 && row < len(v.runner.Program()) {
			action := "removed"
			if v.runner.Debugger().ToggleBreakpoint(uint32(row)) {
				action = "set"
			}
			v.setStatus(fmt.Sprintf("breakpoint at %v %v", interpreter.FormatIP(uint32(row)), action))
		}
	case 'r':
		v.runner.Reset()
		if err := v.runner.Seed(v.source.Seed); err != nil {
			v.setStatus("[red]" + tview.Escape(err.Error()))
		} else {
			v.setStatus("machine reset")
		}
	default:
		return false
	}

	v.refresh()
	return true
}

func (v *debugView) report(result *interpreter.ExecutionResult) {
	switch result.StopReason {
	case interpreter.StopError:
		v.setStatus("[red]" + tview.Escape(result.Error.Error()))
	case interpreter.StopTermination:
		v.setStatus(fmt.Sprintf("[green]program finished[-], r0 = %v", v.runner.Accumulator()))
	case interpreter.StopHalt:
		v.setStatus("machine halted, press r to reset")
	case interpreter.StopBreakpoint:
		v.setStatus(fmt.Sprintf("breakpoint hit at %v", interpreter.FormatIP(v.runner.IP())))
	case interpreter.StopWatchpoint:
		v.setStatus(fmt.Sprintf("watchpoint hit after %v", interpreter.FormatIP(result.LastIP)))
	default:
		v.setStatus(fmt.Sprintf("%v (%v steps)", result.StopReason, result.StepsExecuted))
	}
}

func (v *debugView) setStatus(text string) {
	v.status.SetText(text)
}

func (v *debugView) refresh() {
	state := v.runner.State()
	dbg := v.runner.Debugger()

	v.program.Clear()
	for index, instr := range v.runner.Program() {
		marker, markerColor := "  ", tcell.ColorDefault
		if dbg.GetBreakpointAt(uint32(index)) != nil {
			marker, markerColor = "* ", tcell.ColorRed
		}
		if uint32(index) == state.IP && !state.Halted {
			marker, markerColor = "=>", tcell.ColorGreen
		}

		textColor := tcell.ColorYellow
		if !instr.Executable() {
			textColor = tcell.ColorRed
		}

		v.program.SetCell(index, 0, tview.NewTableCell(marker).SetTextColor(markerColor))
		v.program.SetCell(index, 1, tview.NewTableCell(interpreter.FormatIP(uint32(index))).SetTextColor(tcell.ColorDarkCyan))
		v.program.SetCell(index, 2, tview.NewTableCell(tview.Escape(instr.String())).SetTextColor(textColor).SetExpansion(1))
	}

	v.registers.Clear()
	for _, reg := range registers.GeneralPurpose.AllRegisters() {
		value := state.Registers[reg.Index]
		v.registers.SetCell(reg.Index, 0, tview.NewTableCell(reg.Name()).SetTextColor(tcell.ColorGreen))
		v.registers.SetCell(reg.Index, 1, tview.NewTableCell(reg.Alias).SetTextColor(tcell.ColorGray))
		v.registers.SetCell(reg.Index, 2, tview.NewTableCell(fmt.Sprint(value)).SetAlign(tview.AlignRight))
		v.registers.SetCell(reg.Index, 3, tview.NewTableCell(utils.FormatHex(value)).SetTextColor(tcell.ColorPurple))
	}

	v.flags.SetText(fmt.Sprintf("%v  ip=%v  halted=%v", state.Flags, interpreter.FormatIP(state.IP), state.Halted))
	v.memory.SetText(formatMemoryWindow(state.Memory))
}

func formatMemoryWindow(memory []byte) string {
	var sb strings.Builder

	size := min(len(memory), memoryWindow)
	for row := 0; row < size; row += 8 {
		fmt.Fprintf(&sb, "[darkcyan]%v[-] ", utils.FormatUintHex(uint64(row), 4))
		for offset := row; offset < row+8 && offset < size; offset++ {
			fmt.Fprintf(&sb, " %02X", memory[offset])
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
