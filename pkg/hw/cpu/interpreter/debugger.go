package interpreter

import (
	"fmt"
	"sort"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
)

// ExecutionEvent represents events that can occur during execution
type ExecutionEvent int

const (
	// EventStep is fired after each executed instruction
	EventStep ExecutionEvent = iota
	// EventBreakpoint is fired when a breakpoint is hit
	EventBreakpoint
	// EventWatchpoint is fired when a watched location changes
	EventWatchpoint
	// EventHalt is fired when running a halted CPU
	EventHalt
	// EventError is fired when an execution error occurs
	EventError
	// EventTermination is fired when the IP leaves the program
	EventTermination
)

var executionEventNames = map[ExecutionEvent]string{
	EventStep:        "step",
	EventBreakpoint:  "breakpoint",
	EventWatchpoint:  "watchpoint",
	EventHalt:        "halt",
	EventError:       "error",
	EventTermination: "termination",
}

func (e ExecutionEvent) String() string {
	if name, ok := executionEventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(e))
}

// StopReason indicates why execution stopped
type StopReason int

const (
	StopNone StopReason = iota
	StopStep
	StopBreakpoint
	StopWatchpoint
	StopHalt
	StopError
	// The IP left the program. This is the normal end of a run
	StopTermination
	StopMaxSteps
)

var stopReasonNames = map[StopReason]string{
	StopNone:        "none",
	StopStep:        "step",
	StopBreakpoint:  "breakpoint",
	StopWatchpoint:  "watchpoint",
	StopHalt:        "halt",
	StopError:       "error",
	StopTermination: "termination",
	StopMaxSteps:    "max_steps",
}

func (r StopReason) String() string {
	if name, ok := stopReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(r))
}

// Breakpoint stops a run before the instruction at Index executes
type Breakpoint struct {
	ID       int
	Index    uint32
	Enabled  bool
	HitCount int
}

// WatchTarget selects the kind of location a watchpoint observes
type WatchTarget int

const (
	WatchMemory WatchTarget = iota
	WatchRegister
)

func (t WatchTarget) String() string {
	if t == WatchRegister {
		return "register"
	}
	return "memory"
}

// Watchpoint stops a run after an instruction changes the watched location
type Watchpoint struct {
	ID     int
	Target WatchTarget
	// Memory address or register index
	Location  uint32
	Enabled   bool
	HitCount  int
	LastValue uint32
}

func (w *Watchpoint) String() string {
	if w.Target == WatchRegister {
		if reg, err := registers.GeneralPurpose.Register(int(w.Location)); err == nil {
			return reg.Name()
		}
	}
	return "[" + FormatIP(w.Location) + "]"
}

// ExecutionResult contains the result of an execution operation
type ExecutionResult struct {
	StopReason    StopReason
	StepsExecuted int
	// Error contains the execution error when StopReason is StopError
	Error error
	// Set if stopped at a breakpoint
	BreakpointID int
	// Set if stopped at a watchpoint
	WatchpointID int
	// IP of the last executed (or attempted) instruction
	LastIP          uint32
	LastInstruction *instructions.Instruction
	LastOperands    []instructions.ResolvedOperand
}

// EventCallback is called when an execution event occurs.
// Return true to continue execution, false to stop
type EventCallback func(event ExecutionEvent, result *ExecutionResult) bool

// Debugger controls the execution of an interpreter with breakpoints,
// watchpoints and step limits
type Debugger struct {
	interp *Interpreter

	breakpoints      map[int]*Breakpoint
	breakpointsIndex map[uint32]*Breakpoint
	nextBreakpointID int

	watchpoints      map[int]*Watchpoint
	nextWatchpointID int

	eventCallback EventCallback
	lastResult    *ExecutionResult
}

// NewDebugger creates a new debugger for the given interpreter
func NewDebugger(interp *Interpreter) *Debugger {
	return &Debugger{
		interp:           interp,
		breakpoints:      make(map[int]*Breakpoint),
		breakpointsIndex: make(map[uint32]*Breakpoint),
		watchpoints:      make(map[int]*Watchpoint),
	}
}

// Interpreter returns the underlying interpreter
func (d *Debugger) Interpreter() *Interpreter {
	return d.interp
}

// State returns the current CPU state
func (d *Debugger) State() *CPUState {
	return d.interp.State()
}

// SetEventCallback sets the callback for execution events
func (d *Debugger) SetEventCallback(callback EventCallback) {
	d.eventCallback = callback
}

// LastResult returns the result of the last execution operation
func (d *Debugger) LastResult() *ExecutionResult {
	return d.lastResult
}

// AddBreakpoint adds a breakpoint at the given instruction index. Adding a
// breakpoint twice at the same index returns the existing one.
func (d *Debugger) AddBreakpoint(index uint32) *Breakpoint {
	if bp, exists := d.breakpointsIndex[index]; exists {
		return bp
	}

	bp := &Breakpoint{
		ID:      d.nextBreakpointID,
		Index:   index,
		Enabled: true,
	}
	d.nextBreakpointID++
	d.breakpoints[bp.ID] = bp
	d.breakpointsIndex[index] = bp
	return bp
}

// RemoveBreakpoint removes a breakpoint by ID
func (d *Debugger) RemoveBreakpoint(id int) bool {
	bp, exists := d.breakpoints[id]
	if !exists {
		return false
	}
	delete(d.breakpointsIndex, bp.Index)
	delete(d.breakpoints, id)
	return true
}

// ToggleBreakpoint adds a breakpoint at the index, or removes the existing
// one. Returns true if a breakpoint is set after the call.
func (d *Debugger) ToggleBreakpoint(index uint32) bool {
	if bp, exists := d.breakpointsIndex[index]; exists {
		d.RemoveBreakpoint(bp.ID)
		return false
	}
	d.AddBreakpoint(index)
	return true
}

// GetBreakpoint returns a breakpoint by ID
func (d *Debugger) GetBreakpoint(id int) *Breakpoint {
	return d.breakpoints[id]
}

// GetBreakpointAt returns the breakpoint at the given instruction index
func (d *Debugger) GetBreakpointAt(index uint32) *Breakpoint {
	return d.breakpointsIndex[index]
}

// ListBreakpoints returns all breakpoints sorted by instruction index
func (d *Debugger) ListBreakpoints() []*Breakpoint {
	bps := make([]*Breakpoint, 0, len(d.breakpoints))
	for _, bp := range d.breakpoints {
		bps = append(bps, bp)
	}
	sort.Slice(bps, func(i, j int) bool {
		return bps[i].Index < bps[j].Index
	})
	return bps
}

// EnableBreakpoint enables or disables a breakpoint
func (d *Debugger) EnableBreakpoint(id int, enabled bool) bool {
	bp, exists := d.breakpoints[id]
	if !exists {
		return false
	}
	bp.Enabled = enabled
	return true
}

// ClearBreakpoints removes all breakpoints
func (d *Debugger) ClearBreakpoints() {
	d.breakpoints = make(map[int]*Breakpoint)
	d.breakpointsIndex = make(map[uint32]*Breakpoint)
}

// WatchMemory adds a watchpoint on a memory byte
func (d *Debugger) WatchMemory(addr uint32) (*Watchpoint, error) {
	if _, err := d.interp.state.ReadMemory8(addr); err != nil {
		return nil, err
	}
	return d.addWatchpoint(WatchMemory, addr), nil
}

// WatchRegister adds a watchpoint on a register
func (d *Debugger) WatchRegister(index uint32) (*Watchpoint, error) {
	if _, err := registers.GeneralPurpose.Register(int(index)); err != nil {
		return nil, err
	}
	return d.addWatchpoint(WatchRegister, index), nil
}

func (d *Debugger) addWatchpoint(target WatchTarget, location uint32) *Watchpoint {
	wp := &Watchpoint{
		ID:       d.nextWatchpointID,
		Target:   target,
		Location: location,
		Enabled:  true,
	}
	wp.LastValue = d.watchedValue(wp)
	d.nextWatchpointID++
	d.watchpoints[wp.ID] = wp
	return wp
}

// RemoveWatchpoint removes a watchpoint by ID
func (d *Debugger) RemoveWatchpoint(id int) bool {
	if _, exists := d.watchpoints[id]; !exists {
		return false
	}
	delete(d.watchpoints, id)
	return true
}

// GetWatchpoint returns a watchpoint by ID
func (d *Debugger) GetWatchpoint(id int) *Watchpoint {
	return d.watchpoints[id]
}

// ListWatchpoints returns all watchpoints sorted by ID
func (d *Debugger) ListWatchpoints() []*Watchpoint {
	wps := make([]*Watchpoint, 0, len(d.watchpoints))
	for _, wp := range d.watchpoints {
		wps = append(wps, wp)
	}
	sort.Slice(wps, func(i, j int) bool {
		return wps[i].ID < wps[j].ID
	})
	return wps
}

// ClearWatchpoints removes all watchpoints
func (d *Debugger) ClearWatchpoints() {
	d.watchpoints = make(map[int]*Watchpoint)
}

// Reset resets the interpreter state. Breakpoints and watchpoints are kept.
func (d *Debugger) Reset() {
	d.interp.Reset()
	d.lastResult = nil

	for _, wp := range d.watchpoints {
		wp.LastValue = d.watchedValue(wp)
	}
}

// Step executes a single instruction. Breakpoints are ignored, so stepping
// always makes progress.
func (d *Debugger) Step() *ExecutionResult {
	result := &ExecutionResult{LastIP: d.interp.state.IP}

	if d.interp.state.Halted {
		result.StopReason = StopHalt
		d.fireEvent(EventHalt, result)
	} else if !d.step(result) {
		if wp := d.checkWatchpoints(); wp != nil {
			result.StopReason = StopWatchpoint
			result.WatchpointID = wp.ID
			d.fireEvent(EventWatchpoint, result)
		} else {
			result.StopReason = StopStep
			d.fireEvent(EventStep, result)
		}
	}

	d.lastResult = result
	return result
}

// Continue executes until a stop condition is met
func (d *Debugger) Continue() *ExecutionResult {
	return d.Run(0)
}

// Run executes up to maxSteps instructions (0 = unlimited).
// A breakpoint at the starting instruction does not stop the run, so a run
// stopped at a breakpoint can be continued.
func (d *Debugger) Run(maxSteps int) *ExecutionResult {
	result := &ExecutionResult{LastIP: d.interp.state.IP}

	for {
		if maxSteps > 0 && result.StepsExecuted >= maxSteps {
			result.StopReason = StopMaxSteps
			break
		}

		if d.interp.state.Halted {
			result.StopReason = StopHalt
			d.fireEvent(EventHalt, result)
			break
		}

		if result.StepsExecuted > 0 {
			if bp := d.breakpointsIndex[d.interp.state.IP]; bp != nil && bp.Enabled {
				bp.HitCount++
				result.StopReason = StopBreakpoint
				result.BreakpointID = bp.ID
				result.LastIP = d.interp.state.IP
				d.fireEvent(EventBreakpoint, result)
				break
			}
		}

		if d.step(result) {
			break
		}

		if !d.fireEvent(EventStep, result) {
			result.StopReason = StopStep
			break
		}

		if wp := d.checkWatchpoints(); wp != nil {
			result.StopReason = StopWatchpoint
			result.WatchpointID = wp.ID
			d.fireEvent(EventWatchpoint, result)
			break
		}
	}

	d.lastResult = result
	return result
}

// RunUntil executes until the IP reaches the given instruction index
func (d *Debugger) RunUntil(index uint32) *ExecutionResult {
	_, existing := d.breakpointsIndex[index]
	bp := d.AddBreakpoint(index)
	enabled := bp.Enabled
	bp.Enabled = true

	defer func() {
		if existing {
			bp.Enabled = enabled
		} else {
			d.RemoveBreakpoint(bp.ID)
		}
	}()

	return d.Continue()
}

// Executes one instruction, filling the result. Returns true if the run must
// stop (termination or error), with the stop reason already set.
func (d *Debugger) step(result *ExecutionResult) bool {
	result.LastIP = d.interp.state.IP

	if instr, ok := d.interp.Fetch(); ok {
		result.LastInstruction = instr
	}

	step, err := d.interp.Step()
	if err != nil {
		result.StopReason = StopError
		result.Error = err
		d.fireEvent(EventError, result)
		return true
	}

	if step.Done {
		result.StopReason = StopTermination
		d.fireEvent(EventTermination, result)
		return true
	}

	result.LastOperands = step.Operands
	result.StepsExecuted++
	return false
}

// CurrentInstruction returns the instruction at the IP, if any
func (d *Debugger) CurrentInstruction() (*instructions.Instruction, bool) {
	return d.interp.Fetch()
}

// Disassemble returns the text of the instruction at the given index
func (d *Debugger) Disassemble(index uint32) (string, error) {
	return d.interp.Disassemble(index)
}

// DisassembleRange disassembles the instructions in [start, end), clamped
// to the program
func (d *Debugger) DisassembleRange(start, end uint32) []string {
	if programEnd := uint32(len(d.interp.program)); end > programEnd {
		end = programEnd
	}

	var lines []string
	for index := start; index < end; index++ {
		text, _ := d.interp.Disassemble(index)
		lines = append(lines, fmt.Sprintf("%s: %s", FormatIP(index), text))
	}
	return lines
}

// ReadMemory reads size bytes starting at addr
func (d *Debugger) ReadMemory(addr uint32, size int) ([]byte, error) {
	memory := d.interp.state.Memory
	if uint64(addr)+uint64(size) > uint64(len(memory)) {
		return nil, fmt.Errorf("%w: %v + %d", ErrSegfault, FormatIP(addr), size)
	}
	return append([]byte(nil), memory[addr:addr+uint32(size)]...), nil
}

// WriteMemory writes data starting at addr
func (d *Debugger) WriteMemory(addr uint32, data []byte) error {
	memory := d.interp.state.Memory
	if uint64(addr)+uint64(len(data)) > uint64(len(memory)) {
		return fmt.Errorf("%w: %v + %d", ErrSegfault, FormatIP(addr), len(data))
	}
	copy(memory[addr:], data)
	return nil
}

// GetRegister returns the value of a register by index
func (d *Debugger) GetRegister(idx uint32) uint32 {
	return d.interp.state.GetRegister(idx)
}

// SetRegister sets the value of a register by index
func (d *Debugger) SetRegister(idx uint32, value uint32) {
	d.interp.state.SetRegister(idx, value)
}

// GetIP returns the instruction pointer
func (d *Debugger) GetIP() uint32 {
	return d.interp.state.IP
}

// SetIP moves the instruction pointer without executing anything
func (d *Debugger) SetIP(ip uint32) {
	d.interp.state.IP = ip
}

// IsHalted returns whether the CPU is halted
func (d *Debugger) IsHalted() bool {
	return d.interp.state.Halted
}

func (d *Debugger) fireEvent(event ExecutionEvent, result *ExecutionResult) bool {
	if d.eventCallback != nil {
		return d.eventCallback(event, result)
	}
	return true
}

func (d *Debugger) watchedValue(wp *Watchpoint) uint32 {
	if wp.Target == WatchRegister {
		return d.interp.state.GetRegister(wp.Location)
	}

	value, _ := d.interp.state.ReadMemory8(wp.Location)
	return uint32(value)
}

// Returns the first (lowest ID) enabled watchpoint whose value changed.
// Every changed watchpoint gets its value updated.
func (d *Debugger) checkWatchpoints() *Watchpoint {
	var hit *Watchpoint

	for _, wp := range d.ListWatchpoints() {
		if !wp.Enabled {
			continue
		}

		current := d.watchedValue(wp)
		if current == wp.LastValue {
			continue
		}

		wp.LastValue = current
		wp.HitCount++
		if hit == nil {
			hit = wp
		}
	}

	return hit
}
