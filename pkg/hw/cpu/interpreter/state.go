package interpreter

import (
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
	"github.com/Manu343726/x86mini/pkg/utils"
)

// DefaultMemorySize is the default memory size in bytes
const DefaultMemorySize uint32 = 1024

// CPUState represents the complete state of the machine
type CPUState struct {
	// General purpose registers (r0-r7, r0 is the accumulator)
	Registers [registers.Count]uint32
	// Status flags
	Flags instructions.Flags
	// Byte addressable memory, separate from the registers
	Memory []byte
	// Instruction pointer (index into the program, not a byte address)
	IP uint32
	// Halted flag
	Halted bool

	// Set when the executing instruction writes the IP
	ipWritten bool
}

// NewCPUState creates a new CPU state with the given memory size
func NewCPUState(memorySize uint32) *CPUState {
	return &CPUState{
		Memory: make([]byte, memorySize),
	}
}

// Returns a deep copy of the state
func (s *CPUState) Clone() *CPUState {
	clone := *s
	clone.Memory = append([]byte(nil), s.Memory...)
	return &clone
}

// GetRegister returns the value of a register by index (implements ExecuteContext)
func (s *CPUState) GetRegister(idx uint32) uint32 {
	return s.Registers[idx]
}

// SetRegister sets the value of a register by index
func (s *CPUState) SetRegister(idx uint32, value uint32) {
	s.Registers[idx] = value
}

// ReadMemory8 reads a byte from memory (implements ExecuteContext)
func (s *CPUState) ReadMemory8(addr uint32) (uint8, error) {
	if uint64(addr) >= uint64(len(s.Memory)) {
		return 0, utils.MakeError(ErrSegfault, "%v", utils.FormatHex(addr))
	}
	return s.Memory[addr], nil
}

// WriteMemory8 writes a byte to memory
func (s *CPUState) WriteMemory8(addr uint32, value uint8) error {
	if uint64(addr) >= uint64(len(s.Memory)) {
		return utils.MakeError(ErrSegfault, "%v", utils.FormatHex(addr))
	}
	s.Memory[addr] = value
	return nil
}

// WriteDestination stores a value given its index in the destination space:
// registers first, then memory. The value is truncated to the width of the
// location (implements ExecuteContext)
func (s *CPUState) WriteDestination(index int64, value int64) error {
	switch {
	case index >= 0 && index < registers.Count:
		s.Registers[index] = utils.Truncate[uint32](value)
		return nil
	case index >= registers.Count && index-registers.Count < int64(len(s.Memory)):
		s.Memory[index-registers.Count] = utils.Truncate[uint8](value)
		return nil
	}

	return utils.MakeError(ErrInvalidDestination, "index %v is outside of the %v registers + %v bytes of memory", index, registers.Count, len(s.Memory))
}

// Returns the value stored at a destination index
func (s *CPUState) ReadDestination(index int64) (int64, error) {
	switch {
	case index >= 0 && index < registers.Count:
		return int64(s.Registers[index]), nil
	case index >= registers.Count && index-registers.Count < int64(len(s.Memory)):
		return int64(s.Memory[index-registers.Count]), nil
	}

	return 0, utils.MakeError(ErrInvalidDestination, "index %v is outside of the %v registers + %v bytes of memory", index, registers.Count, len(s.Memory))
}

// GetIP returns the current instruction pointer (implements ExecuteContext)
func (s *CPUState) GetIP() uint32 {
	return s.IP
}

// SetIP sets the instruction pointer (implements ExecuteContext). The
// interpreter does not advance the IP after an instruction that called SetIP.
func (s *CPUState) SetIP(ip uint32) {
	s.IP = ip
	s.ipWritten = true
}

// GetFlags returns the status flags (implements ExecuteContext)
func (s *CPUState) GetFlags() instructions.Flags {
	return s.Flags
}

// SetFlags sets the status flags (implements ExecuteContext)
func (s *CPUState) SetFlags(flags instructions.Flags) {
	s.Flags = flags
}
