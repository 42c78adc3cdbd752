package instructions

import (
	"errors"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
)

var errFakeSegfault = errors.New("fake segfault")

// Minimal ExecuteContext used to test instruction semantics without the interpreter
type fakeContext struct {
	registers [registers.Count]uint32
	memory    []byte
	flags     Flags
	ip        uint32
	ipWritten bool
}

func newFakeContext() *fakeContext {
	return &fakeContext{memory: make([]byte, 16)}
}

func (c *fakeContext) GetRegister(idx uint32) uint32 {
	return c.registers[idx]
}

func (c *fakeContext) ReadMemory8(addr uint32) (uint8, error) {
	if int(addr) >= len(c.memory) {
		return 0, errFakeSegfault
	}
	return c.memory[addr], nil
}

func (c *fakeContext) WriteDestination(index int64, value int64) error {
	switch {
	case index >= 0 && index < registers.Count:
		c.registers[index] = uint32(value)
	case index >= registers.Count && index-registers.Count < int64(len(c.memory)):
		c.memory[index-registers.Count] = uint8(value)
	default:
		return errFakeSegfault
	}
	return nil
}

func (c *fakeContext) GetIP() uint32 {
	return c.ip
}

func (c *fakeContext) SetIP(ip uint32) {
	c.ip = ip
	c.ipWritten = true
}

func (c *fakeContext) GetFlags() Flags {
	return c.flags
}

func (c *fakeContext) SetFlags(flags Flags) {
	c.flags = flags
}
