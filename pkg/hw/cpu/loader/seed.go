package loader

import (
	"strconv"
	"strings"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
	"github.com/Manu343726/x86mini/pkg/utils"
)

// Seed is the initial machine state of a program: register values and
// memory bytes written before the first instruction runs
type Seed struct {
	Registers map[int]uint32
	Memory    map[uint32]uint8
}

// Seed as written in the program file. Keys are register names and memory
// addresses (decimal or 0x hex).
type seedFile struct {
	Registers map[string]int64 `yaml:"registers"`
	Memory    map[string]int64 `yaml:"memory"`
}

func (s *seedFile) parse() (Seed, error) {
	seed := Seed{
		Registers: make(map[int]uint32, len(s.Registers)),
		Memory:    make(map[uint32]uint8, len(s.Memory)),
	}

	// Aliases and differently written addresses may name the same location
	registerKeys := make(map[int]string, len(s.Registers))
	memoryKeys := make(map[uint32]string, len(s.Memory))

	for _, name := range utils.SortedKeys(s.Registers) {
		value := s.Registers[name]
		register, err := registers.GeneralPurpose.Parse(name)
		if err != nil {
			return Seed{}, utils.MakeError(ErrInvalidSeed, "%v", err)
		}
		if other, seeded := registerKeys[register.Index]; seeded {
			return Seed{}, utils.MakeError(ErrInvalidSeed, "register %v is seeded twice ('%v' and '%v')", register.Name(), other, name)
		}
		if value < 0 || value > utils.MaxUnsigned[uint32]() {
			return Seed{}, utils.MakeError(ErrInvalidSeed, "value %v of register %v does not fit in 32 bits", value, name)
		}
		registerKeys[register.Index] = name
		seed.Registers[register.Index] = uint32(value)
	}

	for _, key := range utils.SortedKeys(s.Memory) {
		value := s.Memory[key]
		addr, err := strconv.ParseUint(strings.TrimSpace(key), 0, 32)
		if err != nil {
			return Seed{}, utils.MakeError(ErrInvalidSeed, "invalid memory address '%v'", key)
		}
		if other, seeded := memoryKeys[uint32(addr)]; seeded {
			return Seed{}, utils.MakeError(ErrInvalidSeed, "memory address %v is seeded twice ('%v' and '%v')", utils.FormatHex(uint32(addr)), other, key)
		}
		if value < 0 || value > utils.MaxUnsigned[uint8]() {
			return Seed{}, utils.MakeError(ErrInvalidSeed, "value %v at memory address %v is not a byte", value, key)
		}
		memoryKeys[uint32(addr)] = key
		seed.Memory[uint32(addr)] = uint8(value)
	}

	return seed, nil
}

// Checks that every seeded memory byte is inside a memory of the given size
func (s Seed) validate(memorySize uint32) error {
	for addr := range s.Memory {
		if addr >= memorySize {
			return utils.MakeError(ErrInvalidSeed, "memory address %v is out of the %v bytes of memory", utils.FormatHex(addr), memorySize)
		}
	}
	return nil
}

// Apply writes the seed into the given state
func (s Seed) Apply(state *interpreter.CPUState) error {
	if err := s.validate(uint32(len(state.Memory))); err != nil {
		return err
	}

	for index, value := range s.Registers {
		state.SetRegister(uint32(index), value)
	}

	for addr, value := range s.Memory {
		if err := state.WriteMemory8(addr, value); err != nil {
			return utils.MakeError(ErrInvalidSeed, "%v", err)
		}
	}

	return nil
}
