// Package registers describes the register file of the machine: how many
// registers it has and the names a program can use to refer to them.
package registers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Manu343726/x86mini/pkg/utils"
)

// Number of 32 bit registers in the register file
const Count = 8

// Prefix of the canonical register names (r0 ... r7)
const RegisterNamePrefix = "r"

var ErrUnknownRegister = errors.New("unknown register")

type RegisterFileDescriptor struct {
	registers []*RegisterDescriptor
	byName    map[string]*RegisterDescriptor
}

// Returns the number of registers in the file
func (d *RegisterFileDescriptor) TotalRegisters() int {
	return len(d.registers)
}

// Returns all registers ordered by index
func (d *RegisterFileDescriptor) AllRegisters() []*RegisterDescriptor {
	return d.registers
}

// Returns a register given its index
func (d *RegisterFileDescriptor) Register(index int) (*RegisterDescriptor, error) {
	if index >= 0 && index < len(d.registers) {
		return d.registers[index], nil
	}

	return nil, utils.MakeError(ErrUnknownRegister, "register with index '%v' not found, the register file has only %v registers", index, d.TotalRegisters())
}

// Returns true if the token has the shape of a register reference (rN or an alias).
// The index of an rN token is not checked.
func (d *RegisterFileDescriptor) IsRegisterToken(token string) bool {
	token = strings.ToLower(token)

	if _, isAlias := d.byName[token]; isAlias {
		return true
	}

	digits, hasPrefix := strings.CutPrefix(token, RegisterNamePrefix)
	if !hasPrefix || len(digits) == 0 {
		return false
	}

	_, err := strconv.ParseUint(digits, 10, 32)
	return err == nil
}

// Parses a register reference, either its canonical name or its x86 alias
func (d *RegisterFileDescriptor) Parse(token string) (*RegisterDescriptor, error) {
	if register, found := d.byName[strings.ToLower(token)]; found {
		return register, nil
	}

	if !d.IsRegisterToken(token) {
		return nil, utils.MakeError(ErrUnknownRegister, "'%v' is not a register name", token)
	}

	index, err := strconv.Atoi(strings.ToLower(token)[len(RegisterNamePrefix):])
	if err != nil {
		return nil, utils.MakeError(ErrUnknownRegister, "'%v': %v", token, err)
	}

	return d.Register(index)
}

// Returns the documentation of the register file
func (d *RegisterFileDescriptor) DocString() string {
	var builder strings.Builder

	builder.WriteString("Registers\n")
	builder.WriteString("=========\n\n")
	fmt.Fprintf(&builder, "%v registers of 32 bits. Operands can name them as %vN or by their x86 alias.\n", d.TotalRegisters(), RegisterNamePrefix)
	builder.WriteString("Destination indices below the register count address registers, the rest address memory.\n\n")

	for _, register := range d.registers {
		fmt.Fprintf(&builder, "  %-3v %-4v %v\n", register.Name(), register.Alias, register.Description)
	}

	return builder.String()
}

// Initializes a register file descriptor with the given registers
func NewRegisterFileDescriptor(registers []*RegisterDescriptor) *RegisterFileDescriptor {
	d := &RegisterFileDescriptor{
		registers: registers,
		byName:    make(map[string]*RegisterDescriptor, 2*len(registers)),
	}

	for i, register := range registers {
		if register.Index != i {
			panic("register file descriptors must be ordered by index")
		}

		d.byName[register.Name()] = register

		if len(register.Alias) > 0 {
			d.byName[register.Alias] = register
		}
	}

	return d
}

// The machine register file. Aliases follow the x86 register encoding order.
var GeneralPurpose = NewRegisterFileDescriptor(utils.Iota(Count, func(i int) *RegisterDescriptor {
	aliases := [Count]string{"eax", "ecx", "edx", "ebx", "esp", "ebp", "esi", "edi"}
	descriptions := [Count]string{
		"Accumulator",
		"Counter",
		"Data",
		"Base",
		"General purpose (stack pointer in x86, unused here)",
		"General purpose (frame pointer in x86, unused here)",
		"Source index",
		"Destination index",
	}

	return &RegisterDescriptor{
		Index:       i,
		Alias:       aliases[i],
		Description: descriptions[i],
	}
}))
