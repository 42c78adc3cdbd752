// Package loader reads programs from YAML files.
//
// A program file lists pre-tokenized instructions together with the initial
// machine state:
//
//	name: countdown
//	memory: 1024
//	seed:
//	  registers: {eax: 0, r3: 50}
//	  memory: {0: 0xeb}
//	instructions:
//	  - {code: 0xb8, mnemonic: mov, operands: [32, 0, eax]}
//	  - {code: 0x01, mnemonic: add, operands: [32, eax, [0x10]]}
//
// The first operand of every instruction is the operand size tag. Integer
// operands become numeric tokens and everything else text tokens, which the
// decoder classifies as registers, memory references or hex immediates.
// Memory references can be written bare ([0x10]) or quoted ("[0x10]").
package loader

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/interpreter"
	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/instructions"
	"github.com/Manu343726/x86mini/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Options configures the program loading process
type Options struct {
	// Strict rejects programs with malformed operands or unsupported
	// instructions. Lenient loads keep them: malformed operands run with
	// their coerced values and unsupported instructions halt the run when
	// reached.
	Strict bool

	// MemorySize overrides the memory size of the program file if non zero
	MemorySize uint32

	// Logger receives lenient mode warnings. May be nil.
	Logger *slog.Logger
}

// Program is a loaded program, ready to run
type Program struct {
	Name         string
	MemorySize   uint32
	Seed         Seed
	Instructions instructions.Program

	// Decoding problems accepted by a lenient load, nil if none
	Warnings error
}

// NewRunner creates a runner for the program with the seed already applied
func (p *Program) NewRunner() (*interpreter.Runner, error) {
	runner := interpreter.NewRunner(p.Instructions, p.MemorySize)

	if err := runner.Seed(p.Seed); err != nil {
		return nil, err
	}

	return runner, nil
}

type programFile struct {
	Name         string             `yaml:"name"`
	Memory       uint32             `yaml:"memory"`
	Seed         seedFile           `yaml:"seed"`
	Instructions []instructionEntry `yaml:"instructions"`
}

type instructionEntry struct {
	Code     uint8       `yaml:"code"`
	Mnemonic string      `yaml:"mnemonic"`
	Operands []yaml.Node `yaml:"operands"`
}

func (e *instructionEntry) raw() (instructions.RawInstruction, error) {
	raw := instructions.RawInstruction{
		Code:     e.Code,
		Mnemonic: e.Mnemonic,
		Operands: make([]instructions.Token, 0, len(e.Operands)),
	}

	for i := range e.Operands {
		node := &e.Operands[i]

		// A bare [addr] is a one element flow sequence
		if node.Kind == yaml.SequenceNode {
			if len(node.Content) != 1 || node.Content[0].Kind != yaml.ScalarNode {
				return raw, fmt.Errorf("operand %v (line %v) is not a memory reference", i, node.Line)
			}
			raw.Operands = append(raw.Operands, instructions.Text("["+node.Content[0].Value+"]"))
			continue
		}

		if node.Kind != yaml.ScalarNode {
			return raw, fmt.Errorf("operand %v (line %v) is not a scalar", i, node.Line)
		}

		if node.ShortTag() == "!!int" {
			var value int64
			if err := node.Decode(&value); err != nil {
				return raw, fmt.Errorf("operand %v (line %v): %w", i, node.Line, err)
			}
			raw.Operands = append(raw.Operands, instructions.Number(value))
		} else {
			raw.Operands = append(raw.Operands, instructions.Text(node.Value))
		}
	}

	return raw, nil
}

// Parse parses a program from YAML
func Parse(data []byte, opts Options) (*Program, error) {
	var file programFile

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, utils.MakeError(ErrInvalidProgram, "empty program file")
		}
		return nil, utils.MakeError(ErrInvalidProgram, "%v", err)
	}

	if len(file.Instructions) == 0 {
		return nil, utils.MakeError(ErrInvalidProgram, "program '%v' has no instructions", file.Name)
	}

	raws := make([]instructions.RawInstruction, len(file.Instructions))
	for i := range file.Instructions {
		raw, err := file.Instructions[i].raw()
		if err != nil {
			return nil, utils.MakeError(ErrInvalidProgram, "instruction %v: %v", i, err)
		}
		raws[i] = raw
	}

	program := &Program{
		Name:       file.Name,
		MemorySize: file.Memory,
	}

	if opts.MemorySize != 0 {
		program.MemorySize = opts.MemorySize
	}
	if program.MemorySize == 0 {
		program.MemorySize = interpreter.DefaultMemorySize
	}

	seed, err := file.Seed.parse()
	if err != nil {
		return nil, err
	}
	if err := seed.validate(program.MemorySize); err != nil {
		return nil, err
	}
	program.Seed = seed

	program.Instructions, err = instructions.DecodeProgram(raws)
	if err != nil {
		if opts.Strict {
			return nil, fmt.Errorf("%w: %w", ErrInvalidProgram, err)
		}

		program.Warnings = err
		if opts.Logger != nil {
			opts.Logger.Warn("program loaded with decoding problems",
				"program", program.Name,
				"non_executable", program.Instructions.NonExecutable(),
				"error", err)
		}
	}

	return program, nil
}

// Load reads and parses a program file. Programs without a name are named
// after the file.
func Load(path string, opts Options) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program file: %w", err)
	}

	program, err := Parse(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}

	if program.Name == "" {
		program.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	return program, nil
}

//go:embed demo.yaml
var demoProgram []byte

// Demo returns the built-in demo program: a loop counting r0 up to 50
func Demo(opts Options) *Program {
	program, err := Parse(demoProgram, opts)
	if err != nil {
		panic(fmt.Sprintf("built-in demo program is broken: %v", err))
	}
	return program
}
