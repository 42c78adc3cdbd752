package instructions

import (
	"fmt"

	"github.com/Manu343726/x86mini/pkg/utils"
)

// Contains information about an opcode
type OpCodeDescriptor struct {
	OpCode   OpCode
	Mnemonic string
}

func (d *OpCodeDescriptor) String() string {
	return d.Mnemonic
}

// Returns information about the implemented opcodes
type OpCodesDescriptor struct {
	mnemonics         map[OpCode]string
	mnemonicsToOpCode map[string]OpCode
}

func (d *OpCodesDescriptor) Descriptor(op OpCode) *OpCodeDescriptor {
	return &OpCodeDescriptor{
		OpCode:   op,
		Mnemonic: d.Mnemonic(op),
	}
}

// Returns the descriptors of all implemented opcodes, ordered by opcode
func (d *OpCodesDescriptor) AllOpCodes() []*OpCodeDescriptor {
	return utils.Map(utils.SortedKeys(d.mnemonics), d.Descriptor)
}

// Number of opcodes implemented
func (d *OpCodesDescriptor) TotalOpCodes() int {
	return len(d.mnemonics)
}

// Returns the mnemonic string representation of the opcode
func (d *OpCodesDescriptor) Mnemonic(op OpCode) string {
	return d.mnemonics[op]
}

// Returns the opcode corresponding to the given mnemonic
func (d *OpCodesDescriptor) ParseOpCode(mnemonic string) (OpCode, error) {
	if opcode, hasOpCode := d.mnemonicsToOpCode[mnemonic]; hasOpCode {
		return opcode, nil
	} else {
		return 0, utils.MakeError(ErrUnsupportedInstruction, "'%v'", mnemonic)
	}
}

// Initializes an opcodes descriptor with all the opcodes in the given opcode -> mnemonic map
func NewOpCodesDescriptor(mnemonics map[OpCode]string) OpCodesDescriptor {
	for i, opCode := range utils.Iota(int(TOTAL_OPCODES), func(i int) OpCode { return OpCode(i) }) {
		if _, hasOpCode := mnemonics[opCode]; !hasOpCode {
			panic(fmt.Sprintf("missing entry for opcode %v in mnemonics table. Make sure you've added all OpCode -> Mnemonic entries in the NewOpCodesDescriptor() call", i))
		}
	}

	d := OpCodesDescriptor{
		mnemonics:         mnemonics,
		mnemonicsToOpCode: utils.InvertedMap(mnemonics),
	}

	if d.TotalOpCodes() != int(TOTAL_OPCODES) {
		panic("missing entry in opcode mnemonics table??? Make sure you've added all OpCode -> Mnemonic entries in the NewOpCodesDescriptor() call")
	}
	return d
}
