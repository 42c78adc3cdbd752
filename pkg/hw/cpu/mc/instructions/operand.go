package instructions

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Manu343726/x86mini/pkg/hw/cpu/mc/registers"
	"github.com/Manu343726/x86mini/pkg/utils"
)

// Read access to the machine state needed to resolve operand values
type OperandReader interface {
	// GetRegister returns the value of a register by index
	GetRegister(idx uint32) uint32
	// ReadMemory8 reads a byte from memory
	ReadMemory8(addr uint32) (uint8, error)
}

// A decoded instruction operand
type Operand struct {
	kind OperandKind
	// immediate value, register index or memory address depending on the kind
	value int64
}

// Returns an immediate operand. Used as a destination, the value is taken as
// a raw destination index.
func ImmediateOperand(value int64) Operand {
	return Operand{kind: OperandKind_Immediate, value: value}
}

// Returns an operand referencing a register
func RegisterOperand(register *registers.RegisterDescriptor) Operand {
	return Operand{kind: OperandKind_Register, value: int64(register.Index)}
}

// Returns an operand referencing a memory byte
func MemoryOperand(address uint32) Operand {
	return Operand{kind: OperandKind_Memory, value: int64(address)}
}

// Returns the kind of operand
func (o Operand) Kind() OperandKind {
	return o.kind
}

func (o Operand) Immediate() int64 {
	if o.kind != OperandKind_Immediate {
		panic("operand is not an immediate")
	}

	return o.value
}

func (o Operand) Register() *registers.RegisterDescriptor {
	if o.kind != OperandKind_Register {
		panic("operand is not a register")
	}

	register, err := registers.GeneralPurpose.Register(int(o.value))
	if err != nil {
		panic(err)
	}

	return register
}

func (o Operand) Address() uint32 {
	if o.kind != OperandKind_Memory {
		panic("operand is not a memory reference")
	}

	return uint32(o.value)
}

// Returns the current value of the operand
func (o Operand) Value(ctx OperandReader) (int64, error) {
	switch o.kind {
	case OperandKind_Register:
		return int64(ctx.GetRegister(uint32(o.value))), nil
	case OperandKind_Memory:
		value, err := ctx.ReadMemory8(o.Address())
		return int64(value), err
	default:
		return o.value, nil
	}
}

// Returns the index of the operand in the destination address space, where
// registers come first followed by memory
func (o Operand) Destination() int64 {
	switch o.kind {
	case OperandKind_Memory:
		return registers.Count + o.value
	default:
		return o.value
	}
}

func (o Operand) String() string {
	switch o.kind {
	case OperandKind_Register:
		return o.Register().Name()
	case OperandKind_Memory:
		return fmt.Sprintf("[%v]", utils.FormatUintHex(uint64(o.value), 4))
	default:
		return strconv.FormatInt(o.value, 10)
	}
}

// Parses an operand token.
//
// Integer tokens are immediates, rN and register aliases are registers, 0x
// prefixed tokens are hex immediates and [N] tokens are memory references.
// Anything else is parsed as a decimal integer. Tokens that don't fully parse
// still return an immediate with a best effort value (the leading integer
// digits, or zero) together with an ErrMalformedOperand error, so callers can
// decide whether to reject the program or go on with the coerced value.
func ParseOperand(token Token) (Operand, error) {
	if token.IsNumber() {
		return ImmediateOperand(token.Number()), nil
	}

	text := strings.TrimSpace(token.Text())

	switch {
	case registers.GeneralPurpose.IsRegisterToken(text):
		register, err := registers.GeneralPurpose.Parse(text)
		if err != nil {
			return Operand{}, err
		}
		return RegisterOperand(register), nil
	case strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]"):
		address, err := parseInteger(text[1 : len(text)-1])
		if err != nil || address < 0 || address > utils.MaxUnsigned[uint32]() {
			return ImmediateOperand(0), utils.MakeError(ErrMalformedOperand, "invalid memory reference %v", token)
		}
		return MemoryOperand(uint32(address)), nil
	default:
		value, err := parseInteger(text)
		if err != nil {
			return ImmediateOperand(value), utils.MakeError(ErrMalformedOperand, "%v, coerced to %v", token, value)
		}
		return ImmediateOperand(value), nil
	}
}

// Parses a hex (0x prefixed) or decimal integer. On failure returns the value
// of the longest valid leading prefix.
func parseInteger(text string) (int64, error) {
	text = strings.TrimSpace(text)
	base := 10
	sign := ""

	if text != "" && (text[0] == '-' || text[0] == '+') {
		sign, text = text[:1], text[1:]
	}

	if digits, isHex := strings.CutPrefix(strings.ToLower(text), "0x"); isHex {
		text = digits
		base = 16
	}

	value, err := strconv.ParseInt(sign+text, base, 64)
	if err == nil {
		return value, nil
	}

	return leadingInteger(sign, text, base), err
}

func leadingInteger(sign, digits string, base int) int64 {
	end := 0
	for end < len(digits) && isDigit(rune(digits[end]), base) {
		end++
	}

	if end == 0 {
		return 0
	}

	value, err := strconv.ParseInt(sign+digits[:end], base, 64)
	if err != nil {
		return 0
	}

	return value
}

func isDigit(r rune, base int) bool {
	if base == 16 {
		return unicode.Is(unicode.ASCII_Hex_Digit, r)
	}

	return r >= '0' && r <= '9'
}
