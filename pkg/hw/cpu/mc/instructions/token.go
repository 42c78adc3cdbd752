package instructions

import (
	"fmt"
	"strconv"
)

// An unresolved operand as written by the program producer: either an integer
// literal or a piece of text (register name, hex literal, memory reference...)
type Token struct {
	number   int64
	text     string
	isNumber bool
}

// Returns an integer literal token
func Number(value int64) Token {
	return Token{number: value, isNumber: true}
}

// Returns a text token
func Text(text string) Token {
	return Token{text: text}
}

// Returns true if the token is an integer literal
func (t Token) IsNumber() bool {
	return t.isNumber
}

// Returns the integer literal of a number token
func (t Token) Number() int64 {
	if !t.isNumber {
		panic("token is not a number")
	}

	return t.number
}

// Returns the text of a text token
func (t Token) Text() string {
	if t.isNumber {
		panic("token is not text")
	}

	return t.text
}

func (t Token) String() string {
	if t.isNumber {
		return strconv.FormatInt(t.number, 10)
	}

	return fmt.Sprintf("%q", t.text)
}
