package instructions

import "strings"

// Status flags set by arithmetic and comparison instructions
type Flags struct {
	Zero     bool
	Carry    bool
	Overflow bool
	Negative bool
}

// Returns the flags as a compact ZCON string, with '-' for cleared flags
func (f Flags) String() string {
	var builder strings.Builder

	for _, flag := range []struct {
		set  bool
		name byte
	}{
		{f.Zero, 'Z'},
		{f.Carry, 'C'},
		{f.Overflow, 'O'},
		{f.Negative, 'N'},
	} {
		if flag.set {
			builder.WriteByte(flag.name)
		} else {
			builder.WriteByte('-')
		}
	}

	return builder.String()
}
