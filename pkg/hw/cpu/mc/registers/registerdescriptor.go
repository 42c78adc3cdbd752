package registers

import "fmt"

type RegisterDescriptor struct {
	// Index within the register file
	Index int

	// Conventional x86 name of the register (eax, ebx, ...)
	Alias string

	// Register description (for documentation/debugging)
	Description string
}

// Returns the canonical register name (r0, r1, ...)
func (d *RegisterDescriptor) Name() string {
	return RegisterNamePrefix + fmt.Sprint(d.Index)
}

func (d *RegisterDescriptor) String() string {
	return d.Name()
}
