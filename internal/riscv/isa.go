package riscv

import "fmt"

// InstrGroup is a named RISC-V instruction set extension group.
type InstrGroup string

const (
	RV32I InstrGroup = "RV32I"
	RV32M InstrGroup = "RV32M"
	RV32A InstrGroup = "RV32A"
	RV32F InstrGroup = "RV32F"
	RV32D InstrGroup = "RV32D"
	RV32C InstrGroup = "RV32C"
	RV32B InstrGroup = "RV32B"
	RV64I InstrGroup = "RV64I"
	RV64M InstrGroup = "RV64M"
	RV64A InstrGroup = "RV64A"
	RV64F InstrGroup = "RV64F"
	RV64D InstrGroup = "RV64D"
	RV64C InstrGroup = "RV64C"
	RV64B InstrGroup = "RV64B"
)

// misaExtension maps every known group to its misa extension letter.
var misaExtension = map[InstrGroup]byte{
	RV32I: 'I', RV64I: 'I',
	RV32M: 'M', RV64M: 'M',
	RV32A: 'A', RV64A: 'A',
	RV32F: 'F', RV64F: 'F',
	RV32D: 'D', RV64D: 'D',
	RV32C: 'C', RV64C: 'C',
	RV32B: 'B', RV64B: 'B',
}

// ParseInstrGroup validates an instruction group name.
func ParseInstrGroup(s string) (InstrGroup, error) {
	group := InstrGroup(s)
	if _, ok := misaExtension[group]; !ok {
		return "", fmt.Errorf("unsupported instruction group '%s'", s)
	}
	return group, nil
}

// MisaValue returns the misa register value for the given architecture width, instruction
// groups and privileged modes.
func MisaValue(xlen int, groups []InstrGroup, modes []PrivilegedMode) uint64 {
	var value uint64
	for _, group := range groups {
		if ext, ok := misaExtension[group]; ok {
			value |= 1 << (ext - 'A')
		}
	}
	for _, mode := range modes {
		switch mode {
		case SupervisorMode:
			value |= 1 << ('S' - 'A')
		case UserMode:
			value |= 1 << ('U' - 'A')
		}
	}

	mxl := uint64(1)
	if xlen == 64 {
		mxl = 2
	}
	return value | mxl<<(xlen-2)
}
