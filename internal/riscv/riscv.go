// Package riscv contains the RISC-V architecture definitions used by the test generator:
// registers, control and status registers, exception causes and the privileged, trap
// vector and address translation modes.
package riscv

import (
	"fmt"
	"strings"
)

// Reg is a general purpose integer register index.
type Reg uint8

// Registers with a fixed role in the generated programs.
const (
	Zero Reg = 0
	RA   Reg = 1
	SP   Reg = 2
	GP   Reg = 3
	TP   Reg = 4
	T0   Reg = 5
	T1   Reg = 6
	T5   Reg = 30
)

// NumGPR is the number of general purpose integer registers.
const NumGPR = 32

func (r Reg) String() string {
	return fmt.Sprintf("x%d", r)
}

// PrivilegedMode is a privilege level. The zero value is not a valid mode, MPP returns
// the mstatus.MPP encoding.
type PrivilegedMode uint8

const (
	UnsetMode PrivilegedMode = iota
	UserMode
	SupervisorMode
	MachineMode
)

var mppEncoding = map[PrivilegedMode]uint64{
	UserMode:       0,
	SupervisorMode: 1,
	MachineMode:    3,
}

var privilegedModeNames = map[PrivilegedMode]string{
	UserMode:       "USER_MODE",
	SupervisorMode: "SUPERVISOR_MODE",
	MachineMode:    "MACHINE_MODE",
}

func (m PrivilegedMode) String() string {
	if name, ok := privilegedModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("PrivilegedMode(%d)", uint8(m))
}

// MPP returns the encoding of the mode in the mstatus.MPP field.
func (m PrivilegedMode) MPP() uint64 {
	return mppEncoding[m]
}

// ParsePrivilegedMode parses a privileged mode name like "machine", "m" or "MACHINE_MODE".
func ParsePrivilegedMode(s string) (PrivilegedMode, error) {
	switch strings.ToLower(s) {
	case "m", "machine", "machine_mode":
		return MachineMode, nil
	case "s", "supervisor", "supervisor_mode":
		return SupervisorMode, nil
	case "u", "user", "user_mode":
		return UserMode, nil
	default:
		return UnsetMode, fmt.Errorf("unsupported privileged mode '%s'", s)
	}
}

// MtvecMode is the trap vector mode encoded in the low bits of xtvec.
type MtvecMode uint8

const (
	Direct   MtvecMode = 0
	Vectored MtvecMode = 1
)

func (m MtvecMode) String() string {
	if m == Vectored {
		return "VECTORED"
	}
	return "DIRECT"
}

// ParseMtvecMode parses a trap vector mode name.
func ParseMtvecMode(s string) (MtvecMode, error) {
	switch strings.ToLower(s) {
	case "direct":
		return Direct, nil
	case "vectored":
		return Vectored, nil
	default:
		return 0, fmt.Errorf("unsupported mtvec mode '%s'", s)
	}
}

// SatpMode is the address translation scheme encoded in satp.MODE.
type SatpMode uint8

const (
	Bare SatpMode = 0
	Sv32 SatpMode = 1
	Sv39 SatpMode = 8
	Sv48 SatpMode = 9
)

var satpModeNames = map[SatpMode]string{
	Bare: "BARE",
	Sv32: "SV32",
	Sv39: "SV39",
	Sv48: "SV48",
}

func (m SatpMode) String() string {
	if name, ok := satpModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("SatpMode(%d)", uint8(m))
}

// Levels returns the number of page table levels of the translation scheme.
func (m SatpMode) Levels() int {
	switch m {
	case Sv32:
		return 2
	case Sv39:
		return 3
	case Sv48:
		return 4
	default:
		return 0
	}
}

// ParseSatpMode parses a translation scheme name.
func ParseSatpMode(s string) (SatpMode, error) {
	for mode, name := range satpModeNames {
		if strings.EqualFold(s, name) {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unsupported satp mode '%s'", s)
}

// ExceptionCause is a synchronous exception code as reported in xcause.
type ExceptionCause uint8

const (
	InstrAddressMisaligned ExceptionCause = 0x0
	InstrAccessFault       ExceptionCause = 0x1
	IllegalInstruction     ExceptionCause = 0x2
	Breakpoint             ExceptionCause = 0x3
	LoadAddressMisaligned  ExceptionCause = 0x4
	LoadAccessFault        ExceptionCause = 0x5
	StoreAddressMisaligned ExceptionCause = 0x6
	StoreAccessFault       ExceptionCause = 0x7
	EcallUmode             ExceptionCause = 0x8
	EcallSmode             ExceptionCause = 0x9
	EcallMmode             ExceptionCause = 0xb
	InstrPageFault         ExceptionCause = 0xc
	LoadPageFault          ExceptionCause = 0xd
	StorePageFault         ExceptionCause = 0xf
)

var exceptionCauseNames = map[ExceptionCause]string{
	InstrAddressMisaligned: "INSTRUCTION_ADDRESS_MISALIGNED",
	InstrAccessFault:       "INSTRUCTION_ACCESS_FAULT",
	IllegalInstruction:     "ILLEGAL_INSTRUCTION",
	Breakpoint:             "BREAKPOINT",
	LoadAddressMisaligned:  "LOAD_ADDRESS_MISALIGNED",
	LoadAccessFault:        "LOAD_ACCESS_FAULT",
	StoreAddressMisaligned: "STORE_AMO_ADDRESS_MISALIGNED",
	StoreAccessFault:       "STORE_AMO_ACCESS_FAULT",
	EcallUmode:             "ECALL_UMODE",
	EcallSmode:             "ECALL_SMODE",
	EcallMmode:             "ECALL_MMODE",
	InstrPageFault:         "INSTRUCTION_PAGE_FAULT",
	LoadPageFault:          "LOAD_PAGE_FAULT",
	StorePageFault:         "STORE_AMO_PAGE_FAULT",
}

func (c ExceptionCause) String() string {
	if name, ok := exceptionCauseNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ExceptionCause(%d)", uint8(c))
}

// StoreInstr returns the register sized store instruction for the architecture width.
func StoreInstr(xlen int) string {
	if xlen == 64 {
		return "sd"
	}
	return "sw"
}

// LoadInstr returns the register sized load instruction for the architecture width.
func LoadInstr(xlen int) string {
	if xlen == 64 {
		return "ld"
	}
	return "lw"
}

// WordDirective returns the data directive that emits one register sized word.
func WordDirective(xlen int) string {
	if xlen == 64 {
		return ".8byte"
	}
	return ".4byte"
}
