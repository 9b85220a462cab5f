package riscv

import "fmt"

// CSR is a control and status register address.
type CSR uint16

// User mode trap CSRs.
const (
	Ustatus  CSR = 0x000
	Uie      CSR = 0x004
	Utvec    CSR = 0x005
	Uscratch CSR = 0x040
	Uepc     CSR = 0x041
	Ucause   CSR = 0x042
	Utval    CSR = 0x043
	Uip      CSR = 0x044
)

// Supervisor mode trap and translation CSRs.
const (
	Sstatus  CSR = 0x100
	Sie      CSR = 0x104
	Stvec    CSR = 0x105
	Sscratch CSR = 0x140
	Sepc     CSR = 0x141
	Scause   CSR = 0x142
	Stval    CSR = 0x143
	Sip      CSR = 0x144
	Satp     CSR = 0x180
)

// Machine mode CSRs.
const (
	Mstatus  CSR = 0x300
	Misa     CSR = 0x301
	Mie      CSR = 0x304
	Mtvec    CSR = 0x305
	Mscratch CSR = 0x340
	Mepc     CSR = 0x341
	Mcause   CSR = 0x342
	Mtval    CSR = 0x343
	Mip      CSR = 0x344
	Pmpcfg0  CSR = 0x3a0
	Pmpaddr0 CSR = 0x3b0
	Pmpaddr1 CSR = 0x3b1
	Mhartid  CSR = 0xf14
)

// Debug mode CSRs.
const (
	Dcsr      CSR = 0x7b0
	Dpc       CSR = 0x7b1
	Dscratch0 CSR = 0x7b2
	Dscratch1 CSR = 0x7b3
)

// Machine performance counters.
const (
	Mcycle    CSR = 0xb00
	Minstret  CSR = 0xb02
	Mcycleh   CSR = 0xb80
	Minstreth CSR = 0xb82
)

var csrNames = map[CSR]string{
	Ustatus: "USTATUS", Uie: "UIE", Utvec: "UTVEC", Uscratch: "USCRATCH",
	Uepc: "UEPC", Ucause: "UCAUSE", Utval: "UTVAL", Uip: "UIP",
	Sstatus: "SSTATUS", Sie: "SIE", Stvec: "STVEC", Sscratch: "SSCRATCH",
	Sepc: "SEPC", Scause: "SCAUSE", Stval: "STVAL", Sip: "SIP", Satp: "SATP",
	Mstatus: "MSTATUS", Misa: "MISA", Mie: "MIE", Mtvec: "MTVEC", Mscratch: "MSCRATCH",
	Mepc: "MEPC", Mcause: "MCAUSE", Mtval: "MTVAL", Mip: "MIP",
	Pmpcfg0: "PMPCFG0", Pmpaddr0: "PMPADDR0", Pmpaddr1: "PMPADDR1", Mhartid: "MHARTID",
	Dcsr: "DCSR", Dpc: "DPC", Dscratch0: "DSCRATCH0", Dscratch1: "DSCRATCH1",
	Mcycle: "MCYCLE", Minstret: "MINSTRET", Mcycleh: "MCYCLEH", Minstreth: "MINSTRETH",
}

// MhpmCounter returns the machine hardware performance counter n (3-31).
func MhpmCounter(n int) CSR {
	return Mcycle + CSR(n)
}

// MhpmCounterH returns the upper half of the machine hardware performance counter n (3-31)
// on RV32.
func MhpmCounterH(n int) CSR {
	return Mcycleh + CSR(n)
}

// IsPerfCounter returns whether the CSR is one of the machine performance counters.
func (c CSR) IsPerfCounter() bool {
	return (c >= Mcycle && c <= MhpmCounter(31)) || (c >= Mcycleh && c <= MhpmCounterH(31))
}

func (c CSR) String() string {
	if name, ok := csrNames[c]; ok {
		return name
	}
	switch {
	case c > Minstret && c <= MhpmCounter(31):
		return fmt.Sprintf("MHPMCOUNTER%d", c-Mcycle)
	case c > Minstreth && c <= MhpmCounterH(31):
		return fmt.Sprintf("MHPMCOUNTER%dH", c-Mcycleh)
	}
	return fmt.Sprintf("CSR(0x%03x)", uint16(c))
}

// Hex returns the CSR address formatted as it is used as instruction operand.
func (c CSR) Hex() string {
	return fmt.Sprintf("0x%x", uint16(c))
}

// ParseCSR parses a CSR name as returned by String.
func ParseCSR(name string) (CSR, error) {
	for csr, n := range csrNames {
		if n == name {
			return csr, nil
		}
	}
	for i := 3; i <= 31; i++ {
		if MhpmCounter(i).String() == name {
			return MhpmCounter(i), nil
		}
		if MhpmCounterH(i).String() == name {
			return MhpmCounterH(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported CSR '%s'", name)
}
