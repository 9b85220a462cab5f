package riscv

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func TestCSRString(t *testing.T) {
	tests := []struct {
		csr  CSR
		want string
	}{
		{Mepc, "MEPC"},
		{Mcause, "MCAUSE"},
		{MhpmCounter(3), "MHPMCOUNTER3"},
		{MhpmCounterH(31), "MHPMCOUNTER31H"},
		{CSR(0x7c0), "CSR(0x7c0)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.csr.String())
		})
	}
}

func TestParseCSR(t *testing.T) {
	csr, err := ParseCSR("MHPMCOUNTER4")
	assert.NoError(t, err)
	assert.Equal(t, MhpmCounter(4), csr)
	assert.True(t, csr.IsPerfCounter())

	csr, err = ParseCSR("MSTATUS")
	assert.NoError(t, err)
	assert.Equal(t, Mstatus, csr)
	assert.False(t, csr.IsPerfCounter())

	_, err = ParseCSR("NOPE")
	assert.Error(t, err)
}

func TestMisaValue(t *testing.T) {
	value := MisaValue(32, []InstrGroup{RV32I, RV32M, RV32C}, []PrivilegedMode{MachineMode, UserMode})
	want := uint64(1)<<30 | 1<<('I'-'A') | 1<<('M'-'A') | 1<<('C'-'A') | 1<<('U'-'A')
	assert.Equal(t, want, value)

	value = MisaValue(64, []InstrGroup{RV64I}, nil)
	assert.Equal(t, uint64(2)<<62|1<<('I'-'A'), value)
}

func TestParseModes(t *testing.T) {
	mode, err := ParsePrivilegedMode("u")
	assert.NoError(t, err)
	assert.Equal(t, UserMode, mode)
	assert.Equal(t, uint64(0), mode.MPP())

	mode, err = ParsePrivilegedMode("Machine")
	assert.NoError(t, err)
	assert.Equal(t, MachineMode, mode)
	assert.Equal(t, uint64(3), mode.MPP())

	var unset PrivilegedMode
	assert.Equal(t, UnsetMode, unset)
	_, err = ParsePrivilegedMode("hypervisor")
	assert.Error(t, err)

	mtvec, err := ParseMtvecMode("vectored")
	assert.NoError(t, err)
	assert.Equal(t, Vectored, mtvec)

	satp, err := ParseSatpMode("sv39")
	assert.NoError(t, err)
	assert.Equal(t, Sv39, satp)
	assert.Equal(t, 3, satp.Levels())

	_, err = ParseSatpMode("sv57")
	assert.Error(t, err)
}

func TestInstrGroup(t *testing.T) {
	group, err := ParseInstrGroup("RV32A")
	assert.NoError(t, err)
	assert.Equal(t, RV32A, group)

	_, err = ParseInstrGroup("RV128I")
	assert.Error(t, err)
}
