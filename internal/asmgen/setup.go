package asmgen

import (
	"fmt"

	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/trap"
)

// mstatus field positions.
const (
	mstatusMPP  = 11
	mstatusMPRV = 17
	mstatusSUM  = 18
	mstatusMXR  = 19
	mstatusTVM  = 20
)

// PMP configuration of the two regions: the code below the main program is executable
// and readable, the remaining address space is fully accessible.
const (
	pmpTORReadExec        = 0x0d
	pmpNAPOTReadWriteExec = 0x1f
)

// misaSetup writes the misa value derived from the supported instruction groups and modes.
func (g *Generator) misaSetup() []string {
	g0 := g.cfg.GPR[0]
	misa := riscv.MisaValue(g.profile.XLEN(), g.profile.SupportedISA(), g.profile.PrivilegedModes())

	var instrs []string
	if g.cfg.CheckMisaInitVal {
		instrs = append(instrs, riscv.CSRRead(g0, riscv.Misa))
	}
	return append(instrs,
		fmt.Sprintf("li %s, 0x%x", g0, misa),
		riscv.CSRWrite(riscv.Misa, g0),
	)
}

// privilegedEntry sets up the kernel stack, the trap vector, the memory protection and
// translation and enters the init section in the configured privileged mode.
func (g *Generator) privilegedEntry(hart int, b *trap.Builder) []string {
	g0 := g.cfg.GPR[0]
	spec := b.Spec()

	instrs := []string{
		fmt.Sprintf("la %s, %s", g.cfg.TP, g.label("kernel_stack_end", hart)),
		fmt.Sprintf("la %s, %s", g0, b.TvecLabel()),
	}
	if g.cfg.MtvecMode == riscv.Vectored {
		instrs = append(instrs, fmt.Sprintf("ori %s, %s, %d", g0, g0, riscv.Vectored))
	}
	instrs = append(instrs, riscv.CSRWrite(spec.Tvec, g0))

	if g.plan.PMP {
		instrs = append(instrs, g.pmpSetup(hart)...)
	}
	if g.plan.PageTables {
		instrs = append(instrs, g.satpSetup(hart)...)
	}

	instrs = append(instrs,
		fmt.Sprintf("li %s, 0x%x", g0, g.mstatusValue()),
		riscv.CSRWrite(spec.Status, g0),
		fmt.Sprintf("la %s, %s", g0, g.label("init", hart)),
		riscv.CSRWrite(spec.Epc, g0),
		spec.ReturnInstr(),
	)
	return instrs
}

func (g *Generator) mstatusValue() uint64 {
	value := g.cfg.InitPrivilegedMode.MPP() << mstatusMPP
	fields := []struct {
		set bool
		bit uint
	}{
		{g.cfg.MstatusMPRV, mstatusMPRV},
		{g.cfg.MstatusSUM, mstatusSUM},
		{g.cfg.MstatusMXR, mstatusMXR},
		{g.cfg.MstatusTVM, mstatusTVM},
	}
	for _, field := range fields {
		if field.set {
			value |= 1 << field.bit
		}
	}
	return value
}

func (g *Generator) pmpSetup(hart int) []string {
	g0 := g.cfg.GPR[0]
	return []string{
		fmt.Sprintf("la %s, %s", g0, g.label("main", hart)),
		fmt.Sprintf("srli %s, %s, 2", g0, g0),
		riscv.CSRWrite(riscv.Pmpaddr0, g0),
		fmt.Sprintf("li %s, -1", g0),
		riscv.CSRWrite(riscv.Pmpaddr1, g0),
		fmt.Sprintf("li %s, 0x%x", g0, pmpNAPOTReadWriteExec<<8|pmpTORReadExec),
		riscv.CSRWrite(riscv.Pmpcfg0, g0),
	}
}

func (g *Generator) satpSetup(hart int) []string {
	g0, g1 := g.cfg.GPR[0], g.cfg.GPR[1]

	shift := 60
	if g.profile.XLEN() == 32 {
		shift = 31
	}
	mode := uint64(g.profile.SatpMode()) << shift

	return []string{
		fmt.Sprintf("la %s, %s", g0, g.label("page_table_0", hart)),
		fmt.Sprintf("srli %s, %s, 12", g0, g0),
		fmt.Sprintf("li %s, 0x%x", g1, mode),
		fmt.Sprintf("or %s, %s, %s", g0, g0, g1),
		riscv.CSRWrite(riscv.Satp, g0),
		"sfence.vma",
	}
}
