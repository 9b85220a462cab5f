package asmgen

import (
	"fmt"

	"github.com/retroenv/rvtestgen/internal/riscv"
)

// writeDataSections writes the data, stack, kernel and page table sections of all harts
// behind the code of all harts.
func (g *Generator) writeDataSections() {
	g.prog.Add(".section .data")
	g.writeHostSymbols()

	for hart := range g.cfg.NumOfHarts {
		if g.plan.DataPages {
			g.prog.Add(".align 12")
			g.prog.Add(g.collab.Data.DataPage(g.label("region_0", hart), g.cfg.DataPageSize)...)
		}
		if g.plan.AMORegion(hart) {
			g.prog.Add(".align 3")
			g.prog.Add(g.collab.Data.DataPage("amo_0", g.cfg.DataPageSize)...)
		}

		g.writeStack(g.label("user_stack_start", hart), g.label("user_stack_end", hart), g.cfg.StackLen)

		if g.plan.KernelData {
			g.prog.Add(".align 12")
			g.prog.Add(g.collab.Data.DataPage(g.label("kernel_data_start", hart), g.cfg.DataPageSize)...)
			g.writeStack(g.label("kernel_stack_start", hart), g.label("kernel_stack_end", hart), g.cfg.KernelStackLen)
		}

		if g.plan.PageTables {
			g.prog.Add(g.collab.Data.PageTables(PageTableOptions{
				Prefix:   g.prefix(hart),
				SatpMode: g.profile.SatpMode(),
				XLEN:     g.profile.XLEN(),
				User:     g.cfg.InitPrivilegedMode == riscv.UserMode,
			})...)
		}
	}
}

// writeHostSymbols writes the tohost and fromhost words that the simulator polls.
func (g *Generator) writeHostSymbols() {
	for _, symbol := range []string{"tohost", "fromhost"} {
		g.prog.Add(".align 6", ".global "+symbol)
		g.prog.AddLabeled(symbol, ".dword 0")
	}
}

// writeStack writes a stack of register sized words. The end label points to the last
// word, stacks grow downwards.
func (g *Generator) writeStack(start, end string, words int) {
	directive := riscv.WordDirective(g.profile.XLEN())

	g.prog.Add(".align 2")
	g.prog.AddLabel(start)
	g.prog.Add(
		fmt.Sprintf(".rept %d", words-1),
		directive+" 0x0",
		".endr",
	)
	g.prog.AddLabeled(end, directive+" 0x0")
}
