package trap

import (
	"fmt"

	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/riscv"
)

// PushGPR returns the instructions that switch to the kernel stack and save x1-x31 on it.
// The user stack pointer is parked in the scratch CSR of the handler mode.
func PushGPR(cfg *config.Config, xlen int, spec HandlerSpec) []string {
	width := xlen / 8
	store := riscv.StoreInstr(xlen)

	instrs := []string{
		riscv.CSRSwap(cfg.SP, spec.Scratch, cfg.SP),
		fmt.Sprintf("add %s, %s, zero", cfg.SP, cfg.TP),
		fmt.Sprintf("addi %s, %s, -%d", cfg.SP, cfg.SP, riscv.NumGPR*width),
	}
	for reg := riscv.Reg(1); reg < riscv.NumGPR; reg++ {
		instrs = append(instrs, fmt.Sprintf("%s %s, %d(%s)", store, reg, int(reg)*width, cfg.SP))
	}
	return append(instrs, fmt.Sprintf("add %s, %s, zero", cfg.TP, cfg.SP))
}

// PopGPR returns the instructions that restore x1-x31 from the kernel stack and switch
// back to the user stack.
func PopGPR(cfg *config.Config, xlen int, spec HandlerSpec) []string {
	width := xlen / 8
	load := riscv.LoadInstr(xlen)

	instrs := []string{
		fmt.Sprintf("add %s, %s, zero", cfg.SP, cfg.TP),
	}
	for reg := riscv.Reg(1); reg < riscv.NumGPR; reg++ {
		instrs = append(instrs, fmt.Sprintf("%s %s, %d(%s)", load, reg, int(reg)*width, cfg.SP))
	}
	return append(instrs,
		fmt.Sprintf("addi %s, %s, %d", cfg.SP, cfg.SP, riscv.NumGPR*width),
		fmt.Sprintf("add %s, %s, zero", cfg.TP, cfg.SP),
		riscv.CSRSwap(cfg.SP, spec.Scratch, cfg.SP),
	)
}
