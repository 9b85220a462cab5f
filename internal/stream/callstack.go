package stream

import (
	"errors"
	"fmt"
	"hash/crc32"
	"math/rand"
	"slices"

	"github.com/retroenv/rvtestgen/internal/asmgen"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/riscv"
)

var errMissingReturn = errors.New("sub program does not end with a return")

// CallStack connects the sub programs into a call tree rooted at the main program.
// The sub programs are visited in a random order and every sub program is called exactly
// once by the main program or by a sub program visited before it, which keeps the call
// graph free of cycles.
type CallStack struct {
	seed int64
	xlen int
	sp   riscv.Reg
}

var _ asmgen.CallStack = (*CallStack)(nil)

// NewCallStack returns a call stack generator. Sub programs that call other sub programs
// save the return address on the user stack.
func NewCallStack(cfg *config.Config, xlen int) *CallStack {
	return &CallStack{
		seed: cfg.Seed,
		xlen: xlen,
		sp:   cfg.SP,
	}
}

// Connect inserts the calls into the main program and the sub programs.
func (c *CallStack) Connect(main *asmgen.Sequence, subs []asmgen.Sequence) error {
	if len(subs) == 0 {
		return nil
	}
	for _, sub := range subs {
		if len(sub.Lines) == 0 || sub.Lines[len(sub.Lines)-1] != returnInstr() {
			return fmt.Errorf("%w: %s", errMissingReturn, sub.Label)
		}
	}

	seed := c.seed ^ int64(crc32.ChecksumIEEE([]byte(main.Label+"/callstack")))
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test generation

	order := rng.Perm(len(subs))
	for i, callee := range order {
		caller := rng.Intn(i+1) - 1
		target := subs[callee].Label

		if caller < 0 {
			pos := rng.Intn(len(main.Lines) + 1)
			main.Lines = slices.Insert(main.Lines, pos, c.call(target))
			continue
		}

		sub := &subs[order[caller]]
		pos := rng.Intn(len(sub.Lines)) // in front of the return
		sub.Lines = slices.Insert(sub.Lines, pos, c.nestedCall(target)...)
	}
	return nil
}

func (c *CallStack) call(target string) string {
	return fmt.Sprintf("jal %s, %s", riscv.RA, target)
}

// nestedCall returns a call that preserves the return address of the calling sub program.
func (c *CallStack) nestedCall(target string) []string {
	width := c.xlen / 8
	return []string{
		fmt.Sprintf("addi %s, %s, -%d", c.sp, c.sp, width),
		fmt.Sprintf("%s %s, 0(%s)", riscv.StoreInstr(c.xlen), riscv.RA, c.sp),
		c.call(target),
		fmt.Sprintf("%s %s, 0(%s)", riscv.LoadInstr(c.xlen), riscv.RA, c.sp),
		fmt.Sprintf("addi %s, %s, %d", c.sp, c.sp, width),
	}
}
