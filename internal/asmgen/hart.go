package asmgen

import (
	"errors"
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/signature"
	"github.com/retroenv/rvtestgen/internal/trap"
)

var errEmptySequence = errors.New("empty instruction sequence")

type labelWrite string

type linesWrite []string

type sectionWrite trap.Section

type sectionsWrite []trap.Section

type customWrite func() error

// writeHart writes the code of one hart in emission order.
// nolint: funlen
func (g *Generator) writeHart(hart int) error {
	b := g.builder(hart)

	main, subs, err := g.sequences(hart)
	if err != nil {
		return err
	}

	writes := []any{
		labelWrite(hartEntry(hart)),
	}

	if g.plan.PrivilegedSetup {
		writes = append(writes,
			linesWrite(g.misaSetup()),
			linesWrite(g.privilegedEntry(hart, b)),
		)
	}

	writes = append(writes,
		labelWrite(g.label("init", hart)),
		linesWrite(g.initSection(hart)),
	)

	if hart == 0 {
		writes = append(writes,
			sectionWrite{Label: trap.TestDone, Instrs: g.policy.TestEnd(g.env, signature.TestPass)},
			sectionWrite{Label: trap.TestFail, Instrs: g.policy.TestEnd(g.env, signature.TestFail)},
		)
	}

	// once PMP is configured, code outside of the permitted region may be unreachable,
	// the handlers have to be placed in front of the main program
	if g.plan.PrivilegedSetup && g.plan.HandlersBeforeMain {
		writes = append(writes, customWrite(func() error {
			g.writeHandlers(hart, b)
			return nil
		}))
	}

	for _, sub := range subs {
		writes = append(writes, sectionWrite{Label: sub.Label, Instrs: sub.Lines})
	}
	mainInstrs := append(slices.Clone(main.Lines), b.JumpTo(trap.TestDone, riscv.Zero)...)
	writes = append(writes, sectionWrite{Label: main.Label, Instrs: mainInstrs})

	if g.plan.PrivilegedSetup && !g.plan.HandlersBeforeMain {
		writes = append(writes, customWrite(func() error {
			g.writeHandlers(hart, b)
			return nil
		}))
	}

	if hart == 0 {
		writes = append(writes,
			sectionWrite{Label: signature.WriteToHost, Instrs: []string{
				fmt.Sprintf("sw %s, tohost, %s", riscv.GP, riscv.T5),
			}},
			sectionWrite{Label: "_exit", Instrs: []string{"j " + signature.WriteToHost}},
		)
	}

	if g.plan.DebugROM {
		writes = append(writes, sectionsWrite(g.debugROM(hart)))
	}

	if g.plan.PrivilegedSetup {
		writes = append(writes,
			sectionWrite{Label: g.label("instr_end", hart), Instrs: []string{"nop"}},
		)
	}

	for _, write := range writes {
		switch t := write.(type) {
		case labelWrite:
			g.prog.AddLabel(string(t))

		case linesWrite:
			g.prog.Add(t...)

		case sectionWrite:
			g.writeSection(trap.Section(t))

		case sectionsWrite:
			for _, section := range t {
				g.writeSection(section)
			}

		case customWrite:
			if err := t(); err != nil {
				return err
			}
		}
	}
	return nil
}

// sequences requests the main and sub program bodies of a hart and wires them.
func (g *Generator) sequences(hart int) (Sequence, []Sequence, error) {
	reserved := g.cfg.Reserved()

	subs := make([]Sequence, 0, g.cfg.NumOfSubProgram)
	for i := 1; i <= g.cfg.NumOfSubProgram; i++ {
		sub, err := g.sequence(SequenceOptions{
			Hart:     hart,
			Label:    g.label(fmt.Sprintf("sub_%d", i), hart),
			Count:    g.cfg.SubProgramInstrCnt,
			NoBranch: g.cfg.NoBranchJump,
			Reserved: reserved,
		})
		if err != nil {
			return Sequence{}, nil, err
		}
		subs = append(subs, sub)
	}

	main, err := g.sequence(SequenceOptions{
		Hart:     hart,
		Label:    g.label("main", hart),
		Count:    g.cfg.MainProgramInstrCnt,
		Main:     true,
		NoBranch: g.cfg.NoBranchJump,
		Reserved: reserved,
	})
	if err != nil {
		return Sequence{}, nil, err
	}

	directed := DirectedOptions{
		Hart:     hart,
		Ecall:    g.policy.EcallReturns() && g.plan.PrivilegedSetup,
		Reserved: reserved,
	}
	if g.plan.DataPages {
		directed.DataRegion = g.label("region_0", hart)
	}
	if err := g.collab.Instructions.InsertDirected(&main, directed); err != nil {
		return Sequence{}, nil, fmt.Errorf("inserting directed streams: %w", err)
	}

	if err := g.collab.CallStack.Connect(&main, subs); err != nil {
		return Sequence{}, nil, fmt.Errorf("connecting sub programs: %w", err)
	}

	g.logger.Debug("Generated sequences",
		log.Int("hart", hart),
		log.Int("main_lines", len(main.Lines)),
		log.Int("sub_programs", len(subs)),
	)
	return main, subs, nil
}

func (g *Generator) sequence(opts SequenceOptions) (Sequence, error) {
	seq, err := g.collab.Instructions.Sequence(opts)
	if err != nil {
		return Sequence{}, fmt.Errorf("generating %s: %w", opts.Label, err)
	}
	if opts.Count > 0 && len(seq.Lines) == 0 {
		return Sequence{}, fmt.Errorf("%w: %s", errEmptySequence, opts.Label)
	}
	if seq.Label == "" {
		seq.Label = opts.Label
	}
	return seq, nil
}

// initSection sets all GPRs except the stack pointers to random values, loads the user
// stack pointer and jumps to the main program.
func (g *Generator) initSection(hart int) []string {
	xlen := g.profile.XLEN()

	var instrs []string
	for reg := riscv.Reg(1); reg < riscv.NumGPR; reg++ {
		if reg == g.cfg.SP || reg == g.cfg.TP {
			continue
		}
		var value uint64
		if xlen == 64 {
			value = g.rng.Uint64()
		} else {
			value = uint64(g.rng.Uint32())
		}
		instrs = append(instrs, fmt.Sprintf("li %s, 0x%x", reg, value))
	}

	return append(instrs,
		fmt.Sprintf("la %s, %s", g.cfg.SP, g.label("user_stack_end", hart)),
		"j "+g.label("main", hart),
	)
}

// writeHandlers writes the trap code of a hart between the kernel instruction markers.
func (g *Generator) writeHandlers(hart int, b *trap.Builder) {
	g.prog.AddLabel(g.label("kernel_instr_start", hart))
	g.prog.Add(".align 2")

	if !g.policy.VectorTableAtHeader() {
		g.writeTvec(b)
	}
	for _, section := range b.TrapSections() {
		g.writeSection(section)
	}
	for _, section := range b.Handlers(g.policy.EcallHandler(g.env, b)) {
		g.writeSection(section)
	}

	g.prog.AddLabeled(g.label("kernel_instr_end", hart), "nop")
}

// debugROM returns the debug mode entry and debug exception sections. Entering debug
// mode is announced through the signature address followed by dumps of dcsr and dpc. The
// clobbered handler registers are parked in the debug scratch registers.
func (g *Generator) debugROM(hart int) []trap.Section {
	g0, g1 := g.cfg.GPR[0], g.cfg.GPR[1]

	rom := []string{
		riscv.CSRWrite(riscv.Dscratch0, g0),
		riscv.CSRWrite(riscv.Dscratch1, g1),
	}
	rom = append(rom, g.sig.Write(signature.StatusMessage(signature.InDebugMode))...)
	rom = append(rom, g.sig.DumpCSR(riscv.Dcsr)...)
	rom = append(rom, g.sig.DumpCSR(riscv.Dpc)...)
	rom = append(rom,
		riscv.CSRRead(g0, riscv.Dscratch0),
		riscv.CSRRead(g1, riscv.Dscratch1),
		"dret",
	)

	return []trap.Section{
		{Label: g.label("debug_rom", hart), Instrs: rom},
		{Label: g.label("debug_exception", hart), Instrs: []string{"dret"}},
	}
}
