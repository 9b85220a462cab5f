// Package asmgen assembles a complete multi hart test program from the policy, the trap
// handlers and the instruction and data collaborators.
package asmgen

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/layout"
	"github.com/retroenv/rvtestgen/internal/policy"
	"github.com/retroenv/rvtestgen/internal/program"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/signature"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/trap"
)

// ErrGeneration is returned when the program can not be completed, for example a
// collaborator returned an empty sequence or a label is not defined.
var ErrGeneration = errors.New("generation failed")

// Generator assembles one program at a time. It is not safe for concurrent use, every
// concurrent generation needs its own generator.
type Generator struct {
	logger  *log.Logger
	cfg     config.Config
	profile target.Profile
	policy  policy.Policy
	collab  Collaborators
	plan    layout.Plan
	sig     *signature.Protocol
	env     policy.Env

	rng  *rand.Rand
	prog *program.Program
}

// New creates a generator. The policy overrides are applied to the configuration and the
// result is validated, configuration errors are returned before anything is emitted.
func New(logger *log.Logger, cfg config.Config, profile target.Profile, pol policy.Policy,
	collab Collaborators) (*Generator, error) {

	if collab.Instructions == nil || collab.CallStack == nil || collab.Data == nil {
		return nil, errors.New("missing collaborator")
	}

	effective := pol.EffectiveConfig(cfg, profile)
	if err := effective.Validate(profile); err != nil {
		return nil, fmt.Errorf("validating %s configuration: %w", pol.Name(), err)
	}

	g := &Generator{
		logger:  logger,
		cfg:     effective,
		profile: profile,
		policy:  pol,
		collab:  collab,
	}
	g.plan = layout.Decide(&g.cfg, profile)
	g.sig = signature.New(&g.cfg, profile.XLEN())
	g.env = policy.Env{
		Config:    &g.cfg,
		Profile:   profile,
		Signature: g.sig,
	}
	return g, nil
}

// Config returns the effective configuration.
func (g *Generator) Config() config.Config {
	return g.cfg
}

// Generate assembles the program. Every call rebuilds the program from scratch, the
// same configuration always results in the same program.
func (g *Generator) Generate() (*program.Program, error) {
	g.rng = rand.New(rand.NewSource(g.cfg.Seed))
	g.prog = program.New()

	g.logger.Debug("Generating program",
		log.String("seed", strconv.FormatInt(g.cfg.Seed, 10)),
		log.String("policy", g.policy.Name()),
		log.Int("harts", g.cfg.NumOfHarts),
		log.String("bare", strconv.FormatBool(g.cfg.BareProgramMode)),
		log.Stringer("mtvec_mode", g.cfg.MtvecMode),
		log.String("pmp", strconv.FormatBool(g.plan.PMP)),
	)

	g.writeHeader()
	g.writeEntry()

	for hart := range g.cfg.NumOfHarts {
		if err := g.writeHart(hart); err != nil {
			return nil, fmt.Errorf("%w: hart %d: %w", ErrGeneration, hart, err)
		}
	}

	g.writeDataSections()

	if err := g.prog.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	prog := g.prog
	g.prog = nil
	return prog, nil
}

// builder returns the trap handler builder of a hart.
func (g *Generator) builder(hart int) *trap.Builder {
	return trap.NewBuilder(&g.cfg, g.profile.XLEN(), g.profile.MaxInterruptVectorNum(),
		trap.MachineMode, g.sig, hart)
}

func (g *Generator) prefix(hart int) string {
	return program.HartPrefix(hart, g.cfg.NumOfHarts)
}

func (g *Generator) label(name string, hart int) string {
	return program.Label(name, hart, g.cfg.NumOfHarts)
}

// writeHeader writes the policy header and, if the policy places them there, the
// trap vectors of all harts.
func (g *Generator) writeHeader() {
	g.prog.Add(g.policy.Header(g.env)...)

	if !g.plan.PrivilegedSetup || !g.policy.VectorTableAtHeader() {
		return
	}
	// trap vectors are never compressed, the entry enables compressed instructions again
	if g.cfg.CompressedAllowed() {
		g.prog.Add(".option norvc;")
	}
	for hart := range g.cfg.NumOfHarts {
		g.writeTvec(g.builder(hart))
	}
}

// writeTvec writes the aligned trap vector of a hart.
func (g *Generator) writeTvec(b *trap.Builder) {
	g.prog.Add(fmt.Sprintf(".align %d", g.plan.TrapVectorAlignment))
	g.writeSection(b.Tvec())
}

func (g *Generator) writeSection(section trap.Section) {
	g.prog.AddLabeled(section.Label, section.Instrs...)
}

// writeEntry writes the global entry point. With multiple harts the entry dispatches on
// mhartid to the hart entry labels, unknown harts wait for interrupts. The hart entries
// can be out of range of a conditional branch and are reached by jumps.
func (g *Generator) writeEntry() {
	g.prog.Add(".align 7")
	if g.cfg.CompressedAllowed() {
		g.prog.Add(".option rvc;")
	}
	g.prog.AddLabel(policy.EntrySymbol)

	if g.cfg.NumOfHarts <= 1 {
		return
	}

	g.prog.Add(riscv.CSRRead(riscv.T0, riscv.Mhartid))
	for hart := range g.cfg.NumOfHarts {
		g.prog.Add(fmt.Sprintf("li %s, %d", riscv.T1, hart))
		g.prog.Add(trap.BranchFar("beq", riscv.T0, riscv.T1, hartEntry(hart))...)
	}
	g.prog.Add("1:", "wfi", "j 1b")
}

func hartEntry(hart int) string {
	return fmt.Sprintf("h%d_start", hart)
}
