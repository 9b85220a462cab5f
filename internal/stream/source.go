// Package stream generates the random instruction sequences of the main and sub programs
// and connects the sub programs into a call graph.
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
	"github.com/retroenv/rvtestgen/internal/target"
)

const (
	branchRatio       = 8 // one of branchRatio instructions is a forward branch
	maxBranchDistance = 8
	loadStoreCount    = 6
	maxImmOffset      = 2048
)

var errNoRegister = errors.New("no writable register left")

// Source is the default instruction source. Every sequence is generated from a random
// source seeded by the configuration seed and the sequence label, the result does not
// depend on the order in which sequences are requested.
type Source struct {
	seed     int64
	xlen     int
	pageSize int
	instrs   []instruction
	accesses []memoryAccess
}

var _ asmgen.InstructionSource = (*Source)(nil)

// New returns an instruction source for the instruction groups of the target profile.
func New(cfg *config.Config, profile target.Profile) *Source {
	accepts := func(group riscv.InstrGroup) bool {
		if group == riscv.RV32I {
			return true
		}
		return profile.SupportsGroup(group)
	}

	var accesses []memoryAccess
	for _, access := range memoryAccesses {
		if accepts(access.group) && access.width <= cfg.DataPageSize {
			accesses = append(accesses, access)
		}
	}

	return &Source{
		seed:     cfg.Seed,
		xlen:     profile.XLEN(),
		pageSize: cfg.DataPageSize,
		instrs:   supported(accepts),
		accesses: accesses,
	}
}

// Sequence returns opts.Count random instructions. Sub programs end with a return to
// the caller. Unless branches are disabled, some instructions are forward branches to
// numeric local labels inside the sequence.
func (s *Source) Sequence(opts asmgen.SequenceOptions) (asmgen.Sequence, error) {
	seq := asmgen.Sequence{Label: opts.Label}
	if opts.Count <= 0 {
		return seq, nil
	}

	dest := destinations(opts.Reserved)
	if len(dest) == 0 {
		return seq, errNoRegister
	}

	rng := s.rng(opts.Label)
	targets := map[int][]string{}
	nextLabel := 1

	lines := make([]string, 0, opts.Count+opts.Count/branchRatio+1)
	for i := range opts.Count {
		lines = append(lines, targets[i]...)

		if !opts.NoBranch && i < opts.Count-1 && rng.Intn(branchRatio) == 0 {
			distance := 1 + rng.Intn(min(maxBranchDistance, opts.Count-1-i))
			label := fmt.Sprintf("%d", nextLabel)
			nextLabel++

			targets[i+distance] = append(targets[i+distance], label+":")
			lines = append(lines, branch(rng, label+"f"))
			continue
		}

		ins := s.instrs[rng.Intn(len(s.instrs))]
		lines = append(lines, ins.render(rng, s.xlen, dest))
	}

	if !opts.Main {
		lines = append(lines, returnInstr())
	}
	seq.Lines = lines
	return seq, nil
}

// InsertDirected inserts the requested directed streams at random positions. The
// streams themselves are kept contiguous.
func (s *Source) InsertDirected(seq *asmgen.Sequence, opts asmgen.DirectedOptions) error {
	rng := s.rng(seq.Label + "/directed")

	var streams [][]string
	if opts.Ecall {
		streams = append(streams, []string{"ecall"})
	}
	if opts.DataRegion != "" {
		lines, err := s.loadStore(rng, opts)
		if err != nil {
			return err
		}
		streams = append(streams, lines)
	}

	for _, stream := range streams {
		pos := rng.Intn(len(seq.Lines) + 1)
		seq.Lines = slices.Insert(seq.Lines, pos, stream...)
	}
	return nil
}

// loadStore returns a stream that loads the address of the data region into a base
// register and accesses the region with random aligned offsets.
func (s *Source) loadStore(rng *rand.Rand, opts asmgen.DirectedOptions) ([]string, error) {
	dest := destinations(opts.Reserved)
	if len(dest) < 2 || len(s.accesses) == 0 {
		return nil, fmt.Errorf("%w: load and store stream", errNoRegister)
	}

	base := dest[rng.Intn(len(dest))]
	dest = slices.DeleteFunc(dest, func(reg riscv.Reg) bool { return reg == base })

	lines := []string{fmt.Sprintf("la %s, %s", base, opts.DataRegion)}
	for range loadStoreCount {
		access := s.accesses[rng.Intn(len(s.accesses))]
		limit := min(s.pageSize, maxImmOffset) - access.width
		offset := rng.Intn(limit/access.width+1) * access.width

		if rng.Intn(2) == 0 {
			rd := dest[rng.Intn(len(dest))]
			lines = append(lines, fmt.Sprintf("%s %s, %d(%s)", access.load, rd, offset, base))
		} else {
			rs := riscv.Reg(rng.Intn(riscv.NumGPR))
			lines = append(lines, fmt.Sprintf("%s %s, %d(%s)", access.store, rs, offset, base))
		}
	}
	return lines, nil
}

// rng returns the random source of a labeled sequence.
func (s *Source) rng(label string) *rand.Rand {
	seed := s.seed ^ int64(crc32.ChecksumIEEE([]byte(label)))
	return rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test generation
}

// destinations returns the registers that instructions may write.
func destinations(reserved []riscv.Reg) []riscv.Reg {
	var dest []riscv.Reg
	for reg := riscv.Reg(1); reg < riscv.NumGPR; reg++ {
		if reg == riscv.RA || slices.Contains(reserved, reg) {
			continue
		}
		dest = append(dest, reg)
	}
	return dest
}

func branch(rng *rand.Rand, target string) string {
	name := branches[rng.Intn(len(branches))]
	rs1 := riscv.Reg(rng.Intn(riscv.NumGPR))
	rs2 := riscv.Reg(rng.Intn(riscv.NumGPR))
	return fmt.Sprintf("%s %s, %s, %s", name, rs1, rs2, target)
}

func returnInstr() string {
	return fmt.Sprintf("jalr %s, %s, 0", riscv.Zero, riscv.RA)
}
