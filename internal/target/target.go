// Package target describes the capabilities of the processor core that the generated
// programs are run on.
package target

import (
	"errors"
	"fmt"
	"slices"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/rvtestgen/internal/riscv"
)

// Profile defines the capabilities of a target core that program generation depends on.
type Profile interface {
	// Name returns the name of the target.
	Name() string
	// Policy returns the name of the target policy that shapes the generated program.
	Policy() string
	// XLEN returns the architecture word width in bits.
	XLEN() int
	// SupportedISA returns the supported instruction groups.
	SupportedISA() []riscv.InstrGroup
	// SupportsGroup returns whether the instruction group is supported.
	SupportsGroup(group riscv.InstrGroup) bool
	// SupportsAtomics returns whether an atomic instruction group is supported.
	SupportsAtomics() bool
	// SatpMode returns the paging mode of the target.
	SatpMode() riscv.SatpMode
	// MaxInterruptVectorNum returns the number of interrupt vector table entries.
	MaxInterruptVectorNum() int
	// SupportDebugMode returns whether the core implements debug mode.
	SupportDebugMode() bool
	// SupportPMP returns whether the core implements physical memory protection.
	SupportPMP() bool
	// PrivilegedModes returns the implemented privileged modes.
	PrivilegedModes() []riscv.PrivilegedMode
	// InterruptModes returns the implemented trap vector modes.
	InterruptModes() []riscv.MtvecMode
	// PerfCounters returns the implemented performance counter CSRs.
	PerfCounters() []riscv.CSR
	// MaxHarts returns the number of harts the core implements.
	MaxHarts() int
}

// Definition is the serialized form of a target profile.
type Definition struct {
	Name                  string   `yaml:"name"`
	Policy                string   `yaml:"policy"`
	XLEN                  int      `yaml:"xlen"`
	SupportedISA          []string `yaml:"supported_isa"`
	SatpMode              string   `yaml:"satp_mode"`
	MaxInterruptVectorNum int      `yaml:"max_interrupt_vector_num"`
	SupportDebugMode      bool     `yaml:"support_debug_mode"`
	SupportPMP            bool     `yaml:"support_pmp"`
	PrivilegedModes       []string `yaml:"supported_privileged_mode"`
	InterruptModes        []string `yaml:"supported_interrupt_mode"`
	PerfCounters          []string `yaml:"perf_counters"`
	NumHarts              int      `yaml:"num_harts"`
}

// Settings is a validated target profile.
type Settings struct {
	name     string
	policy   string
	xlen     int
	isa      []riscv.InstrGroup
	isaSet   set.Set[riscv.InstrGroup]
	satpMode riscv.SatpMode
	maxIntr  int
	debug    bool
	pmp      bool
	modes    []riscv.PrivilegedMode
	intModes []riscv.MtvecMode
	counters []riscv.CSR
	numHarts int
}

var errInvalidProfile = errors.New("invalid target profile")

// New creates a validated target profile from its definition.
//
//nolint:funlen,cyclop
func New(def Definition) (*Settings, error) {
	s := &Settings{
		name:     def.Name,
		policy:   def.Policy,
		xlen:     def.XLEN,
		isaSet:   set.New[riscv.InstrGroup](),
		maxIntr:  def.MaxInterruptVectorNum,
		debug:    def.SupportDebugMode,
		pmp:      def.SupportPMP,
		numHarts: def.NumHarts,
	}
	if s.name == "" {
		return nil, fmt.Errorf("%w: missing name", errInvalidProfile)
	}
	if s.xlen != 32 && s.xlen != 64 {
		return nil, fmt.Errorf("%w: unsupported xlen %d", errInvalidProfile, s.xlen)
	}
	if s.maxIntr < 1 {
		return nil, fmt.Errorf("%w: max interrupt vector number %d must be positive", errInvalidProfile, s.maxIntr)
	}
	if s.numHarts == 0 {
		s.numHarts = 1
	}

	for _, name := range def.SupportedISA {
		group, err := riscv.ParseInstrGroup(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidProfile, err)
		}
		if s.isaSet.Contains(group) {
			continue
		}
		s.isaSet.Add(group)
		s.isa = append(s.isa, group)
	}
	if len(s.isa) == 0 {
		return nil, fmt.Errorf("%w: no supported instruction groups", errInvalidProfile)
	}

	s.satpMode = riscv.Bare
	if def.SatpMode != "" {
		mode, err := riscv.ParseSatpMode(def.SatpMode)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidProfile, err)
		}
		s.satpMode = mode
	}

	for _, name := range def.PrivilegedModes {
		mode, err := riscv.ParsePrivilegedMode(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidProfile, err)
		}
		s.modes = append(s.modes, mode)
	}
	if !slices.Contains(s.modes, riscv.MachineMode) {
		return nil, fmt.Errorf("%w: machine mode is mandatory", errInvalidProfile)
	}

	for _, name := range def.InterruptModes {
		mode, err := riscv.ParseMtvecMode(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidProfile, err)
		}
		s.intModes = append(s.intModes, mode)
	}
	if len(s.intModes) == 0 {
		s.intModes = []riscv.MtvecMode{riscv.Direct}
	}

	for _, name := range def.PerfCounters {
		csr, err := riscv.ParseCSR(name)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidProfile, err)
		}
		if !csr.IsPerfCounter() {
			return nil, fmt.Errorf("%w: CSR %s is not a performance counter", errInvalidProfile, name)
		}
		s.counters = append(s.counters, csr)
	}

	return s, nil
}

// Name returns the name of the target.
func (s *Settings) Name() string { return s.name }

// Policy returns the name of the target policy.
func (s *Settings) Policy() string { return s.policy }

// XLEN returns the architecture word width in bits.
func (s *Settings) XLEN() int { return s.xlen }

// SupportedISA returns the supported instruction groups in definition order.
func (s *Settings) SupportedISA() []riscv.InstrGroup { return slices.Clone(s.isa) }

// SupportsGroup returns whether the instruction group is supported.
func (s *Settings) SupportsGroup(group riscv.InstrGroup) bool { return s.isaSet.Contains(group) }

// SupportsAtomics returns whether an atomic instruction group is supported.
func (s *Settings) SupportsAtomics() bool {
	return s.isaSet.Contains(riscv.RV32A) || s.isaSet.Contains(riscv.RV64A)
}

// SatpMode returns the paging mode of the target.
func (s *Settings) SatpMode() riscv.SatpMode { return s.satpMode }

// MaxInterruptVectorNum returns the number of interrupt vector table entries.
func (s *Settings) MaxInterruptVectorNum() int { return s.maxIntr }

// SupportDebugMode returns whether the core implements debug mode.
func (s *Settings) SupportDebugMode() bool { return s.debug }

// SupportPMP returns whether the core implements physical memory protection.
func (s *Settings) SupportPMP() bool { return s.pmp }

// PrivilegedModes returns the implemented privileged modes.
func (s *Settings) PrivilegedModes() []riscv.PrivilegedMode { return slices.Clone(s.modes) }

// InterruptModes returns the implemented trap vector modes.
func (s *Settings) InterruptModes() []riscv.MtvecMode { return slices.Clone(s.intModes) }

// PerfCounters returns the implemented performance counter CSRs.
func (s *Settings) PerfCounters() []riscv.CSR { return slices.Clone(s.counters) }

// MaxHarts returns the number of harts the core implements.
func (s *Settings) MaxHarts() int { return s.numHarts }
