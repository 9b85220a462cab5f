package config

import (
	"fmt"
	"math"
	"slices"

	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/target"
)

// Validate checks that the configuration can be generated for the target profile.
//
//nolint:cyclop
func (c *Config) Validate(profile target.Profile) error {
	if err := c.validateCounts(profile); err != nil {
		return err
	}
	if err := c.registerErrors(); err != nil {
		return err
	}

	if c.SignatureAddr < 4 || c.SignatureAddr%4 != 0 {
		return fmt.Errorf("%w: signature address 0x%x has to be word aligned and above the control word",
			ErrInvalidConfig, c.SignatureAddr)
	}
	if profile.XLEN() == 32 && c.SignatureAddr > math.MaxUint32 {
		return fmt.Errorf("%w: signature address 0x%x exceeds the 32 bit address space", ErrInvalidConfig, c.SignatureAddr)
	}

	if !slices.Contains(profile.InterruptModes(), c.MtvecMode) {
		return fmt.Errorf("%w: mtvec mode %s is not supported by target %s", ErrInvalidConfig, c.MtvecMode, profile.Name())
	}
	if !slices.Contains(profile.PrivilegedModes(), c.InitPrivilegedMode) {
		return fmt.Errorf("%w: privileged mode %s is not supported by target %s",
			ErrInvalidConfig, c.InitPrivilegedMode, profile.Name())
	}

	if c.SupportPMP {
		if !profile.SupportPMP() {
			return fmt.Errorf("%w: target %s does not implement PMP", ErrInvalidConfig, profile.Name())
		}
		if profile.SatpMode() != riscv.Bare {
			return fmt.Errorf("%w: PMP ordering can not be combined with paging mode %s",
				ErrInvalidConfig, profile.SatpMode())
		}
	}

	if c.TvecAlignment < minTvecAlignment || c.TvecAlignment < TvecAlignment(c.MtvecMode, profile) {
		return fmt.Errorf("%w: trap vector alignment %d is too small", ErrInvalidConfig, c.TvecAlignment)
	}
	if c.GenDebugSection && !profile.SupportDebugMode() {
		return fmt.Errorf("%w: target %s does not implement debug mode", ErrInvalidConfig, profile.Name())
	}
	return nil
}

func (c *Config) validateCounts(profile target.Profile) error {
	counts := []struct {
		name  string
		value int
	}{
		{"hart", c.NumOfHarts},
		{"main program instruction", c.MainProgramInstrCnt},
		{"sub program", c.NumOfSubProgram},
		{"sub program instruction", c.SubProgramInstrCnt},
		{"stack length", c.StackLen},
		{"kernel stack length", c.KernelStackLen},
	}
	for _, count := range counts {
		if count.value <= 0 {
			return fmt.Errorf("%w: %s count %d must be positive", ErrInvalidConfig, count.name, count.value)
		}
	}

	// the trap entry saves all GPRs on the kernel stack
	if !c.BareProgramMode && c.KernelStackLen < riscv.NumGPR {
		return fmt.Errorf("%w: kernel stack length %d is shorter than the %d words that a trap saves",
			ErrInvalidConfig, c.KernelStackLen, riscv.NumGPR)
	}

	if c.NumOfHarts > profile.MaxHarts() {
		return fmt.Errorf("%w: hart count %d exceeds the %d harts of target %s",
			ErrInvalidConfig, c.NumOfHarts, profile.MaxHarts(), profile.Name())
	}
	if !c.NoDataPage && (c.DataPageSize <= 0 || c.DataPageSize%4 != 0) {
		return fmt.Errorf("%w: data page size %d must be a positive multiple of 4", ErrInvalidConfig, c.DataPageSize)
	}
	return nil
}
