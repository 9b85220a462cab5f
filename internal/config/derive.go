package config

import (
	"fmt"
	"math/bits"
	"math/rand"
	"slices"
	"strings"

	"github.com/retroenv/rvtestgen/internal/options"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"github.com/retroenv/rvtestgen/internal/target"
)

// minTvecAlignment is the alignment of a direct mode trap vector, the two low bits of
// xtvec encode the mode.
const minTvecAlignment = 2

// Derive creates the configuration of a test iteration from the program options, the
// target profile and the iteration seed. The randomized fields only depend on the seed,
// deriving twice with identical arguments returns identical configurations.
func Derive(opts options.Program, profile target.Profile, seed int64) (Config, error) {
	gen := opts.Generation
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // reproducible test generation

	cfg := Config{
		Seed:                   seed,
		NumOfHarts:             gen.NumOfHarts,
		BareProgramMode:        gen.BareProgramMode,
		DisableCompressedInstr: gen.DisableCompressedInstr,
		NoDataPage:             gen.NoDataPage,
		NoBranchJump:           gen.NoBranchJump,
		MainProgramInstrCnt:    gen.MainProgramInstrCnt,
		NumOfSubProgram:        gen.NumOfSubProgram,
		SubProgramInstrCnt:     gen.SubProgramInstrCnt,
		SignatureAddr:          gen.SignatureAddr,
		CheckXStatus:           gen.CheckXStatus,
		CheckMisaInitVal:       gen.CheckMisaInitVal,
		MstatusMPRV:            gen.MstatusMPRV,
		MstatusMXR:             gen.MstatusMXR,
		MstatusSUM:             gen.MstatusSUM,
		MstatusTVM:             gen.MstatusTVM,
		GenDebugSection:        gen.GenDebugSection,
		StackLen:               gen.StackLen,
		KernelStackLen:         gen.KernelStackLen,
		DataPageSize:           gen.DataPageSize,
		AsmTestSuffix:          opts.Suffix,
	}

	var err error
	if cfg.MtvecMode, err = deriveMtvecMode(gen.MtvecMode, profile, rng); err != nil {
		return Config{}, err
	}
	if cfg.InitPrivilegedMode, err = derivePrivilegedMode(gen.InitPrivilegedMode, profile, rng); err != nil {
		return Config{}, err
	}
	if cfg.SupportPMP, err = derivePMP(gen.PMP, profile); err != nil {
		return Config{}, err
	}

	cfg.TvecAlignment = TvecAlignment(cfg.MtvecMode, profile)
	assignRegisters(&cfg, gen.FixSP, rng)

	if err := cfg.Validate(profile); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// TvecAlignment returns the power of two alignment that the trap vector needs, a vector
// table has to fit into the region that the low xtvec bits address.
func TvecAlignment(mode riscv.MtvecMode, profile target.Profile) int {
	if mode != riscv.Vectored {
		return minTvecAlignment
	}
	size := uint(profile.XLEN() / 8 * profile.MaxInterruptVectorNum())
	alignment := bits.Len(size - 1)
	return max(alignment, minTvecAlignment)
}

func deriveMtvecMode(name string, profile target.Profile, rng *rand.Rand) (riscv.MtvecMode, error) {
	if name == "" {
		modes := profile.InterruptModes()
		return modes[rng.Intn(len(modes))], nil
	}
	mode, err := riscv.ParseMtvecMode(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return mode, nil
}

func derivePrivilegedMode(name string, profile target.Profile, rng *rand.Rand) (riscv.PrivilegedMode, error) {
	if name == "" {
		modes := profile.PrivilegedModes()
		return modes[rng.Intn(len(modes))], nil
	}
	mode, err := riscv.ParsePrivilegedMode(name)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return mode, nil
}

func derivePMP(request string, profile target.Profile) (bool, error) {
	switch strings.ToLower(request) {
	case "", options.PMPAuto:
		return profile.SupportPMP() && profile.SatpMode() == riscv.Bare, nil
	case options.PMPOn:
		return true, nil
	case options.PMPOff:
		return false, nil
	default:
		return false, fmt.Errorf("%w: unsupported pmp request '%s'", ErrInvalidConfig, request)
	}
}

// assignRegisters picks the stack pointers, the scratch register and the handler
// registers. Zero, ra and gp are never picked.
func assignRegisters(cfg *Config, fixSP bool, rng *rand.Rand) {
	candidates := make([]riscv.Reg, 0, riscv.NumGPR)
	for reg := riscv.SP; reg < riscv.NumGPR; reg++ {
		if reg != riscv.GP {
			candidates = append(candidates, reg)
		}
	}

	if fixSP {
		cfg.SP = riscv.SP
		cfg.TP = riscv.TP
	} else {
		perm := rng.Perm(len(candidates))
		cfg.SP = candidates[perm[0]]
		cfg.TP = candidates[perm[1]]
	}
	candidates = slices.DeleteFunc(candidates, func(reg riscv.Reg) bool {
		return reg == cfg.SP || reg == cfg.TP
	})

	perm := rng.Perm(len(candidates))
	cfg.ScratchReg = candidates[perm[0]]
	for i := range cfg.GPR {
		cfg.GPR[i] = candidates[perm[i+1]]
	}
}
