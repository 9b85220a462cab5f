// Package config handles application configuration and setup
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/rvtestgen/internal/options"
	"github.com/retroenv/rvtestgen/internal/riscv"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for configurations that can not be generated.
var ErrInvalidConfig = errors.New("invalid configuration")

// NumGPR is the number of general purpose registers that handler code may clobber.
const NumGPR = 4

// Config is the configuration of a single test program. It is derived once per
// test iteration and not modified afterwards.
type Config struct {
	Seed int64

	NumOfHarts             int
	BareProgramMode        bool
	MtvecMode              riscv.MtvecMode
	SupportPMP             bool // PMP requested for this run, the target has to implement it
	DisableCompressedInstr bool
	TvecAlignment          int
	NoDataPage             bool
	NoBranchJump           bool
	MainProgramInstrCnt    int
	NumOfSubProgram        int
	SubProgramInstrCnt     int
	SignatureAddr          uint64

	ScratchReg riscv.Reg
	GPR        [NumGPR]riscv.Reg
	SP         riscv.Reg // user stack pointer
	TP         riscv.Reg // kernel stack pointer

	CheckXStatus       bool
	CheckMisaInitVal   bool
	InitPrivilegedMode riscv.PrivilegedMode
	MstatusMPRV        bool
	MstatusMXR         bool
	MstatusSUM         bool
	MstatusTVM         bool
	GenDebugSection    bool

	StackLen       int
	KernelStackLen int
	DataPageSize   int
	AsmTestSuffix  string
}

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// LoadFile reads generation options from a YAML file. Fields missing in the file keep
// their current value.
func LoadFile(path string, gen *options.Generation) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, gen); err != nil {
		return fmt.Errorf("parsing config file '%s': %w", path, err)
	}
	return nil
}

// Reserved returns the registers that generated instruction sequences must not modify.
func (c *Config) Reserved() []riscv.Reg {
	return []riscv.Reg{riscv.Zero, riscv.RA, riscv.GP, c.SP, c.TP, c.ScratchReg}
}

// CompressedAllowed returns whether compressed instructions may be generated.
func (c *Config) CompressedAllowed() bool {
	return !c.DisableCompressedInstr
}

func (c *Config) registerErrors() error {
	fixed := []riscv.Reg{riscv.Zero, riscv.RA, riscv.GP}

	if c.SP == c.TP {
		return fmt.Errorf("%w: sp and tp use the same register %s", ErrInvalidConfig, c.SP)
	}
	for _, reg := range []riscv.Reg{c.SP, c.TP, c.ScratchReg} {
		if reg >= riscv.NumGPR || slices.Contains(fixed, reg) {
			return fmt.Errorf("%w: register %s can not be reserved", ErrInvalidConfig, reg)
		}
	}
	if c.ScratchReg == c.SP || c.ScratchReg == c.TP {
		return fmt.Errorf("%w: scratch register %s clashes with a stack pointer", ErrInvalidConfig, c.ScratchReg)
	}

	reserved := c.Reserved()
	for i, reg := range c.GPR {
		if reg >= riscv.NumGPR || slices.Contains(reserved, reg) {
			return fmt.Errorf("%w: handler register %s clashes with a reserved register", ErrInvalidConfig, reg)
		}
		if slices.Contains(c.GPR[:i], reg) {
			return fmt.Errorf("%w: handler register %s is assigned twice", ErrInvalidConfig, reg)
		}
	}
	return nil
}
