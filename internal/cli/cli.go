// Package cli handles command line interface logic
package cli

import (
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/retroenv/rvtestgen/internal/config"
	"github.com/retroenv/rvtestgen/internal/options"
	"github.com/retroenv/rvtestgen/internal/target"
	"github.com/retroenv/rvtestgen/internal/verification"
	"github.com/xyproto/env/v2"
)

// Environment variables that override the built-in flag defaults.
const (
	envOutput     = "RVGEN_OUTPUT"
	envName       = "RVGEN_NAME"
	envTarget     = "RVGEN_TARGET"
	envConfig     = "RVGEN_CONFIG"
	envSeed       = "RVGEN_SEED"
	envIterations = "RVGEN_ITERATIONS"
	envJobs       = "RVGEN_JOBS"
	envDebug      = "RVGEN_DEBUG"
	envAssembler  = "RVGEN_AS"
)

// ParseFlags parses command line flags and returns the program options
func ParseFlags() (options.Program, error) {
	return parseArgs(os.Args[0], os.Args[1:])
}

func parseArgs(name string, args []string) (options.Program, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	opts := options.Program{Generation: options.NewGeneration()}
	readOptionFlags(flags, &opts)
	readGenerationFlags(flags, &opts.Generation)

	if err := flags.Parse(args); err != nil {
		return opts, &UsageError{flags: flags, msg: err.Error()}
	}
	if flags.NArg() > 0 {
		return opts, &UsageError{
			flags: flags,
			msg:   fmt.Sprintf("unexpected argument %s, all options have to be passed as flags", flags.Arg(0)),
		}
	}

	// values of the config file apply on top of the defaults, explicitly passed flags
	// have the highest priority and are applied again
	if opts.Config != "" {
		if err := config.LoadFile(opts.Config, &opts.Generation); err != nil {
			return opts, err
		}
		if err := flags.Parse(args); err != nil {
			return opts, &UsageError{flags: flags, msg: err.Error()}
		}
	}

	if err := normalizeOptions(&opts); err != nil {
		return opts, err
	}
	return opts, nil
}

// UsageError represents an error that should show usage information
type UsageError struct {
	flags *flag.FlagSet
	msg   string
}

func (e *UsageError) Error() string {
	return e.msg
}

func (e *UsageError) ShowUsage() {
	fmt.Printf("usage: rvtestgen [options]\n\n")
	e.flags.PrintDefaults()
	fmt.Println()
}

// normalizeOptions normalizes and validates option values
func normalizeOptions(opts *options.Program) error {
	opts.Target = strings.ToLower(opts.Target)
	opts.Generation.MtvecMode = strings.ToLower(opts.Generation.MtvecMode)
	opts.Generation.PMP = strings.ToLower(opts.Generation.PMP)

	if opts.Profile == "" {
		if _, err := target.Builtin(opts.Target); err != nil {
			return fmt.Errorf("unsupported target: %s. Valid options: %s",
				opts.Target, strings.Join(target.BuiltinNames(), ", "))
		}
	}

	var errs []error
	if opts.Name == "" {
		errs = append(errs, errors.New("test name must not be empty"))
	}
	if opts.Iterations <= 0 {
		errs = append(errs, fmt.Errorf("iterations must be positive, got %d", opts.Iterations))
	}
	if opts.Jobs <= 0 {
		errs = append(errs, fmt.Errorf("jobs must be positive, got %d", opts.Jobs))
	}
	if opts.Retries < 0 {
		errs = append(errs, fmt.Errorf("retries must not be negative, got %d", opts.Retries))
	}
	if opts.StartIndex < 0 {
		errs = append(errs, fmt.Errorf("start index must not be negative, got %d", opts.StartIndex))
	}
	switch opts.Generation.PMP {
	case options.PMPAuto, options.PMPOn, options.PMPOff:
	default:
		errs = append(errs, fmt.Errorf("unsupported pmp option '%s'", opts.Generation.PMP))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if opts.Seed < 0 {
		opts.Seed = rand.Int63() //nolint:gosec // only the first seed is random
	}
	return nil
}

func readOptionFlags(flags *flag.FlagSet, opts *options.Program) {
	flags.StringVar(&opts.Output, "o", env.Str(envOutput, "."), "output directory of the generated test files")
	flags.StringVar(&opts.Name, "name", env.Str(envName, "riscv_test"), "base name of the generated test files")
	flags.StringVar(&opts.Suffix, "suffix", "", "optional suffix appended to the test name")
	flags.StringVar(&opts.Target, "target", env.Str(envTarget, "ibex"), "built-in target ("+strings.Join(target.BuiltinNames(), "/")+")")
	flags.StringVar(&opts.Profile, "profile", "", "name of a target profile YAML file, overrides the target")
	flags.StringVar(&opts.Config, "config", env.Str(envConfig), "name of a YAML file with generation options")
	flags.Int64Var(&opts.Seed, "seed", int64(env.Int(envSeed, -1)), "seed of the first iteration, a negative value picks a random seed")
	flags.IntVar(&opts.Iterations, "iterations", env.Int(envIterations, 1), "number of test programs to generate")
	flags.IntVar(&opts.StartIndex, "start_idx", 0, "index of the first generated test file")
	flags.IntVar(&opts.Jobs, "jobs", env.Int(envJobs, 1), "number of test programs generated in parallel")
	flags.IntVar(&opts.Retries, "retries", 3, "generation retries with a new seed per iteration")
	flags.BoolVar(&opts.Verify, "verify", false, "verify the generated files by assembling them with the external assembler")
	flags.StringVar(&opts.Assembler, "as", env.Str(envAssembler, verification.DefaultAssembler), "external assembler used by -verify")
	flags.BoolVar(&opts.Debug, "debug", env.Bool(envDebug), "enable debugging options for extended logging")
	flags.BoolVar(&opts.Quiet, "q", false, "perform operations quietly")
}

func readGenerationFlags(flags *flag.FlagSet, gen *options.Generation) {
	flags.IntVar(&gen.NumOfHarts, "harts", gen.NumOfHarts, "number of harts")
	flags.BoolVar(&gen.BareProgramMode, "bare", gen.BareProgramMode, "generate a bare program without privileged setup and trap handlers")
	flags.StringVar(&gen.MtvecMode, "mtvec_mode", gen.MtvecMode, "trap vector mode (direct/vectored), random if not set")
	flags.StringVar(&gen.PMP, "pmp", gen.PMP, "physical memory protection setup (auto/on/off)")
	flags.BoolVar(&gen.DisableCompressedInstr, "disable_compressed", gen.DisableCompressedInstr, "disable compressed instructions")
	flags.BoolVar(&gen.NoDataPage, "no_data_page", gen.NoDataPage, "do not generate data pages")
	flags.BoolVar(&gen.NoBranchJump, "no_branch", gen.NoBranchJump, "do not generate branches")
	flags.IntVar(&gen.MainProgramInstrCnt, "instr_cnt", gen.MainProgramInstrCnt, "number of instructions of the main program")
	flags.IntVar(&gen.NumOfSubProgram, "sub_programs", gen.NumOfSubProgram, "number of sub programs")
	flags.IntVar(&gen.SubProgramInstrCnt, "sub_instr_cnt", gen.SubProgramInstrCnt, "number of instructions of every sub program")
	flags.Uint64Var(&gen.SignatureAddr, "signature_addr", gen.SignatureAddr, "address that test status and register dumps are written to")
	flags.StringVar(&gen.InitPrivilegedMode, "init_priv", gen.InitPrivilegedMode, "privileged mode of the main program (machine/supervisor/user)")
	flags.BoolVar(&gen.FixSP, "fix_sp", gen.FixSP, "use x2 as user stack pointer")
	flags.BoolVar(&gen.MstatusMPRV, "mprv", gen.MstatusMPRV, "set mstatus.mprv")
	flags.BoolVar(&gen.CheckMisaInitVal, "check_misa", gen.CheckMisaInitVal, "read misa before writing it")
	flags.BoolVar(&gen.CheckXStatus, "check_xstatus", gen.CheckXStatus, "read the status register in the trap handlers")
	flags.BoolVar(&gen.GenDebugSection, "debug_section", gen.GenDebugSection, "generate the debug ROM section")
}
